package schema

// PageZoneTable represents the 'page_zone' table
type PageZoneTable struct {
	Table           string
	ID              string
	PagePath        string
	Name            string
	Description     string
	Purpose         string
	AssignedAssetID string
	Overrides       string
	CreatedAt       string
	UpdatedAt       string
}

// PageZone is the schema definition for page_zone
var PageZone = PageZoneTable{
	Table:           "page_zone",
	ID:              "id",
	PagePath:        "pagepath",
	Name:            "name",
	Description:     "description",
	Purpose:         "purpose",
	AssignedAssetID: "assignedassetid",
	Overrides:       "overrides",
	CreatedAt:       "createdat",
	UpdatedAt:       "updatedat",
}

func (t PageZoneTable) Columns() []string {
	return []string{
		t.ID, t.PagePath, t.Name, t.Description, t.Purpose,
		t.AssignedAssetID, t.Overrides, t.CreatedAt, t.UpdatedAt,
	}
}
