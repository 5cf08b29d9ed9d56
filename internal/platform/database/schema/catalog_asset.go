// Package schema names the catalog tables and columns shared by the
// PostgreSQL and SQLite stores.
package schema

// CatalogAssetTable represents the 'catalog_asset' table
type CatalogAssetTable struct {
	Table          string
	ID             string
	SourceKind     string
	SourceValue    string
	DisplayName    string
	Category       string
	Tags           string
	CustomMetadata string
	Width          string
	Height         string
	Visibility     string
	CreatedAt      string
	UpdatedAt      string
	DeletedAt      string
}

// CatalogAsset is the schema definition for catalog_asset
var CatalogAsset = CatalogAssetTable{
	Table:          "catalog_asset",
	ID:             "id",
	SourceKind:     "sourcekind",
	SourceValue:    "sourcevalue",
	DisplayName:    "displayname",
	Category:       "category",
	Tags:           "tags",
	CustomMetadata: "custommetadata",
	Width:          "width",
	Height:         "height",
	Visibility:     "visibility",
	CreatedAt:      "createdat",
	UpdatedAt:      "updatedat",
	DeletedAt:      "deletedat",
}

func (t CatalogAssetTable) Columns() []string {
	return []string{
		t.ID, t.SourceKind, t.SourceValue, t.DisplayName, t.Category, t.Tags,
		t.CustomMetadata, t.Width, t.Height, t.Visibility, t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
