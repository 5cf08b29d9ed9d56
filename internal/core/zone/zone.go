// Package zone maps named regions of site pages to catalog assets.
//
// A zone is keyed by (page path, name). It may be unassigned, and the asset
// it points at may disappear at any time; resolution treats both cases as an
// empty slot.
package zone

import (
	"path"
	"strings"
	"time"

	"github.com/taibuivan/atelier/internal/delivery"
	"github.com/taibuivan/atelier/internal/platform/apperr"
	"github.com/taibuivan/atelier/internal/platform/validate"
	"github.com/taibuivan/atelier/pkg/slug"
)

var (
	// ErrNotFound is returned when no zone matches an id or key.
	ErrNotFound = apperr.NotFound("Zone")

	// ErrDuplicate is returned when the page already has a zone with that name.
	ErrDuplicate = apperr.Conflict("The page already has a zone with this name")
)

// Zone is a named image slot on a page.
type Zone struct {
	ID              string             `json:"id"`
	PagePath        string             `json:"page_path"`
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	Purpose         delivery.Purpose   `json:"purpose"`
	AssignedAssetID *string            `json:"assigned_asset_id"`
	Overrides       delivery.Overrides `json:"overrides"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Assigned reports whether an asset is bound to the zone.
func (z *Zone) Assigned() bool {
	return z.AssignedAssetID != nil && *z.AssignedAssetID != ""
}

// NormalizePath cleans a page path into "/a/b" form. Empty input is the
// site root.
func NormalizePath(page string) string {
	page = strings.TrimSpace(page)
	page = strings.ToLower(strings.ReplaceAll(page, "\\", "/"))
	return path.Clean("/" + page)
}

// NormalizeName turns a zone name into its slug form: "Hero Banner" is "hero-banner".
func NormalizeName(name string) string {
	return slug.From(name)
}

// # Validation

const (
	FieldID          = "id"
	FieldPagePath    = "page_path"
	FieldName        = "name"
	FieldDescription = "description"
	FieldPurpose     = "purpose"
	FieldAssetID     = "asset_id"
	FieldTemplate    = "template"

	FieldOverrideWidth       = "overrides.width"
	FieldOverrideHeight      = "overrides.height"
	FieldOverrideObjectFit   = "overrides.object_fit"
	FieldOverrideAspectRatio = "overrides.aspect_ratio"
)

const (
	maxPagePath    = 255
	maxName        = 100
	maxDescription = 500
	maxDimension   = 20000
)

// ObjectFits are the CSS object-fit values a zone may request.
var ObjectFits = []string{"cover", "contain", "fill", "none", "scale-down"}

// ValidateOverrides adds override errors to validator.
func ValidateOverrides(validator *validate.Validator, overrides delivery.Overrides) *validate.Validator {
	validator.
		OptionalRange(FieldOverrideWidth, overrides.Width, 1, maxDimension).
		OptionalRange(FieldOverrideHeight, overrides.Height, 1, maxDimension)

	if overrides.ObjectFit != "" {
		validator.OneOf(FieldOverrideObjectFit, overrides.ObjectFit, ObjectFits...)
	}
	if overrides.AspectRatio != "" {
		_, ok := delivery.ParseAspectRatio(overrides.AspectRatio)
		validator.Custom(FieldOverrideAspectRatio, !ok, "Must look like 16:9, 4/3 or 1.5")
	}
	return validator
}

func normalizeOverrides(overrides delivery.Overrides) delivery.Overrides {
	overrides.ObjectFit = strings.ToLower(strings.TrimSpace(overrides.ObjectFit))
	overrides.AspectRatio = strings.TrimSpace(overrides.AspectRatio)
	return overrides
}
