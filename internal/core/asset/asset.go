// Package asset is the photograph catalog: metadata per image plus the
// locator the delivery pipeline renders from.
package asset

import (
	"slices"
	"strings"
	"time"

	"github.com/taibuivan/atelier/internal/delivery"
	"github.com/taibuivan/atelier/internal/platform/apperr"
)

// Visibility controls whether the public site may render an asset.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ErrNotFound is returned when no live asset has the requested id.
var ErrNotFound = apperr.NotFound("Asset")

// Asset is one cataloged image.
type Asset struct {
	ID             string            `json:"id"`
	Source         delivery.Locator  `json:"source"`
	DisplayName    string            `json:"display_name"`
	Category       string            `json:"category"`
	Tags           []string          `json:"tags"`
	CustomMetadata map[string]string `json:"custom_metadata"`
	Width          *int              `json:"width"`
	Height         *int              `json:"height"`
	Visibility     Visibility        `json:"visibility"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	DeletedAt      *time.Time        `json:"-"` // soft-delete tracker
}

// IsPublic reports whether the public site may render the asset.
func (a *Asset) IsPublic() bool {
	return a.Visibility != VisibilityPrivate
}

// HasTags reports whether every tag in want is on the asset.
func (a *Asset) HasTags(want []string) bool {
	for _, tag := range want {
		if !slices.Contains(a.Tags, tag) {
			return false
		}
	}
	return true
}

// Filter narrows a catalog listing. Category and Visibility are matched by
// the store; Tags are matched in memory.
type Filter struct {
	Category   string
	Visibility Visibility
	Tags       []string
}

// Patch is a partial update. Nil fields are left untouched; a non-nil empty
// Tags or CustomMetadata clears the field.
type Patch struct {
	DisplayName    *string           `json:"display_name"`
	Category       *string           `json:"category"`
	Tags           []string          `json:"tags"`
	CustomMetadata map[string]string `json:"custom_metadata"`
	Width          *int              `json:"width"`
	Height         *int              `json:"height"`
	Visibility     *Visibility       `json:"visibility"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.DisplayName == nil && p.Category == nil && p.Tags == nil &&
		p.CustomMetadata == nil && p.Width == nil && p.Height == nil && p.Visibility == nil
}

// NormalizeTags trims, lowercases, de-duplicates and sorts tags so the tag
// set compares by value. Blank entries are dropped.
func NormalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		if clean := strings.ToLower(strings.TrimSpace(tag)); clean != "" {
			normalized = append(normalized, clean)
		}
	}
	slices.Sort(normalized)
	return slices.Compact(normalized)
}

const (
	FieldID             = "id"
	FieldURL            = "url"
	FieldFile           = "file"
	FieldDisplayName    = "display_name"
	FieldCategory       = "category"
	FieldTags           = "tags"
	FieldCustomMetadata = "custom_metadata"
	FieldWidth          = "width"
	FieldHeight         = "height"
	FieldVisibility     = "visibility"
)

const (
	maxDisplayName = 200
	maxCategory    = 100
	maxTags        = 50
	maxTagLength   = 64
	maxMetadata    = 50
	maxDimension   = 20000
)
