// Package render binds zone resolution and the catalog to the delivery
// pipeline, producing the image markup the public site embeds.
package render

import (
	"context"
	"log/slog"
	"math"

	"github.com/taibuivan/atelier/internal/core/asset"
	"github.com/taibuivan/atelier/internal/core/zone"
	"github.com/taibuivan/atelier/internal/delivery"
)

// ZoneResolver looks up page slots.
type ZoneResolver interface {
	Resolve(context context.Context, page, name string) (zone.Resolution, error)
}

// AssetLookup reads single catalog records.
type AssetLookup interface {
	Get(context context.Context, id string) (*asset.Asset, error)
}

// Options are the caller's per-request hints.
type Options struct {
	Width       int
	Height      int
	Sizes       string
	Priority    bool
	Breakpoints []int
}

// View is a rendered slot: the markup contract plus its HTML form.
type View struct {
	AssetID string          `json:"asset_id"`
	Markup  delivery.Markup `json:"markup"`
	HTML    string          `json:"html"`
}

type Service struct {
	zones   ZoneResolver
	assets  AssetLookup
	builder *delivery.Builder
	logger  *slog.Logger
}

func NewService(zones ZoneResolver, assets AssetLookup, builder *delivery.Builder, logger *slog.Logger) *Service {
	return &Service{zones: zones, assets: assets, builder: builder, logger: logger}
}

/*
RenderZone renders whatever is assigned to a page slot.

Description: The zone's purpose selects the transform rule and its overrides
take precedence over opts. An empty slot (missing zone, no assignment,
dangling reference or private asset) is a nil view, not an error.

Returns:
  - *View: the rendered slot, or nil when nothing should be shown
  - error: store failures only
*/
func (service *Service) RenderZone(context context.Context, page, name string, opts Options) (*View, error) {
	resolution, err := service.zones.Resolve(context, page, name)
	if err != nil {
		return nil, err
	}
	if resolution.Asset == nil {
		return nil, nil
	}

	if !resolution.Asset.IsPublic() {
		service.logger.Debug("zone_asset_private",
			slog.String("zone_id", resolution.Zone.ID),
			slog.String("asset_id", resolution.Asset.ID),
		)
		return nil, nil
	}

	return service.view(resolution.Asset, resolution.Zone.Purpose, resolution.Zone.Overrides, opts), nil
}

// RenderAsset renders one public asset for an explicit purpose. Private
// assets are reported as not found.
func (service *Service) RenderAsset(context context.Context, id string, purpose delivery.Purpose, opts Options) (*View, error) {
	found, err := service.assets.Get(context, id)
	if err != nil {
		return nil, err
	}
	if !found.IsPublic() {
		return nil, asset.ErrNotFound
	}

	return service.view(found, purpose, delivery.Overrides{}, opts), nil
}

func (service *Service) view(a *asset.Asset, purpose delivery.Purpose, overrides delivery.Overrides, opts Options) *View {
	markup := service.builder.Render(delivery.RenderInput{
		Source:      a.Source,
		Purpose:     purpose,
		Width:       opts.Width,
		Height:      opts.Height,
		Overrides:   overrides,
		Sizes:       opts.Sizes,
		Priority:    opts.Priority,
		Alt:         a.DisplayName,
		Breakpoints: opts.Breakpoints,
	})

	// A proportional rule leaves the height open; the intrinsic aspect
	// still lets the page reserve the right box.
	if markup.Height == 0 && markup.Width > 0 && a.Width != nil && a.Height != nil && *a.Width > 0 {
		markup.Height = int(math.Round(float64(markup.Width) * float64(*a.Height) / float64(*a.Width)))
	}

	return &View{AssetID: a.ID, Markup: markup, HTML: markup.HTML()}
}
