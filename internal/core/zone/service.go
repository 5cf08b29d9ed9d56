package zone

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/atelier/internal/core/asset"
	"github.com/taibuivan/atelier/internal/delivery"
	"github.com/taibuivan/atelier/internal/platform/apperr"
	"github.com/taibuivan/atelier/internal/platform/validate"
	"github.com/taibuivan/atelier/pkg/uuid"
)

// AssetLookup is the slice of the catalog the zone service reads.
type AssetLookup interface {
	Get(context context.Context, id string) (*asset.Asset, error)
}

// CreateInput describes an ad hoc zone.
type CreateInput struct {
	PagePath    string             `json:"page_path"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Purpose     string             `json:"purpose"`
	Overrides   delivery.Overrides `json:"overrides"`
}

// ApplyResult reports what a template application did.
type ApplyResult struct {
	Template string   `json:"template"`
	PagePath string   `json:"page_path"`
	Created  []*Zone  `json:"created"`
	Skipped  []string `json:"skipped"`
}

// Resolution is the outcome of looking up a page slot. Zone is nil when the
// page has no such zone; Asset is nil when nothing renders in it.
type Resolution struct {
	Zone  *Zone
	Asset *asset.Asset
}

type Service struct {
	repo      Repository
	assets    AssetLookup
	cache     Cache
	templates *TemplateSet
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, assets AssetLookup, cache Cache, templates *TemplateSet, logger *slog.Logger) *Service {
	if cache == nil {
		cache = NoCache{}
	}
	return &Service{
		repo:      repo,
		assets:    assets,
		cache:     cache,
		templates: templates,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// # Editor

// CreateZone adds a single zone. The page path is cleaned and the name
// reduced to a slug before the uniqueness check.
func (service *Service) CreateZone(context context.Context, input CreateInput) (*Zone, error) {
	pagePath := NormalizePath(input.PagePath)
	name := NormalizeName(input.Name)
	purpose := delivery.ParsePurpose(input.Purpose)
	description := strings.TrimSpace(input.Description)
	overrides := normalizeOverrides(input.Overrides)

	validator := &validate.Validator{}
	validator.
		Required(FieldPagePath, strings.TrimSpace(input.PagePath)).
		MaxLen(FieldPagePath, pagePath, maxPagePath).
		Required(FieldName, name).
		MaxLen(FieldName, name, maxName).
		MaxLen(FieldDescription, description, maxDescription).
		Required(FieldPurpose, string(purpose))
	ValidateOverrides(validator, overrides)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	now := service.now()
	zone := &Zone{
		ID:          uuid.New(),
		PagePath:    pagePath,
		Name:        name,
		Description: description,
		Purpose:     purpose,
		Overrides:   overrides,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := service.repo.Create(context, zone); err != nil {
		return nil, err
	}
	service.invalidate(context, zone)

	service.logger.Info("zone_created",
		slog.String("zone_id", zone.ID),
		slog.String("page_path", zone.PagePath),
		slog.String("zone_name", zone.Name),
	)
	return zone, nil
}

/*
ApplyTemplate provisions every zone of a template on a page.

Description: Zones whose (page, name) key already exists are left as they
are, so applying a template twice is harmless and never clears assignments.

Returns:
  - *ApplyResult: created zones plus the names that were skipped
  - error: ValidationError for an unknown template, or store failures
*/
func (service *Service) ApplyTemplate(context context.Context, templateName, page string) (*ApplyResult, error) {
	template, ok := service.templates.Lookup(templateName)
	if !ok {
		return nil, validate.RequiredError(FieldTemplate, "Unknown template; expected one of "+strings.Join(service.templates.Names(), ", "))
	}
	if strings.TrimSpace(page) == "" {
		return nil, validate.RequiredError(FieldPagePath, "This field is required")
	}

	pagePath := NormalizePath(page)
	now := service.now()

	zones := make([]*Zone, 0, len(template.Zones))
	for _, spec := range template.Zones {
		zones = append(zones, &Zone{
			ID:          uuid.New(),
			PagePath:    pagePath,
			Name:        spec.Name,
			Description: spec.Description,
			Purpose:     delivery.Purpose(spec.Purpose),
			Overrides:   spec.Overrides(),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	created, err := service.repo.CreateMany(context, zones)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{Template: template.Name, PagePath: pagePath, Created: created, Skipped: []string{}}
	inserted := make(map[string]bool, len(created))
	for _, zone := range created {
		inserted[zone.Name] = true
		service.invalidate(context, zone)
	}
	for _, zone := range zones {
		if !inserted[zone.Name] {
			result.Skipped = append(result.Skipped, zone.Name)
		}
	}

	service.logger.Info("zone_template_applied",
		slog.String("template", template.Name),
		slog.String("page_path", pagePath),
		slog.Int("created", len(result.Created)),
		slog.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// Assign binds an asset to a zone. The asset must exist at the time of the
// call; nothing stops it from being deleted afterwards.
func (service *Service) Assign(context context.Context, zoneID, assetID string) (*Zone, error) {
	validator := &validate.Validator{}
	validator.UUID(FieldID, zoneID).Required(FieldAssetID, assetID).UUID(FieldAssetID, assetID)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if _, err := service.assets.Get(context, assetID); err != nil {
		if errors.Is(err, asset.ErrNotFound) {
			return nil, validate.RequiredError(FieldAssetID, "Asset does not exist")
		}
		return nil, err
	}

	zone, err := service.mutate(context, zoneID, func(zone *Zone) {
		zone.AssignedAssetID = &assetID
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info("zone_assigned",
		slog.String("zone_id", zone.ID),
		slog.String("asset_id", assetID),
	)
	return zone, nil
}

// Unassign clears the zone's asset. The asset itself is untouched.
func (service *Service) Unassign(context context.Context, zoneID string) (*Zone, error) {
	if err := (&validate.Validator{}).UUID(FieldID, zoneID).Err(); err != nil {
		return nil, err
	}

	zone, err := service.mutate(context, zoneID, func(zone *Zone) {
		zone.AssignedAssetID = nil
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info("zone_unassigned", slog.String("zone_id", zone.ID))
	return zone, nil
}

// UpdateOverrides replaces the zone's presentation overrides wholesale. An
// empty value clears them.
func (service *Service) UpdateOverrides(context context.Context, zoneID string, overrides delivery.Overrides) (*Zone, error) {
	overrides = normalizeOverrides(overrides)

	validator := &validate.Validator{}
	validator.UUID(FieldID, zoneID)
	ValidateOverrides(validator, overrides)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	return service.mutate(context, zoneID, func(zone *Zone) {
		zone.Overrides = overrides
	})
}

// DeleteZone removes a zone. Its asset, if any, stays in the catalog.
func (service *Service) DeleteZone(context context.Context, zoneID string) error {
	if err := (&validate.Validator{}).UUID(FieldID, zoneID).Err(); err != nil {
		return err
	}

	zone, err := service.repo.Delete(context, zoneID)
	if err != nil {
		return err
	}
	service.invalidate(context, zone)

	service.logger.Warn("zone_deleted",
		slog.String("zone_id", zone.ID),
		slog.String("page_path", zone.PagePath),
		slog.String("zone_name", zone.Name),
	)
	return nil
}

// ListPage returns the zones of a page, or every zone when page is empty.
func (service *Service) ListPage(context context.Context, page string) ([]*Zone, error) {
	if strings.TrimSpace(page) == "" {
		return service.repo.ListByPage(context, "")
	}
	return service.repo.ListByPage(context, NormalizePath(page))
}

func (service *Service) Get(context context.Context, zoneID string) (*Zone, error) {
	if err := (&validate.Validator{}).UUID(FieldID, zoneID).Err(); err != nil {
		return nil, err
	}
	return service.repo.FindByID(context, zoneID)
}

// Templates lists the templates available to [Service.ApplyTemplate].
func (service *Service) Templates() []Template {
	return service.templates.All()
}

// Ping checks the zone store.
func (service *Service) Ping(context context.Context) error {
	return service.repo.Ping(context)
}

// mutate loads a zone, applies change, stamps UpdatedAt and writes it back.
func (service *Service) mutate(context context.Context, zoneID string, change func(zone *Zone)) (*Zone, error) {
	zone, err := service.repo.FindByID(context, zoneID)
	if err != nil {
		return nil, err
	}

	change(zone)
	zone.UpdatedAt = service.now()

	if err := service.repo.Update(context, zone); err != nil {
		return nil, err
	}
	service.invalidate(context, zone)
	return zone, nil
}

func (service *Service) invalidate(context context.Context, zone *Zone) {
	if err := service.cache.Invalidate(context, zone.PagePath, zone.Name); err != nil {
		service.logger.Warn("zone_cache_invalidate_failed",
			slog.String("zone_id", zone.ID),
			slog.Any("error", err),
		)
	}
}

// # Resolution

// ResolveZone returns the asset to render in a page slot, or nil when the
// slot is empty. Only store outages produce an error.
func (service *Service) ResolveZone(context context.Context, page, name string) (*asset.Asset, error) {
	resolution, err := service.Resolve(context, page, name)
	if err != nil {
		return nil, err
	}
	return resolution.Asset, nil
}

/*
Resolve looks up a page slot and dereferences its asset.

Description: A missing zone, an unassigned zone and a zone pointing at an
asset that no longer exists all resolve to a nil Asset. The dangling case is
logged. Zone records are read through the cache; the asset is always read
from the catalog.

Returns:
  - Resolution: the zone (if any) and its asset (if any)
  - error: store failures only
*/
func (service *Service) Resolve(context context.Context, page, name string) (Resolution, error) {
	pagePath, zoneName := NormalizePath(page), NormalizeName(name)
	if zoneName == "" {
		return Resolution{}, nil
	}

	zone, err := service.findByKey(context, pagePath, zoneName)
	if errors.Is(err, ErrNotFound) {
		return Resolution{}, nil
	}
	if err != nil {
		return Resolution{}, err
	}

	if !zone.Assigned() {
		return Resolution{Zone: zone}, nil
	}

	found, err := service.assets.Get(context, *zone.AssignedAssetID)
	if err != nil {
		if isDangling(err) {
			service.logger.Warn("zone_reference_dangling",
				slog.String("zone_id", zone.ID),
				slog.String("page_path", zone.PagePath),
				slog.String("zone_name", zone.Name),
				slog.String("asset_id", *zone.AssignedAssetID),
			)
			return Resolution{Zone: zone}, nil
		}
		return Resolution{}, err
	}

	return Resolution{Zone: zone, Asset: found}, nil
}

func (service *Service) findByKey(context context.Context, pagePath, name string) (*Zone, error) {
	cached, err := service.cache.Get(context, pagePath, name)
	if err != nil {
		service.logger.Warn("zone_cache_unavailable", slog.Any("error", err))
	}
	if cached != nil {
		return cached, nil
	}

	zone, err := service.repo.FindByKey(context, pagePath, name)
	if err != nil {
		return nil, err
	}

	if err := service.cache.Set(context, zone); err != nil {
		service.logger.Warn("zone_cache_unavailable", slog.Any("error", err))
	}
	return zone, nil
}

// isDangling reports whether an asset lookup failed because the id no
// longer names a live asset, as opposed to the catalog being unreachable.
func isDangling(err error) bool {
	if errors.Is(err, asset.ErrNotFound) {
		return true
	}
	appErr := apperr.As(err)
	return appErr != nil && (appErr.Code == "NOT_FOUND" || appErr.Code == "VALIDATION_ERROR")
}
