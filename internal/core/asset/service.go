package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	// Decoders for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/taibuivan/atelier/internal/delivery"
	"github.com/taibuivan/atelier/internal/platform/apperr"
	"github.com/taibuivan/atelier/internal/platform/storage"
	"github.com/taibuivan/atelier/internal/platform/validate"
	"github.com/taibuivan/atelier/pkg/pointer"
	"github.com/taibuivan/atelier/pkg/slice"
	"github.com/taibuivan/atelier/pkg/slug"
	"github.com/taibuivan/atelier/pkg/uuid"
)

// imageExtensions maps accepted upload content types to key extensions.
var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Metadata is the editable part of an asset, shared by both creation paths.
type Metadata struct {
	DisplayName    string            `json:"display_name"`
	Category       string            `json:"category"`
	Tags           []string          `json:"tags"`
	CustomMetadata map[string]string `json:"custom_metadata"`
	Visibility     Visibility        `json:"visibility"`
}

// UploadInput is an original photograph plus its metadata.
type UploadInput struct {
	Metadata
	Filename string
	Body     io.Reader
}

// ExternalInput registers an image hosted elsewhere.
type ExternalInput struct {
	Metadata
	URL    string `json:"url"`
	Width  *int   `json:"width"`
	Height *int   `json:"height"`
}

type Service struct {
	repo           Repository
	blobs          storage.ObjectStorage
	logger         *slog.Logger
	maxUploadBytes int64
	now            func() time.Time
}

func NewService(repo Repository, blobs storage.ObjectStorage, logger *slog.Logger, maxUploadBytes int64) *Service {
	return &Service{
		repo:           repo,
		blobs:          blobs,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

/*
Upload stores an original in object storage and catalogs it.

Description: The bytes are sniffed (only jpeg, png, gif and webp are
accepted) and their pixel dimensions decoded when the format allows. The
object lands under assets/<id>/<name>.<ext>. If the catalog write fails the
object is removed again.

Returns:
  - *Asset: the new record with a fresh id
  - error: ValidationError, PayloadTooLarge, UnsupportedMediaType or storage failures
*/
func (service *Service) Upload(context context.Context, input UploadInput) (*Asset, error) {
	if input.Body == nil {
		return nil, validate.RequiredError(FieldFile, "An image file is required")
	}

	meta := normalizeMetadata(input.Metadata, input.Filename)
	if err := validateMetadata(meta, nil, nil); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(input.Body, service.maxUploadBytes+1))
	if err != nil {
		return nil, apperr.ValidationError("Could not read upload")
	}
	if int64(len(data)) > service.maxUploadBytes {
		return nil, apperr.PayloadTooLarge(service.maxUploadBytes)
	}
	if len(data) == 0 {
		return nil, validate.RequiredError(FieldFile, "The uploaded file is empty")
	}

	contentType := http.DetectContentType(data)
	extension, ok := imageExtensions[contentType]
	if !ok {
		return nil, apperr.UnsupportedMediaType(contentType)
	}

	id := uuid.New()
	key := storageKey(id, input.Filename, meta.DisplayName, extension)
	now := service.now()

	asset := &Asset{
		ID:             id,
		Source:         delivery.StorageKey(key),
		DisplayName:    meta.DisplayName,
		Category:       meta.Category,
		Tags:           meta.Tags,
		CustomMetadata: meta.CustomMetadata,
		Visibility:     meta.Visibility,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if config, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		asset.Width = pointer.To(config.Width)
		asset.Height = pointer.To(config.Height)
	}

	if err := service.blobs.Put(context, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, apperr.ServiceUnavailable("Object storage unavailable", err)
	}

	if err := service.repo.CreateAsset(context, asset); err != nil {
		if cleanupErr := service.blobs.Delete(context, key); cleanupErr != nil {
			service.logger.Error("asset_upload_orphaned",
				slog.String("storage_key", key),
				slog.Any("error", cleanupErr),
			)
		}
		return nil, err
	}

	service.logger.Info("asset_uploaded",
		slog.String("asset_id", asset.ID),
		slog.String("storage_key", key),
		slog.Int("size_bytes", len(data)),
	)
	return asset, nil
}

// CreateExternal catalogs an image hosted outside our storage. It renders
// unchanged: no responsive candidates and no cheap placeholder.
func (service *Service) CreateExternal(context context.Context, input ExternalInput) (*Asset, error) {
	meta := normalizeMetadata(input.Metadata, input.URL)

	validator := &validate.Validator{}
	validator.Required(FieldURL, input.URL).URL(FieldURL, input.URL)
	if err := validator.Err(); err != nil {
		return nil, err
	}
	if err := validateMetadata(meta, input.Width, input.Height); err != nil {
		return nil, err
	}

	now := service.now()
	asset := &Asset{
		ID:             uuid.New(),
		Source:         delivery.ExternalURL(input.URL),
		DisplayName:    meta.DisplayName,
		Category:       meta.Category,
		Tags:           meta.Tags,
		CustomMetadata: meta.CustomMetadata,
		Width:          input.Width,
		Height:         input.Height,
		Visibility:     meta.Visibility,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := service.repo.CreateAsset(context, asset); err != nil {
		return nil, err
	}

	service.logger.Info("asset_registered_external", slog.String("asset_id", asset.ID))
	return asset, nil
}

func (service *Service) Get(context context.Context, id string) (*Asset, error) {
	if err := (&validate.Validator{}).UUID(FieldID, id).Err(); err != nil {
		return nil, err
	}
	return service.repo.GetAsset(context, id)
}

/*
List returns one page of the catalog.

Description: Category and visibility are matched by the store. A tag filter
is applied in memory over the whole category, then paginated, so totals stay
exact.
*/
func (service *Service) List(context context.Context, filter Filter, limit, offset int) ([]*Asset, int, error) {
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Tags = NormalizeTags(filter.Tags)

	validator := &validate.Validator{}
	validator.Tags(FieldTags, filter.Tags)
	if filter.Visibility != "" {
		validator.OneOf(FieldVisibility, string(filter.Visibility), string(VisibilityPublic), string(VisibilityPrivate))
	}
	if err := validator.Err(); err != nil {
		return nil, 0, err
	}

	if len(filter.Tags) == 0 {
		return service.repo.ListAssets(context, filter, limit, offset)
	}

	all, _, err := service.repo.ListAssets(context, filter, 0, 0)
	if err != nil {
		return nil, 0, err
	}

	matched := slice.Filter(all, func(a *Asset) bool { return a.HasTags(filter.Tags) })
	total := len(matched)

	start := min(max(offset, 0), total)
	end := total
	if limit > 0 {
		end = min(start+limit, total)
	}
	return matched[start:end], total, nil
}

// Update merges patch into the asset and bumps its UpdatedAt.
func (service *Service) Update(context context.Context, id string, patch Patch) (*Asset, error) {
	if patch.Tags != nil {
		patch.Tags = NormalizeTags(patch.Tags)
	}
	if patch.DisplayName != nil {
		patch.DisplayName = pointer.To(strings.TrimSpace(*patch.DisplayName))
	}
	if patch.Category != nil {
		patch.Category = pointer.To(strings.TrimSpace(*patch.Category))
	}

	validator := &validate.Validator{}
	validator.UUID(FieldID, id)
	if patch.DisplayName != nil {
		validator.Required(FieldDisplayName, *patch.DisplayName).MaxLen(FieldDisplayName, *patch.DisplayName, maxDisplayName)
	}
	if patch.Category != nil {
		validator.MaxLen(FieldCategory, *patch.Category, maxCategory)
	}
	if patch.Visibility != nil {
		validator.OneOf(FieldVisibility, string(*patch.Visibility), string(VisibilityPublic), string(VisibilityPrivate))
	}
	validateTags(validator, patch.Tags)
	validateCustomMetadata(validator, patch.CustomMetadata)
	validator.OptionalRange(FieldWidth, patch.Width, 1, maxDimension)
	validator.OptionalRange(FieldHeight, patch.Height, 1, maxDimension)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if patch.IsEmpty() {
		return service.repo.GetAsset(context, id)
	}

	asset, err := service.repo.UpdateAsset(context, id, patch, service.now())
	if err != nil {
		return nil, err
	}

	service.logger.Info("asset_updated", slog.String("asset_id", id))
	return asset, nil
}

/*
Delete removes an asset from the catalog.

Description: A soft delete hides the record and keeps the original. A hard
delete soft-deletes the record, releases the stored original and only then
removes the row, so a failed release leaves a record that a retry can finish.
Zones pointing at the asset are left alone and resolve to an empty slot
afterwards.
*/
func (service *Service) Delete(context context.Context, id string, hard bool) error {
	if err := (&validate.Validator{}).UUID(FieldID, id).Err(); err != nil {
		return err
	}

	if !hard {
		if err := service.repo.SoftDeleteAsset(context, id, service.now()); err != nil {
			return err
		}
		service.logger.Warn("asset_soft_deleted", slog.String("asset_id", id))
		return nil
	}

	asset, err := service.repo.LookupAsset(context, id)
	if err != nil {
		return err
	}
	if asset.DeletedAt == nil {
		if err := service.repo.SoftDeleteAsset(context, id, service.now()); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}

	if !asset.Source.IsExternal() && !asset.Source.IsZero() {
		if err := service.blobs.Delete(context, asset.Source.Value()); err != nil {
			service.logger.Error("asset_blob_release_failed",
				slog.String("asset_id", id),
				slog.String("storage_key", asset.Source.Value()),
				slog.Any("error", err),
			)
			return apperr.Internal(fmt.Errorf("release original of asset %s: %w", id, err))
		}
	}

	if _, err := service.repo.HardDeleteAsset(context, id); err != nil {
		return err
	}
	service.logger.Warn("asset_hard_deleted", slog.String("asset_id", id))
	return nil
}

// Ping checks the catalog store and object storage.
func (service *Service) Ping(context context.Context) error {
	if err := service.repo.Ping(context); err != nil {
		return err
	}
	return service.blobs.Ping(context)
}

// # Helpers

func normalizeMetadata(meta Metadata, fallbackName string) Metadata {
	meta.DisplayName = strings.TrimSpace(meta.DisplayName)
	if meta.DisplayName == "" {
		meta.DisplayName = displayNameFrom(fallbackName)
	}
	meta.Category = strings.TrimSpace(meta.Category)
	meta.Tags = NormalizeTags(meta.Tags)
	if meta.CustomMetadata == nil {
		meta.CustomMetadata = map[string]string{}
	}
	if meta.Visibility == "" {
		meta.Visibility = VisibilityPublic
	}
	return meta
}

func validateMetadata(meta Metadata, width, height *int) error {
	validator := &validate.Validator{}
	validator.
		Required(FieldDisplayName, meta.DisplayName).
		MaxLen(FieldDisplayName, meta.DisplayName, maxDisplayName).
		MaxLen(FieldCategory, meta.Category, maxCategory).
		OneOf(FieldVisibility, string(meta.Visibility), string(VisibilityPublic), string(VisibilityPrivate)).
		OptionalRange(FieldWidth, width, 1, maxDimension).
		OptionalRange(FieldHeight, height, 1, maxDimension)

	validateTags(validator, meta.Tags)
	validateCustomMetadata(validator, meta.CustomMetadata)
	return validator.Err()
}

func validateTags(validator *validate.Validator, tags []string) {
	validator.Tags(FieldTags, tags)
	validator.Custom(FieldTags, len(tags) > maxTags, fmt.Sprintf("At most %d tags", maxTags))
	for _, tag := range tags {
		validator.MaxLen(FieldTags, tag, maxTagLength)
	}
}

func validateCustomMetadata(validator *validate.Validator, metadata map[string]string) {
	validator.Custom(FieldCustomMetadata, len(metadata) > maxMetadata, fmt.Sprintf("At most %d entries", maxMetadata))
	for key := range metadata {
		validator.Custom(FieldCustomMetadata, strings.TrimSpace(key) == "", "Keys must not be empty")
	}
}

// displayNameFrom turns "IMG_0042 first-dance.jpg" into "IMG_0042 first-dance".
func displayNameFrom(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSpace(strings.TrimSuffix(base, path.Ext(base)))
}

// storageKey builds assets/<id>/<slug>.<ext>, falling back to "original".
func storageKey(id, filename, displayName, extension string) string {
	name := slug.From(displayNameFrom(filename))
	if name == "" {
		name = slug.From(displayName)
	}
	if name == "" {
		name = "original"
	}
	return fmt.Sprintf("assets/%s/%s.%s", id, name, extension)
}

// MaxUploadBytes is the largest original accepted by [Service.Upload].
func (service *Service) MaxUploadBytes() int64 {
	return service.maxUploadBytes
}
