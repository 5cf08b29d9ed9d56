package asset

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/atelier/internal/platform/apperr"
	"github.com/taibuivan/atelier/internal/platform/sqlite"
	"github.com/taibuivan/atelier/internal/platform/storage"
	"github.com/taibuivan/atelier/pkg/pointer"
)

// # Test Support

type testEnv struct {
	service  *Service
	repo     *SQLiteRepository
	blobRoot string
	clock    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := sqlite.Open(context.Background(), filepath.Join(dir, "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	blobRoot := filepath.Join(dir, "originals")
	blobs, err := storage.NewLocal(blobRoot)
	require.NoError(t, err)

	env := &testEnv{
		repo:     NewSQLiteRepository(db),
		blobRoot: blobRoot,
		clock:    time.Date(2026, 6, 20, 10, 0, 0, 0, time.UTC),
	}
	env.service = NewService(env.repo, blobs, discardLogger(), 1<<20)
	env.service.now = func() time.Time {
		env.clock = env.clock.Add(time.Second)
		return env.clock
	}
	return env
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func errorCode(err error) string {
	if appErr := apperr.As(err); appErr != nil {
		return appErr.Code
	}
	return ""
}

// failingBlobs refuses every operation.
type failingBlobs struct {
	deletes []string
}

func (f *failingBlobs) Put(context.Context, string, io.Reader, int64, string) error {
	return errors.New("bucket unreachable")
}

func (f *failingBlobs) Delete(_ context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	return errors.New("bucket unreachable")
}

func (f *failingBlobs) Ping(context.Context) error { return errors.New("bucket unreachable") }

// failingCreate wraps a repository and fails inserts.
type failingCreate struct {
	Repository
}

func (failingCreate) CreateAsset(context.Context, *Asset) error {
	return apperr.ServiceUnavailable("Storage temporarily unavailable", errors.New("db down"))
}

// # Upload

func TestService_Upload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.service.Upload(ctx, UploadInput{
		Metadata: Metadata{Category: " ceremony ", Tags: []string{"Vows", "golden hour", "vows"}},
		Filename: "First Dance.png",
		Body:     bytes.NewReader(pngBytes(t, 40, 30)),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "First Dance", created.DisplayName)
	assert.Equal(t, "ceremony", created.Category)
	assert.Equal(t, []string{"golden hour", "vows"}, created.Tags)
	assert.Equal(t, VisibilityPublic, created.Visibility)
	assert.Equal(t, pointer.To(40), created.Width)
	assert.Equal(t, pointer.To(30), created.Height)
	assert.False(t, created.Source.IsExternal())
	assert.Equal(t, "assets/"+created.ID+"/first-dance.png", created.Source.Value())

	_, err = os.Stat(filepath.Join(env.blobRoot, filepath.FromSlash(created.Source.Value())))
	assert.NoError(t, err)

	fetched, err := env.service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Source, fetched.Source)
	assert.True(t, created.CreatedAt.Equal(fetched.CreatedAt))
}

func TestService_Upload_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.Upload(ctx, UploadInput{Filename: "notes.txt", Body: strings.NewReader("plain text, not an image")})
	assert.Equal(t, "UNSUPPORTED_MEDIA_TYPE", errorCode(err))

	_, err = env.service.Upload(ctx, UploadInput{Filename: "empty.jpg", Body: strings.NewReader("")})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(err))

	_, err = env.service.Upload(ctx, UploadInput{Filename: "a.png"})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(err))

	_, err = env.service.Upload(ctx, UploadInput{
		Metadata: Metadata{Tags: []string{"bride,groom"}},
		Filename: "a.png",
		Body:     bytes.NewReader(pngBytes(t, 2, 2)),
	})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(err))

	env.service.maxUploadBytes = 16
	_, err = env.service.Upload(ctx, UploadInput{Filename: "big.png", Body: bytes.NewReader(pngBytes(t, 64, 64))})
	assert.Equal(t, "PAYLOAD_TOO_LARGE", errorCode(err))
}

func TestService_Upload_RemovesOriginalWhenCatalogWriteFails(t *testing.T) {
	env := newTestEnv(t)
	env.service.repo = failingCreate{Repository: env.repo}

	_, err := env.service.Upload(context.Background(), UploadInput{
		Filename: "a.png",
		Body:     bytes.NewReader(pngBytes(t, 4, 4)),
	})
	assert.Equal(t, "SERVICE_UNAVAILABLE", errorCode(err))

	entries, err := os.ReadDir(filepath.Join(env.blobRoot, "assets"))
	require.NoError(t, err)
	for _, entry := range entries {
		files, _ := os.ReadDir(filepath.Join(env.blobRoot, "assets", entry.Name()))
		assert.Empty(t, files, "original must be released")
	}
}

func TestService_Upload_StorageUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.service.blobs = &failingBlobs{}

	_, err := env.service.Upload(context.Background(), UploadInput{
		Filename: "a.png",
		Body:     bytes.NewReader(pngBytes(t, 4, 4)),
	})
	assert.Equal(t, "SERVICE_UNAVAILABLE", errorCode(err))

	_, total, err := env.service.List(context.Background(), Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

// # External

func TestService_CreateExternal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateExternal(ctx, ExternalInput{URL: "weddings/not-absolute.jpg"})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(err))

	created, err := env.service.CreateExternal(ctx, ExternalInput{
		URL:      "https://images.example.com/venue.jpg",
		Metadata: Metadata{Visibility: VisibilityPrivate},
		Width:    pointer.To(1600),
	})
	require.NoError(t, err)
	assert.True(t, created.Source.IsExternal())
	assert.Equal(t, "venue", created.DisplayName)
	assert.False(t, created.IsPublic())
	assert.Nil(t, created.Height)
}

// # Listing

func TestService_List_CategoryAndTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	register := func(category string, tags ...string) *Asset {
		created, err := env.service.CreateExternal(ctx, ExternalInput{
			URL:      "https://images.example.com/x.jpg",
			Metadata: Metadata{DisplayName: "x", Category: category, Tags: tags},
		})
		require.NoError(t, err)
		return created
	}

	register("ceremony", "vows", "outdoor")
	second := register("ceremony", "vows")
	register("reception", "vows")
	fourth := register("ceremony", "vows", "outdoor", "sunset")

	all, total, err := env.service.List(ctx, Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, all, 4)
	assert.Equal(t, fourth.ID, all[0].ID, "newest first")

	ceremony, total, err := env.service.List(ctx, Filter{Category: "ceremony"}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, ceremony, 2)

	outdoor, total, err := env.service.List(ctx, Filter{Category: "ceremony", Tags: []string{"OUTDOOR"}}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, a := range outdoor {
		assert.Contains(t, a.Tags, "outdoor")
		assert.NotEqual(t, second.ID, a.ID)
	}

	page2, total, err := env.service.List(ctx, Filter{Tags: []string{"vows"}}, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, page2, 1)

	_, _, err = env.service.List(ctx, Filter{Tags: []string{"a|b"}}, 10, 0)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(err))
}

// # Update

func TestService_Update_PartialMerge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.service.CreateExternal(ctx, ExternalInput{
		URL:      "https://images.example.com/x.jpg",
		Metadata: Metadata{DisplayName: "Rings", Category: "details", Tags: []string{"rings"}, CustomMetadata: map[string]string{"lens": "100mm"}},
	})
	require.NoError(t, err)

	updated, err := env.service.Update(ctx, created.ID, Patch{Category: pointer.To("portraits")})
	require.NoError(t, err)

	assert.Equal(t, "portraits", updated.Category)
	assert.Equal(t, "Rings", updated.DisplayName)
	assert.Equal(t, []string{"rings"}, updated.Tags)
	assert.Equal(t, map[string]string{"lens": "100mm"}, updated.CustomMetadata)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	cleared, err := env.service.Update(ctx, created.ID, Patch{Tags: []string{}, Visibility: pointer.To(VisibilityPrivate)})
	require.NoError(t, err)
	assert.Empty(t, cleared.Tags)
	assert.Equal(t, VisibilityPrivate, cleared.Visibility)

	_, err = env.service.Update(ctx, created.ID, Patch{Visibility: pointer.To(Visibility("secret"))})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(err))

	_, err = env.service.Update(ctx, "0190a0b0-0000-7000-8000-000000000000", Patch{Category: pointer.To("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

// # Delete

func TestService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.service.Upload(ctx, UploadInput{Filename: "kiss.png", Body: bytes.NewReader(pngBytes(t, 8, 8))})
	require.NoError(t, err)
	original := filepath.Join(env.blobRoot, filepath.FromSlash(created.Source.Value()))

	// Soft delete hides the record but keeps the original.
	require.NoError(t, env.service.Delete(ctx, created.ID, false))
	_, err = env.service.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = os.Stat(original)
	assert.NoError(t, err)
	assert.ErrorIs(t, env.service.Delete(ctx, created.ID, false), ErrNotFound)

	// Hard delete still reaches the soft-deleted row and releases the original.
	require.NoError(t, env.service.Delete(ctx, created.ID, true))
	_, err = os.Stat(original)
	assert.True(t, os.IsNotExist(err))
	assert.ErrorIs(t, env.service.Delete(ctx, created.ID, true), ErrNotFound)
}

func TestService_Delete_ExternalSkipsStorage(t *testing.T) {
	env := newTestEnv(t)
	blobs := &failingBlobs{}
	env.service.blobs = blobs

	created, err := env.service.CreateExternal(context.Background(), ExternalInput{URL: "https://images.example.com/x.jpg"})
	require.NoError(t, err)

	require.NoError(t, env.service.Delete(context.Background(), created.ID, true))
	assert.Empty(t, blobs.deletes)
}

func TestService_Delete_RetriesUnreleasedOriginal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.service.Upload(ctx, UploadInput{Filename: "a.png", Body: bytes.NewReader(pngBytes(t, 2, 2))})
	require.NoError(t, err)
	original := filepath.Join(env.blobRoot, filepath.FromSlash(created.Source.Value()))

	healthy := env.service.blobs
	blobs := &failingBlobs{}
	env.service.blobs = blobs

	err = env.service.Delete(ctx, created.ID, true)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(err))
	assert.Equal(t, []string{created.Source.Value()}, blobs.deletes)

	// The record is hidden but kept so the release can be retried.
	_, err = env.service.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	kept, err := env.repo.LookupAsset(ctx, created.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept.DeletedAt)
	_, err = os.Stat(original)
	require.NoError(t, err)

	// A second failure does not lose the record either.
	err = env.service.Delete(ctx, created.ID, true)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(err))
	assert.Len(t, blobs.deletes, 2)

	env.service.blobs = healthy
	require.NoError(t, env.service.Delete(ctx, created.ID, true))

	_, err = os.Stat(original)
	assert.True(t, os.IsNotExist(err))
	_, err = env.repo.LookupAsset(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.service.Delete(ctx, created.ID, true), ErrNotFound)
}

func TestService_Get_MalformedID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Get(context.Background(), "../etc")
	assert.Equal(t, "VALIDATION_ERROR", errorCode(err))
}

// # Helpers

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, NormalizeTags([]string{" B", "a", "", "b ", "A"}))
	assert.Empty(t, NormalizeTags(nil))
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "assets/id/cafe-au-lait.jpg", storageKey("id", `C:\shots\Café au lait.JPG`, "", "jpg"))
	assert.Equal(t, "assets/id/garden-party.png", storageKey("id", "", "Garden party", "png"))
	assert.Equal(t, "assets/id/original.png", storageKey("id", "", "", "png"))
}
