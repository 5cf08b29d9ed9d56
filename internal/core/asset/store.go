package asset

import (
	"context"
	"time"
)

// Repository persists catalog records. Implementations must return
// [ErrNotFound] for missing or soft-deleted rows.
type Repository interface {
	CreateAsset(context context.Context, a *Asset) error
	GetAsset(context context.Context, id string) (*Asset, error)

	// ListAssets matches Category and Visibility when set. limit <= 0 returns every row.
	ListAssets(context context.Context, f Filter, limit, offset int) ([]*Asset, int, error)

	// UpdateAsset merges the non-nil patch fields and stamps updatedAt.
	UpdateAsset(context context.Context, id string, patch Patch, updatedAt time.Time) (*Asset, error)

	// LookupAsset returns the row even when it is soft-deleted.
	LookupAsset(context context.Context, id string) (*Asset, error)

	SoftDeleteAsset(context context.Context, id string, deletedAt time.Time) error

	// HardDeleteAsset removes the row, including a soft-deleted one.
	HardDeleteAsset(context context.Context, id string) (*Asset, error)

	Ping(context context.Context) error
}
