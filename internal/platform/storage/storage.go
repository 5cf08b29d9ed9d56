// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package storage holds the original photographs uploaded through the catalog.

The image CDN pulls originals from the bucket by storage key, so the catalog
only ever writes and deletes objects here. It never serves them.

Backends:

  - S3: Cloudflare R2 or any S3-compatible endpoint (minio-go).
  - Local: a directory on disk, for development and the embedded store.
*/
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidKey is returned for keys that are empty or escape the storage root.
var ErrInvalidKey = errors.New("storage: invalid object key")

// ObjectStorage is the blob store the asset catalog writes originals to.
type ObjectStorage interface {
	// Put stores size bytes read from body under key.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}
