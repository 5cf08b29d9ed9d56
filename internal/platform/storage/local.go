// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStorage stores originals under a directory on disk.
type LocalStorage struct {
	root string
}

// NewLocal builds a [LocalStorage] rooted at dir, creating it if needed.
func NewLocal(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure local root: %w", err)
	}
	return &LocalStorage{root: dir}, nil
}

// Put implements [ObjectStorage].
func (storage *LocalStorage) Put(ctx context.Context, key string, body io.Reader, size int64, _ string) error {
	path, err := storage.resolve(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for %q: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("storage: create temp for %q: %w", key, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	written, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("storage: write %q: wrote %d of %d bytes", key, written, size)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("storage: commit %q: %w", key, err)
	}
	return nil
}

// Delete implements [ObjectStorage].
func (storage *LocalStorage) Delete(_ context.Context, key string) error {
	path, err := storage.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %q: %w", key, err)
	}
	return nil
}

// Ping implements [ObjectStorage].
func (storage *LocalStorage) Ping(_ context.Context) error {
	info, err := os.Stat(storage.root)
	if err != nil {
		return fmt.Errorf("storage: local root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage: local root %q is not a directory", storage.root)
	}
	return nil
}

func (storage *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.FromSlash(key)
	if key == "" || !filepath.IsLocal(clean) {
		return "", ErrInvalidKey
	}
	return filepath.Join(storage.root, clean), nil
}
