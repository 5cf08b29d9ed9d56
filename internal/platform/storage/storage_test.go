// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_PutDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	store, err := NewLocal(root)
	require.NoError(t, err)
	require.NoError(t, store.Ping(ctx))

	body := "jpeg-bytes"
	key := "assets/0190/first-dance.jpg"
	require.NoError(t, store.Put(ctx, key, strings.NewReader(body), int64(len(body)), "image/jpeg"))

	written, err := os.ReadFile(filepath.Join(root, "assets", "0190", "first-dance.jpg"))
	require.NoError(t, err)
	assert.Equal(t, body, string(written))

	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(root, "assets", "0190", "first-dance.jpg"))
	assert.True(t, os.IsNotExist(err))

	// Deleting twice is fine.
	assert.NoError(t, store.Delete(ctx, key))
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../outside.jpg", "/etc/passwd", "a/../../b"} {
		err := store.Put(context.Background(), key, strings.NewReader("x"), 1, "image/jpeg")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestLocalStorage_ShortWrite(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	err = store.Put(context.Background(), "a.jpg", strings.NewReader("abc"), 10, "image/jpeg")
	assert.Error(t, err)
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		host     string
		secure   bool
		wantErr  bool
	}{
		{"https://acc.r2.cloudflarestorage.com", "acc.r2.cloudflarestorage.com", true, false},
		{"http://localhost:9000", "localhost:9000", false, false},
		{"s3.amazonaws.com", "s3.amazonaws.com", true, false},
		{"", "", false, true},
	}

	for _, tt := range tests {
		host, secure, err := splitEndpoint(tt.endpoint)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.host, host)
		assert.Equal(t, tt.secure, secure)
	}
}
