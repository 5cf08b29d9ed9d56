// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config describes an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// S3Storage stores originals in an S3-compatible bucket.
type S3Storage struct {
	client *minio.Client
	bucket string
}

// NewS3 builds an [S3Storage]. It does not contact the endpoint; call Ping for that.
func NewS3(cfg S3Config, logger *slog.Logger) (*S3Storage, error) {
	host, secure, err := splitEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create s3 client: %w", err)
	}

	logger.Info("object_storage_configured",
		slog.String("driver", "s3"),
		slog.String("endpoint", host),
		slog.String("bucket", cfg.Bucket),
	)

	return &S3Storage{client: client, bucket: cfg.Bucket}, nil
}

// Put implements [ObjectStorage].
func (storage *S3Storage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}

	_, err := storage.client.PutObject(ctx, storage.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("storage: put %q: %w", key, err)
	}
	return nil
}

// Delete implements [ObjectStorage].
func (storage *S3Storage) Delete(ctx context.Context, key string) error {
	if err := storage.client.RemoveObject(ctx, storage.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("storage: delete %q: %w", key, err)
	}
	return nil
}

// Ping implements [ObjectStorage].
func (storage *S3Storage) Ping(ctx context.Context) error {
	exists, err := storage.client.BucketExists(ctx, storage.bucket)
	if err != nil {
		return fmt.Errorf("storage: bucket check: %w", err)
	}
	if !exists {
		return fmt.Errorf("storage: bucket %q does not exist", storage.bucket)
	}
	return nil
}

// splitEndpoint accepts either "host[:port]" or a full URL and returns the host
// plus whether TLS should be used.
func splitEndpoint(endpoint string) (string, bool, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", false, fmt.Errorf("storage: empty s3 endpoint")
	}

	if !strings.Contains(endpoint, "://") {
		return strings.TrimSuffix(endpoint, "/"), true, nil
	}

	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Host == "" {
		return "", false, fmt.Errorf("storage: invalid s3 endpoint %q", endpoint)
	}
	return parsed.Host, parsed.Scheme != "http", nil
}
