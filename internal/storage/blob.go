package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/mind-engage/triangle-practice/internal/config"
)

var ErrNotFound = errors.New("blob not found")

type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	SignedURL(ctx context.Context, key string) (string, error) // fs returns the /assets path
}

// CleanKey normalizes a key to a slash separated relative path that cannot
// escape the store root.
func CleanKey(key string) (string, error) {
	k := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(key, "\\", "/")), "/")
	if k == "" || k == "." {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return k, nil
}

// ContentType guesses the media type from the key's extension.
func ContentType(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Open builds the store selected by BLOB_DRIVER.
func Open(ctx context.Context, cfg config.Config) (BlobStore, error) {
	switch cfg.BlobDriver {
	case "", "fs":
		return NewFSStore(cfg.BlobBasePath)
	case "minio":
		return NewMinioStore(ctx, minioOptions(cfg))
	default:
		return nil, fmt.Errorf("unsupported blob driver: %s", cfg.BlobDriver)
	}
}

func minioOptions(cfg config.Config) MinioOptions {
	return MinioOptions{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	}
}
