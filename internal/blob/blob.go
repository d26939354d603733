// Package blob stores product images in an object store. Two backends
// are supported, MinIO and Google Cloud Storage, selected by config.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Fomalhautarc/kucun/config"
)

// ErrNotConfigured is returned when no object-storage backend is set up.
var ErrNotConfigured = errors.New("blob storage is not configured")

// Store defines the object operations shared by all backends.
type Store interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// FromConfig builds the configured Store, or nil when the backend is
// "none" or unset.
func FromConfig(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "minio":
		return NewMinioStore(cfg.Minio)
	case "gcs":
		return NewGCSStore(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}

// ProductImageKey is the object key for a product's image.
func ProductImageKey(productID int) string {
	return fmt.Sprintf("products/%d", productID)
}
