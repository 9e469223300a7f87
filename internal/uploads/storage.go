package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"vidstream/internal/config"
)

// ErrInvalidKey is returned for keys that could escape the storage root
var ErrInvalidKey = errors.New("invalid storage key")

// Storage keeps thumbnail blobs by key
type Storage interface {
	// Save writes the blob under key, replacing any previous content
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Remove deletes the blob; a missing blob is not an error
	Remove(ctx context.Context, key string) error
	// URL returns where browsers fetch the blob from
	URL(key string) string
	// Name identifies the backend in logs and metrics
	Name() string
}

// New builds the backend selected by cfg.Backend
func New(ctx context.Context, cfg config.UploadsConfig) (Storage, error) {
	switch cfg.Backend {
	case config.BackendLocal:
		local, err := NewLocal(cfg.Dir, "/uploads")
		if err != nil {
			return nil, err
		}
		return local, nil
	case config.BackendS3:
		bucket, err := NewS3(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return bucket, nil
	default:
		return nil, fmt.Errorf("unknown uploads backend %q", cfg.Backend)
	}
}

func checkKey(key string) error {
	if key == "" || strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
