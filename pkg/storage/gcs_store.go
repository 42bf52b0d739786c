package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/inkforge/inkforge-backend/pkg/storage/gcs"
)

// GCSStore adapts the GCS client to the Store interface. It has no local
// representation, so Resolve always reports false and the compositor skips
// remote assets.
type GCSStore struct {
	client *gcs.Client
}

// NewGCSStore wraps an initialized GCS client.
func NewGCSStore(client *gcs.Client) (*GCSStore, error) {
	if client == nil {
		return nil, fmt.Errorf("gcs client is required")
	}
	return &GCSStore{client: client}, nil
}

func (s *GCSStore) Save(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", fmt.Errorf("storage key is required")
	}
	if err := s.client.UploadObject(ctx, key, contentType, r); err != nil {
		return "", err
	}
	return s.client.PublicURL(key), nil
}

func (s *GCSStore) Delete(ctx context.Context, publicURL string) error {
	prefix := s.client.PublicURL("")
	if !strings.HasPrefix(publicURL, prefix) {
		return fmt.Errorf("url %q is not served by this store", publicURL)
	}
	object := strings.TrimPrefix(publicURL, prefix)
	return s.client.DeleteObject(ctx, object)
}

func (s *GCSStore) Resolve(string) (string, bool) {
	return "", false
}
