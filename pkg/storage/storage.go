// Package storage abstracts where uploaded files and generated print files
// live: the local uploads directory in development, GCS in production.
package storage

import (
	"context"
	"io"
)

// Store persists binary objects under a key and serves them at a public URL.
type Store interface {
	// Save writes the object and returns its public URL.
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	// Delete removes the object addressed by its public URL.
	Delete(ctx context.Context, publicURL string) error
	// Resolve maps a public URL to a local filesystem path. The second return
	// is false when the store has no local representation.
	Resolve(publicURL string) (string, bool)
}
