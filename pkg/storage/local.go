package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/inkforge/inkforge-backend/pkg/config"
)

// LocalStore writes objects under the configured upload root and serves them
// from the public base URL (the router mounts the directory as static files).
type LocalStore struct {
	baseDir       string
	uploadRoot    string
	publicBaseURL string
}

// NewLocalStore builds a disk-backed store rooted at baseDir.
func NewLocalStore(baseDir string, cfg config.StorageConfig) (*LocalStore, error) {
	if baseDir == "" {
		baseDir = "."
	}
	if cfg.UploadRoot == "" {
		return nil, fmt.Errorf("storage upload root is required")
	}
	return &LocalStore{
		baseDir:       baseDir,
		uploadRoot:    cfg.UploadRoot,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// UploadDir returns the absolute-ish directory static file serving should mount.
func (s *LocalStore) UploadDir() string {
	return filepath.Join(s.baseDir, s.uploadRoot)
}

func (s *LocalStore) Save(_ context.Context, key, _ string, r io.Reader) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" || key == "." {
		return "", fmt.Errorf("storage key is required")
	}

	target := filepath.Join(s.baseDir, s.uploadRoot, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("writing upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("flushing upload file: %w", err)
	}

	return s.publicBaseURL + "/" + key, nil
}

func (s *LocalStore) Delete(_ context.Context, publicURL string) error {
	local, ok := s.Resolve(publicURL)
	if !ok {
		return fmt.Errorf("url %q is not served by this store", publicURL)
	}
	if err := os.Remove(local); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing upload file: %w", err)
	}
	return nil
}

// Resolve joins the URL path with the base directory after stripping the
// leading separator, mirroring how asset URLs are stored.
func (s *LocalStore) Resolve(publicURL string) (string, bool) {
	trimmed := strings.TrimPrefix(publicURL, "/")
	if trimmed == "" {
		return "", false
	}
	cleaned := path.Clean(trimmed)
	if strings.HasPrefix(cleaned, "..") {
		return "", false
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(cleaned)), true
}
