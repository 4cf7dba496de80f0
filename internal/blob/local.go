// AngelaMos | 2026
// local.go

package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
)

type LocalStore struct {
	root      string
	publicURL string
}

func NewLocalStore(root, publicURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: root, publicURL: publicURL}, nil
}

func (s *LocalStore) Put(_ context.Context, dir string, img *Image) (string, error) {
	key := objectKey(dir, img)
	full := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}

	//nolint:gosec // G306: served publicly under /storage
	if err := os.WriteFile(full, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}

	return key, nil
}

// Delete is idempotent: removing a path that is already gone succeeds.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}

	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(cleaned)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *LocalStore) URL(key string) string {
	return joinURL(s.publicURL, key)
}

func (s *LocalStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("stat storage root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root %s is not a directory", s.root)
	}
	return nil
}

// FileServer serves stored blobs; mount it with the path prefix stripped.
func (s *LocalStore) FileServer() http.Handler {
	return http.FileServer(noListingFS{http.Dir(s.root)})
}

type noListingFS struct {
	fs http.FileSystem
}

func (n noListingFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close() //nolint:errcheck // already failing
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close() //nolint:errcheck // directories are not served
		return nil, fs.ErrNotExist
	}
	return f, nil
}
