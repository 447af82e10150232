package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSStore persists blobs on the local filesystem under a root directory.
// Objects land at <root>/<zone>/<key>; writes go through a temp file and
// rename so a crash never leaves a half-written object at the final path.
type FSStore struct {
	root string
}

// NewFSStore returns a filesystem-backed store rooted at root.
func NewFSStore(root string) (*FSStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("blob: resolve root %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create root %q: %w", abs, err)
	}
	return &FSStore{root: abs}, nil
}

// Write implements Store.
func (s *FSStore) Write(ctx context.Context, zone, key string, data []byte) (Location, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if strings.TrimSpace(zone) == "" || strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: zone and key are required", ErrWrite)
	}

	path := filepath.Join(s.root, zone, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("%w: mkdir %s: %v", ErrWrite, filepath.Dir(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".blob-*")
	if err != nil {
		return "", fmt.Errorf("%w: temp file: %v", ErrWrite, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: write %s: %v", ErrWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: close %s: %v", ErrWrite, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: rename %s: %v", ErrWrite, path, err)
	}
	return Location(path), nil
}

// Read implements Store.
func (s *FSStore) Read(ctx context.Context, loc Location) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	data, err := os.ReadFile(string(loc))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRead, loc, err)
	}
	return data, nil
}
