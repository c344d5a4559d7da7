// Package blob persists uploaded media files and returns the public path
// they are served under. The filesystem store is the only implementation;
// handlers depend on the interface so tests can substitute a fake.
package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store writes an uploaded file under the given kind and returns the URL
// path clients fetch it from.
type Store interface {
	Save(kind, filename string, r io.Reader) (string, error)
}

// FSStore keeps uploads on the local disk under Dir/<kind>/<uuid><ext>.
// The directory doubles as the static file root mounted at /media.
type FSStore struct {
	Dir string
}

func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create %s: %w", dir, err)
	}
	return &FSStore{Dir: dir}, nil
}

// Save streams r to disk. The stored name is a fresh UUID so uploads never
// collide and the original filename never reaches the filesystem; only its
// extension is kept for content-type inference by the static handler.
func (s *FSStore) Save(kind, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	name := uuid.NewString() + ext

	dir := filepath.Join(s.Dir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("blob: create %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("blob: open %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("blob: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("blob: close %s: %w", path, err)
	}
	return "/media/" + kind + "/" + name, nil
}
