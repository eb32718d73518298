// Package filestore keeps the whole tasklist database in a single JSON file.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	defaultPerm    = 0o600
	defaultDirPerm = 0o755
)

// Config captures the settings required to open a snapshot file.
type Config struct {
	Path    string
	Perm    os.FileMode
	DirPerm os.FileMode
}

// Store is a single-file snapshot store. It does not serialise callers'
// load → modify → save sequences; mu only orders writes within the process
// so that reinitialising a missing or damaged file never replaces a
// snapshot saved in the meantime.
type Store struct {
	path    string
	perm    os.FileMode
	dirPerm os.FileMode
	log     zerolog.Logger

	mu sync.Mutex
}

// Open validates cfg and makes sure the parent directory exists. The file
// itself is created lazily by the first Load or Save.
func Open(cfg Config, log zerolog.Logger) (*Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("filestore: path is required")
	}
	perm := cfg.Perm
	if perm == 0 {
		perm = defaultPerm
	}
	dirPerm := cfg.DirPerm
	if dirPerm == 0 {
		dirPerm = defaultDirPerm
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("filestore: create directory: %w", err)
	}

	return &Store{
		path:    path,
		perm:    perm,
		dirPerm: dirPerm,
		log:     log.With().Str("component", "filestore").Str("path", path).Logger(),
	}, nil
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}
