package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Options select and configure a backend.
type Options struct {
	Backend string
	Path    string // directory for fs, database file for sqlite
	Driver  string // sqlite driver, see DriverCGO / DriverPureGo
}

// Open builds the Gateway described by opts.
func Open(opts Options, log *slog.Logger) (Gateway, error) {
	var (
		store BlobStore
		err   error
	)
	switch opts.Backend {
	case BackendFS, "":
		store, err = NewFS(opts.Path)
	case BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("storage: create db dir: %w", err)
		}
		store, err = OpenSQLite(opts.Driver, opts.Path)
	case BackendMemory:
		store = NewMemory()
	default:
		err = fmt.Errorf("storage: unknown backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return NewBlobs(store, log), nil
}
