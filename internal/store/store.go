package store

import (
	"fmt"
	"log/slog"

	"github.com/wcatz/launcher-grid/internal/grid"
)

// Store loads and saves layout snapshots.
type Store interface {
	Load() (*grid.Snapshot, error)
	Save(*grid.Snapshot) error
	Close() error
}

// Backends accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Open returns the store for a configured backend.
func Open(backend, path string, logger *slog.Logger) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return NewFileStore(path, logger), nil
	case BackendSQLite:
		return OpenSQLite(path)
	}
	return nil, fmt.Errorf("unknown storage backend %q", backend)
}
