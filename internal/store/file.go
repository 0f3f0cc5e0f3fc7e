package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wcatz/launcher-grid/internal/grid"
)

// FileStore keeps the layout document in one JSON file.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore returns a store writing to path. A nil logger uses
// slog.Default.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the file the store writes to.
func (f *FileStore) Path() string { return f.path }

// Load reads the layout file. A missing file yields a nil snapshot.
func (f *FileStore) Load() (*grid.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading layout: %w", err)
	}
	return Decode(data)
}

// Save writes the snapshot, replacing the previous file.
func (f *FileStore) Save(s *grid.Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing %s: %w", f.path, err)
	}
	f.logger.Debug("layout saved", "path", f.path, "items", len(s.Items), "size", formatSize(len(data)))
	return nil
}

// Close is a no-op.
func (f *FileStore) Close() error { return nil }

func formatSize(n int) string {
	s := fmt.Sprintf("%d", n)
	if n < 1000 {
		return s
	}
	// insert commas
	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}
