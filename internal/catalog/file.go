// Package catalog persists the instrument -> venues mapping between collect
// and scan runs.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/arbscan/arbscan/internal/domain"
)

// FileStore reads and writes the catalog as an indented, order-preserving
// JSON file, the same human-diffable shape the collector has always emitted.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore for the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads and parses the catalog file. Any failure to obtain the catalog
// wraps domain.ErrCatalogUnavailable, the scanner's only fatal error class.
func (s *FileStore) Load(_ context.Context) (*domain.Catalog, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrCatalogUnavailable, s.path, err)
	}

	c := domain.NewCatalog()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrCatalogUnavailable, s.path, err)
	}
	return c, nil
}

// Save writes the catalog atomically: to a temp file first, then renamed over
// the target so a crashed write never leaves a truncated catalog behind.
func (s *FileStore) Save(_ context.Context, c *domain.Catalog) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("catalog: marshal: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("catalog: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("catalog: rename %s: %w", s.path, err)
	}
	return nil
}
