package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbscan/arbscan/internal/domain"
)

// CatalogStore implements domain.CatalogStore on PostgreSQL. Each instrument
// is one row; a position column preserves catalog order across the round
// trip.
type CatalogStore struct {
	pool *pgxpool.Pool
}

// NewCatalogStore creates a CatalogStore backed by the given connection pool.
func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

// EnsureSchema creates the catalog table when missing.
func (s *CatalogStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS catalog_entries (
			instrument TEXT PRIMARY KEY,
			venues     TEXT[] NOT NULL,
			position   INTEGER NOT NULL
		)`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres: ensure catalog schema: %w", err)
	}
	return nil
}

// Load reads the full catalog in stored position order. Failures wrap
// domain.ErrCatalogUnavailable.
func (s *CatalogStore) Load(ctx context.Context) (*domain.Catalog, error) {
	const query = `
		SELECT instrument, venues
		FROM catalog_entries
		ORDER BY position`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query catalog: %v", domain.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	c := domain.NewCatalog()
	for rows.Next() {
		var instrument string
		var venues []string
		if err := rows.Scan(&instrument, &venues); err != nil {
			return nil, fmt.Errorf("%w: scan catalog row: %v", domain.ErrCatalogUnavailable, err)
		}
		c.Set(instrument, venues)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read catalog rows: %v", domain.ErrCatalogUnavailable, err)
	}
	return c, nil
}

// Save replaces the stored catalog wholesale inside one transaction, writing
// entries in catalog order.
func (s *CatalogStore) Save(ctx context.Context, c *domain.Catalog) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin save catalog: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM catalog_entries`); err != nil {
		return fmt.Errorf("postgres: clear catalog: %w", err)
	}

	batch := &pgx.Batch{}
	for pos, instrument := range c.Instruments() {
		batch.Queue(
			`INSERT INTO catalog_entries (instrument, venues, position) VALUES ($1, $2, $3)`,
			instrument, c.Venues(instrument), pos,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range c.Instruments() {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("postgres: insert catalog entry: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("postgres: close catalog batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit catalog: %w", err)
	}
	return nil
}
