package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/pharmaprocure/backend/internal/domain"
)

// CatalogRepo is the SQLite-backed catalog store.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo creates a catalog repository over an open database.
func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

const catalogColumns = `id, item_code, product_name, canonical_name, dosage, pack_size, standard_cost`

// ListEntries returns the full catalog snapshot, ordered by id so callers
// see a stable ordering across runs.
func (r *CatalogRepo) ListEntries(ctx context.Context) ([]domain.CatalogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+catalogColumns+` FROM master_products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list catalog entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetEntry fetches one catalog entry by id.
func (r *CatalogRepo) GetEntry(ctx context.Context, id int64) (*domain.CatalogEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+catalogColumns+` FROM master_products WHERE id = ?`, id)

	var e domain.CatalogEntry
	err := row.Scan(&e.ID, &e.ItemCode, &e.DisplayName, &e.CanonicalName, &e.Dosage, &e.PackSizeText, &e.StandardCost)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog entry %d: %w", id, err)
	}
	return &e, nil
}

// SearchByNameSubstring finds entries whose display name contains the query,
// case-insensitively. Used for manual linking.
func (r *CatalogRepo) SearchByNameSubstring(ctx context.Context, query string) ([]domain.CatalogEntry, error) {
	pattern := "%" + strings.TrimSpace(query) + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+catalogColumns+` FROM master_products
		 WHERE product_name LIKE ? COLLATE NOCASE ORDER BY id`, pattern)
	if err != nil {
		return nil, fmt.Errorf("search catalog entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// CreateEntry inserts a new catalog entry and backfills its generated id.
func (r *CatalogRepo) CreateEntry(ctx context.Context, entry *domain.CatalogEntry) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO master_products (item_code, product_name, canonical_name, dosage, pack_size, standard_cost)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ItemCode, entry.DisplayName, entry.CanonicalName, entry.Dosage, entry.PackSizeText, entry.StandardCost)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return domain.ErrDuplicateItemCode
		}
		return fmt.Errorf("create catalog entry %q: %w", entry.ItemCode, err)
	}

	entry.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted id: %w", err)
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]domain.CatalogEntry, error) {
	var entries []domain.CatalogEntry
	for rows.Next() {
		var e domain.CatalogEntry
		if err := rows.Scan(&e.ID, &e.ItemCode, &e.DisplayName, &e.CanonicalName, &e.Dosage, &e.PackSizeText, &e.StandardCost); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
