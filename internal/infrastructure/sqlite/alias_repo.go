package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pharmaprocure/backend/internal/domain"
)

// AliasRepo is the SQLite-backed alias store. Aliases grow monotonically:
// there is no delete path.
type AliasRepo struct {
	db *sql.DB
}

// NewAliasRepo creates an alias repository over an open database.
func NewAliasRepo(db *sql.DB) *AliasRepo {
	return &AliasRepo{db: db}
}

// FindByExactText looks up an alias by its exact raw text, case-sensitive
// as stored. A nil alias with nil error means no alias exists.
func (r *AliasRepo) FindByExactText(ctx context.Context, rawName string) (*domain.Alias, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, alias_name, master_product_id FROM product_aliases
		 WHERE alias_name = ? ORDER BY id LIMIT 1`, rawName)

	var a domain.Alias
	err := row.Scan(&a.ID, &a.AliasText, &a.CatalogEntryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find alias: %w", err)
	}
	return &a, nil
}

// Append records a confirmed raw-name to catalog-entry mapping.
func (r *AliasRepo) Append(ctx context.Context, aliasText string, catalogEntryID int64) (*domain.Alias, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO product_aliases (alias_name, master_product_id) VALUES (?, ?)`,
		aliasText, catalogEntryID)
	if err != nil {
		return nil, fmt.Errorf("append alias %q: %w", aliasText, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read inserted id: %w", err)
	}
	return &domain.Alias{ID: id, AliasText: aliasText, CatalogEntryID: catalogEntryID}, nil
}
