package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS master_products (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	item_code       TEXT NOT NULL UNIQUE,
	product_name    TEXT NOT NULL,
	canonical_name  TEXT NOT NULL,
	dosage          TEXT NOT NULL DEFAULT '',
	pack_size       TEXT NOT NULL DEFAULT '',
	standard_cost   REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS product_aliases (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	alias_name         TEXT NOT NULL,
	master_product_id  INTEGER NOT NULL REFERENCES master_products(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS supplier_offers (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	supplier_name      TEXT NOT NULL,
	list_tag           TEXT NOT NULL DEFAULT 'General',
	raw_product_name   TEXT NOT NULL,
	price              REAL NOT NULL,
	supplier_pack_size INTEGER NOT NULL DEFAULT 1,
	normalized_cost    REAL NOT NULL DEFAULT 0,
	bonus_string       TEXT NOT NULL DEFAULT '',
	import_batch_id    TEXT NOT NULL DEFAULT '',
	matched_master_id  INTEGER REFERENCES master_products(id) ON DELETE SET NULL,
	confidence         TEXT NOT NULL DEFAULT '',
	created_at         TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS price_history (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	archived_at        TEXT NOT NULL DEFAULT (datetime('now')),
	supplier_name      TEXT NOT NULL,
	list_tag           TEXT NOT NULL,
	raw_product_name   TEXT NOT NULL,
	price              REAL NOT NULL,
	supplier_pack_size INTEGER NOT NULL DEFAULT 1,
	normalized_cost    REAL NOT NULL DEFAULT 0,
	bonus_string       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_master_products_canonical ON master_products(canonical_name);
CREATE INDEX IF NOT EXISTS idx_product_aliases_name ON product_aliases(alias_name);
CREATE INDEX IF NOT EXISTS idx_supplier_offers_list ON supplier_offers(supplier_name, list_tag);
CREATE INDEX IF NOT EXISTS idx_supplier_offers_match ON supplier_offers(matched_master_id);
`

// Open opens (or creates) the SQLite database and ensures the schema is at
// the current version.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite allows a single writer, and PRAGMAs are per-connection. One
	// pooled connection keeps both predictable (and is what makes
	// ":memory:" databases usable at all).
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	ver, err := currentSchemaVersion(db)
	if err != nil {
		return err
	}
	if ver >= schemaVersion {
		return nil
	}

	if _, err := db.Exec(schemaV1); err != nil {
		return fmt.Errorf("apply schema v1: %w", err)
	}
	if _, err := db.Exec(`DELETE FROM schema_meta`); err != nil {
		return err
	}
	if _, err := db.Exec(`INSERT INTO schema_meta (version) VALUES (?)`, schemaVersion); err != nil {
		return err
	}
	return nil
}

func currentSchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_meta'`).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, nil
	}

	var ver int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_meta`).Scan(&ver)
	if err != nil {
		return 0, err
	}
	return ver, nil
}
