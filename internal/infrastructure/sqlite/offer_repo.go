package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pharmaprocure/backend/internal/domain"
)

// OfferRepo is the SQLite-backed store for imported supplier offers and
// their price history.
type OfferRepo struct {
	db *sql.DB
}

// NewOfferRepo creates an offer repository over an open database.
func NewOfferRepo(db *sql.DB) *OfferRepo {
	return &OfferRepo{db: db}
}

const offerColumns = `id, supplier_name, list_tag, raw_product_name, price,
	supplier_pack_size, normalized_cost, bonus_string, import_batch_id,
	matched_master_id, confidence, created_at`

// CreateOffer inserts an imported offer row and backfills its generated id.
func (r *OfferRepo) CreateOffer(ctx context.Context, offer *domain.SupplierOffer) error {
	var matched interface{}
	if offer.MatchedEntryID != nil {
		matched = *offer.MatchedEntryID
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO supplier_offers
		 (supplier_name, list_tag, raw_product_name, price, supplier_pack_size,
		  normalized_cost, bonus_string, import_batch_id, matched_master_id, confidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		offer.SupplierName, offer.ListTag, offer.RawProductName, offer.Price,
		offer.PackSize, offer.NormalizedCost, offer.BonusText, offer.ImportBatchID,
		matched, string(offer.Confidence))
	if err != nil {
		return fmt.Errorf("create offer %q: %w", offer.RawProductName, err)
	}

	offer.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted id: %w", err)
	}
	return nil
}

// GetOffer fetches one offer by id.
func (r *OfferRepo) GetOffer(ctx context.Context, id int64) (*domain.SupplierOffer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+offerColumns+` FROM supplier_offers WHERE id = ?`, id)

	offer, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOfferNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get offer %d: %w", id, err)
	}
	return offer, nil
}

// ListUnmatched returns offers without a catalog match, optionally filtered
// by a case-insensitive raw-name substring.
func (r *OfferRepo) ListUnmatched(ctx context.Context, nameQuery string) ([]domain.SupplierOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM supplier_offers WHERE matched_master_id IS NULL`
	args := []interface{}{}
	if strings.TrimSpace(nameQuery) != "" {
		query += ` AND raw_product_name LIKE ? COLLATE NOCASE`
		args = append(args, "%"+strings.TrimSpace(nameQuery)+"%")
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list unmatched offers: %w", err)
	}
	defer rows.Close()

	return scanOffers(rows)
}

// ListByCatalogEntry returns all offers matched to the given entry.
func (r *OfferRepo) ListByCatalogEntry(ctx context.Context, entryID int64) ([]domain.SupplierOffer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+offerColumns+` FROM supplier_offers WHERE matched_master_id = ? ORDER BY id`, entryID)
	if err != nil {
		return nil, fmt.Errorf("list offers for entry %d: %w", entryID, err)
	}
	defer rows.Close()

	return scanOffers(rows)
}

// SetMatch marks an offer as matched to a catalog entry.
func (r *OfferRepo) SetMatch(ctx context.Context, offerID, entryID int64, confidence domain.Confidence) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE supplier_offers SET matched_master_id = ?, confidence = ? WHERE id = ?`,
		entryID, string(confidence), offerID)
	if err != nil {
		return fmt.Errorf("set match on offer %d: %w", offerID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrOfferNotFound
	}
	return nil
}

// ArchiveList moves all existing offers for a supplier+list tag into
// price_history and deletes them, returning the number archived. Runs in a
// transaction so a re-import never half-archives a list.
func (r *OfferRepo) ArchiveList(ctx context.Context, supplierName, listTag string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin archive: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO price_history
		 (supplier_name, list_tag, raw_product_name, price, supplier_pack_size, normalized_cost, bonus_string)
		 SELECT supplier_name, list_tag, raw_product_name, price, supplier_pack_size, normalized_cost, bonus_string
		 FROM supplier_offers WHERE supplier_name = ? AND list_tag = ?`,
		supplierName, listTag)
	if err != nil {
		return 0, fmt.Errorf("archive offers: %w", err)
	}
	archived, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM supplier_offers WHERE supplier_name = ? AND list_tag = ?`,
		supplierName, listTag); err != nil {
		return 0, fmt.Errorf("delete archived offers: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit archive: %w", err)
	}
	return int(archived), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOffer(row rowScanner) (*domain.SupplierOffer, error) {
	var (
		o          domain.SupplierOffer
		matched    sql.NullInt64
		confidence string
		createdAt  string
	)
	err := row.Scan(&o.ID, &o.SupplierName, &o.ListTag, &o.RawProductName, &o.Price,
		&o.PackSize, &o.NormalizedCost, &o.BonusText, &o.ImportBatchID,
		&matched, &confidence, &createdAt)
	if err != nil {
		return nil, err
	}

	if matched.Valid {
		id := matched.Int64
		o.MatchedEntryID = &id
	}
	o.Confidence = domain.Confidence(confidence)
	o.CreatedAt, err = time.Parse("2006-01-02 15:04:05", createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return &o, nil
}

func scanOffers(rows *sql.Rows) ([]domain.SupplierOffer, error) {
	var offers []domain.SupplierOffer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, *offer)
	}
	return offers, rows.Err()
}
