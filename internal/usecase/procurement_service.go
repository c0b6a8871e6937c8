package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pharmaprocure/backend/internal/domain"
)

// SnapshotCache caches the catalog snapshot the match engine scores
// against, so per-offer previews do not re-read the whole catalog.
type SnapshotCache interface {
	Get() ([]domain.CatalogEntry, bool)
	Set(entries []domain.CatalogEntry)
	Invalidate()
}

// ProcurementService orchestrates the matching and cost components around
// the stores: catalog and offer imports, alias linking, unmatched review
// and price comparison.
type ProcurementService struct {
	catalog    domain.CatalogRepository
	offers     domain.OfferRepository
	aliases    domain.AliasRepository
	matcher    *MatchingService
	costs      *CostService
	simplifier *NameSimplifier
	snapshots  SnapshotCache
}

// NewProcurementService creates a new procurement service
func NewProcurementService(
	catalog domain.CatalogRepository,
	offers domain.OfferRepository,
	aliases domain.AliasRepository,
	matcher *MatchingService,
	costs *CostService,
	simplifier *NameSimplifier,
	snapshots SnapshotCache,
) *ProcurementService {
	return &ProcurementService{
		catalog:    catalog,
		offers:     offers,
		aliases:    aliases,
		matcher:    matcher,
		costs:      costs,
		simplifier: simplifier,
		snapshots:  snapshots,
	}
}

// ImportSummary reports the outcome of one offer list import.
type ImportSummary struct {
	BatchID   string `json:"batchId"`
	Total     int    `json:"total"`
	Matched   int    `json:"matched"`
	Unmatched int    `json:"unmatched"`
	Skipped   int    `json:"skipped"`
	Archived  int    `json:"archived"`
}

// ImportOffers ingests one supplier price list. Existing offers for the
// same supplier and list tag are archived to price history first, then each
// row is matched against the catalog and cost-normalized. Rows that violate
// invariants (negative price) are skipped and counted, never fatal.
func (s *ProcurementService) ImportOffers(ctx context.Context, supplierName, listTag string, rows []domain.OfferInput) (*ImportSummary, error) {
	if strings.TrimSpace(supplierName) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if listTag == "" {
		listTag = "General"
	}

	archived, err := s.offers.ArchiveList(ctx, supplierName, listTag)
	if err != nil {
		return nil, fmt.Errorf("archive previous offers: %w", err)
	}

	entries, err := s.catalogSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{
		BatchID:  uuid.NewString(),
		Total:    len(rows),
		Archived: archived,
	}

	for _, row := range rows {
		if strings.TrimSpace(row.RawName) == "" {
			summary.Skipped++
			continue
		}

		cost, err := s.costs.Normalize(row.Price, row.PackSizeText, row.BonusText)
		if err != nil {
			log.Warn().Str("raw_name", row.RawName).Float64("price", row.Price).
				Err(err).Msg("skipping offer row")
			summary.Skipped++
			continue
		}

		match, err := s.matcher.Resolve(ctx, row.RawName, row.Price, entries)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", row.RawName, err)
		}

		offer := &domain.SupplierOffer{
			SupplierName:   supplierName,
			ListTag:        listTag,
			RawProductName: row.RawName,
			Price:          row.Price,
			PackSize:       ParsePackSize(row.PackSizeText),
			NormalizedCost: cost.NormalizedUnitCost,
			BonusText:      row.BonusText,
			ImportBatchID:  summary.BatchID,
		}
		if match != nil {
			offer.MatchedEntryID = &match.CatalogEntryID
			offer.Confidence = match.Confidence
			summary.Matched++
		} else {
			summary.Unmatched++
		}

		if err := s.offers.CreateOffer(ctx, offer); err != nil {
			return nil, fmt.Errorf("persist offer %q: %w", row.RawName, err)
		}
	}

	log.Info().Str("supplier", supplierName).Str("list_tag", listTag).
		Str("batch_id", summary.BatchID).Int("total", summary.Total).
		Int("matched", summary.Matched).Int("unmatched", summary.Unmatched).
		Int("archived", summary.Archived).Msg("offer list imported")

	return summary, nil
}

// ImportCatalog ingests master catalog rows. The canonical name is computed
// exactly once here, at creation time. Duplicate item codes are skipped so
// a re-upload of the same sheet is harmless.
func (s *ProcurementService) ImportCatalog(ctx context.Context, entries []domain.CatalogEntry) (created, skipped int, err error) {
	for i := range entries {
		entry := entries[i]
		if strings.TrimSpace(entry.DisplayName) == "" || strings.TrimSpace(entry.ItemCode) == "" {
			skipped++
			continue
		}
		entry.CanonicalName = s.simplifier.Simplify(entry.DisplayName)

		if err := s.catalog.CreateEntry(ctx, &entry); err != nil {
			if errors.Is(err, domain.ErrDuplicateItemCode) {
				skipped++
				continue
			}
			return created, skipped, fmt.Errorf("create entry %q: %w", entry.ItemCode, err)
		}
		created++
	}

	if created > 0 {
		s.snapshots.Invalidate()
	}
	return created, skipped, nil
}

// LinkAlias records a human-confirmed match: the offer's raw name becomes a
// permanent alias for the catalog entry and the offer itself is marked
// matched with full confidence.
func (s *ProcurementService) LinkAlias(ctx context.Context, offerID, entryID int64) (*domain.Alias, error) {
	offer, err := s.offers.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetEntry(ctx, entryID); err != nil {
		return nil, err
	}

	alias, err := s.aliases.Append(ctx, offer.RawProductName, entryID)
	if err != nil {
		return nil, fmt.Errorf("append alias: %w", err)
	}
	if err := s.offers.SetMatch(ctx, offerID, entryID, domain.ConfidenceHigh); err != nil {
		return nil, fmt.Errorf("mark offer matched: %w", err)
	}

	log.Info().Int64("offer_id", offerID).Int64("entry_id", entryID).
		Str("alias", offer.RawProductName).Msg("alias linked")
	return alias, nil
}

// MatchPreview resolves and cost-normalizes one offer without persisting
// anything. Match is nil when nothing in the catalog qualifies.
func (s *ProcurementService) MatchPreview(ctx context.Context, input domain.OfferInput) (*domain.MatchResult, domain.CostResult, error) {
	cost, err := s.costs.Normalize(input.Price, input.PackSizeText, input.BonusText)
	if err != nil {
		return nil, domain.CostResult{}, err
	}

	entries, err := s.catalogSnapshot(ctx)
	if err != nil {
		return nil, domain.CostResult{}, err
	}

	match, err := s.matcher.Resolve(ctx, input.RawName, input.Price, entries)
	if err != nil {
		return nil, domain.CostResult{}, err
	}
	return match, cost, nil
}

// UnmatchedOffers lists offers awaiting manual linking, optionally filtered
// by a raw-name substring.
func (s *ProcurementService) UnmatchedOffers(ctx context.Context, nameQuery string) ([]domain.SupplierOffer, error) {
	return s.offers.ListUnmatched(ctx, nameQuery)
}

// CompareOffers returns all offers matched to a catalog entry, cheapest
// normalized unit cost first. Sorting uses the persisted rounded cost so
// repeated runs order identically.
func (s *ProcurementService) CompareOffers(ctx context.Context, entryID int64) ([]domain.SupplierOffer, error) {
	if _, err := s.catalog.GetEntry(ctx, entryID); err != nil {
		return nil, err
	}
	offers, err := s.offers.ListByCatalogEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].NormalizedCost < offers[j].NormalizedCost
	})
	return offers, nil
}

// SearchCatalog finds catalog entries whose display name contains the
// query, ranked by edit distance to the query so the closest names come
// first. Used for manual linking, not by the match engine.
func (s *ProcurementService) SearchCatalog(ctx context.Context, query string) ([]domain.CatalogEntry, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrInvalidRequest
	}
	entries, err := s.catalog.SearchByNameSubstring(ctx, query)
	if err != nil {
		return nil, err
	}

	q := strings.ToUpper(strings.TrimSpace(query))
	sort.SliceStable(entries, func(i, j int) bool {
		return levenshtein.ComputeDistance(q, strings.ToUpper(entries[i].DisplayName)) <
			levenshtein.ComputeDistance(q, strings.ToUpper(entries[j].DisplayName))
	})
	return entries, nil
}

// catalogSnapshot returns the cached catalog snapshot, loading it from the
// store on a miss. A slightly stale snapshot is acceptable; imports
// invalidate it.
func (s *ProcurementService) catalogSnapshot(ctx context.Context) ([]domain.CatalogEntry, error) {
	if entries, ok := s.snapshots.Get(); ok {
		return entries, nil
	}
	entries, err := s.catalog.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog snapshot: %w", err)
	}
	s.snapshots.Set(entries)
	return entries, nil
}
