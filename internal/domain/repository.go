package domain

import "context"

// CatalogRepository defines read/write access to the master catalog.
// ListEntries returns the full snapshot the match engine scores against.
type CatalogRepository interface {
	ListEntries(ctx context.Context) ([]CatalogEntry, error)
	GetEntry(ctx context.Context, id int64) (*CatalogEntry, error)
	SearchByNameSubstring(ctx context.Context, query string) ([]CatalogEntry, error)
	CreateEntry(ctx context.Context, entry *CatalogEntry) error
}

// AliasRepository defines access to confirmed raw-name aliases. Lookup is
// exact-string, case-sensitive as stored. Append is invoked by the
// surrounding application when a human confirms a match, never by the match
// engine itself.
type AliasRepository interface {
	FindByExactText(ctx context.Context, rawName string) (*Alias, error)
	Append(ctx context.Context, aliasText string, catalogEntryID int64) (*Alias, error)
}

// OfferRepository defines persistence for imported supplier offers and their
// price history.
type OfferRepository interface {
	CreateOffer(ctx context.Context, offer *SupplierOffer) error
	GetOffer(ctx context.Context, id int64) (*SupplierOffer, error)
	ListUnmatched(ctx context.Context, nameQuery string) ([]SupplierOffer, error)
	ListByCatalogEntry(ctx context.Context, entryID int64) ([]SupplierOffer, error)
	SetMatch(ctx context.Context, offerID, entryID int64, confidence Confidence) error
	ArchiveList(ctx context.Context, supplierName, listTag string) (int, error)
}
