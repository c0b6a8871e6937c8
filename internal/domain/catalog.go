package domain

// CatalogEntry represents one product in the master catalog.
// CanonicalName is derived from DisplayName by the name simplifier when the
// entry is created and is never recomputed implicitly afterwards.
type CatalogEntry struct {
	ID            int64   `json:"id"`
	ItemCode      string  `json:"itemCode"`
	DisplayName   string  `json:"displayName"`
	CanonicalName string  `json:"canonicalName"`
	Dosage        string  `json:"dosage,omitempty"`
	PackSizeText  string  `json:"packSizeText,omitempty"`
	StandardCost  float64 `json:"standardCost"`
}

// Alias is a previously confirmed mapping from a raw supplier string to a
// catalog entry. Aliases act as an exact-match cache in front of fuzzy
// scoring; they are created when a human confirms a match and never deleted
// automatically.
type Alias struct {
	ID             int64  `json:"id"`
	AliasText      string `json:"aliasText"`
	CatalogEntryID int64  `json:"catalogEntryId"`
}
