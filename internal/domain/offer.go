package domain

import "time"

// Confidence buckets a match score via the configured thresholds.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// MatchSource records how a match was obtained.
type MatchSource string

const (
	SourceAlias MatchSource = "Alias"
	SourceFuzzy MatchSource = "Fuzzy"
)

// OfferInput is the unit of work submitted for matching and cost
// normalization. It is caller-supplied and never persisted as-is.
type OfferInput struct {
	RawName      string  `json:"rawName" binding:"required"`
	Price        float64 `json:"price"`
	PackSizeText string  `json:"packSizeText,omitempty"`
	BonusText    string  `json:"bonusText,omitempty"`
}

// MatchResult is the outcome of resolving a raw supplier name against the
// catalog. Absence of a match is represented by a nil *MatchResult, not by
// an error.
type MatchResult struct {
	CatalogEntryID int64       `json:"catalogEntryId"`
	MatchName      string      `json:"matchName"`
	Score          int         `json:"score"`
	Confidence     Confidence  `json:"confidence"`
	Source         MatchSource `json:"source"`
}

// CostResult holds the comparable cost numbers for one offer, rounded to
// 4 decimal places. Downstream comparisons must use these rounded values.
type CostResult struct {
	EffectiveUnitPrice float64 `json:"effectiveUnitPrice"`
	NormalizedUnitCost float64 `json:"normalizedUnitCost"`
}

// SupplierOffer is a persisted offer row produced by an import: the raw
// listing plus the match and cost outputs computed at ingestion time.
type SupplierOffer struct {
	ID             int64      `json:"id"`
	SupplierName   string     `json:"supplierName"`
	ListTag        string     `json:"listTag"`
	RawProductName string     `json:"rawProductName"`
	Price          float64    `json:"price"`
	PackSize       int        `json:"packSize"`
	NormalizedCost float64    `json:"normalizedCost"`
	BonusText      string     `json:"bonusText,omitempty"`
	ImportBatchID  string     `json:"importBatchId"`
	MatchedEntryID *int64     `json:"matchedEntryId,omitempty"`
	Confidence     Confidence `json:"confidence,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}
