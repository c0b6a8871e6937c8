package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pharmaprocure/backend/internal/domain"
)

// Header keywords for column guessing, matched case-insensitively as
// substrings. Order within a list is priority order.
var (
	offerNameKeywords  = []string{"name", "item", "description", "product", "drug"}
	offerPriceKeywords = []string{"price", "rate", "cost", "net"}
	offerPackKeywords  = []string{"pack", "size", "uom", "format"}
	offerBonusKeywords = []string{"bonus", "offer", "free", "scheme", "deal"}

	catalogNameKeywords = []string{"product_name", "product name", "trade name", "item name", "description"}
	catalogCodeKeywords = []string{"code", "item code", "item_code", "sku"}
	catalogDoseKeywords = []string{"dosage", "strength"}
	catalogPackKeywords = []string{"pack", "size"}
	catalogCostKeywords = []string{"cost", "standard", "price", "rate", "retail"}
)

var numericJunk = regexp.MustCompile(`[^\d.\-]`)

// findColumn returns the index of the first header matching any keyword
// (case-insensitive substring), or -1.
func findColumn(headers []string, keywords []string) int {
	for _, kw := range keywords {
		for i, h := range headers {
			if strings.Contains(strings.ToLower(strings.TrimSpace(h)), kw) {
				return i
			}
		}
	}
	return -1
}

// parsePrice pulls a float out of a price cell, tolerating currency symbols
// and thousands separators. Unparseable cells yield 0.0 so one bad cell
// does not halt the import.
func parsePrice(cell string) float64 {
	cleaned := numericJunk.ReplaceAllString(strings.TrimSpace(cell), "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// MapOfferRows converts sheet rows into offer inputs using header keyword
// guessing. The offer name and price columns are required; pack and bonus
// are optional.
func MapOfferRows(rows [][]string) ([]domain.OfferInput, error) {
	if len(rows) < 2 {
		return nil, domain.ErrNoUsableColumns
	}
	headers := rows[0]

	nameIdx := findColumn(headers, offerNameKeywords)
	priceIdx := findColumn(headers, offerPriceKeywords)
	if nameIdx < 0 || priceIdx < 0 {
		return nil, domain.ErrNoUsableColumns
	}
	packIdx := findColumn(headers, offerPackKeywords)
	bonusIdx := findColumn(headers, offerBonusKeywords)

	var inputs []domain.OfferInput
	for _, row := range rows[1:] {
		name := cellAt(row, nameIdx)
		if strings.TrimSpace(name) == "" {
			continue
		}
		inputs = append(inputs, domain.OfferInput{
			RawName:      strings.TrimSpace(name),
			Price:        parsePrice(cellAt(row, priceIdx)),
			PackSizeText: strings.TrimSpace(cellAt(row, packIdx)),
			BonusText:    strings.TrimSpace(cellAt(row, bonusIdx)),
		})
	}
	return inputs, nil
}

// MapCatalogRows converts sheet rows into catalog entries using header
// keyword guessing. Canonical names are left empty; they are computed by
// the procurement service at creation time.
func MapCatalogRows(rows [][]string) ([]domain.CatalogEntry, error) {
	if len(rows) < 2 {
		return nil, domain.ErrNoUsableColumns
	}
	headers := rows[0]

	nameIdx := findColumn(headers, catalogNameKeywords)
	codeIdx := findColumn(headers, catalogCodeKeywords)
	if nameIdx < 0 || codeIdx < 0 {
		return nil, domain.ErrNoUsableColumns
	}
	doseIdx := findColumn(headers, catalogDoseKeywords)
	packIdx := findColumn(headers, catalogPackKeywords)
	costIdx := findColumn(headers, catalogCostKeywords)

	var entries []domain.CatalogEntry
	for _, row := range rows[1:] {
		name := cellAt(row, nameIdx)
		code := cellAt(row, codeIdx)
		if strings.TrimSpace(name) == "" || strings.TrimSpace(code) == "" {
			continue
		}
		entries = append(entries, domain.CatalogEntry{
			ItemCode:     strings.TrimSpace(code),
			DisplayName:  strings.TrimSpace(name),
			Dosage:       strings.TrimSpace(cellAt(row, doseIdx)),
			PackSizeText: strings.TrimSpace(cellAt(row, packIdx)),
			StandardCost: parsePrice(cellAt(row, costIdx)),
		})
	}
	return entries, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
