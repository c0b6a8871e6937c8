package usecase

import (
	"context"
	"math"
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/rs/zerolog/log"

	"github.com/pharmaprocure/backend/internal/domain"
)

// Default cutoffs, used when the config leaves a value unset. Strict on
// purpose: a wrong pharmaceutical match is worse than no match.
const (
	defaultCutoffTokenSort  = 85
	defaultCutoffTokenSet   = 85
	defaultCutoffPartial    = 90
	defaultScoreTolerance   = 3
	defaultConfidenceHigh   = 95
	defaultConfidenceMedium = 85
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	CutoffTokenSort    int
	CutoffTokenSet     int
	CutoffPartial      int
	ScoreTolerance     int
	ConfidenceHigh     int
	ConfidenceMedium   int
	EnableDebugLogging bool
}

// MatchingService resolves raw supplier product names to catalog entries.
// It is stateless between calls: the catalog snapshot is passed in, the
// alias store is consulted read-only, and nothing inside the service
// mutates shared state, so one service can score independent offers from
// many goroutines.
type MatchingService struct {
	aliases            domain.AliasRepository
	cutoffTokenSort    int
	cutoffTokenSet     int
	cutoffPartial      int
	scoreTolerance     int
	confidenceHigh     int
	confidenceMedium   int
	enableDebugLogging bool
}

// scorer pairs a similarity function with its independent cutoff. Each of
// the three catches a different noise pattern: word-order swaps, extra or
// missing tokens, and partial-string containment.
type scorer struct {
	name   string
	score  func(s1, s2 string) int
	cutoff int
}

// candidate is one catalog entry retained by at least one scorer.
type candidate struct {
	entryID int64
	name    string
	score   int
	scorer  string
}

// NewMatchingService creates a new matching service with the given
// configuration, falling back to the default cutoffs for unset values.
func NewMatchingService(config MatchConfig, aliases domain.AliasRepository) *MatchingService {
	s := &MatchingService{
		aliases:            aliases,
		cutoffTokenSort:    config.CutoffTokenSort,
		cutoffTokenSet:     config.CutoffTokenSet,
		cutoffPartial:      config.CutoffPartial,
		scoreTolerance:     config.ScoreTolerance,
		confidenceHigh:     config.ConfidenceHigh,
		confidenceMedium:   config.ConfidenceMedium,
		enableDebugLogging: config.EnableDebugLogging,
	}
	if s.cutoffTokenSort <= 0 {
		s.cutoffTokenSort = defaultCutoffTokenSort
	}
	if s.cutoffTokenSet <= 0 {
		s.cutoffTokenSet = defaultCutoffTokenSet
	}
	if s.cutoffPartial <= 0 {
		s.cutoffPartial = defaultCutoffPartial
	}
	if s.scoreTolerance <= 0 {
		s.scoreTolerance = defaultScoreTolerance
	}
	if s.confidenceHigh <= 0 {
		s.confidenceHigh = defaultConfidenceHigh
	}
	if s.confidenceMedium <= 0 {
		s.confidenceMedium = defaultConfidenceMedium
	}
	return s
}

// Resolve matches a raw supplier name against the catalog snapshot.
//
// An exact alias hit short-circuits everything else. Otherwise the three
// fuzzy scorers each nominate entries above their own cutoff, the merged
// candidates are ranked, and close ties are broken by comparing the
// supplier price against each entry's standard cost. A nil result means
// "no match" and is the expected steady state for catalogs with incomplete
// coverage, not a failure; even a blank name resolves to nil rather than
// an error, since no scorer can put it above a cutoff.
func (s *MatchingService) Resolve(ctx context.Context, rawName string, price float64, entries []domain.CatalogEntry) (*domain.MatchResult, error) {
	byID := make(map[int64]domain.CatalogEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	// 1) Exact alias match bypasses fuzzy scoring entirely
	alias, err := s.aliases.FindByExactText(ctx, rawName)
	if err != nil {
		return nil, err
	}
	if alias != nil {
		result := &domain.MatchResult{
			CatalogEntryID: alias.CatalogEntryID,
			Score:          100,
			Confidence:     domain.ConfidenceHigh,
			Source:         domain.SourceAlias,
		}
		if e, ok := byID[alias.CatalogEntryID]; ok {
			result.MatchName = e.DisplayName
		}
		return result, nil
	}

	if len(entries) == 0 {
		return nil, nil
	}

	// 2) Candidate generation across the three scorers. A blank name cannot
	// clear any cutoff, so it resolves to no match like any other miss.
	normalized := strings.ToUpper(strings.TrimSpace(rawName))
	if normalized == "" {
		return nil, nil
	}
	candidates, err := s.collectCandidates(ctx, normalized, entries)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// 3) Rank and disambiguate
	best := s.disambiguate(candidates, price, byID)

	if s.enableDebugLogging {
		log.Debug().
			Str("raw_name", rawName).
			Int64("entry_id", best.entryID).
			Int("score", best.score).
			Str("scorer", best.scorer).
			Int("candidates", len(candidates)).
			Msg("fuzzy match selected")
	}

	return &domain.MatchResult{
		CatalogEntryID: best.entryID,
		MatchName:      best.name,
		Score:          best.score,
		Confidence:     s.bucketConfidence(best.score),
		Source:         domain.SourceFuzzy,
	}, nil
}

// collectCandidates scores the normalized name against every entry's
// canonical name with each scorer, keeping entries that meet that scorer's
// cutoff. A catalog entry nominated by several scorers is kept once at its
// best score.
func (s *MatchingService) collectCandidates(ctx context.Context, normalized string, entries []domain.CatalogEntry) ([]candidate, error) {
	scorers := []scorer{
		{"token_sort", func(a, b string) int { return fuzzy.TokenSortRatio(a, b) }, s.cutoffTokenSort},
		{"token_set", func(a, b string) int { return fuzzy.TokenSetRatio(a, b) }, s.cutoffTokenSet},
		{"partial", func(a, b string) int { return fuzzy.PartialRatio(a, b) }, s.cutoffPartial},
	}

	bestByEntry := make(map[int64]candidate)
	for _, sc := range scorers {
		for _, entry := range entries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			key := entry.CanonicalName
			if key == "" {
				key = strings.ToUpper(entry.DisplayName)
			}
			score := sc.score(normalized, key)
			if score < sc.cutoff {
				continue
			}
			if prev, ok := bestByEntry[entry.ID]; ok && prev.score >= score {
				continue
			}
			bestByEntry[entry.ID] = candidate{
				entryID: entry.ID,
				name:    entry.DisplayName,
				score:   score,
				scorer:  sc.name,
			}
		}
	}

	merged := make([]candidate, 0, len(bestByEntry))
	for _, c := range bestByEntry {
		merged = append(merged, c)
	}

	// Score descending; equal scores fall back to lowest entry ID so the
	// ordering never depends on map iteration or scorer insertion order.
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].score != merged[j].score {
			return merged[i].score > merged[j].score
		}
		return merged[i].entryID < merged[j].entryID
	})

	return merged, nil
}

// disambiguate picks the final candidate. Catalogs routinely carry the same
// drug at several pack sizes with near-identical names; when several
// candidates sit within the score tolerance of the best one, the supplier
// price against each entry's standard cost is the only signal that can
// separate them.
func (s *MatchingService) disambiguate(candidates []candidate, price float64, byID map[int64]domain.CatalogEntry) candidate {
	top := candidates[0]

	closeMatches := candidates[:0:0]
	for _, c := range candidates {
		if c.score >= top.score-s.scoreTolerance {
			closeMatches = append(closeMatches, c)
		}
	}

	if len(closeMatches) <= 1 || price <= 0 {
		return top
	}

	best := closeMatches[0]
	bestDiff := math.Inf(1)
	for _, c := range closeMatches {
		entry, ok := byID[c.entryID]
		if !ok {
			continue
		}
		diff := math.Abs(price - entry.StandardCost)
		if diff < bestDiff {
			bestDiff = diff
			best = c
		}
	}
	return best
}

// bucketConfidence maps a score onto the configured High/Medium/Low bands.
func (s *MatchingService) bucketConfidence(score int) domain.Confidence {
	switch {
	case score >= s.confidenceHigh:
		return domain.ConfidenceHigh
	case score >= s.confidenceMedium:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}
