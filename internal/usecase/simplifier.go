package usecase

import (
	"fmt"
	"regexp"
	"strings"
)

// Compiled regex patterns for name simplification
var (
	// Matches "in 0.9% W/V" style concentration phrases in solution names
	concentrationPattern = regexp.MustCompile(`\bIN\s+\d+\.?\d*%\s+W/V\b`)
	wvPattern            = regexp.MustCompile(`\bW/V\b`)

	// Matches the leading "active ingredient + strength" part up to the
	// first dosage-form keyword; everything after it is packaging detail
	dosageFormPattern = regexp.MustCompile(`^(.*?)\s+(INJECTION|INFUSION|TABLETS?|CAPSULES?|SYRUP|SUSPENSION)`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// NameSimplifier strips packaging and regulatory noise from a raw catalog
// product name, producing the canonical comparison string used as the
// fuzzy-matching key.
//
// "0.2% CIPROFLOXACIN in 0.9% W/V SODIUM CHLORIDE INJECTION USP Infusion/Solution for, 100ml Plastic Bag"
// becomes "0.2% CIPROFLOXACIN SODIUM CHLORIDE INJECTION";
// "PARACETAMOL 500MG TABLETS BP, 24's Blister Pack" becomes
// "PARACETAMOL 500MG TABLETS".
type NameSimplifier struct {
	noisePatterns []*regexp.Regexp
}

// NewNameSimplifier compiles the configured noise patterns. Patterns are
// applied case-insensitively, in order.
func NewNameSimplifier(patterns []string) (*NameSimplifier, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, fmt.Errorf("bad noise pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &NameSimplifier{noisePatterns: compiled}, nil
}

// Simplify returns the canonical form of a raw product name. It is total:
// it never fails, and empty input yields empty output. If stripping noise
// would discard every token, the uppercased original is returned instead so
// a non-empty name never maps to an empty key.
func (s *NameSimplifier) Simplify(rawName string) string {
	if strings.TrimSpace(rawName) == "" {
		return ""
	}

	name := strings.ToUpper(strings.TrimSpace(rawName))

	for _, re := range s.noisePatterns {
		name = re.ReplaceAllString(name, " ")
	}

	// Remove solution concentration phrases ("in 0.9% W/V")
	name = concentrationPattern.ReplaceAllString(name, " ")
	name = wvPattern.ReplaceAllString(name, " ")

	name = strings.TrimSpace(multiSpacePattern.ReplaceAllString(name, " "))

	// Truncate right after the dosage-form keyword, dropping trailing
	// packaging description
	if m := dosageFormPattern.FindStringSubmatch(name); m != nil {
		name = strings.TrimSpace(m[1]) + " " + m[2]
	}

	name = strings.TrimSpace(name)
	if name == "" {
		// Degenerate case: the whole name was noise. Fall back to the
		// original so the entry stays matchable.
		return strings.TrimSpace(multiSpacePattern.ReplaceAllString(strings.ToUpper(rawName), " "))
	}

	return name
}
