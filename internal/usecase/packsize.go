package usecase

import (
	"regexp"
	"strconv"
	"strings"
)

const defaultPackSize = 1

var (
	// Matches multiplicative pack forms like "10x10" or "3 * 10"
	packProductPattern = regexp.MustCompile(`^(\d+)\s*[x*]\s*(\d+)`)

	// First integer substring anywhere in the text
	firstIntPattern = regexp.MustCompile(`\d+`)
)

// ParsePackSize infers an integer pack size from free text such as "24s",
// "100ml" or "10x10". It never fails and always returns at least 1:
// an unparseable pack size must not halt ingestion, and a floor of 1 keeps
// the unit-cost division safe.
func ParsePackSize(text string) int {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return defaultPackSize
	}

	// "10x10" -> 100
	if m := packProductPattern.FindStringSubmatch(s); m != nil {
		a, errA := strconv.Atoi(m[1])
		b, errB := strconv.Atoi(m[2])
		if errA == nil && errB == nil && a*b >= 1 {
			return a * b
		}
	}

	if m := firstIntPattern.FindString(s); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n >= 1 {
			return n
		}
	}

	return defaultPackSize
}
