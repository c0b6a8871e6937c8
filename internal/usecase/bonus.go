package usecase

import (
	"regexp"
	"strconv"
	"strings"
)

const defaultBonusMultiplier = 1.0

var (
	// Matches quantity deals like "10+2" or "10/2": buy 10, get 12 total
	bonusQuantityPattern = regexp.MustCompile(`^(\d+)\s*[+/]\s*(\d+)`)

	// Matches percentage deals like "Bonus 10%" or "bonus 12.5 %"
	bonusPercentPattern = regexp.MustCompile(`(?i)^bonus\s*(\d+(?:\.\d+)?)\s*%`)
)

// InterpretBonus converts a promotional bonus expression into an
// effective-price multiplier in (0,1]. Text that matches neither grammar
// yields 1.0: malformed promotional noise is taken as "no bonus" rather
// than rejecting the row, so the price is used at face value.
func InterpretBonus(bonusText string) float64 {
	s := strings.TrimSpace(bonusText)
	if s == "" {
		return defaultBonusMultiplier
	}

	if m := bonusQuantityPattern.FindStringSubmatch(s); m != nil {
		buy, _ := strconv.Atoi(m[1])
		free, _ := strconv.Atoi(m[2])
		if buy > 0 {
			// Pay for `buy` packs, receive `buy+free`
			return float64(buy) / float64(buy+free)
		}
		return defaultBonusMultiplier
	}

	if m := bonusPercentPattern.FindStringSubmatch(s); m != nil {
		percent, err := strconv.ParseFloat(m[1], 64)
		if err == nil && percent >= 0 {
			// Buy 100, get 100+percent
			return 100 / (100 + percent)
		}
	}

	return defaultBonusMultiplier
}
