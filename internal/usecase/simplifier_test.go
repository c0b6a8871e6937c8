package usecase

import (
	"strings"
	"testing"

	"github.com/pharmaprocure/backend/config"
)

func newTestSimplifier(t *testing.T) *NameSimplifier {
	t.Helper()
	s, err := NewNameSimplifier(config.DefaultNoisePatterns)
	if err != nil {
		t.Fatalf("NewNameSimplifier: %v", err)
	}
	return s
}

func TestSimplify(t *testing.T) {
	s := newTestSimplifier(t)

	t.Run("drops packaging details after comma and regulatory tokens", func(t *testing.T) {
		got := s.Simplify("PARACETAMOL 500MG TABLETS BP, 24'S Blister Pack")
		if got != "PARACETAMOL 500MG TABLETS" {
			t.Errorf("Simplify = %q, want %q", got, "PARACETAMOL 500MG TABLETS")
		}
	})

	t.Run("truncates after dosage form keyword", func(t *testing.T) {
		got := s.Simplify("0.2% CIPROFLOXACIN in 0.9% W/V SODIUM CHLORIDE INJECTION USP Infusion/Solution for, 100ml Plastic Bag")
		if !strings.HasSuffix(got, "INJECTION") {
			t.Errorf("Simplify = %q, want suffix INJECTION", got)
		}
		if strings.Contains(got, "PLASTIC") || strings.Contains(got, "USP") {
			t.Errorf("Simplify = %q, packaging noise not removed", got)
		}
	})

	t.Run("uppercases and collapses whitespace", func(t *testing.T) {
		got := s.Simplify("  amoxicillin   250mg  capsules ")
		if got != "AMOXICILLIN 250MG CAPSULES" {
			t.Errorf("Simplify = %q, want %q", got, "AMOXICILLIN 250MG CAPSULES")
		}
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		if got := s.Simplify(""); got != "" {
			t.Errorf("Simplify(\"\") = %q, want empty", got)
		}
		if got := s.Simplify("   "); got != "" {
			t.Errorf("Simplify(blank) = %q, want empty", got)
		}
	})

	t.Run("falls back to original when everything is noise", func(t *testing.T) {
		// "Blister Pack" alone is entirely noise; the entry must still get a
		// non-empty matching key
		got := s.Simplify("Blister Pack")
		if got == "" {
			t.Error("Simplify of all-noise name returned empty string")
		}
	})

	t.Run("near idempotence", func(t *testing.T) {
		inputs := []string{
			"PARACETAMOL 500MG TABLETS BP, 24'S Blister Pack",
			"AMOXICILLIN 250MG CAPSULES USP, 100's",
			"IBUPROFEN SYRUP 100ML GLASS BOTTLE",
		}
		for _, in := range inputs {
			once := s.Simplify(in)
			twice := s.Simplify(once)
			if twice != once {
				t.Errorf("Simplify not stable for %q: first %q, second %q", in, once, twice)
			}
		}
	})
}

func TestNewNameSimplifierBadPattern(t *testing.T) {
	if _, err := NewNameSimplifier([]string{`[unclosed`}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}
