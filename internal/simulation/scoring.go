package simulation

import (
	"fmt"
	"strings"
)

// Impact tags used by the default policy.
const (
	ImpactStrategic     = "strategic"
	ImpactAnalytical    = "analytical"
	ImpactRisky         = "risky"
	ImpactSafe          = "safe"
	ImpactCollaborative = "collaborative"
)

// ScoringPolicy maps an impact tag to a score delta.
// Implementations must be defined for every tag, including unknown ones.
type ScoringPolicy interface {
	Score(impact string) int
}

// PolicyFunc adapts a plain function to ScoringPolicy.
type PolicyFunc func(impact string) int

// Score calls f(impact).
func (f PolicyFunc) Score(impact string) int {
	return f(impact)
}

// DefaultPolicy rewards strategic and analytical choices most.
var DefaultPolicy ScoringPolicy = PolicyFunc(func(impact string) int {
	switch impact {
	case ImpactStrategic, ImpactAnalytical:
		return 15
	case ImpactRisky:
		return 5
	default:
		return 10
	}
})

// TablePolicy scores tags from a lookup table with a fallback for unknown tags.
type TablePolicy struct {
	weights  map[string]int
	fallback int
}

// NewTablePolicy builds a TablePolicy. Tags are matched case-insensitively.
// Negative weights are rejected so scores never decrease.
func NewTablePolicy(weights map[string]int, fallback int) (*TablePolicy, error) {
	if fallback < 0 {
		return nil, fmt.Errorf("scoring: default weight %d is negative", fallback)
	}
	norm := make(map[string]int, len(weights))
	for tag, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("scoring: weight for %q is negative (%d)", tag, w)
		}
		norm[normalizeTag(tag)] = w
	}
	return &TablePolicy{weights: norm, fallback: fallback}, nil
}

// Score implements ScoringPolicy.
func (p *TablePolicy) Score(impact string) int {
	if w, ok := p.weights[normalizeTag(impact)]; ok {
		return w
	}
	return p.fallback
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
