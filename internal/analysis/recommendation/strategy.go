// Package recommendation classifies a stock as BUY, HOLD or SELL against the
// thresholds of a named investor risk profile.
package recommendation

import "strings"

// RiskStrategy names an investor risk profile.
type RiskStrategy string

const (
	RiskAverse RiskStrategy = "risk_averse"
	Moderate   RiskStrategy = "moderate"
	HighRisk   RiskStrategy = "high_risk"
)

// DefaultStrategy is used for empty or unrecognised names.
const DefaultStrategy = Moderate

// Profile is the threshold pair a strategy applies.
type Profile struct {
	Name                   RiskStrategy `json:"name"                     yaml:"name"`
	BetaThreshold          float64      `json:"beta_threshold"           yaml:"beta_threshold"`
	ShortInterestThreshold float64      `json:"short_interest_threshold" yaml:"short_interest_threshold"`
	Description            string       `json:"description"              yaml:"description"`
}

var profiles = map[RiskStrategy]Profile{
	RiskAverse: {
		Name:                   RiskAverse,
		BetaThreshold:          1.0,
		ShortInterestThreshold: 0.10,
		Description:            "Capital preservation: market-level volatility at most, little short pressure.",
	},
	Moderate: {
		Name:                   Moderate,
		BetaThreshold:          1.5,
		ShortInterestThreshold: 0.20,
		Description:            "Balanced growth with tolerance for above-market swings.",
	},
	HighRisk: {
		Name:                   HighRisk,
		BetaThreshold:          2.0,
		ShortInterestThreshold: 0.30,
		Description:            "Aggressive: accepts high beta and heavy short interest.",
	},
}

// order fixes the listing order of Strategies.
var order = []RiskStrategy{RiskAverse, Moderate, HighRisk}

// ResolveStrategy returns the profile for name. Matching ignores case and
// surrounding whitespace; an unknown name resolves to the moderate profile.
func ResolveStrategy(name string) Profile {
	key := RiskStrategy(strings.ToLower(strings.TrimSpace(name)))
	if p, ok := profiles[key]; ok {
		return p
	}
	return profiles[DefaultStrategy]
}

// IsKnownStrategy reports whether name matches a profile exactly (after
// case folding) rather than falling back to the default.
func IsKnownStrategy(name string) bool {
	_, ok := profiles[RiskStrategy(strings.ToLower(strings.TrimSpace(name)))]
	return ok
}

// Strategies lists every profile, least to most aggressive.
func Strategies() []Profile {
	out := make([]Profile, 0, len(order))
	for _, name := range order {
		out = append(out, profiles[name])
	}
	return out
}
