package variation

import (
	"sort"

	"vardrill/domain/drill"
)

// CalculateFactorVariations returns the eta-squared percentage of every
// candidate factor not in exclude. Factors without enough data are absent
// from the map, not zero.
func CalculateFactorVariations(data []drill.Row, candidates []string, outcome string, exclude []string) map[string]float64 {
	out := make(map[string]float64)
	for factor, d := range CalculateFactorDecompositions(data, candidates, outcome, exclude) {
		out[factor] = d.EtaSquared
	}
	return out
}

// CalculateFactorDecompositions is CalculateFactorVariations with the full
// sums of squares and F test per factor.
func CalculateFactorDecompositions(data []drill.Row, candidates []string, outcome string, exclude []string) map[string]Decomposition {
	skip := make(map[string]struct{}, len(exclude)+1)
	for _, f := range exclude {
		skip[f] = struct{}{}
	}
	skip[outcome] = struct{}{}

	out := make(map[string]Decomposition)
	for _, factor := range candidates {
		if _, excluded := skip[factor]; excluded {
			continue
		}
		if d, ok := Decompose(data, factor, outcome); ok {
			out[factor] = d
		}
	}
	return out
}

// FactorScore is one entry of a ranked factor list.
type FactorScore struct {
	Factor       string  `json:"factor"`
	VariationPct float64 `json:"variation_pct"`
}

// RankFactors sorts factors by descending eta-squared, ties by name.
func RankFactors(variations map[string]float64) []FactorScore {
	out := make([]FactorScore, 0, len(variations))
	for f, v := range variations {
		out = append(out, FactorScore{Factor: f, VariationPct: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VariationPct != out[j].VariationPct {
			return out[i].VariationPct > out[j].VariationPct
		}
		return out[i].Factor < out[j].Factor
	})
	return out
}

// GetNextDrillFactor suggests the factor with the highest eta-squared,
// skipping justApplied. ok is false when nothing is left to suggest.
func GetNextDrillFactor(variations map[string]float64, justApplied string) (factor string, ok bool) {
	for _, score := range RankFactors(variations) {
		if score.Factor == justApplied {
			continue
		}
		return score.Factor, true
	}
	return "", false
}
