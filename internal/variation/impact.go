package variation

import (
	"fmt"
	"strings"
)

// ImpactLevel classifies how much variation a drill path explains.
type ImpactLevel string

const (
	ImpactHigh     ImpactLevel = "high"
	ImpactModerate ImpactLevel = "moderate"
	ImpactLow      ImpactLevel = "low"
)

// Thresholds are the cumulative percentages at which impact levels start.
type Thresholds struct {
	HighPct     float64 `json:"high_pct" yaml:"high_pct"`
	ModeratePct float64 `json:"moderate_pct" yaml:"moderate_pct"`
}

// DefaultThresholds: high at 50%, moderate at 25%.
func DefaultThresholds() Thresholds {
	return Thresholds{HighPct: 50, ModeratePct: 25}
}

// normalized falls back to defaults for unset or inverted thresholds.
func (t Thresholds) normalized() Thresholds {
	if t.HighPct <= 0 || t.ModeratePct <= 0 || t.ModeratePct > t.HighPct {
		return DefaultThresholds()
	}
	return t
}

// Classify maps a cumulative percentage to an impact level.
func (t Thresholds) Classify(cumulativePct float64) ImpactLevel {
	t = t.normalized()
	switch {
	case cumulativePct >= t.HighPct:
		return ImpactHigh
	case cumulativePct >= t.ModeratePct:
		return ImpactModerate
	default:
		return ImpactLow
	}
}

// insightText summarises a drill path in one sentence.
func insightText(path []string, cumulativePct float64, level ImpactLevel) string {
	subject := strings.Join(path, " → ")
	switch level {
	case ImpactHigh:
		return fmt.Sprintf("%s explains %.0f%% of the total variation. Focus improvement here.", subject, cumulativePct)
	case ImpactModerate:
		return fmt.Sprintf("%s explains %.0f%% of the total variation. Worth investigating further.", subject, cumulativePct)
	default:
		return fmt.Sprintf("%s explains only %.0f%% of the total variation. Look at other factors.", subject, cumulativePct)
	}
}
