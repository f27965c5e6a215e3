package variation

import (
	"vardrill/domain/drill"
	"vardrill/internal/filterstack"
)

// DrillVariationResult is the variation story of a whole drill path.
type DrillVariationResult struct {
	Levels                 []drill.DrillLevelResult `json:"levels"`
	CumulativeVariationPct float64                  `json:"cumulative_variation_pct"`
	ImpactLevel            ImpactLevel              `json:"impact_level"`
	InsightText            string                   `json:"insight_text"`
}

// CalculateDrillVariation replays path one factor at a time starting from
// raw. Each level's eta-squared is measured on the rows available before
// that filter was applied; the cumulative percentage is the running product
// of the local fractions. It returns nil when the path is empty or any level
// lacks the data for a ratio.
func CalculateDrillVariation(raw []drill.Row, path drill.OrderedFilters, outcome string, thresholds Thresholds) *DrillVariationResult {
	if len(path) == 0 {
		return nil
	}

	current := raw
	fraction := 1.0
	levels := make([]drill.DrillLevelResult, 0, len(path))
	labels := make([]string, 0, len(path))

	for _, step := range path {
		local, ok := EtaSquared(current, step.Factor, outcome)
		if !ok {
			return nil
		}
		next := filterstack.ApplyFilter(current, step)

		fraction *= local / 100
		levels = append(levels, drill.DrillLevelResult{
			Factor:                 step.Factor,
			Values:                 append([]drill.Value(nil), step.Values...),
			LocalVariationPct:      local,
			CumulativeVariationPct: clampPct(fraction * 100),
			RowsBefore:             len(current),
			RowsAfter:              len(next),
		})
		labels = append(labels, filterstack.FormatLabel(step.Factor, step.Values, nil))
		current = next
	}

	cumulative := levels[len(levels)-1].CumulativeVariationPct
	impact := thresholds.Classify(cumulative)
	return &DrillVariationResult{
		Levels:                 levels,
		CumulativeVariationPct: cumulative,
		ImpactLevel:            impact,
		InsightText:            insightText(labels, cumulative, impact),
	}
}

// CalculateDrillVariationFromMap replays an unordered FilterMap in sorted
// factor order. Prefer the ordered form when the stack is available.
func CalculateDrillVariationFromMap(raw []drill.Row, filters drill.FilterMap, outcome string, thresholds Thresholds) *DrillVariationResult {
	return CalculateDrillVariation(raw, filters.Ordered(), outcome, thresholds)
}

// AnnotateBreadcrumbs copies crumbs and attaches the per-level percentages
// to the crumbs of filter actions, matched by factor.
func AnnotateBreadcrumbs(crumbs []drill.BreadcrumbItem, stack drill.FilterStack, result *DrillVariationResult) []drill.BreadcrumbItem {
	out := append([]drill.BreadcrumbItem(nil), crumbs...)
	if result == nil {
		return out
	}
	byFactor := make(map[string]drill.DrillLevelResult, len(result.Levels))
	for _, l := range result.Levels {
		byFactor[l.Factor] = l
	}
	factorOf := make(map[string]string, len(stack))
	for _, a := range stack {
		if a.IsFilter() {
			factorOf[a.ID.String()] = a.Factor
		}
	}
	for i := range out {
		level, ok := byFactor[factorOf[out[i].ID.String()]]
		if !ok {
			continue
		}
		local, cumulative := level.LocalVariationPct, level.CumulativeVariationPct
		out[i].LocalVariationPct = &local
		out[i].CumulativeVariationPct = &cumulative
	}
	return out
}
