package staged

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"vardrill/domain/drill"
	"vardrill/domain/spc"
)

// CalculateStats summarises values: mean, sample standard deviation, 3-sigma
// control limits and, when spec limits are given, capability and the share
// of values out of spec. Values above every grade are not graded.
func CalculateStats(values []float64, specs spc.SpecLimits, grades []spc.Grade) spc.StatsResult {
	res := spc.StatsResult{Count: len(values)}
	if len(values) == 0 {
		return res
	}

	res.Mean, _ = stats.Mean(values)
	if len(values) > 1 {
		sd, err := stats.StandardDeviationSample(values)
		if err == nil && !math.IsNaN(sd) {
			res.StdDev = sd
		}
	}
	res.UCL = res.Mean + 3*res.StdDev
	res.LCL = res.Mean - 3*res.StdDev

	if res.StdDev > 0 {
		if specs.HasBoth() {
			cp := (*specs.USL - *specs.LSL) / (6 * res.StdDev)
			res.Cp = &cp
		}
		if specs.HasAny() {
			cpk := math.Inf(1)
			if specs.USL != nil {
				cpk = math.Min(cpk, (*specs.USL-res.Mean)/(3*res.StdDev))
			}
			if specs.LSL != nil {
				cpk = math.Min(cpk, (res.Mean-*specs.LSL)/(3*res.StdDev))
			}
			res.Cpk = &cpk
		}
	}

	if specs.HasAny() {
		out := 0
		for _, v := range values {
			if (specs.USL != nil && v > *specs.USL) || (specs.LSL != nil && v < *specs.LSL) {
				out++
			}
		}
		pct := float64(out) / float64(len(values)) * 100
		res.OutOfSpecPercentage = &pct
	}

	if len(grades) > 0 {
		res.GradeCounts = countGrades(values, grades)
	}
	return res
}

func countGrades(values []float64, grades []spc.Grade) map[string]int {
	sorted := append([]spc.Grade(nil), grades...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Max < sorted[j].Max })

	counts := make(map[string]int, len(sorted))
	for _, g := range sorted {
		counts[g.Label] += 0
	}
	for _, v := range values {
		for _, g := range sorted {
			if v <= g.Max {
				counts[g.Label]++
				break
			}
		}
	}
	return counts
}

// OutcomeValues returns the numeric, non-NaN outcome cells of rows.
func OutcomeValues(rows []drill.Row, outcome string) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if v, ok := row.Get(outcome).Float(); ok {
			out = append(out, v)
		}
	}
	return out
}

// CalculateStatsByStage computes overall statistics plus one summary per
// stage, stages ordered by mode.
func CalculateStatsByStage(rows []drill.Row, outcome, stageColumn string, specs spc.SpecLimits, mode spc.StageOrderMode, grades []spc.Grade) spc.StagedStatsResult {
	order := DetermineStageOrder(StageValues(rows, stageColumn), mode)

	byStage := make(map[string][]float64, len(order))
	for _, row := range rows {
		cell := row.Get(stageColumn)
		if cell.IsNull() {
			continue
		}
		if v, ok := row.Get(outcome).Float(); ok {
			byStage[cell.Key()] = append(byStage[cell.Key()], v)
		}
	}

	perStage := make(map[string]spc.StatsResult, len(order))
	for _, stage := range order {
		perStage[stage] = CalculateStats(byStage[stage], specs, grades)
	}

	return spc.StagedStatsResult{
		StageOrder:   order,
		OverallStats: CalculateStats(OutcomeValues(rows, outcome), specs, grades),
		PerStage:     perStage,
	}
}
