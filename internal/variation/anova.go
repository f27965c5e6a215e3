// Package variation attributes outcome variance to categorical factors with
// a one-way decomposition (eta-squared) and replays drill paths level by level.
package variation

import (
	"math"
	"sort"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"vardrill/domain/drill"
)

// Decomposition is the one-way split of the outcome's sum of squares.
type Decomposition struct {
	Groups     int     `json:"groups"`
	N          int     `json:"n"`
	GrandMean  float64 `json:"grand_mean"`
	SSTotal    float64 `json:"ss_total"`
	SSBetween  float64 `json:"ss_between"`
	SSWithin   float64 `json:"ss_within"`
	EtaSquared float64 `json:"eta_squared"` // percentage in [0, 100]
	F          float64 `json:"f"`
	PValue     float64 `json:"p_value"`
}

// MarshalJSON writes F as null when it is not finite, which happens when
// every group is constant and the levels separate perfectly.
func (d Decomposition) MarshalJSON() ([]byte, error) {
	var f *float64
	if !math.IsInf(d.F, 0) && !math.IsNaN(d.F) {
		f = &d.F
	}
	out := struct {
		Groups     int      `json:"groups"`
		N          int      `json:"n"`
		GrandMean  float64  `json:"grand_mean"`
		SSTotal    float64  `json:"ss_total"`
		SSBetween  float64  `json:"ss_between"`
		SSWithin   float64  `json:"ss_within"`
		EtaSquared float64  `json:"eta_squared"`
		F          *float64 `json:"f"`
		PValue     float64  `json:"p_value"`
	}{d.Groups, d.N, d.GrandMean, d.SSTotal, d.SSBetween, d.SSWithin, d.EtaSquared, f, d.PValue}
	return json.Marshal(out)
}

// GroupOutcome collects qualifying outcome values per factor level. Rows
// with a null factor cell or a non-numeric outcome are skipped. Level keys
// are returned in first-seen order for deterministic summation.
func GroupOutcome(rows []drill.Row, factor, outcome string) (levels []string, groups map[string][]float64) {
	groups = make(map[string][]float64)
	for _, row := range rows {
		cell := row.Get(factor)
		if cell.IsNull() {
			continue
		}
		y, ok := row.Get(outcome).Float()
		if !ok {
			continue
		}
		key := cell.Key()
		if _, seen := groups[key]; !seen {
			levels = append(levels, key)
		}
		groups[key] = append(groups[key], y)
	}
	return levels, groups
}

// OneWay decomposes the pooled values of groups. ok is false when there are
// fewer than two groups, fewer than two values, or no variance at all.
func OneWay(levels []string, groups map[string][]float64) (d Decomposition, ok bool) {
	if len(levels) < 2 {
		return Decomposition{}, false
	}

	all := make([]float64, 0)
	for _, level := range levels {
		all = append(all, groups[level]...)
	}
	if len(all) < 2 {
		return Decomposition{}, false
	}

	grand := stat.Mean(all, nil)
	ssTotal := 0.0
	for _, y := range all {
		diff := y - grand
		ssTotal += diff * diff
	}
	if ssTotal == 0 || math.IsNaN(ssTotal) {
		return Decomposition{}, false
	}

	ssBetween := 0.0
	for _, level := range levels {
		values := groups[level]
		if len(values) == 0 {
			continue
		}
		diff := stat.Mean(values, nil) - grand
		ssBetween += float64(len(values)) * diff * diff
	}

	d = Decomposition{
		Groups:     len(levels),
		N:          len(all),
		GrandMean:  grand,
		SSTotal:    ssTotal,
		SSBetween:  ssBetween,
		SSWithin:   math.Max(ssTotal-ssBetween, 0),
		EtaSquared: clampPct(ssBetween / ssTotal * 100),
	}
	d.F, d.PValue = fTest(d)
	return d, true
}

// fTest returns the one-way ANOVA F statistic and its upper-tail p-value.
func fTest(d Decomposition) (f, p float64) {
	dfBetween := float64(d.Groups - 1)
	dfWithin := float64(d.N - d.Groups)
	if dfBetween <= 0 || dfWithin <= 0 {
		return 0, 1
	}
	if d.SSWithin == 0 {
		return math.Inf(1), 0
	}
	f = (d.SSBetween / dfBetween) / (d.SSWithin / dfWithin)
	p = 1 - distuv.F{D1: dfBetween, D2: dfWithin}.CDF(f)
	return f, math.Min(math.Max(p, 0), 1)
}

// EtaSquared computes the factor's eta-squared percentage on rows.
func EtaSquared(rows []drill.Row, factor, outcome string) (float64, bool) {
	d, ok := Decompose(rows, factor, outcome)
	if !ok {
		return 0, false
	}
	return d.EtaSquared, true
}

// Decompose groups rows by factor and runs OneWay.
func Decompose(rows []drill.Row, factor, outcome string) (Decomposition, bool) {
	levels, groups := GroupOutcome(rows, factor, outcome)
	return OneWay(levels, groups)
}

// GroupMeans returns the mean outcome per level, sorted by level key.
func GroupMeans(rows []drill.Row, factor, outcome string) []LevelMean {
	levels, groups := GroupOutcome(rows, factor, outcome)
	sort.Strings(levels)
	out := make([]LevelMean, 0, len(levels))
	for _, level := range levels {
		out = append(out, LevelMean{
			Level: level,
			N:     len(groups[level]),
			Mean:  stat.Mean(groups[level], nil),
		})
	}
	return out
}

// LevelMean is one factor level's outcome mean.
type LevelMean struct {
	Level string  `json:"level"`
	N     int     `json:"n"`
	Mean  float64 `json:"mean"`
}

func clampPct(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
