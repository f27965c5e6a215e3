// Package session binds a dataset, a navigator and the analysis engines into
// one drill session, and keeps many of them behind a Manager.
package session

import (
	"strconv"
	"time"

	"vardrill/domain/core"
	"vardrill/domain/drill"
	"vardrill/domain/spc"
	"vardrill/internal/filterstack"
	"vardrill/internal/metrics"
	"vardrill/internal/staged"
	"vardrill/internal/variation"
)

// Settings choose what a session analyses.
type Settings struct {
	Outcome     string
	Factors     []string // empty means every column except outcome and stage
	StageColumn string
	StageOrder  spc.StageOrderMode
	Specs       spc.SpecLimits
	Grades      []spc.Grade
	Thresholds  variation.Thresholds
	Aliases     filterstack.Aliases
	RootLabel   string
}

// Analysis is everything a view needs for the current drill path.
type Analysis struct {
	SessionID        core.SessionID                  `json:"session_id"`
	DatasetVersion   string                          `json:"dataset_version"`
	Outcome          string                          `json:"outcome"`
	RowsTotal        int                             `json:"rows_total"`
	RowsFiltered     int                             `json:"rows_filtered"`
	Filters          drill.FilterMap                 `json:"filters"`
	Breadcrumbs      []drill.BreadcrumbItem          `json:"breadcrumbs"`
	FactorVariations map[string]float64              `json:"factor_variations"`
	Ranking          []variation.FactorScore         `json:"ranking"`
	NextFactor       string                          `json:"next_factor,omitempty"`
	Drill            *variation.DrillVariationResult `json:"drill,omitempty"`
	Stats            spc.StatsResult                 `json:"stats"`
	Staged           *spc.StagedStatsResult          `json:"staged,omitempty"`
	Boundaries       []spc.StageBoundary             `json:"boundaries,omitempty"`
	ComputedAt       time.Time                       `json:"computed_at"`
}

// computed is the memoized, path-dependent part of an Analysis.
type computed struct {
	rowsFiltered int
	variations   map[string]float64
	ranking      []variation.FactorScore
	drill        *variation.DrillVariationResult
	stats        spc.StatsResult
	staged       *spc.StagedStatsResult
	boundaries   []spc.StageBoundary
	at           time.Time
}

// compute runs every engine for one path. Factor variations are measured on
// the filtered rows, excluding factors already on the path.
func compute(ds *drill.Dataset, settings Settings, path drill.OrderedFilters) *computed {
	start := time.Now()
	defer func() { metrics.ObserveAnalysis(time.Since(start)) }()

	filtered := filterstack.ApplyFilters(ds.Rows, path.Map())

	exclude := make([]string, 0, len(path)+1)
	for _, f := range path {
		exclude = append(exclude, f.Factor)
	}
	if settings.StageColumn != "" {
		exclude = append(exclude, settings.StageColumn)
	}
	variations := variation.CalculateFactorVariations(filtered, candidates(ds, settings), settings.Outcome, exclude)

	out := &computed{
		rowsFiltered: len(filtered),
		variations:   variations,
		ranking:      variation.RankFactors(variations),
		drill:        variation.CalculateDrillVariation(ds.Rows, path, settings.Outcome, settings.Thresholds),
		stats:        staged.CalculateStats(staged.OutcomeValues(filtered, settings.Outcome), settings.Specs, settings.Grades),
		at:           time.Now(),
	}

	if settings.StageColumn != "" && ds.HasColumn(settings.StageColumn) {
		result := staged.CalculateStatsByStage(filtered, settings.Outcome, settings.StageColumn,
			settings.Specs, settings.StageOrder, settings.Grades)
		indexed := staged.SortDataByStage(filtered, settings.StageColumn, result.StageOrder)
		out.staged = &result
		out.boundaries = staged.GetStageBoundaries(indexed, result)
	}
	return out
}

func candidates(ds *drill.Dataset, settings Settings) []string {
	if len(settings.Factors) > 0 {
		return settings.Factors
	}
	out := make([]string, 0, len(ds.Columns))
	for _, c := range ds.Columns {
		if c != settings.Outcome && c != settings.StageColumn {
			out = append(out, c)
		}
	}
	return out
}

// memoExtra folds the settings that change results into the memo key.
func memoExtra(settings Settings) []string {
	parts := []string{
		settings.StageColumn,
		string(settings.StageOrder),
		variation.JoinKeyParts(settings.Factors),
		optional(settings.Specs.USL),
		optional(settings.Specs.LSL),
		optional(settings.Specs.Target),
		strconv.FormatFloat(settings.Thresholds.HighPct, 'g', -1, 64),
		strconv.FormatFloat(settings.Thresholds.ModeratePct, 'g', -1, 64),
	}
	for _, g := range settings.Grades {
		parts = append(parts, strconv.FormatFloat(g.Max, 'g', -1, 64)+"="+g.Label)
	}
	return parts
}

func optional(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}
