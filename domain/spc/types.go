package spc

// SpecLimits are the customer specification limits for the outcome. Nil
// pointers mean "not set".
type SpecLimits struct {
	USL    *float64 `json:"usl,omitempty" yaml:"usl,omitempty"`
	LSL    *float64 `json:"lsl,omitempty" yaml:"lsl,omitempty"`
	Target *float64 `json:"target,omitempty" yaml:"target,omitempty"`
}

// HasAny reports whether at least one limit is set.
func (s SpecLimits) HasAny() bool { return s.USL != nil || s.LSL != nil }

// HasBoth reports whether both limits are set.
func (s SpecLimits) HasBoth() bool { return s.USL != nil && s.LSL != nil }

// Grade is an upper-bounded band used to classify outcome values, e.g.
// "Premium" for values up to 82. Grades are evaluated in ascending Max order.
type Grade struct {
	Max   float64 `json:"max" yaml:"max"`
	Label string  `json:"label" yaml:"label"`
	Color string  `json:"color,omitempty" yaml:"color,omitempty"`
}

// StatsResult summarises a numeric series for process control.
type StatsResult struct {
	Count               int            `json:"count"`
	Mean                float64        `json:"mean"`
	StdDev              float64        `json:"std_dev"`
	UCL                 float64        `json:"ucl"`
	LCL                 float64        `json:"lcl"`
	Cp                  *float64       `json:"cp,omitempty"`
	Cpk                 *float64       `json:"cpk,omitempty"`
	OutOfSpecPercentage *float64       `json:"out_of_spec_percentage,omitempty"`
	GradeCounts         map[string]int `json:"grade_counts,omitempty"`
}

// StageOrderMode selects how stage labels are ordered.
type StageOrderMode string

const (
	StageOrderAuto      StageOrderMode = "auto"
	StageOrderDataOrder StageOrderMode = "data-order"
)

// ParseStageOrderMode maps free text to a mode, defaulting to auto.
func ParseStageOrderMode(s string) StageOrderMode {
	if StageOrderMode(s) == StageOrderDataOrder {
		return StageOrderDataOrder
	}
	return StageOrderAuto
}

// StagedStatsResult holds overall and per-stage statistics.
type StagedStatsResult struct {
	StageOrder   []string               `json:"stage_order"`
	OverallStats StatsResult            `json:"overall_stats"`
	PerStage     map[string]StatsResult `json:"per_stage"`
}

// StageBoundary is a contiguous index range of one stage within a
// stage-sorted sequence.
type StageBoundary struct {
	Name   string      `json:"name"`
	StartX int         `json:"start_x"`
	EndX   int         `json:"end_x"`
	Stats  StatsResult `json:"stats"`
}
