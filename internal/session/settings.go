package session

import (
	"vardrill/domain/spc"
	"vardrill/internal/config"
	"vardrill/internal/filterstack"
	"vardrill/internal/variation"
)

// SettingsFromConfig builds the default settings from environment config.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Outcome:     cfg.Data.OutcomeColumn,
		Factors:     cfg.Data.FactorColumns,
		StageColumn: cfg.Data.StageColumn,
		StageOrder:  spc.ParseStageOrderMode(cfg.Data.StageOrderMode),
		Thresholds: variation.Thresholds{
			HighPct:     cfg.Analysis.ImpactHighPct,
			ModeratePct: cfg.Analysis.ImpactModeratePct,
		},
		RootLabel: cfg.Analysis.RootLabel,
	}
}

// WithProfile overlays a profile. Fields the profile leaves empty keep
// their current value.
func (s Settings) WithProfile(p *config.Profile) Settings {
	if p == nil {
		return s
	}
	s.Outcome = p.Outcome
	if len(p.Factors) > 0 {
		s.Factors = p.Factors
	}
	if p.StageColumn != "" {
		s.StageColumn = p.StageColumn
	}
	s.StageOrder = p.StageOrderMode()
	if p.Specs.USL != nil || p.Specs.LSL != nil || p.Specs.Target != nil {
		s.Specs = p.SpecLimits()
	}
	if len(p.Grades) > 0 {
		s.Grades = p.GradeBands()
	}
	if len(p.Aliases) > 0 {
		s.Aliases = filterstack.Aliases(p.Aliases)
	}
	if p.RootLabel != "" {
		s.RootLabel = p.RootLabel
	}
	return s
}
