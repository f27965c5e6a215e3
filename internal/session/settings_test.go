package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vardrill/domain/spc"
	"vardrill/internal/config"
)

func TestSettingsFromConfig(t *testing.T) {
	cfg := &config.Config{
		Data: config.DataConfig{
			OutcomeColumn:  "Weight",
			FactorColumns:  []string{"Machine"},
			StageColumn:    "Phase",
			StageOrderMode: "data-order",
		},
		Analysis: config.AnalysisConfig{ImpactHighPct: 60, ImpactModeratePct: 30, RootLabel: "Everything"},
	}

	s := SettingsFromConfig(cfg)
	assert.Equal(t, "Weight", s.Outcome)
	assert.Equal(t, []string{"Machine"}, s.Factors)
	assert.Equal(t, spc.StageOrderDataOrder, s.StageOrder)
	assert.Equal(t, 60.0, s.Thresholds.HighPct)
	assert.Equal(t, "Everything", s.RootLabel)
}

func TestSettings_WithProfile(t *testing.T) {
	p, err := config.ParseProfile([]byte(`
name: fill
outcome: Fill
stage_column: Batch
specs: {usl: 12.5, lsl: 11.5}
grades:
  - {max: 12, label: Light}
aliases: {Machine: Filler}
`))
	require.NoError(t, err)

	base := Settings{Outcome: "Weight", Factors: []string{"Machine"}, StageColumn: "Phase", RootLabel: "All"}
	s := base.WithProfile(p)

	assert.Equal(t, "Fill", s.Outcome)
	assert.Equal(t, []string{"Machine"}, s.Factors, "factors kept when the profile has none")
	assert.Equal(t, "Batch", s.StageColumn)
	assert.Equal(t, spc.StageOrderAuto, s.StageOrder)
	require.NotNil(t, s.Specs.USL)
	assert.Equal(t, 12.5, *s.Specs.USL)
	require.Len(t, s.Grades, 1)
	assert.Equal(t, "Filler", s.Aliases.Display("Machine"))
	assert.Equal(t, "All", s.RootLabel)

	assert.Equal(t, base, base.WithProfile(nil))
}
