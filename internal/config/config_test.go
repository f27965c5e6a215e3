package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vardrill/domain/spc"
	"vardrill/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "GIN_MODE", "DATABASE_URL", "DATA_FILE", "LOG_LEVEL", "IMPACT_HIGH_PCT", "IMPACT_MODERATE_PCT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, 50.0, cfg.Analysis.ImpactHighPct)
	assert.Equal(t, 25.0, cfg.Analysis.ImpactModeratePct)
	assert.Equal(t, "All Data", cfg.Analysis.RootLabel)
	assert.Equal(t, "auto", cfg.Data.StageOrderMode)
}

func TestLoad_DataSettings(t *testing.T) {
	t.Setenv("DATA_FILE", "line3.xlsx")
	t.Setenv("OUTCOME_COLUMN", "Weight")
	t.Setenv("FACTOR_COLUMNS", "Machine, Shift,,Operator")
	t.Setenv("DATA_WATCH", "true")
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", "file:drill.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Machine", "Shift", "Operator"}, cfg.Data.FactorColumns)
	assert.True(t, cfg.Data.Watch)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"thresholds inverted", map[string]string{"IMPACT_HIGH_PCT": "20", "IMPACT_MODERATE_PCT": "40"}},
		{"unknown driver", map[string]string{"DATABASE_DRIVER": "mysql"}},
		{"bad stage order", map[string]string{"STAGE_ORDER_MODE": "alphabetical"}},
		{"watch without file", map[string]string{"DATA_WATCH": "1", "DATA_FILE": ""}},
		{"file without outcome", map[string]string{"DATA_FILE": "x.xlsx", "OUTCOME_COLUMN": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile([]byte(`
name: fill-weight
outcome: Weight
factors: [Machine, Shift]
stage_column: Phase
specs: {usl: 12.5, lsl: 11.5}
grades:
  - {max: 11.9, label: Light}
  - {max: 12.5, label: OK, color: green}
aliases:
  Machine: Filler
`))
	require.NoError(t, err)
	assert.Equal(t, "Weight", p.Outcome)
	assert.Equal(t, spc.StageOrderAuto, p.StageOrderMode())
	assert.True(t, p.SpecLimits().HasBoth())
	assert.Len(t, p.GradeBands(), 2)
	assert.Equal(t, "Filler", p.Aliases["Machine"])
}

func TestParseProfile_Rejects(t *testing.T) {
	tests := map[string]string{
		"missing outcome": "name: x\n",
		"inverted specs":  "name: x\noutcome: y\nspecs: {usl: 1, lsl: 2}\n",
		"bad yaml":        "name: [\n",
		"bad stage order": "name: x\noutcome: y\nstage_order: random\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProfile([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadProfile_MissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "p.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: a\noutcome: b\n"), 0o600))
	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "a", p.Name)
}
