package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vardrill/internal/testkit"
)

func writeDataset(t *testing.T) string {
	t.Helper()
	config := testkit.DefaultProcessConfig()
	config.Rows = 300
	path := filepath.Join(t.TempDir(), "weights.csv")
	require.NoError(t, testkit.WriteCSV(path, testkit.NewProcessDataGenerator(config).Generate()))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFactorsCmd(t *testing.T) {
	file := writeDataset(t)
	out, err := run(t, "factors", file, "-o", testkit.ColumnWeight, "-f", "Machine,Shift,Operator")
	require.NoError(t, err)
	assert.Contains(t, out, "Factors explaining Weight")
	assert.Contains(t, out, "Machine")
	assert.Contains(t, out, "300 of 300 rows")
}

func TestFactorsCmd_RequiresOutcome(t *testing.T) {
	file := writeDataset(t)
	_, err := run(t, "factors", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outcome")

	_, err = run(t, "factors", file, "-o", "Nope")
	require.Error(t, err)
}

func TestDrillCmd(t *testing.T) {
	file := writeDataset(t)
	out, err := run(t, "drill", file, "-o", testkit.ColumnWeight, "-f", "Machine,Shift,Operator", "-p", "Machine=C&Shift=Night")
	require.NoError(t, err)
	assert.Contains(t, out, "Machine: C")
	assert.Contains(t, out, "Machine = C")
	assert.Contains(t, out, "Impact:")

	_, err = run(t, "drill", file, "-o", testkit.ColumnWeight)
	assert.Error(t, err, "drill without --path")
}

func TestStagesCmd(t *testing.T) {
	file := writeDataset(t)
	out, err := run(t, "stages", file, "-o", testkit.ColumnWeight, "--stage", testkit.ColumnPhase)
	require.NoError(t, err)
	assert.Contains(t, out, "Phase 1")
	assert.Contains(t, out, "Phase 10")

	_, err = run(t, "stages", file, "-o", testkit.ColumnWeight)
	assert.Error(t, err)
}

func TestReportCmd_WithProfile(t *testing.T) {
	file := writeDataset(t)
	dir := t.TempDir()
	profile := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(profile, []byte(`
name: fill-weight
outcome: Weight
factors: [Machine, Shift, Operator]
stage_column: Phase
specs: {usl: 12.5, lsl: 11.5}
aliases: {Machine: Filler}
`), 0o644))
	out := filepath.Join(dir, "report.html")

	_, err := run(t, "report", file, "--profile", profile, "-p", "Machine=C", "--format", "html", "--out", out)
	require.NoError(t, err)
	body, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Filler: C")

	_, err = run(t, "report", file, "--profile", profile, "--format", "pdf")
	assert.Error(t, err)
}

func TestGenerateCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	out, err := run(t, "generate", path, "--rows", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 50 rows")
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSessionsCmd_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "sessions.db")
	_, err := run(t, "migrate", "--driver", "sqlite3", "--dsn", dsn)
	require.NoError(t, err)

	out, err := run(t, "sessions", "--driver", "sqlite3", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "Session")
}
