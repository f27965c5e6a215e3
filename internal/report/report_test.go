package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vardrill/domain/core"
	"vardrill/domain/drill"
	"vardrill/domain/spc"
	"vardrill/internal/navigation"
	"vardrill/internal/session"
	"vardrill/internal/testkit"
	"vardrill/internal/variation"
)

func analysedSession(t *testing.T) *session.Session {
	t.Helper()
	config := testkit.DefaultProcessConfig()
	config.Rows = 120
	ds := testkit.NewProcessDataGenerator(config).Generate()
	usl, lsl := 12.5, 11.5
	s := session.New(core.NewSessionID(), ds, session.Settings{
		Outcome:     testkit.ColumnWeight,
		Factors:     []string{testkit.ColumnMachine, testkit.ColumnShift},
		StageColumn: testkit.ColumnPhase,
		Specs:       spc.SpecLimits{USL: &usl, LSL: &lsl},
		Grades:      []spc.Grade{{Max: 12.2, Label: "OK"}, {Max: 13, Label: "Heavy"}},
		Thresholds:  variation.DefaultThresholds(),
	}, nil, navigation.Options{}, nil)
	t.Cleanup(s.Close)
	return s
}

func TestMarkdown_Root(t *testing.T) {
	md := Markdown(analysedSession(t).Analyze(), Options{})

	assert.Contains(t, md, "# Variation report: Weight")
	assert.Contains(t, md, "No filters applied.")
	assert.Contains(t, md, "| Machine (suggested next) |")
	assert.Contains(t, md, "## By stage")
	assert.Contains(t, md, "| Phase 10 |")
	assert.Contains(t, md, "Grades: ")
}

func TestMarkdown_DrillPath(t *testing.T) {
	s := analysedSession(t)
	_, err := s.Navigator().Drill(drill.FilterParams{Factor: testkit.ColumnMachine, Values: drill.Values("C")})
	require.NoError(t, err)

	md := Markdown(s.Analyze(), Options{Title: "Line 3", TopN: 1, ShareURL: "http://localhost/?Machine=C"})
	assert.Contains(t, md, "# Line 3")
	assert.Contains(t, md, "All Data → Machine: C")
	assert.Contains(t, md, "| Machine = C |")
	assert.Contains(t, md, "**Impact: high.**")
	assert.Contains(t, md, "(http://localhost/?Machine=C)")
	assert.NotContains(t, md, "| Machine (suggested next) |")
}

func TestHTML(t *testing.T) {
	out := string(HTML(Markdown(analysedSession(t).Analyze(), Options{})))
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<table>")
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `a\|b\_c`, escape("a|b_c"))
}
