package filterstack

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vardrill/domain/drill"
)

func sampleRows() []drill.Row {
	return []drill.Row{
		{"Machine": drill.StringValue("A"), "Shift": drill.NumberValue(1), "Y": drill.NumberValue(10)},
		{"Machine": drill.StringValue("B"), "Shift": drill.NumberValue(2), "Y": drill.NumberValue(12)},
		{"Machine": drill.StringValue("A"), "Shift": drill.NumberValue(2), "Y": drill.NumberValue(11)},
		{"Shift": drill.NumberValue(1), "Y": drill.NumberValue(9)},
	}
}

func TestApplyFilters(t *testing.T) {
	rows := sampleRows()

	assert.Len(t, ApplyFilters(rows, nil), 4)
	assert.Len(t, ApplyFilters(rows, drill.FilterMap{"Machine": drill.Values("A")}), 2)
	assert.Len(t, ApplyFilters(rows, drill.FilterMap{"Machine": drill.Values("A", "B")}), 3)

	// URL-parsed strings match numeric cells through the canonical key.
	both := ApplyFilters(rows, drill.FilterMap{
		"Machine": drill.Values("A"),
		"Shift":   drill.Values("2"),
	})
	assert.Len(t, both, 1)
}

func TestApplyFilters_UnknownColumnMatchesNothing(t *testing.T) {
	assert.Empty(t, ApplyFilters(sampleRows(), drill.FilterMap{"Line": drill.Values("1")}))
}

func TestPruneUnknownFactors(t *testing.T) {
	stack := drill.FilterStack{
		mustAction(t, filterParams("Machine", "A")),
		mustAction(t, filterParams("Line", "7")),
	}
	next, dropped := PruneUnknownFactors(stack, Columns(sampleRows()))
	assert.Len(t, next, 1)
	assert.Equal(t, []string{"Line"}, dropped)
}

func TestColumns(t *testing.T) {
	assert.Equal(t, []string{"Machine", "Shift", "Y"}, Columns(sampleRows()))
}
