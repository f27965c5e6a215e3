package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vardrill/domain/drill"
)

func TestEncodeQuery(t *testing.T) {
	got := EncodeQuery(drill.OrderedFilters{
		{Factor: "Machine", Values: drill.Values("A", "B")},
		{Factor: "Shift Crew", Values: drill.Values("Night")},
		{Factor: "Lot", Values: []drill.Value{drill.NumberValue(3)}},
		{Factor: "Empty"},
	})
	assert.Equal(t, "Machine=A%2CB&Shift+Crew=Night&Lot=3", got)
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		known []string
		want  map[string][]string
		order []string
	}{
		{
			name:  "comma separated values",
			query: "?Machine=A,B&Shift=Night",
			want:  map[string][]string{"Machine": {"A", "B"}, "Shift": {"Night"}},
			order: []string{"Machine", "Shift"},
		},
		{
			name:  "encoded values and reserved embed",
			query: "Machine=A%2CB&embed=1&Shift+Crew=Day",
			want:  map[string][]string{"Machine": {"A", "B"}, "Shift Crew": {"Day"}},
			order: []string{"Machine", "Shift Crew"},
		},
		{
			name:  "unknown parameters ignored",
			query: "Machine=A&tab=box",
			known: []string{"Machine"},
			want:  map[string][]string{"Machine": {"A"}},
			order: []string{"Machine"},
		},
		{
			name:  "malformed pairs and empty values",
			query: "Machine=%ZZ&Shift=&=x&Lot=,,7,",
			want:  map[string][]string{"Lot": {"7"}},
			order: []string{"Lot"},
		},
		{
			name:  "repeated key keeps first position, last values",
			query: "Machine=A&Shift=Day&Machine=B",
			want:  map[string][]string{"Machine": {"B"}, "Shift": {"Day"}},
			order: []string{"Machine", "Shift"},
		},
		{
			name:  "empty",
			query: "",
			want:  map[string][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQuery(tt.query, tt.known, DefaultEmbedParam)
			require.Len(t, got, len(tt.want))
			for i, f := range got {
				assert.Equal(t, tt.order[i], f.Factor)
				assert.Equal(t, tt.want[f.Factor], drill.Keys(f.Values))
			}
		})
	}
}

func TestParsedNumbersMatchNumericRows(t *testing.T) {
	parsed := ParseQuery("Lot=3", nil)
	require.Len(t, parsed, 1)
	assert.Equal(t, drill.NumberValue(3).Key(), parsed[0].Values[0].Key())

	parsed = ParseQuery("Lot=3.0,1e1,007&Shift=NA", nil)
	require.Len(t, parsed, 2)
	assert.Equal(t, []string{"3", "10", "7"}, drill.Keys(parsed[0].Values))
	assert.Equal(t, []string{"NA"}, drill.Keys(parsed[1].Values))

	rows := []drill.Row{
		{"Lot": drill.NumberValue(3)},
		{"Lot": drill.NumberValue(4)},
	}
	filters := ParseQuery("Lot=3.0", nil)
	require.Len(t, filters, 1)
	assert.True(t, drill.ContainsKey(filters[0].Values, rows[0]["Lot"].Key()))
	assert.False(t, drill.ContainsKey(filters[0].Values, rows[1]["Lot"].Key()))
}

func TestBuildURL(t *testing.T) {
	filters := drill.OrderedFilters{{Factor: "Machine", Values: drill.Values("A")}}

	assert.Equal(t, "http://localhost/app?tab=box&Machine=A",
		BuildURL("http://localhost/app?tab=box&Shift=Day#top", filters, map[string]struct{}{"Shift": {}}))
	assert.Equal(t, "http://localhost/app?Machine=A",
		BuildURL("http://localhost/app?Machine=B", filters, nil))
	assert.Equal(t, "/app",
		BuildURL("/app?Machine=B", nil, map[string]struct{}{"Machine": {}}))
}

func TestIsEmbedMode(t *testing.T) {
	tests := []struct {
		location string
		want     bool
	}{
		{"http://localhost/app?embed", true},
		{"http://localhost/app?embed=1", true},
		{"http://localhost/app?embed=true", true},
		{"http://localhost/app?embed=YES", true},
		{"http://localhost/app?embed=0", false},
		{"http://localhost/app?embed=false", false},
		{"http://localhost/app", false},
		{"::not a url", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsEmbedMode(tt.location, ""), tt.location)
	}
	assert.True(t, IsEmbedMode("/app?frame=1", "frame"))
}

func TestDecodeHistoryState(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want drill.FilterMap
	}{
		{
			name: "well formed",
			raw:  `{"drillFilters":{"Machine":["A","B"],"Lot":[3]}}`,
			want: drill.FilterMap{"Machine": drill.Values("A", "B"), "Lot": {drill.NumberValue(3)}},
		},
		{name: "malformed json", raw: `{"drillFilters":`, want: drill.FilterMap{}},
		{name: "null state", raw: `null`, want: drill.FilterMap{}},
		{name: "missing filters", raw: `{"other":1}`, want: drill.FilterMap{}},
		{
			name: "non array and empty entries",
			raw:  `{"drillFilters":{"Machine":"A","Shift":[],"Lot":[null,"",true]}}`,
			want: drill.FilterMap{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeHistoryState([]byte(tt.raw)).DrillFilters)
		})
	}
}

func TestEncodeHistoryStateNilMap(t *testing.T) {
	assert.JSONEq(t, `{"drillFilters":{}}`, string(EncodeHistoryState(HistoryState{})))
}
