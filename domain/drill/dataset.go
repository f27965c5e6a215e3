package drill

import (
	"math"
	"strconv"
	"strings"

	"vardrill/domain/core"
)

// Dataset is an immutable snapshot of rows with a content version. The
// version changes whenever any cell or column changes, so it can key caches.
type Dataset struct {
	Source  string    `json:"source"`
	Columns []string  `json:"columns"`
	Rows    []Row     `json:"-"`
	Version core.Hash `json:"version"`
}

// NewDataset fingerprints columns and rows into a Dataset.
func NewDataset(source string, columns []string, rows []Row) *Dataset {
	parts := make([]string, 0, len(rows)*len(columns)+len(columns))
	parts = append(parts, columns...)
	for _, row := range rows {
		for _, col := range columns {
			v := row.Get(col)
			parts = append(parts, v.Kind().String()+":"+v.Key())
		}
	}
	return &Dataset{
		Source:  source,
		Columns: append([]string(nil), columns...),
		Rows:    rows,
		Version: core.ComputeKeyHash(parts...),
	}
}

// HasColumn reports whether column is part of the header.
func (d *Dataset) HasColumn(column string) bool {
	for _, c := range d.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

var nullTokens = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {}, "-": {},
}

// ParseCell types a raw cell: blanks and NA-style tokens are null, finite
// numbers are numeric, everything else is text.
func ParseCell(raw string) Value {
	s := strings.TrimSpace(raw)
	if _, ok := nullTokens[strings.ToLower(s)]; ok {
		return NullValue()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return NumberValue(f)
	}
	return StringValue(s)
}
