package staged

import (
	"vardrill/domain/drill"
)

// IndexedRow is a row tagged with its position in the unsorted input.
type IndexedRow struct {
	Index int       `json:"index"`
	Stage string    `json:"stage"`
	Row   drill.Row `json:"row"`
}

// SortDataByStage is a stable partition of rows by stage: for every stage in
// order, its rows in original relative order; rows with any other (or no)
// stage follow last, also in original order.
func SortDataByStage(rows []drill.Row, stageColumn string, order []string) []IndexedRow {
	buckets := make(map[string][]IndexedRow, len(order))
	for _, s := range order {
		buckets[s] = nil
	}
	var rest []IndexedRow

	for i, row := range rows {
		cell := row.Get(stageColumn)
		ir := IndexedRow{Index: i, Row: row}
		if !cell.IsNull() {
			ir.Stage = cell.Key()
			if _, known := buckets[ir.Stage]; known {
				buckets[ir.Stage] = append(buckets[ir.Stage], ir)
				continue
			}
		}
		rest = append(rest, ir)
	}

	out := make([]IndexedRow, 0, len(rows))
	for _, s := range order {
		out = append(out, buckets[s]...)
		delete(buckets, s)
	}
	return append(out, rest...)
}

// Rows strips the index tags.
func Rows(indexed []IndexedRow) []drill.Row {
	out := make([]drill.Row, len(indexed))
	for i, ir := range indexed {
		out[i] = ir.Row
	}
	return out
}
