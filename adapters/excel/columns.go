package excel

import "vardrill/domain/drill"

// ColumnType is the inferred role of a column.
type ColumnType string

const (
	ColumnNumeric     ColumnType = "numeric"
	ColumnCategorical ColumnType = "categorical"
	ColumnText        ColumnType = "string"
	ColumnEmpty       ColumnType = "empty"
)

const (
	maxSampleSize       = 500
	maxCategoricalLevel = 20
)

// InferColumnTypes classifies each column from an evenly spread sample.
// Mostly numeric columns with only a handful of distinct levels behave like
// categories (lot numbers, stage indices).
func InferColumnTypes(ds *drill.Dataset) map[string]ColumnType {
	out := make(map[string]ColumnType, len(ds.Columns))
	sample := stratifiedSample(len(ds.Rows), maxSampleSize)

	for _, col := range ds.Columns {
		valid, numeric := 0, 0
		levels := map[string]struct{}{}
		for _, idx := range sample {
			v := ds.Rows[idx].Get(col)
			if v.IsNull() {
				continue
			}
			valid++
			if v.Kind() == drill.KindNumber {
				numeric++
			}
			levels[v.Key()] = struct{}{}
		}

		switch {
		case valid == 0:
			out[col] = ColumnEmpty
		case categorical(len(levels), valid, numeric):
			out[col] = ColumnCategorical
		case float64(numeric)/float64(valid) >= 0.9:
			out[col] = ColumnNumeric
		default:
			out[col] = ColumnText
		}
	}
	return out
}

// SuggestFactors lists the categorical columns other than the outcome, in
// header order.
func SuggestFactors(ds *drill.Dataset, outcome string) []string {
	types := InferColumnTypes(ds)
	var out []string
	for _, col := range ds.Columns {
		if col != outcome && types[col] == ColumnCategorical {
			out = append(out, col)
		}
	}
	return out
}

// categorical applies the level-count rule: text needs at least one repeat,
// numbers need fewer than one distinct level per ten values.
func categorical(levels, valid, numeric int) bool {
	if levels > maxCategoricalLevel {
		return false
	}
	if float64(numeric)/float64(valid) >= 0.9 {
		return float64(levels)/float64(valid) < 0.1
	}
	return levels < valid
}

// stratifiedSample returns evenly distributed row indices.
func stratifiedSample(total, size int) []int {
	if size >= total {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := make([]int, 0, size)
	step := float64(total) / float64(size)
	for i := 0; i < size; i++ {
		out = append(out, int(float64(i)*step))
	}
	return out
}
