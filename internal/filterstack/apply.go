package filterstack

import (
	"sort"

	"vardrill/domain/drill"
)

// ApplyFilters keeps the rows whose cell for every filtered factor matches
// one of the selected values. A factor absent from a row never matches.
func ApplyFilters(rows []drill.Row, filters drill.FilterMap) []drill.Row {
	if len(filters) == 0 {
		return rows
	}
	sets := make(map[string]map[string]struct{}, len(filters))
	for factor, values := range filters {
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			if !v.IsNull() {
				set[v.Key()] = struct{}{}
			}
		}
		sets[factor] = set
	}

	out := make([]drill.Row, 0, len(rows))
	for _, row := range rows {
		if matchesAll(row, sets) {
			out = append(out, row)
		}
	}
	return out
}

// ApplyFilter keeps the rows matching a single factor selection.
func ApplyFilter(rows []drill.Row, f drill.FactorFilter) []drill.Row {
	return ApplyFilters(rows, drill.FilterMap{f.Factor: f.Values})
}

func matchesAll(row drill.Row, sets map[string]map[string]struct{}) bool {
	for factor, set := range sets {
		cell := row.Get(factor)
		if cell.IsNull() {
			return false
		}
		if _, ok := set[cell.Key()]; !ok {
			return false
		}
	}
	return true
}

// PruneUnknownFactors drops filters whose factor is not among columns. It is
// applied when a different dataset is loaded under an existing drill path.
// Highlights are kept. dropped lists the removed factors.
func PruneUnknownFactors(stack drill.FilterStack, columns []string) (next drill.FilterStack, dropped []string) {
	known := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		known[c] = struct{}{}
	}
	next = make(drill.FilterStack, 0, len(stack))
	for _, a := range stack {
		if a.IsFilter() {
			if _, ok := known[a.Factor]; !ok {
				dropped = append(dropped, a.Factor)
				continue
			}
		}
		next = append(next, a.Clone())
	}
	return next, dropped
}

// Columns returns the sorted union of keys across rows.
func Columns(rows []drill.Row) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		for k := range r {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}
