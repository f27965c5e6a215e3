package drill

import (
	"sort"

	"vardrill/domain/core"
)

// ============================================================================
// ROWS
// ============================================================================

// Row maps column names to cells. Rows need not share a key set.
type Row map[string]Value

// Get returns the cell for column, or null when the column is missing.
func (r Row) Get(column string) Value {
	if r == nil {
		return NullValue()
	}
	return r[column]
}

// ============================================================================
// DRILL ACTIONS
// ============================================================================

// ActionKind discriminates drill actions. A highlight never filters rows; it
// only marks a UI focus point.
type ActionKind string

const (
	ActionFilter    ActionKind = "filter"
	ActionHighlight ActionKind = "highlight"
)

// Valid reports whether k is a known kind.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionFilter, ActionHighlight:
		return true
	}
	return false
}

// Source records which UI surface produced an action.
type Source string

const (
	SourceBoxplot    Source = "boxplot"
	SourcePareto     Source = "pareto"
	SourceHistogram  Source = "histogram"
	SourceIChart     Source = "ichart"
	SourceBreadcrumb Source = "breadcrumb"
	SourceFilterChip Source = "filter_chip"
	SourceURL        Source = "url"
	SourceHistory    Source = "history"
	SourceManual     Source = "manual"
)

// FilterAction is one entry of the drill path.
type FilterAction struct {
	ID       core.ActionID `json:"id"`
	Kind     ActionKind    `json:"type"`
	Source   Source        `json:"source"`
	Factor   string        `json:"factor,omitempty"`
	Values   []Value       `json:"values"`
	Label    string        `json:"label"`
	RowIndex *int          `json:"row_index,omitempty"`
}

// IsFilter reports whether the action narrows the data.
func (a FilterAction) IsFilter() bool { return a.Kind == ActionFilter }

// Validate checks the per-kind invariants.
func (a FilterAction) Validate() error {
	if a.ID == "" {
		return core.NewInvalidActionError("missing id")
	}
	switch a.Kind {
	case ActionFilter:
		if a.Factor == "" {
			return core.NewInvalidActionError("filter action requires a factor")
		}
		if len(a.Values) == 0 {
			return core.NewInvalidActionError("filter action requires at least one value")
		}
	case ActionHighlight:
	default:
		return core.NewInvalidActionError("unknown action type " + string(a.Kind))
	}
	return nil
}

// Clone returns a deep copy so callers can never alias a stack entry.
func (a FilterAction) Clone() FilterAction {
	out := a
	out.Values = append([]Value(nil), a.Values...)
	if a.RowIndex != nil {
		idx := *a.RowIndex
		out.RowIndex = &idx
	}
	return out
}

// FilterParams describe an action before it has an id.
type FilterParams struct {
	Kind     ActionKind `json:"type"`
	Source   Source     `json:"source"`
	Factor   string     `json:"factor,omitempty"`
	Values   []Value    `json:"values"`
	Label    string     `json:"label,omitempty"`
	RowIndex *int       `json:"row_index,omitempty"`
}

// FilterStack is the ordered drill path, oldest first. Operations never
// mutate a stack in place.
type FilterStack []FilterAction

// Clone deep-copies the stack.
func (s FilterStack) Clone() FilterStack {
	if s == nil {
		return FilterStack{}
	}
	out := make(FilterStack, len(s))
	for i, a := range s {
		out[i] = a.Clone()
	}
	return out
}

// Depth returns the number of entries.
func (s FilterStack) Depth() int { return len(s) }

// IndexOf returns the position of the action with id, or -1.
func (s FilterStack) IndexOf(id core.ActionID) int {
	for i, a := range s {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// FilterFor returns the position of the filter action on factor, or -1.
func (s FilterStack) FilterFor(factor string) int {
	for i, a := range s {
		if a.IsFilter() && a.Factor == factor {
			return i
		}
	}
	return -1
}

// ============================================================================
// FILTER MAPS
// ============================================================================

// FilterMap is the folded form of a stack: factor -> selected values.
type FilterMap map[string][]Value

// Factors returns the factor names in sorted order.
func (m FilterMap) Factors() []string {
	out := make([]string, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Ordered returns the map as an OrderedFilters in sorted factor order.
func (m FilterMap) Ordered() OrderedFilters {
	out := make(OrderedFilters, 0, len(m))
	for _, f := range m.Factors() {
		out = append(out, FactorFilter{Factor: f, Values: append([]Value(nil), m[f]...)})
	}
	return out
}

// Equal compares two maps by factor and value set.
func (m FilterMap) Equal(o FilterMap) bool {
	if len(m) != len(o) {
		return false
	}
	for f, vs := range m {
		other, ok := o[f]
		if !ok || !SameValueSet(vs, other) {
			return false
		}
	}
	return true
}

// FactorFilter is one factor's selection.
type FactorFilter struct {
	Factor string  `json:"factor"`
	Values []Value `json:"values"`
}

// OrderedFilters is a FilterMap that remembers application order.
type OrderedFilters []FactorFilter

// Map folds the ordered filters, later entries winning.
func (o OrderedFilters) Map() FilterMap {
	out := make(FilterMap, len(o))
	for _, f := range o {
		out[f.Factor] = append([]Value(nil), f.Values...)
	}
	return out
}

// ============================================================================
// VIEW MODELS
// ============================================================================

// BreadcrumbItem is one entry of the trail shown above the charts.
type BreadcrumbItem struct {
	ID                     core.ActionID `json:"id"`
	Label                  string        `json:"label"`
	IsActive               bool          `json:"is_active"`
	Source                 Source        `json:"source,omitempty"`
	LocalVariationPct      *float64      `json:"local_variation_pct,omitempty"`
	CumulativeVariationPct *float64      `json:"cumulative_variation_pct,omitempty"`
}

// DrillLevelResult is the variation attributed to one drill step.
type DrillLevelResult struct {
	Factor                 string  `json:"factor"`
	Values                 []Value `json:"values"`
	LocalVariationPct      float64 `json:"local_variation_pct"`
	CumulativeVariationPct float64 `json:"cumulative_variation_pct"`
	RowsBefore             int     `json:"rows_before"`
	RowsAfter              int     `json:"rows_after"`
}
