package filterstack

import (
	"vardrill/domain/core"
	"vardrill/domain/drill"
)

// DefaultRootLabel is the label of the synthetic root breadcrumb.
const DefaultRootLabel = "All Data"

// Clear returns the empty stack ("All Data").
func Clear() drill.FilterStack {
	return drill.FilterStack{}
}

// Push appends action to a copy of stack.
func Push(stack drill.FilterStack, action drill.FilterAction) drill.FilterStack {
	out := make(drill.FilterStack, 0, len(stack)+1)
	out = append(out, stack.Clone()...)
	return append(out, action.Clone())
}

// Pop removes the last entry. Popping the empty stack yields the empty stack.
func Pop(stack drill.FilterStack) drill.FilterStack {
	if len(stack) == 0 {
		return Clear()
	}
	return stack[:len(stack)-1].Clone()
}

// PopTo truncates the stack so it ends at (and includes) the action with id.
// The root id yields the empty stack; an unknown id leaves the stack as is.
func PopTo(stack drill.FilterStack, id core.ActionID) drill.FilterStack {
	if id.IsRoot() {
		return Clear()
	}
	idx := stack.IndexOf(id)
	if idx < 0 {
		return stack.Clone()
	}
	return stack[:idx+1].Clone()
}

// ShouldToggle reports whether applying params would switch an existing
// filter off: a filter on the same factor with exactly the same value set.
func ShouldToggle(stack drill.FilterStack, params drill.FilterParams) bool {
	if params.Kind == drill.ActionHighlight || params.Factor == "" || len(params.Values) == 0 {
		return false
	}
	idx := stack.FilterFor(params.Factor)
	if idx < 0 {
		return false
	}
	return drill.SameValueSet(stack[idx].Values, params.Values)
}

// RemoveFactor removes the factor's filter wherever it sits in the stack.
func RemoveFactor(stack drill.FilterStack, factor string) drill.FilterStack {
	out := make(drill.FilterStack, 0, len(stack))
	for _, a := range stack {
		if a.IsFilter() && a.Factor == factor {
			continue
		}
		out = append(out, a.Clone())
	}
	return out
}

// Toggle is the drill transition a click performs: remove the factor's
// filter when params match it exactly, otherwise update or push. removed
// reports which branch ran.
func Toggle(stack drill.FilterStack, params drill.FilterParams, aliases Aliases) (next drill.FilterStack, removed bool, err error) {
	if params.Kind == drill.ActionHighlight {
		action, err := CreateFilterAction(params, aliases)
		if err != nil {
			return stack.Clone(), false, err
		}
		return Push(stack, action), false, nil
	}
	if ShouldToggle(stack, params) {
		return RemoveFactor(stack, params.Factor), true, nil
	}
	if stack.FilterFor(params.Factor) >= 0 {
		next, err := UpdateFilterValues(stack, params.Factor, params.Values, aliases)
		return next, false, err
	}
	action, err := CreateFilterAction(params, aliases)
	if err != nil {
		return stack.Clone(), false, err
	}
	return Push(stack, action), false, nil
}

// UpdateFilterValues sets the selection for factor. Empty values remove the
// filter; an existing filter is relabelled in place so breadcrumb order is
// kept; otherwise a new filter is appended.
func UpdateFilterValues(stack drill.FilterStack, factor string, values []drill.Value, aliases Aliases) (drill.FilterStack, error) {
	values = dedupe(values)
	if len(values) == 0 {
		return RemoveFactor(stack, factor), nil
	}

	idx := stack.FilterFor(factor)
	if idx < 0 {
		action, err := CreateFilterAction(drill.FilterParams{
			Kind:   drill.ActionFilter,
			Source: drill.SourceFilterChip,
			Factor: factor,
			Values: values,
		}, aliases)
		if err != nil {
			return stack.Clone(), err
		}
		return Push(stack, action), nil
	}

	out := stack.Clone()
	out[idx].Values = append([]drill.Value(nil), values...)
	out[idx].Label = FormatLabel(factor, values, aliases)
	return out, nil
}

// ToFilters folds the stack into a FilterMap. Highlights are ignored and a
// later entry for a factor overwrites an earlier one.
func ToFilters(stack drill.FilterStack) drill.FilterMap {
	return ToOrderedFilters(stack).Map()
}

// ToOrderedFilters lists filter entries in application order, one per factor,
// each factor at the position of its first appearance.
func ToOrderedFilters(stack drill.FilterStack) drill.OrderedFilters {
	out := drill.OrderedFilters{}
	pos := make(map[string]int)
	for _, a := range stack {
		if !a.IsFilter() || a.Factor == "" || len(a.Values) == 0 {
			continue
		}
		vals := append([]drill.Value(nil), a.Values...)
		if i, ok := pos[a.Factor]; ok {
			out[i].Values = vals
			continue
		}
		pos[a.Factor] = len(out)
		out = append(out, drill.FactorFilter{Factor: a.Factor, Values: vals})
	}
	return out
}

// ToBreadcrumbs renders the root crumb followed by one crumb per entry.
// Only the last crumb is active.
func ToBreadcrumbs(stack drill.FilterStack, rootLabel string) []drill.BreadcrumbItem {
	if rootLabel == "" {
		rootLabel = DefaultRootLabel
	}
	hundred := 100.0
	crumbs := make([]drill.BreadcrumbItem, 0, len(stack)+1)
	crumbs = append(crumbs, drill.BreadcrumbItem{
		ID:                     core.RootActionID,
		Label:                  rootLabel,
		IsActive:               len(stack) == 0,
		LocalVariationPct:      &hundred,
		CumulativeVariationPct: &hundred,
	})
	for i, a := range stack {
		crumbs = append(crumbs, drill.BreadcrumbItem{
			ID:       a.ID,
			Label:    a.Label,
			IsActive: i == len(stack)-1,
			Source:   a.Source,
		})
	}
	return crumbs
}
