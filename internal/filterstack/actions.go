// Package filterstack implements the drill path as an immutable stack of
// filter and highlight actions. Every operation returns a new stack.
package filterstack

import (
	"fmt"
	"strings"

	"vardrill/domain/core"
	"vardrill/domain/drill"
)

// maxLabelValues is how many values a label spells out before "+N".
const maxLabelValues = 2

// Aliases maps column names to display names. It only ever changes labels.
type Aliases map[string]string

// Display returns the alias for column, or column itself.
func (a Aliases) Display(column string) string {
	if alias, ok := a[column]; ok && strings.TrimSpace(alias) != "" {
		return alias
	}
	return column
}

// CreateFilterAction builds an action with a fresh id and a readable label.
func CreateFilterAction(params drill.FilterParams, aliases Aliases) (drill.FilterAction, error) {
	kind := params.Kind
	if kind == "" {
		kind = drill.ActionFilter
	}

	action := drill.FilterAction{
		ID:     core.NewActionID(),
		Kind:   kind,
		Source: params.Source,
		Factor: params.Factor,
		Values: dedupe(params.Values),
		Label:  params.Label,
	}
	if params.RowIndex != nil {
		idx := *params.RowIndex
		action.RowIndex = &idx
	}

	if action.Label == "" {
		switch kind {
		case drill.ActionFilter:
			action.Label = FormatLabel(params.Factor, action.Values, aliases)
		case drill.ActionHighlight:
			action.Label = highlightLabel(params, aliases)
		}
	}

	if err := action.Validate(); err != nil {
		return drill.FilterAction{}, err
	}
	return action, nil
}

// FormatLabel renders "<factor>: v1, v2 +N".
func FormatLabel(factor string, values []drill.Value, aliases Aliases) string {
	name := aliases.Display(factor)
	if len(values) == 0 {
		return name
	}

	shown := values
	if len(shown) > maxLabelValues {
		shown = shown[:maxLabelValues]
	}
	label := fmt.Sprintf("%s: %s", name, strings.Join(drill.Keys(shown), ", "))
	if extra := len(values) - len(shown); extra > 0 {
		label = fmt.Sprintf("%s +%d", label, extra)
	}
	return label
}

func highlightLabel(params drill.FilterParams, aliases Aliases) string {
	switch {
	case params.RowIndex != nil:
		return fmt.Sprintf("Point #%d", *params.RowIndex+1)
	case params.Factor != "" && len(params.Values) > 0:
		return FormatLabel(params.Factor, params.Values, aliases)
	case params.Factor != "":
		return aliases.Display(params.Factor)
	default:
		return "Highlight"
	}
}

// dedupe drops repeated keys while keeping first-seen order.
func dedupe(values []drill.Value) []drill.Value {
	seen := make(map[string]struct{}, len(values))
	out := make([]drill.Value, 0, len(values))
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		if _, ok := seen[v.Key()]; ok {
			continue
		}
		seen[v.Key()] = struct{}{}
		out = append(out, v)
	}
	return out
}
