package filterstack

import (
	"testing"

	"pgregory.net/rapid"

	"vardrill/domain/drill"
)

var (
	propFactors = []string{"Machine", "Shift", "Operator", "Supplier"}
	propValues  = []string{"A", "B", "C", "D"}
)

func drawParams(t *rapid.T, label string) drill.FilterParams {
	factor := rapid.SampledFrom(propFactors).Draw(t, label+"_factor")
	values := rapid.SliceOfNDistinct(rapid.SampledFrom(propValues), 1, 3, rapid.ID[string]).Draw(t, label+"_values")
	return drill.FilterParams{
		Kind:   drill.ActionFilter,
		Source: drill.SourceBoxplot,
		Factor: factor,
		Values: drill.Values(values...),
	}
}

// drawStack builds a stack the way a user would: a sequence of clicks.
func drawStack(t *rapid.T) drill.FilterStack {
	stack := Clear()
	steps := rapid.IntRange(0, 8).Draw(t, "steps")
	for i := 0; i < steps; i++ {
		next, _, err := Toggle(stack, drawParams(t, "click"), nil)
		if err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
		stack = next
	}
	return stack
}

func TestProperty_OneFilterPerFactor(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stack := drawStack(t)
		seen := map[string]bool{}
		for _, a := range stack {
			if !a.IsFilter() {
				continue
			}
			if seen[a.Factor] {
				t.Fatalf("factor %s appears twice in %v", a.Factor, stack)
			}
			seen[a.Factor] = true
		}
	})
}

func TestProperty_ToggleIsItsOwnInverse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stack := drawStack(t)
		if len(stack) == 0 {
			return
		}
		target := stack[rapid.IntRange(0, len(stack)-1).Draw(t, "target")]
		params := drill.FilterParams{Kind: drill.ActionFilter, Factor: target.Factor, Values: target.Values}

		if !ShouldToggle(stack, params) {
			t.Fatalf("expected toggle for existing filter %s", target.Label)
		}
		off, removed, err := Toggle(stack, params, nil)
		if err != nil || !removed {
			t.Fatalf("expected removal, removed=%v err=%v", removed, err)
		}
		if len(off) != len(stack)-1 {
			t.Fatalf("expected depth %d, got %d", len(stack)-1, len(off))
		}
		if !ToFilters(off).Equal(ToFilters(RemoveFactor(stack, target.Factor))) {
			t.Fatalf("toggle-off must equal removing the factor")
		}

		on, removed, err := Toggle(off, params, nil)
		if err != nil || removed {
			t.Fatalf("expected re-apply, removed=%v err=%v", removed, err)
		}
		if !ToFilters(on).Equal(ToFilters(stack)) {
			t.Fatalf("re-applying must restore the filter map")
		}
	})
}

func TestProperty_PrefixConsistency(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stack := drawStack(t)
		if len(stack) == 0 {
			return
		}
		id := stack[rapid.IntRange(0, len(stack)-1).Draw(t, "cut")].ID

		full := ToFilters(stack)
		prefix := ToFilters(PopTo(stack, id))
		for factor := range prefix {
			if _, ok := full[factor]; !ok {
				t.Fatalf("prefix factor %s missing from full map", factor)
			}
		}
	})
}

func TestProperty_OperationsNeverMutateInput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stack := drawStack(t)
		before := ToOrderedFilters(stack)
		depth := len(stack)

		_, _, _ = Toggle(stack, drawParams(t, "extra"), nil)
		_ = Pop(stack)
		_, _ = UpdateFilterValues(stack, propFactors[0], drill.Values("D"), nil)

		if len(stack) != depth {
			t.Fatalf("depth changed from %d to %d", depth, len(stack))
		}
		if !before.Map().Equal(ToFilters(stack)) {
			t.Fatalf("input stack was mutated")
		}
	})
}
