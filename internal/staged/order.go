// Package staged partitions a sequence by a categorical stage column and
// computes independent control statistics per stage.
package staged

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"vardrill/domain/drill"
	"vardrill/domain/spc"
)

// OrderRule decides whether stage labels carry a sortable number. Pattern
// must have three groups: prefix, number, suffix.
type OrderRule struct {
	Pattern *regexp.Regexp
}

// DefaultOrderRule accepts plain numbers and numbers wrapped in a word
// prefix or suffix, e.g. "3", "-1", "Phase 2", "Week 10 end", "Lot-7". A sign
// counts toward the number only when it starts the label or follows a space,
// so "Lot-7" keeps the dash in its prefix.
var DefaultOrderRule = OrderRule{
	Pattern: regexp.MustCompile(`^\s*(\D*?)\s*(\d+(?:\.\d+)?)\s*(\D*?)\s*$`),
}

type parsedLabel struct {
	prefix string
	number float64
	suffix string
}

func (r OrderRule) parse(label string) (parsedLabel, bool) {
	if r.Pattern == nil {
		return parsedLabel{}, false
	}
	m := r.Pattern.FindStringSubmatch(label)
	if len(m) != 4 {
		return parsedLabel{}, false
	}
	prefix, sign := splitSign(strings.TrimSpace(m[1]))
	n, err := strconv.ParseFloat(sign+m[2], 64)
	if err != nil {
		return parsedLabel{}, false
	}
	return parsedLabel{
		prefix: strings.ToLower(prefix),
		number: n,
		suffix: strings.ToLower(strings.TrimSpace(m[3])),
	}, true
}

// splitSign detaches a trailing sign that stands alone in prefix.
func splitSign(prefix string) (rest, sign string) {
	if prefix == "" {
		return prefix, ""
	}
	last := prefix[len(prefix)-1]
	if last != '-' && last != '+' {
		return prefix, ""
	}
	rest = prefix[:len(prefix)-1]
	if rest != "" && rest[len(rest)-1] != ' ' && rest[len(rest)-1] != '\t' {
		return prefix, ""
	}
	return strings.TrimSpace(rest), string(last)
}

// DetermineStageOrder orders the distinct stage labels with DefaultOrderRule.
func DetermineStageOrder(values []string, mode spc.StageOrderMode) []string {
	return DetermineStageOrderWith(values, mode, DefaultOrderRule)
}

// DetermineStageOrderWith orders the distinct labels of values. data-order
// keeps first appearance; auto sorts numerically when every label parses with
// the same prefix and suffix and no two labels share a number, and otherwise
// falls back to first appearance.
func DetermineStageOrderWith(values []string, mode spc.StageOrderMode, rule OrderRule) []string {
	distinct := firstAppearance(values)
	if mode != spc.StageOrderAuto || len(distinct) < 2 {
		return distinct
	}

	parsed := make([]parsedLabel, len(distinct))
	numbers := make(map[float64]struct{}, len(distinct))
	for i, label := range distinct {
		p, ok := rule.parse(label)
		if !ok {
			return distinct
		}
		if i > 0 && (p.prefix != parsed[0].prefix || p.suffix != parsed[0].suffix) {
			return distinct
		}
		if _, dup := numbers[p.number]; dup {
			return distinct
		}
		numbers[p.number] = struct{}{}
		parsed[i] = p
	}

	idx := make([]int, len(distinct))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return parsed[idx[a]].number < parsed[idx[b]].number
	})
	out := make([]string, len(distinct))
	for i, j := range idx {
		out[i] = distinct[j]
	}
	return out
}

func firstAppearance(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// StageValues extracts the stage labels of rows in order, skipping nulls.
func StageValues(rows []drill.Row, stageColumn string) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		cell := row.Get(stageColumn)
		if cell.IsNull() {
			continue
		}
		out = append(out, cell.Key())
	}
	return out
}
