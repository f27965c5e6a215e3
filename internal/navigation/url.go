package navigation

import (
	"net/url"
	"strings"

	"vardrill/domain/drill"
)

// DefaultEmbedParam is the query parameter that switches embed mode on.
const DefaultEmbedParam = "embed"

// EncodeQuery renders one parameter per factor with comma-joined values, in
// application order.
func EncodeQuery(filters drill.OrderedFilters) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if f.Factor == "" || len(f.Values) == 0 {
			continue
		}
		parts = append(parts, url.QueryEscape(f.Factor)+"="+url.QueryEscape(strings.Join(drill.Keys(f.Values), ",")))
	}
	return strings.Join(parts, "&")
}

// ParseQuery reads filters from a raw query string in parameter order.
// Parameters outside known (when known is non-empty) and reserved names are
// ignored, as are undecodable pairs and empty value lists. It never fails.
func ParseQuery(rawQuery string, known []string, reserved ...string) drill.OrderedFilters {
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	allowed := toSet(known)
	skip := toSet(reserved)

	out := drill.OrderedFilters{}
	pos := map[string]int{}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil || strings.TrimSpace(key) == "" {
			continue
		}
		if _, reservedKey := skip[key]; reservedKey {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[key]; !ok {
				continue
			}
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			continue
		}
		values := splitValues(value)
		if len(values) == 0 {
			continue
		}
		if i, seen := pos[key]; seen {
			out[i].Values = values
			continue
		}
		pos[key] = len(out)
		out = append(out, drill.FactorFilter{Factor: key, Values: values})
	}
	return out
}

// splitValues types each part the way dataset cells are typed, so "3.0"
// selects the numeric cell 3. NA-style tokens stay literal text.
func splitValues(s string) []drill.Value {
	var out []drill.Value
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v := drill.ParseCell(part)
		if v.IsNull() {
			v = drill.StringValue(part)
		}
		out = append(out, v)
	}
	return out
}

// BuildURL rewrites location's query: parameters named in drop are removed,
// other parameters are kept, and filters are appended.
func BuildURL(location string, filters drill.OrderedFilters, drop map[string]struct{}) string {
	u, err := url.Parse(location)
	if err != nil {
		u = &url.URL{}
	}

	var kept []string
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, _, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			continue
		}
		if _, ok := drop[key]; ok {
			continue
		}
		if filterHas(filters, key) {
			continue
		}
		kept = append(kept, pair)
	}
	if q := EncodeQuery(filters); q != "" {
		kept = append(kept, q)
	}
	u.RawQuery = strings.Join(kept, "&")
	u.Fragment = ""
	return u.String()
}

// IsEmbedMode reports whether location carries a truthy embed parameter.
func IsEmbedMode(location, param string) bool {
	if param == "" {
		param = DefaultEmbedParam
	}
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	q := u.Query()
	if !q.Has(param) {
		return false
	}
	switch strings.ToLower(q.Get(param)) {
	case "", "1", "true", "yes":
		return true
	}
	return false
}

func filterHas(filters drill.OrderedFilters, factor string) bool {
	for _, f := range filters {
		if f.Factor == factor {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, s := range items {
		out[s] = struct{}{}
	}
	return out
}
