package navigation

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"vardrill/domain/drill"
)

// HistoryState is the state object carried by every history entry.
type HistoryState struct {
	DrillFilters drill.FilterMap `json:"drillFilters"`
}

// HistoryAdapter abstracts browser history and the current location so the
// navigator runs without a DOM.
type HistoryAdapter interface {
	// PushState adds a history entry.
	PushState(state HistoryState, url string)
	// ReplaceState rewrites the current entry.
	ReplaceState(state HistoryState, url string)
	// OnPopState registers the back/forward handler and returns a function
	// that removes it.
	OnPopState(handler func(HistoryState)) (unsubscribe func())
	// Location returns the current URL.
	Location() string
}

// EncodeHistoryState serialises a state for adapters that store raw JSON.
func EncodeHistoryState(state HistoryState) []byte {
	if state.DrillFilters == nil {
		state.DrillFilters = drill.FilterMap{}
	}
	b, err := json.Marshal(state)
	if err != nil {
		return []byte(`{"drillFilters":{}}`)
	}
	return b
}

// DecodeHistoryState reads a state defensively: malformed JSON, a missing
// drillFilters object, non-array entries and empty lists all normalise to
// "no filter" instead of failing.
func DecodeHistoryState(raw []byte) HistoryState {
	state := HistoryState{DrillFilters: drill.FilterMap{}}
	if !gjson.ValidBytes(raw) {
		return state
	}
	filters := gjson.GetBytes(raw, "drillFilters")
	if !filters.IsObject() {
		return state
	}
	filters.ForEach(func(key, value gjson.Result) bool {
		if key.String() == "" || !value.IsArray() {
			return true
		}
		var values []drill.Value
		for _, item := range value.Array() {
			switch item.Type {
			case gjson.String:
				if item.String() != "" {
					values = append(values, drill.StringValue(item.String()))
				}
			case gjson.Number:
				values = append(values, drill.NumberValue(item.Float()))
			}
		}
		if len(values) > 0 {
			state.DrillFilters[key.String()] = values
		}
		return true
	})
	return state
}
