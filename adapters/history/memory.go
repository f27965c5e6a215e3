// Package history provides HistoryAdapter implementations for running the
// navigator outside a browser.
package history

import (
	"sync"

	"vardrill/internal/navigation"
)

type entry struct {
	state []byte
	url   string
}

// MemoryHistory is a back/forward list kept in memory. States are stored as
// JSON and decoded on popstate, the same way a browser clones them.
type MemoryHistory struct {
	mu       sync.Mutex
	entries  []entry
	index    int
	handlers map[int]func(navigation.HistoryState)
	nextID   int
	pushes   int
	replaces int
}

// NewMemoryHistory starts with a single entry at location.
func NewMemoryHistory(location string) *MemoryHistory {
	return &MemoryHistory{
		entries:  []entry{{state: []byte("null"), url: location}},
		handlers: map[int]func(navigation.HistoryState){},
	}
}

// PushState drops any forward entries and appends a new one.
func (h *MemoryHistory) PushState(state navigation.HistoryState, url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], entry{state: navigation.EncodeHistoryState(state), url: url})
	h.index = len(h.entries) - 1
	h.pushes++
}

// ReplaceState rewrites the current entry.
func (h *MemoryHistory) ReplaceState(state navigation.HistoryState, url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.index] = entry{state: navigation.EncodeHistoryState(state), url: url}
	h.replaces++
}

// OnPopState registers a handler for Back, Forward and Go.
func (h *MemoryHistory) OnPopState(handler func(navigation.HistoryState)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.handlers[id] = handler
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.handlers, id)
	}
}

// Location returns the current entry's URL.
func (h *MemoryHistory) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index].url
}

// Back moves one entry back. It reports false at the start of the list.
func (h *MemoryHistory) Back() bool { return h.Go(-1) }

// Forward moves one entry forward. It reports false at the end of the list.
func (h *MemoryHistory) Forward() bool { return h.Go(1) }

// Go moves delta entries and fires popstate. Out-of-range moves are ignored.
func (h *MemoryHistory) Go(delta int) bool {
	h.mu.Lock()
	target := h.index + delta
	if delta == 0 || target < 0 || target >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	h.index = target
	state := navigation.DecodeHistoryState(h.entries[target].state)
	handlers := make([]func(navigation.HistoryState), 0, len(h.handlers))
	for _, fn := range h.handlers {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	for _, fn := range handlers {
		fn(state)
	}
	return true
}

// Len returns the number of entries.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Index returns the current position.
func (h *MemoryHistory) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index
}

// Counts reports how many pushes and replaces were recorded.
func (h *MemoryHistory) Counts() (pushes, replaces int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pushes, h.replaces
}

var _ navigation.HistoryAdapter = (*MemoryHistory)(nil)
