package variation

import (
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"vardrill/domain/core"
	"vardrill/domain/drill"
)

// Memo caches recomputations keyed on (dataset version, path, outcome).
// Concurrent callers asking for the same key share one computation.
type Memo[T any] struct {
	mu       sync.Mutex
	entries  map[core.Hash]T
	order    []core.Hash
	capacity int
	group    singleflight.Group
}

// NewMemo creates a memo holding at most capacity entries (oldest evicted).
func NewMemo[T any](capacity int) *Memo[T] {
	if capacity <= 0 {
		capacity = 64
	}
	return &Memo[T]{
		entries:  make(map[core.Hash]T, capacity),
		capacity: capacity,
	}
}

// Do returns the cached value for key or computes it once.
func (m *Memo[T]) Do(key core.Hash, compute func() T) T {
	m.mu.Lock()
	if v, ok := m.entries[key]; ok {
		m.mu.Unlock()
		return v
	}
	m.mu.Unlock()

	v, _, _ := m.group.Do(key.String(), func() (interface{}, error) {
		m.mu.Lock()
		if cached, ok := m.entries[key]; ok {
			m.mu.Unlock()
			return cached, nil
		}
		m.mu.Unlock()
		value := compute()
		m.store(key, value)
		return value, nil
	})
	return v.(T)
}

// Len returns the number of cached entries.
func (m *Memo[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Reset drops every entry, e.g. after the dataset changed.
func (m *Memo[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[core.Hash]T, m.capacity)
	m.order = nil
}

func (m *Memo[T]) store(key core.Hash, value T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; ok {
		return
	}
	if len(m.order) >= m.capacity {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
	}
	m.entries[key] = value
	m.order = append(m.order, key)
}

// MemoKey fingerprints a recomputation's inputs. extra carries anything else
// the result depends on (candidate factors, thresholds, stage column). Every
// part is length-prefixed, so values containing separators cannot collide.
func MemoKey(datasetVersion, outcome string, path drill.OrderedFilters, extra ...string) core.Hash {
	parts := make([]string, 0, 3+len(path)*2+len(extra))
	parts = append(parts, lengthPrefixed(datasetVersion), lengthPrefixed(outcome))
	parts = append(parts, "path:"+strconv.Itoa(len(path)))
	for _, f := range path {
		values := make([]string, 0, len(f.Values))
		for _, v := range f.Values {
			values = append(values, lengthPrefixed(v.Kind().String()+":"+v.Key()))
		}
		parts = append(parts, lengthPrefixed(f.Factor), strconv.Itoa(len(values))+"["+strings.Join(values, "")+"]")
	}
	parts = append(parts, "extra:"+strconv.Itoa(len(extra)))
	for _, e := range extra {
		parts = append(parts, lengthPrefixed(e))
	}
	return core.ComputeKeyHash(parts...)
}

// JoinKeyParts encodes items as one unambiguous key part.
func JoinKeyParts(items []string) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(items)))
	for _, item := range items {
		b.WriteString(lengthPrefixed(item))
	}
	return b.String()
}

func lengthPrefixed(s string) string {
	return strconv.Itoa(len(s)) + ":" + s
}
