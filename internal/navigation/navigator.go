// Package navigation owns the session's drill path and mirrors it into
// history entries and shareable URLs through an injected HistoryAdapter.
package navigation

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"vardrill/domain/core"
	"vardrill/domain/drill"
	"vardrill/internal"
	"vardrill/internal/filterstack"
)

// Options configure a Navigator.
type Options struct {
	// EnableHistory pushes one history entry per user transition and replays
	// back/forward events into the stack.
	EnableHistory bool
	// EnableURLSync reads the initial filters from the location and writes
	// the filters into the query string. Without EnableHistory the URL is
	// rewritten in place (ReplaceState) instead of pushed.
	EnableURLSync bool
	// RootLabel names the root breadcrumb; defaults to "All Data".
	RootLabel string
	// Aliases relabel factors in breadcrumbs only.
	Aliases filterstack.Aliases
	// KnownFactors restricts which query parameters are read as filters.
	// Empty accepts every parameter except EmbedParam.
	KnownFactors []string
	// EmbedParam names the embed-mode signal; defaults to "embed".
	EmbedParam string
	// Logger defaults to the package-level logger.
	Logger *internal.Logger
}

// Listener observes every stack change. Listeners run while the navigator
// holds its operation lock and must not call back into it.
type Listener func(drill.FilterStack)

// Navigator is the one long-lived piece of drill state. The stack is
// replaced wholesale on every transition and never mutated in place.
type Navigator struct {
	mu        sync.Mutex
	opMu      sync.Mutex
	opts      Options
	history   HistoryAdapter
	stack     drill.FilterStack
	embed     bool
	urlKeys   map[string]struct{}
	listeners map[int]Listener
	nextID    int

	// writing is set while we call into the adapter, so a popstate it emits
	// synchronously is ignored. replaying is set while a popstate is being
	// applied, so no transition triggered by it writes history.
	writing   atomic.Bool
	replaying atomic.Bool

	unsubscribe func()
	logger      *internal.Logger
}

// New creates a navigator. history may be nil, which disables both history
// and URL sync.
func New(history HistoryAdapter, opts Options) *Navigator {
	if opts.EmbedParam == "" {
		opts.EmbedParam = DefaultEmbedParam
	}
	if opts.RootLabel == "" {
		opts.RootLabel = filterstack.DefaultRootLabel
	}
	logger := opts.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}

	n := &Navigator{
		opts:      opts,
		history:   history,
		stack:     filterstack.Clear(),
		urlKeys:   map[string]struct{}{},
		listeners: map[int]Listener{},
		logger:    logger.With("Navigator"),
	}
	if history == nil {
		return n
	}

	location := history.Location()
	n.embed = IsEmbedMode(location, opts.EmbedParam)
	if n.embed {
		n.logger.Debug("embed mode detected, history and URL writes disabled")
	}

	if opts.EnableURLSync {
		initial := ParseQuery(queryOf(location), opts.KnownFactors, opts.EmbedParam)
		for _, f := range initial {
			n.urlKeys[f.Factor] = struct{}{}
		}
		n.stack = n.synthesize(initial, drill.SourceURL)
		if len(initial) > 0 {
			n.logger.Info("restored %d filter(s) from URL", len(initial))
		}
	}
	if opts.EnableHistory {
		n.unsubscribe = history.OnPopState(n.handlePopState)
		if !n.embed {
			n.write(false, n.stack)
		}
	}
	return n
}

// Close detaches the navigator from the history adapter.
func (n *Navigator) Close() {
	n.mu.Lock()
	unsub := n.unsubscribe
	n.unsubscribe = nil
	n.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// EmbedMode reports whether history and URL writes are suppressed.
func (n *Navigator) EmbedMode() bool { return n.embed }

// Stack returns a copy of the current drill path.
func (n *Navigator) Stack() drill.FilterStack {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stack.Clone()
}

// Filters returns the folded filter map.
func (n *Navigator) Filters() drill.FilterMap {
	return filterstack.ToFilters(n.Stack())
}

// OrderedFilters returns the filters in application order.
func (n *Navigator) OrderedFilters() drill.OrderedFilters {
	return filterstack.ToOrderedFilters(n.Stack())
}

// Breadcrumbs renders the trail for the current stack.
func (n *Navigator) Breadcrumbs() []drill.BreadcrumbItem {
	return filterstack.ToBreadcrumbs(n.Stack(), n.opts.RootLabel)
}

// ShareURL returns the location with the current filters in its query.
func (n *Navigator) ShareURL() string {
	location := ""
	if n.history != nil {
		location = n.history.Location()
	}
	return BuildURL(location, n.OrderedFilters(), n.dropKeys())
}

// Drill applies a click: it toggles the factor's filter off when params
// match it exactly and otherwise updates or pushes.
func (n *Navigator) Drill(params drill.FilterParams) (removed bool, err error) {
	n.opMu.Lock()
	defer n.opMu.Unlock()

	next, removed, err := filterstack.Toggle(n.Stack(), params, n.opts.Aliases)
	if err != nil {
		return false, err
	}
	n.commit(next)
	return removed, nil
}

// Highlight pushes a highlight marker; it never changes the filter map.
func (n *Navigator) Highlight(params drill.FilterParams) (drill.FilterAction, error) {
	n.opMu.Lock()
	defer n.opMu.Unlock()

	params.Kind = drill.ActionHighlight
	action, err := filterstack.CreateFilterAction(params, n.opts.Aliases)
	if err != nil {
		return drill.FilterAction{}, err
	}
	n.commit(filterstack.Push(n.Stack(), action))
	return action, nil
}

// Back removes the last drill step.
func (n *Navigator) Back() {
	n.opMu.Lock()
	defer n.opMu.Unlock()
	n.commit(filterstack.Pop(n.Stack()))
}

// NavigateTo truncates the path at a breadcrumb; "root" clears it.
func (n *Navigator) NavigateTo(id core.ActionID) error {
	n.opMu.Lock()
	defer n.opMu.Unlock()

	stack := n.Stack()
	if !id.IsRoot() && stack.IndexOf(id) < 0 {
		return fmt.Errorf("%w %s", core.ErrActionNotFound, id)
	}
	n.commit(filterstack.PopTo(stack, id))
	return nil
}

// Clear resets the path to "All Data".
func (n *Navigator) Clear() {
	n.opMu.Lock()
	defer n.opMu.Unlock()
	n.commit(filterstack.Clear())
}

// SetFilterValues replaces a factor's selection in place, removing it when
// values is empty.
func (n *Navigator) SetFilterValues(factor string, values []drill.Value) error {
	n.opMu.Lock()
	defer n.opMu.Unlock()

	next, err := filterstack.UpdateFilterValues(n.Stack(), factor, values, n.opts.Aliases)
	if err != nil {
		return err
	}
	n.commit(next)
	return nil
}

// RemoveFactor drops a factor's filter wherever it sits.
func (n *Navigator) RemoveFactor(factor string) {
	n.opMu.Lock()
	defer n.opMu.Unlock()
	n.commit(filterstack.RemoveFactor(n.Stack(), factor))
}

// Rebase drops filters on columns that no longer exist after a dataset
// change. It rewrites the current history entry instead of pushing one.
func (n *Navigator) Rebase(columns []string) (dropped []string) {
	n.opMu.Lock()
	defer n.opMu.Unlock()

	next, dropped := filterstack.PruneUnknownFactors(n.Stack(), columns)
	if len(dropped) == 0 {
		return nil
	}
	n.logger.Warn("dropping filters on missing columns: %v", dropped)
	n.set(next)
	if n.canWrite() {
		n.write(false, next)
	}
	n.notify(next)
	return dropped
}

// Restore replaces the stack wholesale, e.g. from a persisted session.
func (n *Navigator) Restore(stack drill.FilterStack) {
	n.opMu.Lock()
	defer n.opMu.Unlock()
	n.commit(stack.Clone())
}

// Subscribe registers a listener and returns its removal function.
func (n *Navigator) Subscribe(l Listener) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = l
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}

// commit installs a user-driven stack and mirrors it into history. A
// transition that leaves the path unchanged is a no-op.
func (n *Navigator) commit(next drill.FilterStack) {
	if sameActions(n.Stack(), next) {
		return
	}
	n.set(next)
	if n.canWrite() {
		n.write(n.opts.EnableHistory, next)
	}
	n.notify(next)
}

func (n *Navigator) set(next drill.FilterStack) {
	n.mu.Lock()
	n.stack = next.Clone()
	n.mu.Unlock()
}

func (n *Navigator) canWrite() bool {
	if n.history == nil || n.embed || n.replaying.Load() {
		return false
	}
	return n.opts.EnableHistory || n.opts.EnableURLSync
}

// write pushes or replaces the history entry for stack.
func (n *Navigator) write(push bool, stack drill.FilterStack) {
	ordered := filterstack.ToOrderedFilters(stack)
	state := HistoryState{DrillFilters: ordered.Map()}

	location := n.history.Location()
	target := location
	if n.opts.EnableURLSync {
		target = BuildURL(location, ordered, n.dropKeys())
		n.mu.Lock()
		for _, f := range ordered {
			n.urlKeys[f.Factor] = struct{}{}
		}
		n.mu.Unlock()
	}

	n.writing.Store(true)
	defer n.writing.Store(false)
	if push {
		n.logger.Trace("pushState %s", target)
		n.history.PushState(state, target)
		return
	}
	n.logger.Trace("replaceState %s", target)
	n.history.ReplaceState(state, target)
}

// handlePopState replays a back/forward navigation into the stack. The
// original step order and provenance are not recoverable from the state.
func (n *Navigator) handlePopState(state HistoryState) {
	if n.writing.Load() {
		n.logger.Debug("ignoring popstate emitted by our own history write")
		return
	}
	n.opMu.Lock()
	defer n.opMu.Unlock()
	n.replaying.Store(true)
	defer n.replaying.Store(false)

	next := n.synthesize(state.DrillFilters.Ordered(), drill.SourceHistory)
	n.set(next)
	n.notify(next)
}

// synthesize rebuilds one filter action per factor.
func (n *Navigator) synthesize(filters drill.OrderedFilters, source drill.Source) drill.FilterStack {
	stack := filterstack.Clear()
	for _, f := range filters {
		action, err := filterstack.CreateFilterAction(drill.FilterParams{
			Kind:   drill.ActionFilter,
			Source: source,
			Factor: f.Factor,
			Values: f.Values,
		}, n.opts.Aliases)
		if err != nil {
			n.logger.Debug("skipping unusable filter %q: %v", f.Factor, err)
			continue
		}
		stack = filterstack.Push(stack, action)
	}
	return stack
}

func (n *Navigator) notify(stack drill.FilterStack) {
	n.mu.Lock()
	listeners := make([]Listener, 0, len(n.listeners))
	for _, l := range n.listeners {
		listeners = append(listeners, l)
	}
	n.mu.Unlock()

	for _, l := range listeners {
		l(stack.Clone())
	}
}

// dropKeys lists query parameters that belong to filters, current or past.
func (n *Navigator) dropKeys() map[string]struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make(map[string]struct{}, len(n.urlKeys)+len(n.opts.KnownFactors))
	for k := range n.urlKeys {
		out[k] = struct{}{}
	}
	for _, k := range n.opts.KnownFactors {
		out[k] = struct{}{}
	}
	return out
}

func sameActions(a, b drill.FilterStack) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || len(a[i].Values) != len(b[i].Values) {
			return false
		}
		if len(a[i].Values) > 0 && !drill.SameValueSet(a[i].Values, b[i].Values) {
			return false
		}
	}
	return true
}

func queryOf(location string) string {
	_, query, ok := strings.Cut(location, "?")
	if !ok {
		return ""
	}
	query, _, _ = strings.Cut(query, "#")
	return query
}
