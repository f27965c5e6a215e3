package session

import (
	"sync"
	"time"

	"vardrill/domain/core"
	"vardrill/domain/drill"
	"vardrill/internal"
	"vardrill/internal/filterstack"
	"vardrill/internal/metrics"
	"vardrill/internal/navigation"
	"vardrill/internal/variation"
)

// Session is one user's drill path over the shared dataset.
type Session struct {
	id        core.SessionID
	nav       *navigation.Navigator
	history   navigation.HistoryAdapter
	cache     *Cache

	mu        sync.RWMutex
	dataset   *drill.Dataset
	settings  Settings
	createdAt time.Time

	logger *internal.Logger
}

// Cache memoizes analyses. Sessions on the same dataset share one, so two
// users on the same path compute it once.
type Cache struct {
	memo *variation.Memo[*computed]
}

// NewCache creates a cache holding up to capacity analyses.
func NewCache(capacity int) *Cache {
	return &Cache{memo: variation.NewMemo[*computed](capacity)}
}

// Len returns the number of cached analyses.
func (c *Cache) Len() int { return c.memo.Len() }

// New creates a session. history may be nil for sessions without
// back/forward support; cache may be nil for a private cache.
func New(id core.SessionID, ds *drill.Dataset, settings Settings, history navigation.HistoryAdapter, opts navigation.Options, cache *Cache) *Session {
	if opts.RootLabel == "" {
		opts.RootLabel = settings.RootLabel
	}
	if opts.Aliases == nil {
		opts.Aliases = settings.Aliases
	}
	if len(opts.KnownFactors) == 0 {
		opts.KnownFactors = ds.Columns
	}
	if cache == nil {
		cache = NewCache(64)
	}
	return &Session{
		id:        id,
		nav:       navigation.New(history, opts),
		history:   history,
		cache:     cache,
		createdAt: time.Now().UTC(),
		dataset:   ds,
		settings:  settings,
		logger:    internal.DefaultLogger.With("Session"),
	}
}

// ID returns the session id.
func (s *Session) ID() core.SessionID { return s.id }

// Navigator exposes the drill navigator.
func (s *Session) Navigator() *navigation.Navigator { return s.nav }

// History returns the session's history adapter, nil when it has none.
func (s *Session) History() navigation.HistoryAdapter { return s.history }

// Dataset returns the current dataset.
func (s *Session) Dataset() *drill.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Settings returns the analysis settings.
func (s *Session) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings swaps the analysis settings. Cached results keyed on the
// old settings are simply never hit again.
func (s *Session) UpdateSettings(settings Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
}

// ReplaceDataset switches to ds and drops filters on columns ds lacks.
func (s *Session) ReplaceDataset(ds *drill.Dataset) (dropped []string) {
	s.mu.Lock()
	s.dataset = ds
	s.mu.Unlock()

	dropped = s.nav.Rebase(ds.Columns)
	if len(dropped) > 0 {
		s.logger.Info("session %s lost filters %v after dataset reload", s.id.String(), dropped)
		metrics.RecordDroppedFilters(len(dropped))
	}
	return dropped
}

// Analyze returns the analysis for the current path, reusing a cached
// computation when dataset, path and settings are unchanged.
func (s *Session) Analyze() *Analysis {
	s.mu.RLock()
	ds, settings := s.dataset, s.settings
	s.mu.RUnlock()

	stack := s.nav.Stack()
	path := filterstack.ToOrderedFilters(stack)
	key := variation.MemoKey(ds.Version.String(), settings.Outcome, path, memoExtra(settings)...)

	hit := true
	c := s.cache.memo.Do(key, func() *computed {
		hit = false
		return compute(ds, settings, path)
	})
	metrics.RecordMemo(hit)

	crumbs := filterstack.ToBreadcrumbs(stack, s.rootLabel(settings))
	for i := range crumbs {
		crumbs[i].Label = relabel(crumbs[i], stack, settings.Aliases)
	}

	a := &Analysis{
		SessionID:        s.id,
		DatasetVersion:   ds.Version.String(),
		Outcome:          settings.Outcome,
		RowsTotal:        ds.Len(),
		RowsFiltered:     c.rowsFiltered,
		Filters:          path.Map(),
		Breadcrumbs:      variation.AnnotateBreadcrumbs(crumbs, stack, c.drill),
		FactorVariations: c.variations,
		Ranking:          c.ranking,
		Drill:            c.drill,
		Stats:            c.stats,
		Staged:           c.staged,
		Boundaries:       c.boundaries,
		ComputedAt:       c.at,
	}
	last := ""
	if n := len(path); n > 0 {
		last = path[n-1].Factor
	}
	if next, ok := variation.GetNextDrillFactor(c.variations, last); ok {
		a.NextFactor = next
	}
	return a
}

// Snapshot captures the persistable state.
func (s *Session) Snapshot() *drill.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &drill.SessionSnapshot{
		SessionID:      s.id,
		DatasetVersion: s.dataset.Version.String(),
		Outcome:        s.settings.Outcome,
		Stack:          s.nav.Stack(),
		CreatedAt:      s.createdAt,
	}
}

// Restore loads a persisted path and outcome, pruning filters on missing
// columns.
func (s *Session) Restore(snap *drill.SessionSnapshot) (dropped []string) {
	s.mu.Lock()
	columns := s.dataset.Columns
	if !snap.CreatedAt.IsZero() {
		s.createdAt = snap.CreatedAt
	}
	if snap.Outcome != "" && s.dataset.HasColumn(snap.Outcome) {
		s.settings.Outcome = snap.Outcome
	}
	s.mu.Unlock()

	stack, dropped := filterstack.PruneUnknownFactors(snap.Stack, columns)
	s.nav.Restore(stack)
	return dropped
}

// Close detaches the navigator from its history adapter.
func (s *Session) Close() {
	s.nav.Close()
}

func (s *Session) rootLabel(settings Settings) string {
	if settings.RootLabel != "" {
		return settings.RootLabel
	}
	return filterstack.DefaultRootLabel
}

// relabel keeps breadcrumb labels current when aliases change after the
// action was created.
func relabel(crumb drill.BreadcrumbItem, stack drill.FilterStack, aliases filterstack.Aliases) string {
	if crumb.ID.IsRoot() || len(aliases) == 0 {
		return crumb.Label
	}
	idx := stack.IndexOf(crumb.ID)
	if idx < 0 || !stack[idx].IsFilter() {
		return crumb.Label
	}
	return filterstack.FormatLabel(stack[idx].Factor, stack[idx].Values, aliases)
}
