package session

import (
	"context"
	"sync"

	"vardrill/domain/core"
	"vardrill/domain/drill"
	"vardrill/internal"
	"vardrill/internal/errors"
	"vardrill/internal/metrics"
	"vardrill/internal/navigation"
	"vardrill/ports"
)

// HistoryFactory builds the history adapter for a new session. location is
// the URL the session starts at; it may carry filters.
type HistoryFactory func(location string) navigation.HistoryAdapter

// ManagerOptions configure a Manager.
type ManagerOptions struct {
	Store        ports.SessionRepository // nil keeps sessions in memory only
	History      HistoryFactory          // nil creates sessions without history
	Navigation   navigation.Options
	CacheSize    int
	AutoPersist  bool // save after every transition
	BaseLocation string
}

// Manager owns every live session and the dataset they share.
type Manager struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*Session
	dataset  *drill.Dataset
	settings Settings
	cache    *Cache
	opts     ManagerOptions
	logger   *internal.Logger
}

// NewManager creates a manager over ds.
func NewManager(ds *drill.Dataset, settings Settings, opts ManagerOptions) *Manager {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.BaseLocation == "" {
		opts.BaseLocation = "/"
	}
	return &Manager{
		sessions: map[core.SessionID]*Session{},
		dataset:  ds,
		settings: settings,
		cache:    NewCache(opts.CacheSize),
		opts:     opts,
		logger:   internal.DefaultLogger.With("SessionManager"),
	}
}

// Dataset returns the shared dataset.
func (m *Manager) Dataset() *drill.Dataset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dataset
}

// Settings returns the default settings for new sessions.
func (m *Manager) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// Create starts a session. query is an optional raw URL query carrying
// initial filters.
func (m *Manager) Create(ctx context.Context, query string) (*Session, error) {
	location := m.opts.BaseLocation
	if query != "" {
		location += "?" + query
	}
	s, _ := m.newSession(core.NewSessionID(), location)
	if err := m.Persist(ctx, s); err != nil {
		s.Close()
		return nil, err
	}
	m.logger.Debug("created session %s", s.ID().String())
	return s, nil
}

// Ephemeral builds a read-only session for one request. Its filters come
// from query and it is never registered or persisted. It shares the
// analysis cache with live sessions.
func (m *Manager) Ephemeral(query string) *Session {
	location := m.opts.BaseLocation
	if query != "" {
		location += "?" + query
	}

	m.mu.RLock()
	ds, settings := m.dataset, m.settings
	m.mu.RUnlock()

	var history navigation.HistoryAdapter
	if m.opts.History != nil {
		history = m.opts.History(location)
	}
	opts := m.opts.Navigation
	opts.EnableHistory = false
	opts.EnableURLSync = true
	return New(core.NewSessionID(), ds, settings, history, opts, m.cache)
}

// Get returns a live session, loading it from the store if needed.
func (m *Manager) Get(ctx context.Context, id core.SessionID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}
	if m.opts.Store == nil {
		return nil, errors.Wrapf(core.ErrSessionNotFound, "session %s", id)
	}

	snap, err := m.opts.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s, created := m.newSession(id, m.opts.BaseLocation)
	if !created {
		return s, nil
	}
	if dropped := s.Restore(snap); len(dropped) > 0 {
		m.logger.Warn("restored session %s without filters on missing columns %v", id.String(), dropped)
	}
	return s, nil
}

// Persist saves a session when a store is configured.
func (m *Manager) Persist(ctx context.Context, s *Session) error {
	if m.opts.Store == nil {
		return nil
	}
	if err := m.opts.Store.Save(ctx, s.Snapshot()); err != nil {
		return errors.Wrapf(err, "failed to persist session %s", s.ID())
	}
	return nil
}

// Delete closes and forgets a session.
func (m *Manager) Delete(ctx context.Context, id core.SessionID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.SetActiveSessions(n)

	if ok {
		s.Close()
	}
	if m.opts.Store != nil {
		return m.opts.Store.Delete(ctx, id)
	}
	if !ok {
		return errors.Wrapf(core.ErrSessionNotFound, "session %s", id)
	}
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ReplaceDataset swaps the shared dataset and rebases every session.
func (m *Manager) ReplaceDataset(ds *drill.Dataset) {
	m.mu.Lock()
	m.dataset = ds
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.ReplaceDataset(ds)
	}
	metrics.RecordReload(nil)
	m.logger.Info("dataset replaced (version %s, %d rows, %d sessions)", ds.Version.Short(), ds.Len(), len(sessions))
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = map[core.SessionID]*Session{}
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
	metrics.SetActiveSessions(0)
}

// newSession registers a session under id, or returns the one already
// registered there.
func (m *Manager) newSession(id core.SessionID, location string) (s *Session, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id]; ok {
		return existing, false
	}

	var history navigation.HistoryAdapter
	if m.opts.History != nil {
		history = m.opts.History(location)
	}
	s = New(id, m.dataset, m.settings, history, m.opts.Navigation, m.cache)
	if m.opts.AutoPersist && m.opts.Store != nil {
		s.nav.Subscribe(func(drill.FilterStack) {
			if err := m.Persist(context.Background(), s); err != nil {
				m.logger.Error("auto-persist failed: %v", err)
			}
		})
	}
	m.sessions[id] = s
	metrics.SetActiveSessions(len(m.sessions))
	return s, true
}
