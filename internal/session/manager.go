// Package session keeps the live dashboard sessions of one server process.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/clipforge/internal/backend"
	"github.com/kiranshivaraju/clipforge/internal/dashboard"
)

var ErrNotFound = errors.New("session not found")

// Manager creates, looks up and expires dashboard sessions. Sessions live
// only in memory and are gone after a restart.
type Manager struct {
	client  backend.Client
	opts    []dashboard.Option
	idleTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*dashboard.Session
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithSessionOptions are applied to every session the manager creates.
func WithSessionOptions(opts ...dashboard.Option) ManagerOption {
	return func(m *Manager) { m.opts = append(m.opts, opts...) }
}

func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager returns a Manager whose sessions expire after idleTTL without
// activity. A non-positive idleTTL disables expiry.
func NewManager(client backend.Client, idleTTL time.Duration, opts ...ManagerOption) *Manager {
	m := &Manager{
		client:   client,
		idleTTL:  idleTTL,
		logger:   slog.Default(),
		now:      time.Now,
		sessions: make(map[uuid.UUID]*dashboard.Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new session.
func (m *Manager) Create() *dashboard.Session {
	opts := make([]dashboard.Option, 0, len(m.opts)+2)
	opts = append(opts, dashboard.WithLogger(m.logger), dashboard.WithClock(m.now))
	opts = append(opts, m.opts...)
	s := dashboard.New(m.client, opts...)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", s.ID())
	return s
}

// Get returns the session with id and marks it active.
func (m *Manager) Get(id uuid.UUID) (*dashboard.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.Touch()
	return s, nil
}

// Delete discards the session with id. In-flight operations on it still
// finish; their outcomes are simply never read.
func (m *Manager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	m.logger.Info("session deleted", "session_id", id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap drops sessions idle for longer than the TTL and returns how many went.
// Sessions with a job or upload in flight are kept.
func (m *Manager) Reap() int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	reaped := 0
	for id, s := range m.sessions {
		if s.Busy() || s.Uploading() {
			continue
		}
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			reaped++
		}
	}
	if reaped > 0 {
		m.logger.Info("idle sessions reaped", "count", reaped, "remaining", len(m.sessions))
	}
	return reaped
}

// Run reaps idle sessions periodically until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	if m.idleTTL <= 0 {
		<-ctx.Done()
		return nil
	}
	interval := m.idleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Reap()
		}
	}
}
