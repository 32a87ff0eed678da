package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/catalog"
	"github.com/imrishuroy/go-table-orderflow/internal/checkout"
)

// ErrNotFound is returned for an unknown or deleted session id.
var ErrNotFound = errors.New("session not found")

type entry struct {
	s        *checkout.Session
	lastSeen time.Time
}

// Manager keeps the live checkout sessions of this process in memory.
type Manager struct {
	menu    *catalog.Menu
	opts    checkout.Options
	log     *zap.Logger
	idFunc  func() string
	nowFunc func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewManager returns an empty manager. Sessions inherit opts.
func NewManager(menu *catalog.Menu, opts checkout.Options, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Logger == nil {
		opts.Logger = log
	}
	return &Manager{
		menu:     menu,
		opts:     opts,
		log:      log,
		idFunc:   uuid.NewString,
		nowFunc:  time.Now,
		sessions: make(map[string]*entry),
		stop:     make(chan struct{}),
	}
}

// Create opens a session seeded with the table from the route.
func (m *Manager) Create(table string) *checkout.Session {
	id := m.idFunc()
	s := checkout.NewSession(id, table, m.menu, m.opts)

	m.mu.Lock()
	m.sessions[id] = &entry{s: s, lastSeen: m.nowFunc()}
	m.mu.Unlock()

	m.log.Info("session created", zap.String("session_id", id), zap.String("table", s.Snapshot().TableNumber))
	return s
}

// Get returns a live session and marks it as used.
func (m *Manager) Get(id string) (*checkout.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastSeen = m.nowFunc()
	return e.s, nil
}

// Delete disposes the session and forgets it.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	e.s.Dispose()
	m.log.Info("session deleted", zap.String("session_id", id))
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Expire disposes every session not used for longer than idle and returns
// how many were dropped.
func (m *Manager) Expire(idle time.Duration) int {
	cutoff := m.nowFunc().Add(-idle)

	m.mu.Lock()
	var stale []*checkout.Session
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Dispose()
	}
	if len(stale) > 0 {
		m.log.Info("idle sessions expired", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// StartReaper expires idle sessions every interval until Shutdown. It is a
// no-op when idle or interval is not positive, or when already started.
func (m *Manager) StartReaper(idle, interval time.Duration) {
	if idle <= 0 || interval <= 0 {
		return
	}
	m.mu.Lock()
	if m.done != nil {
		m.mu.Unlock()
		return
	}
	done := make(chan struct{})
	m.done = done
	m.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.Expire(idle)
			}
		}
	}()
}

// Shutdown stops the reaper and disposes every session. The manager is
// empty afterwards.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() { close(m.stop) })

	m.mu.Lock()
	done := m.done
	sessions := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	if done != nil {
		<-done
	}
	for _, e := range sessions {
		e.s.Dispose()
	}
	m.log.Info("sessions disposed", zap.Int("count", len(sessions)))
}
