package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/imrishuroy/go-table-orderflow/internal/catalog"
	"github.com/imrishuroy/go-table-orderflow/internal/checkout"
)

func newTestManager() *Manager {
	m := NewManager(catalog.DefaultMenu(), checkout.DefaultOptions(), nil)
	n := 0
	var mu sync.Mutex
	m.idFunc = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("s-%d", n)
	}
	return m
}

func TestCreateAndGet(t *testing.T) {
	m := newTestManager()

	s := m.Create("3")
	if s.ID() != "s-1" {
		t.Fatalf("id = %q", s.ID())
	}
	if got := s.Snapshot().TableNumber; got != "3" {
		t.Fatalf("table = %q", got)
	}

	got, err := m.Get("s-1")
	if err != nil || got != s {
		t.Fatalf("Get returned %v, %v", got, err)
	}
	if _, err := m.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	m := newTestManager()
	a := m.Create("1")
	b := m.Create("2")

	if err := a.Add("1"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(b.Snapshot().Items) != 0 {
		t.Fatal("sessions share state")
	}
}

func TestDelete(t *testing.T) {
	m := newTestManager()
	s := m.Create("")

	if err := m.Delete(s.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := m.Delete(s.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Add("1"); !errors.Is(err, checkout.ErrSessionClosed) {
		t.Fatalf("deleted session should be disposed, got %v", err)
	}
}

func TestShutdown(t *testing.T) {
	m := newTestManager()
	a := m.Create("1")
	m.Create("2")

	m.Shutdown()
	if m.Len() != 0 {
		t.Fatalf("len = %d after shutdown", m.Len())
	}
	if err := a.Add("1"); !errors.Is(err, checkout.ErrSessionClosed) {
		t.Fatalf("expected closed session, got %v", err)
	}
}

func TestConcurrentCreate(t *testing.T) {
	m := NewManager(catalog.DefaultMenu(), checkout.DefaultOptions(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := m.Create("4")
			_ = s.Add("6")
		}()
	}
	wg.Wait()
	if m.Len() != 50 {
		t.Fatalf("len = %d", m.Len())
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestExpireIdleSessions(t *testing.T) {
	m := newTestManager()
	clk := &fakeClock{now: time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)}
	m.nowFunc = clk.Now

	idle := m.Create("1")
	busy := m.Create("2")

	clk.Advance(20 * time.Minute)
	if _, err := m.Get(busy.ID()); err != nil {
		t.Fatalf("Get: %v", err)
	}
	clk.Advance(15 * time.Minute)

	if n := m.Expire(30 * time.Minute); n != 1 {
		t.Fatalf("expired %d sessions, want 1", n)
	}
	if _, err := m.Get(idle.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := idle.Add("1"); !errors.Is(err, checkout.ErrSessionClosed) {
		t.Fatalf("expired session should be disposed, got %v", err)
	}
	if err := busy.Add("1"); err != nil {
		t.Fatalf("recently used session was dropped: %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("len = %d", m.Len())
	}
}

func TestReaperStopsOnShutdown(t *testing.T) {
	m := newTestManager()
	clk := &fakeClock{now: time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)}
	m.nowFunc = clk.Now

	s := m.Create("7")
	clk.Advance(time.Hour)
	m.StartReaper(time.Minute, time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for m.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if m.Len() != 0 {
		t.Fatal("reaper did not expire the idle session")
	}
	if err := s.Add("1"); !errors.Is(err, checkout.ErrSessionClosed) {
		t.Fatalf("expected closed session, got %v", err)
	}

	m.Shutdown()
	m.Shutdown()
}
