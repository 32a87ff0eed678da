package checkout

import (
	"context"
	"sync"
	"time"
)

type fakeGateway struct {
	mu      sync.Mutex
	decline bool
	calls   []ChargeRequest
	block   chan struct{}
}

func (g *fakeGateway) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	decline, block := g.decline, g.block
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if decline {
		return "", ErrPaymentDeclined
	}
	return "PAY-test", nil
}

func (g *fakeGateway) chargeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type sentCode struct {
	phone, code string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentCode
}

func (f *fakeSender) Send(_ context.Context, phone, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentCode{phone: phone, code: code})
	return nil
}

func (f *fakeSender) last() sentCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentCode{}
	}
	return f.sent[len(f.sent)-1]
}

type fakeTimer struct {
	f       func()
	d       time.Duration
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fakeScheduler records tasks; Fire runs the ones not yet stopped.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{f: f, d: d}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Fire() {
	s.mu.Lock()
	timers := s.timers
	s.timers = nil
	s.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.f()
		}
	}
}

func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// codeSeq hands out the given codes in order, repeating the last one.
func codeSeq(codes ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		c := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return c, nil
	}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
