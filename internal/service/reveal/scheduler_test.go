package reveal

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduleFires(t *testing.T) {
	s := New()
	fired := make(chan struct{})

	s.Schedule("follow-up", time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled callback never fired")
	}
	if s.Pending("follow-up") {
		t.Fatal("fired key must no longer be pending")
	}
}

func TestScheduleSameKeySupersedes(t *testing.T) {
	s := New()
	var first, second atomic.Int32
	done := make(chan struct{})

	s.Schedule("follow-up", 10*time.Millisecond, func() { first.Add(1) })
	s.Schedule("follow-up", time.Millisecond, func() {
		second.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second callback never fired")
	}

	// Give the superseded timer a chance to misbehave.
	time.Sleep(50 * time.Millisecond)

	if got := first.Load(); got != 0 {
		t.Fatalf("superseded callback fired %d times", got)
	}
	if got := second.Load(); got != 1 {
		t.Fatalf("expected exactly one fire, got %d", got)
	}
}

func TestCancelAll(t *testing.T) {
	s := New()
	var fired atomic.Int32

	s.Schedule("a", 5*time.Millisecond, func() { fired.Add(1) })
	s.Schedule("b", 5*time.Millisecond, func() { fired.Add(1) })
	s.CancelAll()

	time.Sleep(50 * time.Millisecond)

	if got := fired.Load(); got != 0 {
		t.Fatalf("cancelled callbacks fired %d times", got)
	}
	if s.Pending("a") || s.Pending("b") {
		t.Fatal("keys still pending after CancelAll")
	}
}

func TestCancelToken(t *testing.T) {
	s := New()
	var fired atomic.Int32

	token := s.Schedule("a", 5*time.Millisecond, func() { fired.Add(1) })
	s.Cancel(token)

	time.Sleep(50 * time.Millisecond)

	if got := fired.Load(); got != 0 {
		t.Fatalf("cancelled callback fired %d times", got)
	}
}

func TestCancelStaleTokenIsNoOp(t *testing.T) {
	s := New()
	done := make(chan struct{})

	stale := s.Schedule("a", time.Hour, func() {})
	s.Schedule("a", time.Millisecond, func() { close(done) })

	// Cancelling the superseded token must not disturb the live timer.
	s.Cancel(stale)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("live timer was disturbed by a stale cancel")
	}
}
