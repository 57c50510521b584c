// Package reveal schedules the deferred follow-up messages of a
// dialogue session. At most one timer is live per logical key;
// scheduling under an occupied key supersedes the previous timer, so a
// rapidly reset session can never double-deliver a follow-up.
package reveal

import (
	"sync"
	"time"
)

// Token identifies a scheduled callback for cancellation.
type Token struct {
	key string
	seq uint64
}

type entry struct {
	seq   uint64
	timer *time.Timer
}

// Scheduler owns the deferred timers of a single session. The zero
// value is not usable; construct with New.
type Scheduler struct {
	mu      sync.Mutex
	entries map[string]*entry
	seq     uint64
}

func New() *Scheduler {
	return &Scheduler{entries: make(map[string]*entry)}
}

// Schedule runs fn after delay under the given key, cancelling any
// timer already pending for that key. fn runs on a timer goroutine
// only if its token is still current when the timer fires; a callback
// superseded or cancelled in the meantime is dropped silently.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.entries[key]; ok {
		prev.timer.Stop()
	}

	s.seq++
	token := Token{key: key, seq: s.seq}
	e := &entry{seq: token.seq}
	e.timer = time.AfterFunc(delay, func() {
		if !s.claim(token) {
			return
		}
		fn()
	})
	s.entries[key] = e
	return token
}

// Cancel stops the callback identified by token if it has not fired.
// Cancelling a stale or already-fired token is a no-op.
func (s *Scheduler) Cancel(token Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token.key]
	if !ok || e.seq != token.seq {
		return
	}
	e.timer.Stop()
	delete(s.entries, token.key)
}

// CancelAll stops every pending callback. Invoked on session reset and
// modal close so no stale timer can mutate a future session.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, key)
	}
}

// Pending reports whether a timer is live for the key.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// claim removes the entry if the token is still current, deciding
// whether a firing callback may proceed.
func (s *Scheduler) claim(token Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token.key]
	if !ok || e.seq != token.seq {
		return false
	}
	delete(s.entries, token.key)
	return true
}
