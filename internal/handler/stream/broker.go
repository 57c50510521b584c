package stream

import (
	"sync"

	dialogueService "github.com/leadline/diagnostic/backend/internal/service/dialogue"
)

const subscriberBuffer = 32

// Broker fans session events out to SSE subscribers. It implements
// the dialogue service's EventSink; a subscriber that cannot keep up
// loses events rather than blocking the session.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan dialogueService.Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan dialogueService.Event]struct{})}
}

// Publish delivers an event to every subscriber of its session.
func (b *Broker) Publish(event dialogueService.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[event.SessionID] {
		select {
		case ch <- event:
		default:
			// Slow consumer; the SSE client can re-sync from a snapshot.
		}
	}
}

// Subscribe registers for a session's events and returns the channel
// plus an unsubscribe function.
func (b *Broker) Subscribe(sessionID string) (<-chan dialogueService.Event, func()) {
	ch := make(chan dialogueService.Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan dialogueService.Event]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[sessionID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subs, sessionID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}
