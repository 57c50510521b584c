package speech

import "sync"

type relayState string

const (
	relayIdle      relayState = "idle"
	relayListening relayState = "listening"
)

// Relay is the production Capture: the browser runs the platform
// recognizer and streams its output over a websocket, and the speech
// handler feeds the events in here. Events arriving while the relay is
// idle are dropped, which covers recognizer chatter after Stop.
type Relay struct {
	mu    sync.Mutex
	state relayState
	cb    Callbacks
}

func NewRelay() *Relay {
	return &Relay{state: relayIdle}
}

func (r *Relay) IsAvailable() bool { return true }

// Start begins routing relayed events to cb. Double-start is the
// caller's precondition; calling Start while listening simply swaps
// the callbacks.
func (r *Relay) Start(cb Callbacks) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = relayListening
	r.cb = cb
	return nil
}

func (r *Relay) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = relayIdle
	r.cb = Callbacks{}
}

// Partial forwards a cumulative partial transcript from the browser.
func (r *Relay) Partial(text string) {
	if cb := r.callbacks(); cb.OnPartial != nil {
		cb.OnPartial(text)
	}
}

// Final forwards the finished utterance from the browser.
func (r *Relay) Final(text string) {
	if cb := r.callbacks(); cb.OnFinal != nil {
		cb.OnFinal(text)
	}
}

// Fail reports a recognizer error and returns the relay to idle.
func (r *Relay) Fail(err error) {
	r.mu.Lock()
	cb := r.cb
	wasListening := r.state == relayListening
	r.state = relayIdle
	r.cb = Callbacks{}
	r.mu.Unlock()

	if wasListening && cb.OnError != nil {
		cb.OnError(err)
	}
}

func (r *Relay) callbacks() Callbacks {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != relayListening {
		return Callbacks{}
	}
	return r.cb
}
