// Package dialogue owns the state of every diagnostic modal session.
// All mutation goes through the Service's command surface; the
// presentation layer reads snapshots and listens to events, it never
// touches session state directly.
package dialogue

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	model "github.com/leadline/diagnostic/backend/internal/model/dialogue"
	"github.com/leadline/diagnostic/backend/internal/script"
	"github.com/leadline/diagnostic/backend/internal/service/agent"
	"github.com/leadline/diagnostic/backend/internal/service/reveal"
	"github.com/leadline/diagnostic/backend/internal/service/speech"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownCTA      = errors.New("unknown call to action")
	ErrCTAsHidden      = errors.New("calls to action not revealed yet")
)

const followUpKey = "follow-up"

// Config tunes session behavior; zero values fall back to script and
// package defaults.
type Config struct {
	// FollowUpDelay overrides the script's deferred-reveal delay when
	// positive. Tests set it near zero.
	FollowUpDelay time.Duration
	// CTATargets maps each call-to-action to the host action (usually
	// a URL) returned on selection.
	CTATargets map[model.CTA]string
}

// Service is the dialogue session controller. It owns the transcript,
// phase, input mode and timers of every live session and is the only
// writer of that state.
type Service struct {
	backend agent.Backend
	script  script.Script
	sink    EventSink
	cfg     Config

	mu       sync.RWMutex
	sessions map[string]*session
}

// session is the exclusive mutable state of one modal instance.
type session struct {
	mu sync.Mutex

	id         string
	state      model.ModalState
	phase      model.Phase
	inputMode  model.InputMode
	pending    string
	awaiting   bool
	estimate   *model.EconomicEstimate
	ctas       bool
	transcript []model.Turn
	userTurns  int

	// generation gates late async results: agent resolutions and timer
	// fires captured under an older generation are discarded.
	generation uint64

	capture speech.Capture
	sched   *reveal.Scheduler

	createdAt  time.Time
	lastActive time.Time
}

// NewService builds the controller around an agent backend and the
// scripted dialogue.
func NewService(backend agent.Backend, s script.Script, sink EventSink, cfg Config) *Service {
	if sink == nil {
		sink = NopSink{}
	}
	return &Service{
		backend:  backend,
		script:   s,
		sink:     sink,
		cfg:      cfg,
		sessions: make(map[string]*session),
	}
}

// Open creates a session, or reopens an existing one. Reopening a
// session whose transcript is empty (i.e. after Close) re-seeds the
// scripted opening turn; the guard is the empty transcript itself, not
// a separate flag.
func (s *Service) Open(id string) (model.Snapshot, error) {
	if id == "" {
		sess := &session{
			id:        uuid.NewString(),
			state:     model.ModalStateInitial,
			phase:     model.PhaseCuriosity,
			sched:     reveal.New(),
			createdAt: time.Now().UTC(),
		}
		sess.lastActive = sess.createdAt

		s.mu.Lock()
		s.sessions[sess.id] = sess
		s.mu.Unlock()

		sess.mu.Lock()
		defer sess.mu.Unlock()
		s.seedOpeningLocked(sess)
		return s.snapshotLocked(sess), nil
	}

	sess, err := s.get(id)
	if err != nil {
		return model.Snapshot{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastActive = time.Now().UTC()
	if len(sess.transcript) == 0 {
		s.seedOpeningLocked(sess)
	}
	return s.snapshotLocked(sess), nil
}

// Close resets the session to its initial state: timers cancelled,
// transcript cleared, estimate and CTA visibility discarded. The
// session id stays valid so the modal can reopen with a fresh script.
func (s *Service) Close(id string) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.resetLocked(sess)
	s.publish(Event{Type: EventReset, SessionID: sess.id})
	return nil
}

// Snapshot returns a read-only copy of the session state.
func (s *Service) Snapshot(id string) (model.Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return model.Snapshot{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.snapshotLocked(sess), nil
}

// AttachCapture hands a session its speech capability, replacing any
// previous one. Called by the speech relay handler on websocket
// connect.
func (s *Service) AttachCapture(id string, capture speech.Capture) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.capture != nil {
		sess.capture.Stop()
	}
	sess.capture = capture
	return nil
}

// DetachCapture removes the capture if it is still the attached one.
func (s *Service) DetachCapture(id string, capture speech.Capture) {
	sess, err := s.get(id)
	if err != nil {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.capture == capture {
		sess.capture.Stop()
		sess.capture = nil
		if sess.inputMode == model.InputModeVoice {
			s.fallBackToTextLocked(sess)
		}
	}
}

// ExpireIdle discards sessions idle for longer than ttl and returns
// how many were removed.
func (s *Service) ExpireIdle(ttl time.Duration) int {
	cutoff := time.Now().UTC().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastActive.Before(cutoff)
		if idle {
			sess.generation++
			sess.sched.CancelAll()
			if sess.capture != nil {
				sess.capture.Stop()
			}
		}
		sess.mu.Unlock()

		if idle {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Service) get(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) seedOpeningLocked(sess *session) {
	turn := model.Turn{
		Role:      model.RoleAgent,
		Text:      s.script.OpeningLine,
		CreatedAt: time.Now().UTC(),
	}
	sess.transcript = append(sess.transcript, turn)
	s.publish(Event{Type: EventTurn, SessionID: sess.id, Turn: &turn})
}

func (s *Service) resetLocked(sess *session) {
	sess.generation++
	sess.sched.CancelAll()
	if sess.capture != nil {
		sess.capture.Stop()
	}

	sess.state = model.ModalStateInitial
	sess.phase = model.PhaseCuriosity
	sess.inputMode = model.InputModeUnset
	sess.pending = ""
	sess.awaiting = false
	sess.estimate = nil
	sess.ctas = false
	sess.transcript = nil
	sess.userTurns = 0
	sess.lastActive = time.Now().UTC()
}

func (s *Service) snapshotLocked(sess *session) model.Snapshot {
	transcript := make([]model.Turn, len(sess.transcript))
	copy(transcript, sess.transcript)

	var estimate *model.EconomicEstimate
	if sess.estimate != nil {
		copied := *sess.estimate
		estimate = &copied
	}

	return model.Snapshot{
		ID:            sess.id,
		State:         sess.state,
		Phase:         sess.phase,
		InputMode:     sess.inputMode,
		Transcript:    transcript,
		PendingInput:  sess.pending,
		AwaitingAgent: sess.awaiting,
		Estimate:      estimate,
		CTAsVisible:   sess.ctas,
		CreatedAt:     sess.createdAt,
	}
}

func (s *Service) publish(event Event) {
	event.Timestamp = time.Now().UTC()
	s.sink.Publish(event)
}
