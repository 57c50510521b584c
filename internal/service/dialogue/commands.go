package dialogue

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/leadline/diagnostic/backend/internal/analysis/sentiment"
	model "github.com/leadline/diagnostic/backend/internal/model/dialogue"
	"github.com/leadline/diagnostic/backend/internal/script"
)

// Submit records a user answer and kicks off the agent round-trip.
// The guards from the modal contract apply: whitespace-only text, a
// submission while one is already in flight, and a session that has
// reached its terminal results state are all silent no-ops. The
// returned bool reports whether the answer was accepted.
func (s *Service) Submit(id, text string) (bool, error) {
	sess, err := s.get(id)
	if err != nil {
		return false, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.submitLocked(sess, text), nil
}

func (s *Service) submitLocked(sess *session, text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || sess.awaiting || sess.state == model.ModalStateResults {
		return false
	}

	turn := model.Turn{
		Role:      model.RoleUser,
		Text:      trimmed,
		Sentiment: string(sentiment.Analyze(trimmed).Label),
		CreatedAt: time.Now().UTC(),
	}

	turnIndex := sess.userTurns
	sess.userTurns++
	sess.transcript = append(sess.transcript, turn)
	sess.pending = ""
	sess.awaiting = true
	sess.lastActive = turn.CreatedAt
	s.setStateLocked(sess, model.ModalStateProcessing)
	s.publish(Event{Type: EventTurn, SessionID: sess.id, Turn: &turn})

	generation := sess.generation
	phase := sess.phase
	go s.resolve(sess, trimmed, turnIndex, phase, generation)
	return true
}

// resolve runs the agent call off the command path and applies the
// outcome, unless the session was reset while the call was in flight.
func (s *Service) resolve(sess *session, text string, turnIndex int, phase model.Phase, generation uint64) {
	out, err := s.backend.Diagnose(context.Background(), text, turnIndex, phase)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.generation != generation {
		// The session was reset mid-flight; this result belongs to a
		// conversation that no longer exists.
		return
	}

	sess.awaiting = false

	if err != nil {
		log.Printf("[dialogue] agent call failed for session=%s: %v", sess.id, err)
		apology := model.Turn{
			Role:      model.RoleAgent,
			Text:      s.script.Apology,
			CreatedAt: time.Now().UTC(),
		}
		sess.transcript = append(sess.transcript, apology)
		s.setStateLocked(sess, model.ModalStateListening)
		s.publish(Event{Type: EventTurn, SessionID: sess.id, Turn: &apology})
		s.publish(Event{Type: EventError, SessionID: sess.id, Text: "agent call failed"})
		return
	}

	turn := model.Turn{
		Role:      model.RoleAgent,
		Text:      out.AgentText,
		CreatedAt: time.Now().UTC(),
	}
	sess.transcript = append(sess.transcript, turn)
	s.publish(Event{Type: EventTurn, SessionID: sess.id, Turn: &turn})

	if out.Phase != "" && out.Phase != sess.phase {
		sess.phase = out.Phase
		s.publish(Event{Type: EventPhase, SessionID: sess.id, Phase: out.Phase})
	}

	// The estimate is produced at most once per session.
	if out.Estimate != nil && sess.estimate == nil {
		copied := *out.Estimate
		sess.estimate = &copied
		s.publish(Event{Type: EventEstimate, SessionID: sess.id, Estimate: &copied})
	}

	if out.CTAsVisible && !sess.ctas {
		sess.ctas = true
		s.publish(Event{Type: EventCTAs, SessionID: sess.id})
	}

	s.setStateLocked(sess, model.ModalStateListening)

	if out.Deferred != nil {
		s.scheduleDeferredLocked(sess, *out.Deferred, generation)
	}
}

func (s *Service) scheduleDeferredLocked(sess *session, deferred script.Deferred, generation uint64) {
	delay := deferred.Delay
	if s.cfg.FollowUpDelay > 0 {
		delay = s.cfg.FollowUpDelay
	}
	sess.sched.Schedule(followUpKey, delay, func() {
		s.fireDeferred(sess, deferred, generation)
	})
}

// fireDeferred appends the deferred follow-up and reveals the CTAs.
// Like resolve, it is gated on the generation captured at scheduling
// time.
func (s *Service) fireDeferred(sess *session, deferred script.Deferred, generation uint64) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.generation != generation {
		return
	}

	turn := model.Turn{
		Role:      model.RoleAgent,
		Text:      deferred.Text,
		CreatedAt: time.Now().UTC(),
	}
	sess.transcript = append(sess.transcript, turn)
	s.publish(Event{Type: EventTurn, SessionID: sess.id, Turn: &turn})

	if deferred.Phase != "" && deferred.Phase != sess.phase {
		sess.phase = deferred.Phase
		s.publish(Event{Type: EventPhase, SessionID: sess.id, Phase: deferred.Phase})
	}
	if deferred.RevealCTAs && !sess.ctas {
		sess.ctas = true
		s.publish(Event{Type: EventCTAs, SessionID: sess.id})
	}
	s.setStateLocked(sess, model.ModalStateResults)
}

// SelectCTA records the visitor's terminal choice and returns the host
// action configured for it. Only valid once the CTAs are revealed;
// selection moves the narrative to its action phase.
func (s *Service) SelectCTA(id string, cta model.CTA) (string, error) {
	if !model.ValidCTA(cta) {
		return "", ErrUnknownCTA
	}

	sess, err := s.get(id)
	if err != nil {
		return "", err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.ctas {
		return "", ErrCTAsHidden
	}

	sess.lastActive = time.Now().UTC()
	if sess.phase != model.PhaseAction {
		sess.phase = model.PhaseAction
		s.publish(Event{Type: EventPhase, SessionID: sess.id, Phase: model.PhaseAction})
	}
	s.publish(Event{Type: EventCTAPick, SessionID: sess.id, CTA: cta})

	return s.cfg.CTATargets[cta], nil
}

func (s *Service) setStateLocked(sess *session, state model.ModalState) {
	if sess.state == state {
		return
	}
	// results is terminal; only a reset leaves it. An agent call that
	// resolves after the deferred follow-up must not revive the session.
	if sess.state == model.ModalStateResults {
		return
	}
	sess.state = state
	s.publish(Event{Type: EventState, SessionID: sess.id, State: state})
}
