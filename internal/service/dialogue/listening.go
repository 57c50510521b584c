package dialogue

import (
	"log"
	"strings"
	"time"

	model "github.com/leadline/diagnostic/backend/internal/model/dialogue"
	"github.com/leadline/diagnostic/backend/internal/service/speech"
)

// StartListening switches the session to voice input and starts the
// attached capture. When no capture is attached, or starting it fails,
// the session falls back to typed input and the caller gets the error
// to log; the visitor never sees it.
func (s *Service) StartListening(id string) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state == model.ModalStateProcessing || sess.state == model.ModalStateResults {
		return nil
	}
	if sess.inputMode == model.InputModeVoice && sess.state == model.ModalStateListening {
		return nil
	}

	capture := sess.capture
	if capture == nil {
		capture = speech.Unavailable{}
	}

	generation := sess.generation
	callbacks := speech.Callbacks{
		OnPartial: func(text string) { s.applyPartial(sess, text, generation) },
		OnFinal:   func(text string) { s.finalizeSpeech(sess, text, generation) },
		OnError:   func(err error) { s.speechFailed(sess, err, generation) },
	}

	if !capture.IsAvailable() {
		s.fallBackToTextLocked(sess)
		return speech.ErrUnavailable
	}
	if err := capture.Start(callbacks); err != nil {
		s.fallBackToTextLocked(sess)
		return err
	}

	sess.inputMode = model.InputModeVoice
	sess.pending = ""
	sess.lastActive = time.Now().UTC()
	s.publish(Event{Type: EventInput, SessionID: sess.id, InputMode: model.InputModeVoice})
	s.setStateLocked(sess, model.ModalStateListening)
	return nil
}

// StopListening ends voice capture. A non-empty pending transcript is
// treated as a final answer and auto-submitted.
func (s *Service) StopListening(id string) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.capture != nil {
		sess.capture.Stop()
	}
	sess.lastActive = time.Now().UTC()

	if strings.TrimSpace(sess.pending) != "" {
		s.submitLocked(sess, sess.pending)
		return nil
	}

	if sess.state == model.ModalStateTranscribing {
		s.setStateLocked(sess, model.ModalStateListening)
	}
	return nil
}

// UseTextInput is the explicit "I'd rather type" choice.
func (s *Service) UseTextInput(id string) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.capture != nil {
		sess.capture.Stop()
	}
	s.fallBackToTextLocked(sess)
	return nil
}

// applyPartial replaces the pending input with the latest cumulative
// partial. Partials are whole-utterance text, never deltas.
func (s *Service) applyPartial(sess *session, text string, generation uint64) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.generation != generation || sess.inputMode != model.InputModeVoice {
		return
	}
	if sess.state != model.ModalStateListening && sess.state != model.ModalStateTranscribing {
		return
	}

	sess.pending = text
	sess.lastActive = time.Now().UTC()
	s.setStateLocked(sess, model.ModalStateTranscribing)
	s.publish(Event{Type: EventPartial, SessionID: sess.id, Text: text})
}

// finalizeSpeech treats the recognizer's final utterance as the answer
// and submits it through the usual guarded path.
func (s *Service) finalizeSpeech(sess *session, text string, generation uint64) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.generation != generation || sess.inputMode != model.InputModeVoice {
		return
	}

	if strings.TrimSpace(text) == "" {
		text = sess.pending
	}
	if sess.capture != nil {
		sess.capture.Stop()
	}
	s.submitLocked(sess, text)
}

// speechFailed routes a recognizer error into the text fallback.
func (s *Service) speechFailed(sess *session, err error, generation uint64) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.generation != generation {
		return
	}

	log.Printf("[dialogue] speech capture failed for session=%s: %v", sess.id, err)
	s.fallBackToTextLocked(sess)
}

func (s *Service) fallBackToTextLocked(sess *session) {
	if sess.inputMode == model.InputModeText {
		return
	}
	sess.inputMode = model.InputModeText
	sess.lastActive = time.Now().UTC()
	s.publish(Event{Type: EventInput, SessionID: sess.id, InputMode: model.InputModeText})
	if sess.state == model.ModalStateTranscribing {
		s.setStateLocked(sess, model.ModalStateListening)
	}
}
