// Package speech defines the capture boundary between a dialogue
// session and whatever speech-recognition capability the visitor's
// platform offers. The session controller only ever sees the Capture
// interface; availability is checked up front and an unavailable
// capability degrades to typed input instead of erroring.
package speech

import "errors"

var ErrUnavailable = errors.New("speech capture unavailable")

// Callbacks receive recognizer output while a capture is listening.
// Partial text is cumulative from the start of the utterance: each
// OnPartial replaces the caller's working buffer, it never appends.
type Callbacks struct {
	OnPartial func(text string)
	OnFinal   func(text string)
	OnError   func(err error)
}

// Capture is a single capture capability owned by one session.
type Capture interface {
	IsAvailable() bool
	Start(cb Callbacks) error
	Stop()
}

// Unavailable is the capture used when no recognizer is attached to a
// session; Start reports ErrUnavailable so the caller falls back to
// typed input.
type Unavailable struct{}

func (Unavailable) IsAvailable() bool     { return false }
func (Unavailable) Start(Callbacks) error { return ErrUnavailable }
func (Unavailable) Stop()                 {}
