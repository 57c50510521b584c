package dialogue

import (
	"time"

	model "github.com/leadline/diagnostic/backend/internal/model/dialogue"
)

// EventType tags the session events fanned out to the presentation
// layer.
type EventType string

const (
	EventTurn     EventType = "turn"
	EventPhase    EventType = "phase"
	EventEstimate EventType = "estimate"
	EventCTAs     EventType = "ctas"
	EventState    EventType = "state"
	EventInput    EventType = "input"
	EventPartial  EventType = "partial"
	EventCTAPick  EventType = "cta_selected"
	EventError    EventType = "error"
	EventReset    EventType = "reset"
)

// Event is one observable session change. Only the fields relevant to
// the type are populated.
type Event struct {
	Type      EventType               `json:"type"`
	SessionID string                  `json:"sessionId"`
	Turn      *model.Turn             `json:"turn,omitempty"`
	Phase     model.Phase             `json:"phase,omitempty"`
	Estimate  *model.EconomicEstimate `json:"estimate,omitempty"`
	State     model.ModalState        `json:"state,omitempty"`
	InputMode model.InputMode         `json:"inputMode,omitempty"`
	CTA       model.CTA               `json:"cta,omitempty"`
	Text      string                  `json:"text,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// EventSink receives session events. The HTTP layer fans them out over
// SSE; tests capture them directly.
type EventSink interface {
	Publish(event Event)
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Publish(Event) {}
