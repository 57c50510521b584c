package dialogue

import "time"

// InputMode records how the visitor is currently answering.
type InputMode string

const (
	InputModeUnset InputMode = ""
	InputModeVoice InputMode = "voice"
	InputModeText  InputMode = "text"
)

// ModalState models the dialogue modal lifecycle.
type ModalState string

const (
	ModalStateInitial      ModalState = "initial"
	ModalStateListening    ModalState = "listening"
	ModalStateTranscribing ModalState = "transcribing"
	ModalStateProcessing   ModalState = "processing"
	ModalStateResults      ModalState = "results"
)

// CTA identifies a terminal call-to-action.
type CTA string

const (
	CTAAnalysis CTA = "analysis"
	CTACall     CTA = "call"
	CTASprint   CTA = "sprint"
)

// ValidCTA reports whether id names a known call-to-action.
func ValidCTA(id CTA) bool {
	return id == CTAAnalysis || id == CTACall || id == CTASprint
}

// Snapshot is the read-only view of a session handed to the
// presentation layer. The controller owns the mutable state; clients
// only ever see copies.
type Snapshot struct {
	ID            string            `json:"id"`
	State         ModalState        `json:"state"`
	Phase         Phase             `json:"phase"`
	InputMode     InputMode         `json:"inputMode,omitempty"`
	Transcript    []Turn            `json:"transcript"`
	PendingInput  string            `json:"pendingInput,omitempty"`
	AwaitingAgent bool              `json:"awaitingAgent"`
	Estimate      *EconomicEstimate `json:"estimate,omitempty"`
	CTAsVisible   bool              `json:"ctasVisible"`
	CreatedAt     time.Time         `json:"createdAt"`
}
