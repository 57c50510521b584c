package script

import (
	"time"

	"github.com/leadline/diagnostic/backend/internal/model/dialogue"
)

// Deferred describes a follow-up agent message that appears some time
// after its trigger step, together with the state it reveals.
type Deferred struct {
	Text       string
	Phase      dialogue.Phase
	RevealCTAs bool
	Delay      time.Duration
}

// Step is one turn-indexed entry of the diagnostic script. Selection is
// keyed on the number of user turns already recorded, never on message
// content.
type Step struct {
	MatchTurnIndex  int
	AgentText       string
	Phase           dialogue.Phase
	ComputeEstimate bool
	Deferred        *Deferred
}

// Script is the full scripted dialogue: an opening line, the ordered
// turn-indexed steps, rotating fallback acknowledgments for every other
// turn, and the fixed apology used when the agent call fails.
type Script struct {
	OpeningLine string
	Apology     string
	Steps       []Step
	Fallbacks   []string
}

// StepFor returns the step matching the given user-turn index, if any.
func (s Script) StepFor(turnIndex int) (Step, bool) {
	for _, step := range s.Steps {
		if step.MatchTurnIndex == turnIndex {
			return step, true
		}
	}
	return Step{}, false
}

// Fallback returns the generic acknowledgment for an unscripted turn
// index, rotating through the configured list.
func (s Script) Fallback(turnIndex int) string {
	if len(s.Fallbacks) == 0 {
		return ""
	}
	if turnIndex < 0 {
		turnIndex = 0
	}
	return s.Fallbacks[turnIndex%len(s.Fallbacks)]
}
