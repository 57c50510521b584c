package script

import (
	"time"

	"github.com/leadline/diagnostic/backend/internal/model/dialogue"
)

// DefaultFollowUpDelay is how long after the diagnosis the "fixable"
// follow-up appears.
const DefaultFollowUpDelay = 3 * time.Second

// Seed returns the default funnel-diagnostic script used on the
// marketing site.
func Seed() Script {
	return Script{
		OpeningLine: "Hi, I'm the Leadline diagnostic agent. In a couple of " +
			"questions I can usually tell where a sales funnel is leaking. " +
			"To start: what do you sell, and who does the selling today?",
		Apology: "Sorry, I lost my train of thought there. Could you say " +
			"that again?",
		Steps: []Step{
			{
				MatchTurnIndex: 0,
				AgentText: "Got it. And where does it grind to a halt? " +
					"Booking the first meeting, keeping deals moving, or " +
					"getting a signature at the end?",
				Phase: dialogue.PhaseCuriosity,
			},
			{
				MatchTurnIndex: 2,
				AgentText: "That matches what I see a lot. Think about the " +
					"last deal you were sure about that went quiet anyway. " +
					"What happened in the final two weeks?",
				Phase: dialogue.PhaseConcern,
			},
			{
				MatchTurnIndex: 4,
				AgentText: "Here's the uncomfortable part: based on what " +
					"you've described, your pipeline isn't slow, it's " +
					"leaking. Deals are dying in the gap between interest " +
					"and follow-through, and that gap has a price tag.",
				Phase:           dialogue.PhaseCrisis,
				ComputeEstimate: true,
				Deferred: &Deferred{
					Text: "The good news: this is the most fixable problem " +
						"in sales. It's a process gap, not a market " +
						"problem. Here's how we'd close it.",
					Phase:      dialogue.PhaseRelief,
					RevealCTAs: true,
					Delay:      DefaultFollowUpDelay,
				},
			},
		},
		Fallbacks: []string{
			"Understood. Tell me a bit more about how that plays out.",
			"Okay, noted. What else stands out when you look at last quarter?",
			"That's useful context. Keep going.",
		},
	}
}
