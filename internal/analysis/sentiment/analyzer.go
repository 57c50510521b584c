// Package sentiment tags visitor answers with a coarse mood label for
// display and telemetry. The label never influences which scripted
// response is selected; turn routing stays strictly turn-index keyed.
package sentiment

import "strings"

// Label is the annotation attached to a user turn.
type Label string

const (
	Neutral    Label = "neutral"
	Frustrated Label = "frustrated"
	Worried    Label = "worried"
	Hopeful    Label = "hopeful"
)

// Decision carries the chosen label and its keyword score.
type Decision struct {
	Label Label
	Score int
}

var keywordBuckets = map[Label][]string{
	Frustrated: {
		"frustrat", "annoying", "sick of", "tired of", "fed up", "wasting",
		"waste of", "nothing works", "gave up", "churn", "ghosted", "stalled",
		"stuck", "painful", "mess",
	},
	Worried: {
		"worried", "worry", "concern", "afraid", "scared", "nervous", "risk",
		"losing", "lost", "miss", "missed", "quota", "behind", "slipping",
		"dry up", "drying up", "no pipeline",
	},
	Hopeful: {
		"hope", "excited", "great", "good", "improving", "better", "growing",
		"growth", "won", "closed", "signed", "love", "happy",
	},
}

// Analyze scores the answer against the keyword buckets and returns
// the strongest label, neutral when nothing matches.
func Analyze(text string) Decision {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Decision{Label: Neutral}
	}

	scores := make(map[Label]int)
	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[label] += 3
			}
		}
	}

	// Exclamation marks read as heat, not optimism, in a sales-pain
	// conversation.
	if bangs := strings.Count(text, "!"); bangs > 1 {
		scores[Frustrated] += bangs
	}

	best := Neutral
	bestScore := 0
	for label, s := range scores {
		if s > bestScore {
			best = label
			bestScore = s
		}
	}
	return Decision{Label: best, Score: bestScore}
}
