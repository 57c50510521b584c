// Package agent is the backend boundary behind the dialogue
// controller's diagnose call. The default implementation simulates the
// round-trip locally from the script; deployments with model
// credentials can swap in the LLM-backed variant without the
// controller changing.
package agent

import (
	"context"

	"github.com/leadline/diagnostic/backend/internal/model/dialogue"
	"github.com/leadline/diagnostic/backend/internal/service/engine"
)

// Backend resolves one user submission into the next agent turn.
type Backend interface {
	Diagnose(ctx context.Context, userMessage string, turnIndex int, phase dialogue.Phase) (engine.Result, error)
}
