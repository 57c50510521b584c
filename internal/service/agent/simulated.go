package agent

import (
	"context"
	"time"

	"github.com/leadline/diagnostic/backend/internal/model/dialogue"
	"github.com/leadline/diagnostic/backend/internal/service/engine"
)

// DefaultRoundTripDelay stands in for the network latency of a real
// agent call.
const DefaultRoundTripDelay = 1500 * time.Millisecond

// Simulated answers from the script after a fixed artificial delay.
type Simulated struct {
	engine *engine.Engine
	rng    engine.RandomSource
	delay  time.Duration
}

// NewSimulated builds the default backend. A zero delay disables the
// artificial latency, which tests rely on.
func NewSimulated(eng *engine.Engine, rng engine.RandomSource, delay time.Duration) *Simulated {
	return &Simulated{engine: eng, rng: rng, delay: delay}
}

func (s *Simulated) Diagnose(ctx context.Context, userMessage string, turnIndex int, phase dialogue.Phase) (engine.Result, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return engine.Result{}, ctx.Err()
		}
	}
	return s.engine.NextTurn(userMessage, turnIndex, phase, s.rng)
}
