package engine

import (
	"errors"
	"strings"

	"github.com/leadline/diagnostic/backend/internal/model/dialogue"
	"github.com/leadline/diagnostic/backend/internal/script"
)

var (
	ErrEmptyInput        = errors.New("user text is empty")
	ErrNegativeTurnIndex = errors.New("turn index is negative")
)

// Config bounds the randomized annual-cost estimate.
type Config struct {
	CostFloor int
	CostSpan  int
}

// DefaultConfig mirrors the marketing site's published estimate band.
func DefaultConfig() Config {
	return Config{CostFloor: 150000, CostSpan: 300000}
}

// Result is one synchronous engine step: exactly one agent turn, the
// phase after it, and optionally an estimate plus a deferred follow-up.
// The deferred follow-up is data describing what to schedule; the
// engine never touches timers.
type Result struct {
	AgentText   string
	Phase       dialogue.Phase
	Estimate    *dialogue.EconomicEstimate
	CTAsVisible bool
	Deferred    *script.Deferred
}

// Engine turns user submissions into scripted agent responses.
// Selection is keyed purely on the user-turn index; userText is stored
// by the caller but never parsed for intent. The engine is pure: all
// randomness comes through the injected RandomSource.
type Engine struct {
	script script.Script
	cfg    Config
}

func New(s script.Script, cfg Config) *Engine {
	if cfg.CostFloor <= 0 {
		cfg.CostFloor = DefaultConfig().CostFloor
	}
	if cfg.CostSpan <= 0 {
		cfg.CostSpan = DefaultConfig().CostSpan
	}
	return &Engine{script: s, cfg: cfg}
}

// Script exposes the underlying script for callers that need the
// opening line or apology text.
func (e *Engine) Script() script.Script {
	return e.script
}

// NextTurn computes the agent response for the given user-turn index.
// turnIndex counts user turns already recorded before this call,
// starting at zero. Callers validate input before invoking; the errors
// here only guard against violated preconditions.
func (e *Engine) NextTurn(userText string, turnIndex int, current dialogue.Phase, rng RandomSource) (Result, error) {
	if strings.TrimSpace(userText) == "" {
		return Result{}, ErrEmptyInput
	}
	if turnIndex < 0 {
		return Result{}, ErrNegativeTurnIndex
	}

	step, ok := e.script.StepFor(turnIndex)
	if !ok {
		// Unscripted turn: acknowledge and keep the current phase.
		return Result{
			AgentText: e.script.Fallback(turnIndex),
			Phase:     current,
		}, nil
	}

	res := Result{
		AgentText: step.AgentText,
		Phase:     step.Phase,
		Deferred:  step.Deferred,
	}
	if step.ComputeEstimate {
		annual := float64(e.cfg.CostFloor + rng.IntN(e.cfg.CostSpan))
		est := dialogue.NewEconomicEstimate(annual, relatableComparison(annual))
		res.Estimate = &est
	}
	return res, nil
}

// relatableComparison picks display copy for the annual band. Kept
// deterministic so the only randomness in a session is the draw itself.
func relatableComparison(annual float64) string {
	switch {
	case annual < 225000:
		return "roughly a fully loaded senior account executive, lost every year"
	case annual < 300000:
		return "about the cost of a two-person SDR pod, gone before it books a meeting"
	case annual < 375000:
		return "more than most companies' entire annual marketing budget"
	default:
		return "enough to fund a whole new product line, leaking out of the funnel"
	}
}
