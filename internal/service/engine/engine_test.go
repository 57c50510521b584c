package engine_test

import (
	"errors"
	"testing"

	"github.com/leadline/diagnostic/backend/internal/model/dialogue"
	"github.com/leadline/diagnostic/backend/internal/script"
	"github.com/leadline/diagnostic/backend/internal/service/engine"
)

// fixedRand pins the estimate draw for deterministic tests.
type fixedRand struct{ n int }

func (f fixedRand) IntN(bound int) int {
	if f.n < bound {
		return f.n
	}
	return bound - 1
}

func newEngine() *engine.Engine {
	return engine.New(script.Seed(), engine.DefaultConfig())
}

func TestNextTurnOpeningQuestion(t *testing.T) {
	res, err := newEngine().NextTurn("We sell SaaS, five reps", 0, dialogue.PhaseCuriosity, fixedRand{})
	if err != nil {
		t.Fatalf("NextTurn err: %v", err)
	}
	if res.Phase != dialogue.PhaseCuriosity {
		t.Fatalf("expected curiosity phase, got %s", res.Phase)
	}
	if res.AgentText == "" {
		t.Fatal("expected agent text")
	}
	if res.Estimate != nil || res.CTAsVisible || res.Deferred != nil {
		t.Fatal("turn 0 must not produce estimate, CTAs or deferred follow-up")
	}
}

func TestNextTurnProbeEscalatesToConcern(t *testing.T) {
	res, err := newEngine().NextTurn("Deals keep stalling", 2, dialogue.PhaseCuriosity, fixedRand{})
	if err != nil {
		t.Fatalf("NextTurn err: %v", err)
	}
	if res.Phase != dialogue.PhaseConcern {
		t.Fatalf("expected concern phase, got %s", res.Phase)
	}
	if res.Estimate != nil || res.CTAsVisible {
		t.Fatal("turn 2 must not produce estimate or CTAs")
	}
}

func TestNextTurnDiagnosisProducesEstimateAndDeferred(t *testing.T) {
	res, err := newEngine().NextTurn("It just went quiet", 4, dialogue.PhaseConcern, fixedRand{n: 1234})
	if err != nil {
		t.Fatalf("NextTurn err: %v", err)
	}
	if res.Phase != dialogue.PhaseCrisis {
		t.Fatalf("expected crisis phase, got %s", res.Phase)
	}
	if res.Estimate == nil {
		t.Fatal("expected an economic estimate at the diagnosis turn")
	}
	if res.CTAsVisible {
		t.Fatal("CTAs are revealed by the deferred follow-up, not the diagnosis turn")
	}
	if res.Deferred == nil {
		t.Fatal("expected a deferred follow-up")
	}
	if res.Deferred.Phase != dialogue.PhaseRelief || !res.Deferred.RevealCTAs {
		t.Fatalf("deferred follow-up must reveal CTAs in the relief phase, got %+v", res.Deferred)
	}
}

func TestNextTurnEstimateInvariants(t *testing.T) {
	res, err := newEngine().NextTurn("x", 4, dialogue.PhaseConcern, fixedRand{n: 1234})
	if err != nil {
		t.Fatalf("NextTurn err: %v", err)
	}

	est := res.Estimate
	if est.AnnualCost != 151234 {
		t.Fatalf("expected annual cost 151234, got %f", est.AnnualCost)
	}
	if est.MonthlyCost != est.AnnualCost/12 {
		t.Fatalf("monthly cost must be annual/12, got %f", est.MonthlyCost)
	}
	if est.DailyCost != est.AnnualCost/365 {
		t.Fatalf("daily cost must be annual/365, got %f", est.DailyCost)
	}
	if est.RelatableComparison == "" {
		t.Fatal("expected a relatable comparison")
	}
}

func TestNextTurnEstimateStaysInBand(t *testing.T) {
	eng := newEngine()
	rng := engine.NewRand()
	for i := 0; i < 200; i++ {
		res, err := eng.NextTurn("x", 4, dialogue.PhaseConcern, rng)
		if err != nil {
			t.Fatalf("NextTurn err: %v", err)
		}
		annual := res.Estimate.AnnualCost
		if annual < 150000 || annual >= 450000 {
			t.Fatalf("annual cost out of band: %f", annual)
		}
	}
}

func TestNextTurnUnscriptedKeepsPhase(t *testing.T) {
	eng := newEngine()
	for _, idx := range []int{1, 3, 5, 6, 17} {
		res, err := eng.NextTurn("more detail", idx, dialogue.PhaseConcern, fixedRand{})
		if err != nil {
			t.Fatalf("NextTurn(%d) err: %v", idx, err)
		}
		if res.Phase != dialogue.PhaseConcern {
			t.Fatalf("turn %d must not change the phase, got %s", idx, res.Phase)
		}
		if res.Estimate != nil || res.CTAsVisible || res.Deferred != nil {
			t.Fatalf("turn %d must be a plain acknowledgment", idx)
		}
		if res.AgentText == "" {
			t.Fatalf("turn %d returned empty acknowledgment", idx)
		}
	}
}

func TestNextTurnPreconditions(t *testing.T) {
	eng := newEngine()

	if _, err := eng.NextTurn("   ", 0, dialogue.PhaseCuriosity, fixedRand{}); !errors.Is(err, engine.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := eng.NextTurn("hello", -1, dialogue.PhaseCuriosity, fixedRand{}); !errors.Is(err, engine.ErrNegativeTurnIndex) {
		t.Fatalf("expected ErrNegativeTurnIndex, got %v", err)
	}
}
