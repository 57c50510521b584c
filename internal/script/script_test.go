package script

import (
	"testing"

	"github.com/leadline/diagnostic/backend/internal/model/dialogue"
)

func TestSeedScriptedIndices(t *testing.T) {
	s := Seed()

	for idx, phase := range map[int]dialogue.Phase{
		0: dialogue.PhaseCuriosity,
		2: dialogue.PhaseConcern,
		4: dialogue.PhaseCrisis,
	} {
		step, ok := s.StepFor(idx)
		if !ok {
			t.Fatalf("expected a step at turn index %d", idx)
		}
		if step.Phase != phase {
			t.Fatalf("step %d: expected phase %s, got %s", idx, phase, step.Phase)
		}
		if step.AgentText == "" {
			t.Fatalf("step %d has no agent text", idx)
		}
	}

	if _, ok := s.StepFor(1); ok {
		t.Fatal("turn index 1 must not be scripted")
	}
}

func TestSeedDiagnosisStep(t *testing.T) {
	s := Seed()

	step, ok := s.StepFor(4)
	if !ok {
		t.Fatal("missing diagnosis step")
	}
	if !step.ComputeEstimate {
		t.Fatal("diagnosis step must compute the estimate")
	}
	if step.Deferred == nil {
		t.Fatal("diagnosis step must schedule the follow-up")
	}
	if step.Deferred.Delay != DefaultFollowUpDelay {
		t.Fatalf("unexpected follow-up delay: %v", step.Deferred.Delay)
	}
	if !step.Deferred.RevealCTAs || step.Deferred.Phase != dialogue.PhaseRelief {
		t.Fatal("follow-up must reveal CTAs in the relief phase")
	}
}

func TestFallbackRotates(t *testing.T) {
	s := Seed()

	if len(s.Fallbacks) < 2 {
		t.Fatal("expected multiple fallback lines")
	}
	if s.Fallback(1) == "" || s.Fallback(3) == "" {
		t.Fatal("fallback lines must not be empty")
	}
	if s.Fallback(1) != s.Fallback(1+len(s.Fallbacks)) {
		t.Fatal("fallback rotation must be deterministic per index")
	}
	if s.Fallback(-5) == "" {
		t.Fatal("negative index must still return a line")
	}
}

func TestSeedOpeningAndApology(t *testing.T) {
	s := Seed()
	if s.OpeningLine == "" {
		t.Fatal("missing opening line")
	}
	if s.Apology == "" {
		t.Fatal("missing apology line")
	}
}
