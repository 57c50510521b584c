package speech

import (
	"errors"
	"testing"
)

type recorder struct {
	partials []string
	finals   []string
	errs     []error
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnPartial: func(text string) { r.partials = append(r.partials, text) },
		OnFinal:   func(text string) { r.finals = append(r.finals, text) },
		OnError:   func(err error) { r.errs = append(r.errs, err) },
	}
}

func TestRelayDropsEventsWhileIdle(t *testing.T) {
	relay := NewRelay()
	rec := &recorder{}

	relay.Partial("hello")
	relay.Final("hello there")

	if err := relay.Start(rec.callbacks()); err != nil {
		t.Fatalf("Start err: %v", err)
	}
	if len(rec.partials) != 0 || len(rec.finals) != 0 {
		t.Fatal("events before Start must be dropped")
	}
}

func TestRelayRoutesWhileListening(t *testing.T) {
	relay := NewRelay()
	rec := &recorder{}

	if !relay.IsAvailable() {
		t.Fatal("relay must report available")
	}
	if err := relay.Start(rec.callbacks()); err != nil {
		t.Fatalf("Start err: %v", err)
	}

	relay.Partial("we do")
	relay.Partial("we do saas")
	relay.Final("we do saas, five reps")

	if len(rec.partials) != 2 || rec.partials[1] != "we do saas" {
		t.Fatalf("unexpected partials: %v", rec.partials)
	}
	if len(rec.finals) != 1 || rec.finals[0] != "we do saas, five reps" {
		t.Fatalf("unexpected finals: %v", rec.finals)
	}

	relay.Stop()
	relay.Partial("late chatter")
	if len(rec.partials) != 2 {
		t.Fatal("events after Stop must be dropped")
	}
}

func TestRelayFailReportsOnceAndGoesIdle(t *testing.T) {
	relay := NewRelay()
	rec := &recorder{}

	if err := relay.Start(rec.callbacks()); err != nil {
		t.Fatalf("Start err: %v", err)
	}

	cause := errors.New("not-allowed")
	relay.Fail(cause)
	relay.Fail(errors.New("again"))
	relay.Partial("after error")

	if len(rec.errs) != 1 || !errors.Is(rec.errs[0], cause) {
		t.Fatalf("expected a single error report, got %v", rec.errs)
	}
	if len(rec.partials) != 0 {
		t.Fatal("no partials may be routed after an error")
	}
}

func TestUnavailableCapture(t *testing.T) {
	var capture Capture = Unavailable{}

	if capture.IsAvailable() {
		t.Fatal("Unavailable must report unavailable")
	}
	if err := capture.Start(Callbacks{}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
