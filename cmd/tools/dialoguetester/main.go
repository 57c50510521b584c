// dialoguetester runs the scripted diagnostic dialogue in the
// terminal, against the same controller the API serves, so the script
// and timing can be exercised without a browser.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/leadline/diagnostic/backend/internal/config"
	"github.com/leadline/diagnostic/backend/internal/script"
	"github.com/leadline/diagnostic/backend/internal/service/agent"
	dialogueService "github.com/leadline/diagnostic/backend/internal/service/dialogue"
	"github.com/leadline/diagnostic/backend/internal/service/engine"
)

type consoleSink struct {
	events chan dialogueService.Event
}

func (s *consoleSink) Publish(event dialogueService.Event) {
	s.events <- event
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] no .env file, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	delay := flag.Duration("delay", cfg.Dialogue.AgentDelay, "simulated agent round-trip delay")
	flag.Parse()

	eng := engine.New(script.Seed(), engine.Config{
		CostFloor: cfg.Dialogue.CostFloor,
		CostSpan:  cfg.Dialogue.CostSpan,
	})
	backend := agent.NewSimulated(eng, engine.NewRand(), *delay)

	sink := &consoleSink{events: make(chan dialogueService.Event, 64)}
	sessions := dialogueService.NewService(backend, script.Seed(), sink, dialogueService.Config{
		FollowUpDelay: cfg.Dialogue.FollowUpDelay,
		CTATargets:    cfg.Dialogue.CTATargets,
	})

	go printEvents(sink.events)

	snapshot, err := sessions.Open("")
	if err != nil {
		log.Fatalf("failed to open session: %v", err)
	}

	fmt.Println("--- funnel diagnostic (type your answers, ctrl-d to quit) ---")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		accepted, err := sessions.Submit(snapshot.ID, scanner.Text())
		if err != nil {
			log.Fatalf("submit failed: %v", err)
		}
		if !accepted {
			fmt.Println("(ignored)")
		}
	}

	// Let trailing events drain before exiting.
	time.Sleep(250 * time.Millisecond)
}

func printEvents(events <-chan dialogueService.Event) {
	for event := range events {
		switch event.Type {
		case dialogueService.EventTurn:
			fmt.Printf("[%s] %s\n", event.Turn.Role, event.Turn.Text)
		case dialogueService.EventPhase:
			fmt.Printf("(phase: %s)\n", event.Phase)
		case dialogueService.EventEstimate:
			fmt.Printf("(estimate: %.0f/yr, %.0f/mo, %.0f/day; %s)\n",
				event.Estimate.AnnualCost, event.Estimate.MonthlyCost,
				event.Estimate.DailyCost, event.Estimate.RelatableComparison)
		case dialogueService.EventCTAs:
			fmt.Println("(calls to action revealed: analysis, call, sprint)")
		case dialogueService.EventError:
			fmt.Printf("(error: %s)\n", event.Text)
		}
	}
}
