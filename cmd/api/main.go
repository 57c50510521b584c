package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/leadline/diagnostic/backend/internal/config"
	"github.com/leadline/diagnostic/backend/internal/handler"
	streamHandler "github.com/leadline/diagnostic/backend/internal/handler/stream"
	"github.com/leadline/diagnostic/backend/internal/script"
	"github.com/leadline/diagnostic/backend/internal/service/agent"
	dialogueService "github.com/leadline/diagnostic/backend/internal/service/dialogue"
	"github.com/leadline/diagnostic/backend/internal/service/engine"
)

const janitorInterval = 5 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	eng := engine.New(script.Seed(), engine.Config{
		CostFloor: cfg.Dialogue.CostFloor,
		CostSpan:  cfg.Dialogue.CostSpan,
	})
	rng := engine.NewRand()

	// The simulated backend is always the default; model credentials
	// swap in the rewording backend without touching the controller.
	var backend agent.Backend = agent.NewSimulated(eng, rng, cfg.Dialogue.AgentDelay)
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
			log.Println("continuing with the scripted agent only")
		} else if llm, err := agent.NewLLM(ctx, chatModel, eng, rng, cfg.AI.Timeout); err != nil {
			log.Printf("warning: failed to initialize LLM backend: %v", err)
		} else {
			backend = llm
			log.Println("LLM rewording backend initialized")
		}
	} else {
		log.Println("Ark credentials not configured, using the scripted agent")
	}

	broker := streamHandler.NewBroker()
	sessions := dialogueService.NewService(backend, script.Seed(), broker, dialogueService.Config{
		FollowUpDelay: cfg.Dialogue.FollowUpDelay,
		CTATargets:    cfg.Dialogue.CTATargets,
	})

	go runJanitor(ctx, sessions, cfg.Dialogue.SessionTTL)

	router := handler.NewRouter(sessions, broker)
	startServer(ctx, cfg.Server, router)
}

func runJanitor(ctx context.Context, sessions *dialogueService.Service, ttl time.Duration) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := sessions.ExpireIdle(ttl); removed > 0 {
				log.Printf("[janitor] expired %d idle sessions", removed)
			}
		}
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Leadline diagnostic backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
