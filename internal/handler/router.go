package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	dialogueHandler "github.com/leadline/diagnostic/backend/internal/handler/dialogue"
	speechHandler "github.com/leadline/diagnostic/backend/internal/handler/speech"
	streamHandler "github.com/leadline/diagnostic/backend/internal/handler/stream"
	middlewarePkg "github.com/leadline/diagnostic/backend/internal/middleware"
	dialogueService "github.com/leadline/diagnostic/backend/internal/service/dialogue"
)

// NewRouter wires HTTP routes to the dialogue service.
func NewRouter(sessions *dialogueService.Service, broker *streamHandler.Broker) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		dialogueHandler.New(sessions).RegisterRoutes(api)
		streamHandler.New(sessions, broker).RegisterRoutes(api)
		speechHandler.New(sessions).RegisterRoutes(api)
	})

	return r
}
