package stream

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	dialogueService "github.com/leadline/diagnostic/backend/internal/service/dialogue"
	"github.com/leadline/diagnostic/backend/pkg/utils"
)

const heartbeatInterval = 15 * time.Second

// Handler serves the per-session SSE event stream the modal renders
// from.
type Handler struct {
	sessions *dialogueService.Service
	broker   *Broker
}

func New(sessions *dialogueService.Service, broker *Broker) *Handler {
	return &Handler{sessions: sessions, broker: broker}
}

// RegisterRoutes mounts the event stream endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dialogue/{sessionID}/events", h.handleEvents)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	snapshot, err := h.sessions.Snapshot(sessionID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dialogueService.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	events, cancel := h.broker.Subscribe(sessionID)
	defer cancel()

	utils.SetupSSEHeaders(w)

	// The snapshot lets a client that connects mid-session catch up
	// before live events start.
	utils.SendSSEEvent(w, flusher, "snapshot", snapshot)

	ctx := r.Context()
	log.Printf("[sse] stream opened for session=%s", sessionID)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] stream closed for session=%s", sessionID)
			return
		case event := <-events:
			utils.SendSSEEvent(w, flusher, string(event.Type), event)
		case t := <-ticker.C:
			utils.SendSSEChunk(w, flusher, map[string]any{
				"event": "heartbeat",
				"time":  t.UTC().Format(time.RFC3339),
			})
		}
	}
}
