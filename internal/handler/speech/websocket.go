// Package speech bridges the browser's speech recognizer to a dialogue
// session. The browser runs the platform recognizer and relays its
// lifecycle over a websocket; this handler feeds the events into the
// session's capture relay.
package speech

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	dialogueService "github.com/leadline/diagnostic/backend/internal/service/dialogue"
	speechService "github.com/leadline/diagnostic/backend/internal/service/speech"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Handler upgrades speech relay connections.
type Handler struct {
	sessions *dialogueService.Service
	upgrader websocket.Upgrader
}

func New(sessions *dialogueService.Service) *Handler {
	return &Handler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dialogue/{sessionID}/speech", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// transcriptPayload carries recognizer text. Partial text is the whole
// utterance so far, not a delta.
type transcriptPayload struct {
	Text string `json:"text"`
}

type errorPayload struct {
	Reason string `json:"reason"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	if _, err := h.sessions.Snapshot(sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] speech relay connected for session=%s", sessionID)

	relay := speechService.NewRelay()
	if err := h.sessions.AttachCapture(sessionID, relay); err != nil {
		h.send(conn, sessionID, "error", errorPayload{Reason: err.Error()})
		return
	}
	defer h.sessions.DetachCapture(sessionID, relay)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	h.send(conn, sessionID, "connected", nil)

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			h.send(conn, sessionID, "error", errorPayload{Reason: "session mismatch"})
			continue
		}

		h.handleMessage(conn, sessionID, relay, &msg)
	}
}

func (h *Handler) handleMessage(conn *websocket.Conn, sessionID string, relay *speechService.Relay, msg *inboundMessage) {
	switch msg.Type {
	case "start":
		if err := h.sessions.StartListening(sessionID); err != nil {
			// Capture failures degrade to typed input; the client is
			// told so it can swap the affordance, not shown an error.
			log.Printf("[websocket] start listening failed for session=%s: %v", sessionID, err)
			h.send(conn, sessionID, "text_fallback", nil)
		}
	case "partial":
		var payload transcriptPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			h.send(conn, sessionID, "error", errorPayload{Reason: "invalid partial payload"})
			return
		}
		relay.Partial(payload.Text)
	case "final":
		var payload transcriptPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			h.send(conn, sessionID, "error", errorPayload{Reason: "invalid final payload"})
			return
		}
		relay.Final(payload.Text)
	case "stop":
		if err := h.sessions.StopListening(sessionID); err != nil {
			log.Printf("[websocket] stop listening failed for session=%s: %v", sessionID, err)
		}
	case "error":
		var payload errorPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			payload.Reason = "recognizer error"
		}
		relay.Fail(errors.New(payload.Reason))
	case "text_mode":
		if err := h.sessions.UseTextInput(sessionID); err != nil {
			log.Printf("[websocket] text mode failed for session=%s: %v", sessionID, err)
		}
	default:
		h.send(conn, sessionID, "error", errorPayload{Reason: "unsupported message type: " + msg.Type})
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, sessionID, msgType string, data interface{}) {
	msg := outgoingMessage{
		Type:      msgType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write failed: %v", err)
	}
}
