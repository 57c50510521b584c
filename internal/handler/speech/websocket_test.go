package speech

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	model "github.com/leadline/diagnostic/backend/internal/model/dialogue"
	"github.com/leadline/diagnostic/backend/internal/script"
	"github.com/leadline/diagnostic/backend/internal/service/agent"
	dialogueService "github.com/leadline/diagnostic/backend/internal/service/dialogue"
	"github.com/leadline/diagnostic/backend/internal/service/engine"
)

func setup(t *testing.T) (*httptest.Server, *dialogueService.Service, string) {
	t.Helper()

	eng := engine.New(script.Seed(), engine.DefaultConfig())
	backend := agent.NewSimulated(eng, engine.NewRand(), 0)
	svc := dialogueService.NewService(backend, script.Seed(), nil, dialogueService.Config{})

	snap, err := svc.Open("")
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}

	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return server, svc, snap.ID
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/dialogue/" + sessionID + "/speech"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// First frame is the connected acknowledgment.
	var hello struct {
		Type string `json:"type"`
	}
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Type != "connected" {
		t.Fatalf("expected connected frame, got %q", hello.Type)
	}
	return conn
}

func sendMessage(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()

	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("marshal data: %v", err)
		}
		raw = encoded
	}
	if err := conn.WriteJSON(map[string]interface{}{
		"type":      msgType,
		"data":      raw,
		"timestamp": time.Now().UnixMilli(),
	}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func waitForSnapshot(t *testing.T, svc *dialogueService.Service, id, what string, cond func(model.Snapshot) bool) model.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, err := svc.Snapshot(id)
		if err != nil {
			t.Fatalf("Snapshot err: %v", err)
		}
		if cond(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketUnknownSession(t *testing.T) {
	server, _, _ := setup(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/dialogue/missing/speech"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail for unknown session")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake rejection, got %+v", resp)
	}
}

func TestWebSocketVoiceRoundTrip(t *testing.T) {
	server, svc, sessionID := setup(t)
	conn := dial(t, server, sessionID)

	sendMessage(t, conn, "start", nil)
	waitForSnapshot(t, svc, sessionID, "voice mode", func(s model.Snapshot) bool {
		return s.InputMode == model.InputModeVoice && s.State == model.ModalStateListening
	})

	sendMessage(t, conn, "partial", map[string]string{"text": "we sell"})
	sendMessage(t, conn, "partial", map[string]string{"text": "we sell hardware"})
	waitForSnapshot(t, svc, sessionID, "partial", func(s model.Snapshot) bool {
		return s.PendingInput == "we sell hardware"
	})

	sendMessage(t, conn, "stop", nil)
	got := waitForSnapshot(t, svc, sessionID, "auto-submit", func(s model.Snapshot) bool {
		return !s.AwaitingAgent && len(s.Transcript) == 3
	})
	if got.Transcript[1].Text != "we sell hardware" {
		t.Fatalf("unexpected submitted text: %q", got.Transcript[1].Text)
	}
}

func TestWebSocketRecognizerError(t *testing.T) {
	server, svc, sessionID := setup(t)
	conn := dial(t, server, sessionID)

	sendMessage(t, conn, "start", nil)
	waitForSnapshot(t, svc, sessionID, "voice mode", func(s model.Snapshot) bool {
		return s.InputMode == model.InputModeVoice
	})

	sendMessage(t, conn, "error", map[string]string{"reason": "not-allowed"})
	waitForSnapshot(t, svc, sessionID, "text fallback", func(s model.Snapshot) bool {
		return s.InputMode == model.InputModeText
	})
}
