package dialogue

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	model "github.com/leadline/diagnostic/backend/internal/model/dialogue"
	dialogueService "github.com/leadline/diagnostic/backend/internal/service/dialogue"
	"github.com/leadline/diagnostic/backend/pkg/utils"
)

// Handler exposes the dialogue session commands over HTTP.
type Handler struct {
	sessions *dialogueService.Service
}

func New(sessions *dialogueService.Service) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes mounts the session command surface.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/dialogue", h.handleOpen)
	r.Get("/dialogue/{sessionID}", h.handleSnapshot)
	r.Post("/dialogue/{sessionID}/answer", h.handleAnswer)
	r.Post("/dialogue/{sessionID}/cta", h.handleSelectCTA)
	r.Delete("/dialogue/{sessionID}", h.handleClose)
}

// handleOpen opens the modal: a new session without an id in the body,
// or a reopen of an existing one (which re-seeds the script when the
// prior session was closed).
func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID string `json:"id"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	snapshot, err := h.sessions.Open(payload.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if payload.ID != "" {
		status = http.StatusOK
	}
	utils.RespondJSON(w, status, snapshot)
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.sessions.Snapshot(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snapshot)
}

// handleAnswer submits a typed answer. Guarded submissions (blank
// text, agent already thinking, script finished) are reported as
// ignored rather than failed; the guards are part of the contract, not
// errors.
func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	accepted, err := h.sessions.Submit(chi.URLParam(r, "sessionID"), payload.Text)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if !accepted {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "processing"})
}

func (h *Handler) handleSelectCTA(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CTA model.CTA `json:"cta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target, err := h.sessions.SelectCTA(chi.URLParam(r, "sessionID"), payload.CTA)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"cta":    string(payload.CTA),
		"target": target,
	})
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(chi.URLParam(r, "sessionID")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dialogueService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dialogueService.ErrUnknownCTA):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, dialogueService.ErrCTAsHidden):
		utils.RespondError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
