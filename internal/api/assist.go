package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/assist"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type createSessionRequest struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
}

type sessionResponse struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{SessionID: s.ID, UserID: s.UserID, CreatedAt: s.CreatedAt}
}

// CreateSession handles POST /api/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		Error(w, http.StatusBadRequest, "userId is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	s := &domain.Session{ID: req.SessionID, UserID: req.UserID, CreatedAt: time.Now().UTC()}
	if err := h.sessions.Create(r.Context(), s); err != nil {
		h.internalError(w, r, "creating session", err)
		return
	}
	JSON(w, http.StatusCreated, toSessionResponse(s))
}

// GetSession handles GET /api/sessions/{sessionId}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r, chi.URLParam(r, "sessionId"))
	if !ok {
		return
	}
	JSON(w, http.StatusOK, toSessionResponse(s))
}

// DeleteSession handles DELETE /api/sessions/{sessionId}. The session's
// interactions go with it.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r, chi.URLParam(r, "sessionId"))
	if !ok {
		return
	}
	if err := h.sessions.Delete(r.Context(), s.ID); err != nil {
		h.internalError(w, r, "deleting session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assistRequest struct {
	SessionID      string                `json:"sessionId"`
	Stage          string                `json:"stage"`
	UserInput      string                `json:"userInput"`
	SessionContext domain.SessionContext `json:"sessionContext"`
}

// Assist handles POST /api/ai/assist.
func (h *Handler) Assist(w http.ResponseWriter, r *http.Request) {
	var req assistRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Stage == "" {
		Error(w, http.StatusBadRequest, "stage is required")
		return
	}
	s, ok := h.session(w, r, req.SessionID)
	if !ok {
		return
	}

	res, err := h.assistant.Complete(r.Context(), assist.Request{
		UserID:    s.UserID,
		SessionID: s.ID,
		Stage:     domain.Stage(req.Stage),
		UserInput: req.UserInput,
		Context:   req.SessionContext,
	})
	if err != nil {
		h.internalError(w, r, "assist request", err)
		return
	}
	JSON(w, res.HTTPStatus(), res)
}

// Usage handles GET /api/ai/usage/{sessionId}.
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r, chi.URLParam(r, "sessionId"))
	if !ok {
		return
	}
	snap, err := h.assistant.Usage(r.Context(), s.UserID, s.ID)
	if err != nil {
		h.internalError(w, r, "reading usage", err)
		return
	}
	JSON(w, http.StatusOK, snap)
}

type feedbackRequest struct {
	SessionID     string `json:"sessionId"`
	InteractionID int64  `json:"interactionId"`
	Helpful       *bool  `json:"helpful"`
}

// Feedback handles POST /api/ai/feedback. Feedback for an interaction that
// is not in the session is accepted and ignored.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" || req.InteractionID <= 0 || req.Helpful == nil {
		Error(w, http.StatusBadRequest, "sessionId, interactionId and helpful are required")
		return
	}

	updated, err := h.assistant.SetFeedback(r.Context(), req.SessionID, req.InteractionID, *req.Helpful)
	if err != nil {
		h.internalError(w, r, "recording feedback", err)
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"success": true, "updated": updated})
}

type summaryRequest struct {
	SessionID   string                `json:"sessionId"`
	SessionData domain.SessionContext `json:"sessionData"`
	Notes       string                `json:"notes"`
}

// Summary handles POST /api/ai/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s, ok := h.session(w, r, req.SessionID)
	if !ok {
		return
	}

	res, err := h.assistant.Summarize(r.Context(), assist.SummaryRequest{
		UserID:    s.UserID,
		SessionID: s.ID,
		Session:   req.SessionData,
		Notes:     req.Notes,
	})
	if err != nil {
		h.internalError(w, r, "summary request", err)
		return
	}
	JSON(w, res.HTTPStatus(), res)
}
