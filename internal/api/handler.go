// Package api provides the HTTP surface of the assistance engine.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/assist"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/dialogue"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/repository"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Assistant is the gateway surface the handlers use.
type Assistant interface {
	Complete(ctx context.Context, req assist.Request) (*assist.Result, error)
	Summarize(ctx context.Context, req assist.SummaryRequest) (*assist.Result, error)
	SetFeedback(ctx context.Context, sessionID string, interactionID int64, helpful bool) (bool, error)
	Usage(ctx context.Context, userID, sessionID string) (domain.UsageSnapshot, error)
}

// Handler serves the assistance API.
type Handler struct {
	assistant Assistant
	dialogues *dialogue.Registry
	sessions  repository.SessionRepo
	logger    *slog.Logger
}

func NewHandler(assistant Assistant, dialogues *dialogue.Registry, sessions repository.SessionRepo, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{assistant: assistant, dialogues: dialogues, sessions: sessions, logger: logger}
}

// NewRouter mounts the handler behind the standard middleware stack.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(CORS(allowedOrigins))
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers every API route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Get("/{sessionId}", h.GetSession)
		r.Delete("/{sessionId}", h.DeleteSession)
	})
	r.Route("/api/ai", func(r chi.Router) {
		r.Post("/assist", h.Assist)
		r.Get("/usage/{sessionId}", h.Usage)
		r.Post("/feedback", h.Feedback)
		r.Post("/summary", h.Summary)
		r.Route("/dialogues/{topic}", h.registerDialogueRoutes)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}

// session resolves sessionID to its owner, writing the error response when
// it cannot.
func (h *Handler) session(w http.ResponseWriter, r *http.Request, sessionID string) (*domain.Session, bool) {
	if sessionID == "" {
		Error(w, http.StatusBadRequest, "sessionId is required")
		return nil, false
	}
	s, err := h.sessions.GetByID(r.Context(), sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		Error(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	if err != nil {
		h.internalError(w, r, "loading session", err)
		return nil, false
	}
	return s, true
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		"error", err,
		"request_id", chiMiddleware.GetReqID(r.Context()),
	)
	Error(w, http.StatusInternalServerError, "internal error")
}
