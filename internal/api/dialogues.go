package api

import (
	"errors"
	"net/http"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/assist"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/dialogue"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) registerDialogueRoutes(r chi.Router) {
	r.Post("/open", h.OpenDialogue)
	r.Get("/{sessionId}", h.DialogueState)
	r.Post("/answer", h.dialogueTurn(func(c *dialogue.Controller, req *http.Request, body dialogueRequest) (*assist.Result, error) {
		return c.Answer(req.Context(), body.Answer)
	}))
	r.Post("/skip", h.dialogueTurn(func(c *dialogue.Controller, req *http.Request, _ dialogueRequest) (*assist.Result, error) {
		return c.Skip(req.Context())
	}))
	r.Post("/more", h.dialogueTurn(func(c *dialogue.Controller, req *http.Request, _ dialogueRequest) (*assist.Result, error) {
		return c.GenerateMore(req.Context())
	}))
	r.Post("/back", h.dialogueEdit(func(c *dialogue.Controller, _ dialogueRequest) error {
		c.Back()
		return nil
	}))
	r.Post("/select", h.dialogueEdit(func(c *dialogue.Controller, body dialogueRequest) error {
		if body.Selected != nil && !*body.Selected {
			return c.Deselect(body.Option)
		}
		return c.Select(body.Option)
	}))
	r.Post("/custom", h.dialogueEdit(func(c *dialogue.Controller, body dialogueRequest) error {
		return c.SetCustom(body.Text)
	}))
	r.Post("/confirm", h.ConfirmDialogue)
	r.Post("/cancel", h.CancelDialogue)
}

type openDialogueRequest struct {
	SessionID      string                `json:"sessionId"`
	Subject        string                `json:"subject"`
	SessionContext domain.SessionContext `json:"sessionContext"`
	MaxItems       int                   `json:"maxItems"`
	ExistingItems  int                   `json:"existingItems"`
	Resume         bool                  `json:"resume"`
}

type dialogueRequest struct {
	SessionID string `json:"sessionId"`
	Answer    string `json:"answer"`
	Option    string `json:"option"`
	Selected  *bool  `json:"selected"`
	Text      string `json:"text"`
}

type dialogueResponse struct {
	State  dialogue.State `json:"state"`
	Result *assist.Result `json:"result,omitempty"`
}

func topicParam(r *http.Request) (domain.Topic, bool) {
	t := chi.URLParam(r, "topic")
	return domain.Topic(t), domain.ValidTopics[t]
}

// OpenDialogue handles POST /api/ai/dialogues/{topic}/open.
func (h *Handler) OpenDialogue(w http.ResponseWriter, r *http.Request) {
	topic, ok := topicParam(r)
	if !ok {
		Error(w, http.StatusBadRequest, "unknown topic")
		return
	}
	var req openDialogueRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s, ok := h.session(w, r, req.SessionID)
	if !ok {
		return
	}

	c, res, err := h.dialogues.Open(r.Context(), dialogue.Params{
		UserID:        s.UserID,
		SessionID:     s.ID,
		Topic:         topic,
		Subject:       req.Subject,
		Context:       req.SessionContext,
		MaxItems:      req.MaxItems,
		ExistingItems: req.ExistingItems,
	}, req.Resume)
	if err != nil {
		h.dialogueError(w, r, err)
		return
	}
	if c == nil {
		JSON(w, res.HTTPStatus(), dialogueResponse{Result: res})
		return
	}
	if res == nil {
		JSON(w, http.StatusOK, dialogueResponse{State: c.State()})
		return
	}
	JSON(w, res.HTTPStatus(), dialogueResponse{State: c.State(), Result: res})
}

// DialogueState handles GET /api/ai/dialogues/{topic}/{sessionId}.
func (h *Handler) DialogueState(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r, chi.URLParam(r, "sessionId"))
	if !ok {
		return
	}
	JSON(w, http.StatusOK, dialogueResponse{State: c.State()})
}

// ConfirmDialogue handles POST /api/ai/dialogues/{topic}/confirm.
func (h *Handler) ConfirmDialogue(w http.ResponseWriter, r *http.Request) {
	key, ok := h.dialogueKey(w, r)
	if !ok {
		return
	}
	conf, err := h.dialogues.Confirm(key)
	if err != nil {
		h.dialogueError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, conf)
}

// CancelDialogue handles POST /api/ai/dialogues/{topic}/cancel.
func (h *Handler) CancelDialogue(w http.ResponseWriter, r *http.Request) {
	key, ok := h.dialogueKey(w, r)
	if !ok {
		return
	}
	if err := h.dialogues.Cancel(key); err != nil {
		h.dialogueError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, dialogue.Confirmation{Items: []string{}})
}

func (h *Handler) dialogueTurn(op func(*dialogue.Controller, *http.Request, dialogueRequest) (*assist.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body dialogueRequest
		if err := decode(w, r, &body); err != nil {
			Error(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		c, ok := h.controller(w, r, body.SessionID)
		if !ok {
			return
		}
		res, err := op(c, r, body)
		if err != nil {
			h.dialogueError(w, r, err)
			return
		}
		JSON(w, res.HTTPStatus(), dialogueResponse{State: c.State(), Result: res})
	}
}

func (h *Handler) dialogueEdit(op func(*dialogue.Controller, dialogueRequest) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body dialogueRequest
		if err := decode(w, r, &body); err != nil {
			Error(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		c, ok := h.controller(w, r, body.SessionID)
		if !ok {
			return
		}
		if err := op(c, body); err != nil {
			h.dialogueError(w, r, err)
			return
		}
		JSON(w, http.StatusOK, dialogueResponse{State: c.State()})
	}
}

func (h *Handler) dialogueKey(w http.ResponseWriter, r *http.Request) (dialogue.Key, bool) {
	topic, ok := topicParam(r)
	if !ok {
		Error(w, http.StatusBadRequest, "unknown topic")
		return dialogue.Key{}, false
	}
	var body dialogueRequest
	if err := decode(w, r, &body); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return dialogue.Key{}, false
	}
	if body.SessionID == "" {
		Error(w, http.StatusBadRequest, "sessionId is required")
		return dialogue.Key{}, false
	}
	return dialogue.Key{SessionID: body.SessionID, Topic: topic}, true
}

func (h *Handler) controller(w http.ResponseWriter, r *http.Request, sessionID string) (*dialogue.Controller, bool) {
	topic, ok := topicParam(r)
	if !ok {
		Error(w, http.StatusBadRequest, "unknown topic")
		return nil, false
	}
	c, err := h.dialogues.Get(dialogue.Key{SessionID: sessionID, Topic: topic})
	if err != nil {
		h.dialogueError(w, r, err)
		return nil, false
	}
	return c, true
}

func (h *Handler) dialogueError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, dialogue.ErrNoDialogue):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dialogue.ErrUnknownTopic), errors.Is(err, dialogue.ErrUnknownOption):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, dialogue.ErrDialogueOpen),
		errors.Is(err, dialogue.ErrWrongPhase),
		errors.Is(err, dialogue.ErrSelectionLimit),
		errors.Is(err, dialogue.ErrGenerationsExhausted),
		errors.Is(err, dialogue.ErrTurnInFlight):
		Error(w, http.StatusConflict, err.Error())
	default:
		h.internalError(w, r, "dialogue request", err)
	}
}
