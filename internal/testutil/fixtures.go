package testutil

import (
	"time"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
	"github.com/google/uuid"
)

// Session options
type SessionOption func(*domain.Session)

func WithSessionID(id string) SessionOption {
	return func(s *domain.Session) {
		s.ID = id
	}
}

func NewTestSession(userID string, opts ...SessionOption) *domain.Session {
	s := &domain.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interaction options
type InteractionOption func(*domain.Interaction)

func WithStage(stage domain.Stage) InteractionOption {
	return func(i *domain.Interaction) {
		i.Stage = stage
	}
}

func WithCreatedAt(t time.Time) InteractionOption {
	return func(i *domain.Interaction) {
		i.CreatedAt = t
	}
}

func WithTokens(input, output int, cost float64) InteractionOption {
	return func(i *domain.Interaction) {
		i.InputTokens = input
		i.OutputTokens = output
		i.CostUSD = cost
	}
}

func WithFailure(msg string) InteractionOption {
	return func(i *domain.Interaction) {
		i.Status = domain.InteractionError
		i.ErrorMessage = msg
	}
}

func NewTestInteraction(s *domain.Session, opts ...InteractionOption) *domain.Interaction {
	i := &domain.Interaction{
		SessionID:       s.ID,
		UserID:          s.UserID,
		Stage:           domain.StageRootCause,
		UserInput:       "I keep missing deadlines",
		ContextSnapshot: domain.SessionContext{domain.KeyPainPoint: "work stress"},
		ResponseText:    "What happens right before a deadline slips?",
		InputTokens:     120,
		OutputTokens:    40,
		CostUSD:         0.00096,
		Status:          domain.InteractionOK,
		CreatedAt:       time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}
