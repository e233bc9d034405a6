package repository

import (
	"context"
	"time"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
)

// InteractionRepo is the append-only interaction log plus the feedback store.
type InteractionRepo interface {
	// Create appends an interaction and returns its id. The id is also set
	// on i.
	Create(ctx context.Context, i *domain.Interaction) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Interaction, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Interaction, error)

	// SetFeedback overwrites the helpfulness flag of an interaction that
	// belongs to sessionID. It reports false when no such interaction exists.
	SetFeedback(ctx context.Context, sessionID string, id int64, helpful bool) (bool, error)

	UsageSince(ctx context.Context, userID string, since time.Time) (domain.DailyUsage, error)
	UsageFor(ctx context.Context, sessionID string) (domain.SessionUsage, error)
}

// SessionRepo is the minimal session store the engine scopes usage by.
type SessionRepo interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	Delete(ctx context.Context, id string) error
}
