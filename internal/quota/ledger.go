// Package quota enforces the per-session, per-user-per-day and per-stage
// request ceilings. Usage is always derived from the interaction log.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
)

// Limits are the request ceilings. Zero disables nothing; a zero limit
// refuses every request.
type Limits struct {
	Session int
	Daily   int
	Stage   int
}

// DefaultLimits returns the stock ceilings.
func DefaultLimits() Limits {
	return Limits{Session: 5, Daily: 10, Stage: 5}
}

// UsageStore is the slice of the interaction log the ledger reads.
type UsageStore interface {
	UsageSince(ctx context.Context, userID string, since time.Time) (domain.DailyUsage, error)
	UsageFor(ctx context.Context, sessionID string) (domain.SessionUsage, error)
}

// Ledger answers "may this request proceed?" from persisted usage.
type Ledger struct {
	store  UsageStore
	limits Limits
	now    func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used to find the start of the day.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(store UsageStore, limits Limits, opts ...Option) *Ledger {
	l := &Ledger{store: store, limits: limits, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limits returns the configured ceilings.
func (l *Ledger) Limits() Limits { return l.limits }

// CheckLimits builds the usage snapshot for a user and session. The daily
// window starts at 00:00 UTC of the current day.
func (l *Ledger) CheckLimits(ctx context.Context, userID, sessionID string) (domain.UsageSnapshot, error) {
	daily, err := l.store.UsageSince(ctx, userID, StartOfUTCDay(l.now()))
	if err != nil {
		return domain.UsageSnapshot{}, fmt.Errorf("reading daily usage: %w", err)
	}
	session, err := l.store.UsageFor(ctx, sessionID)
	if err != nil {
		return domain.UsageSnapshot{}, fmt.Errorf("reading session usage: %w", err)
	}

	byStage := session.ByStage
	if byStage == nil {
		byStage = map[domain.Stage]int{}
	}

	return domain.UsageSnapshot{
		DailyRequests:   daily.Requests,
		DailyLimit:      l.limits.Daily,
		DailyCost:       daily.CostUSD,
		DailyAllowed:    daily.Requests < l.limits.Daily,
		SessionRequests: session.Requests,
		SessionLimit:    l.limits.Session,
		SessionAllowed:  session.Requests < l.limits.Session,
		StageUsage:      byStage,
		StageLimit:      l.limits.Stage,
	}, nil
}

// StartOfUTCDay truncates t to midnight UTC.
func StartOfUTCDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
