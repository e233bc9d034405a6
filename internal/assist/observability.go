package assist

import (
	"context"
	"log/slog"
	"time"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
)

// RequestEvent is emitted once per gateway request.
type RequestEvent struct {
	Operation     string
	Stage         domain.Stage
	ResolvedStage domain.Stage
	SessionID     string
	Kind          Kind
	InteractionID int64
	CostUSD       float64
	Duration      time.Duration
	Err           error
}

// RequestObserver receives gateway request events.
type RequestObserver interface {
	ObserveRequest(ctx context.Context, event RequestEvent)
}

// NoopRequestObserver ignores all events.
type NoopRequestObserver struct{}

func (NoopRequestObserver) ObserveRequest(context.Context, RequestEvent) {}

type logRequestObserver struct {
	logger *slog.Logger
}

// NewLogRequestObserver writes one assist_request line per event.
func NewLogRequestObserver(logger *slog.Logger) RequestObserver {
	if logger == nil {
		return NoopRequestObserver{}
	}
	return &logRequestObserver{logger: logger}
}

func (o *logRequestObserver) ObserveRequest(ctx context.Context, event RequestEvent) {
	attrs := []any{
		"operation", event.Operation,
		"stage", event.Stage,
		"resolved_stage", event.ResolvedStage,
		"session_id", event.SessionID,
		"kind", event.Kind,
		"interaction_id", event.InteractionID,
		"cost_usd", event.CostUSD,
		"duration_ms", event.Duration.Milliseconds(),
	}
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
		o.logger.ErrorContext(ctx, "assist_request", attrs...)
		return
	}
	o.logger.InfoContext(ctx, "assist_request", attrs...)
}
