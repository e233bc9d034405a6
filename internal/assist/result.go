package assist

import (
	"net/http"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
)

// Kind classifies the outcome of a gateway call. Every kind except
// KindSuccess and KindNoAssistance is a soft failure: it carries a fallback
// sentence for the user instead of a Go error.
type Kind string

const (
	KindSuccess          Kind = "success"
	KindNoAssistance     Kind = "no_assistance"
	KindRateLimited      Kind = "rate_limited"
	KindProviderError    Kind = "provider_error"
	KindMalformedSummary Kind = "malformed_summary"
)

// TurnKind discriminates dialogue turns.
type TurnKind string

const (
	TurnQuestion     TurnKind = "question"
	TurnOptionsReady TurnKind = "optionsReady"
)

// Turn is a decoded dialogue step.
type Turn struct {
	Kind     TurnKind `json:"kind"`
	Question string   `json:"question,omitempty"`
	Analysis string   `json:"analysis,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// Result is what a gateway call returns to its caller.
type Result struct {
	Kind          Kind                 `json:"kind"`
	Success       bool                 `json:"success"`
	InteractionID int64                `json:"interactionId,omitempty"`
	Response      string               `json:"response"`
	Error         string               `json:"error,omitempty"`
	Fallback      string               `json:"fallback,omitempty"`
	Cost          float64              `json:"cost"`
	TokensUsed    int                  `json:"tokensUsed"`
	Usage         domain.UsageSnapshot `json:"usage"`
	Stage         domain.Stage         `json:"stage,omitempty"`
	Turn          *Turn                `json:"turn,omitempty"`
	Summary       *domain.Summary      `json:"summary,omitempty"`
}

// HTTPStatus maps the result kind onto a response code.
func (r *Result) HTTPStatus() int {
	switch r.Kind {
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindProviderError, KindMalformedSummary:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
