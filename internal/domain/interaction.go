package domain

import "time"

// Interaction is one exchange with the completion provider. It is immutable
// once written except for FeedbackHelpful.
type Interaction struct {
	ID              int64
	SessionID       string
	UserID          string
	Stage           Stage
	UserInput       string
	ContextSnapshot SessionContext
	ResponseText    string
	InputTokens     int
	OutputTokens    int
	CostUSD         float64
	Status          InteractionStatus
	ErrorMessage    string
	FeedbackHelpful *bool
	CreatedAt       time.Time
}

// TokensUsed returns the sum of input and output tokens.
func (i *Interaction) TokensUsed() int {
	return i.InputTokens + i.OutputTokens
}

type InteractionStatus string

const (
	InteractionOK    InteractionStatus = "ok"
	InteractionError InteractionStatus = "error"
)

// Session ties a wizard run to the user that owns it.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}
