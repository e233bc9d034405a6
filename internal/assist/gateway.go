// Package assist is the completion gateway: quota check, prompt assembly,
// one provider call and one interaction log write per request.
package assist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/db"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/llm"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/prompt"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/quota"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/repository"
)

// User-facing copy for soft failures.
const (
	FallbackMessage        = "You're doing thoughtful work here. Take a moment with your own ideas, and try the assistant again shortly."
	ProviderErrorMessage   = "The assistant is unavailable right now."
	SummaryErrorMessage    = "Failed to generate structured summary"
	rateLimitSessionFormat = "Rate limit exceeded: this session has used all %d assistant requests."
	rateLimitDailyFormat   = "Rate limit exceeded: the daily limit of %d assistant requests has been reached."
	rateLimitStageFormat   = "Rate limit exceeded: this step has used all %d assistant requests."
)

// Rates is the provider's published price per million tokens.
type Rates struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultRates returns the stock pricing.
func DefaultRates() Rates {
	return Rates{InputPerMillion: 3.00, OutputPerMillion: 15.00}
}

// Cost prices a completion in USD.
func (r Rates) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1e6*r.InputPerMillion + float64(outputTokens)/1e6*r.OutputPerMillion
}

// Request is one assistance request.
type Request struct {
	UserID    string
	SessionID string
	Stage     domain.Stage
	UserInput string
	Context   domain.SessionContext
}

// Gateway sends assembled prompts to the provider and records every attempt.
// Requests from the same user are serialised from the quota check through
// the log write; different users never wait on each other.
type Gateway struct {
	ledger       *quota.Ledger
	assembler    *prompt.Assembler
	provider     llm.Provider
	uow          db.UnitOfWork
	interactions repository.InteractionRepo
	rates        Rates
	guard        *quota.KeyedMutex
	observer     RequestObserver
}

// Option configures a Gateway.
type Option func(*Gateway)

func WithRates(r Rates) Option {
	return func(g *Gateway) { g.rates = r }
}

func WithObserver(o RequestObserver) Option {
	return func(g *Gateway) { g.observer = o }
}

func NewGateway(
	ledger *quota.Ledger,
	assembler *prompt.Assembler,
	provider llm.Provider,
	uow db.UnitOfWork,
	interactions repository.InteractionRepo,
	opts ...Option,
) *Gateway {
	g := &Gateway{
		ledger:       ledger,
		assembler:    assembler,
		provider:     provider,
		uow:          uow,
		interactions: interactions,
		rates:        DefaultRates(),
		guard:        quota.NewKeyedMutex(),
		observer:     NoopRequestObserver{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Complete runs one assistance request. A non-nil error means the request
// could not be accounted for (quota read or log write failed); every other
// outcome is described by the Result.
func (g *Gateway) Complete(ctx context.Context, req Request) (*Result, error) {
	res, _, err := g.run(ctx, "complete", llm.CallAssist, req)
	return res, err
}

// CompleteTurn runs a dialogue request and decodes the provider's answer
// into a Turn.
func (g *Gateway) CompleteTurn(ctx context.Context, req Request) (*Result, error) {
	res, comp, err := g.run(ctx, "complete_turn", llm.CallDialogue, req)
	if err != nil || comp == nil {
		return res, err
	}
	res.Turn = parseTurn(comp.Text)
	return res, nil
}

// SummaryRequest asks for the end-of-session summary.
type SummaryRequest struct {
	UserID    string
	SessionID string
	Session   domain.SessionContext
	Notes     string
}

// Summarize runs the summary stage and decodes the structured summary.
// Undecodable output degrades to KindMalformedSummary with the raw text as
// the fallback; the interaction is logged either way.
func (g *Gateway) Summarize(ctx context.Context, req SummaryRequest) (*Result, error) {
	res, comp, err := g.run(ctx, "summarize", llm.CallSummary, Request{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Stage:     domain.StageSummary,
		UserInput: req.Notes,
		Context:   req.Session,
	})
	if err != nil || comp == nil {
		return res, err
	}

	summary, perr := llm.ExtractJSON(comp.Text, validateSummary)
	if perr != nil {
		res.Kind = KindMalformedSummary
		res.Success = false
		res.Error = SummaryErrorMessage
		res.Fallback = comp.Text
		return res, nil
	}
	res.Summary = &summary
	return res, nil
}

func validateSummary(s domain.Summary) error {
	var missing []string
	if strings.TrimSpace(s.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(s.ProblemOverview) == "" {
		missing = append(missing, "problem_overview")
	}
	if strings.TrimSpace(s.ActionPlan.PrimaryAction) == "" {
		missing = append(missing, "action_plan.primary_action")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// SetFeedback attaches a helpfulness flag to an interaction of sessionID.
// It reports false when the interaction does not exist in that session.
func (g *Gateway) SetFeedback(ctx context.Context, sessionID string, interactionID int64, helpful bool) (bool, error) {
	return g.interactions.SetFeedback(ctx, sessionID, interactionID, helpful)
}

// Usage returns the current usage snapshot.
func (g *Gateway) Usage(ctx context.Context, userID, sessionID string) (domain.UsageSnapshot, error) {
	return g.ledger.CheckLimits(ctx, userID, sessionID)
}

func (g *Gateway) run(ctx context.Context, op string, kind llm.CallKind, req Request) (res *Result, comp *llm.Completion, err error) {
	start := time.Now()
	event := RequestEvent{Operation: op, Stage: req.Stage, SessionID: req.SessionID}
	defer func() {
		event.Duration = time.Since(start)
		event.Err = err
		if res != nil {
			event.Kind = res.Kind
			event.InteractionID = res.InteractionID
			event.CostUSD = res.Cost
		}
		g.observer.ObserveRequest(ctx, event)
	}()

	unlock := g.guard.Lock(req.UserID)
	defer unlock()

	before, err := g.ledger.CheckLimits(ctx, req.UserID, req.SessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("checking limits: %w", err)
	}
	if msg, limited := rateLimitMessage(before, req.Stage); limited {
		return &Result{
			Kind:     KindRateLimited,
			Error:    msg,
			Fallback: FallbackMessage,
			Usage:    before,
			Stage:    req.Stage,
		}, nil, nil
	}

	p, ok := g.assembler.Assemble(req.Stage, req.UserInput, req.Context)
	if !ok {
		return &Result{Kind: KindNoAssistance, Success: true, Usage: before, Stage: req.Stage}, nil, nil
	}
	event.ResolvedStage = p.Stage

	// Once sent, a provider call and its log write complete even if the
	// caller goes away.
	ctx = context.WithoutCancel(ctx)

	interaction := &domain.Interaction{
		SessionID:       req.SessionID,
		UserID:          req.UserID,
		Stage:           req.Stage,
		UserInput:       req.UserInput,
		ContextSnapshot: req.Context,
	}

	comp, callErr := g.provider.Complete(ctx, llm.CompletionRequest{
		Kind:         kind,
		SystemPrompt: p.System,
		UserPrompt:   p.Text,
	})
	if callErr != nil {
		interaction.Status = domain.InteractionError
		interaction.ErrorMessage = callErr.Error()
		if err := g.log(ctx, interaction); err != nil {
			return nil, nil, err
		}
		return &Result{
			Kind:          KindProviderError,
			InteractionID: interaction.ID,
			Error:         ProviderErrorMessage,
			Fallback:      FallbackMessage,
			Usage:         before,
			Stage:         p.Stage,
		}, nil, nil
	}

	interaction.Status = domain.InteractionOK
	interaction.ResponseText = comp.Text
	interaction.InputTokens = comp.InputTokens
	interaction.OutputTokens = comp.OutputTokens
	interaction.CostUSD = g.rates.Cost(comp.InputTokens, comp.OutputTokens)
	if err := g.log(ctx, interaction); err != nil {
		return nil, nil, err
	}

	after, err := g.ledger.CheckLimits(ctx, req.UserID, req.SessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("refreshing usage: %w", err)
	}

	return &Result{
		Kind:          KindSuccess,
		Success:       true,
		InteractionID: interaction.ID,
		Response:      comp.Text,
		Cost:          interaction.CostUSD,
		TokensUsed:    interaction.TokensUsed(),
		Usage:         after,
		Stage:         p.Stage,
	}, comp, nil
}

func (g *Gateway) log(ctx context.Context, i *domain.Interaction) error {
	err := g.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		_, err := repository.NewSQLiteInteractionRepo(tx).Create(ctx, i)
		return err
	})
	if err != nil {
		return fmt.Errorf("logging interaction: %w", err)
	}
	return nil
}

func rateLimitMessage(u domain.UsageSnapshot, stage domain.Stage) (string, bool) {
	switch {
	case !u.SessionAllowed:
		return fmt.Sprintf(rateLimitSessionFormat, u.SessionLimit), true
	case !u.DailyAllowed:
		return fmt.Sprintf(rateLimitDailyFormat, u.DailyLimit), true
	case !u.CanUseStage(stage):
		return fmt.Sprintf(rateLimitStageFormat, u.StageLimit), true
	}
	return "", false
}
