// Package dialogue drives the short clarification conversations that end in
// a small option set the user picks from.
package dialogue

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/assist"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
)

// SkipAnswer is submitted in place of free text when the user skips.
const SkipAnswer = "I'm not sure."

// Turner requests the next dialogue turn.
type Turner interface {
	CompleteTurn(ctx context.Context, req assist.Request) (*assist.Result, error)
}

// Config bounds every dialogue.
type Config struct {
	SelectionLimit int
	MaxGenerations int
}

func DefaultConfig() Config {
	return Config{SelectionLimit: 3, MaxGenerations: 2}
}

// Params describes the dialogue to open.
type Params struct {
	UserID    string
	SessionID string
	Topic     domain.Topic
	// Subject is the item the dialogue is about, e.g. a cause the user
	// wants to dig into.
	Subject string
	// Context is the caller's session context. It is copied per turn and
	// never modified.
	Context domain.SessionContext
	// MaxItems and ExistingItems describe the caller's bounded collection.
	// MaxItems == 0 means unbounded.
	MaxItems      int
	ExistingItems int
}

func (p Params) availableSlots() (int, bool) {
	if p.MaxItems <= 0 {
		return 0, false
	}
	return max(p.MaxItems-p.ExistingItems, 0), true
}

// Controller is one open dialogue. All methods are safe for concurrent use.
// At most one turn is in flight; State stays readable while it is.
type Controller struct {
	mu     sync.Mutex
	turner Turner
	params Params
	stage  domain.Stage
	cfg    Config
	limit  int

	busy          bool
	phase         Phase
	history       []Exchange
	draft         string
	analysis      string
	options       []string
	selected      []string
	custom        string
	regenerations int
}

func newController(turner Turner, cfg Config, p Params) (*Controller, error) {
	stage, ok := p.Topic.DialogueStage()
	if !ok {
		return nil, ErrUnknownTopic
	}
	limit := cfg.SelectionLimit
	if slots, bounded := p.availableSlots(); bounded {
		limit = EffectiveLimit(limit, slots)
	}
	return &Controller{turner: turner, params: p, stage: stage, cfg: cfg, limit: limit}, nil
}

// Start asks for the first question.
func (c *Controller) Start(ctx context.Context) (*assist.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return nil, ErrTurnInFlight
	}
	if len(c.history) > 0 {
		return nil, ErrWrongPhase
	}
	res, _, err := c.request(ctx, "", false)
	return res, err
}

// Answer records the user's reply to the open question and asks for the
// next turn. A blank reply counts as SkipAnswer. If the turn cannot be
// fetched, the answer is withdrawn and kept as the draft.
func (c *Controller) Answer(ctx context.Context, text string) (*assist.Result, error) {
	if strings.TrimSpace(text) == "" {
		text = SkipAnswer
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return nil, ErrTurnInFlight
	}
	if c.phase != PhaseQuestion || !c.awaitingAnswer() {
		return nil, ErrWrongPhase
	}

	c.history = append(c.history, Exchange{Sender: SenderUser, Text: text})
	c.draft = ""
	res, ok, err := c.request(ctx, text, false)
	if err != nil || !ok {
		c.history = c.history[:len(c.history)-1]
		c.draft = text
	}
	return res, err
}

// Skip answers the open question with SkipAnswer.
func (c *Controller) Skip(ctx context.Context) (*assist.Result, error) {
	return c.Answer(ctx, SkipAnswer)
}

// Back undoes the latest step. In the question phase it removes the open
// question and the answer before it; in option selection it discards the
// option set and reopens the last question. The withdrawn answer becomes
// the draft. Back does nothing with fewer than two history entries or while
// a turn is in flight.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy || len(c.history) < 2 {
		return
	}

	if c.phase == PhaseOptionSelection {
		c.phase = PhaseQuestion
		c.options, c.selected, c.custom, c.analysis = nil, nil, "", ""
	}

	// Drop the trailing AI turn, then the answer that prompted it.
	if c.history[len(c.history)-1].Sender == SenderAI {
		c.history = c.history[:len(c.history)-1]
	}
	if n := len(c.history); n > 0 && c.history[n-1].Sender == SenderUser {
		c.draft = c.history[n-1].Text
		c.history = c.history[:n-1]
	}
}

// Select adds option to the selection. Selecting an already selected option
// is a no-op; a selection beyond the limit is rejected without change.
func (c *Controller) Select(option string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseOptionSelection {
		return ErrWrongPhase
	}
	if !slices.Contains(c.options, option) {
		return ErrUnknownOption
	}
	if slices.Contains(c.selected, option) {
		return nil
	}
	if len(c.selected) >= c.limit {
		return ErrSelectionLimit
	}
	c.selected = append(c.selected, option)
	return nil
}

// Deselect removes option from the selection.
func (c *Controller) Deselect(option string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseOptionSelection {
		return ErrWrongPhase
	}
	c.selected = slices.DeleteFunc(c.selected, func(s string) bool { return s == option })
	return nil
}

// SetCustom stores a free-text option. A non-blank custom option replaces
// the multi-select at confirmation, whatever was selected.
func (c *Controller) SetCustom(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseOptionSelection {
		return ErrWrongPhase
	}
	c.custom = strings.TrimSpace(text)
	return nil
}

// CanGenerateMore reports whether GenerateMore would be accepted.
func (c *Controller) CanGenerateMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canGenerate() == nil
}

func (c *Controller) canGenerate() error {
	switch {
	case c.busy:
		return ErrTurnInFlight
	case c.phase != PhaseOptionSelection:
		return ErrWrongPhase
	case c.regenerations >= c.cfg.MaxGenerations:
		return ErrGenerationsExhausted
	case len(c.selected) >= c.limit:
		return ErrSelectionLimit
	}
	return nil
}

// GenerateMore asks for a fresh option set. Selected options are kept; the
// unselected ones are replaced.
func (c *Controller) GenerateMore(ctx context.Context) (*assist.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.canGenerate(); err != nil {
		return nil, err
	}

	res, err := c.fetch(ctx, c.turnRequest("", true))
	if err != nil {
		return nil, err
	}
	if !res.Success || res.Turn == nil || res.Turn.Kind != assist.TurnOptionsReady {
		return res, nil
	}

	fresh := slices.Clone(c.selected)
	for _, o := range res.Turn.Options {
		if !slices.Contains(fresh, o) {
			fresh = append(fresh, o)
		}
	}
	c.options = fresh
	if res.Turn.Analysis != "" {
		c.analysis = res.Turn.Analysis
	}
	c.regenerations++
	return res, nil
}

// Confirm returns the final selection; a custom option wins over the
// multi-select.
func (c *Controller) Confirm() (Confirmation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseOptionSelection {
		return Confirmation{}, ErrWrongPhase
	}

	items := slices.Clone(c.selected)
	if c.custom != "" {
		items = []string{c.custom}
	}
	conf := Confirmation{Items: items, Pending: len(items)}
	if slots, bounded := c.params.availableSlots(); bounded && len(items) > slots {
		conf.Overflow = len(items) - slots
	}
	return conf, nil
}

// TurnIndex is the number of completed question/answer pairs.
func (c *Controller) TurnIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history) / 2
}

// State returns a copy of the dialogue state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Topic:          c.params.Topic,
		Subject:        c.params.Subject,
		Busy:           c.busy,
		Phase:          c.phase,
		History:        slices.Clone(c.history),
		TurnIndex:      len(c.history) / 2,
		Draft:          c.draft,
		Analysis:       c.analysis,
		Options:        slices.Clone(c.options),
		Selected:       slices.Clone(c.selected),
		Custom:         c.custom,
		Regenerations:  c.regenerations,
		MaxGenerations: c.cfg.MaxGenerations,
		SelectionLimit: c.limit,
		CanGenerate:    c.canGenerate() == nil,
	}
}

func (c *Controller) awaitingAnswer() bool {
	n := len(c.history)
	return n > 0 && c.history[n-1].Sender == SenderAI
}

// request fetches the next turn and reports whether it was applied.
func (c *Controller) request(ctx context.Context, input string, regenerate bool) (*assist.Result, bool, error) {
	res, err := c.fetch(ctx, c.turnRequest(input, regenerate))
	if err != nil {
		return nil, false, err
	}
	return res, c.apply(res), nil
}

// fetch sends req with c.mu released and the controller marked busy. The
// caller holds c.mu; it is held again when fetch returns.
func (c *Controller) fetch(ctx context.Context, req assist.Request) (*assist.Result, error) {
	c.busy = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.busy = false
	}()
	return c.turner.CompleteTurn(ctx, req)
}

// apply folds a successful turn into the state.
func (c *Controller) apply(res *assist.Result) bool {
	if !res.Success || res.Turn == nil {
		return false
	}
	switch res.Turn.Kind {
	case assist.TurnOptionsReady:
		c.phase = PhaseOptionSelection
		c.analysis = res.Turn.Analysis
		c.options = slices.Clone(res.Turn.Options)
		c.selected, c.custom = nil, ""
		c.history = append(c.history, Exchange{Sender: SenderAI, Text: res.Turn.Analysis})
	default:
		c.history = append(c.history, Exchange{Sender: SenderAI, Text: res.Turn.Question})
	}
	return true
}

func (c *Controller) turnRequest(input string, regenerate bool) assist.Request {
	ctx := c.params.Context.Clone()
	ctx[domain.KeyTopicSubject] = c.params.Subject
	ctx[domain.KeyRegenerate] = regenerate

	history := make([]any, 0, len(c.history))
	for _, e := range c.history {
		history = append(history, map[string]any{"sender": string(e.Sender), "text": e.Text})
	}
	ctx[domain.KeyHistory] = history
	if len(c.options) > 0 {
		ctx[domain.KeyOptions] = slices.Clone(c.options)
	}

	return assist.Request{
		UserID:    c.params.UserID,
		SessionID: c.params.SessionID,
		Stage:     c.stage,
		UserInput: input,
		Context:   ctx,
	}
}
