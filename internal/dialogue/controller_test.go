package dialogue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/assist"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTurner replays results in order and records every request.
type scriptedTurner struct {
	mu      sync.Mutex
	results []*assist.Result
	err     error
	reqs    []assist.Request
}

func (s *scriptedTurner) CompleteTurn(_ context.Context, req assist.Request) (*assist.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.results) == 0 {
		return question("Anything else?"), nil
	}
	res := s.results[0]
	s.results = s.results[1:]
	return res, nil
}

func (s *scriptedTurner) last() assist.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reqs[len(s.reqs)-1]
}

func question(q string) *assist.Result {
	return &assist.Result{Kind: assist.KindSuccess, Success: true, Turn: &assist.Turn{Kind: assist.TurnQuestion, Question: q}}
}

func options(analysis string, opts ...string) *assist.Result {
	return &assist.Result{Kind: assist.KindSuccess, Success: true, Turn: &assist.Turn{Kind: assist.TurnOptionsReady, Analysis: analysis, Options: opts}}
}

func rateLimited() *assist.Result {
	return &assist.Result{Kind: assist.KindRateLimited, Error: "Rate limit exceeded", Fallback: assist.FallbackMessage}
}

func testParams() Params {
	return Params{
		UserID:    "user-1",
		SessionID: "sess-1",
		Topic:     domain.TopicCause,
		Subject:   "missed deadlines",
		Context:   domain.SessionContext{domain.KeyPainPoint: "work stress"},
	}
}

func startController(t *testing.T, turner *scriptedTurner, cfg Config, p Params) *Controller {
	t.Helper()
	c, err := newController(turner, cfg, p)
	require.NoError(t, err)
	_, err = c.Start(context.Background())
	require.NoError(t, err)
	return c
}

// reachOptions answers three questions and lands in option selection.
func reachOptions(t *testing.T, cfg Config, p Params, opts ...string) (*Controller, *scriptedTurner) {
	t.Helper()
	turner := &scriptedTurner{results: []*assist.Result{
		question("q1"), question("q2"), question("q3"), options("analysis", opts...),
	}}
	c := startController(t, turner, cfg, p)
	for _, a := range []string{"a1", "a2", "a3"} {
		_, err := c.Answer(context.Background(), a)
		require.NoError(t, err)
	}
	require.Equal(t, PhaseOptionSelection, c.State().Phase)
	return c, turner
}

func TestController_AnswerBackRoundTrip(t *testing.T) {
	turner := &scriptedTurner{results: []*assist.Result{question("What happens first?"), question("And then?")}}
	c := startController(t, turner, DefaultConfig(), testParams())
	ctx := context.Background()

	before := c.State()
	require.Len(t, before.History, 1)
	assert.Equal(t, 0, before.TurnIndex)

	_, err := c.Answer(ctx, "my inbox explodes")
	require.NoError(t, err)
	assert.Equal(t, 1, c.TurnIndex())

	c.Back()
	after := c.State()
	assert.Equal(t, before.History, after.History)
	assert.Equal(t, before.TurnIndex, after.TurnIndex)
	assert.Equal(t, before.Phase, after.Phase)
	assert.Equal(t, "my inbox explodes", after.Draft)

	_, err = c.Answer(ctx, "a meeting gets added")
	require.NoError(t, err)
	history := turner.last().Context[domain.KeyHistory].([]any)
	require.Len(t, history, 2)
	assert.Equal(t, "a meeting gets added", history[1].(map[string]any)["text"])
	assert.Empty(t, c.State().Draft)
}

func TestController_Skip(t *testing.T) {
	turner := &scriptedTurner{results: []*assist.Result{question("q1"), question("q2")}}
	c := startController(t, turner, DefaultConfig(), testParams())

	_, err := c.Skip(context.Background())
	require.NoError(t, err)

	st := c.State()
	require.Len(t, st.History, 3)
	assert.Equal(t, Exchange{Sender: SenderUser, Text: "I'm not sure."}, st.History[1])
	assert.Equal(t, 1, st.TurnIndex)
	assert.Equal(t, SkipAnswer, turner.last().UserInput)
}

func TestController_BackNoopWithShortHistory(t *testing.T) {
	c := startController(t, &scriptedTurner{}, DefaultConfig(), testParams())
	before := c.State()
	c.Back()
	assert.Equal(t, before, c.State())
}

func TestController_OptionsReadySwitchesPhase(t *testing.T) {
	c, _ := reachOptions(t, DefaultConfig(), testParams(), "too many meetings", "no buffer", "unclear priorities")

	st := c.State()
	assert.Equal(t, PhaseOptionSelection, st.Phase)
	assert.Equal(t, []string{"too many meetings", "no buffer", "unclear priorities"}, st.Options)
	assert.Equal(t, "analysis", st.Analysis)
	assert.Equal(t, 3, st.TurnIndex)

	_, err := c.Answer(context.Background(), "late answer")
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestController_BackFromOptionSelection(t *testing.T) {
	c, turner := reachOptions(t, DefaultConfig(), testParams(), "x", "y")
	require.NoError(t, c.Select("x"))

	c.Back()
	st := c.State()
	assert.Equal(t, PhaseQuestion, st.Phase)
	assert.Len(t, st.History, 5)
	assert.Equal(t, "q3", st.History[4].Text)
	assert.Equal(t, "a3", st.Draft)
	assert.Empty(t, st.Options)
	assert.Empty(t, st.Selected)

	turner.results = []*assist.Result{options("again", "z")}
	_, err := c.Answer(context.Background(), "a3 revised")
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, c.State().Options)
}

func TestController_SelectionCap(t *testing.T) {
	c, _ := reachOptions(t, DefaultConfig(), testParams(), "a", "b", "c", "d", "e")

	for _, o := range []string{"a", "b", "c"} {
		require.NoError(t, c.Select(o))
	}
	before := c.State()
	assert.ErrorIs(t, c.Select("d"), ErrSelectionLimit)
	assert.Equal(t, before, c.State(), "rejected selection leaves state unchanged")

	require.NoError(t, c.Select("a"), "reselecting is a no-op")
	assert.Equal(t, []string{"a", "b", "c"}, c.State().Selected)

	require.NoError(t, c.SetCustom("  my own cause  "))
	conf, err := c.Confirm()
	require.NoError(t, err)
	assert.Equal(t, []string{"my own cause"}, conf.Items)
	assert.Equal(t, 1, conf.Pending)
}

func TestController_SelectUnknownAndDeselect(t *testing.T) {
	c, _ := reachOptions(t, DefaultConfig(), testParams(), "a", "b")

	assert.ErrorIs(t, c.Select("zzz"), ErrUnknownOption)
	require.NoError(t, c.Select("a"))
	require.NoError(t, c.Select("b"))
	require.NoError(t, c.Deselect("a"))
	assert.Equal(t, []string{"b"}, c.State().Selected)

	require.NoError(t, c.SetCustom("   "))
	conf, err := c.Confirm()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, conf.Items, "blank custom text does not override")
}

func TestController_WrongPhase(t *testing.T) {
	c := startController(t, &scriptedTurner{}, DefaultConfig(), testParams())

	assert.ErrorIs(t, c.Select("a"), ErrWrongPhase)
	assert.ErrorIs(t, c.SetCustom("x"), ErrWrongPhase)
	_, err := c.Confirm()
	assert.ErrorIs(t, err, ErrWrongPhase)
	_, err = c.GenerateMore(context.Background())
	assert.ErrorIs(t, err, ErrWrongPhase)
	_, err = c.Start(context.Background())
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestEffectiveLimit(t *testing.T) {
	tests := []struct {
		limit, slots, want int
	}{
		{3, 5, 3},
		{3, 2, 3},
		{3, 1, 2},
		{3, 0, 1},
		{3, -2, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EffectiveLimit(tt.limit, tt.slots), "limit=%d slots=%d", tt.limit, tt.slots)
	}
}

func TestController_CapacityNarrowsLimitAndReportsOverflow(t *testing.T) {
	p := testParams()
	p.MaxItems, p.ExistingItems = 5, 4
	c, _ := reachOptions(t, DefaultConfig(), p, "a", "b", "c")

	assert.Equal(t, 2, c.State().SelectionLimit)
	require.NoError(t, c.Select("a"))
	require.NoError(t, c.Select("b"))
	assert.ErrorIs(t, c.Select("c"), ErrSelectionLimit)

	conf, err := c.Confirm()
	require.NoError(t, err)
	assert.Equal(t, 2, conf.Pending)
	assert.Equal(t, 1, conf.Overflow)
}

func TestController_GenerateMore(t *testing.T) {
	c, turner := reachOptions(t, DefaultConfig(), testParams(), "a", "b", "c")
	ctx := context.Background()
	require.NoError(t, c.Select("b"))

	turner.results = []*assist.Result{options("fresh", "d", "b", "e")}
	_, err := c.GenerateMore(ctx)
	require.NoError(t, err)

	st := c.State()
	assert.Equal(t, []string{"b", "d", "e"}, st.Options, "selected kept, unselected replaced")
	assert.Equal(t, []string{"b"}, st.Selected)
	assert.Equal(t, 1, st.Regenerations)

	req := turner.last()
	assert.Equal(t, true, req.Context[domain.KeyRegenerate])
	assert.Equal(t, []string{"a", "b", "c"}, req.Context[domain.KeyOptions])
	assert.Equal(t, domain.StageCauseDialogue, req.Stage)

	turner.results = []*assist.Result{options("fresh", "f")}
	_, err = c.GenerateMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, c.State().Regenerations)
	assert.False(t, c.CanGenerateMore())

	_, err = c.GenerateMore(ctx)
	assert.ErrorIs(t, err, ErrGenerationsExhausted)
}

func TestController_GenerateMoreNeedsFreeSlot(t *testing.T) {
	c, _ := reachOptions(t, DefaultConfig(), testParams(), "a", "b", "c", "d")
	for _, o := range []string{"a", "b", "c"} {
		require.NoError(t, c.Select(o))
	}
	assert.False(t, c.CanGenerateMore())
	_, err := c.GenerateMore(context.Background())
	assert.ErrorIs(t, err, ErrSelectionLimit)

	require.NoError(t, c.Deselect("c"))
	assert.True(t, c.CanGenerateMore())
}

func TestController_GenerateMoreFailureKeepsOptions(t *testing.T) {
	c, turner := reachOptions(t, DefaultConfig(), testParams(), "a", "b")
	turner.results = []*assist.Result{rateLimited()}

	res, err := c.GenerateMore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, assist.KindRateLimited, res.Kind)
	assert.Equal(t, []string{"a", "b"}, c.State().Options)
	assert.Equal(t, 0, c.State().Regenerations)
}

func TestController_FailedAnswerBecomesDraft(t *testing.T) {
	turner := &scriptedTurner{results: []*assist.Result{question("q1"), rateLimited()}}
	c := startController(t, turner, DefaultConfig(), testParams())

	res, err := c.Answer(context.Background(), "my answer")
	require.NoError(t, err)
	assert.Equal(t, assist.KindRateLimited, res.Kind)

	st := c.State()
	assert.Len(t, st.History, 1)
	assert.Equal(t, "my answer", st.Draft)

	turner.err = errors.New("log write failed")
	_, err = c.Answer(context.Background(), "again")
	assert.Error(t, err)
	assert.Len(t, c.State().History, 1)
	assert.Equal(t, "again", c.State().Draft)
}

func TestController_RequestShape(t *testing.T) {
	turner := &scriptedTurner{}
	p := testParams()
	startController(t, turner, DefaultConfig(), p)

	req := turner.last()
	assert.Equal(t, "user-1", req.UserID)
	assert.Equal(t, "sess-1", req.SessionID)
	assert.Equal(t, domain.StageCauseDialogue, req.Stage)
	assert.Equal(t, "missed deadlines", req.Context[domain.KeyTopicSubject])
	assert.Equal(t, "work stress", req.Context[domain.KeyPainPoint])
	assert.Equal(t, false, req.Context[domain.KeyRegenerate])
	assert.Len(t, p.Context, 1, "caller context untouched")
}

func TestNewController_UnknownTopic(t *testing.T) {
	p := testParams()
	p.Topic = "weather"
	_, err := newController(&scriptedTurner{}, DefaultConfig(), p)
	assert.ErrorIs(t, err, ErrUnknownTopic)
}

func TestController_BlankAnswerCountsAsSkip(t *testing.T) {
	turner := &scriptedTurner{results: []*assist.Result{question("q1"), question("q2")}}
	c := startController(t, turner, DefaultConfig(), testParams())

	_, err := c.Answer(context.Background(), "   \n")
	require.NoError(t, err)

	st := c.State()
	require.Len(t, st.History, 3)
	assert.Equal(t, Exchange{Sender: SenderUser, Text: SkipAnswer}, st.History[1])
	assert.Equal(t, SkipAnswer, turner.last().UserInput)
}

// gatedTurner holds its single turn until release is closed.
type gatedTurner struct {
	started chan struct{}
	release chan struct{}
}

func (g *gatedTurner) CompleteTurn(ctx context.Context, _ assist.Request) (*assist.Result, error) {
	close(g.started)
	select {
	case <-g.release:
		return question("q1"), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestController_StateReadableWhileTurnInFlight(t *testing.T) {
	turner := &gatedTurner{started: make(chan struct{}), release: make(chan struct{})}
	c, err := newController(turner, DefaultConfig(), testParams())
	require.NoError(t, err)

	startErr := make(chan error, 1)
	go func() {
		_, err := c.Start(context.Background())
		startErr <- err
	}()
	<-turner.started

	states := make(chan State, 1)
	go func() { states <- c.State() }()
	select {
	case st := <-states:
		assert.True(t, st.Busy)
		assert.Empty(t, st.History)
	case <-time.After(2 * time.Second):
		t.Fatal("State blocked on the in-flight turn")
	}

	_, err = c.Answer(context.Background(), "too early")
	assert.ErrorIs(t, err, ErrTurnInFlight)
	_, err = c.Start(context.Background())
	assert.ErrorIs(t, err, ErrTurnInFlight)
	c.Back()

	close(turner.release)
	require.NoError(t, <-startErr)

	st := c.State()
	assert.False(t, st.Busy)
	require.Len(t, st.History, 1)
	assert.Equal(t, "q1", st.History[0].Text)
}
