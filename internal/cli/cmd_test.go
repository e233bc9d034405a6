package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/app"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/config"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/llm"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queueProvider struct {
	mu      sync.Mutex
	texts   []string
	prompts []string
}

func (p *queueProvider) push(texts ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts = append(p.texts, texts...)
}

func (p *queueProvider) lastPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.prompts) == 0 {
		return ""
	}
	return p.prompts[len(p.prompts)-1]
}

func (p *queueProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, req.UserPrompt)
	text := "What would change if this were solved?"
	if len(p.texts) > 0 {
		text, p.texts = p.texts[0], p.texts[1:]
	}
	return &llm.Completion{Text: text, InputTokens: 100, OutputTokens: 50}, nil
}

func newTestApp(t *testing.T) (*App, *queueProvider) {
	t.Helper()
	cfg := &config.Config{
		Port:     "0",
		DBPath:   ":memory:",
		Limits:   config.LimitConfig{Session: 5, Daily: 10, Stage: 5},
		Rates:    config.RateConfig{InputPerMillion: 3, OutputPerMillion: 15},
		Router:   config.RouterConfig{MinInputLength: 10, MinWordLength: 3},
		Dialogue: config.DialogueConfig{SelectionLimit: 3, MaxGenerations: 2},
		LLM:      llm.DefaultConfig(),
	}
	provider := &queueProvider{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := app.New(cfg, logger, app.WithDB(testutil.NewTestDB(t)), app.WithProvider(provider))
	require.NoError(t, err)
	return &App{App: a}, provider
}

func execute(t *testing.T, a *App, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func createSession(t *testing.T, a *App, id string) {
	t.Helper()
	_, err := execute(t, a, "", "session", "create", "--user", "user-1", "--id", id)
	require.NoError(t, err)
}

func TestSessionCommands(t *testing.T) {
	a, _ := newTestApp(t)

	out, err := execute(t, a, "", "session", "create", "--user", "user-1", "--id", "s-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Created session s-1 for user-1")

	out, err = execute(t, a, "", "session", "list", "--user", "user-1")
	require.NoError(t, err)
	assert.Contains(t, out, "s-1")
	assert.Contains(t, out, "REQUESTS")

	out, err = execute(t, a, "", "session", "remove", "s-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed session s-1")

	out, err = execute(t, a, "", "session", "list", "--user", "user-1")
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found.")

	_, err = execute(t, a, "", "session", "remove", "s-1")
	assert.ErrorContains(t, err, "not found")

	_, err = execute(t, a, "", "session", "create")
	assert.Error(t, err, "--user is required")
}

func TestAskCommand(t *testing.T) {
	a, provider := newTestApp(t)
	createSession(t, a, "s-1")

	out, err := execute(t, a, `{"painPoint": "always running late"}`,
		"ask", "root_cause", "--session", "s-1", "--input", "mornings are chaotic", "--context", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "What would change if this were solved?")
	assert.Contains(t, out, "1/5")
	assert.Contains(t, provider.lastPrompt(), "always running late")
	assert.Contains(t, provider.lastPrompt(), "mornings are chaotic")

	out, err = execute(t, a, "", "ask", "pain_point", "--session", "s-1", "--input", "stress", "--json")
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "success", res["kind"])
	assert.Equal(t, float64(2), res["usage"].(map[string]any)["sessionRequests"])

	_, err = execute(t, a, "", "ask", "root_cause", "--session", "nope")
	assert.ErrorContains(t, err, "not found")

	_, err = execute(t, a, "{not json", "ask", "root_cause", "--session", "s-1", "--context", "-")
	assert.ErrorContains(t, err, "parsing context")
}

func TestAskCommand_RateLimited(t *testing.T) {
	a, _ := newTestApp(t)
	createSession(t, a, "s-1")

	for range 5 {
		_, err := execute(t, a, "", "ask", "pain_point", "--session", "s-1", "--input", "stress")
		require.NoError(t, err)
	}
	out, err := execute(t, a, "", "ask", "pain_point", "--session", "s-1", "--input", "stress")
	require.NoError(t, err, "a rate limit is a result, not a command failure")
	assert.Contains(t, out, "RATE LIMITED")
	assert.Contains(t, out, "5/5")
}

func TestUsageAndFeedbackCommands(t *testing.T) {
	a, _ := newTestApp(t)
	createSession(t, a, "s-1")

	out, err := execute(t, a, "", "ask", "pain_point", "--session", "s-1", "--input", "stress", "--json")
	require.NoError(t, err)
	var res struct {
		InteractionID int64 `json:"interactionId"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))

	out, err = execute(t, a, "", "usage", "--session", "s-1")
	require.NoError(t, err)
	assert.Contains(t, out, "ASSISTANT USAGE")
	assert.Contains(t, out, "pain_point")

	out, err = execute(t, a, "", "feedback", "--session", "s-1", "--interaction", "1", "--helpful=false")
	require.NoError(t, err)
	assert.Contains(t, out, "not helpful")

	got, err := a.Interactions.GetByID(context.Background(), res.InteractionID)
	require.NoError(t, err)
	require.NotNil(t, got.FeedbackHelpful)
	assert.False(t, *got.FeedbackHelpful)

	out, err = execute(t, a, "", "feedback", "--session", "other", "--interaction", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing recorded")
}

func TestSummaryCommand(t *testing.T) {
	a, provider := newTestApp(t)
	createSession(t, a, "s-1")
	provider.push(
		`{"title":"Calmer mornings","problem_overview":"Late starts.","key_insights":["Prep the night before"],`+
			`"action_plan":{"primary_action":"Lay out clothes","supporting_actions":[],"timeline":"tonight"},`+
			`"feedback":{"strengths":"Honest","areas_for_growth":"Patience"},"conclusion":"You've got this."}`,
		"Sorry, here is prose instead.",
	)

	out, err := execute(t, a, "", "summary", "--session", "s-1")
	require.NoError(t, err)
	assert.Contains(t, out, "CALMER MORNINGS")
	assert.Contains(t, out, "Lay out clothes")

	out, err = execute(t, a, "", "summary", "--session", "s-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Failed to generate structured summary")
	assert.Contains(t, out, "Sorry, here is prose instead.")
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	a, _ := newTestApp(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, a, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout):
		t.Fatal("serve did not return after cancel")
	}
}
