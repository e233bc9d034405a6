package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(endpoint string) LLMConfig {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = endpoint
	cfg.APIKey = "test-key"
	return cfg
}

type recordingObserver struct {
	events []CallEvent
}

func (r *recordingObserver) OnCallComplete(e CallEvent) { r.events = append(r.events, e) }

func writeChat(w http.ResponseWriter, text string, in, out int) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"model": "gpt-4o-mini",
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": text}},
		},
		"usage": map[string]int{"prompt_tokens": in, "completion_tokens": out},
	})
}

func TestChatClient_Complete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "be gentle", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Equal(t, "what is stopping me?", req.Messages[1].Content)
		assert.Equal(t, 500, req.MaxTokens)

		writeChat(w, "  Could the deadline be a symptom?  ", 120, 40)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client := NewClient(testConfig(srv.URL), obs)
	resp, err := client.Complete(context.Background(), CompletionRequest{
		Kind:         CallAssist,
		SystemPrompt: "be gentle",
		UserPrompt:   "what is stopping me?",
	})

	require.NoError(t, err)
	assert.Equal(t, "Could the deadline be a symptom?", resp.Text)
	assert.Equal(t, 120, resp.InputTokens)
	assert.Equal(t, 40, resp.OutputTokens)
	assert.GreaterOrEqual(t, resp.LatencyMs, int64(0))

	require.Len(t, obs.events, 1)
	assert.True(t, obs.events[0].Success)
	assert.Equal(t, 120, obs.events[0].InputTokens)
	assert.Equal(t, CallAssist, obs.events[0].Kind)
}

func TestChatClient_Complete_OmitsEmptySystemPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		writeChat(w, "ok", 1, 1)
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL), nil).Complete(context.Background(), CompletionRequest{
		Kind:       CallAssist,
		UserPrompt: "hello",
	})
	require.NoError(t, err)
}

func TestChatClient_Complete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Calls = map[CallKind]CallConfig{
		CallAssist: {Temperature: 0.7, MaxTokens: 100, TimeoutMs: 50},
	}

	obs := &recordingObserver{}
	_, err := NewClient(cfg, obs).Complete(context.Background(), CompletionRequest{
		Kind:       CallAssist,
		UserPrompt: "test",
	})

	assert.ErrorIs(t, err, ErrTimeout)
	require.Len(t, obs.events, 1)
	assert.False(t, obs.events[0].Success)
	assert.Equal(t, "TIMEOUT", obs.events[0].ErrorCode)
}

func TestChatClient_Complete_Unavailable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1") // nothing listening

	_, err := NewClient(cfg, NoopObserver{}).Complete(context.Background(), CompletionRequest{
		Kind:       CallAssist,
		UserPrompt: "test",
	})

	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestChatClient_Complete_NoRetryOnErrorStatus(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL), NoopObserver{}).Complete(context.Background(), CompletionRequest{
		Kind:       CallAssist,
		UserPrompt: "test",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderStatus)
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, int32(1), attempts.Load())
}

func TestChatClient_Complete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"gpt-4o-mini","choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL), NoopObserver{}).Complete(context.Background(), CompletionRequest{
		Kind:       CallSummary,
		UserPrompt: "test",
	})

	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestChatClient_Complete_EndpointTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		writeChat(w, "ok", 1, 1)
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL+"/"), nil).Complete(context.Background(), CompletionRequest{
		Kind:       CallDialogue,
		UserPrompt: "test",
	})
	require.NoError(t, err)
}
