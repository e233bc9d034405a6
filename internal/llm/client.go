package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// CompletionRequest holds the parameters for a single completion call.
type CompletionRequest struct {
	Kind         CallKind
	SystemPrompt string
	UserPrompt   string
}

// Completion is the provider's answer together with its token accounting.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
}

// Provider is the external completion service boundary. Implementations must
// not retry: a failed call is reported to the caller exactly once.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// chatClient implements Provider against an OpenAI-compatible
// /chat/completions endpoint.
type chatClient struct {
	cfg      LLMConfig
	http     *http.Client
	observer Observer
}

// NewClient creates a Provider for the configured endpoint.
func NewClient(cfg LLMConfig, observer Observer) Provider {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &chatClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *chatClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	start := time.Now()
	callCfg := c.cfg.Calls[req.Kind]

	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.CallTimeout(req.Kind))*time.Millisecond)
	defer cancel()

	body := chatRequest{
		Model:       c.cfg.Model,
		Temperature: callCfg.Temperature,
		MaxTokens:   callCfg.MaxTokens,
	}
	if req.SystemPrompt != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.UserPrompt})

	resp, err := c.doRequest(ctx, body)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		switch {
		case ctx.Err() != nil:
			err = ErrTimeout
		case isConnectionError(err):
			err = fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		c.observer.OnCallComplete(CallEvent{
			Kind:      req.Kind,
			Model:     c.cfg.Model,
			LatencyMs: latency,
			ErrorCode: errorCode(err),
		})
		return nil, err
	}

	out := &Completion{
		Text:         strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		LatencyMs:    latency,
	}
	c.observer.OnCallComplete(CallEvent{
		Kind:         req.Kind,
		Model:        out.Model,
		LatencyMs:    latency,
		InputTokens:  out.InputTokens,
		OutputTokens: out.OutputTokens,
		Success:      true,
	})
	return out, nil
}

func (c *chatClient) doRequest(ctx context.Context, body chatRequest) (*chatResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimRight(c.cfg.Endpoint, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderStatus, httpResp.StatusCode, truncate(string(respBody), 200))
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrInvalidOutput, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: response has no choices", ErrInvalidOutput)
	}
	return &resp, nil
}

func isConnectionError(err error) bool {
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrProviderUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrProviderStatus):
		return "STATUS"
	case errors.Is(err, ErrInvalidOutput):
		return "INVALID_OUTPUT"
	default:
		return "UNKNOWN"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// DisabledProvider is used when no provider is configured. Every call fails
// with ErrProviderUnavailable.
type DisabledProvider struct{}

func (DisabledProvider) Complete(context.Context, CompletionRequest) (*Completion, error) {
	return nil, fmt.Errorf("no API key configured: %w", ErrProviderUnavailable)
}
