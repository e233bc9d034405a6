package llm

import (
	"os"
	"strconv"
)

// CallKind identifies the kind of completion being requested. Each kind has
// its own sampling and timeout profile.
type CallKind string

const (
	CallAssist   CallKind = "assist"
	CallDialogue CallKind = "dialogue"
	CallSummary  CallKind = "summary"
)

// CallConfig holds per-kind completion parameters.
type CallConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// LLMConfig holds all configuration for the completion provider.
type LLMConfig struct {
	Enabled   bool
	LogCalls  bool
	Endpoint  string
	APIKey    string
	Model     string
	TimeoutMs int
	Calls     map[CallKind]CallConfig
}

// DefaultConfig returns an LLMConfig with sensible defaults.
// The provider is disabled until an API key or endpoint is supplied.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Enabled:   false,
		LogCalls:  false,
		Endpoint:  "https://api.openai.com/v1",
		Model:     "gpt-4o-mini",
		TimeoutMs: 30000,
		Calls: map[CallKind]CallConfig{
			CallAssist:   {Temperature: 0.7, MaxTokens: 500, TimeoutMs: 30000},
			CallDialogue: {Temperature: 0.6, MaxTokens: 700, TimeoutMs: 30000},
			CallSummary:  {Temperature: 0.3, MaxTokens: 1500, TimeoutMs: 60000},
		},
	}
}

// LoadConfig reads provider configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() LLMConfig {
	cfg := DefaultConfig()

	if v := os.Getenv("NUUDLE_LLM_API_KEY"); v != "" {
		cfg.APIKey = v
		cfg.Enabled = true
	}
	if v := os.Getenv("NUUDLE_LLM_ENABLED"); v != "" {
		cfg.Enabled, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("NUUDLE_LLM_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("NUUDLE_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("NUUDLE_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("NUUDLE_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}

	applyMaxTokensEnv(&cfg, CallAssist, "NUUDLE_LLM_ASSIST_MAX_TOKENS")
	applyMaxTokensEnv(&cfg, CallDialogue, "NUUDLE_LLM_DIALOGUE_MAX_TOKENS")
	applyMaxTokensEnv(&cfg, CallSummary, "NUUDLE_LLM_SUMMARY_MAX_TOKENS")

	return cfg
}

// CallTimeout returns the effective timeout in milliseconds for a call kind.
// Uses the kind-specific timeout if set, otherwise the global timeout.
func (c LLMConfig) CallTimeout(kind CallKind) int {
	if cc, ok := c.Calls[kind]; ok && cc.TimeoutMs > 0 {
		return cc.TimeoutMs
	}
	return c.TimeoutMs
}

func applyMaxTokensEnv(cfg *LLMConfig, kind CallKind, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	cc := cfg.Calls[kind]
	cc.MaxTokens = n
	cfg.Calls[kind] = cc
}
