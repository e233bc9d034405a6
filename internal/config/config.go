// Package config provides process configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/llm"
)

// Config holds all process configuration.
type Config struct {
	Port          string
	FrontendURL   string
	DBPath        string
	PromptLibrary string // empty uses the embedded library
	Limits        LimitConfig
	Rates         RateConfig
	Router        RouterConfig
	Dialogue      DialogueConfig
	LLM           llm.LLMConfig
}

// LimitConfig holds the request ceilings.
type LimitConfig struct {
	Session int
	Daily   int
	Stage   int
}

// RateConfig holds provider pricing in USD per million tokens.
type RateConfig struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// RouterConfig holds the stage re-routing thresholds.
type RouterConfig struct {
	MinInputLength int
	MinWordLength  int
}

// DialogueConfig bounds clarification dialogues.
type DialogueConfig struct {
	SelectionLimit int
	MaxGenerations int
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("NUUDLE_PORT", "8080"),
		FrontendURL:   getEnv("NUUDLE_FRONTEND_URL", ""),
		DBPath:        getEnv("NUUDLE_DB", defaultDBPath()),
		PromptLibrary: getEnv("NUUDLE_PROMPT_LIBRARY", ""),
		Limits: LimitConfig{
			Session: getEnvInt("NUUDLE_SESSION_LIMIT", 5),
			Daily:   getEnvInt("NUUDLE_DAILY_LIMIT", 10),
			Stage:   getEnvInt("NUUDLE_STAGE_LIMIT", 5),
		},
		Rates: RateConfig{
			InputPerMillion:  getEnvFloat("NUUDLE_INPUT_RATE_PER_MILLION", 3.00),
			OutputPerMillion: getEnvFloat("NUUDLE_OUTPUT_RATE_PER_MILLION", 15.00),
		},
		Router: RouterConfig{
			MinInputLength: getEnvInt("NUUDLE_MIN_INPUT_LENGTH", 10),
			MinWordLength:  getEnvInt("NUUDLE_MIN_WORD_LENGTH", 3),
		},
		Dialogue: DialogueConfig{
			SelectionLimit: getEnvInt("NUUDLE_SELECTION_LIMIT", 3),
			MaxGenerations: getEnvInt("NUUDLE_MAX_GENERATIONS", 2),
		},
		LLM: llm.LoadConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("NUUDLE_PORT cannot be empty"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("NUUDLE_DB cannot be empty"))
	}
	if c.Limits.Session < 0 || c.Limits.Daily < 0 || c.Limits.Stage < 0 {
		errs = append(errs, errors.New("request limits must be >= 0"))
	}
	if c.Rates.InputPerMillion < 0 || c.Rates.OutputPerMillion < 0 {
		errs = append(errs, errors.New("token rates must be >= 0"))
	}
	if c.Router.MinInputLength < 0 || c.Router.MinWordLength < 0 {
		errs = append(errs, errors.New("router thresholds must be >= 0"))
	}
	if c.Dialogue.SelectionLimit < 1 {
		errs = append(errs, errors.New("NUUDLE_SELECTION_LIMIT must be >= 1"))
	}
	if c.Dialogue.MaxGenerations < 0 {
		errs = append(errs, errors.New("NUUDLE_MAX_GENERATIONS must be >= 0"))
	}
	return errors.Join(errs...)
}

// IsDevelopment returns true when no public frontend origin is configured.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./nuudle.db"
	}
	return home + "/.nuudle/nuudle.db"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}
