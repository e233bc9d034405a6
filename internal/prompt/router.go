package prompt

import (
	"strings"
	"unicode"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
)

// RouterConfig holds the relevance heuristic thresholds.
type RouterConfig struct {
	// MinInputLength is the shortest trimmed input (in runes) still
	// considered an answer.
	MinInputLength int
	// MinWordLength is the length a word must exceed to count toward
	// vocabulary overlap with the prior causes.
	MinWordLength int
}

// DefaultRouterConfig returns the stock thresholds.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{MinInputLength: 10, MinWordLength: 3}
}

// Router redirects a stage to its fallback variant when the user's input
// looks empty or unrelated to what they have already written. The decision
// is recomputed on every call and never cached.
type Router struct {
	cfg      RouterConfig
	phrases  []string
	reroutes map[domain.Stage]domain.Stage
}

func NewRouter(cfg RouterConfig, lib *Library) *Router {
	phrases := make([]string, 0, len(lib.DontKnowPhrases))
	for _, p := range lib.DontKnowPhrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			phrases = append(phrases, p)
		}
	}
	return &Router{cfg: cfg, phrases: phrases, reroutes: lib.Reroutes}
}

// Resolve returns the stage whose template should be used.
func (r *Router) Resolve(stage domain.Stage, input string, causes []string) domain.Stage {
	target, ok := r.reroutes[stage]
	if !ok {
		return stage
	}
	if r.IsIrrelevant(input, causes) {
		return target
	}
	return stage
}

// IsIrrelevant reports whether input is blank, too short, a "don't know"
// answer, or shares no vocabulary with the prior causes.
func (r *Router) IsIrrelevant(input string, causes []string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || len([]rune(trimmed)) < r.cfg.MinInputLength {
		return true
	}

	lower := strings.ToLower(trimmed)
	for _, p := range r.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}

	if len(causes) == 0 {
		return false
	}
	causeText := strings.ToLower(strings.Join(causes, " "))
	causeWords := r.words(causeText)
	for _, w := range r.words(lower) {
		if strings.Contains(causeText, w) {
			return false
		}
		for _, cw := range causeWords {
			if strings.Contains(w, cw) {
				return false
			}
		}
	}
	return true
}

func (r *Router) words(s string) []string {
	fields := strings.FieldsFunc(s, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '\''
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > r.cfg.MinWordLength {
			out = append(out, f)
		}
	}
	return out
}
