package assist

import (
	"strings"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/llm"
)

type turnPayload struct {
	Kind     string   `json:"kind"`
	Question string   `json:"question"`
	Analysis string   `json:"analysis"`
	Options  []string `json:"options"`
}

// parseTurn decodes a dialogue answer. Output that is not a turn object is
// taken as a plain question.
func parseTurn(text string) *Turn {
	p, err := llm.ExtractJSON[turnPayload](text, nil)
	if err != nil {
		return &Turn{Kind: TurnQuestion, Question: strings.TrimSpace(text)}
	}

	var options []string
	for _, o := range p.Options {
		if o = strings.TrimSpace(o); o != "" {
			options = append(options, o)
		}
	}
	if p.Kind == "options" && len(options) > 0 {
		return &Turn{Kind: TurnOptionsReady, Analysis: p.Analysis, Options: options}
	}

	q := strings.TrimSpace(p.Question)
	if q == "" {
		q = strings.TrimSpace(text)
	}
	return &Turn{Kind: TurnQuestion, Question: q}
}
