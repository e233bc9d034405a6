// Package prompt turns a stage, the user's free text and the session context
// into the exact text sent to the completion provider.
package prompt

import (
	"math/rand/v2"
	"regexp"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
)

// UserInputKey is the placeholder filled with the raw user input.
const UserInputKey = "userInput"

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Prompt is an assembled request.
type Prompt struct {
	// Stage is the stage whose template was used, after re-routing.
	Stage  domain.Stage
	System string
	Text   string
}

// Assembler builds prompts from a Library.
type Assembler struct {
	lib       *Library
	router    *Router
	formatter *Formatter
	pick      func(n int) int
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithPicker replaces the uniform random intro picker.
func WithPicker(pick func(n int) int) AssemblerOption {
	return func(a *Assembler) { a.pick = pick }
}

func NewAssembler(lib *Library, router *Router, formatter *Formatter, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		lib:       lib,
		router:    router,
		formatter: formatter,
		pick:      rand.IntN,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble returns the prompt for stage, or false when no template exists
// for the (re-routed) stage. ctx is read, never modified.
func (a *Assembler) Assemble(stage domain.Stage, userInput string, ctx domain.SessionContext) (Prompt, bool) {
	causes := a.formatter.Items(domain.KeyCauses, ctx[domain.KeyCauses])
	resolved := a.router.Resolve(stage, userInput, causes)

	tmpl, ok := a.lib.Templates[resolved]
	if !ok {
		return Prompt{}, false
	}

	text := a.substitute(tmpl.render(a.pick), userInput, ctx)
	return Prompt{
		Stage:  resolved,
		System: a.lib.SystemFor(resolved),
		Text:   text,
	}, true
}

// substitute fills every placeholder in one pass: userInput verbatim,
// context keys through the formatter, anything else with "". Inserted text
// is never rescanned.
func (a *Assembler) substitute(tmpl, userInput string, ctx domain.SessionContext) string {
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := placeholderRe.FindStringSubmatch(m)[1]
		if key == UserInputKey {
			return userInput
		}
		v, ok := ctx[key]
		if !ok {
			return ""
		}
		return a.formatter.Format(key, v)
	})
	return defuse(out)
}
