package prompt

import "strings"

// Template is either a FlatTemplate or a StructuredTemplate.
type Template interface {
	// render produces the unsubstituted prompt text. pick chooses an index
	// in [0, n).
	render(pick func(n int) int) string
}

// FlatTemplate is a single template string.
type FlatTemplate struct {
	Text string
}

func (t FlatTemplate) render(func(int) int) string { return t.Text }

// Section is one block of a structured template. Intros is a pool of
// interchangeable opening lines; one is chosen per render.
type Section struct {
	Header string
	Intros []string
	Body   string
}

func (s Section) render(pick func(int) int) string {
	var lines []string
	if s.Header != "" {
		lines = append(lines, s.Header)
	}
	if len(s.Intros) > 0 {
		lines = append(lines, s.Intros[pick(len(s.Intros))])
	}
	if s.Body != "" {
		lines = append(lines, s.Body)
	}
	return strings.Join(lines, "\n")
}

// StructuredTemplate renders analysis, discovery and conclusion sections in
// that order. The conclusion has no intro pool.
type StructuredTemplate struct {
	Analysis   Section
	Discovery  Section
	Conclusion Section
}

func (t StructuredTemplate) render(pick func(int) int) string {
	conclusion := t.Conclusion
	conclusion.Intros = nil
	return strings.Join([]string{
		t.Analysis.render(pick),
		t.Discovery.render(pick),
		conclusion.render(pick),
	}, "\n\n")
}
