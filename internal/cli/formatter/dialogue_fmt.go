package formatter

import (
	"fmt"
	"strings"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/dialogue"
)

// FormatTranscript renders the dialogue history, one line per entry.
func FormatTranscript(history []dialogue.Exchange) string {
	var b strings.Builder
	for _, e := range history {
		if e.Text == "" {
			continue
		}
		if e.Sender == dialogue.SenderAI {
			b.WriteString(StylePurple.Render("AI   ") + StyleFg.Render(e.Text) + "\n")
		} else {
			b.WriteString(StyleBlue.Render("You  ") + e.Text + "\n")
		}
	}
	return b.String()
}

// FormatOptions renders an option set with the current selection marked.
func FormatOptions(st dialogue.State) string {
	var b strings.Builder
	if st.Analysis != "" {
		b.WriteString(Dim(st.Analysis) + "\n\n")
	}
	selected := make(map[string]bool, len(st.Selected))
	for _, s := range st.Selected {
		selected[s] = true
	}
	for i, o := range st.Options {
		mark := Dim("○")
		if selected[o] {
			mark = StyleGreen.Render("●")
		}
		fmt.Fprintf(&b, "%s %s %s\n", Dim(fmt.Sprintf("%d.", i+1)), mark, o)
	}
	fmt.Fprintf(&b, "\n%s\n", Dim(fmt.Sprintf("Select up to %d. %d of %d regenerations used.",
		st.SelectionLimit, st.Regenerations, st.MaxGenerations)))
	return b.String()
}

// FormatConfirmation reports what a confirmed dialogue produced.
func FormatConfirmation(c dialogue.Confirmation) string {
	if len(c.Items) == 0 {
		return Dim("Nothing selected.") + "\n"
	}
	var b strings.Builder
	b.WriteString(StyleGreen.Render(fmt.Sprintf("%d pending", c.Pending)) + "\n")
	for _, item := range c.Items {
		b.WriteString("  • " + item + "\n")
	}
	if c.Overflow > 0 {
		b.WriteString(StyleYellow.Render(fmt.Sprintf("%d over the available slots", c.Overflow)) + "\n")
	}
	return b.String()
}
