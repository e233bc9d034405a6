package cli

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/cli/formatter"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/dialogue"
)

func nuudleHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// huhPrompter runs each prompt as a huh form on the terminal.
type huhPrompter struct{}

func (huhPrompter) Answer(question, draft string) (string, error) {
	answer := draft
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(question).
				Description("Blank skips. /back goes back, /cancel stops.").
				Value(&answer),
		),
	).WithTheme(nuudleHuhTheme()).WithShowHelp(false).Run()
	return answer, err
}

func (huhPrompter) Choose(st dialogue.State) ([]string, string, error) {
	selected := append([]string(nil), st.Selected...)
	action := actionConfirm

	actions := []huh.Option[string]{
		huh.NewOption("Use my selection", actionConfirm),
		huh.NewOption("Write my own", actionCustom),
	}
	if st.CanGenerate {
		actions = append(actions, huh.NewOption("Show me different options", actionMore))
	}
	actions = append(actions,
		huh.NewOption("Go back", actionBack),
		huh.NewOption("Cancel", actionCancel),
	)

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Which of these fit?").
				Description(st.Analysis).
				Options(huh.NewOptions(st.Options...)...).
				Limit(st.SelectionLimit).
				Value(&selected),
			huh.NewSelect[string]().
				Title("Next").
				Options(actions...).
				Value(&action),
		),
	).WithTheme(nuudleHuhTheme()).WithShowHelp(false).Run()
	return selected, action, err
}

func (huhPrompter) Custom() (string, error) {
	var text string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("In your own words").
				Value(&text),
		),
	).WithTheme(nuudleHuhTheme()).WithShowHelp(false).Run()
	return text, err
}
