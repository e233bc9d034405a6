package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/assist"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/cli/formatter"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/dialogue"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
	"github.com/spf13/cobra"
)

// Commands typed in place of an answer.
const (
	backCommand   = "/back"
	cancelCommand = "/cancel"
)

// Actions offered once options are on the table.
const (
	actionConfirm = "confirm"
	actionMore    = "more"
	actionCustom  = "custom"
	actionBack    = "back"
	actionCancel  = "cancel"
)

// dialoguePrompter collects the user's side of a dialogue.
type dialoguePrompter interface {
	// Answer asks question. draft pre-fills the input.
	Answer(question, draft string) (string, error)
	// Choose shows the option set and returns the new selection and the
	// next action.
	Choose(st dialogue.State) (selected []string, action string, err error)
	// Custom asks for a free-text option.
	Custom() (string, error)
}

func newDialogueCmd(a *App) *cobra.Command {
	var sessionID, subject, contextPath string
	var maxItems, existing int

	cmd := &cobra.Command{
		Use:       "dialogue TOPIC",
		Short:     "Talk through a cause, action or fear until you have options to pick from",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.TopicCause), string(domain.TopicAction), string(domain.TopicFear)},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !domain.ValidTopics[args[0]] {
				return fmt.Errorf("unknown topic %q (want cause, action or fear)", args[0])
			}
			if !a.interactive() {
				return errors.New("dialogue needs an interactive terminal; use the HTTP API for scripted dialogues")
			}
			ctx := cmd.Context()
			s, err := resolveSession(ctx, a, sessionID)
			if err != nil {
				return err
			}
			sc, err := readContext(cmd.InOrStdin(), contextPath)
			if err != nil {
				return err
			}

			return runDialogue(ctx, cmd.OutOrStdout(), a, dialogue.Params{
				UserID:        s.UserID,
				SessionID:     s.ID,
				Topic:         domain.Topic(args[0]),
				Subject:       subject,
				Context:       sc,
				MaxItems:      maxItems,
				ExistingItems: existing,
			}, huhPrompter{})
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID")
	cmd.Flags().StringVar(&subject, "subject", "", "What the dialogue is about, e.g. the cause to dig into")
	cmd.Flags().StringVar(&contextPath, "context", "", "Session context JSON file")
	cmd.Flags().IntVar(&maxItems, "max-items", 0, "Capacity of the list the result goes into (0 = unbounded)")
	cmd.Flags().IntVar(&existing, "existing", 0, "Items already in that list")

	return cmd
}

// runDialogue drives one dialogue to confirmation or cancellation.
func runDialogue(ctx context.Context, out io.Writer, a *App, p dialogue.Params, prompter dialoguePrompter) error {
	key := dialogue.Key{SessionID: p.SessionID, Topic: p.Topic}

	c, res, err := a.Dialogues.Open(ctx, p, false)
	if err != nil {
		return err
	}
	if c == nil {
		fmt.Fprint(out, formatter.FormatResult(res))
		return nil
	}
	defer func() { _ = a.Dialogues.Cancel(key) }()

	for {
		st := c.State()

		if st.Phase == dialogue.PhaseQuestion {
			answer, err := prompter.Answer(lastAI(st.History), st.Draft)
			if err != nil {
				return err
			}
			switch strings.TrimSpace(answer) {
			case cancelCommand:
				fmt.Fprintln(out, formatter.Dim("Dialogue cancelled."))
				return nil
			case backCommand:
				c.Back()
				continue
			case "":
				res, err = c.Skip(ctx)
			default:
				res, err = c.Answer(ctx, answer)
			}
			if err != nil {
				return err
			}
			if stop := reportTurn(out, res); stop {
				return nil
			}
			continue
		}

		selected, action, err := prompter.Choose(st)
		if err != nil {
			return err
		}
		if err := applySelection(c, st.Selected, selected); err != nil {
			fmt.Fprintln(out, formatter.StyleYellow.Render(err.Error()))
			continue
		}

		switch action {
		case actionCustom:
			text, err := prompter.Custom()
			if err != nil {
				return err
			}
			if err := c.SetCustom(text); err != nil {
				return err
			}
			fallthrough
		case actionConfirm:
			conf, err := a.Dialogues.Confirm(key)
			if err != nil {
				return err
			}
			fmt.Fprint(out, formatter.FormatConfirmation(conf))
			return nil
		case actionMore:
			res, err := c.GenerateMore(ctx)
			if errors.Is(err, dialogue.ErrGenerationsExhausted) || errors.Is(err, dialogue.ErrSelectionLimit) {
				fmt.Fprintln(out, formatter.StyleYellow.Render(err.Error()))
				continue
			}
			if err != nil {
				return err
			}
			if stop := reportTurn(out, res); stop {
				return nil
			}
		case actionBack:
			c.Back()
		case actionCancel:
			fmt.Fprintln(out, formatter.Dim("Dialogue cancelled."))
			return nil
		}
	}
}

// reportTurn prints a failed turn and reports whether the dialogue should
// stop. Rate limits end it; other failures leave the state as it was.
func reportTurn(out io.Writer, res *assist.Result) bool {
	if res.Success {
		return false
	}
	fmt.Fprint(out, formatter.FormatResult(res))
	return res.Kind == assist.KindRateLimited
}

// applySelection moves the controller's selection from have to want.
func applySelection(c *dialogue.Controller, have, want []string) error {
	for _, o := range have {
		if !slices.Contains(want, o) {
			if err := c.Deselect(o); err != nil {
				return err
			}
		}
	}
	for _, o := range want {
		if !slices.Contains(have, o) {
			if err := c.Select(o); err != nil {
				return err
			}
		}
	}
	return nil
}

func lastAI(history []dialogue.Exchange) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Sender == dialogue.SenderAI {
			return history[i].Text
		}
	}
	return ""
}
