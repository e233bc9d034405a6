package cli

import (
	"fmt"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/assist"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/cli/formatter"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
	"github.com/spf13/cobra"
)

func newAskCmd(a *App) *cobra.Command {
	var sessionID, input, contextPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask STAGE",
		Short: "Ask the assistant for help with a wizard step",
		Long: "Ask the assistant for help with a wizard step.\n\n" +
			"The session context is a JSON object of wizard fields, e.g.\n" +
			`{"painPoint": "...", "causes": [{"cause": "..."}]}` + "\n" +
			"Pass --context - to read it from stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := resolveSession(ctx, a, sessionID)
			if err != nil {
				return err
			}
			sc, err := readContext(cmd.InOrStdin(), contextPath)
			if err != nil {
				return err
			}

			stop := a.wait(cmd.ErrOrStderr(), "Thinking...")
			res, err := a.Gateway.Complete(ctx, assist.Request{
				UserID:    s.UserID,
				SessionID: s.ID,
				Stage:     domain.Stage(args[0]),
				UserInput: input,
				Context:   sc,
			})
			stop()
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatResult(res))
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID")
	cmd.Flags().StringVarP(&input, "input", "i", "", "What you have written for this step so far")
	cmd.Flags().StringVar(&contextPath, "context", "", "Session context JSON file ('-' for stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw result as JSON")

	return cmd
}
