package cli

import (
	"fmt"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/assist"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newSummaryCmd(a *App) *cobra.Command {
	var sessionID, contextPath, notes string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Generate the end-of-session summary",
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

			stop := a.wait(cmd.ErrOrStderr(), "Writing your summary...")
			res, err := a.Gateway.Summarize(ctx, assist.SummaryRequest{
				UserID:    s.UserID,
				SessionID: s.ID,
				Session:   sc,
				Notes:     notes,
			})
			stop()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, res)
			}
			if res.Summary == nil {
				fmt.Fprint(out, formatter.FormatResult(res))
				return nil
			}
			fmt.Fprint(out, formatter.FormatSummary(res.Summary))
			fmt.Fprint(out, "\n"+formatter.FormatUsageLine(res.Usage))
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID")
	cmd.Flags().StringVar(&contextPath, "context", "", "Session context JSON file ('-' for stdin)")
	cmd.Flags().StringVar(&notes, "notes", "", "Anything else the summary should consider")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw result as JSON")

	return cmd
}
