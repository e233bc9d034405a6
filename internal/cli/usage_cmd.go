package cli

import (
	"fmt"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newUsageCmd(a *App) *cobra.Command {
	var sessionID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show assistant usage against the request limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := resolveSession(cmd.Context(), a, sessionID)
			if err != nil {
				return err
			}
			snap, err := a.Gateway.Usage(cmd.Context(), s.UserID, s.ID)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), snap)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatUsage(snap))
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the snapshot as JSON")

	return cmd
}
