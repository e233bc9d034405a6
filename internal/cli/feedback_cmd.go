package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFeedbackCmd(a *App) *cobra.Command {
	var sessionID string
	var interactionID int64
	var helpful bool

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Rate an assistant response",
		Example: "  nuudle feedback --session $S --interaction 12\n" +
			"  nuudle feedback --session $S --interaction 12 --helpful=false",
		RunE: func(cmd *cobra.Command, args []string) error {
			updated, err := a.Gateway.SetFeedback(cmd.Context(), sessionID, interactionID, helpful)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !updated {
				fmt.Fprintf(out, "No interaction #%d in session %s; nothing recorded.\n", interactionID, sessionID)
				return nil
			}
			verdict := "helpful"
			if !helpful {
				verdict = "not helpful"
			}
			fmt.Fprintf(out, "Marked #%d as %s.\n", interactionID, verdict)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID")
	cmd.Flags().Int64Var(&interactionID, "interaction", 0, "Interaction ID")
	cmd.Flags().BoolVar(&helpful, "helpful", true, "Whether the response helped")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("interaction")

	return cmd
}
