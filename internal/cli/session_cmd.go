package cli

import (
	"fmt"
	"time"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/cli/formatter"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newSessionCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage problem-solving sessions",
	}

	cmd.AddCommand(
		newSessionCreateCmd(a),
		newSessionListCmd(a),
		newSessionRemoveCmd(a),
	)

	return cmd
}

func newSessionCreateCmd(a *App) *cobra.Command {
	var userID, sessionID string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Start a new session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				sessionID = uuid.New().String()
			}
			s := &domain.Session{ID: sessionID, UserID: userID, CreatedAt: time.Now().UTC()}
			if err := a.Sessions.Create(cmd.Context(), s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created session %s for %s\n", s.ID, s.UserID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User the session belongs to")
	cmd.Flags().StringVar(&sessionID, "id", "", "Session ID (default: random UUID)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newSessionListCmd(a *App) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := a.Sessions.ListByUser(cmd.Context(), userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}

			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				usage, err := a.Interactions.UsageFor(cmd.Context(), s.ID)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					s.ID,
					formatter.HumanTimestamp(s.CreatedAt),
					fmt.Sprintf("%d", usage.Requests),
				})
			}
			fmt.Fprint(out, formatter.RenderTable([]string{"ID", "CREATED", "REQUESTS"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User whose sessions to list")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newSessionRemoveCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a session and its interaction log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := resolveSession(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			if err := a.Sessions.Delete(cmd.Context(), s.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session %s\n", s.ID)
			return nil
		},
	}
}
