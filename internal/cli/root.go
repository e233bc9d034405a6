package cli

import (
	"io"
	"log/slog"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/app"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/cli/formatter"
	"github.com/spf13/cobra"
)

// App is the wired engine plus the terminal facts commands depend on.
type App struct {
	*app.App

	// LogLevel is lowered by --verbose and by serve. Nil leaves logging
	// untouched.
	LogLevel *slog.LevelVar

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// wait shows a spinner on interactive terminals and returns its stop func.
func (a *App) wait(w io.Writer, message string) func() {
	if !a.interactive() {
		return func() {}
	}
	return formatter.StartSpinner(w, message)
}

// NewRootCmd creates the top-level "nuudle" command and registers all
// subcommands against the provided App.
func NewRootCmd(a *App) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "nuudle",
		Short:         "Guided problem-solving assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose && a.LogLevel != nil {
				a.LogLevel.Set(slog.LevelDebug)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and provider calls to stderr")

	root.AddCommand(
		newServeCmd(a),
		newSessionCmd(a),
		newAskCmd(a),
		newUsageCmd(a),
		newFeedbackCmd(a),
		newSummaryCmd(a),
		newDialogueCmd(a),
	)

	return root
}
