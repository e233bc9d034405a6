package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/app"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/cli"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/config"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Quiet by default; --verbose and serve lower the level.
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Error("failed to close database", "error", closeErr)
		}
	}()

	rootCmd := cli.NewRootCmd(&cli.App{
		App:      a,
		LogLevel: level,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	})
	return rootCmd.Execute()
}
