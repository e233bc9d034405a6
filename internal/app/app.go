// Package app builds the assistance engine from configuration.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/api"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/assist"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/config"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/db"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/dialogue"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/llm"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/prompt"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/quota"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/repository"
)

// App holds the wired components shared by the CLI and the HTTP server.
type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	DB           *sql.DB
	Gateway      *assist.Gateway
	Dialogues    *dialogue.Registry
	Sessions     repository.SessionRepo
	Interactions repository.InteractionRepo
}

type options struct {
	provider llm.Provider
	database *sql.DB
}

// Option overrides a component New would otherwise build.
type Option func(*options)

// WithProvider replaces the configured completion provider.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithDB uses an already open database instead of opening cfg.DBPath.
// The caller keeps ownership of it.
func WithDB(database *sql.DB) Option {
	return func(o *options) { o.database = database }
}

// New opens the database and wires every component.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	lib, err := loadLibrary(cfg.PromptLibrary)
	if err != nil {
		return nil, err
	}

	database := o.database
	if database == nil {
		database, err = db.OpenDB(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
	}

	provider := o.provider
	if provider == nil {
		provider = newProvider(cfg.LLM, logger)
	}

	interactions := repository.NewSQLiteInteractionRepo(database)
	sessions := repository.NewSQLiteSessionRepo(database)

	ledger := quota.NewLedger(interactions, quota.Limits{
		Session: cfg.Limits.Session,
		Daily:   cfg.Limits.Daily,
		Stage:   cfg.Limits.Stage,
	})
	router := prompt.NewRouter(prompt.RouterConfig{
		MinInputLength: cfg.Router.MinInputLength,
		MinWordLength:  cfg.Router.MinWordLength,
	}, lib)
	assembler := prompt.NewAssembler(lib, router, prompt.NewFormatter(nil))

	gateway := assist.NewGateway(ledger, assembler, provider, db.NewSQLiteUnitOfWork(database), interactions,
		assist.WithRates(assist.Rates{
			InputPerMillion:  cfg.Rates.InputPerMillion,
			OutputPerMillion: cfg.Rates.OutputPerMillion,
		}),
		assist.WithObserver(assist.NewLogRequestObserver(logger)),
	)

	dialogues := dialogue.NewRegistry(gateway, dialogue.Config{
		SelectionLimit: cfg.Dialogue.SelectionLimit,
		MaxGenerations: cfg.Dialogue.MaxGenerations,
	})

	return &App{
		Config:       cfg,
		Logger:       logger,
		DB:           database,
		Gateway:      gateway,
		Dialogues:    dialogues,
		Sessions:     sessions,
		Interactions: interactions,
	}, nil
}

// Handler returns the HTTP API.
func (a *App) Handler() http.Handler {
	h := api.NewHandler(a.Gateway, a.Dialogues, a.Sessions, a.Logger)
	return api.NewRouter(h, a.allowedOrigins())
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}

func (a *App) allowedOrigins() []string {
	if a.Config.FrontendURL == "" {
		return []string{"http://localhost:3000", "http://localhost:5173"}
	}
	var origins []string
	for _, o := range strings.Split(a.Config.FrontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func loadLibrary(path string) (*prompt.Library, error) {
	if path == "" {
		lib, err := prompt.DefaultLibrary()
		if err != nil {
			return nil, fmt.Errorf("loading embedded prompt library: %w", err)
		}
		return lib, nil
	}
	lib, err := prompt.LoadLibrary(path)
	if err != nil {
		return nil, fmt.Errorf("loading prompt library %s: %w", path, err)
	}
	return lib, nil
}

func newProvider(cfg llm.LLMConfig, logger *slog.Logger) llm.Provider {
	if !cfg.Enabled {
		logger.Warn("completion provider disabled; set NUUDLE_LLM_API_KEY to enable it")
		return llm.DisabledProvider{}
	}
	var observer llm.Observer = llm.NoopObserver{}
	if cfg.LogCalls {
		observer = llm.NewLogObserver(logger)
	}
	return llm.NewClient(cfg, observer)
}
