package bootstrap

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	authinadapter "odysseus/internal/modules/auth/adapter/in"
	authoutadapter "odysseus/internal/modules/auth/adapter/out"
	authusecase "odysseus/internal/modules/auth/usecase"
	progressioninadapter "odysseus/internal/modules/progression/adapter/in"
	progressionoutadapter "odysseus/internal/modules/progression/adapter/out"
	progressionusecase "odysseus/internal/modules/progression/usecase"
	sessioninadapter "odysseus/internal/modules/session/adapter/in"
	sessionoutadapter "odysseus/internal/modules/session/adapter/out"
	sessionout "odysseus/internal/modules/session/port/out"
	sessionusecase "odysseus/internal/modules/session/usecase"
	storyinadapter "odysseus/internal/modules/story/adapter/in"
	storyoutadapter "odysseus/internal/modules/story/adapter/out"
	storyservice "odysseus/internal/modules/story/service"
	storyusecase "odysseus/internal/modules/story/usecase"
	"odysseus/internal/platform/clock"
	"odysseus/internal/platform/config"
	"odysseus/internal/platform/httpapi"
	"odysseus/internal/platform/logging"
	uiapp "odysseus/internal/ui/app"
)

type App struct {
	Config         config.Config
	Logger         *zap.Logger
	SessionCLI     sessioninadapter.CLIHandler
	AuthCLI        authinadapter.CLIHandler
	OAuth          authinadapter.OAuthReceiver
	StoryCLI       storyinadapter.CLIHandler
	ProgressionCLI progressioninadapter.CLIHandler

	closers []func() error
}

func New(cfg config.Config) (*App, error) {
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding, Path: cfg.Log.Path})
	if err != nil {
		return nil, fmt.Errorf("new logger: %w", err)
	}
	app := &App{Config: cfg, Logger: logger}
	clk := clock.SystemClock{}
	client := httpapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger)

	sessionStore, navStore, err := app.openSessionStores(cfg)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	sessionUC := sessionusecase.NewInteractor(sessionStore, navStore, logger)

	authUC := authusecase.NewInteractor(
		authoutadapter.NewHTTPAPI(client),
		authoutadapter.NewUnverifiedClaimsDecoder(),
		sessionUC,
		clk,
		logger,
	)

	index, err := storyoutadapter.NewSQLiteStoryIndex(cfg.IndexPath())
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("new story index: %w", err)
	}
	app.closers = append(app.closers, index.Close)
	storySvc := storyservice.NewStoryService(storyoutadapter.NewHTTPAPI(client), index, storyoutadapter.NewMarkdownExporter(), clk, logger)
	storyUC := storyusecase.NewInteractor(storySvc, sessionUC, cfg.UI.WebURL, logger)

	progressionUC := progressionusecase.NewFlow(
		progressionoutadapter.NewHTTPAPI(client, cfg.API.ContinueAuth == config.ContinueAuthBearer),
		sessionUC,
		logger,
	)

	app.SessionCLI = sessioninadapter.NewCLIHandler(sessionUC)
	app.AuthCLI = authinadapter.NewCLIHandler(authUC)
	app.OAuth = authinadapter.NewOAuthReceiver(authUC, cfg.OAuth.CallbackAddr)
	app.StoryCLI = storyinadapter.NewCLIHandler(storyUC)
	app.ProgressionCLI = progressioninadapter.NewCLIHandler(progressionUC)

	logger.Debug("application wired",
		zap.String("api", cfg.API.BaseURL),
		zap.String("session_backend", cfg.Session.Backend),
		zap.String("state_dir", cfg.StateDir),
	)
	return app, nil
}

func (a *App) openSessionStores(cfg config.Config) (sessionout.SessionStore, sessionout.NavigationStore, error) {
	switch cfg.Session.Backend {
	case config.SessionBackendBolt:
		store, err := sessionoutadapter.OpenBoltStore(cfg.BoltPath())
		if err != nil {
			return nil, nil, fmt.Errorf("open session store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store, store, nil
	case config.SessionBackendMemory:
		store := sessionoutadapter.NewMemoryStore()
		return store, store, nil
	default:
		return sessionoutadapter.NewFileSessionStore(cfg.SessionPath()), sessionoutadapter.NewFileNavigationStore(cfg.NavigationPath()), nil
	}
}

// Close releases the stores opened by New and flushes the logger.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(uiapp.Ports{
		Auth:        app.AuthCLI,
		Session:     app.SessionCLI,
		Story:       app.StoryCLI,
		Progression: app.ProgressionCLI,
	}, uiapp.Options{
		CreatedRedirectDelay: app.Config.UI.CreatedRedirectDelay,
		Logger:               app.Logger,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
