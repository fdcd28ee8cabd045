package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	authinadapter "adsdash/internal/modules/auth/adapter/in"
	authoutadapter "adsdash/internal/modules/auth/adapter/out"
	authservice "adsdash/internal/modules/auth/service"
	authusecase "adsdash/internal/modules/auth/usecase"
	metricsinadapter "adsdash/internal/modules/metrics/adapter/in"
	metricsoutadapter "adsdash/internal/modules/metrics/adapter/out"
	metricsusecase "adsdash/internal/modules/metrics/usecase"
	"adsdash/internal/platform/apiclient"
	"adsdash/internal/platform/clock"
	"adsdash/internal/platform/config"
	"adsdash/internal/platform/logger"
	"adsdash/internal/platform/telemetry"
	uiapp "adsdash/internal/ui/app"
)

type App struct {
	Config config.Config
	Log    *zap.Logger
	Stats  *telemetry.Metrics

	AuthCLI    authinadapter.CLIHandler
	AuthTUI    authinadapter.TUIHandler
	MetricsCLI metricsinadapter.CLIHandler
	MetricsTUI metricsinadapter.TUIHandler

	closers  []io.Closer
	closeLog func() error
}

func New(cfg config.Config) (*App, error) {
	log, closeLog, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("new logger: %w", err)
	}
	fail := func(err error) (*App, error) {
		log.Error("bootstrap failed", zap.Error(err))
		_ = closeLog()
		return nil, err
	}
	clk := clock.SystemClock{}

	client, err := apiclient.New(cfg.APIURL, cfg.Timeout, log.Named("api"))
	if err != nil {
		return fail(err)
	}
	store, err := authoutadapter.NewSQLiteTokenStore(cfg.DBPath, clk)
	if err != nil {
		return fail(fmt.Errorf("new token store: %w", err))
	}

	authUC := authusecase.NewInteractor(
		authservice.NewSessionService(clk, store, authoutadapter.NewHTTPGateway(client), log.Named("auth")),
		authoutadapter.NewJWTInspector(),
		clk,
	)

	stats := telemetry.New()
	metricsUC := metricsusecase.NewInteractor(
		metricsoutadapter.NewHTTPGateway(client),
		metricsoutadapter.NewAuthSessionAdapter(authUC),
		stats,
		clk,
		log.Named("metrics"),
		metricsusecase.Options{PageSize: cfg.PageSize},
	)

	app := &App{
		Config:     cfg,
		Log:        log,
		Stats:      stats,
		AuthCLI:    authinadapter.NewCLIHandler(authUC),
		AuthTUI:    authinadapter.NewTUIHandler(authUC),
		MetricsCLI: metricsinadapter.NewCLIHandler(metricsUC),
		MetricsTUI: metricsinadapter.NewTUIHandler(metricsUC),
		closeLog:   closeLog,
	}
	if c, ok := store.(io.Closer); ok {
		app.closers = append(app.closers, c)
	}
	log.Debug("bootstrap complete",
		zap.String("env", cfg.Env),
		zap.String("api_url", cfg.APIURL),
		zap.Duration("timeout", cfg.Timeout),
		zap.String("db", cfg.DBPath),
	)
	return app, nil
}

// Close releases the token store, then flushes and closes the log.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.closeLog != nil {
		if err := a.closeLog(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func RunTUI(ctx context.Context, app *App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if addr := app.Config.MetricsAddr; addr != "" {
		if err := app.Stats.Serve(ctx, addr, app.Log); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
	}
	model := uiapp.NewModel(app.Config.APIURL, app.AuthTUI, app.MetricsTUI)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}
