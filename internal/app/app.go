package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	sccfg "sigcopy/internal/config"
	"sigcopy/internal/ledger"
	"sigcopy/internal/logger"
	"sigcopy/internal/pipeline"
	"sigcopy/internal/report"
	statushttp "sigcopy/internal/transport/http/status"
)

// App wires the copier together: feed pipeline, status HTTP server, reporter
// and ledger lifecycle.
type App struct {
	cfg      *sccfg.Config
	service  *pipeline.Service
	httpSrv  *statushttp.Server
	reporter *report.Reporter
	ledger   ledger.Ledger
}

// NewApp builds the application from config without starting it.
func NewApp(cfg *sccfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run blocks until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}

	a.reporter.Publish(report.NewEvent(report.EventSystemStarted, "", "copier started").
		With("env", a.cfg.App.Env).
		With("http", a.httpSrv.Addr()))
	defer func() {
		a.reporter.Publish(report.NewEvent(report.EventSystemStopped, "", "copier stopped"))
		a.reporter.Close()
		if err := a.ledger.Close(); err != nil {
			logger.Warnf("ledger close: %v", err)
		}
	}()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.httpSrv.Start(ctx); err != nil {
			return fmt.Errorf("status http server error: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		return a.service.Run(ctx)
	})
	return group.Wait()
}
