package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/assessment-portal/internal/infra/config"
)

const shutdownTimeout = 10 * time.Second

// Janitor expires idle session state.
type Janitor interface {
	Sweep(ctx context.Context) (int, error)
}

// App encapsulates the HTTP server and session janitor lifecycle.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *http.Server
	janitor Janitor
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, janitor Janitor) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, janitor: janitor}
}

// Run starts the HTTP server and the janitor and blocks until ctx is done or
// either of them fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("http server starting", "address", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutdown signal received")
		return a.server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		a.sweepLoop(gctx)
		return nil
	})

	return g.Wait()
}

func (a *App) sweepLoop(ctx context.Context) {
	if a.janitor == nil || a.cfg.Session.SweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(a.cfg.Session.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.janitor.Sweep(ctx); err != nil {
				a.logger.Warn("session sweep failed", "error", err)
			}
		}
	}
}
