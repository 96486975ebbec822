package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DivDash/internal/service/ratelimit"
	"DivDash/pkg/config"
	xhttp "DivDash/pkg/http"
	applogger "DivDash/pkg/logger"
	"DivDash/pkg/query"

	"github.com/robfig/cron/v3"
)

// App encapsulates the application lifecycle: the HTTP server, the query
// store and the retention sweep.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	store      *query.Store
	limiter    *ratelimit.Limiter
	httpServer *xhttp.Server
	cron       *cron.Cron
}

// New creates an App and schedules the retention sweep of cache entries and
// refetch buckets. limiter may be nil.
func New(cfg *config.Config, l *applogger.Logger, store *query.Store, limiter *ratelimit.Limiter, httpServer *xhttp.Server) (*App, error) {
	a := &App{
		cfg:        cfg,
		log:        l,
		store:      store,
		limiter:    limiter,
		httpServer: httpServer,
		cron:       cron.New(),
	}
	if _, err := a.cron.AddFunc(cfg.Query.GCSchedule, a.collect); err != nil {
		return nil, fmt.Errorf("register cache sweep %q: %w", cfg.Query.GCSchedule, err)
	}
	return a, nil
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	a.cron.Start()
	a.log.Info("cache sweep scheduled", applogger.String("schedule", a.cfg.Query.GCSchedule))

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) collect() {
	start := time.Now()
	a.store.Collect()
	if a.limiter != nil {
		a.limiter.Prune(a.cfg.Refetch.IdleAfter)
	}
	if took := time.Since(start); took > time.Second {
		a.log.Warn("slow cache sweep", applogger.Duration("took", took))
	}
}

// shutdown stops accepting requests first, then cancels fetches still in
// flight.
func (a *App) shutdown() error {
	a.log.Info("shutting down...")

	cronCtx := a.cron.Stop()

	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	<-cronCtx.Done()
	if err := a.store.Close(); err != nil {
		a.log.Warn("query store close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
