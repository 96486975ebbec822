package di

import (
	"fmt"

	"DivDash/internal/handler/api"
	"DivDash/internal/service/backend"
	"DivDash/internal/service/ratelimit"
	"DivDash/internal/usecase"
	"DivDash/pkg/config"
	xhttp "DivDash/pkg/http"
	applogger "DivDash/pkg/logger"
	"DivDash/pkg/metrics"
	"DivDash/pkg/query"
	"DivDash/pkg/schema"
	"DivDash/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := cfg.Logger
	if lc.Service == "" {
		lc.Service = "divdash"
	}
	l, err := applogger.New(&lc)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry creates the Prometheus registry served on the metrics path.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates the cache and schema metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.New(reg)
}

// ProvideDiagnosticLog creates the log of absorbed schema violations.
func ProvideDiagnosticLog(cfg *config.Config) *schema.DiagnosticLog {
	return schema.NewDiagnosticLog(cfg.Diagnostics.Capacity)
}

// ProvideValidator creates the schema validator shared by every query.
func ProvideValidator(l *applogger.Logger, rec *metrics.Recorder, diag *schema.DiagnosticLog) *schema.Validator {
	return schema.NewValidator(
		schema.WithLogger(l),
		schema.WithRecorder(rec),
		schema.WithDiagnostics(diag),
	)
}

// ProvideStore creates the query store.
func ProvideStore(cfg *config.Config, l *applogger.Logger, rec *metrics.Recorder, v *schema.Validator) *query.Store {
	return query.NewStore(
		query.WithStaleTime(cfg.Query.StaleTime),
		query.WithGCTime(cfg.Query.GCTime),
		query.WithRetry(cfg.Query.Retry),
		query.WithRetryDelay(cfg.Query.RetryDelay),
		query.WithLogger(l),
		query.WithMetrics(rec),
		query.WithValidator(v),
	)
}

// ProvideBackendClient creates the dividend API client.
func ProvideBackendClient(cfg *config.Config, l *applogger.Logger) *backend.Client {
	b := cfg.Backend.Breaker
	return backend.New(cfg.Backend.BaseURL,
		backend.WithToken(cfg.Backend.APIToken),
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithBreaker(b.MaxRequests, b.Interval, b.Timeout, b.MinRequests, b.FailureRatio),
		backend.WithLogger(l),
	)
}

// ProvideDashboard creates the dashboard use case.
func ProvideDashboard(store *query.Store, client *backend.Client, diag *schema.DiagnosticLog) *usecase.Dashboard {
	return usecase.NewDashboard(store, client, usecase.WithDiagnostics(diag))
}

// ProvideRefetchLimiter creates the per-client budget for forced refetches.
func ProvideRefetchLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Refetch.Burst, cfg.Refetch.PerSecond)
}

// ProvideHandlers collects the HTTP handlers.
func ProvideHandlers(l *applogger.Logger, dash *usecase.Dashboard, client *backend.Client, rl *ratelimit.Limiter) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewDashboardEchoHandler(l, dash, rl),
		api.NewCacheEchoHandler(l, dash, client),
		api.NewStreamHandler(l, dash, rl),
	}
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, reg *prometheus.Registry, handlers []xhttp.Handler) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithLogger(l),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(reg, cfg.Metrics.Path, cfg.Server.SlowRequest))
	}
	return xhttp.NewServer(handlers, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, l *applogger.Logger, store *query.Store, rl *ratelimit.Limiter, srv *xhttp.Server) (*server.App, error) {
	return server.New(cfg, l, store, rl, srv)
}
