//go:build wireinject
// +build wireinject

package di

import (
	"DivDash/pkg/config"
	"DivDash/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,
		ProvideDiagnosticLog,

		// Query layer
		ProvideValidator,
		ProvideStore,

		// Backend
		ProvideBackendClient,

		// Use cases
		ProvideDashboard,

		// HTTP
		ProvideRefetchLimiter,
		ProvideHandlers,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
