//go:build wireinject
// +build wireinject

package di

import (
	"SectorPulse/internal/usecase"
	"SectorPulse/pkg/config"
	"SectorPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideRedisCache,
		ProvideSharedCache,
		ProvideTTLCache,
		ProvideMetrics,

		// Repositories and upstream services
		ProvideMarketDataProvider,
		ProvideTranslator,
		ProvideSnapshotPublisher,

		// Use cases
		usecase.NewHistoryFetcher,
		usecase.NewStockAnalysisUseCase,
		usecase.NewStockInsightsUseCase,
		usecase.NewSectorAggregateUseCase,

		// HTTP and application server
		ProvideLimiter,
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
