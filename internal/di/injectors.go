//go:build wireinject
// +build wireinject

package di

import (
	"clanwatch/internal"
	"clanwatch/internal/api"
	"clanwatch/internal/controllers"
	"clanwatch/internal/ingest"
	"clanwatch/internal/providers"
	"clanwatch/internal/publish"
	"clanwatch/internal/services"
	"clanwatch/internal/snapshot"
	"clanwatch/internal/structures"

	wire "github.com/google/wire"
)

var storageSet = wire.NewSet(
	snapshot.NewCompressor,
	snapshot.NewFileStore,
)

var updaterSet = wire.NewSet(
	api.NewRateLimitedClient,
	api.ProvideGameAPI,
	publish.NewPublisher,
	ingest.NewUpdater,
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		storageSet,
		updaterSet,
		services.NewAnalyticsService,
		ingest.NewScheduler,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}

func InitUpdater(cfg *structures.CliFlags) (*ingest.Updater, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,

		storageSet,
		updaterSet,
	)

	return nil, nil
}
