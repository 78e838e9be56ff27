package main

import (
	cataloghandler "limito/internal/catalog/handler"
	catalogrepository "limito/internal/catalog/repository"
	catalogservice "limito/internal/catalog/service"
	"limito/internal/mirror"
	reshandler "limito/internal/reservations/handler"
	resrepository "limito/internal/reservations/repository"
	resservice "limito/internal/reservations/service"
	"limito/internal/reservations/validator"
	"limito/pkg/app"
	"limito/pkg/cache"
	"limito/pkg/config"
	"limito/pkg/middleware"
)

const ServiceName = "store"

func main() {
	cfg := config.Load(ServiceName)

	cfg.SetPostgres()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	if err := cfg.Client.RunMigrations(cfg.MigrationsDir); err != nil {
		cfg.Log.Fatal("Failed to run migrations", "error", err)
	}

	cacheStore := cache.New(cfg.CacheTTL)
	limiter := newRateLimiter(cfg)
	notifier := newMirrorNotifier(cfg)

	reservationService := resservice.NewReservationService(
		resrepository.NewPostgresReservationRepository(cfg),
		validator.NewReservationValidator(cfg.Log),
		cacheStore,
		notifier,
		cfg,
	)
	catalogService := catalogservice.NewCatalogService(
		catalogrepository.NewPostgresCatalogRepository(cfg),
		cacheStore,
		cfg,
	)

	serverApp := app.NewApplication(cfg)
	serverApp.RegisterCleanup(cacheStore.Stop)
	serverApp.RegisterCleanup(limiter.Stop)
	serverApp.RegisterCleanup(notifier.Close)

	serverApp.SetApp(
		cataloghandler.NewHealthHandler(cfg.Client.Postgres, cfg.Log),
		reshandler.NewReservationHandler(reservationService, limiter, cfg),
		cataloghandler.NewCatalogHandler(catalogService, limiter, cfg),
	)

	cfg.Log.Info("Starting limito storefront")
	serverApp.Run()
}

// newRateLimiter promotes the fixed-window buckets to Redis when it is
// configured; otherwise each instance throttles on its own, best-effort.
func newRateLimiter(cfg *config.Config) *middleware.RateLimiter {
	var store middleware.BucketStore
	if cfg.Client.Redis != nil {
		store = middleware.NewRedisBucketStore(cfg.Client.Redis)
		cfg.Log.Info("Rate limiter using shared Redis counters")
	} else {
		store = middleware.NewMemoryBucketStore()
		cfg.Log.Info("Rate limiter using process-local counters")
	}
	return middleware.NewRateLimiter(store, cfg.Log)
}

func newMirrorNotifier(cfg *config.Config) *mirror.Notifier {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("Mirror feed not configured, spreadsheet replica will not be updated")
		return mirror.NewNotifier(mirror.NopFeed{}, cfg.Log)
	}

	feed, err := mirror.NewKafkaFeed(cfg.KafkaBrokers, cfg.MirrorTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to configure mirror feed", "error", err)
	}
	cfg.Log.Info("Mirror feed configured", "topic", cfg.MirrorTopic)
	return mirror.NewNotifier(feed, cfg.Log)
}
