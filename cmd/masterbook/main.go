package main

import (
	"context"
	"time"

	"github.com/julienschmidt/httprouter"

	accounthandler "masterbook/internal/accounts/handler"
	accountrepository "masterbook/internal/accounts/repository"
	accountservice "masterbook/internal/accounts/service"
	accountvalidator "masterbook/internal/accounts/validator"
	analyticshandler "masterbook/internal/analytics/handler"
	analyticsservice "masterbook/internal/analytics/service"
	availabilityhandler "masterbook/internal/availability/handler"
	availabilityrepository "masterbook/internal/availability/repository"
	availabilityservice "masterbook/internal/availability/service"
	availabilityvalidator "masterbook/internal/availability/validator"
	cataloghandler "masterbook/internal/catalog/handler"
	catalogrepository "masterbook/internal/catalog/repository"
	catalogservice "masterbook/internal/catalog/service"
	catalogvalidator "masterbook/internal/catalog/validator"
	"masterbook/internal/migrations"
	"masterbook/internal/orders/events"
	orderhandler "masterbook/internal/orders/handler"
	orderrepository "masterbook/internal/orders/repository"
	orderservice "masterbook/internal/orders/service"
	ordervalidator "masterbook/internal/orders/validator"
	"masterbook/pkg/app"
	"masterbook/pkg/config"
	"masterbook/pkg/contracts"
	"masterbook/pkg/db"
	"masterbook/pkg/db/filestore"
	"masterbook/pkg/kafka"
	"masterbook/pkg/middleware"
)

const ServiceName = "masterbook"

// routes composes the per-area handlers into one registration point.
type routes []contracts.Handler

func (r routes) RegisterRoutes(router *httprouter.Router) {
	for _, h := range r {
		h.RegisterRoutes(router)
	}
}

type repositories struct {
	accounts     accountrepository.Repository
	availability availabilityrepository.Repository
	catalog      catalogrepository.Repository
	orders       orderrepository.Repository
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting MasterBook service")

	repos, ready, closeStorage := initStorage(cfg)
	defer closeStorage()

	publisher, closePublisher := initPublisher(cfg)
	defer closePublisher()

	accountService := accountservice.NewAccountService(
		repos.accounts,
		accountvalidator.NewUserValidator(cfg.Log),
		cfg,
	)
	availabilityService := availabilityservice.NewAvailabilityService(
		repos.availability,
		repos.orders,
		availabilityvalidator.NewAvailabilityValidator(cfg.Log),
		cfg,
	)
	catalogService := catalogservice.NewCatalogService(
		repos.catalog,
		repos.orders,
		catalogvalidator.NewCatalogValidator(cfg.Log),
		cfg,
	)
	orderService := orderservice.NewOrderService(
		repos.orders,
		repos.availability,
		repos.catalog,
		ordervalidator.NewOrderValidator(cfg.Log),
		publisher,
		cfg,
	)
	analyticsService := analyticsservice.NewAnalyticsService(repos.orders, repos.catalog, cfg)

	auth := middleware.RequireAuth(accountService, cfg.Log)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, routes{
		accounthandler.NewAccountHandler(accountService, auth, cfg.Log),
		availabilityhandler.NewAvailabilityHandler(availabilityService, auth, cfg.Log),
		cataloghandler.NewCatalogHandler(catalogService, auth, cfg.Log),
		orderhandler.NewOrderHandler(orderService, auth, cfg.Log),
		analyticshandler.NewAnalyticsHandler(analyticsService, auth, cfg.Log),
	}, ready)
	serverApp.Run()
}

func initStorage(cfg *config.Config) (repositories, app.ReadyFunc, func()) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		pool, err := db.OpenPool(ctx, cfg.DatabaseURL)
		if err != nil {
			cfg.Log.Fatal("Failed to connect to database", "error", err)
		}
		if err := migrations.Up(ctx, pool); err != nil {
			cfg.Log.Fatal("Failed to apply migrations", "error", err)
		}
		cfg.Log.Info("Postgres storage initialized")

		return repositories{
			accounts:     accountrepository.NewPostgresRepository(pool),
			availability: availabilityrepository.NewPostgresRepository(pool),
			catalog:      catalogrepository.NewPostgresRepository(pool),
			orders:       orderrepository.NewPostgresRepository(pool),
		}, db.ReadyCheck(pool), pool.Close

	case config.DriverFile:
		store, err := filestore.Open(cfg.DataFilePath)
		if err != nil {
			cfg.Log.Fatal("Failed to open data file", "path", cfg.DataFilePath, "error", err)
		}
		cfg.Log.Info("File storage initialized", "path", cfg.DataFilePath)

		// The snapshot lives in memory; once Open succeeded the store
		// is always ready.
		ready := func(context.Context) error { return nil }

		return repositories{
			accounts:     accountrepository.NewFileRepository(store),
			availability: availabilityrepository.NewFileRepository(store),
			catalog:      catalogrepository.NewFileRepository(store),
			orders:       orderrepository.NewFileRepository(store),
		}, ready, func() {}

	default:
		cfg.Log.Fatal("Unknown storage driver", "storage_driver", cfg.StorageDriver)
		return repositories{}, nil, nil
	}
}

func initPublisher(cfg *config.Config) (events.Publisher, func()) {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, order events will not be published")
		return events.NoopPublisher{}, func() {}
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaOrdersTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	cfg.Log.Info("Kafka producer initialized",
		"brokers", cfg.KafkaBrokers,
		"topic", cfg.KafkaOrdersTopic,
	)

	return events.NewKafkaPublisher(producer, cfg.Log), func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}
}
