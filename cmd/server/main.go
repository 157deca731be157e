package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	eventapp "github.com/resys/backend/internal/application/event"
	fulfillmentapp "github.com/resys/backend/internal/application/fulfillment"
	orderapp "github.com/resys/backend/internal/application/ordering"
	stockapp "github.com/resys/backend/internal/application/stock"
	"github.com/resys/backend/internal/domain/fulfillment"
	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/infrastructure/cache"
	"github.com/resys/backend/internal/infrastructure/config"
	"github.com/resys/backend/internal/infrastructure/event"
	"github.com/resys/backend/internal/infrastructure/logger"
	"github.com/resys/backend/internal/infrastructure/migration"
	"github.com/resys/backend/internal/infrastructure/persistence"
	"github.com/resys/backend/internal/infrastructure/strategy"
	"github.com/resys/backend/internal/infrastructure/telemetry"
	"github.com/resys/backend/internal/interfaces/http/handler"
	"github.com/resys/backend/internal/interfaces/http/middleware"
	"github.com/resys/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	version        = "1.0.0"
	priceCacheTTL  = 30 * time.Second
	shutdownWindow = 30 * time.Second
)

//	@title			Fulfillment Backend API
//	@version		1.0
//	@description	Order checkout, inventory allocation, shipments and stock movements

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	migrate := flag.Bool("migrate", false, "apply pending schema migrations before serving")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync(baseLog) }()

	ctx := context.Background()

	// Telemetry first so every later component picks up the global providers
	tp, err := telemetry.NewProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := telemetry.BridgeLogger(baseLog, tp, cfg.App.Name)
	meter := tp.Meter(cfg.App.Name)

	profiler, err := telemetry.StartProfiler(telemetry.ProfilerConfig{
		ServerAddress:   cfg.Telemetry.ProfilingEndpoint,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Warn("Profiler disabled", zap.Error(err))
	}

	log.Info("Starting fulfillment service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	if *migrate {
		if err := migrateSchema(cfg.Database, log); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
	}

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBName:          cfg.Database.DBName,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meter, cfg.Telemetry.DBSlowQueryThresh, log)
	if err != nil {
		log.Warn("Database metrics disabled", zap.Error(err))
	}

	// Redis is optional: prices fall back to an in-process catalog and
	// idempotency to an in-process store
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
	}

	var prices ordering.VariantCatalog
	if redisClient != nil {
		prices = cache.NewCachedVariantPriceProvider(cache.NewRedisVariantPriceProvider(redisClient, ""), priceCacheTTL)
	} else {
		prices = cache.NewInMemoryVariantCatalog()
	}
	seeded, err := cache.SeedVariantCatalog(ctx, prices, cfg.Catalog.Variants)
	if err != nil {
		log.Fatal("Failed to seed variant catalog", zap.Error(err))
	}
	if redisClient == nil && seeded == 0 {
		log.Warn("Redis disabled and no catalog.variants configured, carts accept only variants priced through the catalog API")
	}
	log.Info("Variant catalog ready", zap.Bool("redis", redisClient != nil), zap.Int("seeded", seeded))
	idempotency := cache.NewIdempotencyStore(redisClient, log)

	// Events: aggregates write to the outbox inside their transaction, the
	// processor relays entries to the in-memory bus
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	outboxPublisher := event.NewOutboxPublisher(serializer, event.WithMaxRetries(cfg.Event.MaxRetries))
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	bus := event.NewInMemoryEventBus(log)

	fulfillmentMetrics, err := telemetry.NewFulfillmentMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create fulfillment metrics", zap.Error(err))
	}
	idempotencyCfg := shared.IdempotencyConfig{TTL: cfg.Event.IdempotencyTTL, Enabled: true}
	bus.Subscribe(event.NewIdempotentHandler("fulfillment-metrics", fulfillmentMetrics, idempotency, log,
		event.WithIdempotencyConfig(idempotencyCfg)))
	bus.Subscribe(eventapp.NewAuditLogHandler(log))

	// Without the outbox, events go straight to the bus after commit
	txOpts := []persistence.TransactionScopeOption{persistence.WithScopeLogger(log)}
	if cfg.Event.OutboxEnabled {
		txOpts = append(txOpts, persistence.WithOutbox(outboxPublisher))
	} else {
		txOpts = append(txOpts, persistence.WithEventPublisher(bus))
	}
	txScope := persistence.NewGormTransactionScope(db.DB, txOpts...)

	// Repositories and services
	orders := persistence.NewGormOrderRepository(db.DB)
	registry, err := strategy.NewRegistryWithDefault(cfg.Fulfillment.DefaultStrategy)
	if err != nil {
		log.Fatal("Failed to create strategy registry", zap.Error(err))
	}
	planner := fulfillment.NewPlanner(persistence.NewGormFulfillmentStockQuery(db.DB), registry)

	orderService := orderapp.NewOrderService(orders, prices, txScope, log)
	shipmentService := orderapp.NewShipmentService(txScope, log)
	fulfillmentService := fulfillmentapp.NewFulfillmentService(planner, orders, txScope, fulfillmentMetrics, log)
	locationService := stockapp.NewLocationService(persistence.NewGormStockLocationRepository(db.DB), txScope, log)
	stockItemService := stockapp.NewStockItemService(
		persistence.NewGormStockItemRepository(db.DB),
		persistence.NewGormStockMovementRepository(db.DB),
		txScope,
		log,
	)
	transferService := stockapp.NewTransferService(persistence.NewGormStockTransferRepository(db.DB), txScope, log)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)
	catalogService := orderapp.NewCatalogService(prices, log)

	var processor *event.OutboxProcessor
	if cfg.Event.OutboxEnabled {
		processorCfg := event.DefaultOutboxProcessorConfig()
		processorCfg.BatchSize = cfg.Event.BatchSize
		processorCfg.PollInterval = cfg.Event.PollInterval
		processorCfg.CleanupEnabled = cfg.Event.CleanupEnabled
		if cfg.Event.CleanupRetention > 0 {
			processorCfg.CleanupRetention = cfg.Event.CleanupRetention
		}
		processor = event.NewOutboxProcessor(outboxRepo, bus, serializer, processorCfg, log)
	}

	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	if processor != nil {
		if err := processor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order: recovery, request logger (assigns the request ID), tracing,
	// metrics, CORS, body limit
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	})...)
	engine.Use(middleware.HTTPMetrics(meter))
	engine.Use(middleware.CORS(cfg.HTTP.CORSAllowOrigins))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	dependencies := map[string]handler.Pinger{
		"database": handler.PingFunc(func(context.Context) error { return db.Ping() }),
	}
	if redisClient != nil {
		dependencies["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, dependencies)
	engine.GET("/health", systemHandler.Health)
	router.RegisterSwagger(engine)

	router.RegisterAPI(router.NewRouter(engine, router.WithAPIVersion("v1")), router.Handlers{
		Orders:      handler.NewOrderHandler(orderService),
		Shipments:   handler.NewShipmentHandler(shipmentService),
		Fulfillment: handler.NewFulfillmentHandler(fulfillmentService),
		Locations:   handler.NewStockLocationHandler(locationService),
		StockItems:  handler.NewStockItemHandler(stockItemService),
		Transfers:   handler.NewStockTransferHandler(transferService),
		Outbox:      handler.NewOutboxHandler(outboxService),
		System:      systemHandler,
		Catalog:     handler.NewCatalogHandler(catalogService),
	}).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWindow)
	defer cancel()

	// Stop accepting requests, drain the outbox relay, then release resources
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if processor != nil {
		if err := processor.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping outbox processor", zap.Error(err))
		}
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if closer, ok := idempotency.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if profiler != nil {
		_ = profiler.Stop()
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrateSchema applies the embedded migrations over a dedicated connection
func migrateSchema(cfg config.DatabaseConfig, log *zap.Logger) error {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, migration.WithLogger(log))
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer m.Close()
	return m.Up()
}
