package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/erp/stockledger/internal/application/catalog"
	eventapp "github.com/erp/stockledger/internal/application/event"
	financeapp "github.com/erp/stockledger/internal/application/finance"
	fulfillmentapp "github.com/erp/stockledger/internal/application/fulfillment"
	inventoryapp "github.com/erp/stockledger/internal/application/inventory"
	tradeapp "github.com/erp/stockledger/internal/application/trade"
	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/cache"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/erp/stockledger/internal/infrastructure/event"
	"github.com/erp/stockledger/internal/infrastructure/export"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/erp/stockledger/internal/infrastructure/migration"
	"github.com/erp/stockledger/internal/infrastructure/persistence"
	"github.com/erp/stockledger/internal/infrastructure/scheduler"
	"github.com/erp/stockledger/internal/infrastructure/storage"
	"github.com/erp/stockledger/internal/infrastructure/telemetry"
	"github.com/erp/stockledger/internal/interfaces/http/handler"
	"github.com/erp/stockledger/internal/interfaces/http/middleware"
	"github.com/erp/stockledger/internal/interfaces/http/router"
	"github.com/erp/stockledger/migrations"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
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

	ctx := context.Background()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := providers.BridgeLogger(baseLog, cfg.Telemetry.ServiceName)
	defer func() {
		_ = log.Sync()
	}()
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	log.Info("Starting stock ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(log, logger.MapGormLogLevel(cfg.Log.Level)),
		persistence.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.InstrumentDB(db.DB, cfg.Telemetry, cfg.Database.DBName, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	if err := migrateSchema(db, log); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}
	log.Info("Database ready", zap.String("driver", db.Driver))

	metrics, err := telemetry.NewLedgerMetrics(providers.Meter())
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}

	// Outbox: aggregates enqueue events in their own transaction
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	outboxPublisher := event.NewOutboxPublisher(serializer, event.WithMaxRetries(cfg.Event.MaxRetries))
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	retryPolicy := uow.DefaultRetryPolicy()
	if cfg.Ledger.MaxRetries > 0 {
		retryPolicy.MaxRetries = cfg.Ledger.MaxRetries
	}
	if cfg.Ledger.RetryInitialInterval > 0 {
		retryPolicy.InitialInterval = cfg.Ledger.RetryInitialInterval
	}
	scope := uow.WithRetry(
		persistence.NewGormTransactionScope(db.DB, outboxPublisher, cfg.Ledger.LockTimeout),
		retryPolicy, log,
		uow.WithRetryObserver(metrics.Retried),
	)

	ledger := inventoryapp.NewStockLedger(
		inventoryapp.WithLedgerMetrics(metrics),
		inventoryapp.WithInvariantValidation(cfg.Ledger.ValidateInvariants),
	)

	// Application services
	validator := inventoryapp.NewConsistencyValidator(scope, metrics)
	catalogService := catalogapp.NewCatalogService(scope)
	stockService := inventoryapp.NewStockService(scope, ledger, validator)
	transferService := inventoryapp.NewTransferService(scope, ledger)
	quotationService := tradeapp.NewQuotationService(scope, ledger, cfg.Workflow)
	salesOrderService := tradeapp.NewSalesOrderService(scope, ledger)
	procurementService := tradeapp.NewProcurementService(scope, ledger)
	returnService := tradeapp.NewReturnService(scope, ledger)
	pickingService := fulfillmentapp.NewPickingService(scope)
	deliveryService := fulfillmentapp.NewDeliveryService(scope, ledger)
	invoiceService := financeapp.NewInvoiceService(scope, cfg.Finance)
	creditNoteService := financeapp.NewCreditNoteService(scope)
	accountService := financeapp.NewAccountService(scope)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	exportOpts := []inventoryapp.ExportOption{}
	if cfg.Storage.Bucket != "" {
		archive, err := storage.NewS3Archive(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize export archive", zap.Error(err))
		}
		exportOpts = append(exportOpts, inventoryapp.WithArchive(archive, cfg.Storage.PresignExpiry))
	}
	exportService := inventoryapp.NewExportService(scope, export.NewMovementWorkbook(), exportOpts...)

	// Saga handlers run at most once per event across instances
	coordination, err := cache.NewCoordination(ctx, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	)
	if err != nil {
		log.Fatal("Failed to initialize saga coordination", zap.Error(err))
	}
	defer func() {
		if err := coordination.Close(); err != nil {
			log.Error("Error closing saga coordination", zap.Error(err))
		}
	}()

	idempotency := shared.DefaultIdempotencyConfig()
	if cfg.Event.IdempotencyTTL > 0 {
		idempotency.TTL = cfg.Event.IdempotencyTTL
	}
	sagaSteps := &event.IdempotencyMetrics{}
	if err := metrics.ObserveSagaSteps(func() map[string]int64 { return sagaSteps.Stats().ByOutcome() }); err != nil {
		log.Fatal("Failed to register saga step metrics", zap.Error(err))
	}
	sagaHandlers := event.WrapHandlersWithIdempotency(
		[]shared.EventHandler{
			tradeapp.NewDeliveryDeliveredHandler(salesOrderService, log),
			financeapp.NewSalesReturnApprovedHandler(creditNoteService, cfg.Workflow.AutoDraftCreditNote, log),
		},
		coordination.Idempotency, log,
		event.WithIdempotencyConfig(idempotency),
		event.WithStepLock(coordination.Locker, cfg.Event.StepLockTTL),
		event.WithIdempotencyMetrics(sagaSteps),
	)

	eventBus := event.NewInMemoryEventBus(log)
	for _, h := range sagaHandlers {
		eventBus.Subscribe(h)
		log.Info("Saga handler registered", zap.Strings("event_types", h.EventTypes()))
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	if cfg.Event.ProcessorEnabled {
		processorConfig := event.ProcessorConfigFrom(cfg.Event)
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, serializer, processorConfig, log)
		outboxProcessor.SetObserver(metrics.OutboxDelivered)
		if err := outboxProcessor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorConfig.BatchSize),
			zap.Duration("poll_interval", processorConfig.PollInterval),
			zap.String("coordination", coordination.Backend),
		)
	}

	// Background jobs: overdue invoices and the nightly ledger replay
	jobScheduler := scheduler.NewScheduler(
		scheduler.DefaultSchedulerConfig(),
		scheduler.NewLedgerJobExecutor(invoiceService, validator, log),
		log,
	)
	if err := jobScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start job scheduler", zap.Error(err))
	}
	defer func() {
		if err := jobScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping job scheduler", zap.Error(err))
		}
	}()
	trigger := scheduler.NewCronTrigger(cronConfig(cfg, log), jobScheduler, log)
	if err := trigger.Start(ctx); err != nil {
		log.Fatal("Failed to start cron trigger", zap.Error(err))
	}
	defer func() {
		if err := trigger.Stop(context.Background()); err != nil {
			log.Error("Error stopping cron trigger", zap.Error(err))
		}
	}()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: request id first so every later layer can log it,
	// the actor last so it lands on the span opened by tracing.
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORS(cfg.HTTP),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     providers.Enabled(),
		}),
		middleware.SpanErrorMarker(),
		middleware.Actor(),
		middleware.TracingAttributeInjector(),
	)

	engine.GET("/health", healthHandler(db))

	r := router.NewRouter(engine)
	router.RegisterLedgerRoutes(r, router.LedgerHandlers{
		Catalog:        handler.NewCatalogHandler(catalogService),
		Stock:          handler.NewStockHandler(stockService, exportService),
		Transfer:       handler.NewTransferHandler(transferService),
		Quotation:      handler.NewQuotationHandler(quotationService),
		SalesOrder:     handler.NewSalesOrderHandler(salesOrderService),
		Fulfillment:    handler.NewFulfillmentHandler(pickingService, deliveryService),
		Procurement:    handler.NewProcurementHandler(procurementService),
		SalesReturn:    handler.NewSalesReturnHandler(returnService),
		Invoice:        handler.NewInvoiceHandler(invoiceService),
		CreditNote:     handler.NewCreditNoteHandler(creditNoteService),
		FinanceAccount: handler.NewFinanceAccountHandler(accountService),
		Outbox:         handler.NewOutboxHandler(outboxService),
	})
	r.Setup()

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrateSchema applies the embedded migrations on PostgreSQL. SQLite is
// only used for local runs and gets its tables from the GORM models.
func migrateSchema(db *persistence.Database, log *zap.Logger) error {
	if db.Driver != "postgres" {
		return db.AutoMigrate()
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	return m.Up()
}

// cronConfig turns the ledger and finance settings into trigger settings.
// A schedule of "off" disables the nightly reconcile.
func cronConfig(cfg *config.Config, log *zap.Logger) scheduler.CronTriggerConfig {
	out := scheduler.DefaultCronTriggerConfig()
	if cfg.Finance.OverdueCheckInterval > 0 {
		out.OverdueInterval = cfg.Finance.OverdueCheckInterval
	}
	if cfg.Ledger.ReconcileSchedule == "off" {
		out.ReconcileEnabled = false
		return out
	}
	hour, minute, err := scheduler.ParseCronSchedule(cfg.Ledger.ReconcileSchedule)
	if err != nil {
		log.Warn("Invalid reconcile schedule, using default",
			zap.String("schedule", cfg.Ledger.ReconcileSchedule),
			zap.Error(err),
		)
		return out
	}
	out.ReconcileHour, out.ReconcileMinute = hour, minute
	return out
}

// healthHandler reports database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
