package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	commissionapp "github.com/ticketbook/backend/internal/application/commission"
	"github.com/ticketbook/backend/internal/domain/shared"
	"github.com/ticketbook/backend/internal/infrastructure/cache"
	"github.com/ticketbook/backend/internal/infrastructure/config"
	"github.com/ticketbook/backend/internal/infrastructure/event"
	"github.com/ticketbook/backend/internal/infrastructure/logger"
	"github.com/ticketbook/backend/internal/infrastructure/persistence"
	"github.com/ticketbook/backend/internal/infrastructure/scheduler"
	"github.com/ticketbook/backend/internal/infrastructure/telemetry"
	"github.com/ticketbook/backend/internal/interfaces/http/handler"
	"github.com/ticketbook/backend/internal/interfaces/http/middleware"
	"github.com/ticketbook/backend/internal/interfaces/http/router"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	tel, log := initTelemetry(ctx, cfg, log)
	defer tel.shutdown(log)

	log.Info("Starting commission engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database with zap-backed GORM logger and query tracing
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel),
		logger.WithSlowThreshold(cfg.Database.SlowThreshold),
	)
	db, err := persistence.Open(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err := db.Use(dbTracing); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Repositories
	bookRepo := persistence.NewGormBookRepository(db.DB)
	distributionRepo := persistence.NewGormDistributionRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)
	recordRepo := persistence.NewGormCommissionRecordRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Commission pipeline
	resolver := commissionapp.NewSettingsResolver(settingsRepo, log)
	ledger := commissionapp.NewCommissionLedger(log)
	recalcService := commissionapp.NewRecalculationService(
		txScope,
		bookRepo,
		distributionRepo,
		resolver,
		ledger,
		commissionapp.RecalculationConfig{
			Workers:      cfg.Commission.Workers,
			MaxRetries:   cfg.Commission.MaxRetries,
			RetryBackoff: cfg.Commission.RetryBackoff,
			BookTimeout:  cfg.Commission.BookTimeout,
		},
		log,
	)
	var metrics *telemetry.CommissionMetrics
	if tel.meters.IsEnabled() {
		metrics, err = telemetry.NewCommissionMetrics(telemetry.CommissionMetricsConfig{
			Meter:  tel.meters.Meter("commission"),
			Logger: log,
		})
		if err != nil {
			log.Fatal("Failed to create commission metrics", zap.Error(err))
		}
		recalcService.SetCommissionMetrics(metrics)
	}
	queryService := commissionapp.NewQueryService(recordRepo, settingsRepo, log)
	diagnosticsService := commissionapp.NewDiagnosticsService(bookRepo, distributionRepo, paymentRepo, recordRepo, resolver, log)

	// Event bus: every PaymentRecorded delivery triggers one book recomputation
	eventBus := event.NewInMemoryEventBus(log)
	idempotencyStore, err := cache.OpenIdempotencyStore(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()
	idempotencyConfig := shared.DefaultIdempotencyConfig()
	idempotencyConfig.TTL = cfg.Event.IdempotencyTTL
	paymentHandler := event.NewIdempotentHandler(
		commissionapp.NewPaymentRecordedHandler(recalcService, log),
		idempotencyStore,
		log,
		event.WithIdempotencyConfig(idempotencyConfig),
		event.WithDeliveryObserver(metrics),
	)
	eventBus.Subscribe(paymentHandler)
	log.Info("Event handlers registered", zap.Strings("payment_recorded_events", paymentHandler.EventTypes()))

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	recalcService.SetEventPublisher(eventBus)
	paymentService := commissionapp.NewPaymentService(paymentRepo, distributionRepo, recalcService, eventBus, log)

	// Background recalculation: scheduler plus the nightly sweep
	if cfg.Scheduler.Enabled {
		jobScheduler := scheduler.NewScheduler(scheduler.SchedulerConfig{
			Enabled:           cfg.Scheduler.Enabled,
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			QueueSize:         cfg.Scheduler.QueueSize,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
		}, commissionapp.NewRecalculationJobExecutor(recalcService, log), log)
		jobScheduler.SetJobRecorder(scheduler.NewGormJobRecorder(db.DB))
		if err := jobScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start recalculation scheduler", zap.Error(err))
		}
		defer func() {
			if err := jobScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping recalculation scheduler", zap.Error(err))
			}
		}()

		sweep, err := scheduler.NewSweepTrigger(scheduler.SweepTriggerConfig{
			Enabled:       cfg.Scheduler.SweepEnabled,
			Schedule:      cfg.Scheduler.SweepSchedule,
			CheckInterval: cfg.Scheduler.SweepCheckInterval,
		}, jobScheduler, queryService, log)
		if err != nil {
			log.Fatal("Invalid sweep schedule", zap.Error(err))
		}
		if err := sweep.Start(ctx); err != nil {
			log.Fatal("Failed to start commission sweep", zap.Error(err))
		}
		defer func() {
			if err := sweep.Stop(context.Background()); err != nil {
				log.Error("Error stopping commission sweep", zap.Error(err))
			}
		}()
		log.Info("Recalculation scheduler started",
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
			zap.Duration("job_timeout", cfg.Scheduler.JobTimeout),
			zap.Bool("sweep_enabled", cfg.Scheduler.SweepEnabled),
		)
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	var meter metric.Meter
	if tel.meters.IsEnabled() {
		meter = tel.meters.Meter("http.server")
	}
	requestMetrics, err := middleware.RequestMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tel.tracer.IsEnabled(),
		}),
		middleware.TracingAttributeInjector(),
		middleware.SpanErrorMarker(),
		requestMetrics,
		middleware.Profiling(tel.profiler.IsEnabled(), "/health"),
		middleware.Secure(),
		middleware.CORS(middleware.CORSConfig{
			AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
			AllowMethods:     cfg.HTTP.CORSAllowMethods,
			AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	var recalcGuard []gin.HandlerFunc
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		recalcGuard = append(recalcGuard, middleware.RateLimitByKey(limiter, middleware.EventRateLimitKey))
	}

	commissionHandler := handler.NewCommissionHandler(recalcService, queryService, diagnosticsService)
	paymentHTTPHandler := handler.NewPaymentHandler(paymentService)
	healthHandler := handler.NewHealthHandler(db, cfg.App.Name, version)

	router.API{
		Commission:  commissionHandler,
		Payments:    paymentHTTPHandler,
		Health:      healthHandler.Health,
		RecalcGuard: recalcGuard,
	}.Mount(engine, router.DefaultVersion)

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

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// telemetryStack holds the OpenTelemetry providers and the profiler
type telemetryStack struct {
	tracer   *telemetry.TracerProvider
	meters   *telemetry.MeterProvider
	logs     *telemetry.LogExport
	profiler *telemetry.Profiler
}

// initTelemetry starts tracing, metrics, log export and profiling. The
// returned logger also forwards entries to the OTLP log pipeline.
func initTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*telemetryStack, *zap.Logger) {
	telemetry.ServiceVersion = version
	tel := &telemetryStack{}
	var err error

	tel.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	tel.meters, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	tel.logs, err = telemetry.NewLogExport(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	if tel.logs.IsEnabled() {
		level, parseErr := zapcore.ParseLevel(cfg.Log.Level)
		if parseErr != nil {
			level = zapcore.InfoLevel
		}
		log = tel.logs.Attach(log, level)
	}

	tel.profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		Tags:            map[string]string{"env": cfg.App.Env, "version": version},
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	if tel.profiler.IsEnabled() && tel.tracer.IsEnabled() {
		tel.tracer.EnableSpanProfiles()
	}

	return tel, log
}

// shutdown flushes and stops every telemetry component
func (t *telemetryStack) shutdown(log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := t.profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := t.logs.Shutdown(ctx); err != nil {
		log.Error("Error shutting down log export", zap.Error(err))
	}
	if err := t.meters.Shutdown(ctx); err != nil {
		log.Error("Error shutting down metrics", zap.Error(err))
	}
	if err := t.tracer.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracing", zap.Error(err))
	}
}
