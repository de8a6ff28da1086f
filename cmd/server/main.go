package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	appstock "github.com/erp/stockreservation/internal/application/stock"
	"github.com/erp/stockreservation/internal/domain/partner"
	"github.com/erp/stockreservation/internal/domain/stock"
	"github.com/erp/stockreservation/internal/infrastructure/config"
	"github.com/erp/stockreservation/internal/infrastructure/event"
	"github.com/erp/stockreservation/internal/infrastructure/lock"
	"github.com/erp/stockreservation/internal/infrastructure/logger"
	"github.com/erp/stockreservation/internal/infrastructure/persistence"
	"github.com/erp/stockreservation/internal/infrastructure/telemetry"
	"github.com/erp/stockreservation/internal/interfaces/http/handler"
	"github.com/erp/stockreservation/internal/interfaces/http/middleware"
	"github.com/erp/stockreservation/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const maxBodyBytes = 1 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// OTLP log export wraps the base logger before anything else captures it
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	minLevel, err := zapcore.ParseLevel(cfg.Telemetry.LogsMinLevel)
	if err != nil {
		minLevel = zapcore.InfoLevel
	}
	log = logProvider.Bridge(log, minLevel)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting stock reservation service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
		zap.String("lock_backend", cfg.Reservation.LockBackend),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled: cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBName:  cfg.Database.DBName,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	locker, closeLocker := newLineLocker(ctx, cfg, log)
	defer closeLocker()

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewReservationAuditHandler(log))
	if meterProvider.IsEnabled() {
		metricsHandler, err := event.NewReservationMetricsHandler(meterProvider.Meter("stock.reservation"))
		if err != nil {
			log.Fatal("Failed to create reservation metrics", zap.Error(err))
		}
		eventBus.Subscribe(metricsHandler)
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	postingZone, err := cfg.Reservation.Location()
	if err != nil {
		log.Fatal("Invalid reservation time zone", zap.Error(err))
	}
	validator := stock.NewReservationValidator(
		stock.NewClockPostingTimeValidator(time.Now, cfg.Reservation.AllowFuturePosting).WithLocation(postingZone),
		partner.NewWarehouseGuard(persistence.NewGormWarehouseRepository(db.DB)),
	)
	reservationService := appstock.NewReservationService(
		persistence.NewGormStockReservationEntryRepository(db.DB),
		persistence.NewGormVoucherLineRepository(db.DB),
		persistence.NewGormTransactionScope(db.DB),
		validator,
		locker,
		log,
	)
	reservationService.SetEventPublisher(eventBus)
	reservationService.SetTouchModified(cfg.Reservation.TouchModified)
	reservationService.SetLocation(postingZone)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        newEngine(cfg, log, db, meterProvider, reservationService),
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
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracerProvider.Shutdown,
		"meter":  meterProvider.Shutdown,
		"logs":   logProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Error("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// newLineLocker selects the per voucher line lock from configuration.
// The returned func releases the backing connection, if any.
func newLineLocker(ctx context.Context, cfg *config.Config, log *zap.Logger) (appstock.LineLocker, func()) {
	if cfg.Reservation.LockBackend != config.LockBackendRedis {
		return appstock.NewKeyedMutexLocker(), func() {}
	}

	client, err := lock.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
	}
	log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))

	locker := lock.NewRedisLineLocker(client, lock.RedisLineLockerConfig{
		TTL:           cfg.Reservation.LockTTL,
		RetryInterval: cfg.Reservation.LockRetryInterval,
		RetryCount:    cfg.Reservation.LockRetryCount,
	}, log)
	return locker, func() {
		if err := client.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}
}

func newEngine(
	cfg *config.Config,
	log *zap.Logger,
	db *persistence.Database,
	meterProvider *telemetry.MeterProvider,
	reservationService handler.ReservationService,
) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	})...)
	if meterProvider.IsEnabled() {
		engine.Use(middleware.HTTPMetrics(meterProvider.Meter("http.server"), log))
	}
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(maxBodyBytes))

	handler.NewSystemHandler(db, version).RegisterHealth(engine)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewStockReservationHandler(reservationService)).
		Setup()

	return engine
}
