package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dividas/backend/internal/application/access"
	"github.com/dividas/backend/internal/application/company"
	"github.com/dividas/backend/internal/application/ledger"
	"github.com/dividas/backend/internal/application/report"
	"github.com/dividas/backend/internal/infrastructure/auth"
	"github.com/dividas/backend/internal/infrastructure/cache"
	"github.com/dividas/backend/internal/infrastructure/config"
	"github.com/dividas/backend/internal/infrastructure/event"
	"github.com/dividas/backend/internal/infrastructure/logger"
	"github.com/dividas/backend/internal/infrastructure/metrics"
	"github.com/dividas/backend/internal/infrastructure/persistence"
	"github.com/dividas/backend/internal/infrastructure/telemetry"
	"github.com/dividas/backend/internal/interfaces/http/handler"
	"github.com/dividas/backend/internal/interfaces/http/middleware"
	"github.com/dividas/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration (.env, config.toml, DIVIDAS_* variables)
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting debt ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("timezone", cfg.Ledger.Timezone),
	)

	// Tracing must be installed before the database plugin and gin middleware
	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Logs follow the spans to the collector when log export is on
	logExporter, err := telemetry.NewLogExporter(context.Background(), telemetryCfg, cfg.Telemetry.LogsEnabled, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	defer func() {
		if err := logExporter.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down log exporter", zap.Error(err))
		}
	}()
	log = logExporter.Attach(log, logger.ParseLevel(cfg.Log.Level))

	// Database with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Database.SlowThreshold))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		DBSystem:   cfg.Database.Driver,
	}, log); err != nil {
		log.Warn("Failed to enable database tracing", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
		log.Info("Database schema migrated")
	}

	// Repositories
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	membershipRepo := persistence.NewGormMembershipRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	debtRepo := persistence.NewGormDebtRepository(db.DB)

	// Idempotency keys live in Redis when it is reachable
	idempotency := cache.NewIdempotencyStore(context.Background(), cfg.Redis, log)
	defer closeQuietly(log, "idempotency store", idempotency)

	// Prometheus registry shared by ledger and HTTP metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if sqlDB, err := db.SQL(); err == nil {
		registry.MustRegister(collectors.NewDBStatsCollector(sqlDB, cfg.Database.DBName))
	}

	// Event bus: ledger events feed metrics and the audit log
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewLoggingHandler(log))
	if cfg.Telemetry.MetricsEnabled {
		eventBus.Subscribe(metrics.NewLedger(registry))
	}
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	loc := cfg.Ledger.Location()
	accessService := access.NewService(membershipRepo, companyRepo, clientRepo, debtRepo, access.Options{
		PageSize:    cfg.Ledger.PageSize,
		SearchLimit: cfg.Ledger.SearchLimit,
		Location:    loc,
	})
	ledgerService := ledger.NewService(companyRepo, clientRepo, debtRepo, eventBus, idempotency, ledger.Options{
		Location:       loc,
		IdempotencyTTL: cfg.Ledger.IdempotencyTTL,
	})
	companyService := company.NewService(companyRepo, membershipRepo)
	reportService := report.NewService(clientRepo, debtRepo, loc, nil)
	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP handlers
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, map[string]handler.ReadinessCheck{
		"database": func(context.Context) error { return db.Ping() },
	})
	handlers := router.Handlers{
		Debts:     handler.NewDebtHandler(ledgerService),
		Clients:   handler.NewClientHandler(accessService),
		Companies: handler.NewCompanyHandler(companyService),
		Reports:   handler.NewReportHandler(reportService),
		System:    systemHandler,
	}

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

	// Global middleware, in order:
	// request id, tracing, logging, panic recovery, security headers, CORS,
	// body limit and request metrics.
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, tracerProvider.Enabled()))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.Telemetry.MetricsEnabled {
		engine.Use(metrics.NewHTTP(registry).Middleware())
	}

	var metricsHandler http.Handler
	if cfg.Telemetry.MetricsEnabled {
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	}
	router.RegisterOperational(engine, systemHandler, metricsHandler)

	// Versioned API: authenticated, actor resolved per request
	guards := router.Guards{
		ManageCompanies: middleware.RequirePermission(auth.PermissionManageCompanies, log),
	}
	if cfg.HTTP.SearchRateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.SearchRateLimit, cfg.HTTP.SearchRateWindow)
		defer limiter.Stop()
		guards.SearchLimit = middleware.RateLimit(limiter)
		log.Info("Client search rate limit enabled",
			zap.Int("requests", cfg.HTTP.SearchRateLimit),
			zap.Duration("window", cfg.HTTP.SearchRateWindow),
		)
	}

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithMiddleware(
			middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
				JWTService: jwtService,
				Logger:     log,
			}),
			middleware.ResolveActor(accessService),
			middleware.TracingAttributeInjector(),
		),
	)
	for _, g := range router.LedgerGroups(handlers, guards) {
		r.Register(g)
	}
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

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

func closeQuietly(log *zap.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Error("Error closing "+name, zap.Error(err))
	}
}
