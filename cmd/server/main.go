// Command server runs the Kits & Bundles API.
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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appbundle "github.com/kitsbundles/backend/internal/application/bundle"
	"github.com/kitsbundles/backend/internal/infrastructure/cache"
	"github.com/kitsbundles/backend/internal/infrastructure/config"
	infracredential "github.com/kitsbundles/backend/internal/infrastructure/credential"
	"github.com/kitsbundles/backend/internal/infrastructure/logger"
	"github.com/kitsbundles/backend/internal/infrastructure/saleor"
	"github.com/kitsbundles/backend/internal/infrastructure/strategy"
	"github.com/kitsbundles/backend/internal/infrastructure/telemetry"
	"github.com/kitsbundles/backend/internal/interfaces/http/handler"
	"github.com/kitsbundles/backend/internal/interfaces/http/middleware"
	"github.com/kitsbundles/backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry
	providers, err := telemetry.Setup(ctx, cfg.Telemetry, version, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	if providers.Logger.IsEnabled() {
		bridged, err := logger.New(logCfg, logger.WithCore(providers.LogCore(cfg.Telemetry.ServiceName, zap.InfoLevel)))
		if err != nil {
			log.Fatal("Failed to attach OpenTelemetry log bridge", zap.Error(err))
		}
		log = bridged
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Kits & Bundles",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
		zap.String("credentials_backend", cfg.Credentials.Backend),
	)

	// Redis is shared by the credential store and the ledger lock
	var redisClient *redis.Client
	if cfg.Credentials.Backend == config.BackendRedis || cfg.Ledger.LockEnabled {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		log.Info("Redis connected successfully", zap.String("addr", cfg.Redis.Addr()))
	}

	storeOpts := []infracredential.StoreFactoryOption{
		infracredential.WithLogger(log),
		infracredential.WithAutoMigrate(true),
	}
	if redisClient != nil {
		storeOpts = append(storeOpts, infracredential.WithRedisClient(redisClient))
	}
	store, closeStore, err := infracredential.NewStoreFactory(cfg, storeOpts...).Create(ctx)
	if err != nil {
		log.Fatal("Failed to open credential store", zap.Error(err))
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("Error closing credential store", zap.Error(err))
		}
	}()

	// Bundle service
	bundleMetrics, err := telemetry.NewBundleMetrics(providers.Meter.Meter("kits-and-bundles/bundle"))
	if err != nil {
		log.Fatal("Failed to create bundle metrics", zap.Error(err))
	}

	gateways := saleor.NewFactory(saleor.Config{
		Channel:         cfg.Saleor.Channel,
		Timeout:         cfg.Saleor.Timeout,
		MaxResponseSize: cfg.Saleor.MaxResponseSize,
	}, saleor.WithRecorder(bundleMetrics))

	strategies, err := strategy.NewRegistryWithDefaults()
	if err != nil {
		log.Fatal("Failed to register pricing strategies", zap.Error(err))
	}
	log.Info("Pricing strategies registered", zap.Strings("methods", strategies.ListPricingStrategies()))

	serviceOpts := []appbundle.Option{
		appbundle.WithMetrics(bundleMetrics),
		appbundle.WithLogger(log),
	}
	if cfg.Ledger.LockEnabled {
		serviceOpts = append(serviceOpts, appbundle.WithLedgerLocker(
			cache.NewRedisLedgerLock(redisClient, cfg.Redis.KeyPrefix, cfg.Ledger),
		))
		log.Info("Ledger lock enabled", zap.Duration("ttl", cfg.Ledger.LockTTL))
	}
	bundleService := appbundle.NewService(gateways, strategies, serviceOpts...)

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	httpMetrics, err := middleware.HTTPMetrics(providers.Meter)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics middleware", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     providers.Tracer.IsEnabled(),
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(httpMetrics)
	engine.Use(middleware.SecureWithConfig(middleware.SecurityConfig{
		HSTSEnabled:           cfg.IsProduction(),
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
	}))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	bundleHandler := handler.NewBundleHandler(bundleService)
	bundleRoutes := router.NewDomainGroup("bundle", "").
		Use(middleware.TenantResolver(store)).
		POST("/add-bundle", bundleHandler.AddBundle).
		OPTIONS("/add-bundle", bundleHandler.Preflight).
		POST("/inspect-bundle", bundleHandler.InspectBundle).
		OPTIONS("/inspect-bundle", bundleHandler.Preflight)

	r := router.NewRouter(engine)
	r.Register(bundleRoutes)
	r.Setup()

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, store)
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Flush telemetry after the last request finished
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
