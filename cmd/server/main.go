package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appauth "github.com/isow/backend/internal/application/auth"
	"github.com/isow/backend/internal/application/dashboard"
	"github.com/isow/backend/internal/application/directory"
	"github.com/isow/backend/internal/application/i18n"
	"github.com/isow/backend/internal/application/listview"
	"github.com/isow/backend/internal/application/session"
	"github.com/isow/backend/internal/infrastructure/auth"
	"github.com/isow/backend/internal/infrastructure/cache"
	"github.com/isow/backend/internal/infrastructure/config"
	"github.com/isow/backend/internal/infrastructure/event"
	"github.com/isow/backend/internal/infrastructure/identity"
	"github.com/isow/backend/internal/infrastructure/logger"
	"github.com/isow/backend/internal/infrastructure/persistence"
	"github.com/isow/backend/internal/infrastructure/recordstore"
	"github.com/isow/backend/internal/infrastructure/telemetry"
	"github.com/isow/backend/internal/interfaces/http/handler"
	"github.com/isow/backend/internal/interfaces/http/middleware"
	"github.com/isow/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/isow/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			ISOW Admin API
//	@version		1.0
//	@description	Administrative back office for ISOW companies and users
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.email	support@isow.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// The OTLP log bridge needs its provider before the logger exists, so it
	// reports its own setup problems through a bootstrap logger.
	bootLog, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	var extraCores []zapcore.Core
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, version, bootLog)
	if err != nil {
		bootLog.Warn("OTLP log export disabled", zap.Error(err))
	} else if logProvider.IsEnabled() {
		extraCores = append(extraCores, logProvider.Core(logger.ParseLevel(cfg.Log.Level)))
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		ExtraCores: extraCores,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ISOW admin server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
		zap.String("records_backend", cfg.Records.Backend),
	)

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, version, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	// Metrics
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, version, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	meter := meterProvider.Meter("isow-backend")

	// Database holds the accounts table and, for the gorm backend, the records
	dbOpts := []persistence.Option{
		persistence.WithLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)),
	}
	if cfg.Telemetry.DBTraceEnabled {
		dbOpts = append(dbOpts, persistence.WithTracing())
	}
	db, err := persistence.NewDatabase(&cfg.Database, dbOpts...)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected",
		zap.String("driver", cfg.Database.Driver),
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	// Remote record service
	recordMetrics, err := telemetry.NewRecordMetrics(meter, cfg.Records.Backend)
	if err != nil {
		log.Fatal("Failed to create record metrics", zap.Error(err))
	}
	records, err := recordstore.Open(ctx, cfg, recordstore.Deps{
		DB:      db.DB,
		Metrics: recordMetrics,
		Logger:  log,
	})
	if err != nil {
		log.Fatal("Failed to open record store", zap.Error(err))
	}

	// Session storage and token blacklist share the Redis client when enabled
	storage, err := cache.NewSessionStorageFactory(cfg.Redis, cache.WithLogger(log)).CreateStorage()
	if err != nil {
		log.Fatal("Failed to create session storage", zap.Error(err))
	}
	var blacklist auth.TokenBlacklist
	if storage.Client != nil {
		blacklist = auth.NewRedisTokenBlacklistWithClient(storage.Client)
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
	}

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	var amqpPublisher *event.AMQPPublisher
	if cfg.Events.AMQPEnabled {
		amqpPublisher, err = event.NewAMQPPublisher(cfg.Events, log)
		if err != nil {
			log.Fatal("Failed to connect to AMQP broker", zap.Error(err))
		}
		eventBus.Subscribe(event.NewForwardingHandler(amqpPublisher, event.DirectoryEventTypes...))
		log.Info("Forwarding directory events to AMQP", zap.String("exchange", cfg.Events.Exchange))
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application services
	organizationService := directory.NewOrganizationService(records, eventBus, log)
	individualService := directory.NewIndividualService(records, eventBus, log)
	dashboardService := dashboard.NewService(individualService, organizationService)

	views := listview.NewRegistry(
		listview.DirectoryFactories(organizationService, individualService, cfg.ListView.SettleDelay, log),
		cfg.ListView.IdleTTL,
		log,
	)
	if err := views.Start(cfg.ListView.SweepSchedule); err != nil {
		log.Fatal("Failed to schedule list view sweep", zap.Error(err))
	}

	// The federated provider stays a nil interface when disabled
	var federated appauth.FederatedProvider
	if cfg.OIDC.Enabled {
		provider, err := identity.NewOIDCProvider(ctx, cfg.OIDC, identity.WithOIDCLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize OIDC provider", zap.Error(err))
		}
		federated = provider
	}

	authService := appauth.NewService(appauth.Deps{
		Sessions:  session.NewManager(storage.Storage, cfg.Session.StorageKey, cfg.Session.TTL, log),
		Passwords: identity.NewPasswordAuthenticator(persistence.NewGormAccountRepository(db.DB), log),
		Federated: federated,
		Tokens:    auth.NewJWTService(cfg.JWT),
		Blacklist: blacklist,
		Views:     views,
		Logger:    log,
	})

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	middleware.SetupValidator()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	templates, err := handler.LoadTemplates(cfg.HTTP.TemplatesGlob)
	if err != nil {
		log.Fatal("Failed to load page templates", zap.Error(err))
	}
	engine.SetHTMLTemplate(templates)

	cookies := middleware.NewCookies(cfg.Cookie)

	// Middleware order:
	// 1. RequestID - Generate request ID first
	// 2. Logger - Log requests with request ID
	// 3. Recovery - Recover from panics
	// 4. Tracing - Open the request span
	// 5. SpanErrorMarker - Mark 4xx/5xx spans as errors
	// 6. HTTPMetrics - Request counters and latency
	// 7. Secure - Security headers
	// 8. CORS - Handle cross-origin requests
	// 9. BodyLimit - Limit request body size
	// 10. RateLimit - Apply rate limiting (if enabled)
	// 11. Session - Browser session cookie
	// 12. Language - Message language negotiation
	// 13. TracingAttributeInjector - Copy request and session IDs onto the span
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		Enabled:       cfg.Telemetry.MetricsEnabled,
		MeterProvider: meterProvider,
	}))
	engine.Use(middleware.SecureWithConfig(middleware.SecurityConfig{
		HSTSEnabled:  cfg.Cookie.Secure,
		HSTSMaxAge:   middleware.DefaultSecurityConfig().HSTSMaxAge,
		CSPDirective: middleware.DefaultSecurityConfig().CSPDirective,
	}))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine.Use(middleware.Session(middleware.SessionConfig{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Cookies:    cookies,
	}))
	engine.Use(middleware.Language(i18n.Parse(cfg.App.Locale)))
	engine.Use(middleware.TracingAttributeInjector())

	// Health check probes every backing dependency
	checks := map[string]handler.Pinger{
		"records":  records,
		"database": db,
	}
	if storage.Client != nil {
		checks["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return storage.Client.Ping(ctx).Err()
		})
	}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, checks)
	engine.GET("/health", systemHandler.Health)

	// Create router with API versioning
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	skipPaths := make([]string, 0, len(router.PublicPaths))
	for _, p := range router.PublicPaths {
		skipPaths = append(skipPaths, r.BasePath()+p)
	}
	jwtMiddleware := middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
		Verifier:  authService,
		SkipPaths: skipPaths,
		Logger:    log,
	})
	r.Use(jwtMiddleware)

	// Swagger documentation endpoint
	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any",
			middleware.SwaggerProtection(cfg.Swagger, middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
				Verifier: authService,
				OnError:  middleware.RedirectOnAuthError(session.HomeRoute),
				Logger:   log,
			})),
			ginSwagger.WrapHandler(swaggerFiles.Handler),
		)
	}

	var loginLimit gin.HandlerFunc
	var authLimiter *middleware.RateLimiter
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		loginLimit = middleware.RateLimitByKey(authLimiter, func(c *gin.Context) string {
			return "login:" + c.ClientIP()
		})
	}

	groups := router.APIGroups(router.Handlers{
		Auth:          handler.NewAuthHandler(authService, cookies, log),
		Organizations: handler.NewOrganizationHandler(organizationService),
		Individuals:   handler.NewIndividualHandler(individualService),
		Views:         handler.NewViewHandler(views),
		Dashboard:     handler.NewDashboardHandler(dashboardService),
		System:        systemHandler,
	}, loginLimit)
	for _, g := range groups {
		r.Register(g)
	}

	// Setup routes
	r.Setup()

	// Server-rendered pages
	pages := handler.NewPageHandler(handler.PageDeps{
		Auth:          authService,
		Dashboard:     dashboardService,
		Views:         views,
		Organizations: organizationService,
		Individuals:   individualService,
		Cookies:       cookies,
		Logger:        log,
	})
	router.MountPages(engine, pages, listview.EntityCompanies, listview.EntityUsers)

	// Create HTTP server with config
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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
	}

	views.Stop(shutdownCtx)
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not drain", zap.Error(err))
	}
	if amqpPublisher != nil {
		if err := amqpPublisher.Close(); err != nil {
			log.Warn("Failed to close AMQP publisher", zap.Error(err))
		}
	}
	if rateLimiter != nil {
		rateLimiter.Stop()
	}
	if authLimiter != nil {
		authLimiter.Stop()
	}
	if err := storage.Close(); err != nil {
		log.Warn("Failed to close session storage", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Warn("Failed to close database", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to flush traces", zap.Error(err))
	}
	if logProvider != nil {
		if err := logProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to flush logs", zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}
