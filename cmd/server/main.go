package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/campusshop/internal"
	"github.com/dukerupert/campusshop/internal/assistant"
	"github.com/dukerupert/campusshop/internal/auth"
	"github.com/dukerupert/campusshop/internal/backend"
	"github.com/dukerupert/campusshop/internal/bootstrap"
	"github.com/dukerupert/campusshop/internal/cookie"
	"github.com/dukerupert/campusshop/internal/events"
	"github.com/dukerupert/campusshop/internal/handler"
	"github.com/dukerupert/campusshop/internal/handler/admin"
	"github.com/dukerupert/campusshop/internal/handler/storefront"
	"github.com/dukerupert/campusshop/internal/jobs"
	"github.com/dukerupert/campusshop/internal/middleware"
	"github.com/dukerupert/campusshop/internal/payment"
	"github.com/dukerupert/campusshop/internal/router"
	"github.com/dukerupert/campusshop/internal/routes"
	"github.com/dukerupert/campusshop/internal/service"
	"github.com/dukerupert/campusshop/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize Sentry error tracking
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	// Open storage. A live store that fails its probe falls back to memory.
	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	defer store.Close()
	if store.Fallback(cfg.StoreBackend) {
		logger.Warn("running on the in-memory store; data will not survive a restart",
			"requested", cfg.StoreBackend,
		)
	}

	// Ensure the admin account exists
	if err := bootstrap.EnsureAdmin(ctx, store.Users, &bootstrap.AdminConfig{
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
		Name:     cfg.Admin.Name,
	}, logger); err != nil {
		return fmt.Errorf("admin bootstrap failed: %w", err)
	}

	// Order events
	var publisher events.Publisher = events.Noop{}
	if cfg.NatsURL != "" {
		nc, err := events.Connect(cfg.NatsURL, logger)
		if err != nil {
			return fmt.Errorf("event publisher initialization failed: %w", err)
		}
		publisher = nc
		logger.Info("order events enabled", "nats_url", cfg.NatsURL)
	}
	defer publisher.Close()

	// Business metrics
	businessMetrics := telemetry.NewBusinessMetrics("campusshop", nil)

	// Identity
	identityOpts := service.IdentityOptions{
		AdminEmail: cfg.Admin.Email,
		Metrics:    businessMetrics,
		Logger:     logger,
	}
	if cfg.Firebase.AuthEnabled {
		verifier, err := auth.NewFirebaseVerifier(ctx, auth.FirebaseConfig{
			ProjectID:       cfg.Firestore.ProjectID,
			CredentialsFile: cfg.Firestore.CredentialsFile,
		})
		if err != nil {
			return fmt.Errorf("firebase auth initialization failed: %w", err)
		}
		identityOpts.Verifier = verifier
		logger.Info("firebase sign-in enabled", "project_id", cfg.Firestore.ProjectID)
	}
	sessions := service.NewSessionStore(cfg.Session.TTL)
	identity := service.NewIdentity(store.Users, sessions, identityOpts)

	// Initialize services
	catalog := service.NewCatalog(store.Products, businessMetrics)
	carts := service.NewCartSessions(store.CartSlots, logger).WithIdleTimeout(cfg.Session.CartIdleTimeout)
	checkouts := service.NewCheckoutSessions(carts, service.CheckoutOptions{
		Orders:         store.Orders,
		Addresses:      identity,
		Gateway:        payment.NewSimulated(cfg.Checkout.SettleDelay),
		Events:         publisher,
		Metrics:        businessMetrics,
		Logger:         logger,
		PersistTimeout: cfg.Checkout.PersistTimeout,
		PersistRetries: cfg.Checkout.PersistRetries,
		IdleTimeout:    cfg.Session.CartIdleTimeout,
	})
	history := service.NewOrderHistory(store.Orders)

	// The assistant stays disabled without an API key.
	var advisor service.AssistantModel
	if cfg.Assistant.APIKey != "" {
		gemini, err := assistant.NewGemini(ctx, cfg.Assistant.APIKey, cfg.Assistant.Model)
		if err != nil {
			return fmt.Errorf("assistant initialization failed: %w", err)
		}
		advisor = gemini
		logger.Info("shopping assistant enabled", "model", gemini.Model())
	}
	assistantService := service.NewAssistant(catalog, advisor, cfg.Assistant.Timeout, logger)
	adminService := service.NewAdmin(store.Orders, store.Products, store.Users, sessions, publisher, businessMetrics, logger)

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	metrics := middleware.NewMetrics("campusshop", nil)
	cookies := cookie.NewConfig("", cfg.Session.CookieSecure)

	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.Session.CookieSecure)

	defaultRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer defaultRateLimiter.Stop()
	authRateLimiter := middleware.NewRateLimiter(middleware.StrictRateLimiterConfig())
	defer authRateLimiter.Stop()

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithClientIP(),
		metrics.Middleware,
		router.Logger(logger),
		middleware.SecurityHeaders(securityConfig),
		middleware.MaxBodySize(),
		middleware.Timeout(),
		defaultRateLimiter.Middleware,
	)

	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		HealthHandler:  handler.Health(store.Kind),
		MetricsHandler: metrics.Handler(),
	})
	routes.RegisterAPIRoutes(r, routes.APIDeps{
		Sessions:    identity,
		Cookies:     cookies,
		Logger:      logger,
		AuthLimiter: authRateLimiter,
		Storefront: routes.StorefrontDeps{
			CatalogHandler:  storefront.NewCatalogHandler(catalog),
			CartHandler:     storefront.NewCartHandler(carts, catalog, businessMetrics),
			AuthHandler:     storefront.NewAuthHandler(identity, cookies),
			AddressHandler:  storefront.NewAddressHandler(identity),
			CheckoutHandler: storefront.NewCheckoutHandler(checkouts, carts),
			OrderHandler:    storefront.NewOrderHandler(history),

			AssistantHandler: storefront.NewAssistantHandler(assistantService),
		},
		Admin: routes.AdminDeps{
			DashboardHandler: admin.NewDashboardHandler(adminService),
			ProductHandler:   admin.NewProductHandler(catalog),
			OrderHandler:     admin.NewOrderHandler(adminService),
			UserHandler:      admin.NewUserHandler(adminService),
		},
	})

	// CORS wraps the router so preflight requests, which match no route,
	// still get an answer.
	var h http.Handler = r
	if len(cfg.CORSOrigins) > 0 {
		h = router.CORS(router.DefaultCORSConfig(cfg.CORSOrigins))(r)
	}

	// ==========================================================================
	// Background work
	// ==========================================================================

	go jobs.NewCleanup(jobs.Sweepers{
		Sessions:  sessions,
		Carts:     carts,
		Checkouts: checkouts,
	}, jobs.DefaultCleanupInterval, logger).Start(ctx)

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "backend", store.Kind, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
