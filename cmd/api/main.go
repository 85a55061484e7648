package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/backend-trek/internal/analytics"
	"github.com/noah-isme/backend-trek/internal/app"
	"github.com/noah-isme/backend-trek/internal/auth"
	"github.com/noah-isme/backend-trek/internal/cache"
	"github.com/noah-isme/backend-trek/internal/cart"
	"github.com/noah-isme/backend-trek/internal/catalog"
	"github.com/noah-isme/backend-trek/internal/checkout"
	"github.com/noah-isme/backend-trek/internal/common"
	"github.com/noah-isme/backend-trek/internal/compare"
	"github.com/noah-isme/backend-trek/internal/config"
	"github.com/noah-isme/backend-trek/internal/db"
	"github.com/noah-isme/backend-trek/internal/events"
	"github.com/noah-isme/backend-trek/internal/health"
	"github.com/noah-isme/backend-trek/internal/notify"
	"github.com/noah-isme/backend-trek/internal/obs"
	"github.com/noah-isme/backend-trek/internal/order"
	"github.com/noah-isme/backend-trek/internal/pricing"
	"github.com/noah-isme/backend-trek/internal/queue"
	"github.com/noah-isme/backend-trek/internal/ratelimit"
	"github.com/noah-isme/backend-trek/internal/security"
	"github.com/noah-isme/backend-trek/internal/wishlist"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, obs.TracerConfig{
		ServiceName: "trek-api",
		Endpoint:    cfg.OtelEndpoint,
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Error().Err(err).Msg("shutdown tracer")
			}
		}()
	}

	bootCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := app.NewPool(bootCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if dir := envOrDefault("MIGRATIONS_DIR", "migrations"); dirExists(dir) {
		if err := app.RunMigrations(dir, cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
	}

	redisClient, err := app.NewRedis(bootCtx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	taskClient, err := app.NewTaskClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("open task client")
	}
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	registry := app.NewMetricsRegistry()
	httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", "")), registry)
	domainMetrics := obs.NewDomainMetrics(cfg.MetricsNamespace, registry)

	queries := db.New(pool)
	redisCache := &cache.Cache{R: redisClient}

	catalogSvc := &catalog.Service{
		Q:            queries,
		Cache:        redisCache,
		CacheTTL:     cfg.CatalogCacheTTL,
		DefaultLimit: cfg.CatalogDefaultLimit,
		MaxLimit:     cfg.CatalogMaxLimit,
	}
	catalogHandler := &catalog.Handlers{Svc: catalogSvc, Log: logger}

	cartSvc := &cart.Service{
		Store:      &cart.RedisStore{R: redisClient, TTL: cfg.CartTTL},
		Catalog:    catalogSvc,
		DepositBps: cfg.DepositRateBps,
	}
	cartHandler := &cart.Handlers{Svc: cartSvc, Metrics: domainMetrics, Log: logger}

	enqueuer := &queue.Enqueuer{Client: taskClient, Queue: cfg.QueueRedisPrefix}
	emailNotifier := &notify.EmailNotifier{
		Queue:   enqueuer,
		From:    cfg.NotifyEmailFrom,
		Enabled: cfg.NotifyEmailEnabled,
		Log:     logger,
	}
	webhookNotifier := &notify.WebhookNotifier{
		Endpoints: cfg.WebhookEndpoints,
		Secret:    cfg.WebhookSecret,
		Enabled:   cfg.WebhookEnabled,
		Client:    notify.HTTPClient(cfg.WebhookTimeout),
		Log:       logger,
	}
	bus := &events.Bus{
		Store:     queries,
		Log:       logger,
		Notifiers: []events.Notifier{emailNotifier, webhookNotifier},
	}

	checkoutSvc := &checkout.Service{
		Sessions:        &checkout.SessionStore{R: redisClient, TTL: cfg.CheckoutSessionTTL},
		Cart:            cartSvc,
		Orders:          &checkout.PgOrderStore{Pool: pool, Q: queries},
		Bus:             bus,
		Validate:        validator.New(),
		DepositBps:      cfg.DepositRateBps,
		HomeDeliveryFee: pricing.Money(cfg.HomeDeliveryFee),
		ProtectionFee:   pricing.Money(cfg.DamageProtectionFee),
		Currency:        cfg.CurrencyCode,
		Metrics:         domainMetrics,
		Log:             logger,
	}
	checkoutHandler := &checkout.Handlers{Svc: checkoutSvc, Log: logger}

	orderSvc := &order.Service{Q: queries, Bus: bus}
	orderHandler := &order.Handlers{Svc: orderSvc, Log: logger}
	orderAdmin := &order.AdminHandlers{Svc: orderSvc, Log: logger}

	wishlistHandler := &wishlist.Handlers{Svc: &wishlist.Service{Q: queries}, Log: logger}
	compareHandler := &compare.Handlers{
		Svc: &compare.Service{R: redisClient, Catalog: catalogSvc, MaxItems: cfg.CompareMaxItems},
		Log: logger,
	}

	analyticsHandler := &analytics.Handlers{
		Svc: &analytics.Service{
			Q:           queries,
			Cache:       redisCache,
			CacheTTL:    cfg.AnalyticsCacheTTL,
			DefaultDays: cfg.AnalyticsDefaultDays,
		},
		Log: logger,
	}

	tokens := &auth.TokenValidator{
		Secret:   []byte(cfg.AuthJWTSecret),
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
		Skew:     time.Minute,
	}
	requireAuth := auth.RequireAuth(tokens)
	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	rateLimiter, err := ratelimit.NewMiddleware(redisClient, cfg.RateLimitPerMinute)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.TracingMiddleware("trek-api"))
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers(cfg.SecurityHeadersOn))
	r.Use(security.BodyLimit(cfg.RequestBodyLimit))
	r.Use(rateLimiter)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Cart-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if envBool("OBS_ENABLE_PPROF", cfg.AppEnv != "production") {
		r.Mount("/debug/pprof", pprofMux())
	}

	checker := &health.Checker{Pool: pool, Redis: redisClient}
	r.Get("/healthz", checker.Live)
	r.Get("/readyz", checker.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Mount("/gear", catalogHandler.Routes())

		v.Route("/cart", func(c chi.Router) {
			c.Use(idem.Middleware)
			c.Mount("/", cartHandler.Routes())
		})

		v.Group(func(g chi.Router) {
			g.Use(requireAuth)
			g.With(idem.Middleware).Mount("/checkout", checkoutHandler.Routes())
			g.Mount("/orders", orderHandler.Routes())
			g.Mount("/wishlist", wishlistHandler.Routes())
			g.Mount("/compare", compareHandler.Routes())
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(requireAuth)
			admin.Use(auth.RequireRole("admin"))
			admin.Mount("/orders", orderAdmin.Routes())
			admin.Mount("/analytics", analyticsHandler.Routes())
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func pprofMux() http.Handler {
	mux := chi.NewRouter()
	mux.Get("/", pprof.Index)
	mux.Get("/cmdline", pprof.Cmdline)
	mux.Get("/profile", pprof.Profile)
	mux.Get("/symbol", pprof.Symbol)
	mux.Get("/trace", pprof.Trace)
	mux.Get("/{name}", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler(chi.URLParam(r, "name")).ServeHTTP(w, r)
	})
	return mux
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
