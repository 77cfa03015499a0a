// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bissquit/fitgram/internal/access"
	accesspostgres "github.com/bissquit/fitgram/internal/access/postgres"
	"github.com/bissquit/fitgram/internal/access/telegram"
	"github.com/bissquit/fitgram/internal/config"
	"github.com/bissquit/fitgram/internal/content"
	contentpostgres "github.com/bissquit/fitgram/internal/content/postgres"
	"github.com/bissquit/fitgram/internal/editors"
	editorspostgres "github.com/bissquit/fitgram/internal/editors/postgres"
	"github.com/bissquit/fitgram/internal/pkg/ctxlog"
	"github.com/bissquit/fitgram/internal/pkg/httputil"
	"github.com/bissquit/fitgram/internal/pkg/initdata"
	"github.com/bissquit/fitgram/internal/pkg/metrics"
	"github.com/bissquit/fitgram/internal/pkg/postgres"
	"github.com/bissquit/fitgram/internal/userdata"
	userdataredis "github.com/bissquit/fitgram/internal/userdata/redis"
	"github.com/bissquit/fitgram/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const dbMetricsInterval = 15 * time.Second

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	redis         *goredis.Client
	server        *http.Server
	metricsServer *http.Server
	metricsCancel context.CancelFunc
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	metricsCtx, metricsCancel := context.WithCancel(context.Background())

	app := &App{
		config:        cfg,
		logger:        logger,
		db:            db,
		metricsCancel: metricsCancel,
	}

	go metrics.CollectDBPoolMetrics(metricsCtx, db, dbMetricsInterval)

	router, err := app.setupRouter(connectCtx)
	if err != nil {
		app.closeStores()
		metricsCancel()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
		"version", version.Version,
	)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.metricsCancel()

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	for name, srv := range map[string]*http.Server{"server": a.server, "metrics server": a.metricsServer} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Shutdown(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("shutdown %s: %w", name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if err := a.closeStores(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (a *App) closeStores() error {
	a.db.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			return fmt.Errorf("close redis: %w", err)
		}
	}
	return nil
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) setupRouter(ctx context.Context) (*chi.Mux, error) {
	cfg := a.config
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})

	r.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(docsPage))
	})

	store, err := a.userdataStore(ctx)
	if err != nil {
		return nil, err
	}

	verifier := initdata.NewVerifier(cfg.Telegram.BotToken, cfg.Telegram.InitDataMaxAge)
	if cfg.Telegram.BotToken == "" {
		slog.Warn("telegram bot token is empty: init data signatures are not checked")
	}

	var notifier access.Notifier
	if cfg.Telegram.Notify.Enabled {
		sender, err := telegram.NewSender(telegram.Config{
			BotToken:  cfg.Telegram.BotToken,
			RateLimit: cfg.Telegram.Notify.RateLimit,
			APIURL:    cfg.Telegram.Notify.APIURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create telegram sender: %w", err)
		}
		notifier = sender
	}

	contentService := content.NewService(contentpostgres.NewRepository(a.db))
	contentHandler := content.NewHandler(contentService)

	editorsService := editors.NewService(
		editorspostgres.NewRepository(a.db),
		verifier,
		editors.NewTokens(cfg.Auth.TokenSecret, cfg.Auth.TokenDuration),
		editors.DevPinConfig{Enabled: cfg.Auth.DevPin.Enabled, Hash: cfg.Auth.DevPin.Hash},
	)
	editorsHandler := editors.NewHandler(editorsService)

	accessService := access.NewService(accesspostgres.NewRepository(a.db), notifier)
	accessHandler := access.NewHandler(accessService, cfg.Webhook.Secret)

	userdataHandler := userdata.NewHandler(userdata.NewService(store))

	r.Route("/api/v1", func(r chi.Router) {
		contentHandler.RegisterPublicRoutes(r)
		editorsHandler.RegisterRoutes(r)

		if editorsService.DevPinEnabled() {
			slog.Warn("dev pin login is enabled")
			r.Group(func(r chi.Router) {
				r.Use(httputil.RateLimit(newLimiter(cfg.Auth.DevPin.RateLimit)))
				editorsHandler.RegisterDevPinRoutes(r)
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(httputil.RateLimit(newLimiter(cfg.Webhook.RateLimit)))
			accessHandler.RegisterWebhookRoutes(r)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(httputil.RequireEditor(editorsService))
			contentHandler.RegisterEditorRoutes(r)
			accessHandler.RegisterEditorRoutes(r)
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(httputil.RequireTelegramUser(verifier))
			accessHandler.RegisterUserRoutes(r)
			userdataHandler.RegisterRoutes(r)
		})
	})

	return r, nil
}

// userdataStore returns the redis store when redis is configured and the
// in-memory store otherwise.
func (a *App) userdataStore(ctx context.Context) (userdata.Store, error) {
	cfg := a.config.Redis
	if cfg.Addr == "" {
		slog.Warn("redis is not configured: user data is kept in memory")
		return userdata.NewMemoryStore(), nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	slog.Info("connected to redis", "addr", cfg.Addr)

	a.redis = client
	return userdataredis.NewStore(client, cfg.Prefix), nil
}

func newLimiter(rps float64) *rate.Limiter {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
			httputil.Text(w, http.StatusServiceUnavailable, "Redis unavailable")
			return
		}
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

const docsPage = `<!DOCTYPE html>
<html>
<head>
    <title>fitgram API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({
            url: "/api/openapi.yaml",
            dom_id: '#swagger-ui',
            presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
            layout: "BaseLayout"
        });
    </script>
</body>
</html>`
