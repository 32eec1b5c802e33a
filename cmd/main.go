package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/okian/outbreak/internal/adapters/http/api"
	"github.com/okian/outbreak/internal/adapters/http/auth"
	"github.com/okian/outbreak/internal/adapters/http/site"
	"github.com/okian/outbreak/internal/adapters/http/swagger"
	"github.com/okian/outbreak/internal/adapters/session"
	app "github.com/okian/outbreak/internal/app"
	"github.com/okian/outbreak/internal/config"
	"github.com/okian/outbreak/internal/domain/trend"
	"github.com/okian/outbreak/pkg/logger"
	"github.com/okian/outbreak/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger format comes from config, so it is not available yet
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited", logger.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "server stopped")
}

// run starts the service and the HTTP server and blocks until ctx is done.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithModelPath(cfg.ModelPath),
		app.WithModelURL(cfg.ModelURL),
		app.WithModelLabelPath(cfg.ModelLabelPath),
		app.WithModelTimeout(cfg.ModelTimeout()),
		app.WithTrendGenerator(trend.NewGenerator(
			trend.WithDays(cfg.TrendDays),
			trend.WithWindow(cfg.TrendWindow),
			trend.WithHorizon(cfg.TrendHorizon),
		)),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	revoker, closeRevoker, err := newRevoker(ctx, cfg)
	if err != nil {
		return fmt.Errorf("revocation store: %w", err)
	}
	defer closeRevoker()

	sessions, err := session.NewManager([]byte(cfg.SessionSecret),
		session.WithTTL(cfg.SessionTTL()),
		session.WithCookieName(cfg.SessionCookie),
		session.WithSecureCookies(cfg.SecureCookies),
		session.WithRevoker(revoker),
		session.WithLogger(log.Named("session")),
	)
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}

	handler, err := newRouter(svc, sessions, providerConfig(cfg), log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newRouter wires every HTTP surface onto one chi router.
func newRouter(svc api.Dependencies, sessions *session.Manager, provider auth.ProviderConfig, log logger.Logger) (http.Handler, error) {
	pages, err := site.New(svc, site.WithLogger(log.Named("site")))
	if err != nil {
		return nil, err
	}
	requireUser := auth.RequireUser(sessions, log.Named("auth"))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger(log.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(auth.LoadUser(sessions))

	api.NewServer(svc, api.WithLogger(log.Named("api"))).Register(r, requireUser)
	auth.NewHandler(sessions, pages, provider, log.Named("auth")).Register(r)
	pages.Register(r, requireUser)
	swagger.Register(r)
	return r, nil
}

// newRevoker builds the configured revocation store and its cleanup.
func newRevoker(ctx context.Context, cfg *config.Config) (session.Revoker, func(), error) {
	if cfg.RevocationStore == config.StoreRedis {
		client, err := session.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisRevoker(client), func() { _ = client.Close() }, nil
	}
	return session.NewMemoryRevoker(session.WithMaxSize(cfg.RevocationMaxSize)), func() {}, nil
}

func providerConfig(cfg *config.Config) auth.ProviderConfig {
	return auth.ProviderConfig{
		APIKey:            cfg.IDPAPIKey,
		AuthDomain:        cfg.IDPAuthDomain,
		ProjectID:         cfg.IDPProjectID,
		StorageBucket:     cfg.IDPStorageBucket,
		MessagingSenderID: cfg.IDPMessagingSenderID,
		AppID:             cfg.IDPAppID,
		MeasurementID:     cfg.IDPMeasurementID,
	}
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
