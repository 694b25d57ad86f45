package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chanlytics/internal/audit"
	"chanlytics/internal/auth"
	"chanlytics/internal/billing"
	"chanlytics/internal/calls"
	"chanlytics/internal/config"
	"chanlytics/internal/dashboard"
	"chanlytics/internal/detail"
	"chanlytics/internal/httpapi"
	"chanlytics/internal/metrics"
	"chanlytics/internal/source"
	"chanlytics/pkg/logger"
	"chanlytics/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const (
	storeRetryInterval = 2 * time.Second
	janitorInterval    = 10 * time.Minute
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// .env files are optional; real environment wins over both.
	_ = godotenv.Load(".env.local", ".env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)
	rootCtx = logger.With(rootCtx, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Session.Ephemeral {
		log.Warn("SESSION_SECRET not set, using a generated secret; sessions will not survive a restart")
	}

	m := metrics.New()
	httpClient := &http.Client{Timeout: cfg.Backend.HTTPTimeout}

	tokens, err := auth.NewManager(cfg.Session)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	var store auth.SessionStore = auth.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		rdb, err := utils.NewRedisClient(utils.RedisConfig{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		store = auth.NewRedisStore(rdb)
	}

	provider := auth.NewGoTrueProvider(cfg.Backend.URL, cfg.Backend.AnonKey, httpClient)
	authCtx := auth.NewContext(provider, store, tokens, auth.WithMetrics(m))

	var (
		repo    calls.Repository
		dbCheck func(context.Context) error
	)
	if cfg.DB.URL != "" {
		pool := utils.PostgresPoolConfig{}
		db, err := utils.OpenPostgres(rootCtx, cfg.DB.URL, pool)
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		repo = source.NewPostgresRepo(db)
		dbCheck = pool.Probe(db)
	} else {
		repo = source.NewRESTRepo(cfg.Backend.URL, cfg.Backend.AnonKey, httpClient)
	}

	src := source.New(repo,
		source.WithMetrics(m),
		source.WithDefaultWindow(cfg.Dashboard.FetchWindowDays))
	dash := dashboard.NewService(src,
		dashboard.WithMetrics(m),
		dashboard.WithLocation(cfg.App.Location),
		dashboard.WithWindowDays(cfg.Dashboard.FetchWindowDays))

	h := httpapi.Handlers{
		Auth:       authCtx,
		Dashboard:  dash,
		Downloader: detail.NewDownloader(nil, m, cfg.App.Location),
		Billing: billing.NewService(src, billing.Rate{
			PerMinuteMinor: cfg.Billing.RatePerMinuteMinor,
			Currency:       cfg.Billing.Currency,
		}),
		Audit:   audit.NewService(audit.NewMemoryRepo(audit.DefaultListLimit)),
		DBCheck: dbCheck,
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           newRouter(log, m, h),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go startAuth(rootCtx, authCtx)
	go dash.RunJanitor(rootCtx, janitorInterval, cfg.Session.RefreshTTL)

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "timezone", cfg.App.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

// startAuth keeps probing the session store until it answers. Until then
// protected routes report the loading state.
func startAuth(ctx context.Context, ac *auth.Context) {
	log := logger.From(ctx)
	t := time.NewTicker(storeRetryInterval)
	defer t.Stop()
	for {
		err := ac.Start(ctx)
		if err == nil {
			log.Info("session store ready")
			return
		}
		log.Warn("session store not ready", "err", err)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
