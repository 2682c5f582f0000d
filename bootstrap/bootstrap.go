// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/djmoore711/brandfetch-mcp/adapters/brandfetch"
	"github.com/djmoore711/brandfetch-mcp/adapters/clock"
	"github.com/djmoore711/brandfetch-mcp/adapters/memory"
	"github.com/djmoore711/brandfetch-mcp/adapters/metrics"
	"github.com/djmoore711/brandfetch-mcp/adapters/rediscache"
	"github.com/djmoore711/brandfetch-mcp/adapters/sqlite"
	"github.com/djmoore711/brandfetch-mcp/app"
	"github.com/djmoore711/brandfetch-mcp/config"
	"github.com/djmoore711/brandfetch-mcp/ports"
	"github.com/djmoore711/brandfetch-mcp/web"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	Holder     *config.Holder
	DB         *sqlite.DB
	Ledger     ports.LedgerStore
	Service    *app.LookupService
	Metrics    *metrics.Collector
	HTTPServer *http.Server

	redisCache *rediscache.Cache
}

// New creates and initializes the application from a config file path.
// An empty or missing path falls back to environment variables.
func New(configPath string) (*App, error) {
	a := &App{}

	if err := a.initConfig(configPath); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	a.Logger = setupLogger(a.Config.Logging)
	a.Logger.Info().Str("version", Version).Msg("initializing brandfetchd")

	if a.Config.Metrics.Enabled {
		a.Metrics = metrics.New()
		a.Logger.Info().Msg("prometheus metrics enabled")
	}

	if err := a.initLedger(); err != nil {
		return nil, fmt.Errorf("init ledger: %w", err)
	}

	a.initService()
	a.initHTTPServer()
	a.watchConfig()

	return a, nil
}

func (a *App) initConfig(path string) error {
	// A present file gets a holder with hot reload; env-only setups get
	// a static config.
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			h, err := config.NewHolder(path, zerolog.New(os.Stdout).With().Timestamp().Logger())
			if err != nil {
				return err
			}
			a.Holder = h
			a.Config = h.Get()
			return nil
		}
	}

	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		return err
	}
	a.Config = cfg
	return nil
}

func (a *App) initLedger() error {
	switch a.Config.Database.Driver {
	case "memory":
		a.Ledger = memory.NewLedgerStore()
		a.Logger.Warn().Msg("using in-memory ledger, usage will not survive restarts")
	default:
		db, err := sqlite.Open(a.Config.Database.DSN)
		if err != nil {
			return err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return fmt.Errorf("migrate: %w", err)
		}
		a.DB = db
		a.Ledger = sqlite.NewLedgerStore(db)
		a.Logger.Info().Str("dsn", a.Config.Database.DSN).Msg("usage ledger initialized")
	}
	return nil
}

func (a *App) initService() {
	cfg := a.Config

	client := brandfetch.New(brandfetch.Config{
		LogoBaseURL:  cfg.Upstream.LogoBaseURL,
		BrandBaseURL: cfg.Upstream.BrandBaseURL,
		LogoKey:      cfg.Upstream.LogoAPIKey,
		BrandKey:     cfg.Upstream.BrandAPIKey,
		ClientID:     cfg.Upstream.ClientID,
		LogoTimeout:  cfg.Upstream.LogoTimeout,
		BrandTimeout: cfg.Upstream.BrandTimeout,
		SearchLimit:  cfg.Upstream.SearchLimit,
	}, a.Logger)

	a.Service = app.NewLookupService(app.Deps{
		Ledger:   a.Ledger,
		Logos:    client,
		Brands:   client,
		Resolver: app.NewResolver(nil, a.Logger),
		Cache:    a.buildCache(),
		Clock:    clock.Real{},
		Metrics:  a.Metrics,
		Logger:   a.Logger,
	}, settingsFrom(cfg))
}

func (a *App) buildCache() ports.Cache {
	cfg := a.Config
	if cfg.Cache.TTL <= 0 {
		return nil
	}

	local := memory.NewCache(cfg.Cache.MaxEntries)
	if cfg.Cache.RedisURL == "" {
		return local
	}

	remote, err := rediscache.New(context.Background(), cfg.Cache.RedisURL, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("redis unavailable, using in-process cache only")
		return local
	}
	a.redisCache = remote
	a.Logger.Info().Msg("redis cache tier enabled")
	return rediscache.NewTiered(local, remote, cfg.Cache.TTL)
}

func (a *App) initHTTPServer() {
	var metricsHandler http.Handler
	if a.Metrics != nil {
		metricsHandler = promhttp.Handler()
	}

	handler := web.NewHandler(web.Deps{
		Service: a.Service,
		Metrics: metricsHandler,
		Logger:  a.Logger,
		Version: Version,
	})

	addr := fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	a.Logger.Info().Str("addr", addr).Msg("http server configured")
}

// watchConfig wires hot reload when a config file backs the app.
// Quota, cache-TTL, and timeout policy changes apply to the running
// service without a restart.
func (a *App) watchConfig() {
	if a.Holder == nil {
		return
	}

	a.Holder.OnChange(func(cfg *config.Config) {
		a.Config = cfg
		a.Service.UpdateSettings(settingsFrom(cfg))
		if a.Metrics != nil {
			a.Metrics.ConfigReloads.Inc()
		}
	})

	if err := a.Holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch unavailable, SIGHUP reload only")
	}
	a.Holder.WatchSignals()
}

func settingsFrom(cfg *config.Config) app.Settings {
	timeoutIsMiss := true
	if cfg.Upstream.TimeoutIsMiss != nil {
		timeoutIsMiss = *cfg.Upstream.TimeoutIsMiss
	}
	return app.Settings{
		MonthlyLimit:  cfg.Quota.MonthlyLimit,
		WarnRatio:     cfg.Quota.WarnThresholdRatio,
		TimeoutIsMiss: timeoutIsMiss,
		CacheTTL:      cfg.Cache.TTL,
	}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.Holder != nil {
		a.Holder.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("redis close error")
		}
	}

	if a.Ledger != nil {
		if err := a.Ledger.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("ledger close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
