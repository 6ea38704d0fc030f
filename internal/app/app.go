package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/five82/scoop/internal/config"
	"github.com/five82/scoop/internal/flavor"
	"github.com/five82/scoop/internal/logging"
	"github.com/five82/scoop/internal/metrics"
	"github.com/five82/scoop/internal/prefs"
	"github.com/five82/scoop/internal/remote"
	"github.com/five82/scoop/internal/state"
	"github.com/five82/scoop/internal/ui"
)

// Options configure the scoop application.
type Options struct {
	ConfigPath   string
	PrefsPath    string // empty uses default ~/.config/scoop/prefs.toml
	RefreshEvery int    // seconds; overrides refresh_interval when positive
	LogLevel     string // overrides log_level when set
}

// Run boots the scoop TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.RefreshEvery > 0 {
		cfg.RefreshInterval = time.Duration(opts.RefreshEvery) * time.Second
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Close()
	log := logger.With().Str("component", "app").Logger()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		log.Warn().Err(err).Msg("prefs unreadable, using defaults")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(reg)
	if cfg.MetricsAddr != "" {
		serveMetrics(ctx, cfg.MetricsAddr, reg, log)
	}

	client, err := remote.NewClient(remote.Options{
		BaseURL:        cfg.APIURL,
		CollectionPath: cfg.CollectionPath,
		Timeout:        cfg.RequestTimeout,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		Logger:         logger.Logger,
	})
	if err != nil {
		return fmt.Errorf("init remote client: %w", err)
	}

	ids, err := flavor.NewIDGenerator()
	if err != nil {
		return fmt.Errorf("init id generator: %w", err)
	}

	syncer, err := state.New(state.Options{
		Remote:   client,
		IDs:      ids,
		Logger:   logger.Logger,
		Recorder: collector,
	})
	if err != nil {
		return fmt.Errorf("init synchronizer: %w", err)
	}

	if cfg.RefreshInterval > 0 {
		StartRefresher(ctx, syncer, cfg.RefreshInterval, logger.Logger)
	}

	log.Info().
		Str("api_url", cfg.APIURL).
		Str("collection", cfg.CollectionPath).
		Dur("refresh", cfg.RefreshInterval).
		Msg("scoop starting")

	return ui.Run(ui.Options{
		Context:      ctx,
		Sync:         syncer,
		Config:       &cfg,
		Logger:       logger.Logger,
		ThemeName:    userPrefs.Theme,
		LastIdentity: userPrefs.LastIdentity,
		AutoIdentity: cfg.Identity,
		PrefsPath:    opts.PrefsPath,
	})
}

// serveMetrics exposes reg on addr until ctx is cancelled. Failures are logged;
// metrics never stop the UI from starting.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log zerolog.Logger) {
	r := chi.NewRouter()
	r.Handle("/metrics", metrics.Handler(reg))

	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info().Str("addr", addr).Msg("metrics listening")
}
