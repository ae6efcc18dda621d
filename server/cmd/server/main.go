package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/obsidianstack/regionstats/server/internal/api"
	"github.com/obsidianstack/regionstats/server/internal/config"
	"github.com/obsidianstack/regionstats/server/internal/dataset"
	"github.com/obsidianstack/regionstats/server/internal/metrics"
	"github.com/obsidianstack/regionstats/server/internal/store"
)

// objectLoadTimeout bounds the startup fetch from object storage.
const objectLoadTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file; empty uses defaults")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("regionstats-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"rate_limit_rps", cfg.Server.RateLimit.RequestsPerSecond,
		"dataset_paths", cfg.Dataset.Paths,
		"dataset_object", cfg.Dataset.Object.Enabled(),
		"dataset_watch", cfg.Dataset.Watch,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tbl, err := loadDataset(ctx, cfg.Dataset)
	if err != nil {
		slog.Error("failed to load dataset", "err", err)
		os.Exit(1)
	}

	rec := metrics.New()
	rec.SetDataset(tbl.Len(), len(tbl.Regions()), tbl.LoadedAt())

	st := store.New(tbl)

	handler := api.New(st, rec,
		api.WithCORS(cfg.Server.CORS.EffectiveOrigins()),
		api.WithRateLimit(cfg.Server.RateLimit.RequestsPerSecond, cfg.Server.RateLimit.Burst),
		api.WithAuth(cfg.Server.Auth.Mode, cfg.Server.Auth.EffectiveHeader(), cfg.Server.Auth.Key()),
	)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grp, groupCtx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.Dataset.Watch {
		grp.Go(func() error {
			err := st.Watch(groupCtx, tbl.Source(), func(t *dataset.Table) {
				rec.IncReloads()
				rec.SetDataset(t.Len(), len(t.Regions()), t.LoadedAt())
			})
			// The loaded table keeps serving without reloads.
			if err != nil {
				slog.Error("dataset watch stopped", "path", tbl.Source(), "err", err)
			}
			return nil
		})
	}

	grp.Go(func() error {
		<-groupCtx.Done()
		slog.Info("regionstats-server shutting down")
		shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer done()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := grp.Wait(); err != nil {
		slog.Error("regionstats-server stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("regionstats-server stopped")
}

// loadDataset reads the table from object storage when configured, otherwise
// from the first existing local path.
func loadDataset(ctx context.Context, cfg config.DatasetConfig) (*dataset.Table, error) {
	if !cfg.Object.Enabled() {
		return dataset.Load(cfg.Paths...)
	}

	src, err := dataset.NewObjectSource(dataset.ObjectConfig{
		Endpoint:  cfg.Object.Endpoint,
		Bucket:    cfg.Object.Bucket,
		Key:       cfg.Object.Key,
		AccessKey: cfg.Object.AccessKey(),
		SecretKey: cfg.Object.SecretKey(),
		Region:    cfg.Object.Region,
		UseSSL:    cfg.Object.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	loadCtx, done := context.WithTimeout(ctx, objectLoadTimeout)
	defer done()
	tbl, err := src.Load(loadCtx)
	if err != nil {
		return nil, err
	}
	slog.Info("dataset: loaded", "object", src.URL(), "records", tbl.Len(), "regions", len(tbl.Regions()))
	return tbl, nil
}
