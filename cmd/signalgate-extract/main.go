package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"signalgate/internal/core/version"
	"signalgate/internal/modkit"
	"signalgate/internal/modkit/repokit"
	"signalgate/internal/platform/config"
	"signalgate/internal/platform/logger"
	"signalgate/internal/platform/metrics"
	phttp "signalgate/internal/platform/net/http"
	"signalgate/internal/platform/store"

	extractmod "signalgate/internal/services/extract/module"

	"github.com/go-chi/chi/v5"
)

const serviceName = "signalgate-extract"

func main() {
	var (
		once     = flag.Bool("once", false, "run a single batch and exit")
		batch    = flag.Int("batch", 0, "override EXTRACT_BATCH")
		interval = flag.Duration("interval", 0, "override EXTRACT_INTERVAL")
	)
	flag.Parse()

	if _, err := config.LoadDotEnv(); err != nil {
		logger.Get().Fatal().Err(err).Msg("dotenv")
	}
	root := config.New()
	l := logger.Get()
	l.Info().Interface("build", version.Info(serviceName)).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := store.FromEnv(root, serviceName)
	// the pipeline only needs postgres
	cfg.CH.Enabled, cfg.RDS.Enabled = false, false
	st, err := store.Open(ctx, cfg, store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	if err := repokit.CheckDeps(ctx, st); err != nil {
		l.Fatal().Err(err).Msg("backends not ready")
	}

	opts := extractmod.FromConfig(root)
	if *batch > 0 {
		opts.Pipeline.Batch = *batch
	}
	if *interval > 0 {
		opts.Pipeline.Interval = *interval
	}

	reg := metrics.New()
	metricsCfg := root.Prefix("EXTRACT_METRICS_")
	if metricsCfg.MayString("PORT", "") != "" {
		srv := phttp.NewServer(metricsCfg, func(mux *chi.Mux) { mux.Handle("/metrics", reg.Handler()) })
		go func() {
			if err := srv.Run(ctx); err != nil {
				l.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	deps := modkit.FromStore(st, *l, root, reg)
	m, err := extractmod.New(deps, opts)
	if err != nil {
		l.Fatal().Err(err).Msg("extract module")
	}

	if *once {
		rep, err := m.RunOnce(ctx)
		if err != nil {
			l.Fatal().Err(err).Msg("extract batch failed")
		}
		l.Info().Interface("report", rep).Msg("extract batch finished")
		return
	}

	if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Fatal().Err(err).Msg("extract worker stopped")
	}
	l.Info().Msg("extract worker stopped")
}
