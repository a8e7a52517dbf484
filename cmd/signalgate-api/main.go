// @title         signalgate API
// @version       0.1.0
// @description   Signed signal ingestion, admin views and extraction control
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"flag"
	"os/signal"
	"sync"
	"syscall"

	"signalgate/internal/core/version"
	"signalgate/internal/modkit/repokit"
	"signalgate/internal/platform/config"
	"signalgate/internal/platform/logger"
	"signalgate/internal/platform/metrics"
	phttp "signalgate/internal/platform/net/http"
	"signalgate/internal/platform/store"
	"signalgate/internal/platform/store/migrate"

	"signalgate/internal/services/api"
)

const serviceName = "signalgate-api"

func main() {
	migrateOnly := flag.Bool("migrate", false, "apply embedded schema migrations and exit")
	flag.Parse()

	if _, err := config.LoadDotEnv(); err != nil {
		logger.Get().Fatal().Err(err).Msg("dotenv")
	}
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	l := logger.Get()
	l.Info().Interface("build", version.Info(serviceName)).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.FromEnv(root, serviceName), store.WithLogger(*l))
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

	if *migrateOnly {
		applied, err := migrate.Postgres(ctx, st.PG)
		if err != nil {
			l.Fatal().Err(err).Msg("postgres migrations failed")
		}
		if st.CH != nil {
			if err := migrate.Clickhouse(ctx, st.CH); err != nil {
				l.Fatal().Err(err).Msg("clickhouse migrations failed")
			}
		}
		l.Info().Strs("applied", applied).Msg("migrations done")
		return
	}

	reg := metrics.New()
	srv := phttp.NewServer(apiCfg)

	runners, err := api.Mount(srv.Router(), api.Options{
		Config:         root,
		Store:          st,
		Logger:         l,
		Metrics:        reg,
		AdminToken:     apiCfg.MayString("ADMIN_TOKEN", ""),
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
	})
	if err != nil {
		l.Fatal().Err(err).Msg("api mount failed")
	}

	var wg sync.WaitGroup
	for _, run := range runners {
		wg.Go(func() { run(ctx) })
	}

	if err := srv.Run(ctx); err != nil {
		l.Error().Err(err).Msg("http server stopped")
		stop()
	}
	wg.Wait()
}
