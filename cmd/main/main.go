package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stock-service/internal/config"
	"stock-service/internal/stock/alias"
	"stock-service/internal/stock/builder"
	"stock-service/internal/stock/ingest"
	"stock-service/internal/stock/matcher"
	"stock-service/internal/stock/store"
	serverhttp "stock-service/server/http"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := config.SetupLogger(cfg)

	// таблица алиасов невалидна — дальше ехать нельзя: молча деградировать
	// качество поиска запрещено
	resolver, err := alias.Load(cfg.AliasesPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.AliasesPath).Msg("load brand aliases")
	}
	logger.Info().Int("aliases", resolver.Len()).Msg("brand aliases loaded")

	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open store")
	}
	defer st.Close()
	logger.Info().Int("records", len(st.Current().Records)).Msg("store opened")

	b := builder.New(resolver)
	m := matcher.New(st, resolver, cfg.FuzzyThreshold)
	runner := ingest.New(cfg, logger, st, b)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// первый цикл сразу: если экспорта ещё нет, живём на поколении из БД
	if _, err := runner.TryRunOnce(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial ingest failed, serving persisted generation")
	}
	go runner.Start(ctx)

	r := serverhttp.NewRouter(cfg, logger, serverhttp.Deps{
		Store:    st,
		Resolver: resolver,
		Matcher:  m,
		Runner:   runner,
	})

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	logger.Info().Str("addr", cfg.Addr()).Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("bye")
}
