package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-vis-pipeline/internal/api"
	"go-vis-pipeline/internal/api/handler"
	"go-vis-pipeline/internal/config"
	"go-vis-pipeline/internal/ingest"
	"go-vis-pipeline/internal/logger"
	"go-vis-pipeline/internal/pipeline"
	"go-vis-pipeline/internal/store"
	"go-vis-pipeline/pkg/router"
	"go-vis-pipeline/pkg/utils"
)

func main() {
	if err := run(); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.LoggerConfig())
	log := logger.GetDefault()

	// Init DB
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	registry := pipeline.NewRegistry(pipeline.WithLogger(log))
	h := handler.New(
		registry,
		st,
		ingest.NewLoader(cfg.FetchConfig(), log),
		utils.NewOutputManager(cfg.Export.Dir),
		log,
	)
	if err := h.Restore(); err != nil {
		return err
	}

	r := router.New(log)
	api.RegisterRoutes(r, h)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := r.Server(cfg.Addr())
	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", "addr", cfg.Addr(), "docs", "/swagger/index.html")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
