package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"expenses/internal/app"
	"expenses/internal/cli"
	apphttp "expenses/internal/http"
	applog "expenses/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitStore(logger, cfg)
	defer store.Close()

	ctrl := app.NewController(store, app.WithDarkMode(cfg.DarkMode))

	srv, err := apphttp.NewServer(":"+cfg.Port, ctrl, cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		logger.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expenses server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			"db_path", cfg.SQLiteDBPath,
			"compact_on_delete", cfg.CompactOnDelete)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
