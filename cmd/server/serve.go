package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cerebro/internal/bootstrap"
	httptransport "cerebro/internal/transport/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := bootstrap.New(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				log.Warn("close resources failed", zap.Error(err))
			}
		}()

		server := &http.Server{
			Addr:              cfg.HTTPAddr(),
			Handler:           httptransport.NewRouter(app),
			ReadHeaderTimeout: 5 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			log.Info("server starting", zap.String("addr", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		select {
		case err := <-serveErr:
			return err
		case <-ctx.Done():
		}
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown failed", zap.Error(err))
		}
		return nil
	},
}
