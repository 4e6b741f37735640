package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-billing/internal/handler"
	"github.com/noah-isme/tutor-billing/pkg/config"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local API and the Drive sync pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, logr, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(ctx, cfg, logr, nil)
	if err != nil {
		return err
	}
	defer a.close()

	hub := handler.NewStatusHub(a.sync.Status, cfg.CORS.AllowedOrigins, logr)
	a.sync.OnStatus(hub.Broadcast)

	if a.watcher != nil {
		go func() {
			if err := a.watcher.Run(ctx, nil); err != nil {
				logr.Warn("mirror watcher stopped", zap.Error(err))
			}
		}()
	}
	go a.exports.RunCleanup(ctx, cfg.Exports.CleanupInterval)
	a.backups.Start(ctx)
	defer a.backups.Stop()

	connected := a.connect(ctx)
	logr.Info("drive session", zap.Bool("connected", connected))

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		EnableMetrics:  cfg.Metrics,
	}, handler.Handlers{
		Auth:      handler.NewAuthHandler(a.credentials, a.sync),
		Roster:    handler.NewRosterHandler(a.roster, a.store),
		Mirror:    handler.NewMirrorHandler(a.mirror),
		Schedules: handler.NewScheduleHandler(a.schedules),
		Billing:   handler.NewBillingHandler(a.billing, a.exports),
		Sync:      handler.NewSyncHandler(a.sync, a.broker, hub),
		Data:      handler.NewDataHandler(a.sync, a.exports, a.backups, a.codec),
		Metrics:   handler.NewMetricsHandler(a.metrics, a.sync),
	}, a.metrics, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
