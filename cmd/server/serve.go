package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/hydration-engine/api"
	"github.com/warp/hydration-engine/logger"
)

var allowedOrigins []string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().StringSliceVar(&allowedOrigins, "cors-origin", nil, "Allowed CORS origin (repeatable)")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	handler := api.NewHandler(a.store, a.loc, a.cfg.Engine.DayOffset, logger.Named(a.log, "api"))

	if a.cfg.Reports.Enabled {
		reports := api.NewReportScheduler(handler.Engine, a.cfg.Reports.Cron, a.cfg.Engine.DayOffset,
			a.loc, a.sink, logger.Named(a.log, "reports"))
		if err := reports.Start(); err != nil {
			return err
		}
		defer reports.Stop()
		handler.Reports = reports
	}

	server := &http.Server{
		Addr:         a.cfg.Server.ListenAddr,
		Handler:      api.NewRouter(handler, allowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("store", a.cfg.Store.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.log.Info("server stopped")
	return nil
}
