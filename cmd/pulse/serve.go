package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/teampulse/pulse/internal/api"
	"github.com/teampulse/pulse/internal/database"
	"github.com/teampulse/pulse/internal/metrics"
	"github.com/teampulse/pulse/internal/ratelimit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Pulse API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	a, err := newApp(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer a.Close()
	m.RegisterDBPoolCollector(database.PoolStats(a.pool))

	limiter := ratelimit.New(cfg.RateLimit.AuthAttempts, cfg.RateLimit.Window)
	go limiter.RunPruner(ctx, cfg.RateLimit.Window)

	router := api.NewRouter(api.RouterDeps{
		Users:          a.users,
		Companies:      a.companies,
		Teams:          a.teams,
		Moods:          a.moods,
		Integrity:      a.integrity,
		Tokens:         a.tokens,
		Accounts:       a.accounts,
		Limiter:        limiter,
		Metrics:        m,
		DB:             a.pool,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr(), "retention", a.integrity.Retention())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-sigCh:
		slog.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	cancel()
	return srv.Shutdown(shutdownCtx)
}
