package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpRouter "currency-rates-service/internal/adapter/http"
	"currency-rates-service/internal/config"
	"currency-rates-service/pkg/logger"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCommand().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "currency-rates",
		Short:         "currency exchange rate service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before the environment")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "starts the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(envFile)
		},
	}

	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "fetches today's rates once and exits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRefresh(cmd.Context(), envFile)
		},
	}

	root.AddCommand(serve, refresh)
	root.RunE = serve.RunE

	return root
}

func setup(ctx context.Context, envFile string) (*app, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	log := logger.NewLogger(cfg.Log.Level)
	if cfg.Log.JSON {
		log = logger.NewJSONLogger(cfg.Log.Level)
	}

	return newApp(ctx, cfg, log)
}

func runRefresh(ctx context.Context, envFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := setup(ctx, envFile)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.refresh(ctx)
}

func runServe(envFile string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, envFile)
	if err != nil {
		return err
	}
	defer a.Close()

	log := a.log
	log.Info("Starting currency rates service", "mode", a.cfg.Rates.Mode, "cache_backend", a.cfg.Cache.Backend)

	router := httpRouter.NewRouter(a.handler(), a.cfg.Server.AllowedOrigins, log.Named("http"), a.metrics)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	if interval := a.cfg.Rates.RefreshInterval; interval > 0 {
		go refreshRates(ctx, a, interval, log)
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", a.cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited")
	return nil
}

// refreshRates periodically refreshes exchange rates
func refreshRates(ctx context.Context, a *app, interval time.Duration, log *logger.Logger) {
	if err := a.refresh(ctx); err != nil {
		log.Error("Failed to refresh rates at startup", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := a.refresh(ctx); err != nil {
				log.Error("Failed to refresh rates", "error", err)
			}
		case <-ctx.Done():
			log.Info("Stopping rate refresh goroutine")
			return
		}
	}
}
