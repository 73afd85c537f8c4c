package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/wonny/signalbt/internal/api"
	"github.com/wonny/signalbt/internal/api/handlers"
	"github.com/wonny/signalbt/internal/audit"
	"github.com/wonny/signalbt/internal/metrics"
	"github.com/wonny/signalbt/pkg/config"
	"github.com/wonny/signalbt/pkg/logger"
)

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve stored backtest results over HTTP",
		Long: `Starts the read-only results API backed by the SQLite store (SQLITE_PATH).

Endpoints:
  GET /health
  GET /metrics
  GET /api/runs
  GET /api/runs/{id}
  GET /api/runs/{id}/series
  GET /api/runs/{id}/portfolio

Example:
  SQLITE_PATH=results/runs.db go run ./cmd/signalbt serve --port 8090`,
		RunE: runServe,
	}

	servePort string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&servePort, "port", "", "API port (env API_PORT)")
}

// startAPI starts the results API in the background and returns its shutdown func
func startAPI(ctx context.Context, env *config.Config, recorder *metrics.Recorder, log *logger.Logger) (func(), error) {
	if !env.SQLite.Enabled() {
		return nil, fmt.Errorf("the results API needs SQLITE_PATH")
	}

	store, err := audit.OpenSQLite(ctx, env.SQLite.Path)
	if err != nil {
		return nil, err
	}

	router := api.NewRouter(
		handlers.NewRunsHandler(store, log),
		promhttp.HandlerFor(recorder.Registry(), promhttp.HandlerOpts{}),
		log,
	)
	server := api.New(env, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Error("API server stopped unexpectedly")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", env.APIPort)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Server shutdown failed")
		}
		store.Close()
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort != "" {
		env.APIPort = servePort
	}
	log := logger.New(env)

	stop, err := startAPI(cmd.Context(), env, metrics.NewRecorder(), log)
	if err != nil {
		return err
	}
	fmt.Println("\nPress Ctrl+C to stop")

	waitForSignal()
	stop()
	log.Info("Server stopped")
	return nil
}

func waitForSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
}
