package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	gepahttp "github.com/longregen/gepa/internal/adapters/http"
	"github.com/longregen/gepa/internal/adapters/id"
	"github.com/longregen/gepa/internal/adapters/postgres"
	"github.com/longregen/gepa/internal/adapters/tracing"
	"github.com/longregen/gepa/internal/application/services"
	"github.com/longregen/gepa/internal/ports"
)

// serveCmd starts the HTTP API server.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the mutation API server.

Exposes POST /api/v1/mutations to run rounds, round inspection
endpoints, /health and /metrics.

Optional configuration:
  - PostgreSQL round store (GEPA_POSTGRES_URL)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	slog.Info("starting gepa API server",
		"host", cfg.Server.Host, "port", cfg.Server.Port,
		"persistence", cfg.IsDatabaseConfigured())

	shutdownTracer, err := tracing.InitTracer("gepa-api")
	if err != nil {
		slog.Warn("failed to initialize tracing", "error", err)
	} else {
		defer func() {
			if err := shutdownTracer(ctx); err != nil {
				slog.Error("error shutting down tracer", "error", err)
			}
		}()
	}

	pool, err := initDB(ctx)
	if err != nil {
		return err
	}
	var repo ports.MutationRoundRepository
	if pool != nil {
		defer pool.Close()
		repo = postgres.NewMutationRepository(pool)
	}

	service := services.NewMutationService(repo, nil, id.New(), mutationConfig())
	server := gepahttp.NewServer(cfg, service, repo, pool)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
