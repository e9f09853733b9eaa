package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/gleaner/internal/api/handlers"
	"github.com/cloo-solutions/gleaner/internal/database"
	"github.com/cloo-solutions/gleaner/internal/jobs"
	"github.com/cloo-solutions/gleaner/internal/server"
	"github.com/cloo-solutions/gleaner/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the gleaner API server and the background ingest worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (overrides GLEANER_PORT)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-worker", false, "Do not run the background ingest worker")
	cmd.Flags().String("migrations", defaultMigrationsDir, "Directory containing migration files")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	if port, _ := cmd.Flags().GetString("port"); port != "" {
		a.cfg.Port = port
	}

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		dir, _ := cmd.Flags().GetString("migrations")
		if err := database.Migrate(a.cfg.DatabaseURL, dir, logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	var runner handlers.PassRunner = unavailableIndex{}
	var searcher handlers.Searcher = unavailableIndex{}
	var worker *jobs.Worker
	if a.pipeline != nil {
		runner = a.pipeline
		searcher = a.index

		noWorker, _ := cmd.Flags().GetBool("no-worker")
		if !noWorker {
			worker = jobs.NewWorker(jobs.NewIngestWorker(a.jobRepo, a.pipeline, logger), a.cfg.JobPollInterval, logger)
			go worker.Start(ctx)
		}
	} else {
		logger.Warn("GLEANER_OPENAI_API_KEY not set, ingestion and search disabled")
	}

	router := server.NewRouter(server.RouterConfig{
		APIToken:      a.cfg.APIToken,
		Logger:        logger,
		HealthHandler: handlers.NewHealthHandler(a.pool),
		IngestHandler: handlers.NewIngestHandler(runner, service.NewIngestService(a.jobRepo)),
		SearchHandler: handlers.NewSearchHandler(searcher),
		SourceHandler: handlers.NewSourceHandler(a.sources),
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", a.cfg.Port), zap.Bool("auth", a.cfg.HasAuth()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	if worker != nil {
		worker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}
