package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prasenjit/go-requester/internal/api"
	"github.com/prasenjit/go-requester/internal/config"
	"github.com/prasenjit/go-requester/internal/drafts"
	"github.com/prasenjit/go-requester/internal/history"
	"github.com/prasenjit/go-requester/internal/logging"
	"github.com/prasenjit/go-requester/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Go-Requester server",
	Long: `Starts the Go-Requester API server.

The server will:
  - Load uploaded documents and history from the configured storage
  - Expose the API at /_api/
  - Stream newly recorded requests at /_api/history/stream

Configuration is loaded from config.yaml in the current directory,
or specify a custom config file with the --config flag.`,
	RunE: runServe,
}

var portFlag int

func init() {
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "Override server port")
	serveCmd.Flags().String("storage", "", "Override storage type (memory, file, mongo)")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("storage.type", serveCmd.Flags().Lookup("storage"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}
	if portFlag > 0 {
		cfg.Server.Port = portFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()

	historySvc := history.NewService(store, cfg.History, logger)
	router := api.NewRouter(store, historySvc, drafts.NewRegistry(), logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     router.Handler(),
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout so history streams stay open
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting Go-Requester server", "addr", addr, "storage", cfg.Storage.Type)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
	return nil
}

// openStorage builds the configured backend
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.Storage.Type {
	case "file":
		path := cfg.Storage.Path
		if !filepath.IsAbs(path) {
			if cwd, err := os.Getwd(); err == nil {
				path = filepath.Join(cwd, path)
			}
		}
		logger.Info("Using data directory", "path", path)

		store, err := storage.NewFileStorage(path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
		return store, nil
	case "mongo":
		store, err := storage.NewMongoStorage(ctx, cfg.Storage.Mongo, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mongo storage: %w", err)
		}
		return store, nil
	default:
		return storage.NewMemoryStorage(), nil
	}
}
