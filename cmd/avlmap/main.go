// avlmap serves the AVL import workflow: upload a vendor export, map its
// columns onto the canonical AVL schema, and commit the rows to the AVL.
//
// Usage: avlmap [-config config.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"avlmap/pkg/config"
	"avlmap/pkg/importer"
	"avlmap/pkg/logging"
	"avlmap/pkg/server"
	"avlmap/pkg/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open AVL store", zap.Error(err))
	}
	defer closeStore()

	im := importer.New(st, importer.Options{
		Sheet:       cfg.Import.Sheet,
		SampleSize:  cfg.Import.SampleSize,
		SampleWidth: cfg.Import.SampleWidth,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           server.New(im, st, cfg.Server.MaxUploadBytes, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("AVL import service started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Initiating graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	logger.Info("AVL import service stopped")
}

// openStore returns the PostgreSQL store when the database is enabled and an
// in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, func(), error) {
	if !cfg.Database.Enabled {
		logger.Warn("Database disabled; AVL records are kept in memory")
		return store.NewMemory(), func() {}, nil
	}

	pg, err := store.NewPostgres(ctx, store.PostgresConfig{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Connected to PostgreSQL",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database))
	return pg, pg.Close, nil
}
