// avl-drop deletes every record from the PostgreSQL AVL table and prints how
// many were removed.
//
// Usage: avl-drop [-config config.yaml] [-yes]
//
// Database connection: the database section of the config file, overridden
// by the standard PG* environment variables.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"avlmap/pkg/config"
	"avlmap/pkg/logging"
	"avlmap/pkg/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	yes := flag.Bool("yes", false, "confirm deleting every AVL record")
	flag.Parse()

	if !*yes {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config config.yaml] -yes\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nRefusing to drop the AVL without -yes.\n")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Server.Env, "warn")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	pg, err := store.NewPostgres(ctx, store.PostgresConfig{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: 1,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pg.Close()

	n, err := pg.DropAll(ctx)
	if err != nil {
		logger.Fatal("Failed to drop AVL records", zap.Error(err))
	}
	fmt.Printf("Dropped %d AVL records\n", n)
}
