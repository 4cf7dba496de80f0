// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/carterperez-dev/articles-api/internal/config"
	"github.com/carterperez-dev/articles-api/internal/core"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // process exits right after

	applied, err := core.Migrate(ctx, db.DB)
	if err != nil {
		return err
	}

	version, err := core.MigrationVersion(ctx, db.DB)
	if err != nil {
		return err
	}

	slog.Info("migrations complete", "applied", applied, "version", version)
	return nil
}
