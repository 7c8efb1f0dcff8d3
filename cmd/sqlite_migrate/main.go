package main

import (
	"context"

	"github.com/amcodin/SmartScraper/internal/config"
	"github.com/amcodin/SmartScraper/internal/logging"
	"github.com/amcodin/SmartScraper/internal/storage/sqlite"
)

func main() {
	config.Load()
	store, err := sqlite.Open(config.String("SQLITE_PATH", ""))
	if err != nil {
		logging.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	from, err := store.Version(ctx)
	if err != nil {
		logging.Fatalf("migrate: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		logging.Fatalf("migrate: %v", err)
	}
	logging.Infof("SQLite schema at %s migrated from version %d to %d", store.Path(), from, sqlite.SchemaVersion())
}
