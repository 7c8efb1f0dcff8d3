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

	if err := store.DropTables(context.Background()); err != nil {
		logging.Fatalf("drop tables: %v", err)
	}
	logging.Infof("SQLite tables dropped at %s", store.Path())
}
