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

	if err := store.CreateTables(context.Background()); err != nil {
		logging.Fatalf("create tables: %v", err)
	}
	logging.Infof("SQLite tables created at %s", store.Path())
}
