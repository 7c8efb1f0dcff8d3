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

	if err := store.ClearTables(context.Background()); err != nil {
		logging.Fatalf("clear tables: %v", err)
	}
	logging.Infof("SQLite tables cleared at %s", store.Path())
}
