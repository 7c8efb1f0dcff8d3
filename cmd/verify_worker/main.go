package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amcodin/SmartScraper/internal/app"
	"github.com/amcodin/SmartScraper/internal/config"
	"github.com/amcodin/SmartScraper/internal/kafka"
	"github.com/amcodin/SmartScraper/internal/logging"
	"github.com/amcodin/SmartScraper/internal/workers"
)

func main() {
	config.Load()
	logging.InitFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	brokers := kafka.Brokers()
	topics := kafka.TopicsFromEnv()
	group := config.String("VERIFY_WORKER_GROUP", kafka.DefaultWorkerGroup)
	workerCount := config.Int("VERIFY_WORKER_CONCURRENCY", 2)

	if err := kafka.Connect(ctx, brokers, 45*time.Second, topics.Partitions, topics.Requests, topics.Results); err != nil {
		logging.Fatalf("[verify-worker] kafka: %v", err)
	}

	store, err := app.OpenStore(ctx)
	if err != nil {
		logging.Fatalf("[verify-worker] sqlite: %v", err)
	}
	defer store.Close()

	v, err := app.NewVerifier(ctx, app.Options{Store: store})
	if err != nil {
		logging.Fatalf("[verify-worker] verifier: %v", err)
	}
	defer v.Close()

	results := kafka.NewWriter(brokers, topics.Results)
	defer results.Close()

	processor := workers.NewProcessor(v.Service, store, results)
	logging.Infof("[verify-worker] consuming %s with group %s (%d workers), publishing to %s", topics.Requests, group, workerCount, topics.Results)
	workers.Run(ctx, brokers, topics.Requests, group, workerCount, processor.Handle)
	logging.Infof("[verify-worker] stopped")
}
