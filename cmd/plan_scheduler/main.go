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
	"github.com/amcodin/SmartScraper/internal/queue"
	"github.com/amcodin/SmartScraper/internal/schedule"
)

func main() {
	config.Load()
	logging.InitFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	brokers := kafka.Brokers()
	topics := kafka.TopicsFromEnv()
	topic := topics.Requests
	interval := config.Seconds("SCHEDULE_INTERVAL_SECONDS", 24*time.Hour)
	provider := config.String("SCHEDULE_PROVIDER", "")

	if err := kafka.Connect(ctx, brokers, 45*time.Second, topics.Partitions, topic); err != nil {
		logging.Fatalf("[plan-scheduler] kafka: %v", err)
	}

	store, err := app.OpenStore(ctx)
	if err != nil {
		logging.Fatalf("[plan-scheduler] sqlite: %v", err)
	}
	defer store.Close()

	writer := kafka.NewWriter(brokers, topic)
	defer writer.Close()

	logging.Infof("[plan-scheduler] enqueueing plans on %s every %s", topic, interval)
	schedule.RunLoop(ctx, "plan-scheduler", interval, func(ctx context.Context) error {
		plans, err := store.ListPlans(ctx, provider)
		if err != nil {
			return err
		}
		if len(plans) == 0 {
			logging.Infof("[plan-scheduler] no plans stored")
			return nil
		}
		reqs := queue.NewRequests(plans, "", time.Now())
		if err := queue.PublishRequests(ctx, writer, reqs); err != nil {
			return err
		}
		logging.Infof("[plan-scheduler] enqueued %d plans correlation=%s", len(reqs), reqs[0].CorrelationID)
		return nil
	})
}
