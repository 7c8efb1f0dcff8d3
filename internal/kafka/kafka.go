// Package kafka carries plan verification traffic: requests flow from the
// scheduler and the CLI to the verify workers, and results flow back out on
// a second topic.
package kafka

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/amcodin/SmartScraper/internal/config"
)

const (
	DefaultBroker        = "kafka-broker:9092"
	DefaultRequestsTopic = "plans.verify.requests"
	DefaultResultsTopic  = "plans.verify.results"
	DefaultWorkerGroup   = "verify-worker"
	DefaultPartitions    = 3
)

// Topics names the two verification topics.
type Topics struct {
	Requests   string
	Results    string
	Partitions int
}

// TopicsFromEnv reads VERIFY_REQUESTS_TOPIC, VERIFY_RESULTS_TOPIC and
// VERIFY_TOPIC_PARTITIONS.
func TopicsFromEnv() Topics {
	return Topics{
		Requests:   TopicFromEnv("VERIFY_REQUESTS_TOPIC", DefaultRequestsTopic),
		Results:    TopicFromEnv("VERIFY_RESULTS_TOPIC", DefaultResultsTopic),
		Partitions: config.Int("VERIFY_TOPIC_PARTITIONS", DefaultPartitions),
	}
}

// Brokers reads KAFKA_BROKERS as a comma-separated list.
func Brokers() []string {
	return config.List("KAFKA_BROKERS", []string{DefaultBroker})
}

func TopicFromEnv(envKey, fallback string) string {
	return config.String(envKey, fallback)
}

// Connect waits up to wait for a broker and then makes sure every topic in
// topics exists. Producers pass only the requests topic; workers pass both.
func Connect(ctx context.Context, brokers []string, wait time.Duration, partitions int, topics ...string) error {
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := WaitForBroker(waitCtx, brokers); err != nil {
		return err
	}
	for _, topic := range topics {
		if err := EnsureTopic(ctx, brokers, topic, partitions); err != nil {
			return fmt.Errorf("ensure topic %s: %w", topic, err)
		}
	}
	return nil
}

// WaitForBroker polls every broker once a second until one accepts a
// connection or ctx ends.
func WaitForBroker(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return fmt.Errorf("no brokers configured")
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastErr error
	for {
		for _, broker := range brokers {
			conn, err := kafka.DialContext(ctx, "tcp", broker)
			if err == nil {
				conn.Close()
				return nil
			}
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for broker: %w (last error: %v)", ctx.Err(), lastErr)
		case <-ticker.C:
		}
	}
}

// EnsureTopic creates topic through the cluster controller. An existing
// topic is left alone, whatever its partition count.
func EnsureTopic(ctx context.Context, brokers []string, topic string, partitions int) error {
	if partitions <= 0 {
		partitions = DefaultPartitions
	}
	if len(brokers) == 0 {
		return fmt.Errorf("no brokers configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("dial broker %s: %w", brokers[0], err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("get controller: %w", err)
	}

	addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	ctrlConn, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial controller %s: %w", addr, err)
	}
	defer ctrlConn.Close()

	err = ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("create topic: %w", err)
	}
	return nil
}

// NewWriter publishes plan requests or results. Messages are keyed by plan,
// and the hash balancer keeps every request for one plan on one partition
// so a plan is never verified by two workers at once.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 100 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

// NewReader joins group on the requests topic. A verification can take
// minutes of model calls and backoff, so the session timeout is generous
// and new groups start from the oldest pending request.
func NewReader(brokers []string, topic, group string) *kafka.Reader {
	if group == "" {
		group = DefaultWorkerGroup
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		Topic:             topic,
		GroupID:           group,
		MinBytes:          1,
		MaxBytes:          1 << 20,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    45 * time.Second,
		CommitInterval:    time.Second,
		MaxWait:           500 * time.Millisecond,
		StartOffset:       kafka.FirstOffset,
	})
}
