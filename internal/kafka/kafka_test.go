package kafka

import (
	"context"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokersFromEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	assert.Equal(t, []string{"a:9092", "b:9092"}, Brokers())

	t.Setenv("KAFKA_BROKERS", "")
	assert.Equal(t, []string{DefaultBroker}, Brokers())
}

func TestTopicFromEnv(t *testing.T) {
	t.Setenv("VERIFY_REQUESTS_TOPIC", "custom")
	assert.Equal(t, "custom", TopicFromEnv("VERIFY_REQUESTS_TOPIC", DefaultRequestsTopic))
	assert.Equal(t, DefaultResultsTopic, TopicFromEnv("VERIFY_RESULTS_TOPIC_UNSET", DefaultResultsTopic))
}

func TestWaitForBrokerRequiresBrokers(t *testing.T) {
	require.Error(t, WaitForBroker(context.Background(), nil))
}

func TestWaitForBrokerHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := WaitForBroker(ctx, []string{"127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "waiting for broker")
}

func TestNewWriterUsesHashBalancer(t *testing.T) {
	w := NewWriter([]string{"a:9092"}, DefaultRequestsTopic)
	defer w.Close()

	assert.Equal(t, DefaultRequestsTopic, w.Topic)
	assert.IsType(t, &kafkago.Hash{}, w.Balancer)
}

func TestTopicsFromEnv(t *testing.T) {
	t.Setenv("VERIFY_REQUESTS_TOPIC", "")
	t.Setenv("VERIFY_RESULTS_TOPIC", "nbn.results")
	t.Setenv("VERIFY_TOPIC_PARTITIONS", "6")

	topics := TopicsFromEnv()
	assert.Equal(t, DefaultRequestsTopic, topics.Requests)
	assert.Equal(t, "nbn.results", topics.Results)
	assert.Equal(t, 6, topics.Partitions)
}

func TestConnectStopsAtBrokerWait(t *testing.T) {
	err := Connect(context.Background(), []string{"127.0.0.1:1"}, 50*time.Millisecond, 1, DefaultRequestsTopic)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "waiting for broker")
}

func TestNewReaderDefaultsGroup(t *testing.T) {
	r := NewReader([]string{"a:9092"}, DefaultRequestsTopic, "")
	defer r.Close()

	assert.Equal(t, DefaultWorkerGroup, r.Config().GroupID)
	assert.Equal(t, DefaultRequestsTopic, r.Config().Topic)
}
