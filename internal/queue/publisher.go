package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/amcodin/SmartScraper/internal/cache"
	"github.com/amcodin/SmartScraper/internal/models"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewRequests builds one request per plan, all sharing correlationID (a new
// one when empty).
func NewRequests(plans []models.Plan, correlationID string, now time.Time) []models.VerificationRequest {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	out := make([]models.VerificationRequest, 0, len(plans))
	for _, p := range plans {
		out = append(out, models.VerificationRequest{
			RequestID:     uuid.NewString(),
			CorrelationID: correlationID,
			Plan:          p,
			RequestedAt:   now.UTC(),
		})
	}
	return out
}

// PublishRequests writes requests keyed by plan identity.
func PublishRequests(ctx context.Context, writer MessageWriter, reqs []models.VerificationRequest) error {
	if writer == nil || len(reqs) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(reqs))
	for _, r := range reqs {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal request %s: %w", r.RequestID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(cache.PlanKey(r.Plan)),
			Value: payload,
			Headers: []kafka.Header{
				{Key: "request_id", Value: []byte(r.RequestID)},
				{Key: "correlation_id", Value: []byte(r.CorrelationID)},
			},
		})
	}
	return writer.WriteMessages(ctx, msgs...)
}

// PublishResult writes one verification outcome.
func PublishResult(ctx context.Context, writer MessageWriter, event models.VerificationEvent) error {
	if writer == nil {
		return nil
	}
	if event.PublishedAt.IsZero() {
		event.PublishedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal result %s: %w", event.Request.RequestID, err)
	}
	key := event.Request.RequestID
	if event.Request.Plan.ID > 0 {
		key = strconv.FormatInt(event.Request.Plan.ID, 10)
	}
	return writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: payload})
}
