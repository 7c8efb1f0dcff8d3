package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amcodin/SmartScraper/internal/cache"
	"github.com/amcodin/SmartScraper/internal/models"
)

type recordingWriter struct {
	msgs []kafka.Message
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

var plans = []models.Plan{
	{ID: 1, URL: "https://a.example/nbn", PlanName: "NBN 100/20", DownloadSpeed: 100, UploadSpeed: 20},
	{ID: 2, URL: "https://b.example/nbn", PlanName: "NBN 50/20", DownloadSpeed: 50, UploadSpeed: 20},
}

func TestNewRequestsShareCorrelation(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.FixedZone("AEST", 10*3600))
	reqs := NewRequests(plans, "", now)

	require.Len(t, reqs, 2)
	assert.NotEmpty(t, reqs[0].CorrelationID)
	assert.Equal(t, reqs[0].CorrelationID, reqs[1].CorrelationID)
	assert.NotEqual(t, reqs[0].RequestID, reqs[1].RequestID)
	assert.Equal(t, time.UTC, reqs[0].RequestedAt.Location())
}

func TestPublishRequests(t *testing.T) {
	w := &recordingWriter{}
	reqs := NewRequests(plans, "batch-1", time.Now())

	require.NoError(t, PublishRequests(context.Background(), w, reqs))
	require.Len(t, w.msgs, 2)

	assert.Equal(t, cache.PlanKey(plans[0]), string(w.msgs[0].Key))
	var got models.VerificationRequest
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &got))
	assert.Equal(t, "batch-1", got.CorrelationID)
	assert.Equal(t, "NBN 50/20", got.Plan.PlanName)
	assert.Equal(t, "request_id", w.msgs[0].Headers[0].Key)
}

func TestPublishRequestsNoop(t *testing.T) {
	require.NoError(t, PublishRequests(context.Background(), nil, NewRequests(plans, "", time.Now())))
	w := &recordingWriter{}
	require.NoError(t, PublishRequests(context.Background(), w, nil))
	assert.Empty(t, w.msgs)
}

func TestPublishResult(t *testing.T) {
	w := &recordingWriter{}
	price := 99.0
	event := models.VerificationEvent{
		Request:      models.VerificationRequest{RequestID: "req-1", Plan: plans[0]},
		Verification: &models.Verification{Verified: true, CurrentPrice: &price},
		PriceChanged: true,
	}

	require.NoError(t, PublishResult(context.Background(), w, event))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "1", string(w.msgs[0].Key))

	var got models.VerificationEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.True(t, got.PriceChanged)
	assert.False(t, got.PublishedAt.IsZero())
	assert.Equal(t, 99.0, *got.Verification.CurrentPrice)
}
