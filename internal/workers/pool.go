package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/amcodin/SmartScraper/internal/kafka"
	"github.com/amcodin/SmartScraper/internal/logging"
	"github.com/amcodin/SmartScraper/internal/models"
)

type Handler func(context.Context, *models.VerificationRequest) error

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
}

func Run(ctx context.Context, brokers []string, topic, group string, workerCount int, handler Handler) {
	if workerCount <= 0 {
		workerCount = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			reader := kafka.NewReader(brokers, topic, group)
			defer reader.Close()
			logging.Debugf("[worker %d] consuming %s", id, topic)
			consume(ctx, reader, handler)
		}(i)
	}

	<-ctx.Done()
	wg.Wait()
}

func consume(ctx context.Context, reader MessageReader, handler Handler) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Errorf("worker read error: %v", err)
			continue
		}

		req, err := Decode(msg.Value)
		if err != nil {
			logging.Errorf("worker skipping message offset=%d: %v", msg.Offset, err)
			continue
		}

		if handler != nil {
			if err := handler(ctx, req); err != nil {
				logging.Errorf("worker handler error request=%s: %v", req.RequestID, err)
			}
		}
	}
}

// Decode parses a verification request and checks the plan identity.
func Decode(raw []byte) (*models.VerificationRequest, error) {
	var req models.VerificationRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}
	if err := req.Plan.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}
