package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amcodin/SmartScraper/internal/logging"
	"github.com/amcodin/SmartScraper/internal/models"
	"github.com/amcodin/SmartScraper/internal/queue"
	"github.com/amcodin/SmartScraper/internal/storage/sqlite"
	"github.com/amcodin/SmartScraper/internal/verifier"
)

// Verifier runs one verification.
type Verifier interface {
	Verify(ctx context.Context, req verifier.Request) (*models.Verification, error)
}

// PlanSource looks up the stored state of a plan.
type PlanSource interface {
	GetPlan(ctx context.Context, id int64) (models.Plan, error)
}

// Processor verifies queued plans and publishes the outcome.
type Processor struct {
	verifier Verifier
	plans    PlanSource
	results  queue.MessageWriter
	now      func() time.Time
}

// NewProcessor wires a processor. plans and results may be nil.
func NewProcessor(v Verifier, plans PlanSource, results queue.MessageWriter) *Processor {
	return &Processor{verifier: v, plans: plans, results: results, now: time.Now}
}

// Handle is a Handler.
func (p *Processor) Handle(ctx context.Context, req *models.VerificationRequest) error {
	if p == nil || p.verifier == nil {
		return fmt.Errorf("processor not configured")
	}
	plan := req.Plan
	if p.plans != nil && plan.ID > 0 {
		stored, err := p.plans.GetPlan(ctx, plan.ID)
		switch {
		case err == nil:
			// the stored price may be newer than the queued one
			plan = stored
		case errors.Is(err, sqlite.ErrNotFound):
			logging.Warnf("[worker] plan %d no longer stored, verifying queued copy request=%s", plan.ID, req.RequestID)
		default:
			return fmt.Errorf("load plan %d: %w", plan.ID, err)
		}
	}

	v, err := p.verifier.Verify(ctx, verifier.Request{
		Plan:          plan,
		RequestID:     req.RequestID,
		CorrelationID: req.CorrelationID,
	})
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	_, changed := verifier.PriceChanged(plan, v)
	event := models.VerificationEvent{
		Request:       *req,
		Verification:  v,
		PreviousPrice: plan.Price,
		PriceChanged:  changed,
		PublishedAt:   p.now().UTC(),
	}
	event.Request.Plan = plan
	if err := queue.PublishResult(ctx, p.results, event); err != nil {
		return fmt.Errorf("publish result: %w", err)
	}
	if v.Failed() {
		logging.Warnf("[worker] plan=%q no extraction (%s) request=%s: %s", plan.PlanName, v.ErrorType, req.RequestID, v.Error)
		return nil
	}
	logging.Infof("[worker] plan=%q verified=%t changed=%t request=%s", plan.PlanName, v.Verified, changed, req.RequestID)
	if logging.Enabled(logging.LevelDebug) {
		if raw, err := json.Marshal(v.Result); err == nil {
			logging.Debugf("[worker] plan=%q extraction=%s", plan.PlanName, raw)
		}
	}
	return nil
}
