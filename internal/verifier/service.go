// Package verifier checks the advertised price of a plan by asking two
// models for the same extraction and reconciling their answers.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/amcodin/SmartScraper/internal/fetch"
	"github.com/amcodin/SmartScraper/internal/llm"
	"github.com/amcodin/SmartScraper/internal/logging"
	"github.com/amcodin/SmartScraper/internal/models"
	"github.com/amcodin/SmartScraper/internal/validator"
)

const (
	DefaultRetries     = 2
	DefaultBackoffBase = 30 * time.Second
	DefaultBackoffMax  = 300 * time.Second

	cacheThreshold = 0.8
	priceEpsilon   = 0.005
)

// ErrAmbiguous is returned for an attempt where the models disagree on
// price with equal confidence and the stored price cannot break the tie.
var ErrAmbiguous = errors.New("verifier: models disagree on price with equal confidence")

// PageFetcher downloads and extracts a provider page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// Cache stores verified results by plan identity.
type Cache interface {
	Get(ctx context.Context, plan models.Plan) (*models.Verification, bool, error)
	Set(ctx context.Context, plan models.Plan, v *models.Verification) error
}

// Recorder persists every verification outcome.
type Recorder interface {
	RecordVerification(ctx context.Context, plan models.Plan, v *models.Verification) error
}

// Notifier is told about verified prices that differ from the stored one.
type Notifier interface {
	NotifyPriceChange(ctx context.Context, change models.PriceChange) error
}

// Config wires the service. Primary is required; without Secondary every
// attempt uses the primary answer directly.
type Config struct {
	Primary      llm.Completer
	Secondary    llm.Completer
	Fetcher      PageFetcher
	Cache        Cache
	Recorder     Recorder
	Notifier     Notifier
	Schema       validator.Schema
	SystemPrompt string
	Retries      int
	BackoffBase  time.Duration
	BackoffMax   time.Duration
}

// Request is a single plan to verify. HTML, when set, is used instead of
// fetching the page.
type Request struct {
	Plan          models.Plan
	HTML          string
	RequestID     string
	CorrelationID string
}

// Service runs verifications.
type Service struct {
	primary     llm.Completer
	secondary   llm.Completer
	fetcher     PageFetcher
	cache       Cache
	recorder    Recorder
	notifier    Notifier
	schema      validator.Schema
	system      string
	retries     int
	backoffBase time.Duration
	backoffMax  time.Duration

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewService creates a verifier.
func NewService(cfg Config) (*Service, error) {
	if cfg.Primary == nil {
		return nil, fmt.Errorf("verifier: primary model is required")
	}
	schema := cfg.Schema
	if len(schema.Fields) == 0 {
		schema = validator.DefaultSchema()
	}
	system := cfg.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = systemPrompt
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = DefaultRetries
	}
	base := cfg.BackoffBase
	if base <= 0 {
		base = DefaultBackoffBase
	}
	maxDelay := cfg.BackoffMax
	if maxDelay <= 0 {
		maxDelay = DefaultBackoffMax
	}
	return &Service{
		primary:     cfg.Primary,
		secondary:   cfg.Secondary,
		fetcher:     cfg.Fetcher,
		cache:       cfg.Cache,
		recorder:    cfg.Recorder,
		notifier:    cfg.Notifier,
		schema:      schema,
		system:      system,
		retries:     retries,
		backoffBase: base,
		backoffMax:  maxDelay,
		now:         time.Now,
		sleep:       sleepContext,
	}, nil
}

// candidate is one model's answer to one prompt.
type candidate struct {
	model      string
	completion *llm.Completion
	report     *validator.Report
	err        error
	errType    string
}

func (c *candidate) confidence() float64 {
	if c == nil || c.report == nil {
		return 0
	}
	return c.report.Result.Confidence
}

func (c *candidate) price() *float64 {
	if c == nil || c.report == nil {
		return nil
	}
	p := c.report.Result.Price
	return &p
}

// Verify checks req.Plan against its provider page. A returned error means
// the request itself was unusable or ctx ended; model and page failures are
// reported through the Verification.
func (s *Service) Verify(ctx context.Context, req Request) (*models.Verification, error) {
	if s == nil {
		return nil, fmt.Errorf("verifier: service is nil")
	}
	if err := req.Plan.Validate(); err != nil {
		return nil, fmt.Errorf("verifier: %w", err)
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.CorrelationID == "" {
		req.CorrelationID = req.RequestID
	}
	start := s.now()
	tag := fmt.Sprintf("request=%s correlation=%s", req.RequestID, req.CorrelationID)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, req.Plan)
		if err != nil {
			logging.Warnf("[verifier] cache get failed %s: %v", tag, err)
		} else if ok {
			logging.Infof("[verifier] cache hit %s plan=%q", tag, req.Plan.PlanName)
			cached.Cached = true
			cached.RequestID = req.RequestID
			cached.CorrelationID = req.CorrelationID
			return cached, nil
		}
	}

	var (
		usage   models.Usage
		lastErr error
	)
	for attempt := 1; attempt <= s.retries; attempt++ {
		logging.Debugf("[verifier] attempt %d/%d %s", attempt, s.retries, tag)
		v, err := s.attempt(ctx, req, &usage)
		if err == nil {
			v.Attempts = attempt
			s.finish(req, v, usage, start)
			logging.Infof("[verifier] verified=%t confidence=%.2f price=%s %s", v.Verified, v.ConfidenceScore, formatPrice(v.CurrentPrice), tag)
			if s.cache != nil && v.Verified && v.ConfidenceScore > cacheThreshold {
				if err := s.cache.Set(ctx, req.Plan, v); err != nil {
					logging.Warnf("[verifier] cache set failed %s: %v", tag, err)
				}
			}
			s.record(ctx, req.Plan, v, tag)
			s.notify(ctx, req.Plan, v, tag)
			return v, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("verifier: %w", ctx.Err())
		}
		lastErr = err
		logging.Warnf("[verifier] attempt %d/%d failed %s: %v", attempt, s.retries, tag, err)
		if attempt < s.retries {
			if err := s.sleep(ctx, s.backoff(attempt)); err != nil {
				return nil, fmt.Errorf("verifier: %w", err)
			}
		}
	}

	v := &models.Verification{
		Verified:        false,
		ConfidenceScore: 0,
		Error:           lastErr.Error(),
		ErrorType:       models.ErrorVerificationFailed,
		Attempts:        s.retries,
	}
	s.finish(req, v, usage, start)
	logging.Errorf("[verifier] all %d attempts failed %s: %v", s.retries, tag, lastErr)
	s.record(ctx, req.Plan, v, tag)
	return v, nil
}

// attempt runs one prompt through both models and reconciles their answers.
func (s *Service) attempt(ctx context.Context, req Request, usage *models.Usage) (*models.Verification, error) {
	page, err := s.page(ctx, req)
	if err != nil {
		return nil, err
	}
	prompt := llm.Prompt{
		System:     s.system,
		User:       buildPrompt(req.Plan, page, s.schema),
		Schema:     s.schema.GenAI(),
		URLContext: page == nil,
	}
	extraction := validator.Request{
		URL:         req.Plan.URL,
		HTML:        req.HTML,
		TargetSpeed: req.Plan.DownloadSpeed,
		Schema:      s.schema,
	}

	var first, second *candidate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.query(gctx, s.primary, prompt, extraction)
		first = c
		return err
	})
	if s.secondary != nil {
		g.Go(func() error {
			c, err := s.query(gctx, s.secondary, prompt, extraction)
			second = c
			return err
		})
	}
	err = g.Wait()
	addUsage(usage, first)
	addUsage(usage, second)
	if err != nil {
		return nil, err
	}

	chosen := first
	var details models.MatchDetails
	if second != nil {
		if samePrice(first.price(), second.price()) {
			if second.confidence() > first.confidence() {
				chosen = second
			}
		} else {
			details.PriceMismatch = true
			logging.Infof("[verifier] price mismatch %s=%s (%.2f) %s=%s (%.2f) request=%s",
				first.model, formatPrice(first.price()), first.confidence(),
				second.model, formatPrice(second.price()), second.confidence(), req.RequestID)

			redo, err := s.pickRequery(first, second, req.Plan.Price)
			if err != nil {
				return nil, err
			}
			third, err := s.query(ctx, redo, prompt, extraction)
			addUsage(usage, third)
			if err != nil {
				return nil, err
			}
			details.Requeried = redo.Model()
			chosen = maxConfidence(first, second, third)
		}
	}

	if chosen.report == nil {
		return nil, fmt.Errorf("verifier: no usable extraction: %w", chosen.err)
	}
	return s.verification(chosen, details), nil
}

// pickRequery chooses the model to ask again: the less confident one, or on
// a tie the one whose price disagrees with the stored price.
func (s *Service) pickRequery(first, second *candidate, stored *float64) (llm.Completer, error) {
	switch {
	case first.confidence() > second.confidence():
		return s.secondary, nil
	case second.confidence() > first.confidence():
		return s.primary, nil
	}
	firstMatches := stored != nil && samePrice(first.price(), stored)
	secondMatches := stored != nil && samePrice(second.price(), stored)
	switch {
	case firstMatches && !secondMatches:
		return s.secondary, nil
	case secondMatches && !firstMatches:
		return s.primary, nil
	}
	return nil, ErrAmbiguous
}

func (s *Service) page(ctx context.Context, req Request) (*fetch.Page, error) {
	if strings.TrimSpace(req.HTML) != "" {
		return fetch.Extract(req.Plan.URL, req.HTML, 0)
	}
	if s.fetcher == nil {
		return nil, nil
	}
	page, err := s.fetcher.Fetch(ctx, req.Plan.URL)
	if err != nil {
		return nil, fmt.Errorf("verifier: %w", err)
	}
	return page, nil
}

// query asks one model and validates its answer. Only transport failures
// are returned as errors; bad output becomes a candidate with no report.
func (s *Service) query(ctx context.Context, model llm.Completer, prompt llm.Prompt, extraction validator.Request) (*candidate, error) {
	c := &candidate{model: model.Model()}
	comp, err := model.Complete(ctx, prompt)
	if err != nil {
		return c, fmt.Errorf("verifier: %s: %w", c.model, err)
	}
	c.completion = comp
	rep, err := extraction.ValidateReport(comp.Text)
	if err != nil {
		c.err = err
		c.errType = models.ErrorValidation
		if errors.Is(err, validator.ErrMalformedOutput) {
			c.errType = models.ErrorInvalidJSON
		}
		logging.Debugf("[verifier] %s output for %s rejected (%s): %v", c.model, extraction.Source(), c.errType, err)
		return c, nil
	}
	c.report = rep
	return c, nil
}

func (s *Service) verification(c *candidate, details models.MatchDetails) *models.Verification {
	res := c.report.Result
	price := res.Price
	details.SpeedMatch = res.MatchCriteria.SpeedMatch
	details.ModelSpeedMatch = c.report.ModelSpeedMatch
	details.PriceFromString = c.report.PriceFromString
	details.SelectedModel = c.model

	v := &models.Verification{
		Verified:        res.Verified,
		ConfidenceScore: res.Confidence,
		CurrentPrice:    &price,
		PromoDetails:    cleanPromo(res.PromotionDetails),
		PlanDetails:     cleanDetails(res.PlanDetails),
		MatchDetails:    details,
		Result:          res,
	}
	if c.report.Demoted {
		v.ErrorType = models.ErrorLowConfidence
	}
	return v
}

func (s *Service) finish(req Request, v *models.Verification, usage models.Usage, start time.Time) {
	now := s.now()
	v.RequestID = req.RequestID
	v.CorrelationID = req.CorrelationID
	v.PlanID = req.Plan.ID
	v.URL = req.Plan.URL
	v.PlanName = req.Plan.PlanName
	v.VerificationDate = now.UTC()
	v.Usage = usage
	v.DurationMS = now.Sub(start).Milliseconds()
}

func (s *Service) record(ctx context.Context, plan models.Plan, v *models.Verification, tag string) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordVerification(ctx, plan, v); err != nil {
		logging.Errorf("[verifier] record failed %s: %v", tag, err)
	}
}

func (s *Service) notify(ctx context.Context, plan models.Plan, v *models.Verification, tag string) {
	change, ok := PriceChanged(plan, v)
	if !ok || s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyPriceChange(ctx, change); err != nil {
		logging.Errorf("[verifier] notify failed %s: %v", tag, err)
	}
}

// PriceChanged reports whether v is a verified price that differs from the
// plan's stored price.
func PriceChanged(plan models.Plan, v *models.Verification) (models.PriceChange, bool) {
	if v == nil || !v.Verified || v.CurrentPrice == nil || plan.Price == nil {
		return models.PriceChange{}, false
	}
	if samePrice(plan.Price, v.CurrentPrice) {
		return models.PriceChange{}, false
	}
	return models.PriceChange{
		Plan:         plan,
		OldPrice:     *plan.Price,
		NewPrice:     *v.CurrentPrice,
		Verification: v,
	}, true
}

// backoff is min(max, 2^attempt * base).
func (s *Service) backoff(attempt int) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempt))) * s.backoffBase
	if d > s.backoffMax || d <= 0 {
		return s.backoffMax
	}
	return d
}

func addUsage(u *models.Usage, c *candidate) {
	if c == nil || c.completion == nil {
		return
	}
	u.Add(c.completion.PromptTokens, c.completion.CompletionTokens, c.completion.TotalTokens)
}

func maxConfidence(cands ...*candidate) *candidate {
	best := cands[0]
	for _, c := range cands[1:] {
		if c.confidence() > best.confidence() {
			best = c
		}
	}
	return best
}

func samePrice(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return math.Abs(*a-*b) < priceEpsilon
}

func formatPrice(p *float64) string {
	if p == nil {
		return "null"
	}
	return fmt.Sprintf("%.2f", *p)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
