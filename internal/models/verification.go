package models

import (
	"time"

	"github.com/amcodin/SmartScraper/internal/validator"
)

// Error types attached to a failed or demoted verification.
const (
	ErrorInvalidJSON        = "INVALID_JSON"
	ErrorValidation         = "VALIDATION_ERROR"
	ErrorLowConfidence      = "LOW_CONFIDENCE"
	ErrorVerificationFailed = "VERIFICATION_FAILED"
)

// NoDetails replaces empty plan details.
const NoDetails = "No details available"

// VerificationRequest is the payload placed on the requests topic.
type VerificationRequest struct {
	RequestID     string    `json:"request_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Plan          Plan      `json:"plan"`
	RequestedAt   time.Time `json:"requested_at"`
}

// MatchDetails records how the final extraction was chosen.
type MatchDetails struct {
	SpeedMatch      bool   `json:"speed_match"`
	ModelSpeedMatch bool   `json:"model_speed_match"`
	PriceFromString bool   `json:"price_from_string,omitempty"`
	PriceMismatch   bool   `json:"price_mismatch,omitempty"`
	Requeried       string `json:"requeried_model,omitempty"`
	SelectedModel   string `json:"selected_model,omitempty"`
}

// Usage is the token spend of one verification across all model calls.
type Usage struct {
	Calls            int `json:"calls"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another call into u.
func (u *Usage) Add(prompt, completion, total int) {
	u.Calls++
	u.PromptTokens += prompt
	u.CompletionTokens += completion
	u.TotalTokens += total
}

// Verification is the outcome of checking one plan against its provider page.
type Verification struct {
	RequestID        string            `json:"request_id"`
	CorrelationID    string            `json:"correlation_id,omitempty"`
	PlanID           int64             `json:"plan_id,omitempty"`
	URL              string            `json:"url"`
	PlanName         string            `json:"plan_name"`
	VerificationDate time.Time         `json:"verification_date"`
	Verified         bool              `json:"verified"`
	ConfidenceScore  float64           `json:"confidence_score"`
	CurrentPrice     *float64          `json:"current_price"`
	PromoDetails     *string           `json:"promo_details"`
	PlanDetails      string            `json:"plan_details"`
	Error            string            `json:"error,omitempty"`
	ErrorType        string            `json:"error_type,omitempty"`
	MatchDetails     MatchDetails      `json:"match_details"`
	Result           *validator.Result `json:"result,omitempty"`
	Usage            Usage             `json:"usage"`
	Attempts         int               `json:"attempts"`
	DurationMS       int64             `json:"duration_ms"`
	Cached           bool              `json:"cached,omitempty"`
}

// Failed reports whether no usable extraction was produced.
func (v *Verification) Failed() bool {
	return v == nil || v.Result == nil
}

// VerificationEvent is the payload placed on the results topic.
type VerificationEvent struct {
	Request       VerificationRequest `json:"request"`
	Verification  *Verification       `json:"verification"`
	PreviousPrice *float64            `json:"previous_price,omitempty"`
	PriceChanged  bool                `json:"price_changed"`
	PublishedAt   time.Time           `json:"published_at"`
}

// PriceChange describes a verified price that differs from the stored one.
type PriceChange struct {
	Plan         Plan          `json:"plan"`
	OldPrice     float64       `json:"old_price"`
	NewPrice     float64       `json:"new_price"`
	Verification *Verification `json:"verification"`
}

// Delta is NewPrice - OldPrice.
func (c PriceChange) Delta() float64 {
	return c.NewPrice - c.OldPrice
}
