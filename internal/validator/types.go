package validator

import (
	"fmt"
	"strings"
)

// MatchCriteria holds the match flags reported alongside an extraction.
type MatchCriteria struct {
	SpeedMatch bool `json:"speed_match"`
}

// Result is a validated plan extraction.
type Result struct {
	PlanName         string        `json:"plan_name"`
	Price            float64       `json:"price"`
	PriceString      string        `json:"price_string"`
	DownloadSpeed    string        `json:"download_speed"`
	UploadSpeed      string        `json:"upload_speed"`
	PromotionDetails *string       `json:"promotion_details"`
	PlanDetails      string        `json:"plan_details"`
	Verified         bool          `json:"verified"`
	Confidence       float64       `json:"confidence"`
	MatchCriteria    MatchCriteria `json:"match_criteria"`
}

// Request describes a single extraction: where the content came from, the
// download speed the caller is looking for and the schema the model output
// must satisfy.
type Request struct {
	URL         string
	HTML        string
	TargetSpeed float64
	Schema      Schema
}

// Validate checks raw model output against the request's schema and target.
// A zero Schema falls back to DefaultSchema.
func (r Request) Validate(raw string) (*Result, error) {
	rep, err := r.ValidateReport(raw)
	if err != nil {
		return nil, err
	}
	return rep.Result, nil
}

// ValidateReport is Validate plus the corrections that were applied.
func (r Request) ValidateReport(raw string) (*Report, error) {
	schema := r.Schema
	if len(schema.Fields) == 0 {
		schema = DefaultSchema()
	}
	return ValidateReport(raw, schema, r.TargetSpeed)
}

// Source names where the extracted content came from, for messages.
func (r Request) Source() string {
	switch {
	case strings.TrimSpace(r.URL) != "":
		return strings.TrimSpace(r.URL)
	case r.HTML != "":
		return fmt.Sprintf("inline HTML (%d bytes)", len(r.HTML))
	}
	return "model output"
}

// Report is the outcome of ValidateReport: the result plus what had to be
// corrected on the way.
type Report struct {
	Result *Result
	// Demoted is set when the model claimed verified but confidence was
	// below VerifiedThreshold.
	Demoted bool
	// ModelSpeedMatch is the speed_match value the model reported.
	ModelSpeedMatch bool
	// PriceFromString is set when price arrived as text and was parsed.
	PriceFromString bool
}

// VerifiedThreshold is the minimum confidence at which a result may be
// marked verified.
const VerifiedThreshold = 0.8
