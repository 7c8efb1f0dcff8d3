package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amcodin/SmartScraper/internal/validator"
)

func TestVerificationFailed(t *testing.T) {
	var missing *Verification
	assert.True(t, missing.Failed())
	assert.True(t, (&Verification{ErrorType: ErrorVerificationFailed}).Failed())

	demoted := &Verification{ErrorType: ErrorLowConfidence, Result: &validator.Result{Confidence: 0.5}}
	assert.False(t, demoted.Failed())
}

func TestPlanValidate(t *testing.T) {
	plan := Plan{URL: "https://example.com/nbn", PlanName: "NBN 100/20", DownloadSpeed: 100}
	assert.NoError(t, plan.Validate())

	plan.DownloadSpeed = 0
	assert.Error(t, plan.Validate())
	plan.DownloadSpeed, plan.URL = 100, " "
	assert.Error(t, plan.Validate())
}

func TestPriceChangeDelta(t *testing.T) {
	assert.InDelta(t, -10.0, PriceChange{OldPrice: 99, NewPrice: 89}.Delta(), 1e-9)
}
