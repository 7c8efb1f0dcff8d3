package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/amcodin/SmartScraper/internal/models"
)

// InsertVerification stores one verification outcome, verified or not.
func (s *Store) InsertVerification(ctx context.Context, v *models.Verification) (int64, error) {
	if s == nil || s.db == nil || v == nil {
		return 0, fmt.Errorf("sqlite store not initialized or verification nil")
	}
	rawJSON, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("marshal verification: %w", err)
	}

	query := `
INSERT INTO verifications (
	request_id, correlation_id, plan_id, url, plan_name,
	verified, confidence, current_price, promo_details, plan_details,
	error, error_type, attempts, verified_at, raw_json,
	model_calls, total_tokens, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`
	var planID sql.NullInt64
	if v.PlanID > 0 {
		planID = sql.NullInt64{Int64: v.PlanID, Valid: true}
	}
	at := v.VerificationDate
	if at.IsZero() {
		at = s.now()
	}
	res, err := s.db.ExecContext(
		ctx,
		query,
		v.RequestID,
		v.CorrelationID,
		planID,
		v.URL,
		v.PlanName,
		v.Verified,
		v.ConfidenceScore,
		nullFloat(v.CurrentPrice),
		nullString(v.PromoDetails),
		v.PlanDetails,
		v.Error,
		v.ErrorType,
		v.Attempts,
		formatTime(at),
		string(rawJSON),
		v.Usage.Calls,
		v.Usage.TotalTokens,
		v.DurationMS,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LatestVerification returns the most recent verification of a plan.
func (s *Store) LatestVerification(ctx context.Context, planID int64) (*models.Verification, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT raw_json FROM verifications WHERE plan_id = ? ORDER BY verified_at DESC, id DESC LIMIT 1`,
		planID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("verification for plan %d: %w", planID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var v models.Verification
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decode verification: %w", err)
	}
	return &v, nil
}

// RecordVerification stores v and, when it verified a price for a stored
// plan, updates the plan's price.
func (s *Store) RecordVerification(ctx context.Context, plan models.Plan, v *models.Verification) error {
	if v.PlanID == 0 {
		v.PlanID = plan.ID
	}
	if _, err := s.InsertVerification(ctx, v); err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}
	if !v.Verified || v.CurrentPrice == nil || plan.ID == 0 {
		return nil
	}
	if err := s.UpdatePlanPrice(ctx, plan.ID, *v.CurrentPrice); err != nil {
		return fmt.Errorf("update plan price: %w", err)
	}
	return nil
}
