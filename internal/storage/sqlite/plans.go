package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/amcodin/SmartScraper/internal/models"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("sqlite: not found")

const upsertPlanSQL = `
INSERT INTO plans (provider, url, plan_name, download_speed, upload_speed, price, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(url, plan_name, download_speed, upload_speed) DO UPDATE SET
	provider=excluded.provider,
	price=COALESCE(excluded.price, plans.price),
	updated_at=excluded.updated_at
RETURNING id;
`

const selectPlanSQL = `SELECT id, provider, url, plan_name, download_speed, upload_speed, price, updated_at FROM plans`

// UpsertPlan inserts or updates a plan and returns its id. A nil price
// keeps the stored one.
func (s *Store) UpsertPlan(ctx context.Context, plan models.Plan) (int64, error) {
	ids, err := s.UpsertPlans(ctx, []models.Plan{plan})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// UpsertPlans upserts plans in one transaction and returns their ids in
// input order.
func (s *Store) UpsertPlans(ctx context.Context, plans []models.Plan) ([]int64, error) {
	if len(plans) == 0 {
		return nil, nil
	}
	for _, p := range plans {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	stmt, err := tx.PrepareContext(ctx, upsertPlanSQL)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	defer stmt.Close()

	now := formatTime(s.now())
	ids := make([]int64, 0, len(plans))
	for _, p := range plans {
		var id int64
		err := stmt.QueryRowContext(ctx,
			p.Provider, p.URL, p.PlanName, p.DownloadSpeed, p.UploadSpeed, nullFloat(p.Price), now,
		).Scan(&id)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("upsert plan %q: %w", p.PlanName, err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListPlans returns plans ordered by provider and name. An empty provider
// lists all.
func (s *Store) ListPlans(ctx context.Context, provider string) ([]models.Plan, error) {
	query := selectPlanSQL
	var args []any
	if provider != "" {
		query += ` WHERE provider = ?`
		args = append(args, provider)
	}
	query += ` ORDER BY provider, plan_name, download_speed`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPlan loads a plan by id.
func (s *Store) GetPlan(ctx context.Context, id int64) (models.Plan, error) {
	row := s.db.QueryRowContext(ctx, selectPlanSQL+` WHERE id = ?`, id)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Plan{}, fmt.Errorf("plan %d: %w", id, ErrNotFound)
	}
	return p, err
}

// UpdatePlanPrice stores a newly verified price.
func (s *Store) UpdatePlanPrice(ctx context.Context, id int64, price float64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE plans SET price = ?, updated_at = ? WHERE id = ?`, price, formatTime(s.now()), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("plan %d: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (models.Plan, error) {
	var (
		p       models.Plan
		price   sql.NullFloat64
		updated string
	)
	if err := row.Scan(&p.ID, &p.Provider, &p.URL, &p.PlanName, &p.DownloadSpeed, &p.UploadSpeed, &price, &updated); err != nil {
		return models.Plan{}, err
	}
	if price.Valid {
		v := price.Float64
		p.Price = &v
	}
	p.UpdatedAt = parseTime(updated)
	return p, nil
}
