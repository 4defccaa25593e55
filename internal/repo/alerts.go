package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/actabi/FreelanceAcademy/internal/mission"
	"github.com/actabi/FreelanceAcademy/internal/model"
)

const alertColumns = `id, user_id, skills, min_rate, max_rate, COALESCE(location, ''),
	       created_at, updated_at`

func scanAlert(row pgx.Row) (*model.Alert, error) {
	var a model.Alert
	err := row.Scan(
		&a.ID, &a.UserID, &a.Skills, &a.MinRate, &a.MaxRate, &a.Location,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if a.Skills == nil {
		a.Skills = []string{}
	}
	return &a, nil
}

// AlertByID loads one alert.
func (r *Repo) AlertByID(ctx context.Context, id string) (*model.Alert, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+alertColumns+` FROM alert WHERE id = $1`, id)
	a, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mission.ErrNotFound
		}
		return nil, fmt.Errorf("alertByID query: %w", err)
	}
	return a, nil
}

// AlertsByUserID returns a user's alerts, newest first.
func (r *Repo) AlertsByUserID(ctx context.Context, userID string) ([]model.Alert, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+alertColumns+` FROM alert WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("alertsByUserID query: %w", err)
	}
	return collectAlerts(rows)
}

// ListAlerts returns every alert, for matching a new mission against all
// saved searches.
func (r *Repo) ListAlerts(ctx context.Context) ([]model.Alert, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+alertColumns+` FROM alert`)
	if err != nil {
		return nil, fmt.Errorf("listAlerts query: %w", err)
	}
	return collectAlerts(rows)
}

// SaveAlert upserts an alert row.
func (r *Repo) SaveAlert(ctx context.Context, a *model.Alert) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO alert (id, user_id, skills, min_rate, max_rate, location,
		                    created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   skills = EXCLUDED.skills,
		   min_rate = EXCLUDED.min_rate,
		   max_rate = EXCLUDED.max_rate,
		   location = EXCLUDED.location,
		   updated_at = EXCLUDED.updated_at`,
		a.ID, a.UserID, a.Skills, a.MinRate, a.MaxRate, a.Location,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save alert: %w", err)
	}
	return nil
}

// DeleteAlert removes an alert row.
func (r *Repo) DeleteAlert(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM alert WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return mission.ErrNotFound
	}
	return nil
}

func collectAlerts(rows pgx.Rows) ([]model.Alert, error) {
	defer rows.Close()

	alerts := make([]model.Alert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("alert scan: %w", err)
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}
