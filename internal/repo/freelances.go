package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/actabi/FreelanceAcademy/internal/mission"
	"github.com/actabi/FreelanceAcademy/internal/model"
)

const freelanceColumns = `id, discord_id, name, COALESCE(email, ''), COALESCE(daily_rate, 0),
	       is_active, is_available, created_at, updated_at`

func scanFreelance(row pgx.Row) (*model.Freelance, error) {
	var f model.Freelance
	err := row.Scan(
		&f.ID, &f.DiscordID, &f.Name, &f.Email, &f.DailyRate,
		&f.IsActive, &f.IsAvailable, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.Skills = []model.Skill{}
	return &f, nil
}

// FreelanceByID loads one profile with its skills.
func (r *Repo) FreelanceByID(ctx context.Context, id string) (*model.Freelance, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+freelanceColumns+` FROM freelance WHERE id = $1`, id)
	f, err := scanFreelance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mission.ErrNotFound
		}
		return nil, fmt.Errorf("freelanceByID query: %w", err)
	}
	if err := r.attachFreelanceSkills(ctx, []*model.Freelance{f}); err != nil {
		return nil, err
	}
	return f, nil
}

// FreelanceByDiscordID loads one profile by its Discord user id.
func (r *Repo) FreelanceByDiscordID(ctx context.Context, discordID string) (*model.Freelance, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+freelanceColumns+` FROM freelance WHERE discord_id = $1`, discordID)
	f, err := scanFreelance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mission.ErrNotFound
		}
		return nil, fmt.Errorf("freelanceByDiscordID query: %w", err)
	}
	if err := r.attachFreelanceSkills(ctx, []*model.Freelance{f}); err != nil {
		return nil, err
	}
	return f, nil
}

// FreelancesByIDs loads a set of profiles with their skills. Unknown ids are
// silently absent from the result.
func (r *Repo) FreelancesByIDs(ctx context.Context, ids []string) ([]model.Freelance, error) {
	if len(ids) == 0 {
		return []model.Freelance{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+freelanceColumns+` FROM freelance WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("freelancesByIDs query: %w", err)
	}
	return r.collectFreelances(ctx, rows)
}

// ListActiveFreelances returns every active profile with skills, for
// matching fan-out.
func (r *Repo) ListActiveFreelances(ctx context.Context) ([]model.Freelance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+freelanceColumns+` FROM freelance WHERE is_active = true`)
	if err != nil {
		return nil, fmt.Errorf("listActiveFreelances query: %w", err)
	}
	return r.collectFreelances(ctx, rows)
}

// SaveFreelance upserts the profile row and rewrites its skill links.
func (r *Repo) SaveFreelance(ctx context.Context, f *model.Freelance) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO freelance (id, discord_id, name, email, daily_rate,
		                        is_active, is_available, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   email = EXCLUDED.email,
		   daily_rate = EXCLUDED.daily_rate,
		   is_active = EXCLUDED.is_active,
		   is_available = EXCLUDED.is_available,
		   updated_at = EXCLUDED.updated_at`,
		f.ID, f.DiscordID, f.Name, f.Email, f.DailyRate,
		f.IsActive, f.IsAvailable, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save freelance: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM freelance_skill WHERE freelance_id = $1`, f.ID); err != nil {
		return fmt.Errorf("clear freelance skills: %w", err)
	}
	for _, sk := range f.Skills {
		if _, err := tx.Exec(ctx,
			`INSERT INTO freelance_skill (freelance_id, skill_id) VALUES ($1, $2)`,
			f.ID, sk.ID,
		); err != nil {
			return fmt.Errorf("link skill %s: %w", sk.ID, err)
		}
	}

	return tx.Commit(ctx)
}

func (r *Repo) collectFreelances(ctx context.Context, rows pgx.Rows) ([]model.Freelance, error) {
	defer rows.Close()

	freelances := make([]model.Freelance, 0)
	for rows.Next() {
		f, err := scanFreelance(rows)
		if err != nil {
			return nil, fmt.Errorf("freelance scan: %w", err)
		}
		freelances = append(freelances, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("freelance rows: %w", err)
	}

	ptrs := make([]*model.Freelance, 0, len(freelances))
	for i := range freelances {
		ptrs = append(ptrs, &freelances[i])
	}
	if err := r.attachFreelanceSkills(ctx, ptrs); err != nil {
		return nil, err
	}
	return freelances, nil
}

func (r *Repo) attachFreelanceSkills(ctx context.Context, freelances []*model.Freelance) error {
	if len(freelances) == 0 {
		return nil
	}
	byID := make(map[string]*model.Freelance, len(freelances))
	ids := make([]string, 0, len(freelances))
	for _, f := range freelances {
		byID[f.ID] = f
		ids = append(ids, f.ID)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT fs.freelance_id, sk.id, sk.name, COALESCE(sk.category, '')
		 FROM freelance_skill fs
		 JOIN skill sk ON sk.id = fs.skill_id
		 WHERE fs.freelance_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("attachFreelanceSkills query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			freelanceID string
			sk          model.Skill
		)
		if err := rows.Scan(&freelanceID, &sk.ID, &sk.Name, &sk.Category); err != nil {
			return fmt.Errorf("attachFreelanceSkills scan: %w", err)
		}
		if f, ok := byID[freelanceID]; ok {
			f.Skills = append(f.Skills, sk)
		}
	}
	return rows.Err()
}
