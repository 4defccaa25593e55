// Package repo implements the persistence boundary on PostgreSQL via pgx.
//
// Schema (relevant subset): mission rows with mission_status /
// mission_location enums, skill rows, freelance rows, and the mission_skill /
// freelance_skill join tables. Application rows reference mission and
// freelance with ON DELETE CASCADE.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/actabi/FreelanceAcademy/internal/mission"
	"github.com/actabi/FreelanceAcademy/internal/model"
)

// Repo holds the connection pool. It satisfies the repository interfaces of
// the mission, alert and freelance packages.
type Repo struct {
	pool *pgxpool.Pool
}

// New returns a Repo backed by pool.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const missionColumns = `id, title, description, status, daily_rate_min, daily_rate_max,
	       start_date, end_date, location, company_name, address,
	       discord_message_id, created_at, updated_at`

// scanMission reads one mission row (without relations).
func scanMission(row pgx.Row) (*model.Mission, error) {
	var (
		m           model.Mission
		companyName *string
		address     *string
		messageID   *string
	)
	err := row.Scan(
		&m.ID, &m.Title, &m.Description, &m.Status, &m.DailyRateMin, &m.DailyRateMax,
		&m.StartDate, &m.EndDate, &m.Location, &companyName, &address,
		&messageID, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if companyName != nil {
		m.CompanyName = *companyName
	}
	if address != nil {
		m.Address = *address
	}
	if messageID != nil {
		m.DiscordMessageID = *messageID
	}
	m.Skills = []model.Skill{}
	return &m, nil
}

// FindByID loads one mission, optionally with its skills and applications.
func (r *Repo) FindByID(ctx context.Context, id string, withRelations bool) (*model.Mission, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+missionColumns+` FROM mission WHERE id = $1`, id)

	m, err := scanMission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mission.ErrNotFound
		}
		return nil, fmt.Errorf("findByID query: %w", err)
	}

	if withRelations {
		if err := r.attachSkills(ctx, []*model.Mission{m}); err != nil {
			return nil, err
		}
		if err := r.attachApplications(ctx, m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// FindAll returns missions newest first, each filter dimension ANDed in.
func (r *Repo) FindAll(ctx context.Context, f model.MissionFilter) ([]model.Mission, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		conds = append(conds, "m.status = "+arg(string(f.Status))+"::mission_status")
	}
	if f.MinRate != nil {
		conds = append(conds, "m.daily_rate_min >= "+arg(*f.MinRate))
	}
	if f.MaxRate != nil {
		conds = append(conds, "m.daily_rate_max <= "+arg(*f.MaxRate))
	}
	if f.Location != "" {
		conds = append(conds, "m.location = "+arg(string(f.Location))+"::mission_location")
	}
	if len(f.Skills) > 0 {
		lowered := make([]string, 0, len(f.Skills))
		for _, s := range f.Skills {
			lowered = append(lowered, strings.ToLower(s))
		}
		conds = append(conds, `EXISTS (
			SELECT 1 FROM mission_skill ms
			JOIN skill sk ON sk.id = ms.skill_id
			WHERE ms.mission_id = m.id AND LOWER(sk.name) = ANY(`+arg(lowered)+`)
		)`)
	}

	// The column list stays unqualified: the only other table references
	// live inside the EXISTS subquery under their own aliases.
	query := `SELECT ` + missionColumns + ` FROM mission m`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("findAll query: %w", err)
	}
	defer rows.Close()

	missions := make([]model.Mission, 0)
	ptrs := make([]*model.Mission, 0)
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("findAll scan: %w", err)
		}
		missions = append(missions, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("findAll rows: %w", err)
	}
	for i := range missions {
		ptrs = append(ptrs, &missions[i])
	}
	if err := r.attachSkills(ctx, ptrs); err != nil {
		return nil, err
	}
	return missions, nil
}

// Save upserts the mission row and rewrites its skill links.
func (r *Repo) Save(ctx context.Context, m *model.Mission) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO mission (`+missionColumns+`)
		 VALUES ($1, $2, $3, $4::mission_status, $5, $6, $7, $8, $9::mission_location,
		         NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''), $13, $14)
		 ON CONFLICT (id) DO UPDATE SET
		   title = EXCLUDED.title,
		   description = EXCLUDED.description,
		   status = EXCLUDED.status,
		   daily_rate_min = EXCLUDED.daily_rate_min,
		   daily_rate_max = EXCLUDED.daily_rate_max,
		   start_date = EXCLUDED.start_date,
		   end_date = EXCLUDED.end_date,
		   location = EXCLUDED.location,
		   company_name = EXCLUDED.company_name,
		   address = EXCLUDED.address,
		   discord_message_id = EXCLUDED.discord_message_id,
		   updated_at = EXCLUDED.updated_at`,
		m.ID, m.Title, m.Description, string(m.Status), m.DailyRateMin, m.DailyRateMax,
		m.StartDate, m.EndDate, string(m.Location), m.CompanyName, m.Address,
		m.DiscordMessageID, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save mission: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM mission_skill WHERE mission_id = $1`, m.ID); err != nil {
		return fmt.Errorf("clear mission skills: %w", err)
	}
	for _, sk := range m.Skills {
		if _, err := tx.Exec(ctx,
			`INSERT INTO mission_skill (mission_id, skill_id) VALUES ($1, $2)`,
			m.ID, sk.ID,
		); err != nil {
			return fmt.Errorf("link skill %s: %w", sk.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FindSkillsByIDs returns the skills whose ids resolve. Callers compare the
// result length against the request to detect unknown ids.
func (r *Repo) FindSkillsByIDs(ctx context.Context, ids []string) ([]model.Skill, error) {
	if len(ids) == 0 {
		return []model.Skill{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, COALESCE(category, '') FROM skill WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("findSkillsByIDs query: %w", err)
	}
	defer rows.Close()

	skills := make([]model.Skill, 0, len(ids))
	for rows.Next() {
		var sk model.Skill
		if err := rows.Scan(&sk.ID, &sk.Name, &sk.Category); err != nil {
			return nil, fmt.Errorf("findSkillsByIDs scan: %w", err)
		}
		skills = append(skills, sk)
	}
	return skills, rows.Err()
}

// attachSkills loads and attaches the skill lists of the given missions in
// one query.
func (r *Repo) attachSkills(ctx context.Context, missions []*model.Mission) error {
	if len(missions) == 0 {
		return nil
	}
	byID := make(map[string]*model.Mission, len(missions))
	ids := make([]string, 0, len(missions))
	for _, m := range missions {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT ms.mission_id, sk.id, sk.name, COALESCE(sk.category, '')
		 FROM mission_skill ms
		 JOIN skill sk ON sk.id = ms.skill_id
		 WHERE ms.mission_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("attachSkills query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			missionID string
			sk        model.Skill
		)
		if err := rows.Scan(&missionID, &sk.ID, &sk.Name, &sk.Category); err != nil {
			return fmt.Errorf("attachSkills scan: %w", err)
		}
		if m, ok := byID[missionID]; ok {
			m.Skills = append(m.Skills, sk)
		}
	}
	return rows.Err()
}

// attachApplications loads the applications referencing a mission.
func (r *Repo) attachApplications(ctx context.Context, m *model.Mission) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, mission_id, freelance_id, status, created_at
		 FROM application WHERE mission_id = $1 ORDER BY created_at DESC`, m.ID)
	if err != nil {
		return fmt.Errorf("attachApplications query: %w", err)
	}
	defer rows.Close()

	apps := make([]model.Application, 0)
	for rows.Next() {
		var a model.Application
		if err := rows.Scan(&a.ID, &a.MissionID, &a.FreelanceID, &a.Status, &a.CreatedAt); err != nil {
			return fmt.Errorf("attachApplications scan: %w", err)
		}
		apps = append(apps, a)
	}
	m.Applications = apps
	return rows.Err()
}
