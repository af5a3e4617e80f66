package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"atrium/internal/domain"
	"atrium/internal/ports"
)

const projectColumns = `id, name, COALESCE(description, ''), status,
	COALESCE(budget, 0), COALESCE(actual_cost, 0), health_score, progress,
	owner_id, manager_id, created_by, organization_id,
	start_date, end_date, updated_at`

// ProjectRepository

func (db *DB) GetByID(ctx context.Context, id string) (domain.Project, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Project{}, ports.ErrNotFound
	}
	return p, err
}

func (db *DB) ListScorable(ctx context.Context) ([]domain.Project, error) {
	return db.listProjects(ctx, `status NOT IN ('draft', 'planning', 'completed', 'cancelled')`)
}

func (db *DB) ListOpen(ctx context.Context) ([]domain.Project, error) {
	return db.listProjects(ctx, `status NOT IN ('completed', 'cancelled')`)
}

func (db *DB) listProjects(ctx context.Context, statusCond string) ([]domain.Project, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE deleted_at IS NULL AND `+statusCond+`
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (db *DB) SetHealthScore(ctx context.Context, id string, score int) (domain.Project, error) {
	row := db.Pool.QueryRow(ctx, `
		UPDATE projects
		SET health_score = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+projectColumns+`
	`, id, score)
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Project{}, ports.ErrNotFound
	}
	return p, err
}

func scanProject(row pgx.Row) (domain.Project, error) {
	var p domain.Project
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Status,
		&p.Budget, &p.ActualCost, &p.HealthScore, &p.Progress,
		&p.OwnerID, &p.ManagerID, &p.CreatedByID, &p.OrganizationID,
		&p.StartDate, &p.EndDate, &p.UpdatedAt,
	)
	return p, err
}
