package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"atrium/internal/domain"
	"atrium/internal/ports"
)

const taskColumns = `id, project_id, title, COALESCE(description, ''), status,
	COALESCE(priority, ''), assignee_id, due_date, completed_at, updated_at`

// TaskRepository

func (db *DB) ListForProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE project_id = $1 AND deleted_at IS NULL
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountsByProject returns the scoring aggregates for all given projects in a
// single grouped query. A task is on time when it has no due date or
// completed before the end of its due day.
func (db *DB) CountsByProject(ctx context.Context, projectIDs []string) (map[string]ports.TaskCounts, error) {
	out := make(map[string]ports.TaskCounts, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT project_id,
		       COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE status = 'completed') AS completed,
		       COUNT(*) FILTER (WHERE status = 'completed'
		           AND (due_date IS NULL
		                OR (completed_at IS NOT NULL
		                    AND completed_at < due_date + interval '1 day'))) AS on_time
		FROM tasks
		WHERE project_id = ANY($1) AND deleted_at IS NULL
		GROUP BY project_id
	`, projectIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var c ports.TaskCounts
		if err := rows.Scan(&id, &c.Total, &c.Completed, &c.OnTime); err != nil {
			return nil, err
		}
		out[id] = c
	}
	return out, rows.Err()
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status,
		&t.Priority, &t.AssigneeID, &t.DueDate, &t.CompletedAt, &t.UpdatedAt,
	)
	return t, err
}
