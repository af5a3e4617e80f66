package postgres

import (
	"context"
	"strconv"
	"strings"

	"atrium/internal/domain"
	"atrium/internal/ports"
)

// SearchRepository. Visibility rules live in these queries: soft-deleted rows
// are always excluded, a non-empty CallerID restricts projects and tasks to
// rows the caller owns or is assigned to, and a non-empty OrganizationID
// scopes partners. The LIMIT is applied before relevance annotation upstream.

func (db *DB) SearchProjects(ctx context.Context, f ports.SearchFilter) ([]domain.Project, error) {
	q := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE deleted_at IS NULL
		  AND (name ILIKE $1 OR description ILIKE $1)`
	args := []any{likePattern(f.Query)}
	if f.CallerID != "" {
		q += `
		  AND (owner_id = $2 OR manager_id = $2 OR created_by = $2)`
		args = append(args, f.CallerID)
	}
	q += `
		ORDER BY updated_at DESC
		LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, f.Limit)

	rows, err := db.Pool.Query(ctx, q, args...)
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

func (db *DB) SearchPartners(ctx context.Context, f ports.SearchFilter) ([]domain.Partner, error) {
	q := `
		SELECT id, company_name, COALESCE(name, ''), COALESCE(email, ''),
		       COALESCE(contact_person, ''), COALESCE(type, ''),
		       COALESCE(rating, 0), COALESCE(status, ''), organization_id, updated_at
		FROM partners
		WHERE deleted_at IS NULL
		  AND (company_name ILIKE $1 OR name ILIKE $1 OR email ILIKE $1)`
	args := []any{likePattern(f.Query)}
	if f.OrganizationID != "" {
		q += `
		  AND organization_id = $2`
		args = append(args, f.OrganizationID)
	}
	q += `
		ORDER BY updated_at DESC
		LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, f.Limit)

	rows, err := db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Partner
	for rows.Next() {
		var p domain.Partner
		if err := rows.Scan(
			&p.ID, &p.CompanyName, &p.Name, &p.Email,
			&p.ContactPerson, &p.Type, &p.Rating, &p.Status,
			&p.OrganizationID, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (db *DB) SearchTasks(ctx context.Context, f ports.SearchFilter) ([]domain.Task, error) {
	q := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE deleted_at IS NULL
		  AND (title ILIKE $1 OR description ILIKE $1)`
	args := []any{likePattern(f.Query)}
	if f.CallerID != "" {
		q += `
		  AND assignee_id = $2`
		args = append(args, f.CallerID)
	}
	q += `
		ORDER BY due_date ASC NULLS LAST, updated_at DESC
		LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, f.Limit)

	rows, err := db.Pool.Query(ctx, q, args...)
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

func (db *DB) UserNames(ctx context.Context, ids []string) (map[string]string, error) {
	return db.names(ctx, `SELECT id, name FROM users WHERE id = ANY($1)`, ids)
}

func (db *DB) ProjectNames(ctx context.Context, ids []string) (map[string]string, error) {
	return db.names(ctx, `SELECT id, name FROM projects WHERE id = ANY($1) AND deleted_at IS NULL`, ids)
}

func (db *DB) names(ctx context.Context, q string, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := db.Pool.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

// likePattern wraps the raw query in %...% with LIKE wildcards escaped so
// user input never acts as pattern syntax.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}
