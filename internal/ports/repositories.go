package ports

import (
	"context"

	"atrium/internal/domain"
)

// ErrNotFound is returned by repositories when a looked-up row does not exist.
var ErrNotFound = errString("not found")

type errString string

func (e errString) Error() string { return string(e) }

// ProjectRepository reads projects and persists computed health scores.
type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (domain.Project, error)
	// ListScorable returns projects whose score is recomputed from live task
	// data, i.e. status not in {draft, planning, completed, cancelled}.
	ListScorable(ctx context.Context) ([]domain.Project, error)
	// ListOpen returns projects not in {completed, cancelled}.
	ListOpen(ctx context.Context) ([]domain.Project, error)
	SetHealthScore(ctx context.Context, id string, score int) (domain.Project, error)
}

// TaskCounts is the per-project aggregate the health score formula consumes.
type TaskCounts struct {
	Total     int
	Completed int
	OnTime    int
}

// TaskRepository reads tasks for scoring.
type TaskRepository interface {
	ListForProject(ctx context.Context, projectID string) ([]domain.Task, error)
	// CountsByProject returns aggregates for all given projects in a single
	// grouped query. Projects without tasks are absent from the map. Batch
	// callers must use this rather than ListForProject per project.
	CountsByProject(ctx context.Context, projectIDs []string) (map[string]TaskCounts, error)
}

// SearchFilter carries the common predicate parts of an entity search query.
type SearchFilter struct {
	// Query is the raw user query; adapters escape it before building
	// pattern matches.
	Query string
	Limit int
	// CallerID restricts results to rows the caller owns or is assigned to.
	// Empty means no ownership filter (privileged caller).
	CallerID string
	// OrganizationID scopes partner lookups. Empty means unscoped.
	OrganizationID string
}

// SearchRepository runs the per-entity substring queries and the batched
// relation lookups used to denormalize search results.
type SearchRepository interface {
	SearchProjects(ctx context.Context, f SearchFilter) ([]domain.Project, error)
	SearchPartners(ctx context.Context, f SearchFilter) ([]domain.Partner, error)
	SearchTasks(ctx context.Context, f SearchFilter) ([]domain.Task, error)
	UserNames(ctx context.Context, ids []string) (map[string]string, error)
	ProjectNames(ctx context.Context, ids []string) (map[string]string, error)
}
