package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/net/publicsuffix"

	"atrium/internal/domain"
	"atrium/internal/ports"
)

// Scope selects which entity kinds a search covers.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeProjects Scope = "projects"
	ScopePartners Scope = "partners"
	ScopeTasks    Scope = "tasks"
)

const (
	// DefaultLimit caps each entity's result list when the caller does not
	// ask for a specific limit.
	DefaultLimit = 10

	maxDescriptionLen = 200
)

// Params describes one search request.
type Params struct {
	Query          string
	Scope          Scope
	Limit          int
	CallerID       string
	Role           domain.Role
	OrganizationID string
}

// Item is one ranked search hit.
type Item struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      string         `json:"status,omitempty"`
	Relevance   int            `json:"relevance"`
	Metadata    map[string]any `json:"metadata"`
}

// Results groups hits per entity kind. Unused scopes hold empty slices, not
// nil, so they serialize as [].
type Results struct {
	Projects []Item `json:"projects"`
	Partners []Item `json:"partners"`
	Tasks    []Item `json:"tasks"`
	Total    int    `json:"total"`
}

// Service runs scoped substring searches and annotates hits with a relevance
// score. Stateless; visibility rules are pushed down into the repository
// queries.
type Service struct {
	repo ports.SearchRepository
	log  *slog.Logger
}

func New(repo ports.SearchRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Search executes the query against every entity kind the scope covers.
// Non-privileged callers only see rows they own or are assigned to; the
// partner search is additionally scoped to the caller's organization when
// one is supplied.
func (s *Service) Search(ctx context.Context, p Params) (Results, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	scope := p.Scope
	if scope == "" {
		scope = ScopeAll
	}
	caller := ""
	if !p.Role.Privileged() {
		caller = p.CallerID
	}

	s.log.Debug("search",
		slog.String("query", p.Query),
		slog.String("scope", string(scope)),
		slog.Int("limit", limit))

	res := Results{Projects: []Item{}, Partners: []Item{}, Tasks: []Item{}}

	if scope == ScopeAll || scope == ScopeProjects {
		rows, err := s.repo.SearchProjects(ctx, ports.SearchFilter{Query: p.Query, Limit: limit, CallerID: caller})
		if err != nil {
			return Results{}, fmt.Errorf("search projects: %w", err)
		}
		res.Projects, err = s.projectItems(ctx, p.Query, rows)
		if err != nil {
			return Results{}, err
		}
	}

	if scope == ScopeAll || scope == ScopePartners {
		rows, err := s.repo.SearchPartners(ctx, ports.SearchFilter{Query: p.Query, Limit: limit, OrganizationID: p.OrganizationID})
		if err != nil {
			return Results{}, fmt.Errorf("search partners: %w", err)
		}
		res.Partners = partnerItems(p.Query, rows)
	}

	if scope == ScopeAll || scope == ScopeTasks {
		rows, err := s.repo.SearchTasks(ctx, ports.SearchFilter{Query: p.Query, Limit: limit, CallerID: caller})
		if err != nil {
			return Results{}, fmt.Errorf("search tasks: %w", err)
		}
		res.Tasks, err = s.taskItems(ctx, p.Query, rows)
		if err != nil {
			return Results{}, err
		}
	}

	res.Total = len(res.Projects) + len(res.Partners) + len(res.Tasks)
	return res, nil
}

func (s *Service) projectItems(ctx context.Context, query string, rows []domain.Project) ([]Item, error) {
	var userIDs []string
	for _, r := range rows {
		if r.OwnerID != nil {
			userIDs = append(userIDs, *r.OwnerID)
		}
		if r.ManagerID != nil {
			userIDs = append(userIDs, *r.ManagerID)
		}
	}
	names, err := s.userNames(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		md := map[string]any{
			"progress":    r.Progress,
			"healthScore": r.HealthScore,
		}
		if r.OwnerID != nil {
			md["ownerId"] = *r.OwnerID
			if n, ok := names[*r.OwnerID]; ok {
				md["ownerName"] = n
			}
		}
		if r.ManagerID != nil {
			md["managerId"] = *r.ManagerID
			if n, ok := names[*r.ManagerID]; ok {
				md["managerName"] = n
			}
		}
		items = append(items, Item{
			ID:          r.ID,
			Type:        "project",
			Name:        r.Name,
			Description: truncate(r.Description, maxDescriptionLen),
			Status:      string(r.Status),
			Relevance:   Score(query, r.Name, r.Description),
			Metadata:    md,
		})
	}
	return items, nil
}

func partnerItems(query string, rows []domain.Partner) []Item {
	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		md := map[string]any{
			"email":         r.Email,
			"contactPerson": r.ContactPerson,
			"companyName":   r.CompanyName,
			"type":          r.Type,
			"rating":        r.Rating,
		}
		if d := companyDomain(r.Email); d != "" {
			md["companyDomain"] = d
		}
		name := r.CompanyName
		if name == "" {
			name = r.Name
		}
		items = append(items, Item{
			ID:        r.ID,
			Type:      "partner",
			Name:      name,
			Status:    r.Status,
			Relevance: Score(query, r.CompanyName, r.Name, r.Email),
			Metadata:  md,
		})
	}
	return items
}

func (s *Service) taskItems(ctx context.Context, query string, rows []domain.Task) ([]Item, error) {
	var userIDs, projIDs []string
	for _, r := range rows {
		if r.AssigneeID != nil {
			userIDs = append(userIDs, *r.AssigneeID)
		}
		if r.ProjectID != nil {
			projIDs = append(projIDs, *r.ProjectID)
		}
	}
	names, err := s.userNames(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	projects := map[string]string{}
	if len(projIDs) > 0 {
		projects, err = s.repo.ProjectNames(ctx, projIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve project names: %w", err)
		}
	}

	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		md := map[string]any{}
		if r.ProjectID != nil {
			md["projectId"] = *r.ProjectID
			if n, ok := projects[*r.ProjectID]; ok {
				md["projectName"] = n
			}
		}
		if r.AssigneeID != nil {
			md["assigneeId"] = *r.AssigneeID
			if n, ok := names[*r.AssigneeID]; ok {
				md["assigneeName"] = n
			}
		}
		if r.DueDate != nil {
			md["dueDate"] = r.DueDate.Format("2006-01-02")
		}
		if r.Priority != "" {
			md["priority"] = r.Priority
		}
		items = append(items, Item{
			ID:          r.ID,
			Type:        "task",
			Name:        r.Title,
			Description: truncate(r.Description, maxDescriptionLen),
			Status:      string(r.Status),
			Relevance:   Score(query, r.Title, r.Description),
			Metadata:    md,
		})
	}
	return items, nil
}

func (s *Service) userNames(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	m, err := s.repo.UserNames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve user names: %w", err)
	}
	return m, nil
}

// companyDomain derives the registrable domain (eTLD+1) from a partner's
// email host, for the metadata bag.
func companyDomain(email string) string {
	_, host, ok := strings.Cut(email, "@")
	if !ok || host == "" {
		return ""
	}
	d, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(host))
	if err != nil {
		return ""
	}
	return d
}
