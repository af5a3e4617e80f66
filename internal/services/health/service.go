package health

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"atrium/internal/domain"
	"atrium/internal/ports"
)

// Service computes and persists project health scores. It is stateless;
// every call reads through the repositories.
type Service struct {
	projects ports.ProjectRepository
	tasks    ports.TaskRepository
	log      *slog.Logger
}

func New(projects ports.ProjectRepository, tasks ports.TaskRepository, log *slog.Logger) *Service {
	return &Service{projects: projects, tasks: tasks, log: log}
}

// Calculate computes a project's health breakdown without persisting it.
//
// Draft and planning projects short-circuit to an all-zero breakdown;
// completed and cancelled projects report 100/100/100 with the total frozen
// to the stored score. Everything else is computed from live task data.
func (s *Service) Calculate(ctx context.Context, projectID string) (Breakdown, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return Breakdown{}, fmt.Errorf("project %s: %w", projectID, err)
	}
	return s.breakdownFor(ctx, p)
}

func (s *Service) breakdownFor(ctx context.Context, p domain.Project) (Breakdown, error) {
	switch {
	case p.Status.Preliminary():
		return Breakdown{Details: Details{Budget: p.Budget, ActualCost: p.ActualCost}}, nil
	case p.Status.Finished():
		return Breakdown{
			OnTimeRate:     100,
			CompletionRate: 100,
			BudgetHealth:   100,
			TotalScore:     p.HealthScore,
			Details:        Details{Budget: p.Budget, ActualCost: p.ActualCost},
		}, nil
	}
	tasks, err := s.tasks.ListForProject(ctx, p.ID)
	if err != nil {
		return Breakdown{}, fmt.Errorf("project %s: list tasks: %w", p.ID, err)
	}
	return Compute(CountTasks(tasks), p.Budget, p.ActualCost), nil
}

// UpdateScore computes the breakdown and persists the total into the
// project's health score. Idempotent while the underlying inputs are
// unchanged. Returns the refreshed project.
func (s *Service) UpdateScore(ctx context.Context, projectID string) (domain.Project, error) {
	b, err := s.Calculate(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	p, err := s.projects.SetHealthScore(ctx, projectID, b.TotalScore)
	if err != nil {
		return domain.Project{}, fmt.Errorf("project %s: persist score: %w", projectID, err)
	}
	return p, nil
}

// OnTaskChanged recomputes a project's score after one of its tasks was
// created, updated, deleted or restored. Best effort: failures are logged
// and swallowed so the task mutation never fails because of a scoring side
// effect.
func (s *Service) OnTaskChanged(ctx context.Context, projectID string) {
	if _, err := s.UpdateScore(ctx, projectID); err != nil {
		s.log.Warn("health score refresh failed",
			slog.String("project_id", projectID),
			slog.String("error", err.Error()))
	}
}

type BatchError struct {
	ProjectID string `json:"projectId"`
	Message   string `json:"message"`
}

type BatchResult struct {
	TotalProjects   int          `json:"totalProjects"`
	UpdatedProjects int          `json:"updatedProjects"`
	Errors          []BatchError `json:"errors"`
}

// UpdateAll recomputes and persists scores for every scorable project.
// Task aggregates come from a single grouped query; a failing project is
// logged and recorded without aborting the rest of the batch.
func (s *Service) UpdateAll(ctx context.Context) (BatchResult, error) {
	list, err := s.projects.ListScorable(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list scorable projects: %w", err)
	}
	res := BatchResult{TotalProjects: len(list), Errors: []BatchError{}}
	if len(list) == 0 {
		return res, nil
	}

	counts, err := s.tasks.CountsByProject(ctx, projectIDs(list))
	if err != nil {
		return BatchResult{}, fmt.Errorf("aggregate task counts: %w", err)
	}

	for _, p := range list {
		b := Compute(counts[p.ID], p.Budget, p.ActualCost)
		if _, err := s.projects.SetHealthScore(ctx, p.ID, b.TotalScore); err != nil {
			s.log.Error("health score update failed",
				slog.String("project_id", p.ID),
				slog.String("error", err.Error()))
			res.Errors = append(res.Errors, BatchError{ProjectID: p.ID, Message: err.Error()})
			continue
		}
		res.UpdatedProjects++
	}
	return res, nil
}

type Distribution struct {
	Excellent int `json:"excellent"` // 80-100
	Good      int `json:"good"`      // 60-79
	Fair      int `json:"fair"`      // 40-59
	Poor      int `json:"poor"`      // 0-39
}

type Statistics struct {
	AverageScore          float64      `json:"averageScore"`
	ScoreDistribution     Distribution `json:"scoreDistribution"`
	ProjectsAtRisk        int          `json:"projectsAtRisk"`
	TotalProjects         int          `json:"totalProjects"`
	AverageOnTimeRate     float64      `json:"averageOnTimeRate"`
	AverageCompletionRate float64      `json:"averageCompletionRate"`
	AverageBudgetHealth   float64      `json:"averageBudgetHealth"`
}

// Statistics aggregates health breakdowns across all projects that are not
// completed or cancelled. With no eligible projects it returns an all-zero
// result rather than an error.
func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	list, err := s.projects.ListOpen(ctx)
	if err != nil {
		return Statistics{}, fmt.Errorf("list open projects: %w", err)
	}
	if len(list) == 0 {
		return Statistics{}, nil
	}

	breakdowns, err := s.breakdowns(ctx, list)
	if err != nil {
		return Statistics{}, err
	}

	st := Statistics{TotalProjects: len(list)}
	var sumScore, sumOnTime, sumCompletion, sumBudget float64
	for _, b := range breakdowns {
		sumScore += float64(b.TotalScore)
		sumOnTime += b.OnTimeRate
		sumCompletion += b.CompletionRate
		sumBudget += b.BudgetHealth

		switch {
		case b.TotalScore >= 80:
			st.ScoreDistribution.Excellent++
		case b.TotalScore >= 60:
			st.ScoreDistribution.Good++
		case b.TotalScore >= 40:
			st.ScoreDistribution.Fair++
		default:
			st.ScoreDistribution.Poor++
		}
		if b.TotalScore < 50 {
			st.ProjectsAtRisk++
		}
	}
	n := float64(len(list))
	st.AverageScore = sumScore / n
	st.AverageOnTimeRate = sumOnTime / n
	st.AverageCompletionRate = sumCompletion / n
	st.AverageBudgetHealth = sumBudget / n
	return st, nil
}

type ProjectScore struct {
	ProjectID   string    `json:"projectId"`
	ProjectName string    `json:"projectName"`
	HealthScore int       `json:"healthScore"`
	Breakdown   Breakdown `json:"breakdown"`
}

// ListScores returns the computed breakdown for every project not completed
// or cancelled, worst score first.
func (s *Service) ListScores(ctx context.Context) ([]ProjectScore, error) {
	list, err := s.projects.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open projects: %w", err)
	}
	breakdowns, err := s.breakdowns(ctx, list)
	if err != nil {
		return nil, err
	}

	out := make([]ProjectScore, len(list))
	for i, p := range list {
		out[i] = ProjectScore{
			ProjectID:   p.ID,
			ProjectName: p.Name,
			HealthScore: breakdowns[i].TotalScore,
			Breakdown:   breakdowns[i],
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].HealthScore < out[j].HealthScore })
	return out, nil
}

// breakdowns computes per-project breakdowns for a listing using one grouped
// counts query instead of one task query per project.
func (s *Service) breakdowns(ctx context.Context, list []domain.Project) ([]Breakdown, error) {
	var scorable []string
	for _, p := range list {
		if !p.Status.Preliminary() && !p.Status.Finished() {
			scorable = append(scorable, p.ID)
		}
	}
	counts := map[string]ports.TaskCounts{}
	if len(scorable) > 0 {
		var err error
		counts, err = s.tasks.CountsByProject(ctx, scorable)
		if err != nil {
			return nil, fmt.Errorf("aggregate task counts: %w", err)
		}
	}

	out := make([]Breakdown, len(list))
	for i, p := range list {
		switch {
		case p.Status.Preliminary():
			out[i] = Breakdown{Details: Details{Budget: p.Budget, ActualCost: p.ActualCost}}
		case p.Status.Finished():
			out[i] = Breakdown{
				OnTimeRate:     100,
				CompletionRate: 100,
				BudgetHealth:   100,
				TotalScore:     p.HealthScore,
				Details:        Details{Budget: p.Budget, ActualCost: p.ActualCost},
			}
		default:
			out[i] = Compute(counts[p.ID], p.Budget, p.ActualCost)
		}
	}
	return out, nil
}

func projectIDs(list []domain.Project) []string {
	ids := make([]string, len(list))
	for i, p := range list {
		ids[i] = p.ID
	}
	return ids
}
