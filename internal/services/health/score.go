package health

import (
	"math"
	"time"

	"atrium/internal/domain"
	"atrium/internal/ports"
)

// Weight constants for the composite health score formula. They must sum
// to 100.
const (
	weightOnTime     = 50
	weightCompletion = 30
	weightBudget     = 20
)

// Details carries the raw inputs a breakdown was computed from, for
// auditability.
type Details struct {
	TotalTasks           int     `json:"totalTasks"`
	CompletedTasks       int     `json:"completedTasks"`
	OnTimeCompletedTasks int     `json:"onTimeCompletedTasks"`
	Budget               float64 `json:"budget"`
	ActualCost           float64 `json:"actualCost"`
}

// Breakdown is the result of a health score calculation. The three rates are
// percentages in [0,100]; TotalScore is their weighted composite rounded to
// an integer.
type Breakdown struct {
	OnTimeRate     float64 `json:"onTimeRate"`
	CompletionRate float64 `json:"completionRate"`
	BudgetHealth   float64 `json:"budgetHealth"`
	TotalScore     int     `json:"totalScore"`
	Details        Details `json:"details"`
}

// Compute calculates a project's health breakdown from its task aggregates
// and budget figures.
//
// Formula:
//
//	onTime     = onTimeCompleted / completed * 100   (100 when completed == 0)
//	completion = completed / total * 100             (100 when total == 0)
//	budget     = clamp((budget - actualCost) / budget * 100, 0, 100)
//	                                                 (100 when budget <= 0)
//	total      = round(clamp((50*onTime + 30*completion + 20*budget) / 100, 0, 100))
func Compute(counts ports.TaskCounts, budget, actualCost float64) Breakdown {
	onTime := 100.0
	if counts.Completed > 0 {
		onTime = float64(counts.OnTime) / float64(counts.Completed) * 100
	}

	completion := 100.0
	if counts.Total > 0 {
		completion = float64(counts.Completed) / float64(counts.Total) * 100
	}

	budgetHealth := 100.0
	if budget > 0 {
		budgetHealth = clamp((budget-actualCost)/budget*100, 0, 100)
	}

	total := clamp((weightOnTime*onTime+weightCompletion*completion+weightBudget*budgetHealth)/100, 0, 100)

	return Breakdown{
		OnTimeRate:     onTime,
		CompletionRate: completion,
		BudgetHealth:   budgetHealth,
		TotalScore:     int(math.Round(total)),
		Details: Details{
			TotalTasks:           counts.Total,
			CompletedTasks:       counts.Completed,
			OnTimeCompletedTasks: counts.OnTime,
			Budget:               budget,
			ActualCost:           actualCost,
		},
	}
}

// CountTasks derives the scoring aggregate from raw task rows. It mirrors the
// grouped SQL aggregate used on batch paths.
func CountTasks(tasks []domain.Task) ports.TaskCounts {
	var c ports.TaskCounts
	for _, t := range tasks {
		c.Total++
		if t.Status != domain.TaskCompleted {
			continue
		}
		c.Completed++
		if CompletedOnTime(t) {
			c.OnTime++
		}
	}
	return c
}

// CompletedOnTime reports whether a completed task finished on or before its
// due date. Tasks without a due date count as on time; the due date is
// compared at end of day.
func CompletedOnTime(t domain.Task) bool {
	if t.DueDate == nil {
		return true
	}
	if t.CompletedAt == nil {
		return false
	}
	return !t.CompletedAt.After(endOfDay(*t.DueDate))
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
