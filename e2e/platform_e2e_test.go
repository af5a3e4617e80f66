//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	pg "atrium/internal/adapters/postgres"
	"atrium/internal/domain"
	healthsvc "atrium/internal/services/health"
	searchsvc "atrium/internal/services/search"
)

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "pass",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(90 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	host, err := pgC.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return fmt.Sprintf("postgres://test:pass@%s:%s/testdb?sslmode=disable", host, port.Port())
}

func seed(t *testing.T, ctx context.Context, db *pg.DB) {
	t.Helper()

	stmts := []string{
		`INSERT INTO users (id, name) VALUES ('u1', 'Ada'), ('u2', 'Grace')`,
		`INSERT INTO projects (id, name, description, status, budget, actual_cost, owner_id, created_by, organization_id)
		 VALUES ('p1', 'Alpha', 'Flagship rollout', 'in_progress', 1000, 200, 'u1', 'u1', 'o1')`,
		`INSERT INTO projects (id, name, status, health_score, created_by, organization_id)
		 VALUES ('p2', 'Alpha Archive', 'completed', 42, 'u2', 'o1')`,
		`INSERT INTO partners (id, company_name, name, email, organization_id)
		 VALUES ('pa1', 'Alpha Logistics', 'Alpha', 'ops@alpha-logistics.com', 'o1')`,
	}
	// p1: 10 tasks, 6 completed, 5 of those on time.
	for i := 0; i < 4; i++ {
		stmts = append(stmts, fmt.Sprintf(
			`INSERT INTO tasks (id, project_id, title, status, assignee_id)
			 VALUES ('open%d', 'p1', 'Open task %d', 'todo', 'u1')`, i, i))
	}
	for i := 0; i < 5; i++ {
		stmts = append(stmts, fmt.Sprintf(
			`INSERT INTO tasks (id, project_id, title, status, due_date, completed_at, assignee_id)
			 VALUES ('ontime%d', 'p1', 'Done task %d', 'completed', '2026-01-10', '2026-01-10T18:00:00Z', 'u1')`, i, i))
	}
	stmts = append(stmts,
		`INSERT INTO tasks (id, project_id, title, status, due_date, completed_at, assignee_id)
		 VALUES ('late0', 'p1', 'Late task', 'completed', '2026-01-10', '2026-01-13T08:00:00Z', 'u2')`)

	for _, s := range stmts {
		if _, err := db.Pool.Exec(ctx, s); err != nil {
			t.Fatalf("seed: %v\n%s", err, s)
		}
	}
}

func TestHealthScoreAndSearch_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	ctx := context.Background()
	url := startPostgres(t, ctx)

	if err := pg.Migrate(ctx, url); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := pg.Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(db.Close)
	seed(t, ctx, db)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	scorer := healthsvc.New(db, db, log)
	searcher := searchsvc.New(db, log)

	t.Run("score is computed and persisted", func(t *testing.T) {
		p, err := scorer.UpdateScore(ctx, "p1")
		if err != nil {
			t.Fatalf("UpdateScore: %v", err)
		}
		// onTime 5/6, completion 6/10, budget 80% → 76 (see service tests).
		if p.HealthScore != 76 {
			t.Errorf("HealthScore = %d, want 76", p.HealthScore)
		}

		again, err := scorer.UpdateScore(ctx, "p1")
		if err != nil {
			t.Fatalf("UpdateScore again: %v", err)
		}
		if again.HealthScore != 76 {
			t.Errorf("recompute changed the score: %d", again.HealthScore)
		}
	})

	t.Run("completed project keeps its frozen score", func(t *testing.T) {
		b, err := scorer.Calculate(ctx, "p2")
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}
		if b.TotalScore != 42 {
			t.Errorf("TotalScore = %d, want frozen 42", b.TotalScore)
		}
	})

	t.Run("batch update covers scorable projects", func(t *testing.T) {
		res, err := scorer.UpdateAll(ctx)
		if err != nil {
			t.Fatalf("UpdateAll: %v", err)
		}
		if res.TotalProjects != 1 || res.UpdatedProjects != 1 || len(res.Errors) != 0 {
			t.Errorf("batch result = %+v, want 1/1/0", res)
		}
	})

	t.Run("admin search sees all entity kinds", func(t *testing.T) {
		res, err := searcher.Search(ctx, searchsvc.Params{
			Query: "Alpha", Role: domain.RoleAdmin, OrganizationID: "o1",
		})
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(res.Projects) != 2 {
			t.Errorf("projects = %d, want 2", len(res.Projects))
		}
		if len(res.Partners) != 1 {
			t.Errorf("partners = %d, want 1", len(res.Partners))
		}
		if res.Total != len(res.Projects)+len(res.Partners)+len(res.Tasks) {
			t.Errorf("Total = %d, inconsistent with slices", res.Total)
		}
	})

	t.Run("non-privileged search is ownership-scoped", func(t *testing.T) {
		res, err := searcher.Search(ctx, searchsvc.Params{
			Query: "task", Scope: searchsvc.ScopeTasks,
			CallerID: "u2", Role: domain.RoleMember,
		})
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(res.Tasks) != 1 || res.Tasks[0].ID != "late0" {
			t.Errorf("tasks = %+v, want only u2's task", res.Tasks)
		}
	})
}
