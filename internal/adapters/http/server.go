package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"atrium/internal/domain"
	"atrium/internal/ports"
	"atrium/internal/services/health"
	"atrium/internal/services/search"
)

// HealthService is the slice of the health score engine the HTTP layer uses.
type HealthService interface {
	Calculate(ctx context.Context, projectID string) (health.Breakdown, error)
	UpdateScore(ctx context.Context, projectID string) (domain.Project, error)
	UpdateAll(ctx context.Context) (health.BatchResult, error)
	Statistics(ctx context.Context) (health.Statistics, error)
	ListScores(ctx context.Context) ([]health.ProjectScore, error)
}

// SearchService runs scoped relevance-ranked searches.
type SearchService interface {
	Search(ctx context.Context, p search.Params) (search.Results, error)
}

type Server struct {
	health HealthService
	search SearchService
	log    *slog.Logger
}

func New(health HealthService, search SearchService, log *slog.Logger) *Server {
	return &Server{health: health, search: search, log: log}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.healthz)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/projects/{id}/health-score", s.getProjectScore)
		r.Post("/projects/{id}/health-score/recompute", s.recomputeProjectScore)
		r.Get("/health-scores", s.listScores)
		r.Get("/health-scores/statistics", s.statistics)
		r.Post("/health-scores/recompute", s.recomputeAll)
		r.Get("/search", s.doSearch)
	})
	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getProjectScore(w http.ResponseWriter, r *http.Request) {
	b, err := s.health.Calculate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

// projectResponse is the slim view returned after a score write.
type projectResponse struct {
	ProjectID   string `json:"projectId"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	HealthScore int    `json:"healthScore"`
}

func (s *Server) recomputeProjectScore(w http.ResponseWriter, r *http.Request) {
	p, err := s.health.UpdateScore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, projectResponse{
		ProjectID:   p.ID,
		Name:        p.Name,
		Status:      string(p.Status),
		HealthScore: p.HealthScore,
	})
}

func (s *Server) recomputeAll(w http.ResponseWriter, r *http.Request) {
	res, err := s.health.UpdateAll(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) listScores(w http.ResponseWriter, r *http.Request) {
	scores, err := s.health.ListScores(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if scores == nil {
		scores = []health.ProjectScore{}
	}
	s.writeJSON(w, http.StatusOK, scores)
}

func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	st, err := s.health.Statistics(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

// doSearch reads the caller identity from headers set by the auth proxy.
// Authentication itself is not this service's concern.
func (s *Server) doSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	res, err := s.search.Search(r.Context(), search.Params{
		Query:          q.Get("q"),
		Scope:          search.Scope(q.Get("scope")),
		Limit:          limit,
		CallerID:       r.Header.Get("X-User-Id"),
		Role:           domain.Role(r.Header.Get("X-User-Role")),
		OrganizationID: r.Header.Get("X-Organization-Id"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ports.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.log.Error("request failed", slog.String("error", err.Error()))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
