package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kailas-cloud/knowhub/internal/domain"
	analyticsuc "github.com/kailas-cloud/knowhub/internal/usecase/analytics"
	documentuc "github.com/kailas-cloud/knowhub/internal/usecase/document"
	healthuc "github.com/kailas-cloud/knowhub/internal/usecase/health"
	qauc "github.com/kailas-cloud/knowhub/internal/usecase/qa"
	searchuc "github.com/kailas-cloud/knowhub/internal/usecase/search"
	"github.com/kailas-cloud/knowhub/internal/version"
)

// maxBodyBytes caps JSON request bodies; document content is bounded well below it.
const maxBodyBytes = 1 << 20

// Server holds the HTTP handlers of the knowhub API.
type Server struct {
	search    *searchuc.Service
	documents *documentuc.Service
	analytics *analyticsuc.Service
	qa        *qauc.Service
	health    *healthuc.Service
	now       func() time.Time
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	documents *documentuc.Service,
	analytics *analyticsuc.Service,
	qa *qauc.Service,
	health *healthuc.Service,
) *Server {
	return &Server{
		search:    search,
		documents: documents,
		analytics: analytics,
		qa:        qa,
		health:    health,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register mounts all API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/search", func(r chi.Router) {
		r.Get("/text", s.TextSearch)
		r.Get("/semantic", s.SemanticSearch)
		r.Post("/advanced", s.AdvancedSearch)
		r.Get("/highlight", s.HighlightSearch)
		r.Get("/similar/{id}", s.SimilarDocuments)
		r.Get("/suggestions", s.Suggestions)
		r.Get("/tags", s.Tags)
		r.Get("/analytics", s.Analytics)
	})

	r.Route("/api/documents", func(r chi.Router) {
		r.Get("/", s.ListDocuments)
		r.Post("/", s.CreateDocument)
		r.Get("/activity", s.RecentActivity)
		r.Get("/{id}", s.GetDocument)
		r.Put("/{id}", s.UpdateDocument)
		r.Delete("/{id}", s.DeleteDocument)
	})

	r.Route("/api/ai", func(r chi.Router) {
		r.Post("/qa", s.AskQuestion)
		r.Get("/stats", s.AIStats)
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{
		Status:    report.Status,
		Checks:    report.Checks,
		Documents: report.Documents,
		Version:   version.Version,
	})
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// queryInt reads an optional integer query parameter; absent yields 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidRequest, name)
	}
	return v, nil
}

// queryFloat reads an optional float query parameter; absent yields nil.
func queryFloat(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidRequest, name)
	}
	return &v, nil
}

// queryList splits a comma-separated query parameter, dropping blanks.
func queryList(r *http.Request, name string) []string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func editorFrom(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(UserIDHeader))
}
