package chi

import (
	"net/http"

	"github.com/kailas-cloud/knowhub/internal/domain"
	qauc "github.com/kailas-cloud/knowhub/internal/usecase/qa"
)

// AskQuestion handles POST /api/ai/qa.
func (s *Server) AskQuestion(w http.ResponseWriter, r *http.Request) {
	var body qaRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	answer, err := s.qa.Ask(ctx, qauc.Request{Question: body.Question, IncludeDeleted: body.IncludeDeleted})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, answerToJSON(&answer, s.now()))
}

// AIStats handles GET /api/ai/stats.
func (s *Server) AIStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.analytics.AIStats(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, aiStatsResponse{
		Overview: overviewToJSON(stats.Overview),
		TopTags:  tagsToJSON(stats.TopTags),
	})
}
