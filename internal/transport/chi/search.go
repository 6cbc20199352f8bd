package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
	"github.com/kailas-cloud/knowhub/internal/domain/search/mode"
	"github.com/kailas-cloud/knowhub/internal/domain/search/request"
	"github.com/kailas-cloud/knowhub/internal/domain/search/result"
)

// TextSearch handles GET /api/search/text.
func (s *Server) TextSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := s.searchRequestFromQuery(w, r, mode.Text)
	if !ok {
		return
	}
	s.runSearch(w, r, &req)
}

// SemanticSearch handles GET /api/search/semantic.
func (s *Server) SemanticSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := s.searchRequestFromQuery(w, r, mode.Semantic)
	if !ok {
		return
	}
	s.runSearch(w, r, &req)
}

// AdvancedSearch handles POST /api/search/advanced.
func (s *Server) AdvancedSearch(w http.ResponseWriter, r *http.Request) {
	var body advancedRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	f := filter.Filter{
		Tags:     body.Tags,
		Author:   body.Author,
		DateFrom: body.DateFrom,
		DateTo:   body.DateTo,
	}
	req, err := request.New(body.Query, mode.Advanced, body.SearchType, f, body.Page, body.Limit, body.Threshold)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	s.runSearch(w, r, &req)
}

// HighlightSearch handles GET /api/search/highlight.
func (s *Server) HighlightSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := s.searchRequestFromQuery(w, r, mode.Text)
	if !ok {
		return
	}
	page, err := s.search.Highlight(r.Context(), &req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchPageToJSON(&req, &page))
}

// SimilarDocuments handles GET /api/search/similar/{id}.
func (s *Server) SimilarDocuments(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	threshold, err := queryFloat(r, "threshold")
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	req, err := request.NewSimilar(chi.URLParam(r, "id"), limit, threshold)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	out, err := s.search.Similar(r.Context(), &req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, similarResponse{
		ReferenceDocument: referenceJSON{ID: out.Reference.ID(), Title: out.Reference.Title()},
		SimilarDocuments:  resultsToJSON(out.Items, true, true),
		Count:             len(out.Items),
	})
}

// Suggestions handles GET /api/search/suggestions.
func (s *Server) Suggestions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	req, err := request.NewSuggest(r.URL.Query().Get("query"), limit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	out, err := s.search.Suggest(r.Context(), &req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestionsToJSON(out))
}

// Tags handles GET /api/search/tags.
func (s *Server) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.search.Tags(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tagsResponse{Tags: tagsToJSON(tags)})
}

// Analytics handles GET /api/search/analytics.
func (s *Server) Analytics(w http.ResponseWriter, r *http.Request) {
	report, err := s.analytics.Report(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportToJSON(&report))
}

func (s *Server) searchRequestFromQuery(w http.ResponseWriter, r *http.Request, m mode.Mode) (request.Request, bool) {
	page, err := queryInt(r, "page")
	if err != nil {
		handleDomainError(w, r, err)
		return request.Request{}, false
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleDomainError(w, r, err)
		return request.Request{}, false
	}
	threshold, err := queryFloat(r, "threshold")
	if err != nil {
		handleDomainError(w, r, err)
		return request.Request{}, false
	}

	f := filter.Filter{Tags: queryList(r, "tags")}
	req, err := request.New(r.URL.Query().Get("query"), m, "", f, page, limit, threshold)
	if err != nil {
		handleDomainError(w, r, err)
		return request.Request{}, false
	}
	return req, true
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, req *request.Request) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	page, err := s.search.Search(ctx, req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchPageToJSON(req, &page))
}

func searchPageToJSON(req *request.Request, page *result.Page) searchResponse {
	semantic := req.SearchType() == mode.Semantic && req.Query() != ""
	resp := searchResponse{
		Documents:    resultsToJSON(page.Items, req.Query() != "", semantic),
		Mode:         req.Mode(),
		Query:        req.Query(),
		Filters:      filtersToJSON(req.Query(), req.Filters()),
		Count:        len(page.Items),
		TotalResults: page.TotalItems,
		Pagination:   paginationToJSON(page.Pagination),
	}
	if req.Mode() == mode.Advanced {
		resp.SearchType = req.SearchType()
	}
	if t, ok := req.Threshold(); semantic && ok {
		resp.Threshold = &t
	}
	return resp
}
