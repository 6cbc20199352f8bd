package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/domain/document/patch"
	documentuc "github.com/kailas-cloud/knowhub/internal/usecase/document"
)

// ListDocuments handles GET /api/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	out, err := s.documents.List(r.Context(), page, limit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentListResponse{
		Documents:  resultsToJSON(out.Items, false, false),
		Total:      out.TotalItems,
		Pagination: paginationToJSON(out.Pagination),
	})
}

// RecentActivity handles GET /api/documents/activity.
func (s *Server) RecentActivity(w http.ResponseWriter, r *http.Request) {
	items, err := s.documents.Recent(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activityResponse{RecentActivity: resultsToJSON(items, false, false)})
}

// GetDocument handles GET /api/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	res, err := s.documents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{Document: resultToJSON(&res, false, false, true)})
}

// CreateDocument handles POST /api/documents.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var body createDocumentRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.documents.Create(ctx, documentuc.CreateInput{
		Title:   body.Title,
		Content: body.Content,
		Summary: body.Summary,
		Tags:    body.Tags,
	}, editorFrom(r))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusCreated, documentResponse{Document: resultToJSON(&res, false, false, true)})
}

// UpdateDocument handles PUT /api/documents/{id}. Absent fields are left unchanged.
func (s *Server) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	var body updateDocumentRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	p, err := patch.New(body.Title, body.Content, body.Summary, body.Tags)
	if err != nil {
		handleDomainError(w, r, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err))
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.documents.Update(ctx, chi.URLParam(r, "id"), p, editorFrom(r))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, documentResponse{Document: resultToJSON(&res, false, false, true)})
}

// DeleteDocument handles DELETE /api/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), chi.URLParam(r, "id"), editorFrom(r)); err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Document deleted successfully"})
}
