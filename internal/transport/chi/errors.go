package chi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/logger"
)

// ErrorCode is the machine-readable error kind in an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeQueryRequired          ErrorCode = "query_required"
	CodeReferenceRequired      ErrorCode = "reference_required"
	CodeDocumentNotFound       ErrorCode = "document_not_found"
	CodeReferenceUnavailable   ErrorCode = "reference_unavailable"
	CodeCorpusUnavailable      ErrorCode = "corpus_unavailable"
	CodeEmbeddingQuotaExceeded ErrorCode = "embedding_quota_exceeded"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeAnswerProviderError    ErrorCode = "answer_provider_error"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorMapping binds a sentinel to its HTTP reply. detail exposes the full
// error text, which is only safe for validation errors built by the domain.
type errorMapping struct {
	sentinel error
	status   int
	code     ErrorCode
	detail   bool
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrQueryRequired, http.StatusBadRequest, CodeQueryRequired, false},
	{domain.ErrReferenceRequired, http.StatusBadRequest, CodeReferenceRequired, false},
	{domain.ErrInvalidRequest, http.StatusBadRequest, CodeBadRequest, true},
	{domain.ErrReferenceUnavailable, http.StatusNotFound, CodeReferenceUnavailable, false},
	{domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound, false},
	{domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, CodeEmbeddingQuotaExceeded, false},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError, false},
	{domain.ErrAnswerProviderError, http.StatusBadGateway, CodeAnswerProviderError, false},
	{domain.ErrCorpusUnavailable, http.StatusBadGateway, CodeCorpusUnavailable, false},
}

func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, m := range errorMappings {
		if !errors.Is(err, m.sentinel) {
			continue
		}
		log.Warn("Request failed", zap.Int("status", m.status), zap.Error(err))
		msg := m.sentinel.Error()
		if m.detail {
			msg = err.Error()
		}
		writeError(w, m.status, m.code, msg)
		return
	}
	log.Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
