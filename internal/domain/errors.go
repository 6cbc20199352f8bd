package domain

import "errors"

var (
	// ErrInvalidRequest signals malformed or out-of-range client input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrQueryRequired signals a missing query for a mode that needs one.
	ErrQueryRequired = errors.New("query is required")
	// ErrReferenceRequired signals a similar-document request without a reference id.
	ErrReferenceRequired = errors.New("reference document id is required")

	// ErrDocumentNotFound signals a missing or soft-deleted document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrReferenceUnavailable signals a reference document that is missing,
	// deleted or has no embedding.
	ErrReferenceUnavailable = errors.New("document not found or no embedding available")

	// ErrCorpusUnavailable signals a document store failure.
	ErrCorpusUnavailable = errors.New("document retrieval failed")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrAnswerProviderError signals a failure of the generative answer provider.
	ErrAnswerProviderError = errors.New("answer provider error")
)
