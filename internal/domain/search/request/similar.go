package request

import (
	"github.com/kailas-cloud/knowhub/internal/domain"
)

// DefaultSimilarLimit is the number of similar documents returned by default.
const DefaultSimilarLimit = 5

// SimilarRequest is a validated "find similar" query.
type SimilarRequest struct {
	referenceID string
	limit       int
	threshold   float64
	hasThresh   bool
}

// NewSimilar validates and normalizes similar request parameters.
// A nil threshold means "use the configured default".
func NewSimilar(referenceID string, limit int, threshold *float64) (SimilarRequest, error) {
	if referenceID == "" {
		return SimilarRequest{}, domain.ErrReferenceRequired
	}
	t, err := validateThreshold(threshold)
	if err != nil {
		return SimilarRequest{}, err
	}
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return SimilarRequest{referenceID: referenceID, limit: limit, threshold: t, hasThresh: threshold != nil}, nil
}

// ReferenceID returns the id of the reference document.
func (r *SimilarRequest) ReferenceID() string { return r.referenceID }

// Limit returns the maximum results to return.
func (r *SimilarRequest) Limit() int { return r.limit }

// Threshold returns the requested similarity floor and whether one was given.
func (r *SimilarRequest) Threshold() (float64, bool) { return r.threshold, r.hasThresh }
