package filter

import (
	"fmt"
	"slices"
	"time"

	"github.com/kailas-cloud/knowhub/internal/domain/document"
)

// MaxTags is the maximum number of tags in an any-of tag filter.
const MaxTags = 32

// Filter narrows the corpus before ranking. The zero value selects every
// non-deleted document.
type Filter struct {
	IncludeDeleted bool
	// Tags matches documents carrying at least one of the tags.
	Tags []string
	// Author matches the creator id exactly.
	Author string
	// DateFrom and DateTo bound createdAt inclusively; either may be nil.
	DateFrom *time.Time
	DateTo   *time.Time
	// IDs restricts the result to the given ids when non-empty.
	IDs        []string
	ExcludeIDs []string
	// EmbeddedOnly keeps documents with a non-empty embedding.
	EmbeddedOnly bool
	// Limit caps the number of documents returned by a fetch; 0 means no cap.
	Limit int
}

// Validate checks bounds and normalizes tags in place.
func (f *Filter) Validate() error {
	if len(f.Tags) > MaxTags {
		return fmt.Errorf("too many tags (max %d)", MaxTags)
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return fmt.Errorf("dateFrom must not be after dateTo")
	}
	if f.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	f.Tags = document.NormalizeTags(f.Tags)
	return nil
}

// Match reports whether doc passes every condition except Limit.
func (f Filter) Match(doc *document.Document) bool {
	if doc.IsDeleted() && !f.IncludeDeleted {
		return false
	}
	if f.EmbeddedOnly && !doc.HasEmbedding() {
		return false
	}
	if f.Author != "" && doc.CreatedBy() != f.Author {
		return false
	}
	if f.DateFrom != nil && doc.CreatedAt().Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && doc.CreatedAt().After(*f.DateTo) {
		return false
	}
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, doc.ID()) {
		return false
	}
	if slices.Contains(f.ExcludeIDs, doc.ID()) {
		return false
	}
	if len(f.Tags) > 0 && !anyTag(doc.Tags(), f.Tags) {
		return false
	}
	return true
}

// HasNarrowing reports whether any advanced condition is set.
func (f Filter) HasNarrowing() bool {
	return len(f.Tags) > 0 || f.Author != "" || f.DateFrom != nil || f.DateTo != nil
}

func anyTag(have, want []string) bool {
	for _, t := range want {
		if slices.Contains(have, t) {
			return true
		}
	}
	return false
}
