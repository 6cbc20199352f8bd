package request

import (
	"fmt"
	"unicode/utf8"

	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
	"github.com/kailas-cloud/knowhub/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 10
	MaxLimit       = 100
	// MaxPage bounds the skip offset of lexical pagination.
	MaxPage = 10000
)

// Request is a validated text, semantic or advanced search.
type Request struct {
	query      string
	searchMode mode.Mode
	searchType mode.Mode
	filters    filter.Filter
	page       int
	limit      int
	threshold  float64
	hasThresh  bool
}

// New validates and normalizes search parameters.
// Defaults: page=1, limit=10, searchType=text for advanced. A nil threshold means
// "use the configured default"; it is resolved by the orchestrator.
func New(
	query string,
	m mode.Mode,
	searchType mode.Mode,
	filters filter.Filter,
	page, limit int,
	threshold *float64,
) (Request, error) {
	if err := validateQuery(query); err != nil {
		return Request{}, err
	}
	if m == "" {
		m = mode.Text
	}
	if !m.IsValid() || m == mode.Similar {
		return Request{}, fmt.Errorf("%w: invalid search mode: %q", domain.ErrInvalidRequest, m)
	}
	if m == mode.Semantic && query == "" {
		return Request{}, domain.ErrQueryRequired
	}
	if m == mode.Advanced {
		if searchType == "" {
			searchType = mode.Text
		}
		if !searchType.IsSearchType() {
			return Request{}, fmt.Errorf("%w: invalid searchType: %q", domain.ErrInvalidRequest, searchType)
		}
	} else {
		searchType = m
	}
	if err := filters.Validate(); err != nil {
		return Request{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	t, err := validateThreshold(threshold)
	if err != nil {
		return Request{}, err
	}
	page, limit = normalizePage(page, limit, DefaultLimit)

	return Request{
		query:      query,
		searchMode: m,
		searchType: searchType,
		filters:    filters,
		page:       page,
		limit:      limit,
		threshold:  t,
		hasThresh:  threshold != nil,
	}, nil
}

// Query returns the search query text (may be empty in text mode).
func (r *Request) Query() string { return r.query }

// Mode returns the requested search mode.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// SearchType returns the ranking strategy: Text or Semantic.
func (r *Request) SearchType() mode.Mode { return r.searchType }

// Filters returns the pre-filter.
func (r *Request) Filters() filter.Filter { return r.filters }

// Page returns the 1-based page number.
func (r *Request) Page() int { return r.page }

// Limit returns the page size.
func (r *Request) Limit() int { return r.limit }

// Offset returns the number of ranked items skipped before the page.
func (r *Request) Offset() int { return (r.page - 1) * r.limit }

// Threshold returns the requested similarity threshold and whether one was given.
func (r *Request) Threshold() (float64, bool) { return r.threshold, r.hasThresh }

func validateQuery(query string) error {
	if len(query) > MaxQueryLength {
		return fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if !utf8.ValidString(query) {
		return fmt.Errorf("%w: query is not valid UTF-8", domain.ErrInvalidRequest)
	}
	return nil
}

func validateThreshold(threshold *float64) (float64, error) {
	if threshold == nil {
		return 0, nil
	}
	if *threshold < 0 || *threshold > 1 {
		return 0, fmt.Errorf("%w: threshold must be between 0 and 1", domain.ErrInvalidRequest)
	}
	return *threshold, nil
}

// normalizePage never rejects: out-of-range page and limit values are clamped
// into [1, MaxPage] and [1, MaxLimit], and a non-positive limit takes the default.
func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}
