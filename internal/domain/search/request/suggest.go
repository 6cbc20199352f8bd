package request

// Suggestion limits.
const (
	MinSuggestionLength    = 2
	DefaultSuggestionLimit = 10
	MaxSuggestionLimit     = 50
)

// SuggestRequest is a validated autocomplete query.
type SuggestRequest struct {
	prefix string
	limit  int
}

// NewSuggest normalizes suggestion parameters. A short prefix is valid and yields
// no suggestions.
func NewSuggest(prefix string, limit int) (SuggestRequest, error) {
	if err := validateQuery(prefix); err != nil {
		return SuggestRequest{}, err
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	if limit > MaxSuggestionLimit {
		limit = MaxSuggestionLimit
	}
	return SuggestRequest{prefix: prefix, limit: limit}, nil
}

// Prefix returns the typed text.
func (r *SuggestRequest) Prefix() string { return r.prefix }

// Limit returns the total suggestion budget across titles and tags.
func (r *SuggestRequest) Limit() int { return r.limit }

// TooShort reports whether the prefix is below the minimum suggestion length.
func (r *SuggestRequest) TooShort() bool { return len([]rune(r.prefix)) < MinSuggestionLength }

// PerKind returns the budget for each suggestion kind (titles, tags).
func (r *SuggestRequest) PerKind() int { return max(r.limit/2, 1) }
