package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Text ranks by lexical relevance, or by recency without a query.
	Text     Mode = "text"
	Semantic Mode = "semantic"
	// Advanced narrows by tags, author and date range before ranking as Text or Semantic.
	Advanced Mode = "advanced"
	// Similar ranks embedded documents against a reference document.
	Similar Mode = "similar"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Text || m == Semantic || m == Advanced || m == Similar
}

// IsSearchType reports whether m may be used as the ranking type of an advanced search.
func (m Mode) IsSearchType() bool {
	return m == Text || m == Semantic
}
