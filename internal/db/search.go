package db

import (
	"fmt"
	"strconv"
)

// ScorerBM25 is the FT.SEARCH text scorer used for keyword relevance.
const ScorerBM25 = "BM25"

// SearchQuery is one FT.SEARCH call. A non-empty Scorer turns on WITHSCORES.
// ReturnFields of "$" returns the whole JSON document.
type SearchQuery struct {
	IndexName    string
	Query        string // "*" when empty
	Scorer       string
	SortBy       string
	SortDesc     bool
	Offset       int
	Limit        int
	ReturnFields []string
}

// Args renders the FT.SEARCH arguments that follow the command name.
func (q *SearchQuery) Args() ([]string, error) {
	switch {
	case q.IndexName == "":
		return nil, fmt.Errorf("search: index name is required")
	case q.Offset < 0 || q.Limit < 0:
		return nil, fmt.Errorf("search: offset %d and limit %d must not be negative", q.Offset, q.Limit)
	}

	expr := q.Query
	if expr == "" {
		expr = "*"
	}
	args := []string{q.IndexName, expr}
	if q.Scorer != "" {
		args = append(args, "WITHSCORES", "SCORER", q.Scorer)
	}
	if n := len(q.ReturnFields); n > 0 {
		args = append(args, "RETURN", strconv.Itoa(n))
		args = append(args, q.ReturnFields...)
	}
	if q.SortBy != "" {
		dir := "ASC"
		if q.SortDesc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy, dir)
	}
	return append(args, "LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit), "DIALECT", "2"), nil
}

// SearchResult is one page of hits plus the total match count.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit. Score is zero unless the query set a Scorer.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
