package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/knowhub/internal/db"
	"github.com/kailas-cloud/knowhub/internal/domain/search/lexical"
	docrepo "github.com/kailas-cloud/knowhub/internal/repository/document"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
}

// Repo runs lexical queries on the RediSearch document index.
type Repo struct {
	store     store
	indexName string
}

// New creates a search repository over the given document index.
func New(s store, indexName string) *Repo {
	return &Repo{store: s, indexName: indexName}
}

// SearchText matches any query term in title, content or tags and ranks with BM25.
// Field weights come from the index schema. A query with no searchable term matches nothing.
func (r *Repo) SearchText(ctx context.Context, q lexical.Query) (lexical.Hits, error) {
	terms := lexical.Terms(q.Text)
	if len(terms) == 0 {
		return lexical.Hits{}, nil
	}

	query := docrepo.FilterQuery(q.Filter).AnyTerm(docrepo.TextAttrs, terms)
	sr, err := r.store.Search(ctx, &db.SearchQuery{
		IndexName:    r.indexName,
		Query:        query.String(),
		Scorer:       db.ScorerBM25,
		Offset:       q.Offset,
		Limit:        q.Limit,
		ReturnFields: []string{"$"},
	})
	if err != nil {
		return lexical.Hits{}, fmt.Errorf("text search: %w", err)
	}

	hits := lexical.Hits{Total: sr.Total, Items: make([]lexical.Hit, 0, len(sr.Entries))}
	for _, e := range sr.Entries {
		doc, err := docrepo.DecodeEntry(e)
		if err != nil {
			return lexical.Hits{}, err
		}
		hits.Items = append(hits.Items, lexical.Hit{Doc: doc, Score: e.Score})
	}
	return hits, nil
}
