package search

import (
	"context"

	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/domain/author"
	"github.com/kailas-cloud/knowhub/internal/domain/document"
	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
	"github.com/kailas-cloud/knowhub/internal/domain/search/lexical"
)

// Corpus reads documents. Find and Page return most recently updated first.
type Corpus interface {
	Get(ctx context.Context, id string) (document.Document, error)
	Find(ctx context.Context, f filter.Filter) ([]document.Document, error)
	Page(ctx context.Context, f filter.Filter, offset, limit int) ([]document.Document, int, error)
}

// TextSearcher is the indexed lexical capability of the store.
type TextSearcher interface {
	SearchText(ctx context.Context, q lexical.Query) (lexical.Hits, error)
}

// AuthorDirectory resolves author ids.
type AuthorDirectory interface {
	Authors(ctx context.Context, ids []string) (map[string]author.Author, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
