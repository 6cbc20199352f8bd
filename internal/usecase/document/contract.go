package document

import (
	"context"

	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/domain/author"
	domdoc "github.com/kailas-cloud/knowhub/internal/domain/document"
	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
)

// Repository is the document store. Get also returns soft-deleted documents;
// Page applies the filter, which hides them by default.
type Repository interface {
	Get(ctx context.Context, id string) (domdoc.Document, error)
	Put(ctx context.Context, doc *domdoc.Document) error
	Page(ctx context.Context, f filter.Filter, offset, limit int) ([]domdoc.Document, int, error)
}

// AuthorDirectory resolves author ids; unknown ids are absent from the map.
type AuthorDirectory interface {
	Authors(ctx context.Context, ids []string) (map[string]author.Author, error)
}

// Embedder vectorizes document text on create and on content updates.
type Embedder = domain.Embedder
