package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/domain/author"
	"github.com/kailas-cloud/knowhub/internal/domain/document"
	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
	"github.com/kailas-cloud/knowhub/internal/domain/search/lexical"
	"github.com/kailas-cloud/knowhub/internal/domain/search/result"
)

// Store is an in-process corpus with the same contracts as the Redis repositories.
// Readers share the lock; writers replace whole documents.
type Store struct {
	mu      sync.RWMutex
	docs    map[string]document.Document
	authors map[string]author.Author
}

// New creates an empty store.
func New() *Store {
	return &Store{
		docs:    make(map[string]document.Document),
		authors: make(map[string]author.Author),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Put stores doc, replacing any previous value.
func (s *Store) Put(_ context.Context, doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID()] = *doc
	return nil
}

// PutMany stores docs.
func (s *Store) PutMany(_ context.Context, docs []document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range docs {
		s.docs[docs[i].ID()] = docs[i]
	}
	return nil
}

// Get returns a document by ID, deleted or not.
func (s *Store) Get(_ context.Context, id string) (document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return document.Document{}, domain.ErrDocumentNotFound
	}
	return doc, nil
}

// Find returns every document matching f, most recently updated first.
func (s *Store) Find(ctx context.Context, f filter.Filter) ([]document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs := s.match(f)
	if f.Limit > 0 && len(docs) > f.Limit {
		docs = docs[:f.Limit]
	}
	return docs, nil
}

// Page returns one window of matching documents plus the total count.
func (s *Store) Page(ctx context.Context, f filter.Filter, offset, limit int) ([]document.Document, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	docs := s.match(f)
	return result.Slice(docs, offset, limit), len(docs), nil
}

// Count returns the number of documents matching f.
func (s *Store) Count(_ context.Context, f filter.Filter) (int, error) {
	return len(s.match(f)), nil
}

// SearchText ranks the filtered corpus with the native BM25 index.
func (s *Store) SearchText(ctx context.Context, q lexical.Query) (lexical.Hits, error) {
	if err := ctx.Err(); err != nil {
		return lexical.Hits{}, err
	}
	hits := lexical.Rank(s.match(q.Filter), q.Text)
	return lexical.Hits{Total: len(hits), Items: result.Slice(hits, q.Offset, q.Limit)}, nil
}

// Authors resolves ids to authors; unknown ids are absent from the map.
func (s *Store) Authors(_ context.Context, ids []string) (map[string]author.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]author.Author, len(ids))
	for _, id := range ids {
		if a, ok := s.authors[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

// AllAuthors returns the whole directory.
func (s *Store) AllAuthors(context.Context) (map[string]author.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]author.Author, len(s.authors))
	for id, a := range s.authors {
		out[id] = a
	}
	return out, nil
}

// PutAuthors stores authors.
func (s *Store) PutAuthors(_ context.Context, authors []author.Author) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range authors {
		s.authors[a.ID] = a
	}
	return nil
}

// match returns a snapshot of matching documents ordered by updatedAt desc, then id.
func (s *Store) match(f filter.Filter) []document.Document {
	s.mu.RLock()
	out := make([]document.Document, 0, len(s.docs))
	for id := range s.docs {
		doc := s.docs[id]
		if f.Match(&doc) {
			out = append(out, doc)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b document.Document) int {
		if c := b.UpdatedAt().Compare(a.UpdatedAt()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID(), b.ID())
	})
	return out
}
