package search

import (
	"cmp"
	"context"
	"slices"
	"testing"
	"time"

	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/domain/author"
	"github.com/kailas-cloud/knowhub/internal/domain/document"
	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
	"github.com/kailas-cloud/knowhub/internal/domain/search/lexical"
	"github.com/kailas-cloud/knowhub/internal/domain/search/result"
)

// fakeCorpus serves an in-memory document slice with the store ordering rules.
type fakeCorpus struct {
	docs    []document.Document
	err     error
	finds   []filter.Filter
	authors map[string]author.Author
}

func (c *fakeCorpus) Get(_ context.Context, id string) (document.Document, error) {
	if c.err != nil {
		return document.Document{}, c.err
	}
	for _, d := range c.docs {
		if d.ID() == id {
			return d, nil
		}
	}
	return document.Document{}, domain.ErrDocumentNotFound
}

func (c *fakeCorpus) Find(_ context.Context, f filter.Filter) ([]document.Document, error) {
	c.finds = append(c.finds, f)
	if c.err != nil {
		return nil, c.err
	}
	out := c.match(f)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (c *fakeCorpus) Page(_ context.Context, f filter.Filter, offset, limit int) ([]document.Document, int, error) {
	if c.err != nil {
		return nil, 0, c.err
	}
	out := c.match(f)
	return result.Slice(out, offset, limit), len(out), nil
}

func (c *fakeCorpus) SearchText(_ context.Context, q lexical.Query) (lexical.Hits, error) {
	if c.err != nil {
		return lexical.Hits{}, c.err
	}
	hits := lexical.Rank(c.match(q.Filter), q.Text)
	return lexical.Hits{Total: len(hits), Items: result.Slice(hits, q.Offset, q.Limit)}, nil
}

func (c *fakeCorpus) Authors(_ context.Context, ids []string) (map[string]author.Author, error) {
	out := make(map[string]author.Author)
	for _, id := range ids {
		if a, ok := c.authors[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (c *fakeCorpus) match(f filter.Filter) []document.Document {
	var out []document.Document
	for i := range c.docs {
		if f.Match(&c.docs[i]) {
			out = append(out, c.docs[i])
		}
	}
	slices.SortStableFunc(out, func(a, b document.Document) int {
		return b.UpdatedAt().Compare(a.UpdatedAt())
	})
	return out
}

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 3}, nil
}

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type docSpec struct {
	id, title, content, summary string
	tags                        []string
	by                          string
	hour                        int
	emb                         []float32
	deleted                     bool
}

func buildDocs(t *testing.T, specs ...docSpec) []document.Document {
	t.Helper()
	out := make([]document.Document, 0, len(specs))
	for _, s := range specs {
		by := cmp.Or(s.by, "u1")
		d, err := document.New(s.id, s.title, s.content, s.summary, s.tags, by, base.Add(time.Duration(s.hour)*time.Hour))
		if err != nil {
			t.Fatalf("doc %s: %v", s.id, err)
		}
		if s.emb != nil {
			d = d.WithEmbedding(s.emb)
		}
		if s.deleted {
			d = d.SoftDelete(by, d.UpdatedAt())
		}
		out = append(out, d)
	}
	return out
}

func newTestService(t *testing.T, docs []document.Document, emb *mockEmbedder) (*Service, *fakeCorpus) {
	t.Helper()
	c := &fakeCorpus{
		docs:    docs,
		authors: map[string]author.Author{"u1": {ID: "u1", Name: "Ann", Email: "ann@example.com"}},
	}
	if emb == nil {
		emb = &mockEmbedder{}
	}
	return New(c, c, c, emb, Options{}), c
}
