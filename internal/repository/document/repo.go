package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/knowhub/internal/db"
	"github.com/kailas-cloud/knowhub/internal/domain"
	domdoc "github.com/kailas-cloud/knowhub/internal/domain/document"
	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
	"github.com/kailas-cloud/knowhub/internal/domain/search/lexical"
)

// fetchBatch is the FT.SEARCH page size used when draining a full candidate set.
const fetchBatch = 500

// Index attribute names.
const (
	AttrID           = "id"
	AttrTitle        = "title"
	AttrContent      = "content"
	AttrTagText      = "tag_text"
	AttrTags         = "tags"
	AttrCreatedBy    = "created_by"
	AttrDeleted      = "deleted"
	AttrHasEmbedding = "has_embedding"
	AttrCreatedAt    = "created_at"
	AttrUpdatedAt    = "updated_at"
)

// TextAttrs are the full-text attributes searched by lexical queries.
var TextAttrs = []string{AttrTitle, AttrContent, AttrTagText}

// store is the consumer interface for documents (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo is the Redis-backed document corpus.
type Repo struct {
	store  store
	prefix string
}

// New creates a document repository. An empty prefix falls back to domain.KeyPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// IndexName returns the FT index name for documents.
func (r *Repo) IndexName() string {
	return r.prefix + "doc:idx"
}

// IndexDefinition describes the JSON document index. Text fields are tokenized
// like the in-process scorer: no stemming and the same stop words.
func (r *Repo) IndexDefinition() *db.IndexDefinition {
	return db.NewIndex(r.IndexName()).
		OnJSON().
		Prefix(r.prefix+"doc:").
		StopWords(lexical.StopWords()...).
		Tag("$.id").As(AttrID).
		Text("$.title").As(AttrTitle).Weight(3).NoStem().
		Text("$.content").As(AttrContent).NoStem().
		Text("$.tag_text").As(AttrTagText).Weight(2).NoStem().
		Tag("$.tags[*]").As(AttrTags).
		Tag("$.created_by").As(AttrCreatedBy).
		Tag("$.deleted").As(AttrDeleted).
		Tag("$.has_embedding").As(AttrHasEmbedding).
		Numeric("$.created_at").As(AttrCreatedAt).
		Numeric("$.updated_at").As(AttrUpdatedAt).Sortable().
		MustBuild()
}

// EnsureIndex creates the document index; an existing index is left as is.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	if err := r.store.CreateIndex(ctx, r.IndexDefinition()); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", r.IndexName(), err)
	}
	return nil
}

// Put stores the document, replacing any previous value.
func (r *Repo) Put(ctx context.Context, doc *domdoc.Document) error {
	key := r.docKey(doc.ID())
	data, err := json.Marshal(toJSON(doc))
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// PutMany stores documents in one pipeline.
func (r *Repo) PutMany(ctx context.Context, docs []domdoc.Document) error {
	if len(docs) == 0 {
		return nil
	}
	items := make([]db.JSONSetItem, len(docs))
	for i := range docs {
		data, err := json.Marshal(toJSON(&docs[i]))
		if err != nil {
			return fmt.Errorf("marshal document %s: %w", docs[i].ID(), err)
		}
		items[i] = db.JSONSetItem{Key: r.docKey(docs[i].ID()), Path: "$", Data: data}
	}
	if err := r.store.JSONSetMulti(ctx, items); err != nil {
		return fmt.Errorf("json.set batch: %w", err)
	}
	return nil
}

// Get returns a document by ID, deleted or not.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	key := r.docKey(id)
	data, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domdoc.Document{}, domain.ErrDocumentNotFound
		}
		return domdoc.Document{}, fmt.Errorf("json.get %s: %w", key, err)
	}

	// JSON.GET with $ path returns an array.
	var arr []docJSON
	if err := json.Unmarshal(data, &arr); err != nil {
		return domdoc.Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	if len(arr) == 0 {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	return arr[0].toDomain(), nil
}

// Find returns every document matching f, most recently updated first.
// f.Limit caps the result when positive.
func (r *Repo) Find(ctx context.Context, f filter.Filter) ([]domdoc.Document, error) {
	query := FilterQuery(f).String()
	var out []domdoc.Document
	for offset := 0; ; offset += fetchBatch {
		n := fetchBatch
		if f.Limit > 0 {
			n = min(n, f.Limit-len(out))
		}
		res, err := r.store.Search(ctx, r.recentQuery(query, offset, n))
		if err != nil {
			return nil, fmt.Errorf("search documents: %w", err)
		}
		docs, err := DecodeEntries(res.Entries)
		if err != nil {
			return nil, err
		}
		out = append(out, docs...)

		if len(res.Entries) < n || offset+n >= res.Total || (f.Limit > 0 && len(out) >= f.Limit) {
			break
		}
	}
	return out, nil
}

// Page returns one window of documents matching f, most recently updated first,
// plus the total match count.
func (r *Repo) Page(ctx context.Context, f filter.Filter, offset, limit int) ([]domdoc.Document, int, error) {
	res, err := r.store.Search(ctx, r.recentQuery(FilterQuery(f).String(), offset, limit))
	if err != nil {
		return nil, 0, fmt.Errorf("search documents: %w", err)
	}
	docs, err := DecodeEntries(res.Entries)
	if err != nil {
		return nil, 0, err
	}
	return docs, res.Total, nil
}

// Count returns the number of documents matching f.
func (r *Repo) Count(ctx context.Context, f filter.Filter) (int, error) {
	n, err := r.store.SearchCount(ctx, r.IndexName(), FilterQuery(f).String())
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (r *Repo) recentQuery(query string, offset, limit int) *db.SearchQuery {
	return &db.SearchQuery{
		IndexName:    r.IndexName(),
		Query:        query,
		SortBy:       AttrUpdatedAt,
		SortDesc:     true,
		Offset:       offset,
		Limit:        limit,
		ReturnFields: []string{"$"},
	}
}

func (r *Repo) docKey(id string) string {
	return r.prefix + "doc:" + id
}

// FilterQuery translates a corpus filter into a RediSearch query. Limit is not part
// of the query.
func FilterQuery(f filter.Filter) *db.QueryBuilder {
	q := db.NewQuery()
	if !f.IncludeDeleted {
		q.Tag(AttrDeleted, flagFalse)
	}
	if f.EmbeddedOnly {
		q.Tag(AttrHasEmbedding, flagTrue)
	}
	q.Tag(AttrTags, f.Tags...)
	if f.Author != "" {
		q.Tag(AttrCreatedBy, f.Author)
	}
	q.Tag(AttrID, f.IDs...)
	q.NotTag(AttrID, f.ExcludeIDs...)

	var lo, hi *int64
	if f.DateFrom != nil {
		v := f.DateFrom.UnixMilli()
		lo = &v
	}
	if f.DateTo != nil {
		v := f.DateTo.UnixMilli()
		hi = &v
	}
	q.Range(AttrCreatedAt, lo, hi)
	return q
}

// DecodeEntries parses FT.SEARCH entries returned with RETURN 1 $.
func DecodeEntries(entries []db.SearchEntry) ([]domdoc.Document, error) {
	docs := make([]domdoc.Document, 0, len(entries))
	for _, e := range entries {
		doc, err := DecodeEntry(e)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// DecodeEntry parses one FT.SEARCH entry.
func DecodeEntry(e db.SearchEntry) (domdoc.Document, error) {
	raw, ok := e.Fields["$"]
	if !ok {
		return domdoc.Document{}, fmt.Errorf("search entry %s: missing $ field", e.Key)
	}
	var d docJSON
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return domdoc.Document{}, fmt.Errorf("unmarshal search entry %s: %w", e.Key, err)
	}
	return d.toDomain(), nil
}
