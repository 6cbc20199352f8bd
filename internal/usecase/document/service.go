package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/knowhub/internal/domain"
	domdoc "github.com/kailas-cloud/knowhub/internal/domain/document"
	"github.com/kailas-cloud/knowhub/internal/domain/document/patch"
	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
	"github.com/kailas-cloud/knowhub/internal/domain/search/request"
	"github.com/kailas-cloud/knowhub/internal/domain/search/result"
	"github.com/kailas-cloud/knowhub/internal/logger"
	"github.com/kailas-cloud/knowhub/internal/metrics"
)

// RecentLimit is the size of the recent-activity feed.
const RecentLimit = 5

// DefaultEmbedTimeout bounds the best-effort embedding of a saved document.
const DefaultEmbedTimeout = 5 * time.Second

// CreateInput holds the fields of a new document.
type CreateInput struct {
	Title   string
	Content string
	Summary string
	Tags    []string
}

// Service handles document CRUD with best-effort vectorization.
type Service struct {
	repo          Repository
	authors       AuthorDirectory
	embed         Embedder
	embedTimeout  time.Duration
	corpusTimeout time.Duration
	newID         func() string
	now           func() time.Time
}

// New creates a document service.
func New(repo Repository, authors AuthorDirectory, embed Embedder) *Service {
	return &Service{
		repo:         repo,
		authors:      authors,
		embed:        embed,
		embedTimeout: DefaultEmbedTimeout,
		newID:        uuid.NewString,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithEmbedTimeout configures the timeout of the best-effort embedding.
func (s *Service) WithEmbedTimeout(d time.Duration) *Service {
	if d > 0 {
		s.embedTimeout = d
	}
	return s
}

// WithCorpusTimeout bounds each repository and directory call. Zero leaves the
// request deadline alone.
func (s *Service) WithCorpusTimeout(d time.Duration) *Service {
	if d > 0 {
		s.corpusTimeout = d
	}
	return s
}

// List returns one page of non-deleted documents, most recently updated first.
func (s *Service) List(ctx context.Context, page, limit int) (result.Page, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = request.DefaultLimit
	}
	limit = min(limit, request.MaxLimit)

	docs, total, err := s.page(ctx, (page-1)*limit, limit)
	if err != nil {
		return result.Page{}, fmt.Errorf("list documents: %w: %w", domain.ErrCorpusUnavailable, err)
	}
	items, err := s.results(ctx, docs)
	if err != nil {
		return result.Page{}, err
	}
	return result.Page{
		Items:      items,
		TotalItems: total,
		Pagination: result.NewPagination(page, limit, total),
	}, nil
}

// Recent returns the last RecentLimit edited documents.
func (s *Service) Recent(ctx context.Context) ([]result.Result, error) {
	docs, _, err := s.page(ctx, 0, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("recent documents: %w: %w", domain.ErrCorpusUnavailable, err)
	}
	return s.results(ctx, docs)
}

// Get returns a non-deleted document.
func (s *Service) Get(ctx context.Context, id string) (result.Result, error) {
	doc, err := s.live(ctx, id)
	if err != nil {
		return result.Result{}, err
	}
	items, err := s.results(ctx, []domdoc.Document{doc})
	if err != nil {
		return result.Result{}, err
	}
	return items[0], nil
}

// Create stores a new document authored by editor.
func (s *Service) Create(ctx context.Context, in CreateInput, editor string) (result.Result, error) {
	if editor == "" {
		return result.Result{}, fmt.Errorf("%w: user id is required", domain.ErrInvalidRequest)
	}
	doc, err := domdoc.New(s.newID(), in.Title, in.Content, in.Summary, in.Tags, editor, s.now())
	if err != nil {
		return result.Result{}, err //nolint:wrapcheck // domain validation error
	}

	doc = s.withEmbedding(ctx, doc)
	if err := s.put(ctx, &doc); err != nil {
		return result.Result{}, fmt.Errorf("store document: %w: %w", domain.ErrCorpusUnavailable, err)
	}
	return s.Get(ctx, doc.ID())
}

// Update applies p as editor. A change of title, content or summary re-embeds the document.
func (s *Service) Update(ctx context.Context, id string, p patch.Patch, editor string) (result.Result, error) {
	if editor == "" {
		return result.Result{}, fmt.Errorf("%w: user id is required", domain.ErrInvalidRequest)
	}
	doc, err := s.live(ctx, id)
	if err != nil {
		return result.Result{}, err
	}

	revised, textChanged := doc.Revise(p, editor, s.now())
	if textChanged {
		revised = s.withEmbedding(ctx, revised)
	}
	if err := s.put(ctx, &revised); err != nil {
		return result.Result{}, fmt.Errorf("store document: %w: %w", domain.ErrCorpusUnavailable, err)
	}
	items, err := s.results(ctx, []domdoc.Document{revised})
	if err != nil {
		return result.Result{}, err
	}
	return items[0], nil
}

// Delete soft-deletes a document.
func (s *Service) Delete(ctx context.Context, id, editor string) error {
	if editor == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidRequest)
	}
	doc, err := s.live(ctx, id)
	if err != nil {
		return err
	}
	deleted := doc.SoftDelete(editor, s.now())
	if err := s.put(ctx, &deleted); err != nil {
		return fmt.Errorf("store document: %w: %w", domain.ErrCorpusUnavailable, err)
	}
	return nil
}

// live loads a document and hides soft-deleted ones.
func (s *Service) live(ctx context.Context, id string) (domdoc.Document, error) {
	doc, err := s.get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return domdoc.Document{}, err
		}
		return domdoc.Document{}, fmt.Errorf("get document: %w: %w", domain.ErrCorpusUnavailable, err)
	}
	if doc.IsDeleted() {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	return doc, nil
}

// withEmbedding vectorizes doc within the embed timeout. On failure the document
// keeps whatever embedding it had and the error is logged.
func (s *Service) withEmbedding(ctx context.Context, doc domdoc.Document) domdoc.Document {
	if s.embed == nil {
		return doc
	}
	ectx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	res, err := s.embed.Embed(ectx, doc.EmbeddingText())
	if err != nil {
		metrics.EnrichmentFailuresTotal.WithLabelValues("document_embedding").Inc()
		logger.FromContext(ctx).Warn("Document embedding failed",
			zap.String("document_id", doc.ID()),
			zap.Error(err),
		)
		return doc
	}
	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)
	return doc.WithEmbedding(res.Embedding)
}

func (s *Service) results(ctx context.Context, docs []domdoc.Document) ([]result.Result, error) {
	items := make([]result.Result, len(docs))
	for i := range docs {
		items[i] = result.New(docs[i], 0)
	}
	ids := result.AuthorIDs(items)
	if len(ids) == 0 {
		return items, nil
	}
	cctx, cancel := s.corpusContext(ctx)
	defer cancel()
	dir, err := s.authors.Authors(cctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w: %w", domain.ErrCorpusUnavailable, err)
	}
	for i := range items {
		items[i].SetAuthors(dir)
	}
	return items, nil
}

func (s *Service) page(ctx context.Context, offset, limit int) ([]domdoc.Document, int, error) {
	cctx, cancel := s.corpusContext(ctx)
	defer cancel()
	return s.repo.Page(cctx, filter.Filter{}, offset, limit) //nolint:wrapcheck // classified by callers
}

func (s *Service) get(ctx context.Context, id string) (domdoc.Document, error) {
	cctx, cancel := s.corpusContext(ctx)
	defer cancel()
	return s.repo.Get(cctx, id) //nolint:wrapcheck // classified by live
}

func (s *Service) put(ctx context.Context, doc *domdoc.Document) error {
	cctx, cancel := s.corpusContext(ctx)
	defer cancel()
	return s.repo.Put(cctx, doc) //nolint:wrapcheck // classified by callers
}

func (s *Service) corpusContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.corpusTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.corpusTimeout)
}
