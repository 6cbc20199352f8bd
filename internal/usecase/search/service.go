package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/domain/document"
	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
	"github.com/kailas-cloud/knowhub/internal/domain/search/highlight"
	"github.com/kailas-cloud/knowhub/internal/domain/search/lexical"
	"github.com/kailas-cloud/knowhub/internal/domain/search/mode"
	"github.com/kailas-cloud/knowhub/internal/domain/search/request"
	"github.com/kailas-cloud/knowhub/internal/domain/search/result"
	"github.com/kailas-cloud/knowhub/internal/domain/vector"
	"github.com/kailas-cloud/knowhub/internal/logger"
	"github.com/kailas-cloud/knowhub/internal/metrics"
)

// Default thresholds.
const (
	DefaultSemanticThreshold = 0.3
	DefaultSimilarThreshold  = 0.1
)

// Options tune ranking. Zero values take the defaults.
type Options struct {
	SemanticThreshold float64
	SimilarThreshold  float64
	// CorpusTimeout bounds every corpus call; 0 leaves the request deadline alone.
	CorpusTimeout time.Duration
}

// Service ranks documents for text, semantic, advanced and similar-document queries.
// It keeps no state between requests.
type Service struct {
	corpus  Corpus
	text    TextSearcher
	authors AuthorDirectory
	embed   Embedder
	opts    Options
}

// New creates a search service.
func New(corpus Corpus, text TextSearcher, authors AuthorDirectory, embed Embedder, opts Options) *Service {
	if opts.SemanticThreshold <= 0 {
		opts.SemanticThreshold = DefaultSemanticThreshold
	}
	if opts.SimilarThreshold <= 0 {
		opts.SimilarThreshold = DefaultSimilarThreshold
	}
	return &Service{corpus: corpus, text: text, authors: authors, embed: embed, opts: opts}
}

// Search runs a text, semantic or advanced query and returns one page.
func (s *Service) Search(ctx context.Context, req *request.Request) (page result.Page, err error) {
	defer s.observe(req.Mode(), time.Now(), &err)

	switch req.Mode() {
	case mode.Text:
		page, err = s.searchText(ctx, req)
	case mode.Semantic:
		page, err = s.searchSemantic(ctx, req)
	case mode.Advanced:
		// A semantic sub-type without a query has nothing to embed.
		if req.SearchType() == mode.Semantic && strings.TrimSpace(req.Query()) != "" {
			page, err = s.searchSemantic(ctx, req)
		} else {
			page, err = s.searchText(ctx, req)
		}
	default:
		return result.Page{}, fmt.Errorf("%w: unsupported search mode: %s", domain.ErrInvalidRequest, req.Mode())
	}
	if err != nil {
		return result.Page{}, err
	}

	if err = s.populateAuthors(ctx, page.Items); err != nil {
		return result.Page{}, err
	}
	return page, nil
}

// Highlight runs a text query and attaches marked-up title, content snippet and summary.
func (s *Service) Highlight(ctx context.Context, req *request.Request) (page result.Page, err error) {
	if strings.TrimSpace(req.Query()) == "" {
		return result.Page{}, domain.ErrQueryRequired
	}
	defer s.observe("highlight", time.Now(), &err)

	page, err = s.searchText(ctx, req)
	if err != nil {
		return result.Page{}, err
	}

	h := highlight.New(req.Query())
	for i := range page.Items {
		doc := page.Items[i].Document()
		page.Items[i].SetHighlight(h.Apply(doc.Title(), doc.Content(), doc.Summary()))
	}

	if err = s.populateAuthors(ctx, page.Items); err != nil {
		return result.Page{}, err
	}
	return page, nil
}

// Similar returns the documents closest to a reference document by cosine similarity.
func (s *Service) Similar(ctx context.Context, req *request.SimilarRequest) (out result.Similar, err error) {
	defer s.observe(mode.Similar, time.Now(), &err)

	ref, err := s.get(ctx, req.ReferenceID())
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return result.Similar{}, domain.ErrReferenceUnavailable
		}
		return result.Similar{}, err
	}
	if ref.IsDeleted() || !ref.HasEmbedding() {
		return result.Similar{}, domain.ErrReferenceUnavailable
	}

	docs, err := s.find(ctx, filter.Filter{EmbeddedOnly: true, ExcludeIDs: []string{ref.ID()}})
	if err != nil {
		return result.Similar{}, err
	}
	metrics.SearchCandidates.WithLabelValues(string(mode.Similar)).Observe(float64(len(docs)))

	threshold, ok := req.Threshold()
	if !ok {
		threshold = s.opts.SimilarThreshold
	}

	items := make([]result.Result, 0, len(docs))
	for i := range docs {
		sim := vector.Cosine(ref.Embedding(), docs[i].Embedding())
		if sim > threshold {
			items = append(items, result.New(docs[i], sim))
		}
	}
	sortByScore(items)
	if len(items) > req.Limit() {
		items = items[:req.Limit()]
	}

	if err = s.populateAuthors(ctx, items); err != nil {
		return result.Similar{}, err
	}
	return result.Similar{Reference: ref.WithoutEmbedding(), Items: items}, nil
}

// searchText ranks by lexical relevance, or lists by recency when there is no query text.
func (s *Service) searchText(ctx context.Context, req *request.Request) (result.Page, error) {
	f := req.Filters()
	var (
		items []result.Result
		total int
	)

	if strings.TrimSpace(req.Query()) == "" {
		docs, n, err := s.page(ctx, f, req.Offset(), req.Limit())
		if err != nil {
			return result.Page{}, err
		}
		items = make([]result.Result, len(docs))
		for i := range docs {
			items[i] = result.New(docs[i], 0)
		}
		total = n
	} else {
		cctx, cancel := s.corpusContext(ctx)
		defer cancel()
		hits, err := s.text.SearchText(cctx, lexical.Query{
			Text:   req.Query(),
			Filter: f,
			Offset: req.Offset(),
			Limit:  req.Limit(),
		})
		if err != nil {
			return result.Page{}, corpusError("text search", err)
		}
		items = make([]result.Result, len(hits.Items))
		for i, h := range hits.Items {
			items[i] = result.New(h.Doc, h.Score)
		}
		total = hits.Total
	}

	return result.Page{
		Items:      items,
		TotalItems: total,
		Pagination: result.NewPagination(req.Page(), req.Limit(), total),
	}, nil
}

// searchSemantic embeds the query and scans the embedded candidates linearly.
func (s *Service) searchSemantic(ctx context.Context, req *request.Request) (result.Page, error) {
	if strings.TrimSpace(req.Query()) == "" {
		return result.Page{}, domain.ErrQueryRequired
	}

	f := req.Filters()
	f.EmbeddedOnly = true

	var (
		queryVec []float32
		docs     []document.Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		emb, err := s.embed.Embed(gctx, req.Query())
		if err != nil {
			return embeddingError(err)
		}
		domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)
		queryVec = emb.Embedding
		return nil
	})
	g.Go(func() error {
		var err error
		docs, err = s.find(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return result.Page{}, err //nolint:wrapcheck // classified inside the group
	}
	metrics.SearchCandidates.WithLabelValues(string(req.Mode())).Observe(float64(len(docs)))

	threshold, ok := req.Threshold()
	if !ok {
		threshold = s.opts.SemanticThreshold
	}

	ranked := make([]result.Result, 0, len(docs))
	for i := range docs {
		sim := vector.Cosine(queryVec, docs[i].Embedding())
		if sim >= threshold {
			ranked = append(ranked, result.New(docs[i], sim))
		}
	}
	sortByScore(ranked)

	logger.FromContext(ctx).Debug("Semantic ranking",
		zap.Int("candidates", len(docs)),
		zap.Int("above_threshold", len(ranked)),
		zap.Float64("threshold", threshold),
	)

	return result.Page{
		Items:      result.Slice(ranked, req.Offset(), req.Limit()),
		TotalItems: len(ranked),
		Pagination: result.NewPagination(req.Page(), req.Limit(), len(ranked)),
	}, nil
}

func (s *Service) populateAuthors(ctx context.Context, items []result.Result) error {
	ids := result.AuthorIDs(items)
	if len(ids) == 0 {
		return nil
	}
	cctx, cancel := s.corpusContext(ctx)
	defer cancel()
	dir, err := s.authors.Authors(cctx, ids)
	if err != nil {
		return corpusError("load authors", err)
	}
	for i := range items {
		items[i].SetAuthors(dir)
	}
	return nil
}

func (s *Service) get(ctx context.Context, id string) (document.Document, error) {
	cctx, cancel := s.corpusContext(ctx)
	defer cancel()
	doc, err := s.corpus.Get(cctx, id)
	if err != nil {
		return document.Document{}, corpusError("get document", err)
	}
	return doc, nil
}

func (s *Service) find(ctx context.Context, f filter.Filter) ([]document.Document, error) {
	cctx, cancel := s.corpusContext(ctx)
	defer cancel()
	docs, err := s.corpus.Find(cctx, f)
	if err != nil {
		return nil, corpusError("find documents", err)
	}
	return docs, nil
}

func (s *Service) page(ctx context.Context, f filter.Filter, offset, limit int) ([]document.Document, int, error) {
	cctx, cancel := s.corpusContext(ctx)
	defer cancel()
	docs, total, err := s.corpus.Page(cctx, f, offset, limit)
	if err != nil {
		return nil, 0, corpusError("list documents", err)
	}
	return docs, total, nil
}

func (s *Service) corpusContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.CorpusTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opts.CorpusTimeout)
}

func (s *Service) observe(m mode.Mode, start time.Time, errp *error) {
	status := "ok"
	if *errp != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(string(m), status).Inc()
	metrics.SearchDuration.WithLabelValues(string(m)).Observe(time.Since(start).Seconds())
}

// sortByScore orders results by score descending; ties keep fetch order.
func sortByScore(items []result.Result) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score() > items[j].Score() })
}

// corpusError classifies a store failure. Not-found passes through unchanged.
func corpusError(op string, err error) error {
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrCorpusUnavailable, err)
}

// embeddingError classifies a provider failure. Quota errors keep their own kind.
func embeddingError(err error) error {
	if errors.Is(err, domain.ErrEmbeddingQuotaExceeded) || errors.Is(err, domain.ErrEmbeddingProviderError) {
		return fmt.Errorf("vectorize query: %w", err)
	}
	return fmt.Errorf("vectorize query: %w: %w", domain.ErrEmbeddingProviderError, err)
}
