package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/knowhub/internal/domain"
	domanalytics "github.com/kailas-cloud/knowhub/internal/domain/analytics"
	"github.com/kailas-cloud/knowhub/internal/domain/author"
	"github.com/kailas-cloud/knowhub/internal/domain/document"
	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
)

// Corpus reads documents.
type Corpus interface {
	Find(ctx context.Context, f filter.Filter) ([]document.Document, error)
}

// AuthorDirectory resolves author ids.
type AuthorDirectory interface {
	Authors(ctx context.Context, ids []string) (map[string]author.Author, error)
}

// AuthorLister is implemented by directories that can list every author. When
// available, the author load runs concurrently with the document load.
type AuthorLister interface {
	AllAuthors(ctx context.Context) (map[string]author.Author, error)
}

// Options tune the analytics service.
type Options struct {
	// CorpusTimeout bounds the document and author loads; 0 leaves the request deadline alone.
	CorpusTimeout time.Duration
}

// Service aggregates corpus analytics in-process over one fetch.
type Service struct {
	corpus  Corpus
	authors AuthorDirectory
	opts    Options
	now     func() time.Time
}

// New creates an analytics service.
func New(corpus Corpus, authors AuthorDirectory, opts Options) *Service {
	return &Service{corpus: corpus, authors: authors, opts: opts, now: time.Now}
}

// Report builds tag, monthly, author and coverage analytics over non-deleted documents.
func (s *Service) Report(ctx context.Context) (domanalytics.Report, error) {
	docs, dir, err := s.load(ctx)
	if err != nil {
		return domanalytics.Report{}, err
	}
	return domanalytics.Build(docs, dir, s.now()), nil
}

// AIStats reports summary, tag and embedding coverage.
func (s *Service) AIStats(ctx context.Context) (domanalytics.AIStats, error) {
	ctx, cancel := s.corpusContext(ctx)
	defer cancel()

	docs, err := s.corpus.Find(ctx, filter.Filter{})
	if err != nil {
		return domanalytics.AIStats{}, fmt.Errorf("find documents: %w: %w", domain.ErrCorpusUnavailable, err)
	}
	return domanalytics.BuildAIStats(docs), nil
}

// load fetches documents and the creators' directory entries. With a listing
// directory both loads run concurrently, otherwise the join follows the fetch.
func (s *Service) load(ctx context.Context) ([]document.Document, map[string]author.Author, error) {
	ctx, cancel := s.corpusContext(ctx)
	defer cancel()

	lister, ok := s.authors.(AuthorLister)
	if !ok {
		docs, err := s.corpus.Find(ctx, filter.Filter{})
		if err != nil {
			return nil, nil, fmt.Errorf("find documents: %w: %w", domain.ErrCorpusUnavailable, err)
		}
		dir, err := s.authors.Authors(ctx, domanalytics.CreatorIDs(docs))
		if err != nil {
			return nil, nil, fmt.Errorf("load authors: %w: %w", domain.ErrCorpusUnavailable, err)
		}
		return docs, dir, nil
	}

	var (
		docs []document.Document
		dir  map[string]author.Author
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if docs, err = s.corpus.Find(gctx, filter.Filter{}); err != nil {
			return fmt.Errorf("find documents: %w: %w", domain.ErrCorpusUnavailable, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if dir, err = lister.AllAuthors(gctx); err != nil {
			return fmt.Errorf("load authors: %w: %w", domain.ErrCorpusUnavailable, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err //nolint:wrapcheck // classified inside the group
	}
	return docs, dir, nil
}

func (s *Service) corpusContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.CorpusTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opts.CorpusTimeout)
}
