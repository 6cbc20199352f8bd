package qa

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/domain/document"
	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
	"github.com/kailas-cloud/knowhub/internal/domain/vector"
	"github.com/kailas-cloud/knowhub/internal/logger"
	"github.com/kailas-cloud/knowhub/internal/metrics"
)

// NoDocumentsAnswer is returned when the corpus offers no context at all.
const NoDocumentsAnswer = "I don't have access to any documents to answer your question. " +
	"Please create some documents first."

// Defaults for Options.
const (
	DefaultMaxContextDocs     = 20
	DefaultRelevanceThreshold = 0.3
	DefaultEnrichmentTimeout  = 2 * time.Second
	relevantCandidates        = 10
	relevantTop               = 3
)

// Corpus reads documents, most recently updated first.
type Corpus interface {
	Find(ctx context.Context, f filter.Filter) ([]document.Document, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Answerer produces a natural-language answer grounded in the given documents.
type Answerer interface {
	Answer(ctx context.Context, question string, docs []document.Document) (string, error)
}

// Options tune Q&A. Zero values take the defaults.
type Options struct {
	MaxContextDocs     int
	RelevanceThreshold float64
	EnrichmentTimeout  time.Duration
	// CorpusTimeout bounds the context load; 0 leaves the request deadline alone.
	CorpusTimeout time.Duration
}

// Request is a validated question.
type Request struct {
	Question       string
	IncludeDeleted bool
}

// RelevantDocument is a context document close to the question.
type RelevantDocument struct {
	ID         string
	Title      string
	Summary    string
	Similarity float64
}

// Answer is the Q&A outcome.
type Answer struct {
	Question      string
	Answer        string
	DocumentsUsed int
	// Relevant is nil when the enrichment failed or found nothing.
	Relevant []RelevantDocument
}

// Service answers questions over the most recent documents.
type Service struct {
	corpus   Corpus
	embed    Embedder
	answerer Answerer
	opts     Options
}

// New creates a Q&A service.
func New(corpus Corpus, embed Embedder, answerer Answerer, opts Options) *Service {
	if opts.MaxContextDocs <= 0 {
		opts.MaxContextDocs = DefaultMaxContextDocs
	}
	if opts.RelevanceThreshold <= 0 {
		opts.RelevanceThreshold = DefaultRelevanceThreshold
	}
	if opts.EnrichmentTimeout <= 0 {
		opts.EnrichmentTimeout = DefaultEnrichmentTimeout
	}
	return &Service{corpus: corpus, embed: embed, answerer: answerer, opts: opts}
}

// Ask answers req.Question using up to MaxContextDocs recent documents as context,
// then looks for the documents most similar to the question within its own timeout.
func (s *Service) Ask(ctx context.Context, req Request) (Answer, error) {
	q := strings.TrimSpace(req.Question)
	if q == "" {
		return Answer{}, fmt.Errorf("%w: question is required", domain.ErrInvalidRequest)
	}

	docs, err := s.contextDocs(ctx, req.IncludeDeleted)
	if err != nil {
		return Answer{}, fmt.Errorf("load context: %w: %w", domain.ErrCorpusUnavailable, err)
	}
	if len(docs) == 0 {
		return Answer{Question: q, Answer: NoDocumentsAnswer}, nil
	}

	text, err := s.answerer.Answer(ctx, q, docs)
	if err != nil {
		if errors.Is(err, domain.ErrAnswerProviderError) {
			return Answer{}, fmt.Errorf("answer: %w", err)
		}
		return Answer{}, fmt.Errorf("answer: %w: %w", domain.ErrAnswerProviderError, err)
	}

	out := Answer{Question: q, Answer: text, DocumentsUsed: len(docs)}

	relevant, err := s.relevant(ctx, q, req.IncludeDeleted)
	if err != nil {
		metrics.EnrichmentFailuresTotal.WithLabelValues("qa_relevant").Inc()
		logger.FromContext(ctx).Warn("Relevant documents lookup failed", zap.Error(err))
	} else {
		out.Relevant = relevant
	}
	return out, nil
}

func (s *Service) contextDocs(ctx context.Context, includeDeleted bool) ([]document.Document, error) {
	if s.opts.CorpusTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.CorpusTimeout)
		defer cancel()
	}
	return s.corpus.Find(ctx, filter.Filter{IncludeDeleted: includeDeleted, Limit: s.opts.MaxContextDocs}) //nolint:wrapcheck // classified by Ask
}

func (s *Service) relevant(ctx context.Context, question string, includeDeleted bool) ([]RelevantDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.EnrichmentTimeout)
	defer cancel()

	emb, err := s.embed.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

	docs, err := s.corpus.Find(ctx, filter.Filter{
		IncludeDeleted: includeDeleted,
		EmbeddedOnly:   true,
		Limit:          relevantCandidates,
	})
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	var out []RelevantDocument
	for i := range docs {
		sim := vector.Cosine(emb.Embedding, docs[i].Embedding())
		if sim > s.opts.RelevanceThreshold {
			out = append(out, RelevantDocument{
				ID:         docs[i].ID(),
				Title:      docs[i].Title(),
				Summary:    docs[i].Summary(),
				Similarity: sim,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > relevantTop {
		out = out[:relevantTop]
	}
	return out, nil
}
