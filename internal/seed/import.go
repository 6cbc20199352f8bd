package seed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/domain/author"
	"github.com/kailas-cloud/knowhub/internal/domain/document"
	"github.com/kailas-cloud/knowhub/internal/metrics"
)

// Defaults for ImportOptions.
const (
	DefaultWorkers       = 4
	DefaultRatePerSecond = 5
)

// Writer stores the imported snapshot.
type Writer interface {
	PutAuthors(ctx context.Context, authors []author.Author) error
	PutMany(ctx context.Context, docs []document.Document) error
}

// Embedder vectorizes document text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ImportOptions tune the embedding backfill. Zero values take the defaults.
type ImportOptions struct {
	Workers       int
	RatePerSecond float64
	// SkipEmbeddings stores documents as loaded.
	SkipEmbeddings bool
}

// ImportStats summarizes one import.
type ImportStats struct {
	Authors     int
	Documents   int
	Embedded    int
	EmbedFailed int
	Tokens      int64
}

// Import embeds the non-deleted documents that lack a vector, then writes
// the directory and the documents. A failed embedding leaves the document
// without a vector; it is still stored.
func Import(ctx context.Context, w Writer, ds Dataset, emb Embedder, opts ImportOptions, logger *zap.Logger) (ImportStats, error) {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = DefaultRatePerSecond
	}

	stats := ImportStats{Authors: len(ds.Authors), Documents: len(ds.Documents)}
	docs := make([]document.Document, len(ds.Documents))
	copy(docs, ds.Documents)

	if !opts.SkipEmbeddings && emb != nil {
		if err := backfill(ctx, docs, emb, opts, &stats, logger); err != nil {
			return stats, err
		}
	}

	if err := w.PutAuthors(ctx, ds.Authors); err != nil {
		return stats, fmt.Errorf("store authors: %w", err)
	}
	metrics.SeedAuthorsTotal.Add(float64(len(ds.Authors)))

	if err := w.PutMany(ctx, docs); err != nil {
		return stats, fmt.Errorf("store documents: %w", err)
	}
	metrics.SeedDocumentsTotal.WithLabelValues("stored").Add(float64(len(docs)))
	return stats, nil
}

func backfill(ctx context.Context, docs []document.Document, emb Embedder, opts ImportOptions, stats *ImportStats, logger *zap.Logger) error {
	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	limiter := rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Workers)

	var (
		wg       sync.WaitGroup
		embedded atomic.Int64
		failed   atomic.Int64
		tokens   atomic.Int64
	)
	for i := range docs {
		if docs[i].IsDeleted() || docs[i].HasEmbedding() {
			continue
		}
		wg.Add(1)
		// Each task owns docs[i].
		err := pool.Submit(func() {
			defer wg.Done()
			doc := &docs[i]
			if err := limiter.Wait(ctx); err != nil {
				failed.Add(1)
				return
			}
			res, err := emb.Embed(ctx, doc.EmbeddingText())
			if err != nil {
				failed.Add(1)
				metrics.SeedDocumentsTotal.WithLabelValues("embed_failed").Inc()
				logger.Warn("Embedding failed, storing without vector",
					zap.String("id", doc.ID()), zap.Error(err))
				return
			}
			docs[i] = doc.WithEmbedding(res.Embedding)
			embedded.Add(1)
			tokens.Add(int64(res.TotalTokens))
			metrics.SeedDocumentsTotal.WithLabelValues("embedded").Inc()
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return fmt.Errorf("submit embedding task: %w", err)
		}
	}
	wg.Wait()

	stats.Embedded = int(embedded.Load())
	stats.EmbedFailed = int(failed.Load())
	stats.Tokens = tokens.Load()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("backfill interrupted: %w", err)
	}
	return nil
}
