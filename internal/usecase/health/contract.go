package health

import (
	"context"

	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
)

// CorpusPinger and DocumentCounter are usually the same document store.
type CorpusPinger interface {
	Ping(ctx context.Context) error
}

type DocumentCounter interface {
	Count(ctx context.Context, f filter.Filter) (int, error)
}

// EmbeddingChecker is optional; without one the report skips the provider.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
