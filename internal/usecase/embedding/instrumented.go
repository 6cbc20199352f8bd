package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/logger"
	"github.com/kailas-cloud/knowhub/internal/metrics"
)

// Budget is what InstrumentedEmbedder needs from a BudgetTracker.
type Budget interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// InstrumentedEmbedder gates provider calls on the token budget, records what
// they spend and logs each call through the request logger. Transport-level
// request counters are kept by the provider client.
type InstrumentedEmbedder struct {
	next     domain.Embedder
	provider string
	model    string
	budget   Budget
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps next. budget may be nil to skip enforcement.
func NewInstrumentedEmbedder(next domain.Embedder, provider, model string, budget Budget, logger *zap.Logger) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{next: next, provider: provider, model: model, budget: budget, logger: logger}
}

func (e *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	log := logger.FromContextOr(ctx, e.logger).With(
		zap.String("provider", e.provider),
		zap.String("model", e.model),
	)

	if e.budget != nil {
		if err := e.budget.Check(ctx); err != nil {
			log.Warn("Embedding refused by budget", zap.Error(err))
			return domain.EmbeddingResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	res, err := e.next.Embed(ctx, text)
	took := time.Since(start)
	if err != nil {
		log.Error("Embedding failed", zap.Duration("duration", took), zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	e.spend(res.TotalTokens)
	log.Debug("Embedded text",
		zap.Duration("duration", took),
		zap.Int("dimensions", len(res.Embedding)),
		zap.Int("total_tokens", res.TotalTokens),
		zap.Int("text_len", len(text)),
	)
	return res, nil
}

func (e *InstrumentedEmbedder) spend(tokens int) {
	if e.budget == nil || tokens <= 0 {
		return
	}
	e.budget.Record(int64(tokens))
	remaining := metrics.EmbeddingBudgetTokensRemaining
	remaining.WithLabelValues(e.provider, "daily").Set(float64(e.budget.RemainingDaily()))
	remaining.WithLabelValues(e.provider, "monthly").Set(float64(e.budget.RemainingMonthly()))
}
