package domain

import "context"

type usageCtxKey struct{}

// EmbeddingUsage accumulates the embedding tokens one request consumed so the
// transport can report them in X-Embedding-Tokens. Used stays true after a
// cached call that cost zero tokens.
type EmbeddingUsage struct {
	TotalTokens int
	Used        bool
}

// NewContextWithUsage attaches a fresh collector to ctx and returns both.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := new(EmbeddingUsage)
	return context.WithValue(ctx, usageCtxKey{}, u), u
}

// UsageFromContext returns the request's collector, or nil outside a request.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	if u, ok := ctx.Value(usageCtxKey{}).(*EmbeddingUsage); ok {
		return u
	}
	return nil
}

// AddTokens is a no-op on a nil collector.
func (u *EmbeddingUsage) AddTokens(n int) {
	if u == nil {
		return
	}
	u.Used = true
	u.TotalTokens += n
}
