package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/knowhub/internal/db"
	"github.com/kailas-cloud/knowhub/internal/domain"
)

const (
	DefaultLRUSize = 1024
	DefaultTTL     = 24 * time.Hour
)

type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configure the cache. Model and Dimensions are folded into every
// key, so switching either never serves vectors from the old space.
type Options struct {
	KeyPrefix  string // defaults to domain.KeyPrefix
	Model      string
	Dimensions int
	TTL        time.Duration
	LRUSize    int
}

// CachedEmbedder wraps a domain.Embedder with two cache tiers: an in-process
// LRU (L1) in front of an optional key-value store with TTL (L2). Hits report
// zero tokens.
type CachedEmbedder struct {
	next    domain.Embedder
	kv      kvStore
	l1      *lru.Cache[string, []float32]
	opts    Options
	results *prometheus.CounterVec
	logger  *zap.Logger
}

// New wraps next. kv may be nil for an L1-only cache; results, if set, is
// incremented with label "hit" or "miss".
func New(next domain.Embedder, kv kvStore, opts Options, results *prometheus.CounterVec, logger *zap.Logger) (*CachedEmbedder, error) {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = domain.KeyPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.LRUSize <= 0 {
		opts.LRUSize = DefaultLRUSize
	}

	l1, err := lru.New[string, []float32](opts.LRUSize)
	if err != nil {
		return nil, fmt.Errorf("embedding cache lru: %w", err)
	}
	return &CachedEmbedder{next: next, kv: kv, l1: l1, opts: opts, results: results, logger: logger}, nil
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if vec, ok := c.lookup(ctx, key); ok {
		c.count("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count("miss")

	res, err := c.next.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	c.store(ctx, key, res.Embedding)
	return res, nil
}

// Len reports the L1 entry count.
func (c *CachedEmbedder) Len() int { return c.l1.Len() }

// lookup checks L1, then L2; an L2 hit is promoted into L1. L2 failures are
// logged and treated as misses.
func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	if vec, ok := c.l1.Get(key); ok {
		return vec, true
	}
	if c.kv == nil {
		return nil, false
	}

	raw, err := c.kv.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		c.logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	case len(raw) == 0:
		return nil, false
	}

	vec, err := decodeVector(raw)
	if err != nil {
		c.logger.Warn("Embedding cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	c.l1.Add(key, vec)
	return vec, true
}

func (c *CachedEmbedder) store(ctx context.Context, key string, vec []float32) {
	c.l1.Add(key, vec)
	if c.kv == nil {
		return
	}
	if err := c.kv.SetWithTTL(ctx, key, encodeVector(vec), c.opts.TTL); err != nil {
		c.logger.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachedEmbedder) count(result string) {
	if c.results != nil {
		c.results.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(c.opts.Model + "\x00" + strconv.Itoa(c.opts.Dimensions) + "\x00" + text))
	return c.opts.KeyPrefix + "emb:" + hex.EncodeToString(sum[:])
}
