package db

import (
	"context"
	"time"
)

// Store is everything knowhub keeps in Redis: JSON documents behind an FT
// index, the author directory as hashes, and plain counters and cache entries.
// Consumers declare the narrow subset they use.
type Store interface {
	Pinger
	DocumentStore
	DirectoryStore
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONSetItem is one document write in a pipelined JSON.SET.
type JSONSetItem struct {
	Key  string
	Path string
	Data []byte
}

// DocumentStore reads and writes JSON documents.
type DocumentStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONSetMulti(ctx context.Context, items []JSONSetItem) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}

// HashSetItem is one directory entry in a pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// DirectoryStore keeps flat records as hashes. HGetAllMulti returns an empty
// map for a missing key.
type DirectoryStore interface {
	HSetMulti(ctx context.Context, items []HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// KVStore holds cache entries and expiring counters.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// IncrByWithTTL adds val and starts ttl on the first increment only.
	IncrByWithTTL(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error)
}

// IndexManager creates FT indexes.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
}

// Searcher runs FT.SEARCH queries.
type Searcher interface {
	Search(ctx context.Context, q *SearchQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}
