package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/knowhub/internal/db"
)

type counterStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrByWithTTL(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error)
}

// Store keeps embedding token counters per period. Daily and monthly keys
// expire on their own so old periods never need cleanup.
type Store struct {
	kv       counterStore
	dailyTTL time.Duration
	monthTTL time.Duration
}

// New returns a Store. Keys containing ":daily:" live for dailyTTL, all
// others for monthTTL.
func New(kv counterStore, dailyTTL, monthTTL time.Duration) *Store {
	return &Store{kv: kv, dailyTTL: dailyTTL, monthTTL: monthTTL}
}

// IncrBy adds val tokens to the counter at key.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if _, err := s.kv.IncrByWithTTL(ctx, key, val, s.ttl(key)); err != nil {
		return fmt.Errorf("budget add %s: %w", key, err)
	}
	return nil
}

// Get returns the counter at key; a counter that was never written reads as 0.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	raw, err := s.kv.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("budget read %s: %w", key, err)
	}

	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget counter %s is not an integer: %w", key, err)
	}
	return n, nil
}

func (s *Store) ttl(key string) time.Duration {
	if strings.Contains(key, ":daily:") {
		return s.dailyTTL
	}
	return s.monthTTL
}
