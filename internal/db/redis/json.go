package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/knowhub/internal/db"
)

func (s *Store) jsonSet(item db.JSONSetItem) rueidis.Completed {
	return s.b().Arbitrary("JSON.SET").Keys(item.Key).Args(item.Path, string(item.Data)).Build()
}

// JSONSet writes data at path of the document stored under key.
func (s *Store) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if err := s.do(ctx, s.jsonSet(db.JSONSetItem{Key: key, Path: path, Data: data})).Error(); err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: fmt.Errorf("key %s: %w", key, err)}
	}
	return nil
}

// JSONSetMulti pipelines one JSON.SET per item and reports the first failure.
func (s *Store) JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, 0, len(items))
	for _, it := range items {
		cmds = append(cmds, s.jsonSet(it))
	}
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpJSONSet, Err: fmt.Errorf("key %s: %w", items[i].Key, err)}
		}
	}
	return nil
}

// JSONGet reads paths (the whole document when none) of key.
// A missing key yields db.ErrKeyNotFound.
func (s *Store) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	raw, err := s.do(ctx, s.b().Arbitrary("JSON.GET").Keys(key).Args(paths...).Build()).ToString()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpJSONGet, Err: fmt.Errorf("key %s: %w", key, err)}
	case raw == "":
		return nil, db.ErrKeyNotFound
	}
	return []byte(raw), nil
}
