package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/knowhub/internal/db"
)

// Search runs FT.SEARCH and decodes the RESP2 reply.
func (s *Store) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	args, err := q.Args()
	if err != nil {
		return nil, err
	}

	reply, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return decodeSearchReply(reply, q.Scorer != "")
}

// SearchCount returns how many documents match query without fetching any.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	res, err := s.Search(ctx, &db.SearchQuery{IndexName: index, Query: query})
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

// decodeSearchReply walks [total, key, (score,) fields, key, (score,) fields, ...].
// Malformed entries are skipped rather than failing the page.
func decodeSearchReply(reply []rueidis.RedisMessage, withScores bool) (*db.SearchResult, error) {
	out := &db.SearchResult{}
	if len(reply) == 0 {
		return out, nil
	}

	total, err := reply[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("search reply total: %w", err)
	}
	out.Total = int(total)

	width := 2
	if withScores {
		width = 3
	}
	rest := reply[1:]
	for ; len(rest) >= width; rest = rest[width:] {
		if e, ok := decodeEntry(rest[:width]); ok {
			out.Entries = append(out.Entries, e)
		}
	}
	return out, nil
}

func decodeEntry(parts []rueidis.RedisMessage) (db.SearchEntry, bool) {
	var e db.SearchEntry
	var err error

	if e.Key, err = parts[0].ToString(); err != nil {
		return e, false
	}
	if len(parts) == 3 {
		raw, err := parts[1].ToString()
		if err != nil {
			return e, false
		}
		if e.Score, err = strconv.ParseFloat(raw, 64); err != nil {
			return e, false
		}
	}

	pairs, err := parts[len(parts)-1].ToArray()
	if err != nil {
		return e, false
	}
	e.Fields = make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		k, kerr := pairs[i].ToString()
		v, verr := pairs[i+1].ToString()
		if kerr == nil && verr == nil {
			e.Fields[k] = v
		}
	}
	return e, true
}
