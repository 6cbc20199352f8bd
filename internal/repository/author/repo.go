package author

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/knowhub/internal/db"
	"github.com/kailas-cloud/knowhub/internal/domain"
	domauthor "github.com/kailas-cloud/knowhub/internal/domain/author"
)

// store is the consumer interface for the user directory (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Repo reads authors from user hashes.
type Repo struct {
	store  store
	prefix string
}

// New creates an author repository. An empty prefix falls back to domain.KeyPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// Authors resolves ids in one pipeline; ids without a hash are absent from the map.
func (r *Repo) Authors(ctx context.Context, ids []string) (map[string]domauthor.Author, error) {
	if len(ids) == 0 {
		return map[string]domauthor.Author{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.userKey(id)
	}

	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}

	out := make(map[string]domauthor.Author, len(ids))
	for i, row := range rows {
		if i >= len(ids) || len(row) == 0 {
			continue
		}
		out[ids[i]] = domauthor.Author{ID: ids[i], Name: row["name"], Email: row["email"]}
	}
	return out, nil
}

// PutAuthors writes user hashes.
func (r *Repo) PutAuthors(ctx context.Context, authors []domauthor.Author) error {
	if len(authors) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(authors))
	for i, a := range authors {
		items[i] = db.HashSetItem{
			Key:    r.userKey(a.ID),
			Fields: map[string]string{"name": a.Name, "email": a.Email},
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("store authors: %w", err)
	}
	return nil
}

func (r *Repo) userKey(id string) string {
	return r.prefix + "user:" + id
}
