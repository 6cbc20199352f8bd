package author

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/knowhub/internal/db"
	domauthor "github.com/kailas-cloud/knowhub/internal/domain/author"
)

type mockStore struct {
	hsetMultiFn    func(ctx context.Context, items []db.HashSetItem) error
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func TestAuthors_SkipsMissing(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms, "kh:")
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		if keys[0] != "kh:user:u1" || keys[1] != "kh:user:ghost" {
			t.Errorf("keys = %v", keys)
		}
		return []map[string]string{{"name": "Ann", "email": "ann@example.com"}, {}}, nil
	}

	got, err := repo.Authors(context.Background(), []string{"u1", "ghost"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got["u1"] != (domauthor.Author{ID: "u1", Name: "Ann", Email: "ann@example.com"}) {
		t.Errorf("u1 = %+v", got["u1"])
	}
}

func TestAuthors_Empty(t *testing.T) {
	ms := &mockStore{hgetAllMultiFn: func(context.Context, []string) ([]map[string]string, error) {
		t.Fatal("store must not be called")
		return nil, nil
	}}
	got, err := New(ms, "").Authors(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestAuthors_StoreError(t *testing.T) {
	ms := &mockStore{hgetAllMultiFn: func(context.Context, []string) ([]map[string]string, error) {
		return nil, errors.New("down")
	}}
	if _, err := New(ms, "").Authors(context.Background(), []string{"u1"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestPutAuthors(t *testing.T) {
	ms := &mockStore{}
	var items []db.HashSetItem
	ms.hsetMultiFn = func(_ context.Context, in []db.HashSetItem) error {
		items = in
		return nil
	}

	err := New(ms, "kh:").PutAuthors(context.Background(), []domauthor.Author{{ID: "u1", Name: "Ann"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Key != "kh:user:u1" || items[0].Fields["name"] != "Ann" {
		t.Errorf("items = %+v", items)
	}
}
