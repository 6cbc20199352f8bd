package chi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/domain/author"
	"github.com/kailas-cloud/knowhub/internal/domain/document"
	"github.com/kailas-cloud/knowhub/internal/repository/memory"
	analyticsuc "github.com/kailas-cloud/knowhub/internal/usecase/analytics"
	documentuc "github.com/kailas-cloud/knowhub/internal/usecase/document"
	healthuc "github.com/kailas-cloud/knowhub/internal/usecase/health"
	qauc "github.com/kailas-cloud/knowhub/internal/usecase/qa"
	searchuc "github.com/kailas-cloud/knowhub/internal/usecase/search"
)

var base = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

// keywordEmbedder maps texts mentioning "react" and "go" onto orthogonal axes.
type keywordEmbedder struct {
	err error
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	t := strings.ToLower(text)
	v := []float32{0, 0, 0.1}
	if strings.Contains(t, "react") {
		v[0] = 1
	}
	if strings.Contains(t, "go") {
		v[1] = 1
	}
	return domain.EmbeddingResult{Embedding: v, TotalTokens: 3}, nil
}

type stubAnswerer struct {
	answer string
	err    error
	docs   int
}

func (a *stubAnswerer) Answer(_ context.Context, _ string, docs []document.Document) (string, error) {
	a.docs = len(docs)
	return a.answer, a.err
}

type testEnv struct {
	store    *memory.Store
	embedder *keywordEmbedder
	answerer *stubAnswerer
	handler  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	emb := &keywordEmbedder{}

	if err := store.PutAuthors(ctx, []author.Author{
		{ID: "u1", Name: "Ann", Email: "ann@example.com"},
		{ID: "u2", Name: "Bob", Email: "bob@example.com"},
	}); err != nil {
		t.Fatal(err)
	}

	specs := []struct {
		id, title, content, by string
		tags                   []string
		embed                  bool
	}{
		{"react-hooks", "React hooks", "useState and useEffect in React", "u1", []string{"react", "frontend"}, true},
		{"go-chan", "Go channels", "select over goroutines", "u2", []string{"go"}, true},
		{"no-vec", "React notes", "scratch notes", "u1", []string{"react"}, false},
	}
	docs := make([]document.Document, 0, len(specs))
	for i, sp := range specs {
		d, err := document.New(sp.id, sp.title, sp.content, "", sp.tags, sp.by, base.Add(time.Duration(i)*time.Hour))
		if err != nil {
			t.Fatal(err)
		}
		if sp.embed {
			res, _ := emb.Embed(ctx, d.EmbeddingText())
			d = d.WithEmbedding(res.Embedding)
		}
		docs = append(docs, d)
	}
	if err := store.PutMany(ctx, docs); err != nil {
		t.Fatal(err)
	}

	ans := &stubAnswerer{answer: "Use hooks."}
	srv := NewServer(
		searchuc.New(store, store, store, emb, searchuc.Options{}),
		documentuc.New(store, store, emb),
		analyticsuc.New(store, store, analyticsuc.Options{}),
		qauc.New(store, emb, ans, qauc.Options{}),
		healthuc.New(store, store, nil),
	)
	return &testEnv{
		store:    store,
		embedder: emb,
		answerer: ans,
		handler:  NewRouter(srv, zap.NewNop(), nil),
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code ErrorCode) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, status, rr.Body.String())
	}
	resp := decode[ErrorResponse](t, rr)
	if resp.Code != code {
		t.Errorf("code = %q, want %q", resp.Code, code)
	}
}
