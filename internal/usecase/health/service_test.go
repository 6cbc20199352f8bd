package health

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
)

type mockPinger struct{ err error }

func (m *mockPinger) Ping(context.Context) error { return m.err }

type mockCounter struct {
	n   int
	err error
}

func (m *mockCounter) Count(context.Context, filter.Filter) (int, error) { return m.n, m.err }

type mockEmbeddingChecker struct{ err error }

func (m *mockEmbeddingChecker) HealthCheck(context.Context) error { return m.err }

func TestCheck(t *testing.T) {
	down := errors.New("conn refused")

	tests := []struct {
		name       string
		pingErr    error
		countErr   error
		embedErr   error
		noEmbedder bool
		wantStatus Status
		wantCorpus CheckResult
		wantEmbed  CheckResult
		wantDocs   int
	}{
		{name: "all healthy", wantStatus: Healthy, wantCorpus: CheckOK, wantEmbed: CheckOK, wantDocs: 42},
		{name: "embedding down", embedErr: down, wantStatus: Degraded, wantCorpus: CheckOK, wantEmbed: CheckError, wantDocs: 42},
		{name: "corpus down", pingErr: down, wantStatus: Unhealthy, wantCorpus: CheckError, wantEmbed: CheckOK},
		{name: "count fails", countErr: down, wantStatus: Unhealthy, wantCorpus: CheckError, wantEmbed: CheckOK},
		{name: "no embedder", noEmbedder: true, wantStatus: Healthy, wantCorpus: CheckOK, wantDocs: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var emb EmbeddingChecker
			if !tt.noEmbedder {
				emb = &mockEmbeddingChecker{err: tt.embedErr}
			}
			svc := New(&mockPinger{err: tt.pingErr}, &mockCounter{n: 42, err: tt.countErr}, emb)

			r := svc.Check(context.Background())
			if r.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", r.Status, tt.wantStatus)
			}
			if r.Checks[ComponentCorpus] != tt.wantCorpus {
				t.Errorf("corpus = %q, want %q", r.Checks[ComponentCorpus], tt.wantCorpus)
			}
			if got, ok := r.Checks[ComponentEmbedding]; tt.noEmbedder == ok || got != tt.wantEmbed {
				t.Errorf("embedding = %q (present=%v), want %q", got, ok, tt.wantEmbed)
			}
			if r.Documents != tt.wantDocs {
				t.Errorf("documents = %d, want %d", r.Documents, tt.wantDocs)
			}
		})
	}
}
