package chi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
	healthuc "github.com/kailas-cloud/knowhub/internal/usecase/health"
)

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[healthResponse](t, rr)
	if resp.Status != healthuc.Healthy || resp.Documents != 3 {
		t.Errorf("health = %+v", resp)
	}
	if resp.Version == "" {
		t.Error("health should report the build version")
	}
}

type downCorpus struct{}

func (downCorpus) Ping(context.Context) error { return errors.New("connection refused") }

func (downCorpus) Count(context.Context, filter.Filter) (int, error) {
	return 0, errors.New("connection refused")
}

func TestHealthCheck_CorpusDown(t *testing.T) {
	srv := NewServer(nil, nil, nil, nil, healthuc.New(downCorpus{}, downCorpus{}, nil))
	h := NewRouter(srv, zap.NewNop(), nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	if resp := decode[healthResponse](t, rr); resp.Status != healthuc.Unhealthy {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/nothing", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
	rr = env.do(t, http.MethodDelete, "/api/search/text", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}

func TestHandleDomainError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    ErrorCode
		message string
	}{
		{"validation detail", fmt.Errorf("%w: limit must be positive", domain.ErrInvalidRequest), http.StatusBadRequest, CodeBadRequest, "limit must be positive"},
		{"query required", domain.ErrQueryRequired, http.StatusBadRequest, CodeQueryRequired, domain.ErrQueryRequired.Error()},
		{"reference required", domain.ErrReferenceRequired, http.StatusBadRequest, CodeReferenceRequired, domain.ErrReferenceRequired.Error()},
		{"not found", fmt.Errorf("get: %w", domain.ErrDocumentNotFound), http.StatusNotFound, CodeDocumentNotFound, domain.ErrDocumentNotFound.Error()},
		{"reference unavailable", domain.ErrReferenceUnavailable, http.StatusNotFound, CodeReferenceUnavailable, domain.ErrReferenceUnavailable.Error()},
		{"quota", domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, CodeEmbeddingQuotaExceeded, domain.ErrEmbeddingQuotaExceeded.Error()},
		{"embedding hides cause", fmt.Errorf("%w: key sk-123 rejected", domain.ErrEmbeddingProviderError), http.StatusBadGateway, CodeEmbeddingProviderError, domain.ErrEmbeddingProviderError.Error()},
		{"answer", domain.ErrAnswerProviderError, http.StatusBadGateway, CodeAnswerProviderError, domain.ErrAnswerProviderError.Error()},
		{"corpus", fmt.Errorf("%w: dial tcp", domain.ErrCorpusUnavailable), http.StatusBadGateway, CodeCorpusUnavailable, domain.ErrCorpusUnavailable.Error()},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternalError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handleDomainError(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody), tt.err)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			resp := decode[ErrorResponse](t, rr)
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
			if !strings.Contains(resp.Message, tt.message) {
				t.Errorf("message = %q, want containing %q", resp.Message, tt.message)
			}
			if tt.code != CodeBadRequest && strings.Contains(resp.Message, "sk-123") {
				t.Error("provider detail leaked")
			}
		})
	}
}

func TestRecoverer(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if resp := decode[ErrorResponse](t, rr); resp.Code != CodeInternalError {
		t.Errorf("code = %q", resp.Code)
	}
}
