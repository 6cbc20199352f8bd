package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
	"github.com/kailas-cloud/knowhub/internal/logger"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 3 * time.Second

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded means the corpus serves but the embedding provider does not.
	Degraded Status = "degraded"
	// Unhealthy means the corpus is unreachable.
	Unhealthy Status = "error"
)

// CheckResult is the outcome of one component check.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Component names used as Report.Checks keys.
const (
	ComponentCorpus    = "corpus"
	ComponentEmbedding = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status    Status
	Checks    map[string]CheckResult
	Documents int
}

// Service coordinates health checks.
type Service struct {
	corpus    CorpusPinger
	counter   DocumentCounter
	embedding EmbeddingChecker
	timeout   time.Duration
}

// New creates a Service. counter and embedding can be nil.
func New(corpus CorpusPinger, counter DocumentCounter, embedding EmbeddingChecker) *Service {
	return &Service{
		corpus:    corpus,
		counter:   counter,
		embedding: embedding,
		timeout:   DefaultCheckTimeout,
	}
}

// Check probes all components concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		report = Report{Checks: make(map[string]CheckResult)}
	)
	set := func(name string, err error) {
		res := CheckOK
		if err != nil {
			res = CheckError
			logger.FromContext(ctx).Warn("Health check failed", zap.String("component", name), zap.Error(err))
		}
		mu.Lock()
		report.Checks[name] = res
		mu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		err := s.corpus.Ping(cctx)
		if err == nil && s.counter != nil {
			var n int
			if n, err = s.counter.Count(cctx, filter.Filter{}); err == nil {
				mu.Lock()
				report.Documents = n
				mu.Unlock()
			}
		}
		set(ComponentCorpus, err)
		return nil
	})
	if s.embedding != nil {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			set(ComponentEmbedding, s.embedding.HealthCheck(cctx))
			return nil
		})
	}
	_ = g.Wait()

	switch {
	case report.Checks[ComponentCorpus] == CheckError:
		report.Status = Unhealthy
	case report.Checks[ComponentEmbedding] == CheckError:
		report.Status = Degraded
	default:
		report.Status = Healthy
	}
	return report
}
