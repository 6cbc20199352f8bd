package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knowhub/internal/config"
	dbRedis "github.com/kailas-cloud/knowhub/internal/db/redis"
	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/domain/document"
	"github.com/kailas-cloud/knowhub/internal/domain/search/filter"
	logpkg "github.com/kailas-cloud/knowhub/internal/logger"
	"github.com/kailas-cloud/knowhub/internal/metrics"
	authorrepo "github.com/kailas-cloud/knowhub/internal/repository/author"
	budgetrepo "github.com/kailas-cloud/knowhub/internal/repository/budget"
	documentrepo "github.com/kailas-cloud/knowhub/internal/repository/document"
	"github.com/kailas-cloud/knowhub/internal/repository/embcache"
	"github.com/kailas-cloud/knowhub/internal/repository/memory"
	searchrepo "github.com/kailas-cloud/knowhub/internal/repository/search"
	"github.com/kailas-cloud/knowhub/internal/seed"
	chiTransport "github.com/kailas-cloud/knowhub/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/knowhub/internal/transport/openai"
	analyticsuc "github.com/kailas-cloud/knowhub/internal/usecase/analytics"
	documentuc "github.com/kailas-cloud/knowhub/internal/usecase/document"
	embeddinguc "github.com/kailas-cloud/knowhub/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/knowhub/internal/usecase/health"
	qauc "github.com/kailas-cloud/knowhub/internal/usecase/qa"
	searchuc "github.com/kailas-cloud/knowhub/internal/usecase/search"
	"github.com/kailas-cloud/knowhub/internal/version"
)

// corpusStore is what the document, search and health services need from storage.
type corpusStore interface {
	searchuc.Corpus
	Put(ctx context.Context, doc *document.Document) error
	Count(ctx context.Context, f filter.Filter) (int, error)
}

// cacheStore is the KV tier of the query-embedding cache.
type cacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// backend is the storage wiring selected by database.driver.
type backend struct {
	corpus  corpusStore
	text    searchuc.TextSearcher
	authors searchuc.AuthorDirectory
	pinger  healthuc.CorpusPinger
	kv      cacheStore
	budget  embeddinguc.BudgetStore
	close   func()
}

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(logpkg.Options{
		Env:     env,
		Level:   cfg.Logging.Level,
		Service: "knowhub",
		Version: version.Version,
	})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting knowhub API server",
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	ctx := context.Background()

	var be backend
	switch cfg.Database.Driver {
	case config.DriverRedis:
		be, err = newRedisBackend(ctx, &cfg, logger)
	case config.DriverMemory:
		be, err = newMemoryBackend(ctx, &cfg, logger)
	default:
		err = fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer be.close()

	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	prov := cfg.Embedding.Provider
	if prov.APIKey == "" {
		logger.Warn("Embedding API key is empty, semantic features will fail")
	}

	var budget embeddinguc.Budget
	if cfg.Embedding.Budget.Enabled() {
		tracker := embeddinguc.NewBudgetTracker(embeddinguc.BudgetOptions{
			Provider:     prov.Name,
			KeyPrefix:    cfg.Storage.KeyPrefix,
			DailyLimit:   cfg.Embedding.Budget.DailyTokenLimit,
			MonthlyLimit: cfg.Embedding.Budget.MonthlyTokenLimit,
			Action:       embeddinguc.BudgetAction(cfg.Embedding.Budget.Action),
		}, logger)
		if be.budget != nil {
			tracker.WithStore(ctx, be.budget)
		}
		// Assigned only when configured: a typed nil pointer would be a non-nil Budget.
		budget = tracker
	}

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     prov.APIKey,
		BaseURL:    prov.BaseURL,
		Model:      prov.Model,
		Dimensions: prov.Dimensions,
		Provider:   prov.Name,
		Timeout:    time.Duration(prov.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	docEmbedder, err := buildEmbedder(base, false, nil, &cfg, prov.DocumentInstruction, budget, logger)
	if err != nil {
		logger.Fatal("Failed to build document embedder", zap.Error(err))
	}
	queryEmbedder, err := buildEmbedder(base, cfg.Embedding.Cache.Enabled, be.kv, &cfg, prov.QueryInstruction, budget, logger)
	if err != nil {
		logger.Fatal("Failed to build query embedder", zap.Error(err))
	}
	logger.Info("Embedders created",
		zap.String("provider", prov.Name),
		zap.String("model", prov.Model),
		zap.Int("dimensions", prov.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache.Enabled),
	)

	answerer := openaiTransport.NewAnswerer(&openaiTransport.Config{
		APIKey:    prov.APIKey,
		BaseURL:   prov.BaseURL,
		ChatModel: cfg.Answer.Model,
		Provider:  prov.Name,
		Timeout:   time.Duration(cfg.Answer.TimeoutSec) * time.Second,
		Logger:    logger,
	})

	searchSvc := searchuc.New(be.corpus, be.text, be.authors, queryEmbedder, searchuc.Options{
		SemanticThreshold: cfg.Search.SemanticThreshold,
		SimilarThreshold:  cfg.Search.SimilarThreshold,
		CorpusTimeout:     cfg.Search.CorpusTimeout(),
	})
	docSvc := documentuc.New(be.corpus, be.authors, docEmbedder).
		WithEmbedTimeout(cfg.Search.EnrichmentTimeout()).
		WithCorpusTimeout(cfg.Search.CorpusTimeout())
	analyticsSvc := analyticsuc.New(be.corpus, be.authors, analyticsuc.Options{
		CorpusTimeout: cfg.Search.CorpusTimeout(),
	})
	qaSvc := qauc.New(be.corpus, queryEmbedder, answerer, qauc.Options{
		MaxContextDocs:     cfg.Answer.MaxContextDocs,
		RelevanceThreshold: cfg.Answer.RelevanceThreshold,
		EnrichmentTimeout:  cfg.Search.EnrichmentTimeout(),
		CorpusTimeout:      cfg.Search.CorpusTimeout(),
	})

	var embeddingCheck healthuc.EmbeddingChecker
	if prov.APIKey != "" {
		embeddingCheck = base
	}
	healthSvc := healthuc.New(be.pinger, be.corpus, embeddingCheck)

	server := chiTransport.NewServer(searchSvc, docSvc, analyticsSvc, qaSvc, healthSvc)
	handler := chiTransport.NewRouter(server, logger, cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func newRedisBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (backend, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return backend{}, fmt.Errorf("create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return backend{}, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	docs := documentrepo.New(store, cfg.Storage.KeyPrefix)
	if err := docs.EnsureIndex(ctx); err != nil {
		store.Close()
		return backend{}, fmt.Errorf("ensure index: %w", err)
	}

	return backend{
		corpus:  docs,
		text:    searchrepo.New(store, docs.IndexName()),
		authors: authorrepo.New(store, cfg.Storage.KeyPrefix),
		pinger:  store,
		kv:      store,
		budget:  budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour),
		close:   store.Close,
	}, nil
}

func newMemoryBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (backend, error) {
	store := memory.New()
	if path := cfg.Storage.SeedFile; path != "" {
		ds, err := seed.LoadFile(path, time.Now())
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("Seed file not found, starting empty", zap.String("path", path))
		case err != nil:
			return backend{}, fmt.Errorf("load seed: %w", err)
		default:
			if err := store.PutAuthors(ctx, ds.Authors); err != nil {
				return backend{}, fmt.Errorf("seed authors: %w", err)
			}
			if err := store.PutMany(ctx, ds.Documents); err != nil {
				return backend{}, fmt.Errorf("seed documents: %w", err)
			}
			logger.Info("Seeded in-memory corpus",
				zap.String("path", path),
				zap.Int("authors", len(ds.Authors)),
				zap.Int("documents", len(ds.Documents)),
			)
		}
	}

	return backend{
		corpus:  store,
		text:    store,
		authors: store,
		pinger:  store,
		close:   func() {},
	}, nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
// A cached chain without kv keeps only the in-process LRU tier.
func buildEmbedder(
	base domain.Embedder,
	cache bool,
	kv cacheStore,
	cfg *config.Config,
	instruction string,
	budget embeddinguc.Budget,
	logger *zap.Logger,
) (domain.Embedder, error) {
	prov := cfg.Embedding.Provider

	embedder := base
	if cache {
		cached, err := embcache.New(base, kv, embcache.Options{
			KeyPrefix:  cfg.Storage.KeyPrefix,
			Model:      prov.Model,
			Dimensions: prov.Dimensions,
			TTL:        cfg.Embedding.Cache.TTL(),
			LRUSize:    cfg.Embedding.Cache.LRUSize,
		}, metrics.EmbeddingCacheTotal, logger)
		if err != nil {
			return nil, fmt.Errorf("embedding cache: %w", err)
		}
		embedder = cached
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, prov.Name, prov.Model, budget, logger)

	// Outermost, so cache keys include the instruction.
	return domain.NewInstructionEmbedder(embedder, instruction), nil
}
