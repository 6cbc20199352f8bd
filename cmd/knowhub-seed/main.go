package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/knowhub/internal/config"
	dbRedis "github.com/kailas-cloud/knowhub/internal/db/redis"
	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/domain/author"
	"github.com/kailas-cloud/knowhub/internal/domain/document"
	logpkg "github.com/kailas-cloud/knowhub/internal/logger"
	"github.com/kailas-cloud/knowhub/internal/metrics"
	authorrepo "github.com/kailas-cloud/knowhub/internal/repository/author"
	documentrepo "github.com/kailas-cloud/knowhub/internal/repository/document"
	"github.com/kailas-cloud/knowhub/internal/repository/memory"
	"github.com/kailas-cloud/knowhub/internal/seed"
	openaiTransport "github.com/kailas-cloud/knowhub/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/knowhub/internal/usecase/embedding"
	"github.com/kailas-cloud/knowhub/internal/version"
)

const seedLongDesc = `Load authors and documents from a JSON snapshot into the configured corpus.

Documents without an embedding are embedded before they are stored. Embedding
calls run on a bounded worker pool behind a rate limiter.

Examples:
  knowhub-seed
  knowhub-seed --file data/seed.json --workers 8 --rate 10
  knowhub-seed --skip-embeddings
  knowhub-seed --dry-run`

type seedCommander struct {
	file           string
	workers        int
	rate           float64
	skipEmbeddings bool
	dryRun         bool
}

// redisWriter stores the directory and the documents in their repositories.
type redisWriter struct {
	authors *authorrepo.Repo
	docs    *documentrepo.Repo
}

func (w redisWriter) PutAuthors(ctx context.Context, authors []author.Author) error {
	return w.authors.PutAuthors(ctx, authors) //nolint:wrapcheck // repository errors carry the op
}

func (w redisWriter) PutMany(ctx context.Context, docs []document.Document) error {
	return w.docs.PutMany(ctx, docs) //nolint:wrapcheck // repository errors carry the op
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newSeedCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newSeedCmd() *cobra.Command {
	cmder := &seedCommander{}

	cmd := &cobra.Command{
		Use:          "knowhub-seed",
		Short:        "Seed the knowhub corpus",
		Long:         seedLongDesc,
		Args:         cobra.NoArgs,
		Version:      version.String(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", "Seed file (default: storage.seed_file)")
	cmd.Flags().IntVarP(&cmder.workers, "workers", "w", seed.DefaultWorkers, "Concurrent embedding calls")
	cmd.Flags().Float64VarP(&cmder.rate, "rate", "r", seed.DefaultRatePerSecond, "Embedding calls per second")
	cmd.Flags().BoolVar(&cmder.skipEmbeddings, "skip-embeddings", false, "Store documents as loaded")
	cmd.Flags().BoolVar(&cmder.dryRun, "dry-run", false, "Load and embed into memory without writing to the database")

	return cmd
}

func (c *seedCommander) run(ctx context.Context) error {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(logpkg.Options{
		Env:     env,
		Level:   cfg.Logging.Level,
		Service: "knowhub-seed",
		Version: version.Version,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	path := c.file
	if path == "" {
		path = cfg.Storage.SeedFile
	}
	if path == "" {
		return fmt.Errorf("no seed file: pass --file or set storage.seed_file")
	}

	ds, err := seed.LoadFile(path, time.Now())
	if err != nil {
		logger.Error("Failed to load seed file", zap.String("path", path), zap.Error(err))
		return err
	}
	logger.Info("Loaded seed file",
		zap.String("path", path),
		zap.Int("authors", len(ds.Authors)),
		zap.Int("documents", len(ds.Documents)),
	)

	writer, closeWriter, err := c.openWriter(ctx, &cfg, logger)
	if err != nil {
		logger.Error("Failed to open corpus", zap.Error(err))
		return err
	}
	defer closeWriter()

	reg := prometheus.NewRegistry()
	metrics.RegisterSeedMetrics(reg)
	metrics.RegisterEmbeddingMetrics()

	var embedder seed.Embedder
	if !c.skipEmbeddings {
		embedder = c.embedder(&cfg, logger)
	}

	start := time.Now()
	stats, err := seed.Import(ctx, writer, ds, embedder, seed.ImportOptions{
		Workers:        c.workers,
		RatePerSecond:  c.rate,
		SkipEmbeddings: c.skipEmbeddings,
	}, logger)
	if err != nil {
		logger.Error("Seed failed", zap.Error(err))
		return err
	}

	logger.Info("Seed complete",
		zap.Int("authors", stats.Authors),
		zap.Int("documents", stats.Documents),
		zap.Int("embedded", stats.Embedded),
		zap.Int("embed_failed", stats.EmbedFailed),
		zap.Int64("tokens", stats.Tokens),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("dry_run", c.dryRun),
	)
	reportCounters(reg, logger)
	return nil
}

func (c *seedCommander) openWriter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (seed.Writer, func(), error) {
	if c.dryRun || cfg.Database.Driver == config.DriverMemory {
		if !c.dryRun {
			logger.Warn("Memory driver configured, nothing will persist")
		}
		return memory.New(), func() {}, nil
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.Database.Addrs,
		Password:   cfg.Database.Password,
		ClientName: "knowhub-seed",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("database not ready: %w", err)
	}

	docs := documentrepo.New(store, cfg.Storage.KeyPrefix)
	if err := docs.EnsureIndex(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("ensure index: %w", err)
	}
	return redisWriter{authors: authorrepo.New(store, cfg.Storage.KeyPrefix), docs: docs}, store.Close, nil
}

// embedder builds the document chain without the query cache or a budget:
// seeding is an operator action and is throttled by the rate limiter instead.
func (c *seedCommander) embedder(cfg *config.Config, logger *zap.Logger) domain.Embedder {
	prov := cfg.Embedding.Provider
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     prov.APIKey,
		BaseURL:    prov.BaseURL,
		Model:      prov.Model,
		Dimensions: prov.Dimensions,
		Provider:   prov.Name,
		Timeout:    time.Duration(prov.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	instrumented := embeddinguc.NewInstrumentedEmbedder(base, prov.Name, prov.Model, nil, logger)
	return domain.NewInstructionEmbedder(instrumented, prov.DocumentInstruction)
}

func reportCounters(reg prometheus.Gatherer, logger *zap.Logger) {
	families, err := reg.Gather()
	if err != nil {
		logger.Warn("Failed to gather seed metrics", zap.Error(err))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fields := []zap.Field{zap.String("metric", mf.GetName()), zap.Float64("value", m.GetCounter().GetValue())}
			for _, lp := range m.GetLabel() {
				fields = append(fields, zap.String(lp.GetName(), lp.GetValue()))
			}
			logger.Info("seed_metric", fields...)
		}
	}
}
