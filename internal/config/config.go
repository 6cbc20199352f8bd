package config

import (
	"fmt"
	"time"
)

// Database drivers.
const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config holds the knowhub API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Answer    AnswerConfig    `yaml:"answer"`
	Search    SearchConfig    `yaml:"search"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds corpus storage connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, memory (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds key layout and seed settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
	// SeedFile is loaded at startup by the memory driver and by knowhub-seed.
	SeedFile string `yaml:"seed_file"`
}

// EmbeddingConfig holds embedding provider, budget and cache settings.
type EmbeddingConfig struct {
	Provider ProviderConfig `yaml:"provider"`
	Budget   BudgetConfig   `yaml:"budget"`
	Cache    CacheConfig    `yaml:"cache"`
}

// ProviderConfig holds the OpenAI-compatible provider settings.
type ProviderConfig struct {
	Name                string `yaml:"name"`
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	TimeoutSec          int    `yaml:"timeout_sec"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// Enabled reports whether any limit is set.
func (b BudgetConfig) Enabled() bool {
	return b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0
}

// CacheConfig holds query-embedding cache settings.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled"`
	TTLHours int  `yaml:"ttl_hours"`
	LRUSize  int  `yaml:"lru_size"`
}

// TTL returns the KV tier expiry.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLHours) * time.Hour }

// AnswerConfig holds Q&A generation settings.
type AnswerConfig struct {
	Model              string  `yaml:"model"`
	MaxContextDocs     int     `yaml:"max_context_docs"`
	RelevanceThreshold float64 `yaml:"relevance_threshold"`
	TimeoutSec         int     `yaml:"timeout_sec"`
}

// SearchConfig holds ranking thresholds and timeouts.
type SearchConfig struct {
	SemanticThreshold   float64 `yaml:"semantic_threshold"`
	SimilarThreshold    float64 `yaml:"similar_threshold"`
	EnrichmentTimeoutMs int     `yaml:"enrichment_timeout_ms"`
	CorpusTimeoutMs     int     `yaml:"corpus_timeout_ms"`
}

// EnrichmentTimeout bounds best-effort embedding calls.
func (s SearchConfig) EnrichmentTimeout() time.Duration {
	return time.Duration(s.EnrichmentTimeoutMs) * time.Millisecond
}

// CorpusTimeout bounds every corpus call.
func (s SearchConfig) CorpusTimeout() time.Duration {
	return time.Duration(s.CorpusTimeoutMs) * time.Millisecond
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "knowhub:"
	}
	if c.Embedding.Provider.Name == "" {
		c.Embedding.Provider.Name = "openai"
	}
	if c.Embedding.Provider.Model == "" {
		c.Embedding.Provider.Model = "text-embedding-3-small"
	}
	if c.Embedding.Provider.TimeoutSec <= 0 {
		c.Embedding.Provider.TimeoutSec = 5
	}
	if c.Embedding.Budget.Action == "" {
		c.Embedding.Budget.Action = "warn"
	}
	if c.Embedding.Cache.TTLHours <= 0 {
		c.Embedding.Cache.TTLHours = 24 * 7
	}
	if c.Embedding.Cache.LRUSize <= 0 {
		c.Embedding.Cache.LRUSize = 1024
	}
	if c.Answer.Model == "" {
		c.Answer.Model = "gpt-3.5-turbo"
	}
	if c.Answer.MaxContextDocs <= 0 {
		c.Answer.MaxContextDocs = 20
	}
	if c.Answer.RelevanceThreshold <= 0 {
		c.Answer.RelevanceThreshold = 0.3
	}
	if c.Answer.TimeoutSec <= 0 {
		c.Answer.TimeoutSec = 30
	}
	if c.Search.SemanticThreshold <= 0 {
		c.Search.SemanticThreshold = 0.3
	}
	if c.Search.SimilarThreshold <= 0 {
		c.Search.SimilarThreshold = 0.1
	}
	if c.Search.EnrichmentTimeoutMs <= 0 {
		c.Search.EnrichmentTimeoutMs = 5000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", DriverRedis)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverRedis, DriverMemory, c.Database.Driver)
	}
	switch c.Embedding.Budget.Action {
	case "warn", "reject":
	default:
		return fmt.Errorf("embedding.budget.action must be \"warn\" or \"reject\", got %q", c.Embedding.Budget.Action)
	}
	if c.Embedding.Provider.Dimensions < 0 {
		return fmt.Errorf("embedding.provider.dimensions must not be negative, got %d", c.Embedding.Provider.Dimensions)
	}
	for name, v := range map[string]float64{
		"search.semantic_threshold":  c.Search.SemanticThreshold,
		"search.similar_threshold":   c.Search.SimilarThreshold,
		"answer.relevance_threshold": c.Answer.RelevanceThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
		}
	}
	return nil
}
