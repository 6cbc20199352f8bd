package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/knowhub/internal/domain"
)

// Config holds the settings of an OpenAI-compatible endpoint. BaseURL may
// point at any provider speaking the same API.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	ChatModel  string
	Dimensions int
	User       string
	Provider   string        // metrics label, e.g. "openai"
	Timeout    time.Duration // per HTTP call; 0 disables the client-side limit
	Logger     *zap.Logger
}

func newClient(cfg *Config) *openai.Client {
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		c.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return openai.NewClientWithConfig(c)
}

// healthCheck lists models, which reaches the provider without spending tokens.
func healthCheck(ctx context.Context, c *openai.Client) error {
	if _, err := c.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// providerError wraps err with sentinel and the most useful message the
// provider returned. An exhausted provider quota on the embedding side maps
// to domain.ErrEmbeddingQuotaExceeded instead.
func providerError(op string, err, sentinel error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s request: %w: %w", op, sentinel, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Type == "insufficient_quota" && errors.Is(sentinel, domain.ErrEmbeddingProviderError) {
			sentinel = domain.ErrEmbeddingQuotaExceeded
		}
		return fmt.Errorf("%s: provider returned %d: %s: %w", op, apiErr.HTTPStatusCode, apiErr.Message, sentinel)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := detailFrom(reqErr.Body)
		if msg == "" {
			msg = string(reqErr.Body)
		}
		return fmt.Errorf("%s: provider returned %d: %s: %w", op, reqErr.HTTPStatusCode, msg, sentinel)
	}

	return fmt.Errorf("%s request failed: %w", op, sentinel)
}

// detailFrom reads the {"detail": "..."} body some compatible servers send
// instead of the OpenAI error envelope.
func detailFrom(body []byte) string {
	var v struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return ""
	}
	return v.Detail
}
