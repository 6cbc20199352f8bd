package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/knowhub/internal/domain"
	"github.com/kailas-cloud/knowhub/internal/domain/document"
	"github.com/kailas-cloud/knowhub/internal/logger"
)

const answerPrompt = `Based on the following documents from our knowledge base, please answer the user's question.
If the answer cannot be found in the provided documents, please say so.

DOCUMENTS:
%s

QUESTION: %s

ANSWER:`

// Answerer answers questions over a set of documents with a chat completion.
type Answerer struct {
	client   *openai.Client
	model    string
	user     string
	provider string
	logger   *zap.Logger
}

// NewAnswerer creates a chat-completion answerer using cfg.ChatModel.
func NewAnswerer(cfg *Config) *Answerer {
	return &Answerer{
		client:   newClient(cfg),
		model:    cfg.ChatModel,
		user:     cfg.User,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Answer implements qa.Answerer.
func (a *Answerer) Answer(ctx context.Context, question string, docs []document.Document) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.model,
		User:  a.user,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(question, docs)},
		},
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", providerError("chat", err, domain.ErrAnswerProviderError)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty chat response: %w", domain.ErrAnswerProviderError)
	}

	logger.FromContextOr(ctx, a.logger).Debug("Answer generated",
		zap.String("provider", a.provider),
		zap.String("model", a.model),
		zap.Int("context_documents", len(docs)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("duration", time.Since(start)),
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// HealthCheck verifies API availability.
func (a *Answerer) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, a.client)
}

// BuildPrompt renders the question and its context documents into a single prompt.
func BuildPrompt(question string, docs []document.Document) string {
	var b strings.Builder
	for i := range docs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Title: %s\nContent: %s\nSummary: %s\n---", docs[i].Title(), docs[i].Content(), docs[i].Summary())
	}
	return fmt.Sprintf(answerPrompt, b.String(), question)
}
