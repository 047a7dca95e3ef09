package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dechiad1/chesster/internal/bootstrap"
	llmdomain "github.com/dechiad1/chesster/internal/domain/llm"
	"github.com/dechiad1/chesster/internal/errors"
)

// Provider is one text-generation backend. Implementations translate the
// universal message list into their vendor's request shape and extract text
// from the vendor's response envelope. No retries happen at this layer.
type Provider interface {
	Chat(ctx context.Context, messages []llmdomain.Message, systemPrompt string, maxTokens int) (llmdomain.ChatResponse, error)
	Name() string
	IsConfigured() bool
}

// NewProvider selects a backend by the configured provider key. New vendors
// are added here without touching the analysis pipeline.
func NewProvider(cfg *bootstrap.Config) (Provider, error) {
	timeout := time.Duration(cfg.LlmTimeoutSeconds) * time.Second
	switch strings.ToLower(cfg.LlmProvider) {
	case "anthropic":
		return NewAnthropicProvider(cfg.LlmApiKey, cfg.LlmModel, timeout), nil
	case "openai":
		return NewOpenAIProvider(cfg.LlmApiKey, cfg.LlmModel, timeout), nil
	case "gemini":
		return NewGeminiProvider(cfg.LlmApiKey, cfg.LlmModel, timeout), nil
	case "local":
		return NewLocalProvider(cfg.LlmEndpoint, cfg.LlmModel, timeout), nil
	case "mistral":
		return NewMistralProvider(cfg.LlmApiKey, cfg.LlmModel), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LlmProvider)
	}
}

// statusToErr maps a non-success HTTP status to the shared error taxonomy so
// callers can tell "fix your key" apart from "try again later".
func statusToErr(provider string, status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned %d", errors.ErrAuthentication, provider, status)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s returned 429", errors.ErrRateLimited, provider)
	default:
		return fmt.Errorf("%w: %s returned %d", errors.ErrProvider, provider, status)
	}
}
