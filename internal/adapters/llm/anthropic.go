package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	llmdomain "github.com/dechiad1/chesster/internal/domain/llm"
	"github.com/dechiad1/chesster/internal/errors"
)

const anthropicURL = "https://api.anthropic.com/v1/messages"

const defaultAnthropicModel = "claude-sonnet-4-20250514"

type AnthropicProvider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func NewAnthropicProvider(apiKey, model string, timeout time.Duration) *AnthropicProvider {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicProvider{
		apiKey:   apiKey,
		model:    model,
		endpoint: anthropicURL,
		client:   &http.Client{Timeout: timeout},
	}
}

func (a *AnthropicProvider) Name() string { return "anthropic" }

func (a *AnthropicProvider) IsConfigured() bool { return a.apiKey != "" }

type anthropicRequest struct {
	Model     string              `json:"model"`
	MaxTokens int                 `json:"max_tokens"`
	System    string              `json:"system,omitempty"`
	Messages  []llmdomain.Message `json:"messages"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage map[string]any `json:"usage"`
}

func (a *AnthropicProvider) Chat(ctx context.Context, messages []llmdomain.Message, systemPrompt string, maxTokens int) (llmdomain.ChatResponse, error) {
	if !a.IsConfigured() {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: anthropic api key missing", errors.ErrNotConfigured)
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     a.model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  messages,
	})
	if err != nil {
		return llmdomain.ChatResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return llmdomain.ChatResponse{}, err
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("content-type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: %v", errors.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return llmdomain.ChatResponse{}, statusToErr(a.Name(), resp.StatusCode)
	}

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: %v", errors.ErrProvider, err)
	}
	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: anthropic", errors.ErrEmptyResponse)
	}

	model := parsed.Model
	if model == "" {
		model = a.model
	}
	return llmdomain.ChatResponse{
		Content: parsed.Content[0].Text,
		Model:   model,
		Usage:   parsed.Usage,
	}, nil
}
