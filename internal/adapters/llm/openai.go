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

const openAIURL = "https://api.openai.com/v1/chat/completions"

const defaultOpenAIModel = "gpt-4o"

type OpenAIProvider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func NewOpenAIProvider(apiKey, model string, timeout time.Duration) *OpenAIProvider {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIProvider{
		apiKey:   apiKey,
		model:    model,
		endpoint: openAIURL,
		client:   &http.Client{Timeout: timeout},
	}
}

func (o *OpenAIProvider) Name() string { return "openai" }

func (o *OpenAIProvider) IsConfigured() bool { return o.apiKey != "" }

type openAIRequest struct {
	Model     string              `json:"model"`
	MaxTokens int                 `json:"max_tokens"`
	Messages  []llmdomain.Message `json:"messages"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message llmdomain.Message `json:"message"`
	} `json:"choices"`
	Usage map[string]any `json:"usage"`
}

func (o *OpenAIProvider) Chat(ctx context.Context, messages []llmdomain.Message, systemPrompt string, maxTokens int) (llmdomain.ChatResponse, error) {
	if !o.IsConfigured() {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: openai api key missing", errors.ErrNotConfigured)
	}

	// OpenAI takes the system prompt as a leading system-role message.
	apiMessages := make([]llmdomain.Message, 0, len(messages)+1)
	if systemPrompt != "" {
		apiMessages = append(apiMessages, llmdomain.Message{Role: llmdomain.RoleSystem, Content: systemPrompt})
	}
	apiMessages = append(apiMessages, messages...)

	body, err := json.Marshal(openAIRequest{
		Model:     o.model,
		MaxTokens: maxTokens,
		Messages:  apiMessages,
	})
	if err != nil {
		return llmdomain.ChatResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return llmdomain.ChatResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: %v", errors.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return llmdomain.ChatResponse{}, statusToErr(o.Name(), resp.StatusCode)
	}

	var parsed openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: %v", errors.ErrProvider, err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: openai", errors.ErrEmptyResponse)
	}

	model := parsed.Model
	if model == "" {
		model = o.model
	}
	return llmdomain.ChatResponse{
		Content: parsed.Choices[0].Message.Content,
		Model:   model,
		Usage:   parsed.Usage,
	}, nil
}
