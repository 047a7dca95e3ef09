package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	llmdomain "github.com/dechiad1/chesster/internal/domain/llm"
	"github.com/dechiad1/chesster/internal/errors"
)

const defaultLocalModel = "llama2"

// LocalProvider talks to a self-hosted model over the Ollama chat API.
type LocalProvider struct {
	endpoint string
	model    string
	client   *http.Client
}

func NewLocalProvider(endpoint, model string, timeout time.Duration) *LocalProvider {
	if model == "" {
		model = defaultLocalModel
	}
	return &LocalProvider{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		client:   &http.Client{Timeout: timeout},
	}
}

func (l *LocalProvider) Name() string { return "local" }

func (l *LocalProvider) IsConfigured() bool { return l.endpoint != "" }

type localRequest struct {
	Model    string              `json:"model"`
	Messages []llmdomain.Message `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  struct {
		NumPredict int `json:"num_predict"`
	} `json:"options"`
}

type localResponse struct {
	Message llmdomain.Message `json:"message"`
}

func (l *LocalProvider) Chat(ctx context.Context, messages []llmdomain.Message, systemPrompt string, maxTokens int) (llmdomain.ChatResponse, error) {
	if !l.IsConfigured() {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: local llm endpoint missing", errors.ErrNotConfigured)
	}

	apiMessages := make([]llmdomain.Message, 0, len(messages)+1)
	if systemPrompt != "" {
		apiMessages = append(apiMessages, llmdomain.Message{Role: llmdomain.RoleSystem, Content: systemPrompt})
	}
	apiMessages = append(apiMessages, messages...)

	reqBody := localRequest{
		Model:    l.model,
		Messages: apiMessages,
		Stream:   false,
	}
	reqBody.Options.NumPredict = maxTokens

	body, err := json.Marshal(reqBody)
	if err != nil {
		return llmdomain.ChatResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return llmdomain.ChatResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: cannot reach %s: %v", errors.ErrProvider, l.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return llmdomain.ChatResponse{}, statusToErr(l.Name(), resp.StatusCode)
	}

	var parsed localResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: %v", errors.ErrProvider, err)
	}
	if parsed.Message.Content == "" {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: local llm", errors.ErrEmptyResponse)
	}

	return llmdomain.ChatResponse{
		Content: parsed.Message.Content,
		Model:   l.model,
	}, nil
}
