package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/DoctorRyner/mistral-go"

	llmdomain "github.com/dechiad1/chesster/internal/domain/llm"
	"github.com/dechiad1/chesster/internal/errors"
)

const defaultMistralModel = "mistral-large-latest"

// MistralProvider wraps the mistral SDK behind the same contract as the
// raw-HTTP providers.
type MistralProvider struct {
	apiKey string
	model  string
	client *mistral.MistralClient
}

func NewMistralProvider(apiKey, model string) *MistralProvider {
	if model == "" {
		model = defaultMistralModel
	}
	p := &MistralProvider{apiKey: apiKey, model: model}
	if apiKey != "" {
		p.client = mistral.NewMistralClientDefault(apiKey)
	}
	return p
}

func (m *MistralProvider) Name() string { return "mistral" }

func (m *MistralProvider) IsConfigured() bool { return m.apiKey != "" }

func (m *MistralProvider) Chat(ctx context.Context, messages []llmdomain.Message, systemPrompt string, maxTokens int) (llmdomain.ChatResponse, error) {
	if !m.IsConfigured() {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: mistral api key missing", errors.ErrNotConfigured)
	}

	chatMessages := make([]mistral.ChatMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		chatMessages = append(chatMessages, mistral.ChatMessage{Content: systemPrompt, Role: mistral.RoleSystem})
	}
	for _, msg := range messages {
		role := mistral.RoleUser
		if msg.Role == llmdomain.RoleAssistant {
			role = mistral.RoleAssistant
		}
		chatMessages = append(chatMessages, mistral.ChatMessage{Content: msg.Content, Role: role})
	}

	params := mistral.DefaultChatRequestParams
	params.MaxTokens = maxTokens

	res, err := m.client.Chat(m.model, chatMessages, &params)
	if err != nil {
		return llmdomain.ChatResponse{}, classifyMistralErr(err)
	}
	if len(res.Choices) == 0 {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: mistral", errors.ErrEmptyResponse)
	}

	content := fmt.Sprintf("%v", res.Choices[0].Message.Content)
	if content == "" {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: mistral", errors.ErrEmptyResponse)
	}

	return llmdomain.ChatResponse{
		Content: content,
		Model:   m.model,
	}, nil
}

// classifyMistralErr maps SDK errors onto the shared taxonomy. The SDK does
// not expose status codes, so this falls back on message sniffing.
func classifyMistralErr(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(strings.ToLower(msg), "unauthorized"):
		return fmt.Errorf("%w: mistral: %v", errors.ErrAuthentication, err)
	case strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "rate limit"):
		return fmt.Errorf("%w: mistral: %v", errors.ErrRateLimited, err)
	default:
		return fmt.Errorf("%w: mistral: %v", errors.ErrProvider, err)
	}
}
