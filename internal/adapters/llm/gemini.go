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

const geminiURLFormat = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

const defaultGeminiModel = "gemini-pro"

type GeminiProvider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func NewGeminiProvider(apiKey, model string, timeout time.Duration) *GeminiProvider {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{
		apiKey:   apiKey,
		model:    model,
		endpoint: fmt.Sprintf(geminiURLFormat, model),
		client:   &http.Client{Timeout: timeout},
	}
}

func (g *GeminiProvider) Name() string { return "gemini" }

func (g *GeminiProvider) IsConfigured() bool { return g.apiKey != "" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata map[string]any `json:"usageMetadata"`
}

func (g *GeminiProvider) Chat(ctx context.Context, messages []llmdomain.Message, systemPrompt string, maxTokens int) (llmdomain.ChatResponse, error) {
	if !g.IsConfigured() {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: gemini api key missing", errors.ErrNotConfigured)
	}

	// Gemini has no system-role message, so the system prompt becomes a
	// synthetic user/model turn pair ahead of the conversation.
	var contents []geminiContent
	if systemPrompt != "" {
		contents = append(contents,
			geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: "[System Instruction]\n" + systemPrompt + "\n[End System Instruction]"}},
			},
			geminiContent{
				Role:  "model",
				Parts: []geminiPart{{Text: "I understand. I will follow these instructions."}},
			},
		)
	}
	for _, msg := range messages {
		role := "user"
		if msg.Role == llmdomain.RoleAssistant {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: msg.Content}}})
	}

	reqBody := geminiRequest{Contents: contents}
	reqBody.GenerationConfig.MaxOutputTokens = maxTokens

	body, err := json.Marshal(reqBody)
	if err != nil {
		return llmdomain.ChatResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"?key="+g.apiKey, bytes.NewReader(body))
	if err != nil {
		return llmdomain.ChatResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: %v", errors.ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return llmdomain.ChatResponse{}, statusToErr(g.Name(), resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: %v", errors.ErrProvider, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: gemini", errors.ErrEmptyResponse)
	}
	text := parsed.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return llmdomain.ChatResponse{}, fmt.Errorf("%w: gemini", errors.ErrEmptyResponse)
	}

	return llmdomain.ChatResponse{
		Content: text,
		Model:   g.model,
		Usage:   parsed.UsageMetadata,
	}, nil
}
