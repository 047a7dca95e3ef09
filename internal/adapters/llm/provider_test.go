package llm

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dechiad1/chesster/internal/bootstrap"
	llmdomain "github.com/dechiad1/chesster/internal/domain/llm"
	"github.com/dechiad1/chesster/internal/errors"
)

var testMessages = []llmdomain.Message{{Role: llmdomain.RoleUser, Content: "hello"}}

func TestNewProvider(t *testing.T) {
	cases := []struct {
		provider string
		wantName string
	}{
		{"anthropic", "anthropic"},
		{"OpenAI", "openai"},
		{"gemini", "gemini"},
		{"local", "local"},
		{"Mistral", "mistral"},
	}

	for _, tc := range cases {
		t.Run(tc.provider, func(t *testing.T) {
			p, err := NewProvider(&bootstrap.Config{LlmProvider: tc.provider, LlmApiKey: "k", LlmEndpoint: "http://localhost:11434"})
			if err != nil {
				t.Fatalf("NewProvider(%q) failed: %v", tc.provider, err)
			}
			if p.Name() != tc.wantName {
				t.Errorf("Name() = %q, want %q", p.Name(), tc.wantName)
			}
		})
	}
}

func TestNewProviderUnknown(t *testing.T) {
	if _, err := NewProvider(&bootstrap.Config{LlmProvider: "cohere"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestStatusToErr(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, errors.ErrAuthentication},
		{http.StatusForbidden, errors.ErrAuthentication},
		{http.StatusTooManyRequests, errors.ErrRateLimited},
		{http.StatusInternalServerError, errors.ErrProvider},
		{http.StatusBadRequest, errors.ErrProvider},
	}

	for _, tc := range cases {
		err := statusToErr("test", tc.status)
		if !stderrors.Is(err, tc.want) {
			t.Errorf("statusToErr(%d) = %v, want wrap of %v", tc.status, err, tc.want)
		}
	}
}

func TestAnthropicChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "secret" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got == "" {
			t.Error("anthropic-version header missing")
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.System != "be brief" {
			t.Errorf("system = %q", req.System)
		}
		if req.MaxTokens != 64 {
			t.Errorf("max_tokens = %d", req.MaxTokens)
		}

		json.NewEncoder(w).Encode(anthropicResponse{
			Model:   "claude-sonnet-4-20250514",
			Content: []struct {
				Text string `json:"text"`
			}{{Text: "hi there"}},
		})
	}))
	defer srv.Close()

	p := NewAnthropicProvider("secret", "", time.Second)
	p.endpoint = srv.URL

	resp, err := p.Chat(context.Background(), testMessages, "be brief", 64)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Content != "hi there" {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Model != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q", resp.Model)
	}
}

func TestAnthropicChatNotConfigured(t *testing.T) {
	p := NewAnthropicProvider("", "", time.Second)
	p.endpoint = "http://127.0.0.1:1" // must not be reached

	_, err := p.Chat(context.Background(), testMessages, "", 64)
	if !stderrors.Is(err, errors.ErrNotConfigured) {
		t.Errorf("error %v should wrap ErrNotConfigured", err)
	}
}

func TestAnthropicChatErrorStatuses(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, errors.ErrAuthentication},
		{http.StatusTooManyRequests, errors.ErrRateLimited},
		{http.StatusBadGateway, errors.ErrProvider},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		p := NewAnthropicProvider("secret", "", time.Second)
		p.endpoint = srv.URL

		_, err := p.Chat(context.Background(), testMessages, "", 64)
		if !stderrors.Is(err, tc.want) {
			t.Errorf("status %d: error %v should wrap %v", tc.status, err, tc.want)
		}
		srv.Close()
	}
}

func TestAnthropicChatEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(anthropicResponse{})
	}))
	defer srv.Close()

	p := NewAnthropicProvider("secret", "", time.Second)
	p.endpoint = srv.URL

	_, err := p.Chat(context.Background(), testMessages, "", 64)
	if !stderrors.Is(err, errors.ErrEmptyResponse) {
		t.Errorf("error %v should wrap ErrEmptyResponse", err)
	}
}

func TestOpenAIChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}

		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		// System prompt travels as a leading system-role message.
		if len(req.Messages) != 2 || req.Messages[0].Role != llmdomain.RoleSystem {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o",
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "reply"}},
			},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider("secret", "", time.Second)
	p.endpoint = srv.URL

	resp, err := p.Chat(context.Background(), testMessages, "be brief", 64)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Content != "reply" {
		t.Errorf("content = %q", resp.Content)
	}
}

func TestOpenAIChatEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	p := NewOpenAIProvider("secret", "", time.Second)
	p.endpoint = srv.URL

	_, err := p.Chat(context.Background(), testMessages, "", 64)
	if !stderrors.Is(err, errors.ErrEmptyResponse) {
		t.Errorf("error %v should wrap ErrEmptyResponse", err)
	}
}

func TestGeminiChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "secret" {
			t.Errorf("key = %q", got)
		}

		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		// System prompt becomes a synthetic user/model turn pair.
		if len(req.Contents) != 3 {
			t.Fatalf("got %d contents, want 3", len(req.Contents))
		}
		if req.Contents[0].Role != "user" || req.Contents[1].Role != "model" {
			t.Errorf("unexpected synthetic turns: %+v", req.Contents[:2])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"role": "model", "parts": []map[string]string{{"text": "reply"}}}},
			},
		})
	}))
	defer srv.Close()

	p := NewGeminiProvider("secret", "", time.Second)
	p.endpoint = srv.URL

	resp, err := p.Chat(context.Background(), testMessages, "be brief", 64)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Content != "reply" {
		t.Errorf("content = %q", resp.Content)
	}
}

func TestLocalChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}

		var req localRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Stream {
			t.Error("stream should be disabled")
		}
		if req.Options.NumPredict != 64 {
			t.Errorf("num_predict = %d", req.Options.NumPredict)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "reply"},
		})
	}))
	defer srv.Close()

	p := NewLocalProvider(srv.URL, "", time.Second)

	resp, err := p.Chat(context.Background(), testMessages, "be brief", 64)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Content != "reply" {
		t.Errorf("content = %q", resp.Content)
	}
}

func TestLocalChatNotConfigured(t *testing.T) {
	p := NewLocalProvider("", "", time.Second)
	_, err := p.Chat(context.Background(), testMessages, "", 64)
	if !stderrors.Is(err, errors.ErrNotConfigured) {
		t.Errorf("error %v should wrap ErrNotConfigured", err)
	}
}
