package llm

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of a provider-agnostic conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is a normalized provider reply.
type ChatResponse struct {
	Content string         `json:"content"`
	Model   string         `json:"model"`
	Usage   map[string]any `json:"usage,omitempty"`
}
