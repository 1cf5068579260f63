package llm

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is an internal message representation that can include system prompts.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type Request struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	JSONMode    bool
}

type Response struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// Client abstracts the hosted language model. Both calls are synchronous
// request/response with no streaming.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}
