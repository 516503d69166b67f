package domain

import "context"

// Completer abstracts any chat-completion provider.
type Completer interface {
	// Name identifies the provider, e.g. "groq" or "gemini".
	Name() string
	// Model is the fixed model identifier sent with every request.
	Model() string
	// Complete performs a single request/response completion call.
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
	SystemRole    Role = "system"
)

type CompletionRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

type Choice struct {
	Content string
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

type Completion struct {
	Model   string
	Choices []Choice
	Usage   Usage
}

// FirstText returns the content of the first choice, or false when the
// provider returned no choices or an empty first choice.
func (c Completion) FirstText() (string, bool) {
	if len(c.Choices) == 0 || c.Choices[0].Content == "" {
		return "", false
	}
	return c.Choices[0].Content, true
}
