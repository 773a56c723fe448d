// Package llm defines the unified interface over hosted chat-completion APIs.
// Each adapter (openai.go, anthropic.go) normalizes one vendor SDK to a plain
// single-shot Complete call; the agent layer never sees vendor types.
package llm

import "context"

// Message roles as persisted in conversation history
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one prior turn handed to the provider
type Message struct {
	Role string
	Text string
}

// Provider is a hosted LLM chat API. Complete sends the system instruction,
// prior history, and the current prompt and returns the raw reply text.
// Implementations must honor ctx cancellation and deadlines.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system string, history []Message, prompt string) (string, error)
}
