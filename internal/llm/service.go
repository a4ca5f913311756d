// Package llm provides the language-model chat service used for intent
// resolution and NPC dialogue. The Anthropic-backed implementation is
// wrapped in a timeout and bounded-retry policy so a slow or unreachable
// service can never block a game turn indefinitely.
package llm

import (
	"context"
	"errors"
)

// Role identifies the author of a chat message.
type Role string

// Chat message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry in a chat transcript.
type Message struct {
	Role    Role
	Content string
}

// Request is a single chat completion request.
type Request struct {
	// System is the system prompt. May be empty.
	System string
	// Messages is the ordered transcript. Must end with a user message.
	Messages []Message
	// MaxTokens bounds the completion length. 0 means the service default.
	MaxTokens int
}

// ErrServiceUnavailable reports that the service could not produce a
// completion within the configured timeout and retry budget. Callers fall
// back to deterministic behavior when they see it.
var ErrServiceUnavailable = errors.New("llm: service unavailable")

// Service is the chat capability consumed by the intent resolver and the
// dialogue system.
type Service interface {
	// Complete returns one completion string for the request.
	Complete(ctx context.Context, req Request) (string, error)
	// Stream delivers the completion incrementally via fn. It honors ctx
	// cancellation mid-stream and returns fn's first error, if any.
	Stream(ctx context.Context, req Request, fn func(chunk string) error) error
}
