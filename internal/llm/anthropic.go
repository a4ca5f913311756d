package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultMaxTokens is used when a Request does not set MaxTokens.
const DefaultMaxTokens = 1024

// AnthropicService implements Service against the Anthropic Messages API.
type AnthropicService struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int
}

// NewAnthropicService creates an AnthropicService. maxTokens bounds
// completions when a Request does not set its own limit; 0 uses
// DefaultMaxTokens.
//
// Precondition: apiKey and model must be non-empty.
func NewAnthropicService(apiKey, model string, maxTokens int) *AnthropicService {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &AnthropicService{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
	}
}

// params converts a Request into Anthropic message parameters.
func (s *AnthropicService) params(req Request) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.maxTokens
	}

	msgs := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     s.model,
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	return params
}

// Complete returns one completion string for the request.
//
// Postcondition: a nil error implies a non-nil (possibly empty) completion.
func (s *AnthropicService) Complete(ctx context.Context, req Request) (string, error) {
	msg, err := s.client.Messages.New(ctx, s.params(req))
	if err != nil {
		return "", fmt.Errorf("llm: anthropic completion: %w", err)
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// Stream delivers the completion incrementally via fn.
//
// Postcondition: returns ctx.Err() if the caller cancelled mid-stream, the
// first error returned by fn, or the stream error.
func (s *AnthropicService) Stream(ctx context.Context, req Request, fn func(chunk string) error) error {
	stream := s.client.Messages.NewStreaming(ctx, s.params(req))
	for stream.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if err := fn(delta.Text); err != nil {
					return err
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("llm: anthropic stream: %w", err)
	}
	return nil
}
