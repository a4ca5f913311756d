package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/llm"
)

// ErrParseFailure reports that a language-model completion could not be
// parsed into a valid action list after fence stripping.
var ErrParseFailure = errors.New("intent: unparsable completion")

// Resolver converts raw player text into an ordered action list, asking the
// chat service first and falling back to the deterministic parser on any
// failure. Aside from the outbound call it is a pure function of its
// inputs.
type Resolver struct {
	chat   llm.Service
	logger *zap.Logger
}

// NewResolver constructs a Resolver. chat may be nil, in which case every
// input takes the deterministic path.
//
// Precondition: logger must not be nil.
func NewResolver(chat llm.Service, logger *zap.Logger) *Resolver {
	if logger == nil {
		panic("intent.NewResolver: logger must not be nil")
	}
	return &Resolver{chat: chat, logger: logger}
}

// Resolve returns the ordered action list for input.
//
// Postcondition: the result is never empty; when neither path recognizes
// the input the single element is a VerbUnknown action carrying a
// clarifying message.
func (r *Resolver) Resolve(ctx context.Context, input string, ic Context) []Action {
	if r.chat != nil {
		actions, err := r.resolveLLM(ctx, input, ic)
		if err == nil {
			return actions
		}
		r.logger.Warn("intent: llm path failed, using fallback parser",
			zap.String("input", input),
			zap.Error(err),
		)
	}
	return []Action{ParseFallback(input, ic.Exits)}
}

// actionJSON is the wire shape the model is asked to produce.
type actionJSON struct {
	Action  string `json:"action"`
	Target  string `json:"target"`
	Details string `json:"details"`
}

// resolveLLM requests and parses a completion.
//
// Postcondition: a nil error implies a non-empty action list whose verbs
// are all members of the closed set.
func (r *Resolver) resolveLLM(ctx context.Context, input string, ic Context) ([]Action, error) {
	completion, err := r.chat.Complete(ctx, llm.Request{
		System:   systemPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: buildUserPrompt(input, ic)}},
	})
	if err != nil {
		return nil, err
	}

	payload := extractJSONArray(stripFences(completion))
	var raw []actionJSON
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	var actions []Action
	for _, a := range raw {
		verb, ok := ParseVerb(strings.ToLower(strings.TrimSpace(a.Action)))
		if !ok {
			r.logger.Debug("intent: dropping unknown verb from completion", zap.String("verb", a.Action))
			continue
		}
		actions = append(actions, Action{
			Verb:    verb,
			Target:  strings.TrimSpace(a.Target),
			Details: strings.TrimSpace(a.Details),
			Source:  SourceLLM,
		})
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("%w: no valid actions in completion", ErrParseFailure)
	}
	return actions, nil
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	idx := strings.Index(s, "\n")
	if idx < 0 {
		return ""
	}
	s = strings.TrimSpace(s[idx+1:])
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// extractJSONArray returns the outermost bracketed span of s, tolerating
// prose before or after the JSON payload.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
