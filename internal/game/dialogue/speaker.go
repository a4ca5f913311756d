// Package dialogue generates NPC conversation replies through the chat
// service, with per-NPC bounded memory and a stock line when the service
// is unavailable.
package dialogue

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/llm"
)

// StockReply is returned when the chat service cannot produce a reply.
const StockReply = "They don't seem to have anything to say right now."

// PlayerSpeaker is the memory tag for the player's side of a conversation.
const PlayerSpeaker = "player"

// Speaker produces NPC dialogue replies.
type Speaker struct {
	chat   llm.Service
	logger *zap.Logger
}

// NewSpeaker constructs a Speaker. chat may be nil, in which case every
// reply is the stock line.
//
// Precondition: logger must not be nil.
func NewSpeaker(chat llm.Service, logger *zap.Logger) *Speaker {
	if logger == nil {
		panic("dialogue.NewSpeaker: logger must not be nil")
	}
	return &Speaker{chat: chat, logger: logger}
}

// Respond returns the NPC's reply to playerLine and records both sides in
// the NPC's conversation memory.
//
// Precondition: npc must not be nil and must have a Behavior component.
// Postcondition: on service failure the stock line is returned and the
// NPC's memory is left unmodified; nothing is partially recorded.
func (s *Speaker) Respond(ctx context.Context, npc *character.Character, playerLine string) string {
	return s.respond(ctx, npc, playerLine, nil)
}

// RespondStream behaves like Respond but delivers the reply incrementally
// via fn. Cancelling ctx mid-stream abandons the reply without touching the
// NPC's memory.
func (s *Speaker) RespondStream(ctx context.Context, npc *character.Character, playerLine string, fn func(chunk string) error) string {
	return s.respond(ctx, npc, playerLine, fn)
}

func (s *Speaker) respond(ctx context.Context, npc *character.Character, playerLine string, fn func(chunk string) error) string {
	if s.chat == nil {
		return StockReply
	}

	req := llm.Request{
		System:   buildPersonaPrompt(npc),
		Messages: transcript(npc, playerLine),
	}

	var reply string
	var err error
	if fn == nil {
		reply, err = s.chat.Complete(ctx, req)
	} else {
		var sb strings.Builder
		err = s.chat.Stream(ctx, req, func(chunk string) error {
			sb.WriteString(chunk)
			return fn(chunk)
		})
		reply = sb.String()
	}
	if err != nil {
		s.logger.Warn("dialogue reply failed, using stock line",
			zap.String("npc", npc.ID),
			zap.Error(err),
		)
		return StockReply
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return StockReply
	}

	npc.Behavior.Remember(PlayerSpeaker, playerLine)
	npc.Behavior.Remember(npc.ID, reply)
	return reply
}

// buildPersonaPrompt renders the NPC's persona as the system prompt.
func buildPersonaPrompt(npc *character.Character) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, a character in a text adventure. ", npc.Name)
	if npc.Behavior != nil && npc.Behavior.Personality != "" {
		fmt.Fprintf(&sb, "Personality: %s. ", npc.Behavior.Personality)
	}
	sb.WriteString("Reply in character with one or two short sentences of spoken dialogue only.")
	return sb.String()
}

// transcript converts the NPC's conversation memory plus the new player
// line into role-tagged messages.
func transcript(npc *character.Character, playerLine string) []llm.Message {
	var msgs []llm.Message
	if npc.Behavior != nil {
		for _, turn := range npc.Behavior.Memory {
			role := llm.RoleAssistant
			if turn.Speaker == PlayerSpeaker {
				role = llm.RoleUser
			}
			msgs = append(msgs, llm.Message{Role: role, Content: turn.Text})
		}
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: playerLine})
}
