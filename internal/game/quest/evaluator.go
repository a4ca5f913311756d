package quest

import "fmt"

// ConditionKind enumerates the supported win-condition predicates.
type ConditionKind string

// Win-condition kinds.
const (
	// KindRoom is satisfied when the current room equals Target.
	KindRoom ConditionKind = "room"
	// KindItem is satisfied when the player carries the Target item.
	KindItem ConditionKind = "item"
	// KindNPCDefeat is satisfied when the Target NPC's health reaches 0.
	KindNPCDefeat ConditionKind = "npc_defeat"
	// KindQuestComplete is satisfied when the Target quest is complete.
	KindQuestComplete ConditionKind = "quest_complete"
)

// validKinds is the set of valid condition kinds.
var validKinds = map[ConditionKind]bool{
	KindRoom:          true,
	KindItem:          true,
	KindNPCDefeat:     true,
	KindQuestComplete: true,
}

// WinCondition is a configured predicate that ends the session when
// satisfied.
type WinCondition struct {
	// Kind selects the predicate.
	Kind ConditionKind `yaml:"kind"`
	// Target is the room, item, NPC, or quest ID the predicate tests.
	Target string `yaml:"target"`
	// Message is the plain ending text.
	Message string `yaml:"message"`
	// Narration, when present, is preferred over Message.
	Narration string `yaml:"narration"`
}

// Validate checks the condition's fields.
//
// Postcondition: returns nil iff Kind is a known kind and Target is set.
func (w WinCondition) Validate() error {
	if !validKinds[w.Kind] {
		return fmt.Errorf("quest: win condition kind must be one of room, item, npc_defeat, quest_complete; got %q", w.Kind)
	}
	if w.Target == "" {
		return fmt.Errorf("quest: win condition of kind %q has empty target", w.Kind)
	}
	return nil
}

// EndingText returns the narration when present, else the plain message.
func (w WinCondition) EndingText() string {
	if w.Narration != "" {
		return w.Narration
	}
	return w.Message
}

// Observer exposes the game-state queries the evaluator needs. The action
// dispatcher implements it; keeping the interface here avoids a dependency
// on the engine.
type Observer interface {
	// CurrentRoomID returns the player's current room.
	CurrentRoomID() string
	// PlayerHasItem reports whether the player carries itemID.
	PlayerHasItem(itemID string) bool
	// NPCDefeated reports whether npcID exists and has 0 health.
	NPCDefeated(npcID string) bool
	// QuestComplete reports whether questID exists and is complete.
	QuestComplete(questID string) bool
}

// Evaluate tests conditions in configured order against obs and returns the
// first satisfied one. Called after every successful dispatch.
//
// Postcondition: returns (WinCondition{}, false) when no condition holds.
func Evaluate(conditions []WinCondition, obs Observer) (WinCondition, bool) {
	for _, c := range conditions {
		satisfied := false
		switch c.Kind {
		case KindRoom:
			satisfied = obs.CurrentRoomID() == c.Target
		case KindItem:
			satisfied = obs.PlayerHasItem(c.Target)
		case KindNPCDefeat:
			satisfied = obs.NPCDefeated(c.Target)
		case KindQuestComplete:
			satisfied = obs.QuestComplete(c.Target)
		}
		if satisfied {
			return c, true
		}
	}
	return WinCondition{}, false
}
