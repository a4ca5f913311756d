package engine

import (
	"github.com/cory-johannsen/adventure/internal/game/combat"
	"github.com/cory-johannsen/adventure/internal/game/equipment"
	"github.com/cory-johannsen/adventure/internal/game/intent"
)

// ActionResult is the structured outcome of one dispatched action, handed
// to the external narrator. Message is the guaranteed plain fallback text.
type ActionResult struct {
	// Verb is the dispatched verb.
	Verb intent.Verb
	// Target is the resolved target, when the verb has one.
	Target string
	// Success is false for locally handled failures (invalid exit, item
	// not found, ...), which never mutate state.
	Success bool
	// Message is the plain fallback narration line.
	Message string

	// Attack carries combat numbers when Verb is attack or flee triggered
	// a counterattack.
	Attack *combat.AttackResult
	// Counterattack carries the NPC's return attack, when one happened.
	Counterattack *combat.AttackResult
	// Flee carries the escape check outcome when Verb is flee.
	Flee *combat.FleeResult
	// Equip carries slot deltas when Verb is equip.
	Equip *equipment.EquipResult
	// Unequip carries the cleared slot when Verb is unequip.
	Unequip *equipment.UnequipResult
}

// failure returns an unsuccessful ActionResult carrying msg.
func failure(verb intent.Verb, target, msg string) ActionResult {
	return ActionResult{Verb: verb, Target: target, Message: msg}
}

// success returns a successful ActionResult carrying msg.
func success(verb intent.Verb, target, msg string) ActionResult {
	return ActionResult{Verb: verb, Target: target, Success: true, Message: msg}
}

// TurnResult is the outcome of one full player turn: the dispatched action
// results plus session-level transitions.
type TurnResult struct {
	// Actions lists the results in dispatch order. Never empty.
	Actions []ActionResult
	// Ended is true when a win condition fired or the player was defeated.
	Ended bool
	// EndingText is the win condition's narration (or message), or the
	// defeat line. Empty unless Ended.
	EndingText string
	// Quit is true when the player asked to leave the game.
	Quit bool
}
