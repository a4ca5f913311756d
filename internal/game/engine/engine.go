// Package engine is the action dispatcher: the state machine that validates
// the session mode, routes resolved actions to per-verb handlers, mutates
// game state, and checks win conditions after every successful action.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/combat"
	"github.com/cory-johannsen/adventure/internal/game/dialogue"
	"github.com/cory-johannsen/adventure/internal/game/intent"
	"github.com/cory-johannsen/adventure/internal/game/quest"
	"github.com/cory-johannsen/adventure/internal/game/session"
	"github.com/cory-johannsen/adventure/internal/game/world"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

// DefeatText is the ending line when the player's health reaches 0.
const DefeatText = "You collapse. Your adventure ends here."

// handler processes one action against the engine's state.
type handler func(ctx context.Context, act intent.Action) ActionResult

// Engine drives a single session turn by turn.
type Engine struct {
	snap    *world.Snapshot
	sess    *session.Session
	player  *character.Character
	intents *intent.Resolver
	combat  *combat.Resolver
	speaker *dialogue.Speaker
	narrate func(chunk string) error
	hooks   *scripting.Hooks
	logger  *zap.Logger

	dispatch map[intent.Verb]handler
	ended    bool
	ending   string
}

// Config bundles the engine's collaborators.
type Config struct {
	// Snapshot is the populated world. Required.
	Snapshot *world.Snapshot
	// Intents resolves player text into actions. Required.
	Intents *intent.Resolver
	// Combat resolves attack and flee actions. Required.
	Combat *combat.Resolver
	// Speaker generates NPC dialogue. Optional; nil uses stock lines.
	Speaker *dialogue.Speaker
	// Narrate receives dialogue chunks as they stream in. Optional; a
	// returned error cancels the stream. Nil discards chunks (the full
	// reply is still delivered in the action message).
	Narrate func(chunk string) error
	// Hooks dispatches world events to the snapshot's script. Optional.
	Hooks *scripting.Hooks
	// Logger is the structured logger. Required.
	Logger *zap.Logger
	// HistorySize bounds the session command history. 0 uses the default.
	HistorySize int
}

// New validates the snapshot and builds an Engine with a fresh session in
// the snapshot's start room.
//
// Postcondition: a nil error guarantees the snapshot passed validation,
// the dispatch table covers every verb, and script hooks (when present)
// are wired to quest and world mutations.
func New(cfg Config) (*Engine, error) {
	if cfg.Snapshot == nil || cfg.Intents == nil || cfg.Combat == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("engine.New: Snapshot, Intents, Combat, and Logger are required")
	}
	if err := cfg.Snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("engine.New: %w", err)
	}
	player, err := cfg.Snapshot.Player()
	if err != nil {
		return nil, fmt.Errorf("engine.New: %w", err)
	}

	e := &Engine{
		snap:    cfg.Snapshot,
		sess:    session.New(cfg.Snapshot.StartRoom, cfg.HistorySize),
		player:  player,
		intents: cfg.Intents,
		combat:  cfg.Combat,
		speaker: cfg.Speaker,
		narrate: cfg.Narrate,
		hooks:   cfg.Hooks,
		logger:  cfg.Logger,
	}
	e.dispatch = e.buildDispatchTable()
	for _, v := range intent.AllVerbs {
		if _, ok := e.dispatch[v]; !ok {
			return nil, fmt.Errorf("engine.New: dispatch table missing handler for verb %q", v)
		}
	}

	if e.hooks != nil {
		e.hooks.CompleteObjective = e.completeObjective
		e.hooks.UnlockExit = e.unlockExit
	}
	e.recruitCompanions(e.snap.Rooms[e.sess.RoomID])
	return e, nil
}

// recruitCompanions adds companion-role NPCs present in room to the
// session. Companions relocate with the player on every subsequent move.
func (e *Engine) recruitCompanions(room *world.Room) {
	for _, id := range room.NPCs {
		if npc, ok := e.snap.Characters[id]; ok && !npc.IsDead() && npc.Role == character.RoleCompanion {
			e.sess.AddCompanion(id)
		}
	}
}

// advancePatrols walks every patrolling NPC one step along its route. Dead
// NPCs, companions, and the pinned combat target stay where they are.
func (e *Engine) advancePatrols() {
	for id, npc := range e.snap.Characters {
		if npc.Behavior == nil || npc.IsDead() || id == e.sess.CombatTarget() || e.isCompanion(id) {
			continue
		}
		next, ok := npc.Behavior.NextPatrolRoom()
		if !ok {
			continue
		}
		to, ok := e.snap.Rooms[next]
		if !ok {
			continue
		}
		from := e.roomOf(id)
		if from == nil || from.ID == to.ID {
			continue
		}
		from.RemoveNPC(id)
		to.NPCs = append(to.NPCs, id)
		e.logger.Debug("npc patrolled",
			zap.String("npc", id),
			zap.String("from", from.ID),
			zap.String("to", to.ID),
		)
	}
}

func (e *Engine) isCompanion(id string) bool {
	for _, c := range e.sess.Companions {
		if c == id {
			return true
		}
	}
	return false
}

// roomOf finds the room currently holding npcID, or nil.
func (e *Engine) roomOf(npcID string) *world.Room {
	for _, r := range e.snap.Rooms {
		for _, id := range r.NPCs {
			if id == npcID {
				return r
			}
		}
	}
	return nil
}

// Session returns the engine's session for inspection.
func (e *Engine) Session() *session.Session { return e.sess }

// Ended reports whether the game has concluded.
func (e *Engine) Ended() bool { return e.ended }

// HandleTurn resolves input into actions and dispatches them in order,
// re-validating the session mode immediately before each action so a
// queued batch cannot execute stale moves after combat concludes.
//
// Postcondition: the returned TurnResult has at least one action result
// unless the game had already ended.
func (e *Engine) HandleTurn(ctx context.Context, input string) (*TurnResult, error) {
	if e.ended {
		return &TurnResult{Ended: true, EndingText: e.ending}, nil
	}

	room, ok := e.snap.Rooms[e.sess.RoomID]
	if !ok {
		// Session points at a room absent from the snapshot: the snapshot
		// was malformed and this turn cannot proceed.
		return nil, fmt.Errorf("engine.HandleTurn: current room %q: %w", e.sess.RoomID, world.ErrInvariantViolation)
	}

	actions := e.intents.Resolve(ctx, input, e.buildIntentContext(room))
	e.sess.RecordCommand(input)
	e.logger.Debug("turn resolved",
		zap.String("input", input),
		zap.Int("actions", len(actions)),
		zap.String("source", string(actions[0].Source)),
	)

	result := &TurnResult{}
	for _, act := range actions {
		// Mode re-validation happens per action, not per batch.
		if blocked, msg := e.modeBlocks(act.Verb); blocked {
			result.Actions = append(result.Actions, failure(act.Verb, act.Target, msg))
			continue
		}

		ar := e.dispatch[act.Verb](ctx, act)
		result.Actions = append(result.Actions, ar)

		if act.Verb == intent.VerbQuit && ar.Success {
			result.Quit = true
			break
		}
		if e.player.IsDead() {
			e.ended = true
			e.ending = DefeatText
			result.Ended = true
			result.EndingText = e.ending
			break
		}
		if !ar.Success {
			continue
		}
		if cond, won := quest.Evaluate(e.snap.WinConditions, e); won {
			e.ended = true
			e.ending = cond.EndingText()
			result.Ended = true
			result.EndingText = e.ending
			break
		}
	}
	if !e.ended && !result.Quit {
		e.advancePatrols()
	}
	return result, nil
}

// modeBlocks enforces the state machine: some verbs are invalid while in
// combat, and flee is invalid outside it.
func (e *Engine) modeBlocks(v intent.Verb) (bool, string) {
	if e.sess.InCombat() {
		switch v {
		case intent.VerbMove:
			return true, "You can't wander off mid-fight! Flee if you want to escape."
		case intent.VerbTalk:
			return true, "No time for conversation, you're in a fight!"
		case intent.VerbTake, intent.VerbDrop:
			return true, "Your hands are full fighting!"
		}
		return false, ""
	}
	if v == intent.VerbFlee {
		return true, "You're not in combat."
	}
	return false, ""
}

// buildIntentContext assembles the observable world state for the resolver.
func (e *Engine) buildIntentContext(room *world.Room) intent.Context {
	ic := intent.Context{
		RoomDescription: room.Description,
		Exits:           room.AllExitNames(),
		RecentCommands:  e.sess.History(),
		InCombat:        e.sess.InCombat(),
	}
	for _, npcID := range room.NPCs {
		if npc, ok := e.snap.Characters[npcID]; ok && !npc.IsDead() {
			ic.NPCs = append(ic.NPCs, npc.Name)
		}
	}
	for _, fi := range room.Floor {
		if def, ok := e.snap.Items.Item(fi.ItemID); ok {
			ic.Items = append(ic.Items, def.Name)
		}
	}
	return ic
}

// CurrentRoomID implements quest.Observer.
func (e *Engine) CurrentRoomID() string { return e.sess.RoomID }

// PlayerHasItem implements quest.Observer.
func (e *Engine) PlayerHasItem(itemID string) bool {
	_, ok := e.player.Carried[itemID]
	return ok
}

// NPCDefeated implements quest.Observer.
func (e *Engine) NPCDefeated(npcID string) bool {
	npc, ok := e.snap.Characters[npcID]
	return ok && npc.IsDead()
}

// QuestComplete implements quest.Observer.
func (e *Engine) QuestComplete(questID string) bool {
	q, ok := e.snap.Quests[questID]
	return ok && q.IsComplete()
}

// completeObjective is the quest mutation exposed to scripts.
func (e *Engine) completeObjective(questID, objective string) error {
	q, ok := e.snap.Quests[questID]
	if !ok {
		return fmt.Errorf("engine: unknown quest %q", questID)
	}
	return q.CompleteObjective(objective)
}

// unlockExit is the world mutation exposed to scripts.
func (e *Engine) unlockExit(roomID, exitName string) error {
	room, ok := e.snap.Rooms[roomID]
	if !ok {
		return fmt.Errorf("engine: unknown room %q", roomID)
	}
	for i := range room.Exits {
		if room.Exits[i].Name == exitName {
			room.Exits[i].Available = true
			return nil
		}
	}
	return fmt.Errorf("engine: room %q has no exit %q", roomID, exitName)
}
