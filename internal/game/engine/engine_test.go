package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/combat"
	"github.com/cory-johannsen/adventure/internal/game/dialogue"
	"github.com/cory-johannsen/adventure/internal/game/engine"
	"github.com/cory-johannsen/adventure/internal/game/intent"
	"github.com/cory-johannsen/adventure/internal/game/world"
	"github.com/cory-johannsen/adventure/internal/llm"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

// fixedSource makes every combat roll deterministic.
type fixedSource struct{ val int }

func (f fixedSource) Intn(_ int) int { return f.val }

// fakeService replays a queue of canned completions, driving the LLM
// intent path one turn at a time.
type fakeService struct {
	completions []string
	i           int
}

func (f *fakeService) Complete(_ context.Context, _ llm.Request) (string, error) {
	c := f.completions[f.i%len(f.completions)]
	f.i++
	return c, nil
}

func (f *fakeService) Stream(ctx context.Context, req llm.Request, fn func(string) error) error {
	c, err := f.Complete(ctx, req)
	if err != nil {
		return err
	}
	return fn(c)
}

// chunkService streams its reply one rune at a time.
type chunkService struct{ reply string }

func (c *chunkService) Complete(_ context.Context, _ llm.Request) (string, error) {
	return c.reply, nil
}

func (c *chunkService) Stream(_ context.Context, _ llm.Request, fn func(string) error) error {
	for _, r := range c.reply {
		if err := fn(string(r)); err != nil {
			return err
		}
	}
	return nil
}

const worldYAML = `
title: Test World
start_room: tavern
items:
  - id: sword
    name: Steel Sword
    type: weapon
    damage_bonus: 5
    equippable: true
    description: A well-balanced blade.
  - id: crown
    name: Lost Crown
    type: misc
    description: A golden crown.
  - id: rope
    name: Hemp Rope
    type: misc
    description: Twenty feet, slightly frayed.
characters:
  - id: player
    name: Adventurer
    max_health: 30
    strength: 12
    agility: 5
    role: player
  - id: guard
    name: Gate Guard
    max_health: 20
    strength: 10
    agility: 5
    role: friendly
    personality: gruff
  - id: troll
    name: Cave Troll
    max_health: 25
    strength: 14
    agility: 0
    role: hostile
  - id: ogre
    name: Bridge Ogre
    max_health: 100
    strength: 20
    agility: 0
    role: hostile
  - id: hound
    name: Grey Hound
    max_health: 10
    strength: 6
    agility: 12
    role: companion
  - id: sentry
    name: Wall Sentry
    max_health: 20
    strength: 10
    agility: 5
    role: friendly
    personality: bored
    home_room: gate
    patrol: [gate, tavern]
rooms:
  - id: tavern
    title: The Rusty Tankard
    description: A smoky tavern.
    npcs: [hound]
    exits:
      - name: north
        target: gate
    floor:
      - item: sword
      - item: rope
  - id: gate
    title: Town Gate
    description: The town gate.
    npcs: [guard, troll, ogre, sentry]
    exits:
      - name: south
        target: tavern
      - name: cave
        target: cave
        blocked: true
        blocked_message: The cave mouth is sealed.
  - id: cave
    title: Dark Cave
    description: A dripping cave.
    floor:
      - item: crown
    exits:
      - name: out
        target: gate
`

type engineOpts struct {
	chat    llm.Service
	roll    int
	hooks   *scripting.Hooks
	winYAML string
	narrate func(chunk string) error
}

func newEngine(t *testing.T, opts engineOpts) (*engine.Engine, *world.Snapshot) {
	t.Helper()
	snap, err := world.Parse([]byte(worldYAML + opts.winYAML))
	require.NoError(t, err)

	logger := zap.NewNop()
	eng, err := engine.New(engine.Config{
		Snapshot: snap,
		Intents:  intent.NewResolver(opts.chat, logger),
		Combat:   combat.NewResolver(snap.SlotConfig, fixedSource{val: opts.roll}, combat.Options{}),
		Speaker:  dialogue.NewSpeaker(opts.chat, logger),
		Narrate:  opts.narrate,
		Hooks:    opts.hooks,
		Logger:   logger,
	})
	require.NoError(t, err)
	return eng, snap
}

func turn(t *testing.T, eng *engine.Engine, input string) *engine.TurnResult {
	t.Helper()
	result, err := eng.HandleTurn(context.Background(), input)
	require.NoError(t, err)
	return result
}

func TestNew_RequiredCollaborators(t *testing.T) {
	_, err := engine.New(engine.Config{})
	assert.Error(t, err)
}

func TestNew_RejectsInvalidSnapshot(t *testing.T) {
	snap, err := world.Parse([]byte(worldYAML))
	require.NoError(t, err)
	snap.StartRoom = "nowhere"

	logger := zap.NewNop()
	_, err = engine.New(engine.Config{
		Snapshot: snap,
		Intents:  intent.NewResolver(nil, logger),
		Combat:   combat.NewResolver(snap.SlotConfig, fixedSource{val: 99}, combat.Options{}),
		Logger:   logger,
	})
	assert.Error(t, err)
}

func TestHandleTurn_Look(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	result := turn(t, eng, "look")

	require.Len(t, result.Actions, 1)
	assert.True(t, result.Actions[0].Success)
	assert.Contains(t, result.Actions[0].Message, "The Rusty Tankard")
	assert.Contains(t, result.Actions[0].Message, "Steel Sword")
	assert.Contains(t, result.Actions[0].Message, "north")
}

func TestHandleTurn_Move(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	result := turn(t, eng, "go north")

	require.Len(t, result.Actions, 1)
	assert.True(t, result.Actions[0].Success)
	assert.Contains(t, result.Actions[0].Message, "Town Gate")
	assert.Equal(t, "gate", eng.Session().RoomID)
}

func TestHandleTurn_InvalidExit(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99, chat: &fakeService{completions: []string{
		`[{"action": "move", "target": "west"}]`,
	}}})
	result := turn(t, eng, "go west")

	require.Len(t, result.Actions, 1)
	assert.False(t, result.Actions[0].Success)
	assert.Equal(t, "tavern", eng.Session().RoomID)
}

func TestHandleTurn_BlockedExit(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	turn(t, eng, "go north")
	result := turn(t, eng, "go cave")

	require.Len(t, result.Actions, 1)
	assert.False(t, result.Actions[0].Success)
	assert.Equal(t, "The cave mouth is sealed.", result.Actions[0].Message)
	assert.Equal(t, "gate", eng.Session().RoomID)
}

func TestHandleTurn_TakeAndInventory(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})

	result := turn(t, eng, "take sword")
	require.True(t, result.Actions[0].Success)
	assert.Contains(t, result.Actions[0].Message, "Steel Sword")

	result = turn(t, eng, "inventory")
	assert.Contains(t, result.Actions[0].Message, "Steel Sword")

	// The floor stack is gone.
	result = turn(t, eng, "take sword")
	assert.False(t, result.Actions[0].Success)
}

func TestHandleTurn_DropReturnsToFloor(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	turn(t, eng, "take sword")

	result := turn(t, eng, "drop sword")
	require.True(t, result.Actions[0].Success)

	result = turn(t, eng, "inventory")
	assert.Contains(t, result.Actions[0].Message, "aren't carrying anything")

	result = turn(t, eng, "take sword")
	assert.True(t, result.Actions[0].Success)
}

func TestHandleTurn_EquipFlow(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	turn(t, eng, "take sword")

	result := turn(t, eng, "equip sword")
	require.True(t, result.Actions[0].Success)
	require.NotNil(t, result.Actions[0].Equip)
	assert.Equal(t, "main_hand", result.Actions[0].Equip.SlotID)

	result = turn(t, eng, "equipped")
	assert.Contains(t, result.Actions[0].Message, "Main Hand: Steel Sword")

	result = turn(t, eng, "take off sword")
	require.True(t, result.Actions[0].Success)
	require.NotNil(t, result.Actions[0].Unequip)

	result = turn(t, eng, "equipped")
	assert.Contains(t, result.Actions[0].Message, "nothing equipped")
}

func TestHandleTurn_EquipNotCarried(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	result := turn(t, eng, "equip sword")
	assert.False(t, result.Actions[0].Success)
}

func TestHandleTurn_AttackEntersCombat(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	turn(t, eng, "go north")

	result := turn(t, eng, "attack troll")
	require.Len(t, result.Actions, 1)
	ar := result.Actions[0]
	require.True(t, ar.Success)
	require.NotNil(t, ar.Attack)
	assert.True(t, ar.Attack.Hit)
	assert.Equal(t, 6, ar.Attack.RawDamage) // base 5 + strength modifier 1
	require.NotNil(t, ar.Counterattack)
	assert.Equal(t, "player", ar.Counterattack.TargetID)

	assert.True(t, eng.Session().InCombat())
	assert.Equal(t, "troll", eng.Session().CombatTarget())
}

func TestHandleTurn_CombatBlocksExploring(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	turn(t, eng, "go north")
	turn(t, eng, "attack troll")

	for _, input := range []string{"go south", "talk guard", "take sword", "drop sword"} {
		result := turn(t, eng, input)
		assert.False(t, result.Actions[0].Success, "input %q should be blocked in combat", input)
	}
	assert.Equal(t, "gate", eng.Session().RoomID)
}

func TestHandleTurn_FleeOutsideCombatBlocked(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	result := turn(t, eng, "flee")
	assert.False(t, result.Actions[0].Success)
	assert.Contains(t, result.Actions[0].Message, "not in combat")
}

func TestHandleTurn_FleeSuccessEndsCombat(t *testing.T) {
	// Roll 0 always escapes (and the troll never dodges either way).
	eng, _ := newEngine(t, engineOpts{roll: 0})
	turn(t, eng, "go north")
	turn(t, eng, "attack troll")
	require.True(t, eng.Session().InCombat())

	result := turn(t, eng, "flee")
	require.NotNil(t, result.Actions[0].Flee)
	assert.True(t, result.Actions[0].Flee.Success)
	assert.False(t, eng.Session().InCombat())
}

func TestHandleTurn_FleeFailureCostsAHit(t *testing.T) {
	// Roll 99 never escapes.
	eng, snap := newEngine(t, engineOpts{roll: 99})
	turn(t, eng, "go north")
	turn(t, eng, "attack troll")
	before := snap.Characters["player"].Health

	result := turn(t, eng, "flee")
	require.NotNil(t, result.Actions[0].Flee)
	assert.False(t, result.Actions[0].Flee.Success)
	require.NotNil(t, result.Actions[0].Counterattack)
	assert.True(t, eng.Session().InCombat())
	assert.Less(t, snap.Characters["player"].Health, before)
}

func TestHandleTurn_StaleActionsAfterCombat(t *testing.T) {
	// The model queues an attack and a move; the move must be blocked
	// because the attack leaves the session in combat.
	eng, _ := newEngine(t, engineOpts{roll: 99, chat: &fakeService{completions: []string{
		`[{"action": "move", "target": "north"}]`,
		`[{"action": "attack", "target": "troll"}, {"action": "move", "target": "south"}]`,
	}}})
	turn(t, eng, "go north")

	result := turn(t, eng, "attack the troll then run south")
	require.Len(t, result.Actions, 2)
	assert.True(t, result.Actions[0].Success)
	assert.False(t, result.Actions[1].Success)
	assert.Equal(t, "gate", eng.Session().RoomID)
}

func TestHandleTurn_DefeatEndsGame(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	turn(t, eng, "go north")

	// The ogre counterattacks for 10 a turn; the player falls first.
	var result *engine.TurnResult
	for i := 0; i < 30 && !eng.Ended(); i++ {
		result = turn(t, eng, "attack ogre")
	}
	require.True(t, eng.Ended())
	require.NotNil(t, result)
	assert.True(t, result.Ended)
	assert.Equal(t, engine.DefeatText, result.EndingText)
}

func TestHandleTurn_AfterEnded(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	turn(t, eng, "go north")
	for i := 0; i < 30 && !eng.Ended(); i++ {
		turn(t, eng, "attack ogre")
	}
	require.True(t, eng.Ended())

	result := turn(t, eng, "look")
	assert.True(t, result.Ended)
	assert.Empty(t, result.Actions)
}

func TestHandleTurn_WinOnMove(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99, winYAML: `
win_conditions:
  - kind: room
    target: gate
    message: You reached the gate.
    narration: The gate towers above you. Your journey is complete.
`})

	result := turn(t, eng, "go north")
	assert.True(t, result.Ended)
	assert.Equal(t, "The gate towers above you. Your journey is complete.", result.EndingText)
	assert.True(t, eng.Ended())
}

func TestHandleTurn_WinOnItem(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99, winYAML: `
win_conditions:
  - kind: item
    target: sword
    message: The sword is yours.
`})

	result := turn(t, eng, "take sword")
	assert.True(t, result.Ended)
	assert.Equal(t, "The sword is yours.", result.EndingText)
}

func TestHandleTurn_WinOnNPCDefeat(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99, winYAML: `
win_conditions:
  - kind: npc_defeat
    target: troll
    message: The troll is slain.
`})
	turn(t, eng, "go north")

	var result *engine.TurnResult
	for i := 0; i < 30 && !eng.Ended(); i++ {
		result = turn(t, eng, "attack troll")
	}
	require.True(t, eng.Ended())
	require.NotNil(t, result)
	assert.Equal(t, "The troll is slain.", result.EndingText)
}

func TestHandleTurn_Talk(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	turn(t, eng, "go north")

	result := turn(t, eng, "talk to the guard")
	require.True(t, result.Actions[0].Success)
	assert.Contains(t, result.Actions[0].Message, "Gate Guard says")
}

func TestHandleTurn_TalkNobody(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	result := turn(t, eng, "talk to the king")
	assert.False(t, result.Actions[0].Success)
}

func TestHandleTurn_Unknown(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	result := turn(t, eng, "juggle the fish")
	require.Len(t, result.Actions, 1)
	assert.Equal(t, intent.VerbUnknown, result.Actions[0].Verb)
	assert.Equal(t, intent.UnknownMessage, result.Actions[0].Message)
}

func TestHandleTurn_Quit(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	result := turn(t, eng, "quit")
	assert.True(t, result.Quit)
	assert.False(t, result.Ended)
}

func TestHandleTurn_StatusAndHelp(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})

	result := turn(t, eng, "status")
	assert.Contains(t, result.Actions[0].Message, "Adventurer")
	assert.Contains(t, result.Actions[0].Message, "30/30")

	result = turn(t, eng, "help")
	assert.Contains(t, result.Actions[0].Message, "equip")
}

func TestHandleTurn_ScriptUnlocksExit(t *testing.T) {
	script := `
function on_take_item(item_id)
  if item_id == "sword" then
    world.unlock("gate", "cave")
  end
end
`
	path := filepath.Join(t.TempDir(), "hooks.lua")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o600))
	hooks, err := scripting.NewHooks(path, 0, zap.NewNop())
	require.NoError(t, err)
	defer hooks.Close()

	eng, _ := newEngine(t, engineOpts{roll: 99, hooks: hooks})

	turn(t, eng, "take sword")
	turn(t, eng, "go north")

	result := turn(t, eng, "go cave")
	require.True(t, result.Actions[0].Success)
	assert.Equal(t, "cave", eng.Session().RoomID)
}

func TestHandleTurn_RecordsHistory(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	turn(t, eng, "look")
	turn(t, eng, "go north")
	assert.Equal(t, []string{"look", "go north"}, eng.Session().History())
}

func TestHandleTurn_LookHidesBlockedExits(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	turn(t, eng, "go north")

	// Moving through the blocked exit still parses (and reports why the
	// way is shut), but the exit stays out of the room description.
	result := turn(t, eng, "look")
	assert.Contains(t, result.Actions[0].Message, "south")
	assert.NotContains(t, result.Actions[0].Message, "cave")
}

func TestHandleTurn_CompanionFollowsMoves(t *testing.T) {
	eng, snap := newEngine(t, engineOpts{roll: 99})
	require.Contains(t, eng.Session().Companions, "hound")

	result := turn(t, eng, "status")
	assert.Contains(t, result.Actions[0].Message, "Grey Hound")

	turn(t, eng, "go north")
	assert.NotContains(t, snap.Rooms["tavern"].NPCs, "hound")
	assert.Contains(t, snap.Rooms["gate"].NPCs, "hound")
}

func TestHandleTurn_PatrolAdvances(t *testing.T) {
	eng, snap := newEngine(t, engineOpts{roll: 99})
	require.Contains(t, snap.Rooms["gate"].NPCs, "sentry")

	// First step keeps the sentry at the gate, second walks it to the
	// tavern.
	turn(t, eng, "look")
	assert.Contains(t, snap.Rooms["gate"].NPCs, "sentry")
	turn(t, eng, "look")
	assert.NotContains(t, snap.Rooms["gate"].NPCs, "sentry")
	assert.Contains(t, snap.Rooms["tavern"].NPCs, "sentry")
}

func TestHandleTurn_PinnedCombatTargetDoesNotPatrol(t *testing.T) {
	eng, snap := newEngine(t, engineOpts{roll: 99})
	turn(t, eng, "go north")
	turn(t, eng, "attack troll")
	require.True(t, eng.Session().InCombat())

	snap.Characters["troll"].Behavior = &character.NPCBehavior{Patrol: []string{"tavern", "gate"}}
	turn(t, eng, "status")
	assert.Contains(t, snap.Rooms["gate"].NPCs, "troll")
}

func TestHandleTurn_TalkStreamsChunks(t *testing.T) {
	var chunks []string
	eng, _ := newEngine(t, engineOpts{
		roll: 99,
		chat: &chunkService{reply: "Halt!"},
		narrate: func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		},
	})
	turn(t, eng, "go north")

	result := turn(t, eng, "talk to the guard")
	require.True(t, result.Actions[0].Success)
	assert.Equal(t, []string{"H", "a", "l", "t", "!"}, chunks)
	assert.Contains(t, result.Actions[0].Message, "Halt!")
}

func TestHandleTurn_InventorySortedByName(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99})
	turn(t, eng, "take sword")
	turn(t, eng, "take rope")

	result := turn(t, eng, "inventory")
	msg := result.Actions[0].Message
	ropeAt := strings.Index(msg, "Hemp Rope")
	swordAt := strings.Index(msg, "Steel Sword")
	require.GreaterOrEqual(t, ropeAt, 0)
	require.GreaterOrEqual(t, swordAt, 0)
	assert.Less(t, ropeAt, swordAt)
}

func TestHandleTurn_StatusListsQuestsInOrder(t *testing.T) {
	eng, _ := newEngine(t, engineOpts{roll: 99, winYAML: `
quests:
  - id: z_errand
    name: Zeta Errand
    objectives: [deliver]
  - id: a_errand
    name: Alpha Errand
    objectives: [fetch]
`})

	result := turn(t, eng, "status")
	msg := result.Actions[0].Message
	alphaAt := strings.Index(msg, "Alpha Errand")
	zetaAt := strings.Index(msg, "Zeta Errand")
	require.GreaterOrEqual(t, alphaAt, 0)
	require.GreaterOrEqual(t, zetaAt, 0)
	assert.Less(t, alphaAt, zetaAt)
}
