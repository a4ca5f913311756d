package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/dialogue"
	"github.com/cory-johannsen/adventure/internal/game/equipment"
	"github.com/cory-johannsen/adventure/internal/game/intent"
	"github.com/cory-johannsen/adventure/internal/game/world"
)

// buildDispatchTable maps every verb to its handler. New must verify the
// table is total over intent.AllVerbs.
func (e *Engine) buildDispatchTable() map[intent.Verb]handler {
	return map[intent.Verb]handler{
		intent.VerbMove:      e.handleMove,
		intent.VerbLook:      e.handleLook,
		intent.VerbTalk:      e.handleTalk,
		intent.VerbTake:      e.handleTake,
		intent.VerbDrop:      e.handleDrop,
		intent.VerbAttack:    e.handleAttack,
		intent.VerbFlee:      e.handleFlee,
		intent.VerbEquip:     e.handleEquip,
		intent.VerbUnequip:   e.handleUnequip,
		intent.VerbEquipped:  e.handleEquipped,
		intent.VerbInventory: e.handleInventory,
		intent.VerbStatus:    e.handleStatus,
		intent.VerbHelp:      e.handleHelp,
		intent.VerbQuit:      e.handleQuit,
		intent.VerbUnknown:   e.handleUnknown,
	}
}

// currentRoom returns the session's room. HandleTurn verified it exists
// before dispatching.
func (e *Engine) currentRoom() *world.Room {
	return e.snap.Rooms[e.sess.RoomID]
}

// findExit fuzzy-matches name against the current room's exits: exact
// (case-insensitive) first, then name as a substring of an exit, then an
// exit as a substring of name.
func (e *Engine) findExit(room *world.Room, name string) (world.Exit, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return world.Exit{}, false
	}
	for _, ex := range room.Exits {
		if strings.ToLower(ex.Name) == name {
			return ex, true
		}
	}
	for _, ex := range room.Exits {
		if strings.Contains(strings.ToLower(ex.Name), name) {
			return ex, true
		}
	}
	for _, ex := range room.Exits {
		if strings.Contains(name, strings.ToLower(ex.Name)) {
			return ex, true
		}
	}
	return world.Exit{}, false
}

// findNPC matches name against living NPCs in room by display name.
func (e *Engine) findNPC(room *world.Room, name string) (*character.Character, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, false
	}
	for _, npcID := range room.NPCs {
		npc, ok := e.snap.Characters[npcID]
		if !ok || npc.IsDead() {
			continue
		}
		if strings.Contains(strings.ToLower(npc.Name), name) || npcID == name {
			return npc, true
		}
	}
	return nil, false
}

func (e *Engine) handleMove(_ context.Context, act intent.Action) ActionResult {
	room := e.currentRoom()
	exit, ok := e.findExit(room, act.Target)
	if !ok {
		return failure(intent.VerbMove, act.Target, fmt.Sprintf("You can't go %q from here.", act.Target))
	}
	if !exit.Available {
		msg := exit.BlockedMessage
		if msg == "" {
			msg = fmt.Sprintf("The way %s is blocked.", exit.Name)
		}
		return failure(intent.VerbMove, exit.Name, msg)
	}

	e.sess.RoomID = exit.Target
	e.moveCompanions(room, exit.Target)
	if e.hooks != nil {
		e.hooks.OnEnterRoom(exit.Target)
	}
	dest := e.currentRoom()
	e.recruitCompanions(dest)
	e.logger.Debug("player moved",
		zap.String("from", room.ID),
		zap.String("to", dest.ID),
	)
	return success(intent.VerbMove, exit.Name, e.describeRoom(dest))
}

// moveCompanions relocates companion NPCs alongside the player.
func (e *Engine) moveCompanions(from *world.Room, toID string) {
	to := e.snap.Rooms[toID]
	for _, id := range e.sess.Companions {
		from.RemoveNPC(id)
		to.NPCs = append(to.NPCs, id)
	}
}

func (e *Engine) handleLook(_ context.Context, act intent.Action) ActionResult {
	room := e.currentRoom()
	if act.Target != "" {
		if npc, ok := e.findNPC(room, act.Target); ok {
			return success(intent.VerbLook, npc.ID, fmt.Sprintf("%s. Health: %d/%d.", npc.Name, npc.Health, npc.MaxHealth))
		}
		if def, ok := e.player.FindCarried(act.Target); ok {
			return success(intent.VerbLook, def.ID, def.Description)
		}
		for _, fi := range room.Floor {
			if def, ok := e.snap.Items.Item(fi.ItemID); ok && def.MatchesKeyword(act.Target) {
				return success(intent.VerbLook, def.ID, def.Description)
			}
		}
		return failure(intent.VerbLook, act.Target, fmt.Sprintf("You don't see %q here.", act.Target))
	}
	return success(intent.VerbLook, room.ID, e.describeRoom(room))
}

// describeRoom renders the plain fallback description of a room.
func (e *Engine) describeRoom(room *world.Room) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n%s", room.Title, room.Description)
	if names := e.npcNames(room); len(names) > 0 {
		fmt.Fprintf(&sb, "\nYou see: %s.", strings.Join(names, ", "))
	}
	if items := e.floorItemNames(room); len(items) > 0 {
		fmt.Fprintf(&sb, "\nOn the ground: %s.", strings.Join(items, ", "))
	}
	if exits := room.ExitNames(); len(exits) > 0 {
		fmt.Fprintf(&sb, "\nExits: %s.", strings.Join(exits, ", "))
	}
	return sb.String()
}

func (e *Engine) npcNames(room *world.Room) []string {
	var names []string
	for _, id := range room.NPCs {
		if npc, ok := e.snap.Characters[id]; ok && !npc.IsDead() {
			names = append(names, npc.Name)
		}
	}
	return names
}

func (e *Engine) floorItemNames(room *world.Room) []string {
	var names []string
	for _, fi := range room.Floor {
		if def, ok := e.snap.Items.Item(fi.ItemID); ok {
			names = append(names, def.Name)
		}
	}
	return names
}

func (e *Engine) handleTalk(ctx context.Context, act intent.Action) ActionResult {
	room := e.currentRoom()
	npc, ok := e.findNPC(room, act.Target)
	if !ok {
		return failure(intent.VerbTalk, act.Target, fmt.Sprintf("There's no one called %q here.", act.Target))
	}
	if npc.Behavior == nil {
		return failure(intent.VerbTalk, npc.ID, fmt.Sprintf("%s doesn't respond.", npc.Name))
	}

	line := act.Details
	if line == "" {
		line = "Hello."
	}
	reply := dialogue.StockReply
	if e.speaker != nil {
		sink := e.narrate
		if sink == nil {
			sink = func(string) error { return nil }
		}
		reply = e.speaker.RespondStream(ctx, npc, line, sink)
	}
	if e.hooks != nil {
		e.hooks.OnTalk(npc.ID)
	}
	return success(intent.VerbTalk, npc.ID, fmt.Sprintf("%s says: %q", npc.Name, reply))
}

func (e *Engine) handleTake(_ context.Context, act intent.Action) ActionResult {
	room := e.currentRoom()
	for _, fi := range room.Floor {
		def, ok := e.snap.Items.Item(fi.ItemID)
		if !ok || !def.MatchesKeyword(act.Target) {
			continue
		}
		room.TakeFloorItem(def.ID)
		e.player.AddItem(def, 1)
		if e.hooks != nil {
			e.hooks.OnTakeItem(def.ID)
		}
		return success(intent.VerbTake, def.ID, fmt.Sprintf("You pick up the %s.", def.Name))
	}
	return failure(intent.VerbTake, act.Target, fmt.Sprintf("There's no %q here to take.", act.Target))
}

func (e *Engine) handleDrop(_ context.Context, act intent.Action) ActionResult {
	def, ok := e.player.FindCarried(act.Target)
	if !ok {
		return failure(intent.VerbDrop, act.Target, fmt.Sprintf("You aren't carrying %q.", act.Target))
	}
	if err := e.player.RemoveItem(def.ID, 1); err != nil {
		return failure(intent.VerbDrop, def.ID, fmt.Sprintf("You can't drop the %s.", def.Name))
	}
	e.currentRoom().AddFloorItem(def.ID)
	return success(intent.VerbDrop, def.ID, fmt.Sprintf("You drop the %s.", def.Name))
}

func (e *Engine) handleAttack(_ context.Context, act intent.Action) ActionResult {
	room := e.currentRoom()

	var target *character.Character
	if e.sess.InCombat() {
		// Mid-combat the pinned target wins over any named one.
		if npc, ok := e.snap.Characters[e.sess.CombatTarget()]; ok && !npc.IsDead() {
			target = npc
		}
	}
	if target == nil {
		npc, ok := e.findNPC(room, act.Target)
		if !ok {
			e.sess.ExitCombat()
			return failure(intent.VerbAttack, act.Target, fmt.Sprintf("There's no %q here to attack.", act.Target))
		}
		target = npc
		e.sess.EnterCombat(target.ID)
	}

	attack := e.combat.ResolveAttack(e.player, target)
	result := success(intent.VerbAttack, target.ID, attack.Message)
	result.Attack = &attack

	if attack.TargetDefeated {
		e.sess.ExitCombat()
		e.logger.Info("npc defeated",
			zap.String("npc", target.ID),
			zap.String("room", room.ID),
		)
		return result
	}

	// The target strikes back before the player's next action.
	counter := e.combat.ResolveAttack(target, e.player)
	result.Counterattack = &counter
	result.Message = attack.Message + " " + counter.Message
	return result
}

func (e *Engine) handleFlee(_ context.Context, _ intent.Action) ActionResult {
	targetID := e.sess.CombatTarget()
	flee := e.combat.ResolveFlee(e.player)
	result := ActionResult{Verb: intent.VerbFlee, Target: targetID, Success: flee.Success, Message: flee.Message}
	result.Flee = &flee

	if flee.Success {
		e.sess.ExitCombat()
		return result
	}

	// A failed escape costs the player a free hit.
	if npc, ok := e.snap.Characters[targetID]; ok && !npc.IsDead() {
		counter := e.combat.ResolveAttack(npc, e.player)
		result.Counterattack = &counter
		result.Message = flee.Message + " " + counter.Message
	}
	return result
}

func (e *Engine) handleEquip(_ context.Context, act intent.Action) ActionResult {
	def, ok := e.player.FindCarried(act.Target)
	if !ok {
		return failure(intent.VerbEquip, act.Target, fmt.Sprintf("You aren't carrying %q.", act.Target))
	}
	slotID, ok := equipment.DetermineSlot(def, e.snap.SlotConfig)
	if !ok {
		return failure(intent.VerbEquip, def.ID, fmt.Sprintf("The %s can't be equipped anywhere.", def.Name))
	}
	res, err := equipment.Equip(e.player, def, slotID, e.snap.SlotConfig)
	if err != nil {
		return failure(intent.VerbEquip, def.ID, equipFailureMessage(def.Name, err))
	}

	slot, _ := e.snap.SlotConfig.Slot(res.SlotID)
	msg := fmt.Sprintf("You equip the %s (%s).", def.Name, slot.Name)
	if res.DisplacedID != "" {
		if prev, ok := e.snap.Items.Item(res.DisplacedID); ok {
			msg = fmt.Sprintf("You swap the %s for the %s (%s).", prev.Name, def.Name, slot.Name)
		}
	}
	out := success(intent.VerbEquip, def.ID, msg)
	out.Equip = &res
	return out
}

// equipFailureMessage maps equip-path sentinels to player-facing text.
func equipFailureMessage(name string, err error) string {
	switch {
	case errors.Is(err, equipment.ErrNotEquippable):
		return fmt.Sprintf("The %s isn't something you can equip.", name)
	case errors.Is(err, equipment.ErrItemNotFound):
		return fmt.Sprintf("You aren't carrying the %s.", name)
	default:
		return fmt.Sprintf("You can't equip the %s.", name)
	}
}

func (e *Engine) handleUnequip(_ context.Context, act intent.Action) ActionResult {
	res, err := equipment.Unequip(e.player, act.Target, e.snap.SlotConfig)
	if err != nil {
		return failure(intent.VerbUnequip, act.Target, fmt.Sprintf("You don't have %q equipped.", act.Target))
	}
	name := res.ItemID
	if def, ok := e.snap.Items.Item(res.ItemID); ok {
		name = def.Name
	}
	out := success(intent.VerbUnequip, res.ItemID, fmt.Sprintf("You take off the %s.", name))
	out.Unequip = &res
	return out
}

func (e *Engine) handleEquipped(_ context.Context, _ intent.Action) ActionResult {
	var sb strings.Builder
	sb.WriteString("You are wearing:")
	empty := true
	for _, slot := range e.snap.SlotConfig.Slots {
		def, ok := e.player.EquippedItem(slot.ID)
		if !ok {
			continue
		}
		empty = false
		fmt.Fprintf(&sb, "\n  %s: %s", slot.Name, def.Name)
	}
	if empty {
		return success(intent.VerbEquipped, "", "You have nothing equipped.")
	}
	return success(intent.VerbEquipped, "", sb.String())
}

func (e *Engine) handleInventory(_ context.Context, _ intent.Action) ActionResult {
	if len(e.player.Carried) == 0 {
		return success(intent.VerbInventory, "", "You aren't carrying anything.")
	}
	entries := make([]*character.Carried, 0, len(e.player.Carried))
	for _, entry := range e.player.Carried {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Item.Name < entries[j].Item.Name })

	var sb strings.Builder
	sb.WriteString("You are carrying:")
	for _, entry := range entries {
		if entry.Quantity > 1 {
			fmt.Fprintf(&sb, "\n  %s x%d", entry.Item.Name, entry.Quantity)
		} else {
			fmt.Fprintf(&sb, "\n  %s", entry.Item.Name)
		}
	}
	return success(intent.VerbInventory, "", sb.String())
}

func (e *Engine) handleStatus(_ context.Context, _ intent.Action) ActionResult {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: health %d/%d, strength %d, agility %d, armor %d",
		e.player.Name, e.player.Health, e.player.MaxHealth,
		e.player.Strength, e.player.Agility, e.player.TotalArmor(),
	)
	if e.sess.InCombat() {
		if npc, ok := e.snap.Characters[e.sess.CombatTarget()]; ok {
			fmt.Fprintf(&sb, "\nIn combat with %s (%d/%d).", npc.Name, npc.Health, npc.MaxHealth)
		}
	}
	if len(e.sess.Companions) > 0 {
		var names []string
		for _, id := range e.sess.Companions {
			if c, ok := e.snap.Characters[id]; ok {
				names = append(names, c.Name)
			}
		}
		fmt.Fprintf(&sb, "\nTraveling with: %s.", strings.Join(names, ", "))
	}
	questIDs := make([]string, 0, len(e.snap.Quests))
	for id := range e.snap.Quests {
		questIDs = append(questIDs, id)
	}
	sort.Strings(questIDs)
	for _, id := range questIDs {
		q := e.snap.Quests[id]
		if remaining := q.Remaining(); len(remaining) > 0 {
			fmt.Fprintf(&sb, "\nQuest %q: %d objective(s) remaining.", q.Name, len(remaining))
		}
	}
	return success(intent.VerbStatus, "", sb.String())
}

func (e *Engine) handleHelp(_ context.Context, _ intent.Action) ActionResult {
	return success(intent.VerbHelp, "", "You can: move <exit>, look, talk <name>, take <item>, drop <item>, "+
		"attack <name>, flee, equip <item>, unequip <item or slot>, equipped, inventory, status, help, quit.")
}

func (e *Engine) handleQuit(_ context.Context, _ intent.Action) ActionResult {
	return success(intent.VerbQuit, "", "Farewell, adventurer.")
}

func (e *Engine) handleUnknown(_ context.Context, act intent.Action) ActionResult {
	msg := act.Details
	if msg == "" {
		msg = intent.UnknownMessage
	}
	return failure(intent.VerbUnknown, act.Target, msg)
}
