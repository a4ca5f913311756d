// Package world provides the world snapshot model: rooms, exits, the
// character roster, and snapshot-wide validation.
package world

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/equipment"
	"github.com/cory-johannsen/adventure/internal/game/item"
	"github.com/cory-johannsen/adventure/internal/game/quest"
)

// ErrInvariantViolation reports a malformed world snapshot: a dangling room,
// item, or character reference. It is fatal; the core never retries it.
var ErrInvariantViolation = errors.New("world: snapshot invariant violation")

// Exit is a passage out of a room, keyed by display name.
type Exit struct {
	// Name is the display name players use ("north", "oak door").
	Name string
	// Target is the destination room ID.
	Target string
	// Available is false while the exit is blocked or locked.
	Available bool
	// BlockedMessage is shown when the exit is unavailable.
	BlockedMessage string
}

// FloorItem is one item stack lying in a room.
type FloorItem struct {
	// ItemID references the item registry.
	ItemID string
	// Quantity is the stack size. Always >= 1.
	Quantity int
}

// Room is one location in the world.
type Room struct {
	// ID uniquely identifies the room.
	ID string
	// Title is the short display name.
	Title string
	// Description is the prose shown on look and given to the narrator.
	Description string
	// Exits lists passages out of the room, in presentation order.
	Exits []Exit
	// NPCs lists the IDs of characters present in the room.
	NPCs []string
	// Floor lists item stacks lying in the room.
	Floor []FloorItem
	// Properties holds free-form metadata (lighting, ambience, ...).
	Properties map[string]string
}

// ExitByName returns the exit fuzzy-matched earlier by the intent layer.
// Matching here is exact and case-sensitive on the display name.
//
// Postcondition: returns (Exit{}, false) when no exit has that name.
func (r *Room) ExitByName(name string) (Exit, bool) {
	for _, e := range r.Exits {
		if e.Name == name {
			return e, true
		}
	}
	return Exit{}, false
}

// ExitNames returns the display names of currently available exits.
func (r *Room) ExitNames() []string {
	names := make([]string, 0, len(r.Exits))
	for _, e := range r.Exits {
		if e.Available {
			names = append(names, e.Name)
		}
	}
	return names
}

// AllExitNames returns every exit name, blocked ones included. The intent
// layer matches against this list so naming a blocked exit resolves to a
// move and surfaces its blocked message instead of parsing as unknown.
func (r *Room) AllExitNames() []string {
	names := make([]string, 0, len(r.Exits))
	for _, e := range r.Exits {
		names = append(names, e.Name)
	}
	return names
}

// TakeFloorItem removes one unit of itemID from the floor.
//
// Postcondition: returns false when the item is not on the floor; the floor
// entry is deleted when its quantity reaches zero.
func (r *Room) TakeFloorItem(itemID string) bool {
	for i := range r.Floor {
		if r.Floor[i].ItemID != itemID {
			continue
		}
		r.Floor[i].Quantity--
		if r.Floor[i].Quantity <= 0 {
			r.Floor = append(r.Floor[:i], r.Floor[i+1:]...)
		}
		return true
	}
	return false
}

// AddFloorItem places one unit of itemID on the floor, stacking when a
// stack already exists.
func (r *Room) AddFloorItem(itemID string) {
	for i := range r.Floor {
		if r.Floor[i].ItemID == itemID {
			r.Floor[i].Quantity++
			return
		}
	}
	r.Floor = append(r.Floor, FloorItem{ItemID: itemID, Quantity: 1})
}

// RemoveNPC deletes npcID from the room's NPC list.
func (r *Room) RemoveNPC(npcID string) {
	for i, id := range r.NPCs {
		if id == npcID {
			r.NPCs = append(r.NPCs[:i], r.NPCs[i+1:]...)
			return
		}
	}
}

// Snapshot is the fully populated world handed to the engine before the
// first turn. The engine mutates it; it is never reloaded mid-session.
type Snapshot struct {
	// Title is the adventure's display name.
	Title string
	// StartRoom is the room the session begins in.
	StartRoom string
	// Rooms holds every room, keyed by ID.
	Rooms map[string]*Room
	// Characters holds the player and every NPC, keyed by ID.
	Characters map[string]*character.Character
	// Items is the canonical item definition registry.
	Items *item.Registry
	// SlotConfig is the per-game equipment slot schema.
	SlotConfig *equipment.SlotConfig
	// Quests holds every quest, keyed by ID.
	Quests map[string]*quest.Quest
	// WinConditions is tested in order after every successful dispatch.
	WinConditions []quest.WinCondition
	// ScriptFile is an optional Lua hook script path. Empty = no scripts.
	ScriptFile string
}

// Player returns the unique character with the player role.
//
// Postcondition: returns an error wrapping ErrInvariantViolation when the
// snapshot has no player.
func (s *Snapshot) Player() (*character.Character, error) {
	for _, c := range s.Characters {
		if c.Role == character.RolePlayer {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: snapshot has no player character", ErrInvariantViolation)
}

// Validate checks every cross-reference in the snapshot. A nil return means
// the engine can assume all lookups succeed; any violation found here would
// otherwise surface mid-turn as an unrecoverable fault.
func (s *Snapshot) Validate() error {
	if s.StartRoom == "" {
		return fmt.Errorf("%w: start_room must not be empty", ErrInvariantViolation)
	}
	if _, ok := s.Rooms[s.StartRoom]; !ok {
		return fmt.Errorf("%w: start_room %q not found", ErrInvariantViolation, s.StartRoom)
	}
	if s.SlotConfig == nil {
		return fmt.Errorf("%w: snapshot has no slot configuration", ErrInvariantViolation)
	}
	if err := s.SlotConfig.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}
	if _, err := s.Player(); err != nil {
		return err
	}

	for id, room := range s.Rooms {
		if room.ID != id {
			return fmt.Errorf("%w: room key %q does not match room ID %q", ErrInvariantViolation, id, room.ID)
		}
		for _, e := range room.Exits {
			if _, ok := s.Rooms[e.Target]; !ok {
				return fmt.Errorf("%w: room %q exit %q targets unknown room %q", ErrInvariantViolation, id, e.Name, e.Target)
			}
		}
		for _, npcID := range room.NPCs {
			if _, ok := s.Characters[npcID]; !ok {
				return fmt.Errorf("%w: room %q references unknown character %q", ErrInvariantViolation, id, npcID)
			}
		}
		for _, fi := range room.Floor {
			if _, ok := s.Items.Item(fi.ItemID); !ok {
				return fmt.Errorf("%w: room %q floor references unknown item %q", ErrInvariantViolation, id, fi.ItemID)
			}
		}
	}

	for _, c := range s.Characters {
		if err := c.ValidateEquipment(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvariantViolation, err)
		}
		for slotID := range c.Slots {
			if _, ok := s.SlotConfig.Slot(slotID); !ok {
				return fmt.Errorf("%w: character %q uses unknown slot %q", ErrInvariantViolation, c.ID, slotID)
			}
		}
	}

	for _, w := range s.WinConditions {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvariantViolation, err)
		}
		if w.Kind == quest.KindQuestComplete {
			if _, ok := s.Quests[w.Target]; !ok {
				return fmt.Errorf("%w: win condition targets unknown quest %q", ErrInvariantViolation, w.Target)
			}
		}
	}
	return nil
}
