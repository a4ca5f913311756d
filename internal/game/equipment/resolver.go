package equipment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/item"
)

// Sentinel errors for the equip and unequip paths. All are recovered within
// the turn and surfaced to the player; none mutates state.
var (
	// ErrItemNotFound means the named item is not in the carried-items table.
	ErrItemNotFound = errors.New("equipment: item not found in carried items")
	// ErrNotEquippable means the item exists but cannot be equipped.
	ErrNotEquippable = errors.New("equipment: item is not equippable")
	// ErrSlotNotFound means no slot in the schema can hold the item.
	ErrSlotNotFound = errors.New("equipment: no slot accepts this item")
	// ErrNotEquipped means the unequip identifier matched no occupied slot
	// or equipped item.
	ErrNotEquipped = errors.New("equipment: nothing equipped by that name")
)

// DetermineSlot maps an item to a slot ID under cfg.
//
// Resolution order: explicit declared slot, unique type match, keyword
// disambiguation among type matches (first slot in schema order whose
// keywords match the item wins, else the first type-compatible slot), and
// finally a keyword scan across every slot. Pure function: identical item
// and config always yield the identical result.
//
// Postcondition: returns ("", false) iff the item cannot be equipped
// anywhere under cfg.
func DetermineSlot(i *item.Item, cfg *SlotConfig) (string, bool) {
	if i.Slot != "" {
		if _, ok := cfg.Slot(i.Slot); ok {
			return i.Slot, true
		}
	}

	var candidates []SlotDef
	for _, s := range cfg.Slots {
		if s.AcceptsType(i.Type) {
			candidates = append(candidates, s)
		}
	}
	switch len(candidates) {
	case 0:
		// No type match: keyword scan across every slot as a last resort.
		for _, s := range cfg.Slots {
			if slotKeywordsMatch(s, i) {
				return s.ID, true
			}
		}
		return "", false
	case 1:
		return candidates[0].ID, true
	default:
		for _, s := range candidates {
			if slotKeywordsMatch(s, i) {
				return s.ID, true
			}
		}
		return candidates[0].ID, true
	}
}

// slotKeywordsMatch reports whether any of the slot's keywords match the
// item's name, type, or keyword list, case-insensitively.
func slotKeywordsMatch(s SlotDef, i *item.Item) bool {
	for _, kw := range s.Keywords {
		if i.MatchesKeyword(kw) {
			return true
		}
	}
	return false
}

// EquipResult describes a completed equip for the narrator.
type EquipResult struct {
	// SlotID is the slot the item now occupies.
	SlotID string
	// ItemID is the equipped item.
	ItemID string
	// DisplacedID is the item ID previously occupying the slot, or "".
	DisplacedID string
	// ArmorDelta is the change in total armor caused by the swap.
	ArmorDelta int
	// DamageDelta is the change in weapon damage bonus caused by the swap.
	DamageDelta int
}

// Equip places i into slotID on ch. An occupied slot is overwritten and the
// previous occupant is implicitly unequipped; the displaced item remains in
// the carried-items table.
//
// Precondition: ch and i must not be nil; cfg must contain slotID.
// Postcondition: on error, ch is unchanged. On success ch.Slots[slotID] ==
// i.ID and the slot/carried invariant holds.
func Equip(ch *character.Character, i *item.Item, slotID string, cfg *SlotConfig) (EquipResult, error) {
	if _, ok := ch.Carried[i.ID]; !ok {
		return EquipResult{}, fmt.Errorf("equipping %q: %w", i.Name, ErrItemNotFound)
	}
	if !i.Equippable {
		return EquipResult{}, fmt.Errorf("equipping %q: %w", i.Name, ErrNotEquippable)
	}
	if _, ok := cfg.Slot(slotID); !ok {
		return EquipResult{}, fmt.Errorf("equipping %q into slot %q: %w", i.Name, slotID, ErrSlotNotFound)
	}

	result := EquipResult{SlotID: slotID, ItemID: i.ID}
	if prevID, occupied := ch.Slots[slotID]; occupied && prevID != "" {
		result.DisplacedID = prevID
		if prev, ok := ch.Carried[prevID]; ok {
			result.ArmorDelta -= prev.Item.ArmorBonus
			result.DamageDelta -= prev.Item.DamageBonus
		}
	}
	ch.Slots[slotID] = i.ID
	result.ArmorDelta += i.ArmorBonus
	result.DamageDelta += i.DamageBonus
	return result, nil
}

// UnequipResult describes a completed unequip for the narrator.
type UnequipResult struct {
	// SlotID is the slot that was cleared.
	SlotID string
	// ItemID is the item removed from the slot. It remains carried.
	ItemID string
}

// Unequip clears the slot named by identifier, which may be a slot ID, a
// slot display name, or the name of a currently equipped item. Internal
// separators and spaces are normalized so "main hand" resolves to
// "main_hand".
//
// Postcondition: on success the slot is empty and the item remains in the
// carried-items table; returns ErrNotEquipped if identifier resolves to
// neither an occupied slot nor an equipped item.
func Unequip(ch *character.Character, identifier string, cfg *SlotConfig) (UnequipResult, error) {
	normalized := normalizeSlotName(identifier)

	// Slot IDs take precedence over item names.
	for _, s := range cfg.Slots {
		if s.ID != normalized && normalizeSlotName(s.Name) != normalized {
			continue
		}
		itemID, occupied := ch.Slots[s.ID]
		if !occupied || itemID == "" {
			return UnequipResult{}, fmt.Errorf("slot %q: %w", s.ID, ErrNotEquipped)
		}
		delete(ch.Slots, s.ID)
		return UnequipResult{SlotID: s.ID, ItemID: itemID}, nil
	}

	// Fall back to matching the names of currently equipped items, walking
	// slots in schema order so ties break the same way DetermineSlot does.
	for _, s := range cfg.Slots {
		itemID, occupied := ch.Slots[s.ID]
		if !occupied || itemID == "" {
			continue
		}
		entry, ok := ch.Carried[itemID]
		if !ok {
			continue
		}
		if entry.Item.MatchesKeyword(strings.TrimSpace(identifier)) {
			delete(ch.Slots, s.ID)
			return UnequipResult{SlotID: s.ID, ItemID: itemID}, nil
		}
	}

	return UnequipResult{}, fmt.Errorf("%q: %w", identifier, ErrNotEquipped)
}

// normalizeSlotName lowercases s and replaces spaces and hyphens with
// underscores so player phrasing matches slot IDs.
func normalizeSlotName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
