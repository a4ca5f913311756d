// Package character provides the shared combatant model used by the player
// and all NPCs: stats, equipment slots, and the carried-items table.
package character

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/adventure/internal/game/item"
)

// Role constants for Character.Role.
const (
	RolePlayer    = "player"
	RoleCompanion = "companion"
	RoleFriendly  = "friendly"
	RoleHostile   = "hostile"
)

// Carried records one owned item instance and its stack quantity.
type Carried struct {
	// Item is the item definition. Never nil for a registered entry.
	Item *item.Item
	// Quantity is the stack size. Always >= 1 while the entry exists.
	Quantity int
}

// Character is the shared combatant core: identity, stats, equipment slots,
// and carried items. NPC-only behavior lives in the optional Behavior
// component so player instances carry no dead fields.
//
// Invariant: every value in Slots references a key present in Carried.
// Invariant: a slot holds at most one item ID.
type Character struct {
	// ID uniquely identifies this character within the world snapshot.
	ID string
	// Name is the display name shown to the player.
	Name string
	// Health is the current hit points, clamped to [0, MaxHealth].
	Health int
	// MaxHealth is the hit point ceiling.
	MaxHealth int
	// Strength drives melee damage.
	Strength int
	// Agility drives dodge and flee checks.
	Agility int
	// Armor is the base armor value before equipment bonuses.
	Armor int
	// Slots maps equipment slot IDs to the ID of the item occupying them.
	// Slots store IDs only; the instances live in Carried.
	Slots map[string]string
	// Carried is the canonical owned-items table, keyed by item ID.
	Carried map[string]*Carried
	// Role classifies the character (player, companion, friendly, hostile).
	Role string
	// Behavior holds NPC-only state. Nil for the player.
	Behavior *NPCBehavior
}

// New returns a Character with initialised maps.
//
// Precondition: id and name must be non-empty; maxHealth must be >= 1.
// Postcondition: Health == MaxHealth; Slots and Carried are non-nil.
func New(id, name string, maxHealth int) *Character {
	return &Character{
		ID:        id,
		Name:      name,
		Health:    maxHealth,
		MaxHealth: maxHealth,
		Slots:     make(map[string]string),
		Carried:   make(map[string]*Carried),
	}
}

// IsDead reports whether the character has been reduced to 0 health.
func (c *Character) IsDead() bool { return c.Health <= 0 }

// ApplyDamage reduces health by dmg, flooring at 0.
//
// Precondition: dmg must be >= 0.
// Postcondition: Health >= 0.
func (c *Character) ApplyDamage(dmg int) {
	c.Health -= dmg
	if c.Health < 0 {
		c.Health = 0
	}
}

// Heal raises health by amount, capped at MaxHealth.
//
// Precondition: amount must be >= 0.
func (c *Character) Heal(amount int) {
	c.Health += amount
	if c.Health > c.MaxHealth {
		c.Health = c.MaxHealth
	}
}

// TotalArmor returns base armor plus the armor bonus of every item currently
// referenced by an occupied equipment slot.
//
// Postcondition: result >= c.Armor.
func (c *Character) TotalArmor() int {
	total := c.Armor
	for _, itemID := range c.Slots {
		if itemID == "" {
			continue
		}
		if carried, ok := c.Carried[itemID]; ok {
			total += carried.Item.ArmorBonus
		}
	}
	return total
}

// AddItem adds qty of def to the carried-items table, stacking onto an
// existing entry when present.
//
// Precondition: def must not be nil; qty must be >= 1.
func (c *Character) AddItem(def *item.Item, qty int) {
	if entry, ok := c.Carried[def.ID]; ok {
		entry.Quantity += qty
		return
	}
	c.Carried[def.ID] = &Carried{Item: def, Quantity: qty}
}

// RemoveItem removes qty of itemID from the carried-items table. The entry
// is deleted when its quantity reaches zero, and any slot referencing the
// item is cleared to preserve the slot/carried invariant.
//
// Postcondition: returns an error if the item is absent or qty exceeds the
// stack; on error the table is unchanged.
func (c *Character) RemoveItem(itemID string, qty int) error {
	entry, ok := c.Carried[itemID]
	if !ok {
		return fmt.Errorf("character %q does not carry item %q", c.ID, itemID)
	}
	if qty > entry.Quantity {
		return fmt.Errorf("character %q carries %d of item %q, cannot remove %d", c.ID, entry.Quantity, itemID, qty)
	}
	entry.Quantity -= qty
	if entry.Quantity == 0 {
		delete(c.Carried, itemID)
		for slot, id := range c.Slots {
			if id == itemID {
				delete(c.Slots, slot)
			}
		}
	}
	return nil
}

// FindCarried returns the first carried item matching name by keyword, or
// (nil, false) if none matches.
func (c *Character) FindCarried(name string) (*item.Item, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}
	for _, entry := range c.Carried {
		if entry.Item.MatchesKeyword(name) {
			return entry.Item, true
		}
	}
	return nil, false
}

// EquippedItem returns the item occupying slotID, or (nil, false) if the
// slot is empty or the referenced item is missing from the carried table.
func (c *Character) EquippedItem(slotID string) (*item.Item, bool) {
	itemID, ok := c.Slots[slotID]
	if !ok || itemID == "" {
		return nil, false
	}
	entry, ok := c.Carried[itemID]
	if !ok {
		return nil, false
	}
	return entry.Item, true
}

// ValidateEquipment checks the slot/carried invariant: every occupied slot
// must reference an item present in the carried-items table.
//
// Postcondition: returns nil iff the invariant holds.
func (c *Character) ValidateEquipment() error {
	for slot, itemID := range c.Slots {
		if itemID == "" {
			continue
		}
		if _, ok := c.Carried[itemID]; !ok {
			return fmt.Errorf("character %q: slot %q references item %q not in carried items", c.ID, slot, itemID)
		}
	}
	return nil
}
