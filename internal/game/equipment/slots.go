// Package equipment provides the data-driven equipment slot schema and the
// slot resolution, equip, and unequip operations.
package equipment

import "fmt"

// SlotDef defines one equipment slot in a game's slot schema.
type SlotDef struct {
	// ID is the canonical slot identifier (e.g. "main_hand", "head").
	ID string `yaml:"id"`
	// Name is the human-readable label shown to players.
	Name string `yaml:"name"`
	// Types lists the item types this slot accepts.
	Types []string `yaml:"types"`
	// Keywords disambiguate between slots sharing a compatible type
	// (e.g. "boot", "helmet"). Matched against item names and keywords.
	Keywords []string `yaml:"keywords"`
}

// AcceptsType reports whether the slot's compatible-type set contains t.
func (s SlotDef) AcceptsType(t string) bool {
	for _, st := range s.Types {
		if st == t {
			return true
		}
	}
	return false
}

// SlotConfig is the ordered, per-game equipment slot schema. Order matters:
// ties during slot resolution break toward the earlier definition.
type SlotConfig struct {
	Slots []SlotDef `yaml:"slots"`
}

// Slot returns the definition for id, or (SlotDef{}, false) if absent.
func (c *SlotConfig) Slot(id string) (SlotDef, bool) {
	for _, s := range c.Slots {
		if s.ID == id {
			return s, true
		}
	}
	return SlotDef{}, false
}

// WeaponSlotID returns the ID of the first slot accepting weapons, or ""
// when the schema defines none.
func (c *SlotConfig) WeaponSlotID() string {
	for _, s := range c.Slots {
		if s.AcceptsType("weapon") {
			return s.ID
		}
	}
	return ""
}

// Validate checks schema invariants.
//
// Postcondition: nil return guarantees at least one slot, non-empty unique
// IDs, and at least one compatible type per slot.
func (c *SlotConfig) Validate() error {
	if len(c.Slots) == 0 {
		return fmt.Errorf("equipment: slot config must define at least one slot")
	}
	seen := make(map[string]bool, len(c.Slots))
	for _, s := range c.Slots {
		if s.ID == "" {
			return fmt.Errorf("equipment: slot config contains a slot with empty ID")
		}
		if seen[s.ID] {
			return fmt.Errorf("equipment: duplicate slot ID %q", s.ID)
		}
		seen[s.ID] = true
		if len(s.Types) == 0 {
			return fmt.Errorf("equipment: slot %q accepts no item types", s.ID)
		}
	}
	return nil
}

// DefaultConfig returns the humanoid slot schema used when a world snapshot
// does not supply its own.
func DefaultConfig() *SlotConfig {
	return &SlotConfig{Slots: []SlotDef{
		{ID: "main_hand", Name: "Main Hand", Types: []string{"weapon"}, Keywords: []string{"sword", "axe", "dagger", "staff", "mace", "bow"}},
		{ID: "off_hand", Name: "Off Hand", Types: []string{"weapon", "shield"}, Keywords: []string{"shield", "buckler"}},
		{ID: "head", Name: "Head", Types: []string{"armor"}, Keywords: []string{"helm", "helmet", "cap", "hood"}},
		{ID: "chest", Name: "Chest", Types: []string{"armor"}, Keywords: []string{"chest", "breastplate", "tunic", "robe", "mail"}},
		{ID: "hands", Name: "Hands", Types: []string{"armor"}, Keywords: []string{"glove", "gauntlet"}},
		{ID: "legs", Name: "Legs", Types: []string{"armor"}, Keywords: []string{"leg", "greave", "trouser"}},
		{ID: "feet", Name: "Feet", Types: []string{"armor"}, Keywords: []string{"boot", "shoe", "sandal"}},
	}}
}
