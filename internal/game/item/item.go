// Package item provides item definitions and the canonical item registry.
package item

import (
	"errors"
	"fmt"
	"strings"
)

// Type constants for Item.Type.
const (
	TypeWeapon     = "weapon"
	TypeArmor      = "armor"
	TypeShield     = "shield"
	TypeConsumable = "consumable"
	TypeKey        = "key"
	TypeMisc       = "misc"
)

// validTypes is the set of valid Item types.
var validTypes = map[string]bool{
	TypeWeapon:     true,
	TypeArmor:      true,
	TypeShield:     true,
	TypeConsumable: true,
	TypeKey:        true,
	TypeMisc:       true,
}

// Item defines the static properties of a game item loaded from the world
// snapshot. Instances are owned by a character's carried-items table or a
// room floor; an Item value itself is immutable after loading.
type Item struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Type        string   `yaml:"type"`
	// Slot is an optional explicit equipment slot ID. Empty means the slot
	// is derived from Type and keywords by the equipment resolver.
	Slot        string   `yaml:"slot"`
	DamageBonus int      `yaml:"damage_bonus"`
	ArmorBonus  int      `yaml:"armor_bonus"`
	Equippable  bool     `yaml:"equippable"`
	Keywords    []string `yaml:"keywords"`
	Value       int      `yaml:"value"`
}

// Validate checks that the Item satisfies its invariants.
//
// Precondition: i is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (i *Item) Validate() error {
	var errs []error
	if i.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if i.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !validTypes[i.Type] {
		errs = append(errs, fmt.Errorf("Type must be one of weapon, armor, shield, consumable, key, misc; got %q", i.Type))
	}
	if i.DamageBonus < 0 {
		errs = append(errs, errors.New("DamageBonus must be >= 0"))
	}
	if i.ArmorBonus < 0 {
		errs = append(errs, errors.New("ArmorBonus must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item validation failed: %v", errs)
	}
	return nil
}

// MatchesKeyword reports whether kw appears, case-insensitively, in the
// item's name, type, or declared keyword list.
//
// Precondition: kw must be non-empty for a meaningful result.
func (i *Item) MatchesKeyword(kw string) bool {
	kw = strings.ToLower(kw)
	if strings.Contains(strings.ToLower(i.Name), kw) {
		return true
	}
	if strings.Contains(strings.ToLower(i.Type), kw) {
		return true
	}
	for _, k := range i.Keywords {
		if strings.Contains(strings.ToLower(k), kw) {
			return true
		}
	}
	return false
}

// IsWeapon reports whether the item is a weapon.
func (i *Item) IsWeapon() bool { return i.Type == TypeWeapon }
