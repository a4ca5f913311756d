// Package combat resolves attack and flee actions: dodge checks, damage
// rolls, and armor reduction.
package combat

import (
	"fmt"

	"github.com/cory-johannsen/adventure/internal/game/character"
	"github.com/cory-johannsen/adventure/internal/game/equipment"
	"github.com/cory-johannsen/adventure/internal/game/rng"
)

// Dodge tuning constants.
const (
	// AgilityFloor is the defender agility at or below which an attack
	// always hits.
	AgilityFloor = 5
	// DodgePerAgility is the percentage dodge chance gained per point of
	// agility above AgilityFloor.
	DodgePerAgility = 5
	// MaxDodgeChance caps the dodge percentage so no defender is untouchable.
	MaxDodgeChance = 75
)

// BaseDamage is the unarmed damage baseline before the strength modifier.
const BaseDamage = 5

// DefaultFleeBaseChance is the flee success percentage at agility 10.
const DefaultFleeBaseChance = 50

// Options tunes the resolver. The zero value is a valid default.
type Options struct {
	// ArmorReductionCap bounds the flat damage reduction granted by armor.
	// 0 means uncapped.
	ArmorReductionCap int
	// FleeBaseChance is the flee success percentage at agility 10.
	// 0 means DefaultFleeBaseChance.
	FleeBaseChance int
}

// AttackResult holds the outcome of a single resolved attack.
type AttackResult struct {
	// AttackerID and TargetID identify the combatants.
	AttackerID string
	TargetID   string
	// Hit is false when the defender dodged.
	Hit bool
	// RawDamage is the damage before armor reduction. 0 on a dodge.
	RawDamage int
	// DamageAfterArmor is the damage applied to the defender. 0 on a dodge,
	// otherwise always >= 1.
	DamageAfterArmor int
	// TargetDefeated is true when the defender's health reached 0.
	TargetDefeated bool
	// Message is the plain fallback narration line.
	Message string
}

// Resolver performs combat math against a slot schema and random source.
type Resolver struct {
	cfg  *equipment.SlotConfig
	src  rng.Source
	opts Options
}

// NewResolver constructs a Resolver.
//
// Precondition: cfg and src must not be nil.
func NewResolver(cfg *equipment.SlotConfig, src rng.Source, opts Options) *Resolver {
	if cfg == nil {
		panic("combat.NewResolver: cfg must not be nil")
	}
	if src == nil {
		panic("combat.NewResolver: src must not be nil")
	}
	return &Resolver{cfg: cfg, src: src, opts: opts}
}

// DodgeChance returns the defender's dodge percentage: zero at or below the
// agility floor, rising monotonically with agility, capped at
// MaxDodgeChance.
//
// Postcondition: result is in [0, MaxDodgeChance].
func DodgeChance(defenderAgility int) int {
	chance := (defenderAgility - AgilityFloor) * DodgePerAgility
	if chance < 0 {
		return 0
	}
	if chance > MaxDodgeChance {
		return MaxDodgeChance
	}
	return chance
}

// ResolveAttack performs a full attack from attacker against defender,
// applying the result to the defender's health.
//
// Damage math: rawDamage = max(1, 5 + floor((STR-10)/2)) + weapon damage
// bonus; reduction = floor(totalArmor/2), bounded by the configured cap;
// damageAfterArmor = max(1, rawDamage - reduction). A hit always deals at
// least 1 point.
//
// Precondition: attacker and defender must be non-nil and alive.
// Postcondition: defender.Health >= 0; DamageAfterArmor >= 1 on a hit.
func (r *Resolver) ResolveAttack(attacker, defender *character.Character) AttackResult {
	result := AttackResult{AttackerID: attacker.ID, TargetID: defender.ID}

	if r.src.Intn(100) < DodgeChance(defender.Agility) {
		result.Message = fmt.Sprintf("%s dodges %s's attack.", defender.Name, attacker.Name)
		return result
	}
	result.Hit = true

	raw := BaseDamage + floorDiv(attacker.Strength-10, 2)
	if raw < 1 {
		raw = 1
	}
	if weapon, ok := attacker.EquippedItem(r.cfg.WeaponSlotID()); ok {
		raw += weapon.DamageBonus
	}
	result.RawDamage = raw

	reduction := defender.TotalArmor() / 2
	if r.opts.ArmorReductionCap > 0 && reduction > r.opts.ArmorReductionCap {
		reduction = r.opts.ArmorReductionCap
	}
	dmg := raw - reduction
	if dmg < 1 {
		dmg = 1
	}
	result.DamageAfterArmor = dmg

	defender.ApplyDamage(dmg)
	result.TargetDefeated = defender.IsDead()
	if result.TargetDefeated {
		result.Message = fmt.Sprintf("%s hits %s for %d damage, defeating them!", attacker.Name, defender.Name, dmg)
	} else {
		result.Message = fmt.Sprintf("%s hits %s for %d damage.", attacker.Name, defender.Name, dmg)
	}
	return result
}

// FleeResult holds the outcome of a flee attempt.
type FleeResult struct {
	// Success is true when the escape succeeded.
	Success bool
	// Message is the plain fallback narration line.
	Message string
}

// ResolveFlee performs an agility-derived escape check for ch.
//
// Success chance: base chance plus 2% per point of agility above 10,
// clamped to [5, 95] so escape is never certain in either direction.
func (r *Resolver) ResolveFlee(ch *character.Character) FleeResult {
	base := r.opts.FleeBaseChance
	if base <= 0 {
		base = DefaultFleeBaseChance
	}
	chance := base + (ch.Agility-10)*2
	if chance < 5 {
		chance = 5
	}
	if chance > 95 {
		chance = 95
	}
	if r.src.Intn(100) < chance {
		return FleeResult{Success: true, Message: fmt.Sprintf("%s escapes from combat!", ch.Name)}
	}
	return FleeResult{Success: false, Message: fmt.Sprintf("%s fails to escape!", ch.Name)}
}

// floorDiv returns the floor of a/b for positive b, unlike Go's
// truncate-toward-zero division.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
