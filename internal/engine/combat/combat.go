// Package combat implements single-attack resolution and HP bookkeeping.
//
// ResolveAttack is side-effect-free aside from consuming draws from the
// run-owned random source; HP mutation happens through ApplyDamage and
// ApplyHealing, which return new entity states.
package combat

import (
	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/errors"
	"github.com/KirkDiggler/expedition-api/internal/pkg/rng"
)

// AbilityModifier converts an ability score to its modifier,
// floor((score-10)/2). Integer division in Go truncates toward zero, so
// negative halves need the explicit floor.
func AbilityModifier(score int) int {
	diff := score - 10
	if diff < 0 && diff%2 != 0 {
		return diff/2 - 1
	}
	return diff / 2
}

// attackAbilityModifier selects the attack-governing ability score by weapon
// category. Magic weapons use no ability modifier.
func attackAbilityModifier(attacker *dungeon.CombatEntity, category dungeon.WeaponCategory) int {
	switch category {
	case dungeon.WeaponMeleeStrength:
		return AbilityModifier(attacker.Strength)
	case dungeon.WeaponMeleeDexterity, dungeon.WeaponRanged:
		return AbilityModifier(attacker.Dexterity)
	default:
		return 0
	}
}

// ResolveAttack resolves a single attack by the attacker against the target
// with the given weapon, drawing all randomness from src.
//
// A natural 20 is an automatic critical hit regardless of target AC. Magic
// weapons bypass the roll-vs-AC check entirely but still consume a d20 draw
// for bookkeeping. AC ties miss: a hit requires total strictly above AC.
func ResolveAttack(attacker, target *dungeon.CombatEntity, weapon *dungeon.Weapon, src *rng.Source) (*dungeon.AttackResult, error) {
	if attacker == nil || target == nil {
		return nil, errors.InvalidArgument("attacker and target are required")
	}
	if weapon == nil {
		return nil, errors.InvalidArgument("weapon is required")
	}
	if src == nil {
		return nil, errors.InvalidArgument("random source is required")
	}

	diceCount, diceSize, err := ParseDiceNotation(weapon.DamageDice)
	if err != nil {
		return nil, errors.Wrapf(err, "weapon %q has invalid damage dice", weapon.Name)
	}

	roll := src.D20()
	critical := roll == 20
	abilityMod := attackAbilityModifier(attacker, weapon.Category)
	total := roll + abilityMod + attacker.ProficiencyBonus + weapon.AttackModifier

	hit := critical || total > target.ArmorClass
	if weapon.Category == dungeon.WeaponMagicAutohit {
		hit = true
	}

	result := &dungeon.AttackResult{
		AttackerID:           attacker.ID,
		TargetID:             target.ID,
		Hit:                  hit,
		Critical:             critical,
		Roll:                 roll,
		Total:                total,
		TargetAC:             target.ArmorClass,
		TargetHPBefore:       target.CurrentHP,
		TargetHPAfter:        target.CurrentHP,
		TargetMaxHP:          target.MaxHP,
		AbilityModifier:      abilityMod,
		ProficiencyBonus:     attacker.ProficiencyBonus,
		WeaponAttackModifier: weapon.AttackModifier,
		WeaponDamageModifier: weapon.DamageModifier,
	}

	if !hit {
		return result, nil
	}

	damageRolls := src.Roll(diceCount, diceSize)
	damage := sum(damageRolls) + abilityMod + weapon.DamageModifier
	if critical {
		// Critical hits roll the damage dice a second time; modifiers are
		// not re-added on the second roll.
		critRolls := src.Roll(diceCount, diceSize)
		damageRolls = append(damageRolls, critRolls...)
		damage += sum(critRolls)
	}
	if damage < 0 {
		damage = 0
	}

	result.Damage = damage
	result.DamageRolls = damageRolls
	result.TargetHPAfter = maxInt(0, target.CurrentHP-damage)

	return result, nil
}

// ApplyDamage returns a copy of the entity with damage applied, HP clamped
// at zero
func ApplyDamage(e dungeon.CombatEntity, damage int) dungeon.CombatEntity {
	if damage < 0 {
		damage = 0
	}
	e.CurrentHP = maxInt(0, e.CurrentHP-damage)
	return e
}

// ApplyHealing returns a copy of the entity with healing applied, HP clamped
// at MaxHP
func ApplyHealing(e dungeon.CombatEntity, amount int) dungeon.CombatEntity {
	if amount < 0 {
		amount = 0
	}
	e.CurrentHP = minInt(e.MaxHP, e.CurrentHP+amount)
	return e
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
