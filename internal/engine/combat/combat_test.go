package combat_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/expedition-api/internal/engine/combat"
	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/pkg/rng"
)

// seedWithFirstD20 scans for a seed whose first d20 draw matches the
// predicate, so tests can pin the opening roll without faking the source.
func seedWithFirstD20(t *testing.T, match func(int) bool) string {
	t.Helper()
	for i := 0; i < 10000; i++ {
		seed := fmt.Sprintf("combat-test-%d", i)
		if match(rng.New(seed).D20()) {
			return seed
		}
	}
	t.Fatal("no seed found with matching first d20")
	return ""
}

func testAttacker(class dungeon.Class, str, dex int) *dungeon.CombatEntity {
	return &dungeon.CombatEntity{
		ID:               "hero_1",
		Name:             "Test Hero",
		Class:            class,
		Strength:         str,
		Dexterity:        dex,
		ProficiencyBonus: 2,
		ArmorClass:       14,
		CurrentHP:        20,
		MaxHP:            20,
	}
}

func testTarget(ac, hp int) *dungeon.CombatEntity {
	return &dungeon.CombatEntity{
		ID:         "monster_1",
		Name:       "Test Monster",
		Monster:    true,
		Strength:   12,
		Dexterity:  10,
		ArmorClass: ac,
		CurrentHP:  hp,
		MaxHP:      hp,
	}
}

func TestAbilityModifier(t *testing.T) {
	testCases := []struct {
		score    int
		expected int
	}{
		{1, -5},
		{7, -2},
		{8, -1},
		{9, -1},
		{10, 0},
		{11, 0},
		{12, 1},
		{15, 2},
		{18, 4},
		{20, 5},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, combat.AbilityModifier(tc.score), "score %d", tc.score)
	}
}

func TestNaturalTwentyAlwaysHits(t *testing.T) {
	seed := seedWithFirstD20(t, func(roll int) bool { return roll == 20 })

	// Attacker so weak the total could never clear AC 30 on merit.
	attacker := testAttacker(dungeon.ClassWarrior, 1, 1)
	attacker.ProficiencyBonus = 0
	target := testTarget(30, 50)
	weapon := &dungeon.Weapon{Name: "Rusty Sword", Category: dungeon.WeaponMeleeStrength, DamageDice: "1d6"}

	result, err := combat.ResolveAttack(attacker, target, weapon, rng.New(seed))
	require.NoError(t, err)

	assert.True(t, result.Hit)
	assert.True(t, result.Critical)
	assert.Equal(t, 20, result.Roll)
	assert.Less(t, result.Total, result.TargetAC)
}

func TestCriticalRollsDamageDiceTwice(t *testing.T) {
	seed := seedWithFirstD20(t, func(roll int) bool { return roll == 20 })

	attacker := testAttacker(dungeon.ClassWarrior, 16, 10)
	target := testTarget(10, 100)
	weapon := &dungeon.Weapon{Name: "Greatsword", Category: dungeon.WeaponMeleeStrength, DamageDice: "2d6", DamageModifier: 1}

	result, err := combat.ResolveAttack(attacker, target, weapon, rng.New(seed))
	require.NoError(t, err)

	require.True(t, result.Critical)
	require.Len(t, result.DamageRolls, 4, "critical should roll the dice expression twice")

	diceTotal := 0
	for _, face := range result.DamageRolls {
		diceTotal += face
	}
	// Modifiers are added once: ability +3, weapon +1.
	assert.Equal(t, diceTotal+3+1, result.Damage)
}

func TestArmorClassTieMisses(t *testing.T) {
	seed := seedWithFirstD20(t, func(roll int) bool { return roll > 1 && roll < 20 })

	// Mirror the draw sequence to learn the roll, then pin AC to the total.
	mirrorRoll := rng.New(seed).D20()
	attacker := testAttacker(dungeon.ClassWarrior, 16, 10)
	total := mirrorRoll + 3 + attacker.ProficiencyBonus // +3 STR mod

	weapon := &dungeon.Weapon{Name: "Greatsword", Category: dungeon.WeaponMeleeStrength, DamageDice: "2d6"}

	tie, err := combat.ResolveAttack(attacker, testTarget(total, 30), weapon, rng.New(seed))
	require.NoError(t, err)
	assert.False(t, tie.Hit, "attack total equal to AC must miss")
	assert.Zero(t, tie.Damage)
	assert.Equal(t, tie.TargetHPBefore, tie.TargetHPAfter)

	clear, err := combat.ResolveAttack(attacker, testTarget(total-1, 30), weapon, rng.New(seed))
	require.NoError(t, err)
	assert.True(t, clear.Hit, "attack total above AC must hit")
}

func TestMagicWeaponAutoHits(t *testing.T) {
	seed := seedWithFirstD20(t, func(roll int) bool { return roll > 1 && roll < 10 })

	attacker := testAttacker(dungeon.ClassMage, 8, 10)
	target := testTarget(30, 40)
	weapon := &dungeon.Weapon{Name: "Arcane Staff", Category: dungeon.WeaponMagicAutohit, DamageDice: "1d10", DamageModifier: 2}

	result, err := combat.ResolveAttack(attacker, target, weapon, rng.New(seed))
	require.NoError(t, err)

	assert.True(t, result.Hit, "magic weapons bypass the AC check")
	assert.False(t, result.Critical)
	assert.NotZero(t, result.Roll, "the d20 is still consumed for bookkeeping")

	// Magic damage takes no ability modifier, only the weapon modifier.
	diceTotal := 0
	for _, face := range result.DamageRolls {
		diceTotal += face
	}
	assert.Equal(t, diceTotal+2, result.Damage)
	assert.Zero(t, result.AbilityModifier)
}

func TestRangedUsesDexterity(t *testing.T) {
	seed := seedWithFirstD20(t, func(roll int) bool { return roll == 10 })

	attacker := testAttacker(dungeon.ClassRanger, 8, 18)
	weapon := &dungeon.Weapon{Name: "Longbow", Category: dungeon.WeaponRanged, DamageDice: "1d8"}

	result, err := combat.ResolveAttack(attacker, testTarget(10, 20), weapon, rng.New(seed))
	require.NoError(t, err)

	assert.Equal(t, 4, result.AbilityModifier, "ranged attacks are governed by dexterity")
	assert.Equal(t, 10+4+2, result.Total)
}

func TestDamageNeverNegative(t *testing.T) {
	seed := seedWithFirstD20(t, func(roll int) bool { return roll > 1 && roll < 20 })

	attacker := testAttacker(dungeon.ClassWarrior, 16, 10)
	weapon := &dungeon.Weapon{Name: "Cursed Blade", Category: dungeon.WeaponMeleeStrength, DamageDice: "1d4", DamageModifier: -100}

	result, err := combat.ResolveAttack(attacker, testTarget(1, 10), weapon, rng.New(seed))
	require.NoError(t, err)

	require.True(t, result.Hit)
	assert.Zero(t, result.Damage)
	assert.Equal(t, result.TargetHPBefore, result.TargetHPAfter)
}

func TestResolveAttackIsDeterministic(t *testing.T) {
	attacker := testAttacker(dungeon.ClassRogue, 10, 16)
	weapon := &dungeon.Weapon{Name: "Dagger", Category: dungeon.WeaponMeleeDexterity, DamageDice: "1d4"}

	first, err := combat.ResolveAttack(attacker, testTarget(12, 15), weapon, rng.New("replay"))
	require.NoError(t, err)
	second, err := combat.ResolveAttack(attacker, testTarget(12, 15), weapon, rng.New("replay"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestResolveAttackValidation(t *testing.T) {
	attacker := testAttacker(dungeon.ClassWarrior, 16, 10)
	weapon := &dungeon.Weapon{Name: "Greatsword", Category: dungeon.WeaponMeleeStrength, DamageDice: "2d6"}

	_, err := combat.ResolveAttack(nil, testTarget(10, 10), weapon, rng.New("x"))
	assert.Error(t, err)

	_, err = combat.ResolveAttack(attacker, testTarget(10, 10), nil, rng.New("x"))
	assert.Error(t, err)

	bad := &dungeon.Weapon{Name: "Broken", Category: dungeon.WeaponMeleeStrength, DamageDice: "d6"}
	_, err = combat.ResolveAttack(attacker, testTarget(10, 10), bad, rng.New("x"))
	assert.Error(t, err)
}

func TestApplyDamageClampsAtZero(t *testing.T) {
	e := dungeon.CombatEntity{ID: "hero_1", CurrentHP: 5, MaxHP: 20}

	e = combat.ApplyDamage(e, 50)
	assert.Equal(t, 0, e.CurrentHP)
	assert.False(t, e.Alive())

	e = combat.ApplyDamage(e, -10)
	assert.Equal(t, 0, e.CurrentHP, "negative damage is treated as zero")
}

func TestApplyHealingClampsAtMax(t *testing.T) {
	e := dungeon.CombatEntity{ID: "hero_1", CurrentHP: 18, MaxHP: 20}

	e = combat.ApplyHealing(e, 10)
	assert.Equal(t, 20, e.CurrentHP)

	e = combat.ApplyHealing(e, -5)
	assert.Equal(t, 20, e.CurrentHP, "negative healing is treated as zero")
}

func TestParseDiceNotation(t *testing.T) {
	count, size, err := combat.ParseDiceNotation("2d6")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 6, size)

	for _, bad := range []string{"", "d6", "2d", "2x6", "0d6", "2d0", "-1d6"} {
		_, _, err := combat.ParseDiceNotation(bad)
		assert.Error(t, err, "notation %q should be rejected", bad)
	}
}
