package loot

import (
	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
)

// BaseItem is one entry in the canonical item tables. Every class has
// exactly one canonical weapon type and a small set of armor kits.
type BaseItem struct {
	Type       string
	Class      dungeon.Class
	Category   dungeon.ItemCategory
	WeaponSpec dungeon.Weapon // zero value for armor
	ArmorClass int            // zero for weapons
}

var weaponTable = []BaseItem{
	{
		Type:     "greatsword",
		Class:    dungeon.ClassWarrior,
		Category: dungeon.ItemWeapon,
		WeaponSpec: dungeon.Weapon{
			Name:       "Greatsword",
			Category:   dungeon.WeaponMeleeStrength,
			DamageDice: "2d6",
		},
	},
	{
		Type:     "longbow",
		Class:    dungeon.ClassRanger,
		Category: dungeon.ItemWeapon,
		WeaponSpec: dungeon.Weapon{
			Name:       "Longbow",
			Category:   dungeon.WeaponRanged,
			DamageDice: "1d8",
		},
	},
	{
		Type:     "arcane_staff",
		Class:    dungeon.ClassMage,
		Category: dungeon.ItemWeapon,
		WeaponSpec: dungeon.Weapon{
			Name:       "Arcane Staff",
			Category:   dungeon.WeaponMagicAutohit,
			DamageDice: "1d10",
		},
	},
	{
		Type:     "dagger",
		Class:    dungeon.ClassRogue,
		Category: dungeon.ItemWeapon,
		WeaponSpec: dungeon.Weapon{
			Name:       "Dagger",
			Category:   dungeon.WeaponMeleeDexterity,
			DamageDice: "1d4",
		},
	},
}

var armorTable = []BaseItem{
	{Type: "plate_cuirass", Class: dungeon.ClassWarrior, Category: dungeon.ItemArmor, ArmorClass: 16},
	{Type: "iron_shield", Class: dungeon.ClassWarrior, Category: dungeon.ItemArmor, ArmorClass: 14},
	{Type: "leather_jerkin", Class: dungeon.ClassRanger, Category: dungeon.ItemArmor, ArmorClass: 13},
	{Type: "scout_cloak", Class: dungeon.ClassRanger, Category: dungeon.ItemArmor, ArmorClass: 12},
	{Type: "runed_robes", Class: dungeon.ClassMage, Category: dungeon.ItemArmor, ArmorClass: 11},
	{Type: "silk_mantle", Class: dungeon.ClassMage, Category: dungeon.ItemArmor, ArmorClass: 10},
	{Type: "shadow_vest", Class: dungeon.ClassRogue, Category: dungeon.ItemArmor, ArmorClass: 13},
	{Type: "padded_tunic", Class: dungeon.ClassRogue, Category: dungeon.ItemArmor, ArmorClass: 12},
}

// displayNames maps base types to their item names
var displayNames = map[string]string{
	"greatsword":     "Greatsword",
	"longbow":        "Longbow",
	"arcane_staff":   "Arcane Staff",
	"dagger":         "Dagger",
	"plate_cuirass":  "Plate Cuirass",
	"iron_shield":    "Iron Shield",
	"leather_jerkin": "Leather Jerkin",
	"scout_cloak":    "Scout Cloak",
	"runed_robes":    "Runed Robes",
	"silk_mantle":    "Silk Mantle",
	"shadow_vest":    "Shadow Vest",
	"padded_tunic":   "Padded Tunic",
}

// rarityTier couples a rarity with its baseline weight and stat bonus. The
// weights shift linearly with the rarity modifier; the slopes trade common
// weight for the higher tiers as the modifier climbs above 100.
type rarityTier struct {
	rarity     dungeon.Rarity
	baseWeight float64
	slope      float64
	bonus      int
}

var rarityTiers = []rarityTier{
	{rarity: dungeon.RarityCommon, baseWeight: 60, slope: -0.45, bonus: 0},
	{rarity: dungeon.RarityUncommon, baseWeight: 25, slope: 0.15, bonus: 1},
	{rarity: dungeon.RarityRare, baseWeight: 12, slope: 0.20, bonus: 2},
	{rarity: dungeon.RarityEpic, baseWeight: 3, slope: 0.10, bonus: 3},
}

// enhancementTags flavor rare and epic items. They shape name and
// description only; no separate mechanical effect in this core.
var enhancementTags = []string{
	"flaming",
	"frozen",
	"venomous",
	"lifesteal",
	"thunderous",
	"shadowtouched",
}

// tagTitles renders enhancement tags for item names
var tagTitles = map[string]string{
	"flaming":       "Flame",
	"frozen":        "Frost",
	"venomous":      "Venom",
	"lifesteal":     "Leeching",
	"thunderous":    "Thunder",
	"shadowtouched": "Shadow",
}

// candidateItems returns the base items matching a category and class
// preference. ClassAny pools all classes' items together.
func candidateItems(category dungeon.ItemCategory, pref dungeon.Class) []BaseItem {
	table := weaponTable
	if category == dungeon.ItemArmor {
		table = armorTable
	}

	if pref == dungeon.ClassAny || pref == "" {
		return table
	}

	var matches []BaseItem
	for _, item := range table {
		if item.Class == pref {
			matches = append(matches, item)
		}
	}
	return matches
}
