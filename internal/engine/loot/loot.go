// Package loot produces procedurally generated items with scarcity-aware
// rarity weighting.
//
// The generator is a pure function of its input: scarcity counts are
// injected by the caller and returned updated, so the caller can persist
// them transactionally. The originating seed is recorded on every item so
// the exact item can be regenerated from the same context.
package loot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/errors"
	"github.com/KirkDiggler/expedition-api/internal/pkg/rng"
)

// ScarcityCap is the per-type generation cap. A type at cap has weight zero
// in the weighted draw and is only reachable through the uniform fallback
// when every candidate is simultaneously capped.
const ScarcityCap = 100

// GenerateInput holds the parameters for one item generation
type GenerateInput struct {
	// Context describes where the drop came from, e.g. "kill", "boss"
	Context string
	// Level scales stat bonuses
	Level int
	// ClassPreference restricts base items to one class; ClassAny pools all
	ClassPreference dungeon.Class
	// RarityModifier shifts the rarity weights; 100 is baseline
	RarityModifier int
	// Seed keys the draw sequence; generated when empty
	Seed string
	// ScarcityEnabled turns on scarcity weighting
	ScarcityEnabled bool
	// ScarcityCounts maps base type to generated count so far; read-only
	ScarcityCounts map[string]int
}

// GenerateOutput is the result of one item generation
type GenerateOutput struct {
	Item *dungeon.GeneratedItem
	// UpdatedCounts is a copy of the input counts with the generated type
	// incremented; nil when scarcity is disabled
	UpdatedCounts map[string]int
}

// Generate produces one item. For a fixed input (including seed) the output
// is identical across runs and processes.
func Generate(input *GenerateInput) (*GenerateOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Level < 0 {
		return nil, errors.InvalidArgument("level cannot be negative")
	}

	seed := input.Seed
	if seed == "" {
		seed = uuid.New().String()
	}

	modifier := input.RarityModifier
	if modifier == 0 {
		modifier = 100
	}

	pref := input.ClassPreference
	if pref == "" {
		pref = dungeon.ClassAny
	}

	src := rng.New(seed)

	// Draw order is fixed: rarity, category, base item, enhancements.
	// Changing it would silently re-key every historical seed.
	rarity, bonus := rollRarity(src, modifier)
	category := rollCategory(src, input.Context)

	candidates := candidateItems(category, pref)
	if len(candidates) == 0 {
		return nil, errors.InvalidArgumentf("no base items for class %q", pref)
	}

	base := pickBase(src, candidates, input.ScarcityEnabled, input.ScarcityCounts)

	totalBonus := bonus + input.Level/5

	item := &dungeon.GeneratedItem{
		ID:            deterministicID(seed),
		Category:      category,
		Rarity:        rarity,
		RequiredClass: base.Class,
		BaseType:      base.Type,
		BonusValue:    totalBonus,
		Context:       input.Context,
		Level:         input.Level,
		Seed:          seed,
	}

	if category == dungeon.ItemWeapon {
		item.DamageDice = base.WeaponSpec.DamageDice
	} else {
		item.ArmorClass = base.ArmorClass + totalBonus
	}

	if rarity == dungeon.RarityRare || rarity == dungeon.RarityEpic {
		item.Enhancements = rollEnhancements(src)
	}

	item.Name = itemName(base.Type, rarity, item.Enhancements)
	item.Description = itemDescription(item)

	output := &GenerateOutput{Item: item}
	if input.ScarcityEnabled {
		updated := make(map[string]int, len(input.ScarcityCounts)+1)
		for k, v := range input.ScarcityCounts {
			updated[k] = v
		}
		updated[base.Type]++
		output.UpdatedCounts = updated
	}

	return output, nil
}

// rollRarity draws a rarity by cumulative weight. Weights shift linearly
// with the modifier and clamp at zero.
func rollRarity(src *rng.Source, modifier int) (dungeon.Rarity, int) {
	shift := float64(modifier - 100)

	weights := make([]float64, len(rarityTiers))
	total := 0.0
	for i, tier := range rarityTiers {
		w := tier.baseWeight + tier.slope*shift
		if w < 0 {
			w = 0
		}
		weights[i] = w
		total += w
	}

	if total <= 0 {
		// Modifier pushed everything to zero; epic wins by construction.
		last := rarityTiers[len(rarityTiers)-1]
		return last.rarity, last.bonus
	}

	roll := src.Float64() * total
	cumulative := 0.0
	for i, tier := range rarityTiers {
		cumulative += weights[i]
		if roll < cumulative {
			return tier.rarity, tier.bonus
		}
	}
	last := rarityTiers[len(rarityTiers)-1]
	return last.rarity, last.bonus
}

// rollCategory chooses weapon vs armor. Context-specific weights are flat
// 50/50 for every context today; the context parameter keeps the draw
// sequence stable when that changes.
func rollCategory(src *rng.Source, _ string) dungeon.ItemCategory {
	if src.Float64() < 0.5 {
		return dungeon.ItemWeapon
	}
	return dungeon.ItemArmor
}

// pickBase selects a base item. With scarcity enabled the selection weight
// is cap minus count-so-far; capped types are excluded from the weighted
// draw but remain selectable via uniform fallback when every candidate is
// simultaneously at cap.
func pickBase(src *rng.Source, candidates []BaseItem, scarcity bool, counts map[string]int) BaseItem {
	if !scarcity {
		return rng.Choice(src, candidates)
	}

	weights := make([]int, len(candidates))
	total := 0
	for i, c := range candidates {
		w := ScarcityCap - counts[c.Type]
		if w < 0 {
			w = 0
		}
		weights[i] = w
		total += w
	}

	if total == 0 {
		return rng.Choice(src, candidates)
	}

	roll := src.Index(total)
	cumulative := 0
	for i, c := range candidates {
		cumulative += weights[i]
		if roll < cumulative {
			return c
		}
	}
	return candidates[len(candidates)-1]
}

// rollEnhancements draws 1-2 distinct tags uniformly
func rollEnhancements(src *rng.Source) []string {
	count := src.Range(1, 2)

	pool := make([]string, len(enhancementTags))
	copy(pool, enhancementTags)

	tags := make([]string, 0, count)
	for i := 0; i < count; i++ {
		idx := src.Index(len(pool))
		tags = append(tags, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return tags
}

func itemName(baseType string, rarity dungeon.Rarity, enhancements []string) string {
	name := displayNames[baseType]
	if rarity != dungeon.RarityCommon {
		name = fmt.Sprintf("%s %s", titleCase(string(rarity)), name)
	}
	if len(enhancements) > 0 {
		titles := make([]string, len(enhancements))
		for i, tag := range enhancements {
			titles[i] = tagTitles[tag]
		}
		name = fmt.Sprintf("%s of %s", name, strings.Join(titles, " and "))
	}
	return name
}

func itemDescription(item *dungeon.GeneratedItem) string {
	kind := "weapon"
	if item.Category == dungeon.ItemArmor {
		kind = "armor piece"
	}
	desc := fmt.Sprintf("A %s %s for the %s class, recovered from a %s.",
		item.Rarity, kind, item.RequiredClass, item.Context)
	if len(item.Enhancements) > 0 {
		desc = fmt.Sprintf("%s It hums with %s power.", desc, strings.Join(item.Enhancements, " and "))
	}
	return desc
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// deterministicID derives a stable item ID from the seed so regenerated
// items keep their identity
func deterministicID(seed string) string {
	sum := sha256.Sum256([]byte("item:" + seed))
	return "item_" + hex.EncodeToString(sum[:6])
}
