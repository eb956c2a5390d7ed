// Package initiative computes and maintains turn ordering over living
// combatants.
//
// All randomness, including tie-breaking, is drawn from the run-owned seeded
// source so that turn order is reproducible for a fixed seed.
package initiative

import (
	"sort"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/pkg/rng"
)

// DetermineTurnOrder sorts entities by dexterity descending and returns the
// ordered entity IDs. Dexterity ties are broken by one draw per entity from
// src, taken in input order so the draw sequence is stable.
func DetermineTurnOrder(entities []*dungeon.CombatEntity, src *rng.Source) []string {
	type slot struct {
		id        string
		dexterity int
		tiebreak  float64
	}

	slots := make([]slot, len(entities))
	for i, e := range entities {
		slots[i] = slot{
			id:        e.ID,
			dexterity: e.Dexterity,
			tiebreak:  src.Float64(),
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].dexterity != slots[j].dexterity {
			return slots[i].dexterity > slots[j].dexterity
		}
		return slots[i].tiebreak > slots[j].tiebreak
	})

	order := make([]string, len(slots))
	for i, s := range slots {
		order[i] = s.id
	}
	return order
}

// Current returns the entity ID at the given turn index, wrapping modulo the
// order length
func Current(order []string, index int) string {
	if len(order) == 0 {
		return ""
	}
	return order[index%len(order)]
}

// NextIndex advances the turn index cyclically
func NextIndex(order []string, index int) int {
	if len(order) == 0 {
		return 0
	}
	return (index + 1) % len(order)
}

// FilterAlive removes entity IDs whose current HP has reached zero,
// preserving the relative order of survivors. It must be reapplied after
// every HP change that could cause a death, before computing the next turn.
func FilterAlive(order []string, byID map[string]*dungeon.CombatEntity) []string {
	alive := make([]string, 0, len(order))
	for _, id := range order {
		if e, ok := byID[id]; ok && e.Alive() {
			alive = append(alive, id)
		}
	}
	return alive
}
