// Package simulation drives a full dungeon expedition to its outcome.
//
// The engine is deterministic: given the same dungeon, party, seed, and
// start time it emits a byte-identical event sequence. All randomness flows
// through the run-owned rng.Source, and all timestamps derive from the
// supplied start time, never from a wall clock.
package simulation

import (
	"fmt"
	"time"

	"github.com/KirkDiggler/expedition-api/internal/engine/combat"
	"github.com/KirkDiggler/expedition-api/internal/engine/initiative"
	"github.com/KirkDiggler/expedition-api/internal/engine/loot"
	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/errors"
	"github.com/KirkDiggler/expedition-api/internal/pkg/rng"
)

// Config tunes the pacing and drop behavior of the engine
type Config struct {
	// EventCadence spaces scheduled delivery times; defaults to 5s
	EventCadence time.Duration
	// KillDropChance is the probability a regular kill drops loot;
	// defaults to 0.35
	KillDropChance float64
	// BossRarityModifier shifts boss-drop rarity; defaults to 150
	BossRarityModifier int
	// MaxRoundsPerRoom bounds a single room's combat; defaults to 100.
	// The total round budget must stay well under the queue's processing
	// timeout.
	MaxRoundsPerRoom int
	// ScarcityEnabled turns on scarcity-weighted loot draws
	ScarcityEnabled bool
}

func (c *Config) applyDefaults() {
	if c.EventCadence <= 0 {
		c.EventCadence = 5 * time.Second
	}
	if c.KillDropChance <= 0 {
		c.KillDropChance = 0.35
	}
	if c.BossRarityModifier <= 0 {
		c.BossRarityModifier = 150
	}
	if c.MaxRoundsPerRoom <= 0 {
		c.MaxRoundsPerRoom = 100
	}
}

// Engine runs expeditions
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with defaults applied
func NewEngine(cfg Config) *Engine {
	cfg.applyDefaults()
	return &Engine{cfg: cfg}
}

// RunInput is everything one expedition needs. The source must be owned
// exclusively by this run.
type RunInput struct {
	RunID          string
	Dungeon        *dungeon.Dungeon
	Party          []*dungeon.CombatEntity
	Source         *rng.Source
	StartTime      time.Time
	ScarcityCounts map[string]int
}

// RunOutput is the complete outcome of one expedition
type RunOutput struct {
	Result *dungeon.RunResult
	Events []*dungeon.WorldEvent
	Items  []*dungeon.GeneratedItem
	// UpdatedCounts carries the scarcity counters forward; nil when
	// scarcity is disabled
	UpdatedCounts map[string]int
}

// runState is the mutable bookkeeping for one expedition in flight
type runState struct {
	input      *RunInput
	byID       map[string]*dungeon.CombatEntity
	classByID  map[string]dungeon.Class
	events     []*dungeon.WorldEvent
	items      []*dungeon.GeneratedItem
	counts     map[string]int
	eventIndex int
	slain      int
}

// Run simulates the expedition to a terminal outcome. Unrecoverable
// conditions return an error; the caller records it on the run, it is
// never surfaced synchronously to the creator of the run.
func (e *Engine) Run(input *RunInput) (*RunOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.RunID == "" {
		return nil, errors.InvalidArgument("run ID is required")
	}
	if input.Dungeon == nil {
		return nil, errors.InvalidArgument("dungeon is required")
	}
	if len(input.Party) == 0 {
		return nil, errors.InvalidArgument("party cannot be empty")
	}
	if input.Source == nil {
		return nil, errors.InvalidArgument("random source is required")
	}

	state := &runState{
		input:     input,
		byID:      make(map[string]*dungeon.CombatEntity, len(input.Party)),
		classByID: make(map[string]dungeon.Class, len(input.Party)),
	}
	if e.cfg.ScarcityEnabled {
		state.counts = make(map[string]int, len(input.ScarcityCounts))
		for k, v := range input.ScarcityCounts {
			state.counts[k] = v
		}
	}

	partyIDs := make([]string, len(input.Party))
	for i, hero := range input.Party {
		h := *hero
		state.byID[h.ID] = &h
		state.classByID[h.ID] = h.Class
		partyIDs[i] = h.ID
	}

	e.emit(state, dungeon.EventRunStarted, map[string]interface{}{
		"dungeon": input.Dungeon.Slug,
		"name":    input.Dungeon.Name,
		"party":   partyIDs,
		"seed":    input.Source.Seed(),
	})

	rooms := input.Dungeon.Rooms
	if rooms < 1 {
		rooms = 1
	}

	cleared := 0
	for room := 1; room <= rooms; room++ {
		bossRoom := room == rooms

		monsters := e.spawnRoom(state, room, bossRoom)
		if err := e.fightRoom(state, room, monsters); err != nil {
			return nil, err
		}

		if !anyAlive(state.byID, partyIDs) {
			e.emit(state, dungeon.EventPartyWiped, map[string]interface{}{
				"room": room,
			})
			return e.finish(state, dungeon.OutcomeWipe, cleared), nil
		}
		cleared++
	}

	e.emit(state, dungeon.EventRunCompleted, map[string]interface{}{
		"rooms_cleared":  cleared,
		"monsters_slain": state.slain,
	})
	return e.finish(state, dungeon.OutcomeVictory, cleared), nil
}

// spawnRoom instantiates this room's monsters and emits the entry events
func (e *Engine) spawnRoom(state *runState, room int, bossRoom bool) []string {
	d := state.input.Dungeon

	var ids []string
	if bossRoom {
		boss := entityFromTemplate(d.Boss, "boss", true)
		boss.Boss = true
		state.byID[boss.ID] = boss
		ids = append(ids, boss.ID)

		e.emit(state, dungeon.EventBossEncounter, map[string]interface{}{
			"room": room,
			"boss": d.Boss.Name,
		})
		return ids
	}

	count := 1
	if len(state.input.Party) > 1 {
		count = state.input.Source.Range(1, len(state.input.Party))
	}
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		tmpl := rng.Choice(state.input.Source, d.Monsters)
		id := fmt.Sprintf("monster_%d_%d", room, i+1)
		m := entityFromTemplate(tmpl, id, true)
		state.byID[id] = m
		ids = append(ids, id)
		names = append(names, tmpl.Name)
	}

	e.emit(state, dungeon.EventRoomEntered, map[string]interface{}{
		"room":     room,
		"monsters": names,
	})
	return ids
}

// fightRoom runs initiative-ordered combat until one side is eliminated
// or the round budget is exhausted
func (e *Engine) fightRoom(state *runState, room int, monsterIDs []string) error {
	src := state.input.Source

	combatants := make([]*dungeon.CombatEntity, 0, len(state.byID))
	for _, hero := range state.input.Party {
		if entity := state.byID[hero.ID]; entity.Alive() {
			combatants = append(combatants, entity)
		}
	}
	for _, id := range monsterIDs {
		combatants = append(combatants, state.byID[id])
	}

	order := initiative.DetermineTurnOrder(combatants, src)

	for round := 1; round <= e.cfg.MaxRoundsPerRoom; round++ {
		order = initiative.FilterAlive(order, state.byID)
		if roomDecided(state, monsterIDs) {
			return nil
		}

		e.emit(state, dungeon.EventRoundStarted, map[string]interface{}{
			"room":  room,
			"round": round,
		})

		for i := 0; i < len(order); i++ {
			attacker := state.byID[order[i]]
			if !attacker.Alive() {
				continue
			}

			target := e.pickTarget(state, attacker, monsterIDs)
			if target == nil {
				return nil
			}

			if err := e.attack(state, attacker, target); err != nil {
				return err
			}
			if roomDecided(state, monsterIDs) {
				return nil
			}
		}
	}

	return errors.Internalf("room %d combat exceeded %d rounds", room, e.cfg.MaxRoundsPerRoom)
}

// attack resolves one swing, applies damage, and emits attack plus any
// death and loot events
func (e *Engine) attack(state *runState, attacker, target *dungeon.CombatEntity) error {
	weapon := attacker.Weapon
	result, err := combat.ResolveAttack(attacker, target, &weapon, state.input.Source)
	if err != nil {
		return errors.Wrap(err, "attack resolution failed")
	}

	if result.Hit {
		updated := combat.ApplyDamage(*target, result.Damage)
		*target = updated
	}

	e.emit(state, dungeon.EventAttack, map[string]interface{}{
		"attacker": result.AttackerID,
		"target":   result.TargetID,
		"hit":      result.Hit,
		"critical": result.Critical,
		"roll":     result.Roll,
		"total":    result.Total,
		"damage":   result.Damage,
		"hp_after": result.TargetHPAfter,
	})

	if result.Hit && !target.Alive() {
		e.emit(state, dungeon.EventDeath, map[string]interface{}{
			"entity": target.ID,
			"killer": attacker.ID,
		})
		if target.Monster {
			state.slain++
			e.rollDrop(state, attacker, target)
		}
	}
	return nil
}

// rollDrop invokes the loot generator on a kill. Boss kills always drop
// with a rarity bump; regular kills drop at the configured chance.
func (e *Engine) rollDrop(state *runState, killer, victim *dungeon.CombatEntity) {
	src := state.input.Source

	context := "kill"
	modifier := 0
	pref := state.classByID[killer.ID]
	if victim.Boss {
		context = "boss"
		modifier = e.cfg.BossRarityModifier
		pref = dungeon.ClassAny
	} else if src.Float64() >= e.cfg.KillDropChance {
		return
	}

	// Sub-seed keyed by drop ordinal so each item replays independently.
	seed := fmt.Sprintf("%s:drop:%d", src.Seed(), len(state.items))

	output, err := loot.Generate(&loot.GenerateInput{
		Context:         context,
		Level:           state.input.Dungeon.Level,
		ClassPreference: pref,
		RarityModifier:  modifier,
		Seed:            seed,
		ScarcityEnabled: e.cfg.ScarcityEnabled,
		ScarcityCounts:  state.counts,
	})
	if err != nil {
		// A failed drop never fails the run; the kill stands.
		return
	}

	state.items = append(state.items, output.Item)
	if output.UpdatedCounts != nil {
		state.counts = output.UpdatedCounts
	}

	e.emit(state, dungeon.EventLootDrop, map[string]interface{}{
		"item":   output.Item.Name,
		"rarity": string(output.Item.Rarity),
		"class":  string(output.Item.RequiredClass),
		"source": victim.ID,
		"seed":   output.Item.Seed,
	})
}

// pickTarget chooses a living opponent at random from the run's source.
// Returns nil when no opponent remains.
func (e *Engine) pickTarget(state *runState, attacker *dungeon.CombatEntity, monsterIDs []string) *dungeon.CombatEntity {
	var pool []string
	if attacker.Monster {
		for _, hero := range state.input.Party {
			if state.byID[hero.ID].Alive() {
				pool = append(pool, hero.ID)
			}
		}
	} else {
		for _, id := range monsterIDs {
			if state.byID[id].Alive() {
				pool = append(pool, id)
			}
		}
	}
	if len(pool) == 0 {
		return nil
	}
	return state.byID[rng.Choice(state.input.Source, pool)]
}

// emit appends a paced event. Generation time is the run start; delivery
// is spaced at the configured cadence so the narrative unfolds in real
// time even though simulation is instant.
func (e *Engine) emit(state *runState, eventType dungeon.EventType, payload map[string]interface{}) {
	// First event lands one cadence step after start so a poll cursor at
	// the run's start time picks up the whole narrative.
	scheduled := state.input.StartTime.Add(time.Duration(state.eventIndex+1) * e.cfg.EventCadence)
	state.events = append(state.events, &dungeon.WorldEvent{
		ID:                    fmt.Sprintf("evt_%s_%04d", state.input.RunID, state.eventIndex),
		RunID:                 state.input.RunID,
		Type:                  eventType,
		Payload:               payload,
		GeneratedAt:           state.input.StartTime,
		ScheduledDeliveryTime: &scheduled,
	})
	state.eventIndex++
}

func (e *Engine) finish(state *runState, outcome dungeon.RunOutcome, cleared int) *RunOutput {
	var survivors []string
	for _, hero := range state.input.Party {
		if state.byID[hero.ID].Alive() {
			survivors = append(survivors, hero.ID)
		}
	}

	return &RunOutput{
		Result: &dungeon.RunResult{
			Outcome:       outcome,
			RoomsCleared:  cleared,
			MonstersSlain: state.slain,
			ItemsLooted:   len(state.items),
			Survivors:     survivors,
		},
		Events:        state.events,
		Items:         state.items,
		UpdatedCounts: state.counts,
	}
}

// roomDecided reports whether the room's combat is over: every monster
// dead or every hero dead
func roomDecided(state *runState, monsterIDs []string) bool {
	monstersAlive := false
	for _, id := range monsterIDs {
		if state.byID[id].Alive() {
			monstersAlive = true
			break
		}
	}
	if !monstersAlive {
		return true
	}

	for _, hero := range state.input.Party {
		if state.byID[hero.ID].Alive() {
			return false
		}
	}
	return true
}

func anyAlive(byID map[string]*dungeon.CombatEntity, ids []string) bool {
	for _, id := range ids {
		if byID[id].Alive() {
			return true
		}
	}
	return false
}

// entityFromTemplate instantiates a combatant from a monster template
func entityFromTemplate(tmpl dungeon.MonsterTemplate, id string, monster bool) *dungeon.CombatEntity {
	return &dungeon.CombatEntity{
		ID:               id,
		Name:             tmpl.Name,
		Monster:          monster,
		Strength:         tmpl.Strength,
		Dexterity:        tmpl.Dexterity,
		ProficiencyBonus: tmpl.ProficiencyBonus,
		ArmorClass:       tmpl.ArmorClass,
		CurrentHP:        tmpl.MaxHP,
		MaxHP:            tmpl.MaxHP,
		Weapon:           tmpl.Weapon,
	}
}

// EntityFromSheet builds a party combatant from a stored hero sheet using
// the class's canonical weapon
func EntityFromSheet(sheet *dungeon.HeroSheet) *dungeon.CombatEntity {
	return &dungeon.CombatEntity{
		ID:               sheet.Ref.String(),
		Name:             sheet.Name,
		Class:            sheet.Class,
		Strength:         sheet.Strength,
		Dexterity:        sheet.Dexterity,
		ProficiencyBonus: sheet.ProficiencyBonus,
		ArmorClass:       sheet.ArmorClass,
		CurrentHP:        sheet.MaxHP,
		MaxHP:            sheet.MaxHP,
		Weapon:           classWeapon(sheet.Class),
	}
}

// classWeapon returns the canonical starting weapon for a class
func classWeapon(class dungeon.Class) dungeon.Weapon {
	switch class {
	case dungeon.ClassWarrior:
		return dungeon.Weapon{Name: "Greatsword", Category: dungeon.WeaponMeleeStrength, DamageDice: "2d6"}
	case dungeon.ClassRanger:
		return dungeon.Weapon{Name: "Longbow", Category: dungeon.WeaponRanged, DamageDice: "1d8"}
	case dungeon.ClassMage:
		return dungeon.Weapon{Name: "Arcane Staff", Category: dungeon.WeaponMagicAutohit, DamageDice: "1d10"}
	case dungeon.ClassRogue:
		return dungeon.Weapon{Name: "Dagger", Category: dungeon.WeaponMeleeDexterity, DamageDice: "1d4"}
	default:
		return dungeon.Weapon{Name: "Club", Category: dungeon.WeaponMeleeStrength, DamageDice: "1d4"}
	}
}
