// Package dungeon defines the domain entities for dungeon expeditions.
//
// These are data-only structs. All combat math lives in internal/engine; all
// persistence lives in internal/repositories.
package dungeon

import (
	"fmt"
	"strings"
	"time"
)

// HeroRef identifies a player-owned character by its on-chain identity
type HeroRef struct {
	Contract string `json:"contract"`
	TokenID  string `json:"token_id"`
}

// String renders the reference as "contract:tokenID", the form used in lock
// keys and event payloads
func (r HeroRef) String() string {
	return fmt.Sprintf("%s:%s", r.Contract, r.TokenID)
}

// ParseHeroRef parses the "contract:tokenID" form
func ParseHeroRef(s string) (HeroRef, error) {
	contract, tokenID, ok := strings.Cut(s, ":")
	if !ok || contract == "" || tokenID == "" {
		return HeroRef{}, fmt.Errorf("invalid hero reference %q", s)
	}
	return HeroRef{Contract: contract, TokenID: tokenID}, nil
}

// HeroSheet is the stored stat block for a player-owned hero
type HeroSheet struct {
	Ref              HeroRef `json:"ref"`
	Name             string  `json:"name"`
	Class            Class   `json:"class"`
	Level            int     `json:"level"`
	Strength         int     `json:"strength"`
	Dexterity        int     `json:"dexterity"`
	ProficiencyBonus int     `json:"proficiency_bonus"`
	ArmorClass       int     `json:"armor_class"`
	MaxHP            int     `json:"max_hp"`
}

// Weapon describes how an entity attacks
type Weapon struct {
	Name           string         `json:"name"`
	Category       WeaponCategory `json:"category"`
	DamageDice     string         `json:"damage_dice"` // e.g. "2d6"
	AttackModifier int            `json:"attack_modifier"`
	DamageModifier int            `json:"damage_modifier"`
}

// CombatEntity is a living participant in a run. HP is mutated only through
// the combat engine's damage/heal operations and is clamped to [0, MaxHP].
type CombatEntity struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Class            Class  `json:"class,omitempty"`
	Monster          bool   `json:"monster,omitempty"`
	Boss             bool   `json:"boss,omitempty"`
	Strength         int    `json:"strength"`
	Dexterity        int    `json:"dexterity"`
	ProficiencyBonus int    `json:"proficiency_bonus"`
	ArmorClass       int    `json:"armor_class"`
	CurrentHP        int    `json:"current_hp"`
	MaxHP            int    `json:"max_hp"`
	Weapon           Weapon `json:"weapon"`
}

// Alive reports whether the entity can still act
func (e *CombatEntity) Alive() bool {
	return e.CurrentHP > 0
}

// AttackResult records one resolved attack with everything needed for audit
// and replay
type AttackResult struct {
	AttackerID           string `json:"attacker_id"`
	TargetID             string `json:"target_id"`
	Hit                  bool   `json:"hit"`
	Critical             bool   `json:"critical"`
	Roll                 int    `json:"roll"`  // raw d20
	Total                int    `json:"total"` // d20 + modifiers
	TargetAC             int    `json:"target_ac"`
	Damage               int    `json:"damage"`
	DamageRolls          []int  `json:"damage_rolls,omitempty"`
	TargetHPBefore       int    `json:"target_hp_before"`
	TargetHPAfter        int    `json:"target_hp_after"`
	TargetMaxHP          int    `json:"target_max_hp"`
	AbilityModifier      int    `json:"ability_modifier"`
	ProficiencyBonus     int    `json:"proficiency_bonus"`
	WeaponAttackModifier int    `json:"weapon_attack_modifier"`
	WeaponDamageModifier int    `json:"weapon_damage_modifier"`
}

// GeneratedItem is a procedurally generated piece of loot. Immutable once
// created; scarcity bookkeeping is a side effect of creation handled by the
// caller, not state on the item.
type GeneratedItem struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	Category      ItemCategory `json:"category"`
	Rarity        Rarity       `json:"rarity"`
	RequiredClass Class        `json:"required_class"`
	BaseType      string       `json:"base_type"`
	DamageDice    string       `json:"damage_dice,omitempty"` // weapons only
	ArmorClass    int          `json:"armor_class,omitempty"` // armor only
	BonusValue    int          `json:"bonus_value"`
	Enhancements  []string     `json:"enhancements,omitempty"`
	Context       string       `json:"context"`
	Level         int          `json:"level"`
	Seed          string       `json:"seed"` // regenerates the exact item
}

// RunResult summarizes a completed expedition
type RunResult struct {
	Outcome       RunOutcome `json:"outcome"`
	RoomsCleared  int        `json:"rooms_cleared"`
	MonstersSlain int        `json:"monsters_slain"`
	ItemsLooted   int        `json:"items_looted"`
	Survivors     []string   `json:"survivors,omitempty"`
}

// DungeonRun is one execution of an expedition for a fixed party and seed.
// Created by the orchestrator; mutated only by the worker that owns it;
// terminal once completed or failed.
type DungeonRun struct {
	ID           string     `json:"id"`
	DungeonID    string     `json:"dungeon_id"`
	Party        []HeroRef  `json:"party"`
	Wallet       string     `json:"wallet"`
	Seed         string     `json:"seed"`
	Status       RunStatus  `json:"status"`
	JobID        string     `json:"job_id,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	Result       *RunResult `json:"result,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// WorldEvent is one timestamped narrative event. Append-only; after creation
// only the Delivered flag changes, and that flag is a worker-cleanup hint,
// never a visibility filter.
type WorldEvent struct {
	ID          string                 `json:"id"`
	RunID       string                 `json:"run_id"`
	Type        EventType              `json:"type"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	GeneratedAt time.Time              `json:"generated_at"`
	// ScheduledDeliveryTime paces visibility; nil means visible immediately
	ScheduledDeliveryTime *time.Time `json:"scheduled_delivery_time,omitempty"`
	Delivered             bool       `json:"delivered,omitempty"`
}

// EffectiveTime is the moment the event becomes visible to pollers: the
// scheduled delivery time when present, otherwise the generation timestamp
func (e *WorldEvent) EffectiveTime() time.Time {
	if e.ScheduledDeliveryTime != nil {
		return *e.ScheduledDeliveryTime
	}
	return e.GeneratedAt
}

// HeroLock marks a hero as committed to a run. At most one live lock exists
// per hero at any time.
type HeroLock struct {
	Hero     HeroRef   `json:"hero"`
	RunID    string    `json:"run_id"`
	LockedAt time.Time `json:"locked_at"`
}

// UserDailyStats tracks a wallet's run count for the current quota period
type UserDailyStats struct {
	Wallet      string    `json:"wallet"`
	DailyRuns   int       `json:"daily_runs"`
	PeriodStart time.Time `json:"period_start"`
}

// MonsterTemplate is a spawnable monster stat block inside a dungeon
type MonsterTemplate struct {
	Name             string `json:"name"`
	Strength         int    `json:"strength"`
	Dexterity        int    `json:"dexterity"`
	ProficiencyBonus int    `json:"proficiency_bonus"`
	ArmorClass       int    `json:"armor_class"`
	MaxHP            int    `json:"max_hp"`
	Weapon           Weapon `json:"weapon"`
}

// Dungeon is a catalog entry an expedition can be run against
type Dungeon struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Level       int               `json:"level"`
	Rooms       int               `json:"rooms"`
	Monsters    []MonsterTemplate `json:"monsters"`
	Boss        MonsterTemplate   `json:"boss"`
	Eligible    bool              `json:"eligible"`
}

// Job is the unit of work handed from the request role to the worker role
// through the queue. Single-attempt: the queue never re-delivers it.
type Job struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	DungeonID string    `json:"dungeon_id"`
	Party     []HeroRef `json:"party"`
	Seed      string    `json:"seed"`
	StartTime time.Time `json:"start_time"`
}
