package dungeon

// Class identifies a hero class. Each class has exactly one canonical weapon
// type and a small set of armor kits in the loot tables.
type Class string

// Hero classes
const (
	ClassWarrior Class = "warrior"
	ClassRanger  Class = "ranger"
	ClassMage    Class = "mage"
	ClassRogue   Class = "rogue"

	// ClassAny pools all classes' items together in loot generation
	ClassAny Class = "any"
)

// Classes lists the playable classes in a stable order
var Classes = []Class{ClassWarrior, ClassRanger, ClassMage, ClassRogue}

// WeaponCategory determines which ability score governs an attack
type WeaponCategory string

// Weapon categories
const (
	// WeaponMeleeStrength attacks with strength
	WeaponMeleeStrength WeaponCategory = "melee_strength"
	// WeaponMeleeDexterity attacks with dexterity
	WeaponMeleeDexterity WeaponCategory = "melee_dexterity"
	// WeaponRanged attacks with dexterity
	WeaponRanged WeaponCategory = "ranged"
	// WeaponMagicAutohit bypasses the roll-vs-AC check entirely
	WeaponMagicAutohit WeaponCategory = "magic_autohit"
)

// Rarity is the four-tier item rarity ladder
type Rarity string

// Item rarities
const (
	RarityCommon   Rarity = "common"
	RarityUncommon Rarity = "uncommon"
	RarityRare     Rarity = "rare"
	RarityEpic     Rarity = "epic"
)

// ItemCategory splits generated items into weapons and armor
type ItemCategory string

// Item categories
const (
	ItemWeapon ItemCategory = "weapon"
	ItemArmor  ItemCategory = "armor"
)

// RunStatus is the lifecycle state of a dungeon run
type RunStatus string

// Run statuses. queued -> running -> completed | failed; terminal states are
// never left.
const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Terminal reports whether the status is a terminal state
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// EventType identifies a narrative world event
type EventType string

// World event types emitted by the simulation
const (
	EventRunStarted    EventType = "run_started"
	EventRoomEntered   EventType = "room_entered"
	EventRoundStarted  EventType = "round_started"
	EventAttack        EventType = "attack"
	EventDeath         EventType = "death"
	EventLootDrop      EventType = "loot_drop"
	EventBossEncounter EventType = "boss_encounter"
	EventRunCompleted  EventType = "run_completed"
	EventPartyWiped    EventType = "party_wiped"
	EventRunFailed     EventType = "run_failed"
)

// RunOutcome summarizes how a run ended
type RunOutcome string

// Run outcomes
const (
	OutcomeVictory RunOutcome = "victory"
	OutcomeWipe    RunOutcome = "wipe"
)
