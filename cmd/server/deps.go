package main

import (
	"context"
	"time"

	"github.com/KirkDiggler/expedition-api/internal/config"
	"github.com/KirkDiggler/expedition-api/internal/engine/simulation"
	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/errors"
	"github.com/KirkDiggler/expedition-api/internal/orchestrators/admission"
	"github.com/KirkDiggler/expedition-api/internal/orchestrators/expedition"
	"github.com/KirkDiggler/expedition-api/internal/pkg/clock"
	"github.com/KirkDiggler/expedition-api/internal/pkg/idgen"
	"github.com/KirkDiggler/expedition-api/internal/queue"
	redisclient "github.com/KirkDiggler/expedition-api/internal/redis"
	"github.com/KirkDiggler/expedition-api/internal/repositories/dailystats"
	dungeonrepo "github.com/KirkDiggler/expedition-api/internal/repositories/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/repositories/event"
	"github.com/KirkDiggler/expedition-api/internal/repositories/hero"
	"github.com/KirkDiggler/expedition-api/internal/repositories/herolock"
	"github.com/KirkDiggler/expedition-api/internal/repositories/lootstats"
	runrepo "github.com/KirkDiggler/expedition-api/internal/repositories/run"
	"github.com/KirkDiggler/expedition-api/internal/rules"
)

// dependencies wires the shared object graph both roles build from
type dependencies struct {
	cfg        *config.Config
	runs       runrepo.Repository
	events     event.Repository
	dungeons   dungeonrepo.Repository
	locks      herolock.Repository
	queue      queue.Queue
	admission  admission.Service
	expedition expedition.Service
}

func buildDependencies(cfg *config.Config) (*dependencies, error) {
	client, err := redisclient.NewClient(cfg.RedisAddr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create redis client")
	}

	clk := clock.New()

	runs, err := runrepo.NewRedisRepository(&runrepo.Config{Client: client})
	if err != nil {
		return nil, err
	}
	events, err := event.NewRedisRepository(&event.Config{Client: client})
	if err != nil {
		return nil, err
	}
	dungeons, err := dungeonrepo.NewRedisRepository(&dungeonrepo.Config{Client: client})
	if err != nil {
		return nil, err
	}
	heroes, err := hero.NewRedisRepository(&hero.Config{Client: client})
	if err != nil {
		return nil, err
	}
	locks, err := herolock.NewRedisRepository(&herolock.Config{Client: client, Clock: clk})
	if err != nil {
		return nil, err
	}
	stats, err := dailystats.NewRedisRepository(&dailystats.Config{Client: client, Clock: clk})
	if err != nil {
		return nil, err
	}
	scarcity, err := lootstats.NewRedisRepository(&lootstats.Config{Client: client})
	if err != nil {
		return nil, err
	}

	jobQueue, err := queue.NewRedisQueue(&queue.Config{
		Client:  client,
		Timeout: cfg.JobTimeout,
	})
	if err != nil {
		return nil, err
	}

	adm, err := admission.NewOrchestrator(&admission.Config{
		HeroLockRepo:   locks,
		DailyStatsRepo: stats,
		Clock:          clk,
	})
	if err != nil {
		return nil, err
	}

	engine := simulation.NewEngine(simulation.Config{
		EventCadence:    cfg.EventCadence,
		ScarcityEnabled: cfg.ScarcityEnabled,
	})

	exp, err := expedition.NewOrchestrator(&expedition.Config{
		RunRepo:         runs,
		EventRepo:       events,
		DungeonRepo:     dungeons,
		HeroRepo:        heroes,
		LootStatsRepo:   scarcity,
		Admission:       adm,
		Queue:           jobQueue,
		Validator:       rules.NewStructuralValidator(),
		Engine:          engine,
		Clock:           clk,
		IDGenerator:     idgen.NewUUID("run"),
		JobIDGen:        idgen.NewUUID("job"),
		ScarcityEnabled: cfg.ScarcityEnabled,
		LockTTL:         cfg.LockTTL(),
	})
	if err != nil {
		return nil, err
	}

	return &dependencies{
		cfg:        cfg,
		runs:       runs,
		events:     events,
		dungeons:   dungeons,
		locks:      locks,
		queue:      jobQueue,
		admission:  adm,
		expedition: exp,
	}, nil
}

// seedCatalog installs the default dungeons when the catalog is empty so a
// fresh deployment can serve runs immediately
func (d *dependencies) seedCatalog(ctx context.Context) error {
	for _, entry := range defaultCatalog() {
		if _, err := d.dungeons.GetBySlug(ctx, dungeonrepo.GetBySlugInput{Slug: entry.Slug}); err == nil {
			continue
		} else if !errors.IsNotFound(err) {
			return err
		}
		if _, err := d.dungeons.Put(ctx, dungeonrepo.PutInput{Dungeon: entry}); err != nil {
			return err
		}
	}
	return nil
}

func defaultCatalog() []*dungeon.Dungeon {
	return []*dungeon.Dungeon{
		{
			ID:          "dungeon_sunken_crypt",
			Slug:        "sunken-crypt",
			Name:        "The Sunken Crypt",
			Description: "Waterlogged halls beneath the old cemetery.",
			Level:       3,
			Rooms:       3,
			Monsters: []dungeon.MonsterTemplate{
				{
					Name: "Skeleton", Strength: 10, Dexterity: 12,
					ProficiencyBonus: 2, ArmorClass: 12, MaxHP: 8,
					Weapon: dungeon.Weapon{Name: "Rusty Sword", Category: dungeon.WeaponMeleeStrength, DamageDice: "1d6"},
				},
				{
					Name: "Drowned Ghoul", Strength: 13, Dexterity: 14,
					ProficiencyBonus: 2, ArmorClass: 13, MaxHP: 12,
					Weapon: dungeon.Weapon{Name: "Claws", Category: dungeon.WeaponMeleeDexterity, DamageDice: "1d6"},
				},
			},
			Boss: dungeon.MonsterTemplate{
				Name: "Crypt Lord", Strength: 16, Dexterity: 10,
				ProficiencyBonus: 3, ArmorClass: 15, MaxHP: 30,
				Weapon: dungeon.Weapon{Name: "Bone Cleaver", Category: dungeon.WeaponMeleeStrength, DamageDice: "2d6"},
			},
			Eligible: true,
		},
		{
			ID:          "dungeon_ember_depths",
			Slug:        "ember-depths",
			Name:        "The Ember Depths",
			Description: "Lava tubes crawling with cinder-born beasts.",
			Level:       6,
			Rooms:       4,
			Monsters: []dungeon.MonsterTemplate{
				{
					Name: "Cinder Hound", Strength: 14, Dexterity: 15,
					ProficiencyBonus: 3, ArmorClass: 14, MaxHP: 18,
					Weapon: dungeon.Weapon{Name: "Fangs", Category: dungeon.WeaponMeleeDexterity, DamageDice: "1d8"},
				},
				{
					Name: "Magma Shade", Strength: 10, Dexterity: 16,
					ProficiencyBonus: 3, ArmorClass: 13, MaxHP: 15,
					Weapon: dungeon.Weapon{Name: "Scorching Touch", Category: dungeon.WeaponMagicAutohit, DamageDice: "1d6"},
				},
			},
			Boss: dungeon.MonsterTemplate{
				Name: "Ashen Tyrant", Strength: 18, Dexterity: 12,
				ProficiencyBonus: 4, ArmorClass: 17, MaxHP: 60,
				Weapon: dungeon.Weapon{Name: "Molten Maul", Category: dungeon.WeaponMeleeStrength, DamageDice: "2d8"},
			},
			Eligible: true,
		},
	}
}

// drainTimeout bounds graceful shutdown for both roles
const drainTimeout = 30 * time.Second
