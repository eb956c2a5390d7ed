package herolock

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/errors"
	"github.com/KirkDiggler/expedition-api/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/expedition-api/internal/redis"
)

const (
	// Key pattern: hero_lock:{contract}:{token_id}
	lockKeyPrefix = "hero_lock:"

	defaultTTL = 15 * time.Minute
)

// releaseScript deletes a lock only when it still belongs to the releasing
// run, so a lock re-acquired by a later run is never clobbered
var releaseScript = redis.NewScript(`
local value = redis.call("GET", KEYS[1])
if value == false then
	return 0
end
local lock = cjson.decode(value)
if lock.run_id == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
	Clock  clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	if c.Clock == nil {
		return errors.InvalidArgument("clock is required")
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// NewRedisRepository creates a new Redis repository for hero locks
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{
		client: cfg.Client,
		clock:  cfg.Clock,
	}, nil
}

var _ Repository = (*redisRepository)(nil)

func (r *redisRepository) Check(ctx context.Context, input CheckInput) (*CheckOutput, error) {
	if len(input.Heroes) == 0 {
		return nil, errors.InvalidArgument("heroes cannot be empty")
	}

	var locked []dungeon.HeroRef
	for _, hero := range input.Heroes {
		exists, err := r.client.Exists(ctx, lockKey(hero)).Result()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to check lock for %s", hero)
		}
		if exists > 0 {
			locked = append(locked, hero)
		}
	}

	return &CheckOutput{
		Locked:       len(locked) > 0,
		LockedHeroes: locked,
	}, nil
}

func (r *redisRepository) Acquire(ctx context.Context, input AcquireInput) (*AcquireOutput, error) {
	if input.RunID == "" {
		return nil, errors.InvalidArgument("run ID cannot be empty")
	}
	if len(input.Heroes) == 0 {
		return nil, errors.InvalidArgument("heroes cannot be empty")
	}

	ttl := input.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}

	now := r.clock.Now()
	var acquired []*dungeon.HeroLock

	for _, hero := range input.Heroes {
		lock := &dungeon.HeroLock{Hero: hero, RunID: input.RunID, LockedAt: now}
		lockJSON, err := json.Marshal(lock)
		if err != nil {
			r.rollback(ctx, input.RunID, acquired)
			return nil, errors.Wrapf(err, "failed to marshal lock for %s", hero)
		}

		ok, err := r.client.SetNX(ctx, lockKey(hero), lockJSON, ttl).Result()
		if err != nil {
			r.rollback(ctx, input.RunID, acquired)
			return nil, errors.Wrapf(err, "failed to acquire lock for %s", hero)
		}
		if !ok {
			r.rollback(ctx, input.RunID, acquired)
			return nil, r.conflict(ctx, input.Heroes)
		}

		acquired = append(acquired, lock)
	}

	return &AcquireOutput{Locks: acquired}, nil
}

func (r *redisRepository) Release(ctx context.Context, input ReleaseInput) (*ReleaseOutput, error) {
	if input.RunID == "" {
		return nil, errors.InvalidArgument("run ID cannot be empty")
	}

	released := 0
	for _, hero := range input.Heroes {
		n, err := releaseScript.Run(ctx, r.client, []string{lockKey(hero)}, input.RunID).Int()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to release lock for %s", hero)
		}
		released += n
	}

	return &ReleaseOutput{Released: released}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	lockJSON, err := r.client.Get(ctx, lockKey(input.Hero)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("no lock for hero %s", input.Hero)
		}
		return nil, errors.Wrapf(err, "failed to get lock for %s", input.Hero)
	}

	var lock dungeon.HeroLock
	if err := json.Unmarshal([]byte(lockJSON), &lock); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal lock")
	}

	return &GetOutput{Lock: &lock}, nil
}

// rollback releases the locks acquired so far in a failed all-or-nothing
// attempt
func (r *redisRepository) rollback(ctx context.Context, runID string, acquired []*dungeon.HeroLock) {
	for _, lock := range acquired {
		_, _ = releaseScript.Run(ctx, r.client, []string{lockKey(lock.Hero)}, runID).Result()
	}
}

// conflict re-reads the current lock state so the error lists exactly the
// heroes that blocked admission
func (r *redisRepository) conflict(ctx context.Context, heroes []dungeon.HeroRef) error {
	check, err := r.Check(ctx, CheckInput{Heroes: heroes})
	if err != nil {
		return errors.AlreadyExists("one or more heroes are already locked")
	}

	lockedIDs := make([]string, len(check.LockedHeroes))
	for i, hero := range check.LockedHeroes {
		lockedIDs[i] = hero.String()
	}

	return errors.AlreadyExists("one or more heroes are already locked").
		WithMeta("locked_heroes", lockedIDs)
}

func lockKey(hero dungeon.HeroRef) string {
	return lockKeyPrefix + hero.String()
}
