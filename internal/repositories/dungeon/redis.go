package dungeonrepo

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/errors"
	redisclient "github.com/KirkDiggler/expedition-api/internal/redis"
)

const (
	// Key pattern: dungeon:{id}
	dungeonKeyPrefix = "dungeon:"
	// Slug lookup: dungeon_slug:{slug} -> id
	slugKeyPrefix = "dungeon_slug:"
	// Set of eligible dungeon IDs
	eligibleSetKey = "dungeons_eligible"
)

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
}

// NewRedisRepository creates a new Redis repository for the dungeon catalog
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{client: cfg.Client}, nil
}

var _ Repository = (*redisRepository)(nil)

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.DungeonID == "" {
		return nil, errors.InvalidArgument("dungeon ID cannot be empty")
	}

	d, err := r.load(ctx, input.DungeonID)
	if err != nil {
		return nil, err
	}
	return &GetOutput{Dungeon: d}, nil
}

func (r *redisRepository) GetBySlug(ctx context.Context, input GetBySlugInput) (*GetBySlugOutput, error) {
	if input.Slug == "" {
		return nil, errors.InvalidArgument("slug cannot be empty")
	}

	id, err := r.client.Get(ctx, slugKey(input.Slug)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("dungeon %q not found", input.Slug)
		}
		return nil, errors.Wrapf(err, "failed to resolve dungeon slug")
	}

	d, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &GetBySlugOutput{Dungeon: d}, nil
}

func (r *redisRepository) RandomEligible(ctx context.Context, _ RandomEligibleInput) (*RandomEligibleOutput, error) {
	// Dungeon selection happens before the run's seed comes into play, so
	// store-side randomness is fine here.
	id, err := r.client.SRandMember(ctx, eligibleSetKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.Unavailable("no dungeons available")
		}
		return nil, errors.Wrapf(err, "failed to pick an eligible dungeon")
	}
	if id == "" {
		return nil, errors.Unavailable("no dungeons available")
	}

	d, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RandomEligibleOutput{Dungeon: d}, nil
}

func (r *redisRepository) Put(ctx context.Context, input PutInput) (*PutOutput, error) {
	if input.Dungeon == nil {
		return nil, errors.InvalidArgument("dungeon cannot be nil")
	}
	if input.Dungeon.ID == "" || input.Dungeon.Slug == "" {
		return nil, errors.InvalidArgument("dungeon ID and slug cannot be empty")
	}

	dungeonJSON, err := json.Marshal(input.Dungeon)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal dungeon")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, dungeonKey(input.Dungeon.ID), dungeonJSON, 0)
	pipe.Set(ctx, slugKey(input.Dungeon.Slug), input.Dungeon.ID, 0)
	if input.Dungeon.Eligible {
		pipe.SAdd(ctx, eligibleSetKey, input.Dungeon.ID)
	} else {
		pipe.SRem(ctx, eligibleSetKey, input.Dungeon.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to store dungeon")
	}

	return &PutOutput{Dungeon: input.Dungeon}, nil
}

func (r *redisRepository) load(ctx context.Context, id string) (*dungeon.Dungeon, error) {
	dungeonJSON, err := r.client.Get(ctx, dungeonKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("dungeon %q not found", id)
		}
		return nil, errors.Wrapf(err, "failed to get dungeon from Redis")
	}

	var d dungeon.Dungeon
	if err := json.Unmarshal([]byte(dungeonJSON), &d); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal dungeon")
	}
	return &d, nil
}

func dungeonKey(id string) string {
	return dungeonKeyPrefix + id
}

func slugKey(slug string) string {
	return slugKeyPrefix + slug
}
