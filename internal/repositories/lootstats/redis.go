package lootstats

import (
	"context"
	"strconv"

	"github.com/KirkDiggler/expedition-api/internal/errors"
	redisclient "github.com/KirkDiggler/expedition-api/internal/redis"
)

// Single hash: loot_scarcity, field per base item type
const scarcityKey = "loot_scarcity"

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

// NewRedisRepository creates a new Redis repository for scarcity counters
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{client: cfg.Client}, nil
}

var _ Repository = (*redisRepository)(nil)

func (r *redisRepository) GetAll(ctx context.Context, _ GetAllInput) (*GetAllOutput, error) {
	fields, err := r.client.HGetAll(ctx, scarcityKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get scarcity counters")
	}

	counts := make(map[string]int, len(fields))
	for baseType, raw := range fields {
		count, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "corrupt scarcity counter for %q", baseType)
		}
		counts[baseType] = count
	}

	return &GetAllOutput{Counts: counts}, nil
}

func (r *redisRepository) Apply(ctx context.Context, input ApplyInput) (*ApplyOutput, error) {
	if len(input.Deltas) == 0 {
		return r.getAllAsApply(ctx)
	}

	pipe := r.client.TxPipeline()
	for baseType, delta := range input.Deltas {
		if delta != 0 {
			pipe.HIncrBy(ctx, scarcityKey, baseType, int64(delta))
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to apply scarcity deltas")
	}

	return r.getAllAsApply(ctx)
}

func (r *redisRepository) getAllAsApply(ctx context.Context) (*ApplyOutput, error) {
	output, err := r.GetAll(ctx, GetAllInput{})
	if err != nil {
		return nil, err
	}
	return &ApplyOutput{Counts: output.Counts}, nil
}
