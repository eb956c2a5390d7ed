package hero

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/errors"
	redisclient "github.com/KirkDiggler/expedition-api/internal/redis"
)

// Key pattern: hero_sheet:{contract}:{token_id}
const sheetKeyPrefix = "hero_sheet:"

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

// NewRedisRepository creates a new Redis repository for hero sheets
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{client: cfg.Client}, nil
}

var _ Repository = (*redisRepository)(nil)

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	sheetJSON, err := r.client.Get(ctx, sheetKey(input.Ref)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("hero %s not found", input.Ref)
		}
		return nil, errors.Wrapf(err, "failed to get hero sheet")
	}

	var sheet dungeon.HeroSheet
	if err := json.Unmarshal([]byte(sheetJSON), &sheet); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal hero sheet")
	}

	return &GetOutput{Sheet: &sheet}, nil
}

func (r *redisRepository) Put(ctx context.Context, input PutInput) (*PutOutput, error) {
	if input.Sheet == nil {
		return nil, errors.InvalidArgument("sheet cannot be nil")
	}
	if input.Sheet.Ref.Contract == "" || input.Sheet.Ref.TokenID == "" {
		return nil, errors.InvalidArgument("hero reference cannot be empty")
	}

	sheetJSON, err := json.Marshal(input.Sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal hero sheet")
	}

	if err := r.client.Set(ctx, sheetKey(input.Sheet.Ref), sheetJSON, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to store hero sheet")
	}

	return &PutOutput{Sheet: input.Sheet}, nil
}

func sheetKey(ref dungeon.HeroRef) string {
	return sheetKeyPrefix + ref.String()
}
