package run

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/errors"
	redisclient "github.com/KirkDiggler/expedition-api/internal/redis"
)

const (
	// Key pattern: run:{run_id}
	runKeyPrefix = "run:"
	// Set of run IDs per status: runs_by_status:{status}
	statusSetPrefix = "runs_by_status:"
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

// NewRedisRepository creates a new Redis repository for dungeon runs
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{client: cfg.Client}, nil
}

var _ Repository = (*redisRepository)(nil)

func (r *redisRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if input.Run == nil {
		return nil, errors.InvalidArgument("run cannot be nil")
	}
	if input.Run.ID == "" {
		return nil, errors.InvalidArgument("run ID cannot be empty")
	}

	runJSON, err := json.Marshal(input.Run)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal run")
	}

	key := runKey(input.Run.ID)
	created, err := r.client.SetNX(ctx, key, runJSON, 0).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to store run in Redis")
	}
	if !created {
		return nil, errors.AlreadyExistsf("run %s already exists", input.Run.ID)
	}

	if err := r.client.SAdd(ctx, statusSet(input.Run.Status), input.Run.ID).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to index run status")
	}

	return &CreateOutput{Run: input.Run}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.RunID == "" {
		return nil, errors.InvalidArgument("run ID cannot be empty")
	}

	runJSON, err := r.client.Get(ctx, runKey(input.RunID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("run %s not found", input.RunID)
		}
		return nil, errors.Wrapf(err, "failed to get run from Redis")
	}

	var record dungeon.DungeonRun
	if err := json.Unmarshal([]byte(runJSON), &record); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal run")
	}

	return &GetOutput{Run: &record}, nil
}

func (r *redisRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	if input.Run == nil {
		return nil, errors.InvalidArgument("run cannot be nil")
	}
	if input.Run.ID == "" {
		return nil, errors.InvalidArgument("run ID cannot be empty")
	}

	existing, err := r.Get(ctx, GetInput{RunID: input.Run.ID})
	if err != nil {
		return nil, err
	}
	if existing.Run.Status.Terminal() {
		return nil, errors.FailedPreconditionf("run %s is already terminal", input.Run.ID)
	}

	runJSON, err := json.Marshal(input.Run)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal run")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, runKey(input.Run.ID), runJSON, 0)
	if existing.Run.Status != input.Run.Status {
		pipe.SRem(ctx, statusSet(existing.Run.Status), input.Run.ID)
		pipe.SAdd(ctx, statusSet(input.Run.Status), input.Run.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to update run in Redis")
	}

	return &UpdateOutput{Run: input.Run}, nil
}

func (r *redisRepository) ListByStatus(ctx context.Context, input ListByStatusInput) (*ListByStatusOutput, error) {
	if input.Status == "" {
		return nil, errors.InvalidArgument("status cannot be empty")
	}

	ids, err := r.client.SMembers(ctx, statusSet(input.Status)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list runs by status")
	}

	runs := make([]*dungeon.DungeonRun, 0, len(ids))
	for _, id := range ids {
		output, err := r.Get(ctx, GetInput{RunID: id})
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		runs = append(runs, output.Run)
	}

	return &ListByStatusOutput{Runs: runs}, nil
}

func runKey(runID string) string {
	return runKeyPrefix + runID
}

func statusSet(status dungeon.RunStatus) string {
	return statusSetPrefix + string(status)
}
