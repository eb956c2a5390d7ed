// Package queue implements the single-attempt job queue between the request
// role and the worker role.
//
// Semantics are deliberately minimal: LPUSH to enqueue, BRPOP to dequeue.
// A dequeued job is gone; there is no acknowledgement and no redelivery, so
// a failed simulation surfaces as a failed run instead of being silently
// retried. The processing timeout bounds how long a worker may hold a job.
package queue

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/errors"
	redisclient "github.com/KirkDiggler/expedition-api/internal/redis"
)

const (
	defaultQueueKey          = "expedition_jobs"
	defaultProcessingTimeout = 5 * time.Minute
	defaultPollInterval      = 2 * time.Second
)

// Queue hands jobs from the request role to the worker role
type Queue interface {
	Enqueue(ctx context.Context, job *dungeon.Job) error
	// Dequeue blocks up to the poll interval; it returns (nil, nil) when
	// no job arrived so callers can loop on their own context
	Dequeue(ctx context.Context) (*dungeon.Job, error)
	// ProcessingTimeout is the deadline a worker must apply to one job
	ProcessingTimeout() time.Duration
	// Len reports the number of waiting jobs
	Len(ctx context.Context) (int64, error)
}

// Config holds the configuration for the Redis queue
type Config struct {
	Client redisclient.Client
	// Key overrides the queue list key
	Key string
	// Timeout bounds one job's processing; defaults to 5m
	Timeout time.Duration
	// PollInterval bounds one Dequeue block; defaults to 2s
	PollInterval time.Duration
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	return nil
}

type redisQueue struct {
	client       redisclient.Client
	key          string
	timeout      time.Duration
	pollInterval time.Duration
}

// NewRedisQueue creates the Redis-backed job queue
func NewRedisQueue(cfg *Config) (Queue, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	key := cfg.Key
	if key == "" {
		key = defaultQueueKey
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultProcessingTimeout
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	return &redisQueue{
		client:       cfg.Client,
		key:          key,
		timeout:      timeout,
		pollInterval: pollInterval,
	}, nil
}

var _ Queue = (*redisQueue)(nil)

func (q *redisQueue) Enqueue(ctx context.Context, job *dungeon.Job) error {
	if job == nil {
		return errors.InvalidArgument("job cannot be nil")
	}
	if job.ID == "" || job.RunID == "" {
		return errors.InvalidArgument("job ID and run ID cannot be empty")
	}

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal job")
	}

	if err := q.client.LPush(ctx, q.key, jobJSON).Err(); err != nil {
		return errors.Wrapf(err, "failed to enqueue job")
	}
	return nil
}

func (q *redisQueue) Dequeue(ctx context.Context) (*dungeon.Job, error) {
	values, err := q.client.BRPop(ctx, q.pollInterval, q.key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrapf(err, "failed to dequeue job")
	}
	if len(values) != 2 {
		return nil, errors.Internalf("unexpected BRPOP reply length %d", len(values))
	}

	var job dungeon.Job
	if err := json.Unmarshal([]byte(values[1]), &job); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal job")
	}
	return &job, nil
}

func (q *redisQueue) ProcessingTimeout() time.Duration {
	return q.timeout
}

func (q *redisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read queue length")
	}
	return n, nil
}
