package dailystats

import (
	"context"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/errors"
	"github.com/KirkDiggler/expedition-api/internal/pkg/clock"
	redisclient "github.com/KirkDiggler/expedition-api/internal/redis"
)

const (
	// Hash per wallet: daily_stats:{wallet} with fields count, period_start
	statsKeyPrefix = "daily_stats:"

	fieldCount       = "count"
	fieldPeriodStart = "period_start"

	// Stale counters are garbage-collected two periods after last touch
	statsTTL = 48 * time.Hour

	// Optimistic transaction retries before giving up
	maxTxRetries = 5
)

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

// NewRedisRepository creates a new Redis repository for daily stats
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

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.Wallet == "" {
		return nil, errors.InvalidArgument("wallet cannot be empty")
	}

	fields, err := r.client.HGetAll(ctx, statsKey(input.Wallet)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get daily stats")
	}

	now := r.clock.Now().UTC()
	if len(fields) == 0 {
		return &GetOutput{
			Stats: &dungeon.UserDailyStats{
				Wallet:      input.Wallet,
				DailyRuns:   0,
				PeriodStart: periodStart(now),
			},
			NeedsReset: false,
		}, nil
	}

	stats, err := parseStats(input.Wallet, fields)
	if err != nil {
		return nil, err
	}

	return &GetOutput{
		Stats:      stats,
		NeedsReset: stats.PeriodStart.Before(periodStart(now)),
	}, nil
}

func (r *redisRepository) Increment(ctx context.Context, input IncrementInput) (*IncrementOutput, error) {
	return r.adjust(ctx, input.Wallet, +1, input.Limit)
}

func (r *redisRepository) Decrement(ctx context.Context, input DecrementInput) (*DecrementOutput, error) {
	output, err := r.adjust(ctx, input.Wallet, -1, 0)
	if err != nil {
		return nil, err
	}
	return &DecrementOutput{Stats: output.Stats}, nil
}

// adjust applies a delta inside an optimistic WATCH transaction so
// concurrent admissions from separate request handlers never lose an
// update. A period rollover resets the count before applying the delta.
// A positive limit rejects increments at or above it inside the same
// transaction, so the bound holds even when two requests raced the read.
func (r *redisRepository) adjust(ctx context.Context, wallet string, delta, limit int) (*IncrementOutput, error) {
	if wallet == "" {
		return nil, errors.InvalidArgument("wallet cannot be empty")
	}

	key := statsKey(wallet)
	now := r.clock.Now().UTC()
	period := periodStart(now)

	var result *dungeon.UserDailyStats

	txn := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}

		count := 0
		if len(fields) > 0 {
			stats, err := parseStats(wallet, fields)
			if err != nil {
				return err
			}
			if !stats.PeriodStart.Before(period) {
				count = stats.DailyRuns
			}
		}

		if delta > 0 && limit > 0 && count >= limit {
			return errors.QuotaExceededf(
				"wallet %s has used %d of %d runs this period", wallet, count, limit).
				WithMeta("daily_runs", count)
		}

		count += delta
		if count < 0 {
			count = 0
		}

		result = &dungeon.UserDailyStats{
			Wallet:      wallet,
			DailyRuns:   count,
			PeriodStart: period,
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				fieldCount, strconv.Itoa(count),
				fieldPeriodStart, strconv.FormatInt(period.Unix(), 10),
			)
			pipe.Expire(ctx, key, statsTTL)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := r.client.Watch(ctx, txn, key)
		if err == nil {
			return &IncrementOutput{Stats: result}, nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		if errors.IsQuotaExceeded(err) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "failed to update daily stats")
	}

	return nil, errors.WrapWithCode(redis.TxFailedErr, errors.CodeAborted,
		"daily stats update lost the race repeatedly")
}

func parseStats(wallet string, fields map[string]string) (*dungeon.UserDailyStats, error) {
	count, err := strconv.Atoi(fields[fieldCount])
	if err != nil {
		return nil, errors.Wrapf(err, "corrupt daily stats count for %s", wallet)
	}
	periodUnix, err := strconv.ParseInt(fields[fieldPeriodStart], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "corrupt daily stats period for %s", wallet)
	}

	return &dungeon.UserDailyStats{
		Wallet:      wallet,
		DailyRuns:   count,
		PeriodStart: time.Unix(periodUnix, 0).UTC(),
	}, nil
}

// periodStart truncates to the UTC calendar day
func periodStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func statsKey(wallet string) string {
	return statsKeyPrefix + wallet
}
