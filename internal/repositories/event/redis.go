package event

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/errors"
	redisclient "github.com/KirkDiggler/expedition-api/internal/redis"
)

const (
	// ZSET per run scored by effective time (unix nanos): run_events:{run_id}
	indexKeyPrefix = "run_events:"
	// Event body: run_event:{run_id}:{event_id}
	bodyKeyPrefix = "run_event:"
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

// NewRedisRepository creates a new Redis repository for world events
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{client: cfg.Client}, nil
}

var _ Repository = (*redisRepository)(nil)

func (r *redisRepository) Append(ctx context.Context, input AppendInput) (*AppendOutput, error) {
	if len(input.Events) == 0 {
		return &AppendOutput{}, nil
	}

	pipe := r.client.TxPipeline()
	for _, evt := range input.Events {
		if evt.ID == "" || evt.RunID == "" {
			return nil, errors.InvalidArgument("event ID and run ID cannot be empty")
		}

		eventJSON, err := json.Marshal(evt)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal event %s", evt.ID)
		}

		pipe.Set(ctx, bodyKey(evt.RunID, evt.ID), eventJSON, 0)
		pipe.ZAdd(ctx, indexKey(evt.RunID), redis.Z{
			Score:  float64(evt.EffectiveTime().UnixNano()),
			Member: evt.ID,
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to append events")
	}

	return &AppendOutput{Appended: len(input.Events)}, nil
}

func (r *redisRepository) ListReady(ctx context.Context, input ListReadyInput) (*ListReadyOutput, error) {
	if input.RunID == "" {
		return nil, errors.InvalidArgument("run ID cannot be empty")
	}
	if input.Now.IsZero() {
		return nil, errors.InvalidArgument("now cannot be zero")
	}

	// The cursor bounds effective time strictly from below. The now cutoff
	// applies only to scheduled delivery times: an unscheduled event is
	// visible the moment it exists, whatever its generation timestamp says.
	minScore := "-inf"
	if input.Since != nil {
		minScore = "(" + strconv.FormatInt(input.Since.UnixNano(), 10)
	}

	ids, err := r.client.ZRangeByScore(ctx, indexKey(input.RunID), &redis.ZRangeBy{
		Min: minScore,
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query event index")
	}

	events := make([]*dungeon.WorldEvent, 0, len(ids))
	for _, id := range ids {
		eventJSON, err := r.client.Get(ctx, bodyKey(input.RunID, id)).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, errors.Wrapf(err, "failed to load event %s", id)
		}

		var evt dungeon.WorldEvent
		if err := json.Unmarshal([]byte(eventJSON), &evt); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal event %s", id)
		}
		if evt.ScheduledDeliveryTime != nil && evt.ScheduledDeliveryTime.After(input.Now) {
			continue
		}
		events = append(events, &evt)
	}

	sortForDelivery(events)

	return &ListReadyOutput{Events: events}, nil
}

func (r *redisRepository) MarkDelivered(ctx context.Context, input MarkDeliveredInput) (*MarkDeliveredOutput, error) {
	if input.RunID == "" {
		return nil, errors.InvalidArgument("run ID cannot be empty")
	}
	if input.Now.IsZero() {
		return nil, errors.InvalidArgument("now cannot be zero")
	}

	output, err := r.ListReady(ctx, ListReadyInput{RunID: input.RunID, Now: input.Now})
	if err != nil {
		return nil, err
	}

	marked := 0
	for _, evt := range output.Events {
		if evt.Delivered {
			continue
		}
		evt.Delivered = true

		eventJSON, err := json.Marshal(evt)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal event %s", evt.ID)
		}
		if err := r.client.Set(ctx, bodyKey(input.RunID, evt.ID), eventJSON, 0).Err(); err != nil {
			return nil, errors.Wrapf(err, "failed to flag event %s", evt.ID)
		}
		marked++
	}

	return &MarkDeliveredOutput{Marked: marked}, nil
}

// sortForDelivery orders events scheduled-delivery-time ascending with
// unscheduled events last, ties broken by generation time ascending
func sortForDelivery(events []*dungeon.WorldEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		switch {
		case a.ScheduledDeliveryTime != nil && b.ScheduledDeliveryTime != nil:
			if !a.ScheduledDeliveryTime.Equal(*b.ScheduledDeliveryTime) {
				return a.ScheduledDeliveryTime.Before(*b.ScheduledDeliveryTime)
			}
		case a.ScheduledDeliveryTime != nil:
			return true
		case b.ScheduledDeliveryTime != nil:
			return false
		}
		return a.GeneratedAt.Before(b.GeneratedAt)
	})
}

func indexKey(runID string) string {
	return indexKeyPrefix + runID
}

func bodyKey(runID, eventID string) string {
	return bodyKeyPrefix + runID + ":" + eventID
}
