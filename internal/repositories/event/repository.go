// Package event provides the repository interface and types for world events.
//
// Events are append-only. The delivery query implements the pacing contract:
// an event becomes visible at its effective time (scheduled delivery time
// when set, generation time otherwise); the delivered flag is cleanup
// bookkeeping and never hides a ready event.
package event

import (
	"context"
	"time"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
)

// AppendInput contains events to append for a run
type AppendInput struct {
	Events []*dungeon.WorldEvent
}

// AppendOutput reports how many events were stored
type AppendOutput struct {
	Appended int
}

// ListReadyInput selects visible events for a run.
// Since is optional; when set, only events whose effective time is strictly
// after it are returned.
type ListReadyInput struct {
	RunID string
	Since *time.Time
	Now   time.Time
}

// ListReadyOutput contains the ordered visible events
type ListReadyOutput struct {
	Events []*dungeon.WorldEvent
}

// MarkDeliveredInput flags events whose effective time has passed as
// delivered; used by the cleanup sweep only
type MarkDeliveredInput struct {
	RunID string
	Now   time.Time
}

// MarkDeliveredOutput reports how many events were flagged
type MarkDeliveredOutput struct {
	Marked int
}

// Repository stores world events
type Repository interface {
	Append(ctx context.Context, input AppendInput) (*AppendOutput, error)
	ListReady(ctx context.Context, input ListReadyInput) (*ListReadyOutput, error)
	MarkDelivered(ctx context.Context, input MarkDeliveredInput) (*MarkDeliveredOutput, error)
}
