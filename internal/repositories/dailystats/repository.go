// Package dailystats provides the repository interface and types for
// per-wallet daily run counters.
//
// Counters are monotonically non-decreasing within a quota period and roll
// over exactly once per period. The period is the UTC calendar day.
package dailystats

import (
	"context"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
)

// GetInput selects a wallet's counter
type GetInput struct {
	Wallet string
}

// GetOutput contains the counter. NeedsReset means the stored period has
// elapsed and the count should be treated as zero even though it has not
// been physically reset yet.
type GetOutput struct {
	Stats      *dungeon.UserDailyStats
	NeedsReset bool
}

// IncrementInput bumps a wallet's counter for the current period. A
// positive Limit makes the increment conditional: it fails with a quota
// error when the current-period count has already reached the limit,
// checked inside the same transaction so concurrent admissions cannot all
// slip under the bound.
type IncrementInput struct {
	Wallet string
	Limit  int
}

// IncrementOutput contains the counter after the increment
type IncrementOutput struct {
	Stats *dungeon.UserDailyStats
}

// DecrementInput undoes one increment in the current period, used to roll
// back a failed admission
type DecrementInput struct {
	Wallet string
}

// DecrementOutput contains the counter after the decrement
type DecrementOutput struct {
	Stats *dungeon.UserDailyStats
}

// Repository stores daily run counters
type Repository interface {
	Get(ctx context.Context, input GetInput) (*GetOutput, error)
	Increment(ctx context.Context, input IncrementInput) (*IncrementOutput, error)
	Decrement(ctx context.Context, input DecrementInput) (*DecrementOutput, error)
}
