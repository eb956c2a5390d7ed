// Package herolock provides the repository interface and types for hero
// exclusivity locks.
//
// At most one live lock exists per hero. Acquisition is all-or-nothing
// across a party: if any hero is already locked, nothing is acquired and
// the locked subset is reported.
package herolock

import (
	"context"
	"time"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
)

// CheckInput lists heroes to probe for existing locks
type CheckInput struct {
	Heroes []dungeon.HeroRef
}

// CheckOutput reports the currently locked subset
type CheckOutput struct {
	Locked       bool
	LockedHeroes []dungeon.HeroRef
}

// AcquireInput locks a party for one run. TTL bounds how long a crashed
// worker can strand the locks; it must exceed the job processing timeout.
type AcquireInput struct {
	RunID  string
	Heroes []dungeon.HeroRef
	TTL    time.Duration
}

// AcquireOutput contains the created locks
type AcquireOutput struct {
	Locks []*dungeon.HeroLock
}

// ReleaseInput releases the locks a run holds. Locks held by other runs
// are left untouched.
type ReleaseInput struct {
	RunID  string
	Heroes []dungeon.HeroRef
}

// ReleaseOutput reports how many locks were released
type ReleaseOutput struct {
	Released int
}

// GetInput probes one hero's lock
type GetInput struct {
	Hero dungeon.HeroRef
}

// GetOutput contains the live lock, if any
type GetOutput struct {
	Lock *dungeon.HeroLock
}

// Repository stores hero locks
type Repository interface {
	Check(ctx context.Context, input CheckInput) (*CheckOutput, error)
	Acquire(ctx context.Context, input AcquireInput) (*AcquireOutput, error)
	Release(ctx context.Context, input ReleaseInput) (*ReleaseOutput, error)
	Get(ctx context.Context, input GetInput) (*GetOutput, error)
}
