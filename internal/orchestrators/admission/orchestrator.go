// Package admission implements the run admission controller: hero
// exclusivity locks and per-wallet daily quotas, enforced before a run may
// be queued.
package admission

import (
	"context"
	"log/slog"
	"time"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/errors"
	"github.com/KirkDiggler/expedition-api/internal/pkg/clock"
	"github.com/KirkDiggler/expedition-api/internal/repositories/dailystats"
	"github.com/KirkDiggler/expedition-api/internal/repositories/herolock"
)

// FreeRunsPerPeriod is how many runs a wallet may start per quota period
// without a payment reference
const FreeRunsPerPeriod = 2

// CheckHeroesAvailabilityInput lists the party to probe
type CheckHeroesAvailabilityInput struct {
	Heroes []dungeon.HeroRef
}

// CheckHeroesAvailabilityOutput reports the locked subset
type CheckHeroesAvailabilityOutput struct {
	Locked       bool
	LockedHeroes []dungeon.HeroRef
}

// GetUserDailyStatsInput selects a wallet
type GetUserDailyStatsInput struct {
	Wallet string
}

// GetUserDailyStatsOutput reports the wallet's quota state. When NeedsReset
// is true the count belongs to an elapsed period and callers treat it as
// zero.
type GetUserDailyStatsOutput struct {
	DailyRuns  int
	NeedsReset bool
}

// AdmitRunInput is one admission attempt. LockTTL bounds how long the
// acquired locks may outlive a crashed worker; it must exceed the job
// processing timeout.
type AdmitRunInput struct {
	RunID            string
	Heroes           []dungeon.HeroRef
	Wallet           string
	PaymentReference string
	LockTTL          time.Duration
}

// AdmitRunOutput contains the admission results
type AdmitRunOutput struct {
	Locks     []*dungeon.HeroLock
	DailyRuns int
}

// ReleaseHeroesInput releases a run's locks on terminal transition
type ReleaseHeroesInput struct {
	RunID  string
	Heroes []dungeon.HeroRef
}

// ReleaseHeroesOutput reports how many locks were released
type ReleaseHeroesOutput struct {
	Released int
}

// RollbackAdmissionInput undoes a successful admission whose run never
// made it into the queue: the locks go back and the quota increment is
// refunded
type RollbackAdmissionInput struct {
	RunID  string
	Heroes []dungeon.HeroRef
	Wallet string
}

// RollbackAdmissionOutput reports how many locks were released
type RollbackAdmissionOutput struct {
	Released int
}

// Service defines the interface for admission operations
type Service interface {
	CheckHeroesAvailability(ctx context.Context, input *CheckHeroesAvailabilityInput) (*CheckHeroesAvailabilityOutput, error)
	GetUserDailyStats(ctx context.Context, input *GetUserDailyStatsInput) (*GetUserDailyStatsOutput, error)
	AdmitRun(ctx context.Context, input *AdmitRunInput) (*AdmitRunOutput, error)
	ReleaseHeroes(ctx context.Context, input *ReleaseHeroesInput) (*ReleaseHeroesOutput, error)
	RollbackAdmission(ctx context.Context, input *RollbackAdmissionInput) (*RollbackAdmissionOutput, error)
}

// Config holds the dependencies for the admission orchestrator
type Config struct {
	HeroLockRepo   herolock.Repository
	DailyStatsRepo dailystats.Repository
	Clock          clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.HeroLockRepo == nil {
		vb.RequiredField("HeroLockRepo")
	}
	if c.DailyStatsRepo == nil {
		vb.RequiredField("DailyStatsRepo")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}

	return vb.Build()
}

type orchestrator struct {
	heroLocks  herolock.Repository
	dailyStats dailystats.Repository
	clock      clock.Clock
}

// NewOrchestrator creates a new admission orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &orchestrator{
		heroLocks:  cfg.HeroLockRepo,
		dailyStats: cfg.DailyStatsRepo,
		clock:      cfg.Clock,
	}, nil
}

var _ Service = (*orchestrator)(nil)

func (o *orchestrator) CheckHeroesAvailability(
	ctx context.Context,
	input *CheckHeroesAvailabilityInput,
) (*CheckHeroesAvailabilityOutput, error) {
	if input == nil || len(input.Heroes) == 0 {
		return nil, errors.InvalidArgument("heroes are required")
	}

	check, err := o.heroLocks.Check(ctx, herolock.CheckInput{Heroes: input.Heroes})
	if err != nil {
		return nil, errors.Wrap(err, "failed to check hero locks")
	}

	return &CheckHeroesAvailabilityOutput{
		Locked:       check.Locked,
		LockedHeroes: check.LockedHeroes,
	}, nil
}

func (o *orchestrator) GetUserDailyStats(
	ctx context.Context,
	input *GetUserDailyStatsInput,
) (*GetUserDailyStatsOutput, error) {
	if input == nil || input.Wallet == "" {
		return nil, errors.InvalidArgument("wallet is required")
	}

	output, err := o.dailyStats.Get(ctx, dailystats.GetInput{Wallet: input.Wallet})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get daily stats")
	}

	return &GetUserDailyStatsOutput{
		DailyRuns:  output.Stats.DailyRuns,
		NeedsReset: output.NeedsReset,
	}, nil
}

// AdmitRun performs the check-then-lock critical section: quota check,
// all-or-nothing lock acquisition, counter increment. The store-level
// conditional writes give at-most-one-admission-wins semantics; the loser
// gets a conflict. A lock-acquired-but-increment-failed attempt rolls the
// locks back so a run is never admitted with half its preconditions.
func (o *orchestrator) AdmitRun(ctx context.Context, input *AdmitRunInput) (*AdmitRunOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("RunID", input.RunID, vb)
	errors.ValidateRequired("Wallet", input.Wallet, vb)
	if len(input.Heroes) == 0 {
		vb.RequiredField("Heroes")
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}

	stats, err := o.GetUserDailyStats(ctx, &GetUserDailyStatsInput{Wallet: input.Wallet})
	if err != nil {
		return nil, err
	}

	used := stats.DailyRuns
	if stats.NeedsReset {
		used = 0
	}
	if used >= FreeRunsPerPeriod && input.PaymentReference == "" {
		return nil, errors.QuotaExceededf(
			"wallet %s has used its %d free runs for this period", input.Wallet, FreeRunsPerPeriod).
			WithMeta("daily_runs", used)
	}

	locks, err := o.heroLocks.Acquire(ctx, herolock.AcquireInput{
		RunID:  input.RunID,
		Heroes: input.Heroes,
		TTL:    input.LockTTL,
	})
	if err != nil {
		return nil, err
	}

	// The quota bound is re-verified inside the increment's transaction:
	// the check above can go stale under a concurrent admission for the
	// same wallet.
	limit := 0
	if input.PaymentReference == "" {
		limit = FreeRunsPerPeriod
	}
	increment, err := o.dailyStats.Increment(ctx, dailystats.IncrementInput{
		Wallet: input.Wallet,
		Limit:  limit,
	})
	if err != nil {
		// Half-admitted is not admitted: give the locks back.
		if _, releaseErr := o.heroLocks.Release(ctx, herolock.ReleaseInput{
			RunID:  input.RunID,
			Heroes: input.Heroes,
		}); releaseErr != nil {
			slog.Error("Failed to roll back hero locks after increment failure",
				"run_id", input.RunID,
				"error", releaseErr)
		}
		if errors.IsQuotaExceeded(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to increment daily runs")
	}

	slog.Info("Run admitted",
		"run_id", input.RunID,
		"wallet", input.Wallet,
		"heroes", len(input.Heroes),
		"daily_runs", increment.Stats.DailyRuns)

	return &AdmitRunOutput{
		Locks:     locks.Locks,
		DailyRuns: increment.Stats.DailyRuns,
	}, nil
}

// RollbackAdmission undoes both halves of a prior AdmitRun when the run
// could not be persisted or enqueued: the wallet must not lose a free run
// to an internal error. Both mutations are attempted even if one fails.
func (o *orchestrator) RollbackAdmission(
	ctx context.Context,
	input *RollbackAdmissionInput,
) (*RollbackAdmissionOutput, error) {
	if input == nil || input.RunID == "" || input.Wallet == "" {
		return nil, errors.InvalidArgument("run ID and wallet are required")
	}

	released, releaseErr := o.heroLocks.Release(ctx, herolock.ReleaseInput{
		RunID:  input.RunID,
		Heroes: input.Heroes,
	})
	if releaseErr != nil {
		slog.Error("Failed to release hero locks during admission rollback",
			"run_id", input.RunID,
			"error", releaseErr)
	}

	if _, err := o.dailyStats.Decrement(ctx, dailystats.DecrementInput{Wallet: input.Wallet}); err != nil {
		return nil, errors.Wrap(err, "failed to refund daily run")
	}
	if releaseErr != nil {
		return nil, errors.Wrap(releaseErr, "failed to release hero locks")
	}

	return &RollbackAdmissionOutput{Released: released.Released}, nil
}

func (o *orchestrator) ReleaseHeroes(
	ctx context.Context,
	input *ReleaseHeroesInput,
) (*ReleaseHeroesOutput, error) {
	if input == nil || input.RunID == "" {
		return nil, errors.InvalidArgument("run ID is required")
	}

	output, err := o.heroLocks.Release(ctx, herolock.ReleaseInput{
		RunID:  input.RunID,
		Heroes: input.Heroes,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to release hero locks")
	}

	return &ReleaseHeroesOutput{Released: output.Released}, nil
}
