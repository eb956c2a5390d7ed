// Package expedition implements the run orchestrator: run lifecycle from
// creation through queueing to worker-driven simulation and terminal state.
package expedition

import (
	"context"
	"log/slog"
	"time"

	"github.com/KirkDiggler/expedition-api/internal/engine/simulation"
	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/errors"
	"github.com/KirkDiggler/expedition-api/internal/orchestrators/admission"
	"github.com/KirkDiggler/expedition-api/internal/pkg/clock"
	"github.com/KirkDiggler/expedition-api/internal/pkg/idgen"
	"github.com/KirkDiggler/expedition-api/internal/queue"
	dungeonrepo "github.com/KirkDiggler/expedition-api/internal/repositories/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/repositories/event"
	"github.com/KirkDiggler/expedition-api/internal/repositories/hero"
	"github.com/KirkDiggler/expedition-api/internal/repositories/lootstats"
	runrepo "github.com/KirkDiggler/expedition-api/internal/repositories/run"
	"github.com/KirkDiggler/expedition-api/internal/rules"
)

// CreateRunInput creates one expedition. DungeonID is a slug; empty means
// random eligible selection. Seed is optional; a generated one is recorded
// on the run.
type CreateRunInput struct {
	DungeonID        string
	Party            []dungeon.HeroRef
	Seed             string
	Wallet           string
	PaymentReference string
}

// CreateRunOutput is returned synchronously; everything after this point
// is observed by polling
type CreateRunOutput struct {
	ID     string
	Status dungeon.RunStatus
	JobID  string
}

// GetRunInput selects a run for status polling
type GetRunInput struct {
	RunID string
}

// GetRunOutput contains the run record
type GetRunOutput struct {
	Run *dungeon.DungeonRun
}

// ListRunEventsInput selects visible events; Since is the poll cursor
type ListRunEventsInput struct {
	RunID string
	Since *time.Time
}

// ListRunEventsOutput contains the ordered visible events
type ListRunEventsOutput struct {
	Events []*dungeon.WorldEvent
}

// Service defines the interface for run lifecycle operations
type Service interface {
	CreateRun(ctx context.Context, input *CreateRunInput) (*CreateRunOutput, error)
	GetRun(ctx context.Context, input *GetRunInput) (*GetRunOutput, error)
	ListRunEvents(ctx context.Context, input *ListRunEventsInput) (*ListRunEventsOutput, error)
	ProcessJob(ctx context.Context, job *dungeon.Job) error
}

// Config holds the dependencies for the expedition orchestrator
type Config struct {
	RunRepo       runrepo.Repository
	EventRepo     event.Repository
	DungeonRepo   dungeonrepo.Repository
	HeroRepo      hero.Repository
	LootStatsRepo lootstats.Repository
	Admission     admission.Service
	Queue         queue.Queue
	Validator     rules.Validator
	Engine        *simulation.Engine
	Clock         clock.Clock
	IDGenerator   idgen.Generator
	JobIDGen      idgen.Generator
	// ScarcityEnabled threads persisted scarcity counters through the
	// simulation's loot draws
	ScarcityEnabled bool
	// LockTTL bounds how long hero locks outlive a crashed worker.
	// Defaults to three times the queue's processing timeout.
	LockTTL time.Duration
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.RunRepo == nil {
		vb.RequiredField("RunRepo")
	}
	if c.EventRepo == nil {
		vb.RequiredField("EventRepo")
	}
	if c.DungeonRepo == nil {
		vb.RequiredField("DungeonRepo")
	}
	if c.HeroRepo == nil {
		vb.RequiredField("HeroRepo")
	}
	if c.LootStatsRepo == nil {
		vb.RequiredField("LootStatsRepo")
	}
	if c.Admission == nil {
		vb.RequiredField("Admission")
	}
	if c.Queue == nil {
		vb.RequiredField("Queue")
	}
	if c.Validator == nil {
		vb.RequiredField("Validator")
	}
	if c.Engine == nil {
		vb.RequiredField("Engine")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	if c.JobIDGen == nil {
		vb.RequiredField("JobIDGen")
	}

	return vb.Build()
}

type orchestrator struct {
	runs            runrepo.Repository
	events          event.Repository
	dungeons        dungeonrepo.Repository
	heroes          hero.Repository
	lootStats       lootstats.Repository
	admission       admission.Service
	queue           queue.Queue
	validator       rules.Validator
	engine          *simulation.Engine
	clock           clock.Clock
	idGen           idgen.Generator
	jobIDGen        idgen.Generator
	scarcityEnabled bool
	lockTTL         time.Duration
}

// NewOrchestrator creates a new expedition orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &orchestrator{
		runs:            cfg.RunRepo,
		events:          cfg.EventRepo,
		dungeons:        cfg.DungeonRepo,
		heroes:          cfg.HeroRepo,
		lootStats:       cfg.LootStatsRepo,
		admission:       cfg.Admission,
		queue:           cfg.Queue,
		validator:       cfg.Validator,
		engine:          cfg.Engine,
		clock:           cfg.Clock,
		idGen:           cfg.IDGenerator,
		jobIDGen:        cfg.JobIDGen,
		scarcityEnabled: cfg.ScarcityEnabled,
		lockTTL:         cfg.LockTTL,
	}, nil
}

var _ Service = (*orchestrator)(nil)

// CreateRun validates input, resolves the dungeon, passes admission,
// persists the run, and enqueues the job. Admission errors arrive before
// any persistent mutation; an enqueue failure after persistence marks the
// run failed and releases the locks.
func (o *orchestrator) CreateRun(ctx context.Context, input *CreateRunInput) (*CreateRunOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("Wallet", input.Wallet, vb)
	if len(input.Party) == 0 {
		vb.RequiredField("Party")
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}

	resolved, err := o.resolveDungeon(ctx, input.DungeonID)
	if err != nil {
		return nil, err
	}

	runID := o.idGen.Generate()
	seed := input.Seed
	if seed == "" {
		seed = o.idGen.Generate()
	}
	now := o.clock.Now()

	// The lock must comfortably outlive a stuck job so a crashed worker
	// cannot strand heroes forever.
	lockTTL := o.lockTTL
	if lockTTL <= 0 {
		lockTTL = 3 * o.queue.ProcessingTimeout()
	}

	if _, err := o.admission.AdmitRun(ctx, &admission.AdmitRunInput{
		RunID:            runID,
		Heroes:           input.Party,
		Wallet:           input.Wallet,
		PaymentReference: input.PaymentReference,
		LockTTL:          lockTTL,
	}); err != nil {
		return nil, err
	}

	jobID := o.jobIDGen.Generate()
	record := &dungeon.DungeonRun{
		ID:        runID,
		DungeonID: resolved.ID,
		Party:     input.Party,
		Wallet:    input.Wallet,
		Seed:      seed,
		Status:    dungeon.RunStatusQueued,
		JobID:     jobID,
		StartedAt: now,
	}

	if _, err := o.runs.Create(ctx, runrepo.CreateInput{Run: record}); err != nil {
		o.rollbackAdmission(ctx, runID, input.Party, input.Wallet)
		return nil, errors.Wrap(err, "failed to persist run")
	}

	job := &dungeon.Job{
		ID:        jobID,
		RunID:     runID,
		DungeonID: resolved.ID,
		Party:     input.Party,
		Seed:      seed,
		StartTime: now,
	}
	if err := o.queue.Enqueue(ctx, job); err != nil {
		o.failRun(ctx, record, "failed to enqueue simulation job")
		o.rollbackAdmission(ctx, runID, input.Party, input.Wallet)
		return nil, errors.Wrap(err, "failed to enqueue job")
	}

	slog.Info("Run created",
		"run_id", runID,
		"dungeon", resolved.Slug,
		"party", len(input.Party),
		"job_id", jobID)

	return &CreateRunOutput{
		ID:     runID,
		Status: dungeon.RunStatusQueued,
		JobID:  jobID,
	}, nil
}

func (o *orchestrator) GetRun(ctx context.Context, input *GetRunInput) (*GetRunOutput, error) {
	if input == nil || input.RunID == "" {
		return nil, errors.InvalidArgument("run ID is required")
	}

	output, err := o.runs.Get(ctx, runrepo.GetInput{RunID: input.RunID})
	if err != nil {
		return nil, err
	}
	return &GetRunOutput{Run: output.Run}, nil
}

func (o *orchestrator) ListRunEvents(ctx context.Context, input *ListRunEventsInput) (*ListRunEventsOutput, error) {
	if input == nil || input.RunID == "" {
		return nil, errors.InvalidArgument("run ID is required")
	}

	// Existence check so pollers of unknown runs get a 404, not silence.
	if _, err := o.runs.Get(ctx, runrepo.GetInput{RunID: input.RunID}); err != nil {
		return nil, err
	}

	output, err := o.events.ListReady(ctx, event.ListReadyInput{
		RunID: input.RunID,
		Since: input.Since,
		Now:   o.clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	return &ListRunEventsOutput{Events: output.Events}, nil
}

// resolveDungeon tries slug lookup first, then random eligible selection
// when no identifier was supplied
func (o *orchestrator) resolveDungeon(ctx context.Context, dungeonID string) (*dungeon.Dungeon, error) {
	if dungeonID != "" {
		bySlug, err := o.dungeons.GetBySlug(ctx, dungeonrepo.GetBySlugInput{Slug: dungeonID})
		if err == nil {
			return bySlug.Dungeon, nil
		}
		if !errors.IsNotFound(err) {
			return nil, err
		}
	}

	random, err := o.dungeons.RandomEligible(ctx, dungeonrepo.RandomEligibleInput{})
	if err != nil {
		if errors.IsUnavailable(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to resolve dungeon")
	}
	return random.Dungeon, nil
}

// rollbackAdmission gives back the locks and the quota increment when a
// run failed before it could be handed to a worker
func (o *orchestrator) rollbackAdmission(ctx context.Context, runID string, party []dungeon.HeroRef, wallet string) {
	if _, err := o.admission.RollbackAdmission(ctx, &admission.RollbackAdmissionInput{
		RunID:  runID,
		Heroes: party,
		Wallet: wallet,
	}); err != nil {
		slog.Error("Failed to roll back admission after create failure",
			"run_id", runID,
			"error", err)
	}
}

func (o *orchestrator) failRun(ctx context.Context, record *dungeon.DungeonRun, message string) {
	ended := o.clock.Now()
	record.Status = dungeon.RunStatusFailed
	record.EndedAt = &ended
	record.ErrorMessage = message
	if _, err := o.runs.Update(ctx, runrepo.UpdateInput{Run: record}); err != nil {
		slog.Error("Failed to mark run failed",
			"run_id", record.ID,
			"error", err)
	}
}
