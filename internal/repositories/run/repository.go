// Package run provides the repository interface and types for dungeon run records
package run

import (
	"context"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
)

// CreateInput contains parameters for persisting a new run
type CreateInput struct {
	Run *dungeon.DungeonRun
}

// CreateOutput contains the persisted run
type CreateOutput struct {
	Run *dungeon.DungeonRun
}

// GetInput contains parameters for fetching a run
type GetInput struct {
	RunID string
}

// GetOutput contains the fetched run
type GetOutput struct {
	Run *dungeon.DungeonRun
}

// UpdateInput contains a full run record to store. Only the worker that
// owns the run may call this after creation.
type UpdateInput struct {
	Run *dungeon.DungeonRun
}

// UpdateOutput contains the stored run
type UpdateOutput struct {
	Run *dungeon.DungeonRun
}

// ListByStatusInput selects runs in one status, used by cleanup sweeps
type ListByStatusInput struct {
	Status dungeon.RunStatus
}

// ListByStatusOutput contains the matching runs
type ListByStatusOutput struct {
	Runs []*dungeon.DungeonRun
}

// Repository stores dungeon run records
type Repository interface {
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)
	Get(ctx context.Context, input GetInput) (*GetOutput, error)
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)
	ListByStatus(ctx context.Context, input ListByStatusInput) (*ListByStatusOutput, error)
}
