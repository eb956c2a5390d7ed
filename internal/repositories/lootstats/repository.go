// Package lootstats provides the repository interface and types for the
// global scarcity counters consumed by the loot generator.
//
// The generator itself is pure: it reads the counts it is handed and
// returns updated counts. This repository is where those counts live
// between runs.
package lootstats

import (
	"context"
)

// GetAllInput selects the full counter map
type GetAllInput struct{}

// GetAllOutput contains counts by base item type
type GetAllOutput struct {
	Counts map[string]int
}

// ApplyInput adds per-type deltas to the stored counters
type ApplyInput struct {
	Deltas map[string]int
}

// ApplyOutput contains the counters after the deltas
type ApplyOutput struct {
	Counts map[string]int
}

// Repository stores loot scarcity counters
type Repository interface {
	GetAll(ctx context.Context, input GetAllInput) (*GetAllOutput, error)
	Apply(ctx context.Context, input ApplyInput) (*ApplyOutput, error)
}
