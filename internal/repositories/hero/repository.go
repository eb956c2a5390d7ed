// Package hero provides the repository interface and types for stored hero
// stat sheets
package hero

import (
	"context"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
)

// GetInput selects a hero sheet by reference
type GetInput struct {
	Ref dungeon.HeroRef
}

// GetOutput contains the sheet
type GetOutput struct {
	Sheet *dungeon.HeroSheet
}

// PutInput stores a sheet
type PutInput struct {
	Sheet *dungeon.HeroSheet
}

// PutOutput contains the stored sheet
type PutOutput struct {
	Sheet *dungeon.HeroSheet
}

// Repository stores hero sheets
type Repository interface {
	Get(ctx context.Context, input GetInput) (*GetOutput, error)
	Put(ctx context.Context, input PutInput) (*PutOutput, error)
}
