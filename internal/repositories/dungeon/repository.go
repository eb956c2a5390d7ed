// Package dungeonrepo provides the repository interface and types for the
// dungeon catalog
package dungeonrepo

import (
	"context"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
)

// GetInput selects a dungeon by ID
type GetInput struct {
	DungeonID string
}

// GetOutput contains the dungeon
type GetOutput struct {
	Dungeon *dungeon.Dungeon
}

// GetBySlugInput selects a dungeon by its URL slug
type GetBySlugInput struct {
	Slug string
}

// GetBySlugOutput contains the dungeon
type GetBySlugOutput struct {
	Dungeon *dungeon.Dungeon
}

// RandomEligibleInput selects one eligible dungeon uniformly at random
type RandomEligibleInput struct{}

// RandomEligibleOutput contains the selected dungeon
type RandomEligibleOutput struct {
	Dungeon *dungeon.Dungeon
}

// PutInput stores a catalog entry
type PutInput struct {
	Dungeon *dungeon.Dungeon
}

// PutOutput contains the stored dungeon
type PutOutput struct {
	Dungeon *dungeon.Dungeon
}

// Repository stores the dungeon catalog
type Repository interface {
	Get(ctx context.Context, input GetInput) (*GetOutput, error)
	GetBySlug(ctx context.Context, input GetBySlugInput) (*GetBySlugOutput, error)
	RandomEligible(ctx context.Context, input RandomEligibleInput) (*RandomEligibleOutput, error)
	Put(ctx context.Context, input PutInput) (*PutOutput, error)
}
