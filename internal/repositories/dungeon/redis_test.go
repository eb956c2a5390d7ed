package dungeonrepo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/errors"
	dungeonrepo "github.com/KirkDiggler/expedition-api/internal/repositories/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/testutils"
)

type DungeonRepositoryTestSuite struct {
	suite.Suite
	repo    dungeonrepo.Repository
	cleanup func()
	ctx     context.Context
}

func TestDungeonRepositorySuite(t *testing.T) {
	suite.Run(t, new(DungeonRepositoryTestSuite))
}

func (s *DungeonRepositoryTestSuite) SetupTest() {
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup
	s.ctx = context.Background()

	repo, err := dungeonrepo.NewRedisRepository(&dungeonrepo.Config{Client: client})
	s.Require().NoError(err)
	s.repo = repo
}

func (s *DungeonRepositoryTestSuite) TearDownTest() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

func (s *DungeonRepositoryTestSuite) testDungeon(id, slug string, eligible bool) *dungeon.Dungeon {
	return &dungeon.Dungeon{
		ID:       id,
		Slug:     slug,
		Name:     "Test Dungeon",
		Level:    3,
		Rooms:    3,
		Eligible: eligible,
	}
}

func (s *DungeonRepositoryTestSuite) TestPutAndGet() {
	d := s.testDungeon("dungeon_1", "sunken-crypt", true)
	_, err := s.repo.Put(s.ctx, dungeonrepo.PutInput{Dungeon: d})
	s.Require().NoError(err)

	output, err := s.repo.Get(s.ctx, dungeonrepo.GetInput{DungeonID: "dungeon_1"})
	s.Require().NoError(err)
	s.Assert().Equal(d, output.Dungeon)
}

func (s *DungeonRepositoryTestSuite) TestGetBySlug() {
	d := s.testDungeon("dungeon_1", "sunken-crypt", true)
	_, err := s.repo.Put(s.ctx, dungeonrepo.PutInput{Dungeon: d})
	s.Require().NoError(err)

	output, err := s.repo.GetBySlug(s.ctx, dungeonrepo.GetBySlugInput{Slug: "sunken-crypt"})
	s.Require().NoError(err)
	s.Assert().Equal("dungeon_1", output.Dungeon.ID)

	_, err = s.repo.GetBySlug(s.ctx, dungeonrepo.GetBySlugInput{Slug: "nope"})
	s.Assert().True(errors.IsNotFound(err))
}

func (s *DungeonRepositoryTestSuite) TestRandomEligibleSkipsIneligible() {
	_, err := s.repo.Put(s.ctx, dungeonrepo.PutInput{
		Dungeon: s.testDungeon("dungeon_1", "one", true),
	})
	s.Require().NoError(err)
	_, err = s.repo.Put(s.ctx, dungeonrepo.PutInput{
		Dungeon: s.testDungeon("dungeon_2", "two", false),
	})
	s.Require().NoError(err)

	for i := 0; i < 20; i++ {
		output, err := s.repo.RandomEligible(s.ctx, dungeonrepo.RandomEligibleInput{})
		s.Require().NoError(err)
		s.Assert().Equal("dungeon_1", output.Dungeon.ID)
	}
}

func (s *DungeonRepositoryTestSuite) TestRandomEligibleEmptyCatalog() {
	_, err := s.repo.RandomEligible(s.ctx, dungeonrepo.RandomEligibleInput{})
	s.Require().Error(err)
	s.Assert().True(errors.IsUnavailable(err))
}

func (s *DungeonRepositoryTestSuite) TestEligibilityToggle() {
	d := s.testDungeon("dungeon_1", "one", true)
	_, err := s.repo.Put(s.ctx, dungeonrepo.PutInput{Dungeon: d})
	s.Require().NoError(err)

	d.Eligible = false
	_, err = s.repo.Put(s.ctx, dungeonrepo.PutInput{Dungeon: d})
	s.Require().NoError(err)

	_, err = s.repo.RandomEligible(s.ctx, dungeonrepo.RandomEligibleInput{})
	s.Assert().True(errors.IsUnavailable(err))
}
