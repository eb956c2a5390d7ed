package hero_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/expedition-api/internal/entities/dungeon"
	"github.com/KirkDiggler/expedition-api/internal/errors"
	"github.com/KirkDiggler/expedition-api/internal/repositories/hero"
	"github.com/KirkDiggler/expedition-api/internal/testutils"
)

type HeroRepositoryTestSuite struct {
	suite.Suite
	repo    hero.Repository
	cleanup func()
	ctx     context.Context
}

func TestHeroRepositorySuite(t *testing.T) {
	suite.Run(t, new(HeroRepositoryTestSuite))
}

func (s *HeroRepositoryTestSuite) SetupTest() {
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup
	s.ctx = context.Background()

	repo, err := hero.NewRedisRepository(&hero.Config{Client: client})
	s.Require().NoError(err)
	s.repo = repo
}

func (s *HeroRepositoryTestSuite) TearDownTest() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

func (s *HeroRepositoryTestSuite) TestPutAndGet() {
	sheet := &dungeon.HeroSheet{
		Ref:              dungeon.HeroRef{Contract: "0xheroes", TokenID: "1"},
		Name:             "Brakka",
		Class:            dungeon.ClassWarrior,
		Level:            5,
		Strength:         16,
		Dexterity:        12,
		ProficiencyBonus: 3,
		ArmorClass:       16,
		MaxHP:            40,
	}

	_, err := s.repo.Put(s.ctx, hero.PutInput{Sheet: sheet})
	s.Require().NoError(err)

	output, err := s.repo.Get(s.ctx, hero.GetInput{Ref: sheet.Ref})
	s.Require().NoError(err)
	s.Assert().Equal(sheet, output.Sheet)
}

func (s *HeroRepositoryTestSuite) TestGetMissing() {
	_, err := s.repo.Get(s.ctx, hero.GetInput{
		Ref: dungeon.HeroRef{Contract: "0xheroes", TokenID: "404"},
	})
	s.Assert().True(errors.IsNotFound(err))
}

func (s *HeroRepositoryTestSuite) TestPutValidation() {
	_, err := s.repo.Put(s.ctx, hero.PutInput{})
	s.Assert().Error(err)

	_, err = s.repo.Put(s.ctx, hero.PutInput{Sheet: &dungeon.HeroSheet{}})
	s.Assert().Error(err)
}
