package lootstats_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/expedition-api/internal/repositories/lootstats"
	"github.com/KirkDiggler/expedition-api/internal/testutils"
)

type LootStatsTestSuite struct {
	suite.Suite
	repo    lootstats.Repository
	cleanup func()
	ctx     context.Context
}

func TestLootStatsSuite(t *testing.T) {
	suite.Run(t, new(LootStatsTestSuite))
}

func (s *LootStatsTestSuite) SetupTest() {
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup
	s.ctx = context.Background()

	repo, err := lootstats.NewRedisRepository(&lootstats.Config{Client: client})
	s.Require().NoError(err)
	s.repo = repo
}

func (s *LootStatsTestSuite) TearDownTest() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

func (s *LootStatsTestSuite) TestEmptyCounters() {
	output, err := s.repo.GetAll(s.ctx, lootstats.GetAllInput{})
	s.Require().NoError(err)
	s.Assert().Empty(output.Counts)
}

func (s *LootStatsTestSuite) TestApplyAccumulates() {
	_, err := s.repo.Apply(s.ctx, lootstats.ApplyInput{
		Deltas: map[string]int{"greatsword": 2, "dagger": 1},
	})
	s.Require().NoError(err)

	output, err := s.repo.Apply(s.ctx, lootstats.ApplyInput{
		Deltas: map[string]int{"greatsword": 1},
	})
	s.Require().NoError(err)

	s.Assert().Equal(map[string]int{"greatsword": 3, "dagger": 1}, output.Counts)
}

func (s *LootStatsTestSuite) TestApplyEmptyDeltasIsReadOnly() {
	output, err := s.repo.Apply(s.ctx, lootstats.ApplyInput{})
	s.Require().NoError(err)
	s.Assert().Empty(output.Counts)
}
