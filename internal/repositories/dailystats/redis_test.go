package dailystats_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/expedition-api/internal/errors"
	"github.com/KirkDiggler/expedition-api/internal/pkg/clock"
	"github.com/KirkDiggler/expedition-api/internal/repositories/dailystats"
	"github.com/KirkDiggler/expedition-api/internal/testutils"
)

type DailyStatsTestSuite struct {
	suite.Suite
	repo    dailystats.Repository
	clock   *clock.Fixed
	cleanup func()
	ctx     context.Context
}

func TestDailyStatsSuite(t *testing.T) {
	suite.Run(t, new(DailyStatsTestSuite))
}

func (s *DailyStatsTestSuite) SetupTest() {
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup
	s.ctx = context.Background()
	s.clock = clock.NewFixed(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	repo, err := dailystats.NewRedisRepository(&dailystats.Config{
		Client: client,
		Clock:  s.clock,
	})
	s.Require().NoError(err)
	s.repo = repo
}

func (s *DailyStatsTestSuite) TearDownTest() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

const wallet = "0xwallet"

func (s *DailyStatsTestSuite) TestGetUnknownWalletIsZero() {
	output, err := s.repo.Get(s.ctx, dailystats.GetInput{Wallet: wallet})
	s.Require().NoError(err)
	s.Assert().Equal(0, output.Stats.DailyRuns)
	s.Assert().False(output.NeedsReset)
}

func (s *DailyStatsTestSuite) TestIncrementIsMonotonic() {
	for want := 1; want <= 3; want++ {
		output, err := s.repo.Increment(s.ctx, dailystats.IncrementInput{Wallet: wallet})
		s.Require().NoError(err)
		s.Assert().Equal(want, output.Stats.DailyRuns)
	}
}

func (s *DailyStatsTestSuite) TestIncrementWithLimitRejectsAtBound() {
	for i := 0; i < 2; i++ {
		_, err := s.repo.Increment(s.ctx, dailystats.IncrementInput{Wallet: wallet})
		s.Require().NoError(err)
	}

	// At the bound the conditional increment fails and leaves the counter
	// untouched, whatever a caller's earlier read said.
	_, err := s.repo.Increment(s.ctx, dailystats.IncrementInput{Wallet: wallet, Limit: 2})
	s.Require().Error(err)
	s.Assert().True(errors.IsQuotaExceeded(err))

	output, err := s.repo.Get(s.ctx, dailystats.GetInput{Wallet: wallet})
	s.Require().NoError(err)
	s.Assert().Equal(2, output.Stats.DailyRuns)

	// Below the bound the same limit admits the increment.
	incremented, err := s.repo.Increment(s.ctx, dailystats.IncrementInput{Wallet: wallet, Limit: 5})
	s.Require().NoError(err)
	s.Assert().Equal(3, incremented.Stats.DailyRuns)
}

func (s *DailyStatsTestSuite) TestNeedsResetAfterPeriodRollover() {
	_, err := s.repo.Increment(s.ctx, dailystats.IncrementInput{Wallet: wallet})
	s.Require().NoError(err)

	// Next UTC day: the stale counter reports NeedsReset.
	s.clock.Advance(24 * time.Hour)

	output, err := s.repo.Get(s.ctx, dailystats.GetInput{Wallet: wallet})
	s.Require().NoError(err)
	s.Assert().Equal(1, output.Stats.DailyRuns)
	s.Assert().True(output.NeedsReset)
}

func (s *DailyStatsTestSuite) TestIncrementResetsCountOnRollover() {
	_, err := s.repo.Increment(s.ctx, dailystats.IncrementInput{Wallet: wallet})
	s.Require().NoError(err)
	_, err = s.repo.Increment(s.ctx, dailystats.IncrementInput{Wallet: wallet})
	s.Require().NoError(err)

	s.clock.Advance(24 * time.Hour)

	// The rollover happens exactly once: the first increment of the new
	// period starts from zero.
	output, err := s.repo.Increment(s.ctx, dailystats.IncrementInput{Wallet: wallet})
	s.Require().NoError(err)
	s.Assert().Equal(1, output.Stats.DailyRuns)

	get, err := s.repo.Get(s.ctx, dailystats.GetInput{Wallet: wallet})
	s.Require().NoError(err)
	s.Assert().False(get.NeedsReset)
}

func (s *DailyStatsTestSuite) TestDecrementRollsBackFailedAdmission() {
	_, err := s.repo.Increment(s.ctx, dailystats.IncrementInput{Wallet: wallet})
	s.Require().NoError(err)

	output, err := s.repo.Decrement(s.ctx, dailystats.DecrementInput{Wallet: wallet})
	s.Require().NoError(err)
	s.Assert().Equal(0, output.Stats.DailyRuns)
}

func (s *DailyStatsTestSuite) TestDecrementNeverGoesNegative() {
	output, err := s.repo.Decrement(s.ctx, dailystats.DecrementInput{Wallet: wallet})
	s.Require().NoError(err)
	s.Assert().Equal(0, output.Stats.DailyRuns)
}

func (s *DailyStatsTestSuite) TestWalletsIsolated() {
	_, err := s.repo.Increment(s.ctx, dailystats.IncrementInput{Wallet: wallet})
	s.Require().NoError(err)

	output, err := s.repo.Get(s.ctx, dailystats.GetInput{Wallet: "0xother"})
	s.Require().NoError(err)
	s.Assert().Equal(0, output.Stats.DailyRuns)
}

func (s *DailyStatsTestSuite) TestValidation() {
	_, err := s.repo.Get(s.ctx, dailystats.GetInput{})
	s.Assert().Error(err)

	_, err = s.repo.Increment(s.ctx, dailystats.IncrementInput{})
	s.Assert().Error(err)
}
