package repos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tryonlabs/tryon/internal/db/models"
)

type UserRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func TestUserRepository(t *testing.T) {
	suite.Run(t, new(UserRepositoryTestSuite))
}

func (s *UserRepositoryTestSuite) TestGetOrCreate() {
	user, err := s.userRepo.GetOrCreate(s.ctx, "fresh-user")
	s.Require().NoError(err)
	s.Equal("fresh-user", user.ID)
	s.Zero(user.FreeTrialsUsed)
	s.False(user.IsPremium)

	existing := s.createTestUser(func(u *models.User) { u.PurchasedCredits = 5 })
	user, err = s.userRepo.GetOrCreate(s.ctx, existing.ID)
	s.Require().NoError(err)
	s.Equal(5, user.PurchasedCredits)

	_, err = s.userRepo.GetOrCreate(s.ctx, "")
	s.Error(err)

	_, err = s.userRepo.GetByID(s.ctx, "nobody")
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *UserRepositoryTestSuite) TestConsumeCredit() {
	user := s.createTestUser(func(u *models.User) { u.PurchasedCredits = 1 })

	ok, err := s.userRepo.ConsumeCredit(s.ctx, user.ID)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.userRepo.ConsumeCredit(s.ctx, user.ID)
	s.Require().NoError(err)
	s.False(ok)

	got, err := s.userRepo.GetByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(1, got.UsedCredits)
}

func (s *UserRepositoryTestSuite) TestConsumeFreeTrial() {
	user := s.createTestUser()

	for i := 0; i < 2; i++ {
		ok, err := s.userRepo.ConsumeFreeTrial(s.ctx, user.ID, 2)
		s.Require().NoError(err)
		s.True(ok)
	}
	ok, err := s.userRepo.ConsumeFreeTrial(s.ctx, user.ID, 2)
	s.Require().NoError(err)
	s.False(ok)

	got, err := s.userRepo.GetByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(2, got.FreeTrialsUsed)
}

func (s *UserRepositoryTestSuite) TestPlanUsage() {
	user := s.createTestUser(func(u *models.User) {
		u.IsPremium = true
		u.Plan = models.PlanMonthly
	})

	ok, err := s.userRepo.ConsumePlanUnit(s.ctx, user.ID, 1)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.userRepo.ConsumePlanUnit(s.ctx, user.ID, 1)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.userRepo.IncrementPeriodUsage(s.ctx, user.ID))
	s.ErrorIs(s.userRepo.IncrementPeriodUsage(s.ctx, "nobody"), ErrUserNotFound)

	got, err := s.userRepo.GetByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(2, got.PeriodUsage)

	start := time.Now().UTC().Truncate(time.Second)
	s.Require().NoError(s.userRepo.ResetPeriod(s.ctx, user.ID, start))
	got, err = s.userRepo.GetByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Zero(got.PeriodUsage)
	s.Require().NotNil(got.PeriodStartedAt)
	s.True(start.Equal(*got.PeriodStartedAt))
}

func (s *UserRepositoryTestSuite) TestIncrementFreeTrials() {
	user := s.createTestUser(func(u *models.User) { u.FreeTrialsUsed = 3 })

	s.Require().NoError(s.userRepo.IncrementFreeTrials(s.ctx, user.ID))
	s.ErrorIs(s.userRepo.IncrementFreeTrials(s.ctx, "nobody"), ErrUserNotFound)

	got, err := s.userRepo.GetByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(4, got.FreeTrialsUsed)
}
