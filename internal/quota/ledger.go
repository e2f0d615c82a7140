// Package quota decides whether a user may start a try-on and deducts usage
// when a task completes.
package quota

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tryonlabs/tryon/internal/db/models"
	"github.com/tryonlabs/tryon/internal/db/repos"
	"github.com/tryonlabs/tryon/internal/logger"
)

// Reason explains a Decision
type Reason string

// Decision reasons
const (
	ReasonFreeTrial Reason = "free-trial"
	ReasonPlan      Reason = "plan"
	ReasonCredits   Reason = "credits"
	ReasonExhausted Reason = "quota-exhausted"
)

// Source names the balance a deduction was taken from
type Source string

// Deduction sources
const (
	SourceFreeTrial Source = "free-trial"
	SourcePlan      Source = "plan"
	SourceCredit    Source = "credit"
	// SourceOverdraft means every balance was empty when the task completed.
	// The unit is recorded against the plan or free-trial counter anyway.
	SourceOverdraft Source = "overdraft"
)

// Limits are the per-tier allowances
type Limits struct {
	FreeTrialLimit   int
	MonthlyAllowance int
	YearlyAllowance  int
}

// Decision is the outcome of a quota check
type Decision struct {
	Allowed   bool   `json:"allowed"`
	Reason    Reason `json:"reason"`
	Remaining int    `json:"remaining"`
}

// Status is the cached quota view of one user
type Status struct {
	UserID           string      `json:"userId"`
	Plan             models.Plan `json:"plan,omitempty"`
	PlanActive       bool        `json:"planActive"`
	PremiumExpiresAt *time.Time  `json:"premiumExpiresAt,omitempty"`
	Allowance        int         `json:"allowance"`
	Used             int         `json:"used"`
	UnusedCredits    int         `json:"unusedCredits"`
	Remaining        int         `json:"remaining"`
}

// Ledger tracks free-trial, subscription and credit balances
type Ledger struct {
	db     *gorm.DB
	users  *repos.UserRepository
	cache  Cache
	limits Limits
	now    func() time.Time
}

// NewLedger creates a Ledger. A nil cache disables caching.
func NewLedger(db *gorm.DB, users *repos.UserRepository, cache Cache, limits Limits) *Ledger {
	if cache == nil {
		cache = NopCache{}
	}
	return &Ledger{
		db:     db,
		users:  users,
		cache:  cache,
		limits: limits,
		now:    time.Now,
	}
}

// Check decides whether the user may start a new task. It never fails.
// An overdrawn allowance is paid back from credits before the user is allowed again.
func (l *Ledger) Check(user *models.User) Decision {
	now := l.now()
	allowance, used, active := l.planUsage(user, now)
	planLeft := allowance - used
	credits := user.UnusedCredits()
	remaining := planLeft + credits

	d := Decision{Allowed: remaining > 0, Remaining: max(remaining, 0)}
	switch {
	case remaining <= 0:
		d.Reason = ReasonExhausted
	case !active && credits > 0:
		d.Reason = ReasonCredits
	case !active:
		d.Reason = ReasonFreeTrial
	case planLeft > 0:
		d.Reason = ReasonPlan
	default:
		d.Reason = ReasonCredits
	}
	return d
}

// Authorize loads (or provisions) the user row and checks it
func (l *Ledger) Authorize(ctx context.Context, userID string) (*models.User, Decision, error) {
	user, err := l.users.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, Decision{}, err
	}
	return user, l.Check(user), nil
}

// DeductTx consumes one unit inside the caller's transaction.
// Free users spend a purchased credit before a free trial; paid users spend
// their period allowance before a purchased credit.
func (l *Ledger) DeductTx(ctx context.Context, tx *gorm.DB, userID string) (Source, error) {
	users := l.users.WithTx(tx)
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load user for deduction: %w", err)
	}

	now := l.now()
	if !user.HasActivePlan(now) {
		ok, err := users.ConsumeCredit(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("failed to consume credit: %w", err)
		}
		if ok {
			return SourceCredit, nil
		}
		ok, err = users.ConsumeFreeTrial(ctx, userID, l.limits.FreeTrialLimit)
		if err != nil {
			return "", fmt.Errorf("failed to consume free trial: %w", err)
		}
		if ok {
			return SourceFreeTrial, nil
		}
		if err := users.IncrementFreeTrials(ctx, userID); err != nil {
			return "", fmt.Errorf("failed to record free trial overdraft: %w", err)
		}
		return SourceOverdraft, nil
	}

	// rows that never had a period start their first one now
	if user.PeriodStartedAt == nil || l.periodExpired(user, now) {
		if err := users.ResetPeriod(ctx, userID, now); err != nil {
			return "", fmt.Errorf("failed to roll subscription period: %w", err)
		}
	}
	ok, err := users.ConsumePlanUnit(ctx, userID, l.allowanceFor(user.Plan))
	if err != nil {
		return "", fmt.Errorf("failed to consume plan unit: %w", err)
	}
	if ok {
		return SourcePlan, nil
	}
	ok, err = users.ConsumeCredit(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to consume credit: %w", err)
	}
	if ok {
		return SourceCredit, nil
	}
	if err := users.IncrementPeriodUsage(ctx, userID); err != nil {
		return "", fmt.Errorf("failed to record plan overdraft: %w", err)
	}
	return SourceOverdraft, nil
}

// Deduct consumes one unit in its own transaction and invalidates the cached view
func (l *Ledger) Deduct(ctx context.Context, userID string) (Source, error) {
	var source Source
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		source, err = l.DeductTx(ctx, tx, userID)
		return err
	})
	if err != nil {
		return "", err
	}
	l.Invalidate(ctx, userID)
	return source, nil
}

// Invalidate drops the cached view of the user. Failures are logged only:
// the deduction is already durable and the entry expires on its own.
func (l *Ledger) Invalidate(ctx context.Context, userID string) {
	if err := l.cache.Invalidate(ctx, userID); err != nil {
		logger.Warnf("failed to invalidate quota cache for %s: %v", userID, err)
	}
}

// Status returns the user's quota view, served from cache when possible
func (l *Ledger) Status(ctx context.Context, userID string) (*Status, error) {
	if status, ok := l.cache.Get(ctx, userID); ok {
		return status, nil
	}

	user, err := l.users.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quota: %w", err)
	}

	now := l.now()
	allowance, used, active := l.planUsage(user, now)
	status := &Status{
		UserID:           user.ID,
		Plan:             user.Plan,
		PlanActive:       active,
		PremiumExpiresAt: user.PremiumExpiresAt,
		Allowance:        allowance,
		Used:             used,
		UnusedCredits:    user.UnusedCredits(),
		Remaining:        l.Check(user).Remaining,
	}
	if err := l.cache.Set(ctx, userID, status); err != nil {
		logger.Warnf("failed to cache quota for %s: %v", userID, err)
	}
	return status, nil
}

func (l *Ledger) planUsage(user *models.User, now time.Time) (allowance, used int, active bool) {
	if !user.HasActivePlan(now) {
		return l.limits.FreeTrialLimit, user.FreeTrialsUsed, false
	}
	used = user.PeriodUsage
	// a missing or finished period is reset by the next deduction
	if user.PeriodStartedAt == nil || l.periodExpired(user, now) {
		used = 0
	}
	return l.allowanceFor(user.Plan), used, true
}

func (l *Ledger) allowanceFor(plan models.Plan) int {
	if plan == models.PlanYearly {
		return l.limits.YearlyAllowance
	}
	return l.limits.MonthlyAllowance
}

// periodExpired reports whether the user's subscription period has rolled over
func (l *Ledger) periodExpired(user *models.User, now time.Time) bool {
	if user.PeriodStartedAt == nil {
		return false
	}
	end := user.PeriodStartedAt.AddDate(0, 1, 0)
	if user.Plan == models.PlanYearly {
		end = user.PeriodStartedAt.AddDate(1, 0, 0)
	}
	return !now.Before(end)
}
