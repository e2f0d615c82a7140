package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Field names for user model
const (
	UserIDField               = "id"
	UserFreeTrialsUsedField   = "free_trials_used"
	UserPeriodUsageField      = "period_usage"
	UserPeriodStartedAtField  = "period_started_at"
	UserPurchasedCreditsField = "purchased_credits"
	UserUsedCreditsField      = "used_credits"
)

// Plan represents a paid subscription plan
type Plan string

// Plan constants
const (
	PlanNone    Plan = ""
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

// ParsePlan converts a string to a Plan type
func ParsePlan(str string) (Plan, error) {
	switch Plan(str) {
	case PlanNone, PlanMonthly, PlanYearly:
		return Plan(str), nil
	default:
		return PlanNone, fmt.Errorf("invalid plan: %s", str)
	}
}

// User is the quota row of an externally authenticated user
type User struct {
	ID               string     `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Email            string     `json:"email" gorm:"index"`
	FreeTrialsUsed   int        `json:"freeTrialsUsed" gorm:"not null;default:0"`
	PeriodUsage      int        `json:"periodUsage" gorm:"not null;default:0"`
	PeriodStartedAt  *time.Time `json:"periodStartedAt,omitempty"`
	PurchasedCredits int        `json:"purchasedCredits" gorm:"not null;default:0"`
	UsedCredits      int        `json:"usedCredits" gorm:"not null;default:0"`
	IsPremium        bool       `json:"isPremium" gorm:"not null;default:false"`
	PremiumExpiresAt *time.Time `json:"premiumExpiresAt,omitempty"`
	Plan             Plan       `json:"plan" gorm:"type:varchar(16)"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// MarshalJSON implements the json.Marshaler interface for User
func (u User) MarshalJSON() ([]byte, error) {
	type Alias User // Create an alias to avoid infinite recursion
	return json.Marshal(Alias(u))
}

// HasActivePlan reports whether the user holds a paid plan that has not expired at now
func (u *User) HasActivePlan(now time.Time) bool {
	if !u.IsPremium {
		return false
	}
	return u.PremiumExpiresAt == nil || u.PremiumExpiresAt.After(now)
}

// UnusedCredits returns the purchased credits left, never negative
func (u *User) UnusedCredits() int {
	if n := u.PurchasedCredits - u.UsedCredits; n > 0 {
		return n
	}
	return 0
}
