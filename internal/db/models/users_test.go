package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserHasActivePlan(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		user User
		want bool
	}{
		{name: "free user", user: User{}, want: false},
		{name: "premium without expiry", user: User{IsPremium: true, Plan: PlanMonthly}, want: true},
		{name: "premium in the future", user: User{IsPremium: true, PremiumExpiresAt: &future}, want: true},
		{name: "premium expired", user: User{IsPremium: true, PremiumExpiresAt: &past}, want: false},
		{name: "expiry without premium flag", user: User{PremiumExpiresAt: &future}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.HasActivePlan(now))
		})
	}
}

func TestUserUnusedCredits(t *testing.T) {
	assert.Equal(t, 3, (&User{PurchasedCredits: 5, UsedCredits: 2}).UnusedCredits())
	assert.Equal(t, 0, (&User{PurchasedCredits: 1, UsedCredits: 4}).UnusedCredits())
}

func TestParsePlan(t *testing.T) {
	p, err := ParsePlan("yearly")
	assert.NoError(t, err)
	assert.Equal(t, PlanYearly, p)

	_, err = ParsePlan("weekly")
	assert.Error(t, err)
}

func TestListOptionsNormalize(t *testing.T) {
	opts := ListOptions{Limit: 0, Offset: -3}
	opts.Normalize()
	assert.Equal(t, DefaultLimit, opts.Limit)
	assert.Equal(t, 0, opts.Offset)

	opts = ListOptions{Limit: 10_000}
	opts.Normalize()
	assert.Equal(t, MaxLimit, opts.Limit)
}
