package services

import (
	"time"

	"github.com/tryonlabs/tryon/internal/db/models"
)

// Router picks the provider that serves a user's task
type Router func(user *models.User, now time.Time) models.ServiceType

// TierRouter sends users with an active paid plan to the sync provider and
// everyone else to the async queue
func TierRouter(user *models.User, now time.Time) models.ServiceType {
	if user.HasActivePlan(now) {
		return models.ServiceTypeSync
	}
	return models.ServiceTypeAsync
}
