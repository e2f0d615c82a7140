package handlers

import "github.com/tryonlabs/tryon/internal/db/models"

// getPaginationOptions returns a ListOptions struct with validated pagination parameters
func getPaginationOptions(page, limit int) *models.ListOptions {
	if page < 1 {
		page = 1
	}

	options := &models.ListOptions{Limit: limit}
	options.Normalize()
	options.Offset = (page - 1) * options.Limit
	return options
}
