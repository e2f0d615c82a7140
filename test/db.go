package test

import (
	"github.com/tryonlabs/tryon/internal/db/dbtest"
	"github.com/tryonlabs/tryon/internal/db/repos"
)

// SetupTestDB creates a migrated file-based database for the suite and its repositories
func SetupTestDB(suite *Suite) {
	suite.DB = dbtest.New(suite.t)
	suite.TaskRepo = repos.NewTaskRepository(suite.DB)
	suite.UserRepo = repos.NewUserRepository(suite.DB)
}
