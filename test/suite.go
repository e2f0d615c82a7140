package test

import (
	"bytes"
	"context"
	"image/color"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tryonlabs/tryon/internal/db/models"
	"github.com/tryonlabs/tryon/internal/db/repos"
	"github.com/tryonlabs/tryon/internal/media"
	"github.com/tryonlabs/tryon/internal/provider"
	"github.com/tryonlabs/tryon/internal/quota"
	"github.com/tryonlabs/tryon/internal/services"
	"github.com/tryonlabs/tryon/pkg/api/v1/client"
)

// DefaultTestTimeout is the default timeout for test suites.
const DefaultTestTimeout = 30 * time.Second

// DefaultUserID is the user the default API client acts as
const DefaultUserID = "test-user"

// Suite encapsulates all components needed for integration testing.
// It provides a complete test setup with:
//   - File-based SQLite database
//   - Real API server
//   - Real API client
//   - Mocked AI providers
type Suite struct {
	t *testing.T // The testing.T instance for this suite

	// Server components
	App    *fiber.App
	Server *httptest.Server

	// Client components
	APIClient client.Client

	// Database components
	DB       *gorm.DB
	TaskRepo *repos.TaskRepository
	UserRepo *repos.UserRepository

	// Services
	Ledger *quota.Ledger
	Cache  quota.Cache
	Redis  *miniredis.Miniredis
	Store  *media.LocalStore
	TryOn  *services.TryOn
	Poller *services.Poller
	Tasks  *services.Task

	// Mock providers
	SyncProvider  *provider.MockSyncProvider
	AsyncProvider *provider.MockAsyncProvider
	ProviderCDN   *httptest.Server

	// Context management
	ctx        context.Context
	cancelFunc context.CancelFunc

	// Cleanup function
	cleanup func()
}

// NewSuite creates a new test suite.
// The suite must be cleaned up after use by calling Cleanup.
func NewSuite(t *testing.T) *Suite {
	t.Helper()

	// Create suite with default timeout
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)

	suite := &Suite{
		t:          t,
		ctx:        ctx,
		cancelFunc: cancel,
	}

	// Initialize cleanup function
	suite.cleanup = func() {
		if suite.cancelFunc != nil {
			suite.cancelFunc()
		}
	}

	SetupTestDB(suite)
	SetupMockProviders(suite)
	SetupServices(suite)
	SetupServer(suite)
	suite.APIClient = suite.ClientFor(DefaultUserID)

	return suite
}

// Cleanup tears down the test suite, releasing all resources.
// This should be deferred immediately after creating the suite.
func (s *Suite) Cleanup() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

// Context returns the suite's context, which is automatically
// canceled when the suite is cleaned up.
func (s *Suite) Context() context.Context {
	return s.ctx
}

// Require returns a require.Assertions instance for this suite.
func (s *Suite) Require() *require.Assertions {
	return require.New(s.t)
}

// T returns the testing.T instance for this suite.
func (s *Suite) T() *testing.T {
	return s.t
}

// Retry calls fn until it succeeds or the retries are used up
func (s *Suite) Retry(fn func() error, retries int, interval time.Duration) (err error) {
	for i := 0; i < retries; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		time.Sleep(interval)
	}
	return
}

// CreatePaidUser stores a user with an active monthly plan
func (s *Suite) CreatePaidUser(id string) *models.User {
	expires := time.Now().Add(30 * 24 * time.Hour)
	user := &models.User{ID: id, IsPremium: true, Plan: models.PlanMonthly, PremiumExpiresAt: &expires}
	s.Require().NoError(s.UserRepo.Create(s.ctx, user))
	return user
}

// SubmitParams returns a valid submission with generated images
func (s *Suite) SubmitParams() client.SubmitParams {
	return client.SubmitParams{
		UserImage:     PNG(s.t, 320, 480),
		UserImageName: "me.png",
		ItemImage:     PNG(s.t, 80, 40),
		ItemImageName: "glasses.png",
		ItemType:      string(models.ItemTypeGlasses),
	}
}

// PNG encodes a solid test image
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}
