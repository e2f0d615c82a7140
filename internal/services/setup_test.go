package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tryonlabs/tryon/internal/db/dbtest"
	"github.com/tryonlabs/tryon/internal/db/models"
	"github.com/tryonlabs/tryon/internal/db/repos"
	"github.com/tryonlabs/tryon/internal/media"
	"github.com/tryonlabs/tryon/internal/provider"
	"github.com/tryonlabs/tryon/internal/quota"
)

const testMediaBaseURL = "http://media.test"

var testLimits = quota.Limits{FreeTrialLimit: 3, MonthlyAllowance: 10, YearlyAllowance: 100}

// TestSetup holds a fully wired service graph over a throwaway database
type TestSetup struct {
	DB        *gorm.DB
	TaskRepo  *repos.TaskRepository
	UserRepo  *repos.UserRepository
	Ledger    *quota.Ledger
	Store     *media.LocalStore
	SyncMock  *provider.MockSyncProvider
	AsyncMock *provider.MockAsyncProvider
	TryOn     *TryOn
	Poller    *Poller
	Tasks     *Task

	// ProviderServer serves result images the way a provider CDN would
	ProviderServer *httptest.Server
	ResultPNG      []byte

	ctx context.Context
}

// NewTestSetup creates a new test setup
func NewTestSetup(t *testing.T) *TestSetup {
	t.Helper()
	db := dbtest.New(t)

	store, err := media.NewLocalStore(t.TempDir(), testMediaBaseURL)
	require.NoError(t, err)

	resultPNG := testPNG(t, 16, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(resultPNG)
	}))
	t.Cleanup(srv.Close)

	taskRepo := repos.NewTaskRepository(db)
	userRepo := repos.NewUserRepository(db)
	ledger := quota.NewLedger(db, userRepo, quota.NewMemoryCache(time.Minute), testLimits)
	syncMock := &provider.MockSyncProvider{}
	asyncMock := &provider.MockAsyncProvider{}
	fetcher := media.Fetcher{Timeout: 5 * time.Second, MaxBytes: 5 << 20}

	tryOn := NewTryOnService(TryOnOptions{
		DB:            db,
		Tasks:         taskRepo,
		Ledger:        ledger,
		Store:         store,
		Normalizer:    media.Normalizer{MaxBytes: 5 << 20, MaxDimension: 256},
		Fetcher:       fetcher,
		SyncProvider:  syncMock,
		AsyncProvider: asyncMock,
		Retention:     24 * time.Hour,
	})
	poller := NewPoller(PollerOptions{
		DB:            db,
		Tasks:         taskRepo,
		Ledger:        ledger,
		Store:         store,
		Fetcher:       fetcher,
		AsyncProvider: asyncMock,
	})

	ts := &TestSetup{
		DB:             db,
		TaskRepo:       taskRepo,
		UserRepo:       userRepo,
		Ledger:         ledger,
		Store:          store,
		SyncMock:       syncMock,
		AsyncMock:      asyncMock,
		TryOn:          tryOn,
		Poller:         poller,
		Tasks:          NewTaskService(taskRepo, poller),
		ProviderServer: srv,
		ResultPNG:      resultPNG,
		ctx:            context.Background(),
	}

	// provider results live on the provider's own host by default
	asyncMock.FetchResultFunc = func(_ context.Context, externalID string) (*provider.FetchResult, error) {
		return &provider.FetchResult{
			Status:    provider.ResultSucceeded,
			RawStatus: "succeeded",
			ResultURL: srv.URL + "/" + externalID + ".png",
		}, nil
	}
	syncMock.ComposeFunc = func(_ context.Context, _ provider.ComposeRequest) (*provider.ComposeResult, error) {
		return &provider.ComposeResult{
			ImageURL:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(resultPNG),
			Description: "composited",
			Model:       "mock-model",
		}, nil
	}
	return ts
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 10, G: 120, B: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func (ts *TestSetup) createFreeUser(t *testing.T, id string) *models.User {
	t.Helper()
	user := &models.User{ID: id}
	require.NoError(t, ts.UserRepo.Create(ts.ctx, user))
	return user
}

func (ts *TestSetup) createPaidUser(t *testing.T, id string) *models.User {
	t.Helper()
	expires := time.Now().Add(30 * 24 * time.Hour)
	user := &models.User{ID: id, IsPremium: true, Plan: models.PlanMonthly, PremiumExpiresAt: &expires}
	require.NoError(t, ts.UserRepo.Create(ts.ctx, user))
	return user
}

func (ts *TestSetup) submitRequest(t *testing.T, userID string) SubmitRequest {
	return SubmitRequest{
		UserID:    userID,
		UserImage: testPNG(t, 300, 400),
		ItemImage: testPNG(t, 64, 32),
		ItemType:  "glasses",
	}
}

func (ts *TestSetup) user(t *testing.T, id string) *models.User {
	t.Helper()
	user, err := ts.UserRepo.GetByID(ts.ctx, id)
	require.NoError(t, err)
	return user
}

func (ts *TestSetup) task(t *testing.T, id string) *models.Task {
	t.Helper()
	task, err := ts.TaskRepo.GetByID(ts.ctx, id)
	require.NoError(t, err)
	return task
}

func (ts *TestSetup) countTasks(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, ts.DB.Model(&models.Task{}).Count(&n).Error)
	return n
}
