package test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/tryonlabs/tryon/internal/provider"
)

// SetupMockProviders installs mock providers whose results live on a fake provider CDN
func SetupMockProviders(suite *Suite) {
	resultPNG := PNG(suite.t, 24, 24)
	suite.ProviderCDN = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(resultPNG)
	}))

	cdnURL := suite.ProviderCDN.URL
	suite.SyncProvider = &provider.MockSyncProvider{
		ComposeFunc: func(_ context.Context, _ provider.ComposeRequest) (*provider.ComposeResult, error) {
			return &provider.ComposeResult{
				ImageURL:    cdnURL + "/sync-result.png",
				Description: "composited by mock",
				Model:       "mock-model",
			}, nil
		},
	}
	suite.AsyncProvider = &provider.MockAsyncProvider{
		FetchResultFunc: func(_ context.Context, externalID string) (*provider.FetchResult, error) {
			return &provider.FetchResult{
				Status:    provider.ResultSucceeded,
				RawStatus: "succeeded",
				ResultURL: cdnURL + "/" + externalID + ".png",
			}, nil
		},
	}

	oldCleanup := suite.cleanup
	suite.cleanup = func() {
		suite.ProviderCDN.Close()
		if oldCleanup != nil {
			oldCleanup()
		}
	}
}
