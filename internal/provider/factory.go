package provider

import (
	"fmt"

	"github.com/tryonlabs/tryon/internal/config"
)

// New builds both providers for the configured mode
func New(cfg config.ProviderConfig) (SyncProvider, AsyncProvider, error) {
	switch cfg.Mode {
	case config.ProviderModeMock:
		return &MockSyncProvider{}, &MockAsyncProvider{}, nil
	case config.ProviderModeHTTP:
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
		return NewSyncClient(cfg.SyncURL, cfg.SyncToken, cfg.SyncModel, cfg.Timeout),
			NewAsyncClient(cfg.AsyncURL, cfg.AsyncToken, cfg.Timeout), nil
	default:
		return nil, nil, fmt.Errorf("unknown provider mode %q", cfg.Mode)
	}
}
