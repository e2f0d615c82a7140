package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockSyncProvider implements SyncProvider with a swappable function.
// Without ComposeFunc it echoes the user image back as the result.
type MockSyncProvider struct {
	ComposeFunc func(ctx context.Context, req ComposeRequest) (*ComposeResult, error)

	mutex sync.Mutex
	calls []ComposeRequest
}

// Compose records the call and delegates to ComposeFunc
func (m *MockSyncProvider) Compose(ctx context.Context, req ComposeRequest) (*ComposeResult, error) {
	m.mutex.Lock()
	m.calls = append(m.calls, req)
	fn := m.ComposeFunc
	m.mutex.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &ComposeResult{ImageURL: req.UserImageURL, Description: "mock composition", Model: "mock"}, nil
}

// Calls returns the requests seen so far
func (m *MockSyncProvider) Calls() []ComposeRequest {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]ComposeRequest(nil), m.calls...)
}

// MockAsyncProvider implements AsyncProvider with swappable functions.
// Without overrides, jobs succeed on the first fetch with the user image as result.
type MockAsyncProvider struct {
	SubmitFunc      func(ctx context.Context, req ComposeRequest) (string, error)
	FetchResultFunc func(ctx context.Context, externalID string) (*FetchResult, error)

	mutex       sync.Mutex
	jobs        map[string]ComposeRequest
	submitCalls int
	fetchCalls  int
}

// Submit records the job and delegates to SubmitFunc
func (m *MockAsyncProvider) Submit(ctx context.Context, req ComposeRequest) (string, error) {
	m.mutex.Lock()
	m.submitCalls++
	fn := m.SubmitFunc
	m.mutex.Unlock()

	var id string
	if fn != nil {
		var err error
		if id, err = fn(ctx, req); err != nil {
			return "", err
		}
	} else {
		id = "mock-" + uuid.NewString()
	}

	m.mutex.Lock()
	if m.jobs == nil {
		m.jobs = make(map[string]ComposeRequest)
	}
	m.jobs[id] = req
	m.mutex.Unlock()
	return id, nil
}

// FetchResult delegates to FetchResultFunc
func (m *MockAsyncProvider) FetchResult(ctx context.Context, externalID string) (*FetchResult, error) {
	m.mutex.Lock()
	m.fetchCalls++
	fn := m.FetchResultFunc
	req, ok := m.jobs[externalID]
	m.mutex.Unlock()

	if fn != nil {
		return fn(ctx, externalID)
	}
	if !ok {
		return &FetchResult{Status: ResultFailed, RawStatus: "not_found", Error: fmt.Sprintf("unknown job %s", externalID)}, nil
	}
	return &FetchResult{Status: ResultSucceeded, RawStatus: "succeeded", ResultURL: req.UserImageURL}, nil
}

// SubmitCalls returns how many times Submit was called
func (m *MockAsyncProvider) SubmitCalls() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.submitCalls
}

// FetchCalls returns how many times FetchResult was called
func (m *MockAsyncProvider) FetchCalls() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.fetchCalls
}
