package mocks

import (
	"context"
	"sync"

	"github.com/scottieai/collab-hub/host/internal/platform"
)

// MockDialogProvider is a mock implementation of platform.DialogProvider
// for testing dialog commands without a desktop session.
type MockDialogProvider struct {
	mu        sync.Mutex
	openPaths []string
	savePath  string
	openErr   error
	saveErr   error
	calls     []platform.FileDialogOptions
}

// NewMockDialogProvider creates a mock that behaves as if every dialog
// was cancelled until results are configured.
func NewMockDialogProvider() *MockDialogProvider {
	return &MockDialogProvider{}
}

// SetOpenResult configures the paths OpenFile resolves with.
func (m *MockDialogProvider) SetOpenResult(paths []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openPaths = paths
	m.openErr = err
}

// SetSaveResult configures the path SaveFile resolves with.
func (m *MockDialogProvider) SetSaveResult(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.savePath = path
	m.saveErr = err
}

// OpenFile returns the configured selection.
func (m *MockDialogProvider) OpenFile(ctx context.Context, opts platform.FileDialogOptions) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, opts)
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.openPaths, nil
}

// SaveFile returns the configured destination.
func (m *MockDialogProvider) SaveFile(ctx context.Context, opts platform.FileDialogOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, opts)
	if m.saveErr != nil {
		return "", m.saveErr
	}
	return m.savePath, nil
}

// Calls returns the options passed to each dialog invocation.
func (m *MockDialogProvider) Calls() []platform.FileDialogOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]platform.FileDialogOptions, len(m.calls))
	copy(out, m.calls)
	return out
}
