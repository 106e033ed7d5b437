package mocks

import (
	"fmt"
	"sync"

	"github.com/scottieai/collab-hub/host/internal/update"
)

// MockUpdateProvider is a mock implementation of update.Provider for
// testing the update lifecycle without a release feed.
type MockUpdateProvider struct {
	mu            sync.Mutex
	events        chan update.ProviderEvent
	checkCalls    int
	downloadCalls int
	installCalls  int
	installErr    error
}

// NewMockUpdateProvider creates a mock provider with a buffered event
// stream.
func NewMockUpdateProvider() *MockUpdateProvider {
	return &MockUpdateProvider{
		events: make(chan update.ProviderEvent, 32),
	}
}

// CheckForUpdates records the call. The test drives outcomes via Emit.
func (m *MockUpdateProvider) CheckForUpdates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkCalls++
}

// DownloadUpdate records the call. The test drives outcomes via Emit.
func (m *MockUpdateProvider) DownloadUpdate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadCalls++
}

// QuitAndInstall records the call and returns the configured error.
func (m *MockUpdateProvider) QuitAndInstall() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installCalls++
	return m.installErr
}

// Events returns the mock's event stream.
func (m *MockUpdateProvider) Events() <-chan update.ProviderEvent {
	return m.events
}

// Emit pushes an event onto the stream.
func (m *MockUpdateProvider) Emit(evt update.ProviderEvent) error {
	select {
	case m.events <- evt:
		return nil
	default:
		return fmt.Errorf("mock event stream full")
	}
}

// SetInstallError configures QuitAndInstall to fail.
func (m *MockUpdateProvider) SetInstallError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installErr = err
}

// CheckCalls returns how many times CheckForUpdates was invoked.
func (m *MockUpdateProvider) CheckCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkCalls
}

// DownloadCalls returns how many times DownloadUpdate was invoked.
func (m *MockUpdateProvider) DownloadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.downloadCalls
}

// InstallCalls returns how many times QuitAndInstall was invoked.
func (m *MockUpdateProvider) InstallCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.installCalls
}
