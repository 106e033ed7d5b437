package update

import (
	"sync"
	"testing"
	"time"

	"github.com/scottieai/collab-hub/host/internal/bridge"
	"github.com/scottieai/collab-hub/host/internal/diagnostics"
)

type mockProvider struct {
	mu           sync.Mutex
	events       chan ProviderEvent
	checkCalls   int
	downloadCall int
	installCall  int
}

func newMockProvider() *mockProvider {
	return &mockProvider{events: make(chan ProviderEvent, 16)}
}

func (m *mockProvider) CheckForUpdates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkCalls++
}

func (m *mockProvider) DownloadUpdate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadCall++
}

func (m *mockProvider) QuitAndInstall() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installCall++
	return nil
}

func (m *mockProvider) Events() <-chan ProviderEvent {
	return m.events
}

func (m *mockProvider) emit(evt ProviderEvent) {
	m.events <- evt
}

func (m *mockProvider) checks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkCalls
}

func (m *mockProvider) installs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.installCall
}

type statusRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *statusRecorder) Publish(event string, payload interface{}) {
	if event != bridge.EventUpdateStatus {
		return
	}
	st, ok := payload.(State)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, st)
}

func (r *statusRecorder) phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Phase, len(r.states))
	for i, s := range r.states {
		out[i] = s.Phase
	}
	return out
}

type fakeRecorder struct {
	mu        sync.Mutex
	appended  []string
	flushes   int
	lastCheck *diagnostics.LastCheck
}

func (f *fakeRecorder) Append(kind string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, kind)
	return nil
}

func (f *fakeRecorder) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

func (f *fakeRecorder) SetLastCheck(lc diagnostics.LastCheck) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCheck = &lc
	return nil
}

func (f *fakeRecorder) flushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushes
}

func startOrchestrator(t *testing.T, provider Provider, production bool) (*Orchestrator, *statusRecorder, *fakeRecorder) {
	t.Helper()
	pub := &statusRecorder{}
	rec := &fakeRecorder{}
	o := New(provider, pub, rec, production)
	if err := o.Start(); err != nil {
		t.Fatalf("failed to start orchestrator: %v", err)
	}
	t.Cleanup(func() { o.Stop() })
	return o, pub, rec
}

func waitForPhase(t *testing.T, o *Orchestrator, want Phase) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if o.State().Phase == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for phase %s, still in %s", want, o.State().Phase)
}

func TestUpdateHappyPath(t *testing.T) {
	provider := newMockProvider()
	o, pub, rec := startOrchestrator(t, provider, true)

	info := &ReleaseInfo{Version: "1.2.0", DownloadURL: "https://example.test/1.2.0"}

	initiated, reason := o.CheckForUpdates()
	if !initiated {
		t.Fatalf("expected check to initiate, got reason %q", reason)
	}
	waitForPhase(t, o, PhaseChecking)
	if provider.checks() != 1 {
		t.Fatalf("expected 1 provider check, got %d", provider.checks())
	}

	provider.emit(ProviderEvent{Kind: EventChecking})
	provider.emit(ProviderEvent{Kind: EventAvailable, Info: info})
	waitForPhase(t, o, PhaseAvailable)
	if got := o.State().Info; got == nil || got.Version != "1.2.0" {
		t.Fatalf("expected available version 1.2.0, got %+v", got)
	}

	if err := o.DownloadUpdate(); err != nil {
		t.Fatalf("failed to start download: %v", err)
	}
	waitForPhase(t, o, PhaseDownloading)

	for _, p := range []float64{10, 50, 100} {
		provider.emit(ProviderEvent{Kind: EventProgress, Progress: p})
	}
	provider.emit(ProviderEvent{Kind: EventDownloaded, Info: info})
	waitForPhase(t, o, PhaseDownloaded)

	if err := o.InstallUpdate(); err != nil {
		t.Fatalf("failed to install: %v", err)
	}
	if provider.installs() != 1 {
		t.Errorf("expected exactly one install call, got %d", provider.installs())
	}
	if rec.flushCount() != 1 {
		t.Errorf("expected diagnostics flush before install, got %d flushes", rec.flushCount())
	}

	// Every transition must have been broadcast in order.
	want := []Phase{PhaseChecking, PhaseAvailable, PhaseDownloading, PhaseDownloading, PhaseDownloading, PhaseDownloading, PhaseDownloaded}
	got := pub.phases()
	if len(got) != len(want) {
		t.Fatalf("expected %d broadcasts, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("broadcast %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestCheckWhileCheckingRejected(t *testing.T) {
	provider := newMockProvider()
	o, _, _ := startOrchestrator(t, provider, true)

	initiated, _ := o.CheckForUpdates()
	if !initiated {
		t.Fatal("expected first check to initiate")
	}
	waitForPhase(t, o, PhaseChecking)

	initiated, reason := o.CheckForUpdates()
	if initiated {
		t.Fatal("expected second check to be rejected while one is in flight")
	}
	if reason == "" {
		t.Error("expected a reason for the rejected check")
	}
	if provider.checks() != 1 {
		t.Errorf("expected provider to be contacted once, got %d", provider.checks())
	}
}

func TestDevelopmentRuntimeNeverContactsProvider(t *testing.T) {
	provider := newMockProvider()
	o, _, _ := startOrchestrator(t, provider, false)

	for i := 0; i < 3; i++ {
		initiated, reason := o.CheckForUpdates()
		if initiated {
			t.Fatal("expected check to be refused in development runtime")
		}
		if reason == "" {
			t.Error("expected a reason for the refused check")
		}
	}
	if provider.checks() != 0 {
		t.Errorf("expected provider never to be contacted, got %d checks", provider.checks())
	}
	if o.State().Phase != PhaseIdle {
		t.Errorf("expected orchestrator to stay idle, got %s", o.State().Phase)
	}
}

func TestNotAvailableReturnsToIdle(t *testing.T) {
	provider := newMockProvider()
	o, _, rec := startOrchestrator(t, provider, true)

	o.CheckForUpdates()
	waitForPhase(t, o, PhaseChecking)
	provider.emit(ProviderEvent{Kind: EventNotAvailable})
	waitForPhase(t, o, PhaseIdle)

	rec.mu.Lock()
	lc := rec.lastCheck
	rec.mu.Unlock()
	if lc == nil {
		t.Fatal("expected last check to be persisted")
	}
	if lc.LatestVersion != "" {
		t.Errorf("expected empty latest version, got %q", lc.LatestVersion)
	}
}

func TestErrorStateIsRecoverable(t *testing.T) {
	provider := newMockProvider()
	o, _, _ := startOrchestrator(t, provider, true)

	o.CheckForUpdates()
	waitForPhase(t, o, PhaseChecking)
	provider.emit(ProviderEvent{Kind: EventError, Err: "feed unreachable"})
	waitForPhase(t, o, PhaseError)
	if msg := o.State().Message; msg != "feed unreachable" {
		t.Errorf("expected error message to carry through, got %q", msg)
	}

	// A new check is allowed from the error state.
	initiated, reason := o.CheckForUpdates()
	if !initiated {
		t.Fatalf("expected check from error state to initiate, got %q", reason)
	}
	waitForPhase(t, o, PhaseChecking)
	if provider.checks() != 2 {
		t.Errorf("expected 2 provider checks, got %d", provider.checks())
	}
}

func TestDownloadRequiresAvailable(t *testing.T) {
	provider := newMockProvider()
	o, _, _ := startOrchestrator(t, provider, true)

	if err := o.DownloadUpdate(); err == nil {
		t.Error("expected download from idle to fail")
	}
	if err := o.InstallUpdate(); err == nil {
		t.Error("expected install from idle to fail")
	}
}

func TestStrayProviderEventsIgnored(t *testing.T) {
	provider := newMockProvider()
	o, pub, _ := startOrchestrator(t, provider, true)

	// Events outside the expected phase must not move the state.
	provider.emit(ProviderEvent{Kind: EventProgress, Progress: 50})
	provider.emit(ProviderEvent{Kind: EventDownloaded, Info: &ReleaseInfo{Version: "9.9.9"}})
	provider.emit(ProviderEvent{Kind: EventError, Err: "late failure"})

	time.Sleep(50 * time.Millisecond)
	if o.State().Phase != PhaseIdle {
		t.Errorf("expected orchestrator to stay idle, got %s", o.State().Phase)
	}
	if len(pub.phases()) != 0 {
		t.Errorf("expected no broadcasts for ignored events, got %v", pub.phases())
	}
}

func TestCommandsRejectedWhenStopped(t *testing.T) {
	provider := newMockProvider()
	o := New(provider, &statusRecorder{}, &fakeRecorder{}, true)

	if initiated, _ := o.CheckForUpdates(); initiated {
		t.Error("expected check to fail before Start")
	}
	if err := o.DownloadUpdate(); err == nil {
		t.Error("expected download to fail before Start")
	}
}
