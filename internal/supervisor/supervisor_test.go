package supervisor

import (
	"sync"
	"testing"
	"time"

	"github.com/scottieai/collab-hub/host/internal/bridge"
	"github.com/scottieai/collab-hub/host/internal/config"
	"github.com/scottieai/collab-hub/host/internal/monitor"
	"github.com/scottieai/collab-hub/host/internal/window"
)

type fakeSurface struct {
	once   sync.Once
	closed chan struct{}
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{closed: make(chan struct{})}
}

func (f *fakeSurface) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeSurface) Closed() <-chan struct{} {
	return f.closed
}

type fakeSurfaceProvider struct {
	mu     sync.Mutex
	opened []*fakeSurface
}

func (p *fakeSurfaceProvider) Open(opts window.Options) (window.Surface, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := newFakeSurface()
	p.opened = append(p.opened, s)
	return s, nil
}

type countingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *countingPublisher) Publish(event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *countingPublisher) countOf(event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == event {
			n++
		}
	}
	return n
}

type stubSampler struct{}

func (stubSampler) Sample() (*monitor.ResourceSample, error) {
	return &monitor.ResourceSample{Timestamp: time.Now()}, nil
}

func waitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

// Closing the main window must stop the resource monitor through the
// supervisor loop: no resourceUsage event may fire afterwards, and with
// residency enabled the loop itself keeps running.
func TestMainWindowCloseStopsMonitor(t *testing.T) {
	cfg := &config.HostConfig{}
	cfg.Tray.Enabled = true

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create supervisor: %v", err)
	}
	s.SetSurfaceProvider(&fakeSurfaceProvider{})

	pub := &countingPublisher{}
	s.monitor = monitor.New(stubSampler{}, pub, nil, 90)

	main := newFakeSurface()
	s.setMainSurface(main)
	s.monitor.Start(10 * time.Millisecond)

	loopDone := make(chan error, 1)
	go func() { loopDone <- s.loop() }()

	waitUntil(t, func() bool {
		return pub.countOf(bridge.EventResourceUsage) >= 2
	}, "expected samples while the main window is open")

	main.Close()

	waitUntil(t, func() bool {
		return !s.monitor.IsRunning()
	}, "expected the monitor to stop after the main window closed")

	before := pub.countOf(bridge.EventResourceUsage)
	time.Sleep(60 * time.Millisecond)
	if after := pub.countOf(bridge.EventResourceUsage); after != before {
		t.Errorf("expected no samples after main window close, got %d more", after-before)
	}

	// Residency: the loop survives the close and only quits on request.
	select {
	case err := <-loopDone:
		t.Fatalf("loop exited after main window close: %v", err)
	default:
	}

	s.RequestQuit()
	select {
	case <-loopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit on quit request")
	}
}

// Without tray residency, closing the main window shuts the process down.
func TestMainWindowCloseQuitsWithoutTray(t *testing.T) {
	cfg := &config.HostConfig{}
	cfg.Tray.Enabled = false

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create supervisor: %v", err)
	}

	pub := &countingPublisher{}
	s.monitor = monitor.New(stubSampler{}, pub, nil, 90)

	main := newFakeSurface()
	s.setMainSurface(main)

	loopDone := make(chan error, 1)
	go func() { loopDone <- s.loop() }()

	main.Close()

	select {
	case err := <-loopDone:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not shut down after main window close")
	}
}
