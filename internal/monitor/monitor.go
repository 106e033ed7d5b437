// Package monitor implements the host's resource monitor: a fixed-interval
// sampler of process and system resource counters.
//
// Each tick reads the counters, emits a resourceUsage event through the
// message bridge, and independently evaluates the alert policy, emitting a
// highResourceUsage event when system memory utilization crosses the
// configured limit. A failed counter read skips that tick only; the timer
// keeps running. Samples are additionally appended to the diagnostics
// store, best-effort.
//
// Start is an atomic cancel-then-restart: at most one timer exists at any
// time. Stop is deterministic: once it returns, no further sample is
// emitted, even if a tick was already scheduled.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/scottieai/collab-hub/host/internal/bridge"
	"github.com/scottieai/collab-hub/host/internal/diagnostics"
	"github.com/scottieai/collab-hub/host/internal/logger"
)

// Publisher emits bridge events. Satisfied by *bridge.Bridge.
type Publisher interface {
	Publish(event string, payload interface{})
}

// Recorder appends diagnostics entries. Satisfied by *diagnostics.Store.
type Recorder interface {
	Append(kind string, payload interface{}) error
}

// Monitor periodically samples resource usage and emits it via the bridge.
type Monitor struct {
	sampler      Sampler
	publisher    Publisher
	diag         Recorder
	alertPercent float64
	logger       *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New creates a resource monitor. diag may be nil to disable diagnostics
// persistence.
func New(sampler Sampler, publisher Publisher, diag Recorder, alertPercent float64) *Monitor {
	return &Monitor{
		sampler:      sampler,
		publisher:    publisher,
		diag:         diag,
		alertPercent: alertPercent,
		logger:       logger.NewComponentLogger("Monitor"),
	}
}

// Start begins sampling at the given interval. If the monitor is already
// running it is restarted: the previous timer is cancelled and fully
// drained before the new one starts, so two timers never coexist.
func (m *Monitor) Start(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		m.logger.Info("Restarting monitor with interval %v", interval)
		m.stopLocked()
	} else {
		m.logger.Info("Starting monitor with interval %v", interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.running = true

	go m.run(ctx, interval, done)
}

// Stop cancels the timer. Calling it when not running is a no-op. On
// return the sampling goroutine has exited; no further sample fires.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	m.logger.Info("Stopping monitor")
	m.stopLocked()
}

// stopLocked cancels and waits for the current run. Caller holds m.mu.
func (m *Monitor) stopLocked() {
	m.cancel()
	<-m.done
	m.running = false
}

// IsRunning reports whether a timer is currently active.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Name returns the component name
func (m *Monitor) Name() string {
	return "Monitor"
}

func (m *Monitor) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A tick may already be pending when Stop cancels; the
			// recheck guarantees nothing is emitted after cancellation.
			if ctx.Err() != nil {
				return
			}
			m.tick()
		}
	}
}

// tick reads the counters once and emits the sample and any alert.
func (m *Monitor) tick() {
	sample, err := m.sampler.Sample()
	if err != nil {
		// Skip this tick only; the timer continues uninterrupted.
		m.logger.Warn("Sample failed, skipping tick: %v", err)
		return
	}

	m.publisher.Publish(bridge.EventResourceUsage, sample)

	if m.diag != nil {
		if err := m.diag.Append(diagnostics.KindSample, sample); err != nil {
			m.logger.Warn("Failed to record sample: %v", err)
		}
	}

	if sample.System.UsedPercent > m.alertPercent {
		alert := &ThresholdAlert{
			Resource:  "system-memory",
			Value:     sample.System.UsedPercent,
			Timestamp: sample.Timestamp,
		}
		m.logger.Warn("System memory usage at %.1f%% exceeds %.1f%% limit",
			alert.Value, m.alertPercent)
		m.publisher.Publish(bridge.EventHighResourceUsage, alert)
	}
}
