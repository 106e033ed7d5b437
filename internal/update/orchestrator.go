package update

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scottieai/collab-hub/host/internal/bridge"
	"github.com/scottieai/collab-hub/host/internal/diagnostics"
	"github.com/scottieai/collab-hub/host/internal/logger"
)

// Publisher broadcasts lifecycle events toward connected surfaces.
type Publisher interface {
	Publish(event string, payload interface{})
}

// Recorder persists update lifecycle entries across restarts.
type Recorder interface {
	Append(kind string, payload interface{}) error
	Flush() error
	SetLastCheck(lc diagnostics.LastCheck) error
}

type cmdKind int

const (
	cmdCheck cmdKind = iota
	cmdDownload
	cmdInstall
)

type cmdResult struct {
	initiated bool
	reason    string
	err       error
}

type command struct {
	kind  cmdKind
	reply chan cmdResult
}

// Orchestrator drives the update lifecycle. All commands and provider
// events funnel through a single loop, so transitions apply in arrival
// order and the transition table is the sole authority on state changes.
type Orchestrator struct {
	provider   Provider
	publisher  Publisher
	diag       Recorder
	production bool
	logger     *logger.Logger

	commands chan command

	mu    sync.Mutex
	state State

	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New creates an orchestrator in the idle phase. Commands are rejected
// until Start is called. production selects whether checks are allowed
// to contact the provider at all.
func New(provider Provider, publisher Publisher, diag Recorder, production bool) *Orchestrator {
	return &Orchestrator{
		provider:   provider,
		publisher:  publisher,
		diag:       diag,
		production: production,
		logger:     logger.NewComponentLogger("UpdateOrchestrator"),
		commands:   make(chan command),
		state:      State{Phase: PhaseIdle},
	}
}

// Start launches the event loop.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return fmt.Errorf("update orchestrator already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.done = make(chan struct{})
	o.running = true
	go o.run(ctx)
	o.logger.Info("Update orchestrator started (production=%v)", o.production)
	return nil
}

// Stop terminates the event loop and waits for it to exit.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return nil
	}
	cancel := o.cancel
	done := o.done
	o.running = false
	o.mu.Unlock()

	cancel()
	<-done
	o.logger.Info("Update orchestrator stopped")
	return nil
}

// Name identifies the component in health reporting.
func (o *Orchestrator) Name() string {
	return "UpdateOrchestrator"
}

// State returns a snapshot of the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// CheckForUpdates requests an update check. The boolean reports whether
// a check was actually initiated; when it was not, the reason says why.
// In a development runtime the provider is never contacted.
func (o *Orchestrator) CheckForUpdates() (bool, string) {
	if !o.production {
		return false, "updates disabled in development runtime"
	}
	res := o.submit(cmdCheck)
	if res.err != nil {
		return false, res.err.Error()
	}
	return res.initiated, res.reason
}

// DownloadUpdate requests the download of the release found by the most
// recent check. It fails unless an update is currently available.
func (o *Orchestrator) DownloadUpdate() error {
	res := o.submit(cmdDownload)
	return res.err
}

// InstallUpdate applies the downloaded release and restarts the process.
// Diagnostics are flushed before the provider takes over.
func (o *Orchestrator) InstallUpdate() error {
	res := o.submit(cmdInstall)
	return res.err
}

func (o *Orchestrator) submit(kind cmdKind) cmdResult {
	o.mu.Lock()
	running := o.running
	done := o.done
	o.mu.Unlock()
	if !running {
		return cmdResult{err: fmt.Errorf("update orchestrator is not running")}
	}
	cmd := command{kind: kind, reply: make(chan cmdResult, 1)}
	select {
	case o.commands <- cmd:
		return <-cmd.reply
	case <-done:
		return cmdResult{err: fmt.Errorf("update orchestrator is not running")}
	}
}

func (o *Orchestrator) run(ctx context.Context) {
	defer close(o.done)
	events := o.provider.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-o.commands:
			cmd.reply <- o.handleCommand(cmd.kind)
		case evt, ok := <-events:
			if !ok {
				o.logger.Warn("Provider event stream closed")
				events = nil
				continue
			}
			o.handleProviderEvent(evt)
		}
	}
}

func (o *Orchestrator) handleCommand(kind cmdKind) cmdResult {
	o.mu.Lock()
	phase := o.state.Phase
	o.mu.Unlock()

	switch kind {
	case cmdCheck:
		if phase != PhaseIdle && phase != PhaseError {
			return cmdResult{initiated: false, reason: "update check already in progress"}
		}
		o.transition(State{Phase: PhaseChecking})
		o.provider.CheckForUpdates()
		return cmdResult{initiated: true}

	case cmdDownload:
		if phase != PhaseAvailable {
			return cmdResult{err: fmt.Errorf("no update available to download (phase %s)", phase)}
		}
		o.mu.Lock()
		info := o.state.Info
		o.mu.Unlock()
		o.transition(State{Phase: PhaseDownloading, Info: info, Progress: 0})
		o.provider.DownloadUpdate()
		return cmdResult{}

	case cmdInstall:
		if phase != PhaseDownloaded {
			return cmdResult{err: fmt.Errorf("no downloaded update to install (phase %s)", phase)}
		}
		if err := o.diag.Flush(); err != nil {
			o.logger.Warn("Failed to flush diagnostics before install: %v", err)
		}
		if err := o.provider.QuitAndInstall(); err != nil {
			return cmdResult{err: fmt.Errorf("install failed: %w", err)}
		}
		return cmdResult{}
	}
	return cmdResult{err: fmt.Errorf("unknown command %d", kind)}
}

func (o *Orchestrator) handleProviderEvent(evt ProviderEvent) {
	o.mu.Lock()
	phase := o.state.Phase
	o.mu.Unlock()

	switch evt.Kind {
	case EventChecking:
		// Confirmation of a check the loop already initiated.

	case EventAvailable:
		if phase != PhaseChecking {
			o.ignore(evt, phase)
			return
		}
		o.transition(State{Phase: PhaseAvailable, Info: evt.Info})
		o.recordLastCheck(evt.Info.Version)

	case EventNotAvailable:
		if phase != PhaseChecking {
			o.ignore(evt, phase)
			return
		}
		o.transition(State{Phase: PhaseIdle})
		o.recordLastCheck("")

	case EventProgress:
		if phase != PhaseDownloading {
			o.ignore(evt, phase)
			return
		}
		o.mu.Lock()
		info := o.state.Info
		o.mu.Unlock()
		o.transition(State{Phase: PhaseDownloading, Info: info, Progress: evt.Progress})

	case EventDownloaded:
		if phase != PhaseDownloading {
			o.ignore(evt, phase)
			return
		}
		o.transition(State{Phase: PhaseDownloaded, Info: evt.Info})

	case EventError:
		if phase != PhaseChecking && phase != PhaseDownloading {
			o.ignore(evt, phase)
			return
		}
		o.transition(State{Phase: PhaseError, Message: evt.Err})

	default:
		o.logger.Warn("Unknown provider event kind %q", evt.Kind)
	}
}

// transition installs the new state, broadcasts it, and records it in
// the diagnostics log.
func (o *Orchestrator) transition(next State) {
	o.mu.Lock()
	prev := o.state.Phase
	o.state = next
	o.mu.Unlock()

	o.logger.Info("Update state %s -> %s", prev, next.Phase)
	o.publisher.Publish(bridge.EventUpdateStatus, next)
	if err := o.diag.Append(diagnostics.KindUpdate, next); err != nil {
		o.logger.Warn("Failed to record update transition: %v", err)
	}
}

func (o *Orchestrator) recordLastCheck(latest string) {
	lc := diagnostics.LastCheck{CheckedAt: time.Now(), LatestVersion: latest}
	if err := o.diag.SetLastCheck(lc); err != nil {
		o.logger.Warn("Failed to persist last update check: %v", err)
	}
}

func (o *Orchestrator) ignore(evt ProviderEvent, phase Phase) {
	o.logger.Warn("Ignoring provider event %q in phase %s", evt.Kind, phase)
}
