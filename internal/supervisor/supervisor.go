// Package supervisor coordinates the host process's components: the
// bridge server, resource monitor, update orchestrator, surfaces, and
// the optional tray. It owns the startup sequence:
//  1. Diagnostics store
//  2. Bridge, command handlers, and loopback server
//  3. Update orchestrator
//  4. Splash surface, then the main surface
//  5. On first bridge connection: close splash, start monitoring,
//     kick off an update check
//
// Closing the main window stops monitoring but leaves an in-flight
// download running. The process stays resident only when the tray is
// enabled; otherwise main-window close is shutdown.
package supervisor

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/scottieai/collab-hub/host/internal/bridge"
	"github.com/scottieai/collab-hub/host/internal/config"
	"github.com/scottieai/collab-hub/host/internal/diagnostics"
	"github.com/scottieai/collab-hub/host/internal/errors"
	"github.com/scottieai/collab-hub/host/internal/logger"
	"github.com/scottieai/collab-hub/host/internal/monitor"
	"github.com/scottieai/collab-hub/host/internal/platform"
	"github.com/scottieai/collab-hub/host/internal/tray"
	"github.com/scottieai/collab-hub/host/internal/update"
	"github.com/scottieai/collab-hub/host/internal/window"
)

// readyFallback bounds how long startup waits for the main surface to
// open a bridge connection before proceeding anyway.
const readyFallback = 15 * time.Second

// Component interface defines the lifecycle methods for all components
type Component interface {
	Start() error
	Stop() error
	Name() string
}

// Supervisor manages the lifecycle of all host components.
type Supervisor struct {
	config *config.HostConfig
	logger *logger.Logger

	diag     *diagnostics.Store
	bridge   *bridge.Bridge
	server   *bridge.Server
	monitor  *monitor.Monitor
	updates  *update.Orchestrator
	provider update.Provider

	surfaces window.Provider
	display  platform.DisplayProvider
	dialogs  platform.DialogProvider
	trayIcon *tray.Tray

	mu         sync.Mutex
	mainWin    window.Surface
	mainClosed chan struct{}

	activateCh chan struct{}
	quitCh     chan struct{}
	shutdownCh chan struct{}

	healthMu sync.RWMutex
	health   map[string]bool
}

// New creates a supervisor for the given configuration.
func New(cfg *config.HostConfig) (*Supervisor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	return &Supervisor{
		config:     cfg,
		logger:     logger.NewComponentLogger("Supervisor"),
		activateCh: make(chan struct{}, 1),
		quitCh:     make(chan struct{}),
		shutdownCh: make(chan struct{}),
		health:     make(map[string]bool),
	}, nil
}

// Run starts all components and blocks until shutdown.
func (s *Supervisor) Run() error {
	s.logger.Info("=== Collab Hub Host Starting ===")

	if err := s.initializeComponents(); err != nil {
		return errors.Wrap(err, "failed to initialize components")
	}

	if err := s.startComponents(); err != nil {
		s.shutdown()
		return errors.Wrap(err, "failed to start components")
	}

	if err := s.openStartupSurfaces(); err != nil {
		s.shutdown()
		return errors.Wrap(err, "failed to open startup surfaces")
	}

	s.logger.Info("=== Collab Hub Host Running ===")

	// systray insists on owning the goroutine that calls it (the Cocoa
	// event loop on macOS), so with a tray the supervisor loop moves to
	// a goroutine and Run's caller becomes the tray's event loop.
	if s.trayIcon != nil {
		done := make(chan error, 1)
		go func() { done <- s.loop() }()
		s.trayIcon.Run()
		return <-done
	}
	return s.loop()
}

// loop dispatches lifecycle events until shutdown.
func (s *Supervisor) loop() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	resident := s.config.Tray.Enabled
	for {
		select {
		case sig := <-sigChan:
			s.logger.Info("Received signal: %v", sig)
			return s.shutdown()

		case <-s.quitCh:
			return s.shutdown()

		case <-s.mainClosedChan():
			s.onMainClosed()
			if !resident {
				s.logger.Info("Main window closed, shutting down")
				return s.shutdown()
			}
			s.logger.Info("Main window closed, staying resident in tray")

		case <-s.activateCh:
			if err := s.activate(); err != nil {
				s.logger.Error("Failed to reopen main window: %v", err)
			}
		}
	}
}

// Activate reopens the main surface. Safe to call from any goroutine;
// redundant requests while one is pending are coalesced.
func (s *Supervisor) Activate() {
	select {
	case s.activateCh <- struct{}{}:
	default:
	}
}

// SetUpdateProvider overrides the HTTP feed provider. It must be called
// before Run.
func (s *Supervisor) SetUpdateProvider(p update.Provider) {
	s.provider = p
}

// SetSurfaceProvider overrides the platform surface provider. It must be
// called before Run.
func (s *Supervisor) SetSurfaceProvider(p window.Provider) {
	s.surfaces = p
}

// RequestQuit asks the supervisor to shut down.
func (s *Supervisor) RequestQuit() {
	select {
	case <-s.quitCh:
	default:
		close(s.quitCh)
	}
}

func (s *Supervisor) initializeComponents() error {
	s.logger.Info("Initializing components...")

	// 1. Diagnostics store
	diagPath := s.config.Diagnostics.Path
	if diagPath == "" {
		dir, err := platform.DiagnosticsDir()
		if err != nil {
			return errors.Wrap(err, "failed to resolve diagnostics directory")
		}
		diagPath = dir
	}
	var store *diagnostics.Store
	err := errors.RetryWithBackoff("diagnostics initialization", errors.DefaultRetryConfig(), func() error {
		var err error
		store, err = diagnostics.NewStore(diagPath, s.config.Diagnostics.Retain)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "failed to open diagnostics store")
	}
	s.diag = store

	// 2. Platform providers
	s.display = platform.NewDisplayProvider()
	s.dialogs = platform.NewDialogProvider()

	if s.surfaces == nil {
		surfaces, err := window.NewProvider()
		if err != nil {
			return errors.Wrap(err, "failed to create surface provider")
		}
		s.surfaces = surfaces
	}

	// 3. Bridge and loopback server
	s.bridge = bridge.New()
	server, err := bridge.NewServer(s.bridge, &bridge.ServerConfig{
		Port:   s.config.Bridge.Port,
		UIDir:  s.config.Bridge.UIDir,
		Status: s.componentStatus,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create bridge server")
	}
	s.server = server
	s.initComponentHealth(server.Name())

	// 4. Update orchestrator
	production := s.config.Update.Runtime == "production"
	if s.provider == nil {
		updatesDir, err := platform.UpdatesDir()
		if err != nil {
			return errors.Wrap(err, "failed to resolve updates directory")
		}
		s.provider = update.NewFeedProvider(s.config.Update.FeedURL, s.config.Update.Channel, updatesDir)
	}
	s.updates = update.New(s.provider, s.bridge, s.diag, production)
	s.initComponentHealth(s.updates.Name())

	// 5. Resource monitor
	sampler, err := monitor.NewSampler()
	if err != nil {
		return errors.Wrap(err, "failed to create resource sampler")
	}
	s.monitor = monitor.New(sampler, s.bridge, s.diag, s.config.Monitor.MemoryAlertPercent)
	s.initComponentHealth(s.monitor.Name())

	s.registerHandlers()

	// 6. Tray (optional)
	if s.config.Tray.Enabled {
		s.trayIcon = tray.New("Collab Hub", "Collab Hub Host", tray.Handlers{
			OnActivate: s.Activate,
			OnCheckUpdates: func() {
				go s.updates.CheckForUpdates()
			},
			OnQuit: s.RequestQuit,
		})
	}

	s.logger.Info("Components initialized")
	return nil
}

func (s *Supervisor) startComponents() error {
	s.logger.Info("Starting components...")

	if err := s.server.Start(); err != nil {
		return errors.Wrap(err, "failed to start bridge server")
	}
	s.markComponentRunning(s.server.Name(), true)

	if err := s.updates.Start(); err != nil {
		return errors.Wrap(err, "failed to start update orchestrator")
	}
	s.markComponentRunning(s.updates.Name(), true)

	return nil
}

// openStartupSurfaces shows the splash, opens the main surface, and
// completes startup once the UI connects to the bridge (or the fallback
// deadline passes). A surface failure at startup is fatal.
func (s *Supervisor) openStartupSurfaces() error {
	splash, err := s.surfaces.Open(window.Options{
		Kind:   window.KindSplash,
		URL:    s.server.URL() + "/splash.html",
		Width:  420,
		Height: 280,
	})
	if err != nil {
		return errors.Wrap(err, "failed to open splash window")
	}

	w, h := window.MainSize(s.display,
		s.config.Window.DefaultWidth, s.config.Window.DefaultHeight,
		s.config.Window.MinWidth, s.config.Window.MinHeight)
	main, err := s.surfaces.Open(window.Options{
		Kind:   window.KindMain,
		URL:    s.server.URL(),
		Width:  w,
		Height: h,
	})
	if err != nil {
		splash.Close()
		return errors.Wrap(err, "failed to open main window")
	}
	s.setMainSurface(main)

	select {
	case <-s.server.Hub().Connected():
		s.logger.Info("Main surface connected to bridge")
	case <-time.After(readyFallback):
		s.logger.Warn("Main surface did not connect within %v, continuing", readyFallback)
	case <-main.Closed():
		splash.Close()
		return fmt.Errorf("main window closed during startup")
	}

	if err := splash.Close(); err != nil {
		s.logger.Warn("Failed to close splash window: %v", err)
	}

	interval := time.Duration(s.config.Monitor.IntervalSeconds) * time.Second
	s.monitor.Start(interval)
	s.markComponentRunning(s.monitor.Name(), true)

	if initiated, reason := s.updates.CheckForUpdates(); !initiated {
		s.logger.Info("Startup update check skipped: %s", reason)
	}

	return nil
}

// activate recreates the main surface after it was closed from the tray.
func (s *Supervisor) activate() error {
	s.mu.Lock()
	existing := s.mainWin
	s.mu.Unlock()
	if existing != nil {
		return nil
	}

	w, h := window.MainSize(s.display,
		s.config.Window.DefaultWidth, s.config.Window.DefaultHeight,
		s.config.Window.MinWidth, s.config.Window.MinHeight)
	main, err := s.surfaces.Open(window.Options{
		Kind:   window.KindMain,
		URL:    s.server.URL(),
		Width:  w,
		Height: h,
	})
	if err != nil {
		return err
	}
	s.setMainSurface(main)

	interval := time.Duration(s.config.Monitor.IntervalSeconds) * time.Second
	s.monitor.Start(interval)
	s.markComponentRunning(s.monitor.Name(), true)
	return nil
}

// setMainSurface installs the surface and arms a channel that fires
// when it closes.
func (s *Supervisor) setMainSurface(main window.Surface) {
	closed := make(chan struct{})
	go func() {
		<-main.Closed()
		close(closed)
	}()

	s.mu.Lock()
	s.mainWin = main
	s.mainClosed = closed
	s.mu.Unlock()
}

func (s *Supervisor) mainClosedChan() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mainClosed == nil {
		// No main surface right now; never fires.
		return make(chan struct{})
	}
	return s.mainClosed
}

// onMainClosed releases the window handle and stops monitoring. An
// in-flight update download keeps running.
func (s *Supervisor) onMainClosed() {
	s.mu.Lock()
	s.mainWin = nil
	s.mainClosed = nil
	s.mu.Unlock()

	s.monitor.Stop()
	s.markComponentRunning(s.monitor.Name(), false)
}

// shutdown stops components in reverse order of startup.
func (s *Supervisor) shutdown() error {
	s.logger.Info("=== Collab Hub Host Shutting Down ===")

	select {
	case <-s.shutdownCh:
		return nil
	default:
		close(s.shutdownCh)
	}

	s.mu.Lock()
	main := s.mainWin
	s.mainWin = nil
	s.mainClosed = nil
	s.mu.Unlock()
	if main != nil {
		if err := main.Close(); err != nil {
			s.logger.Warn("Error closing main window: %v", err)
		}
	}

	if s.monitor != nil {
		s.monitor.Stop()
		s.markComponentRunning(s.monitor.Name(), false)
	}

	if s.updates != nil {
		if err := s.updates.Stop(); err != nil {
			s.logger.Warn("Error stopping %s: %v", s.updates.Name(), err)
		}
		s.markComponentRunning(s.updates.Name(), false)
	}

	if s.server != nil {
		if err := s.server.Stop(); err != nil {
			s.logger.Warn("Error stopping %s: %v", s.server.Name(), err)
		}
		s.markComponentRunning(s.server.Name(), false)
	}

	if s.trayIcon != nil {
		// Unblocks the tray event loop, which is what Run's caller is
		// waiting on.
		s.trayIcon.Quit()
	}

	if s.diag != nil {
		errors.SafeClose(s.diag, "diagnostics store")
	}

	s.logger.Info("=== Collab Hub Host Stopped ===")
	return nil
}

func (s *Supervisor) initComponentHealth(name string) {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()
	s.health[name] = false
}

func (s *Supervisor) markComponentRunning(name string, running bool) {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()
	s.health[name] = running
}

// componentStatus reports per-component state for the health endpoint.
func (s *Supervisor) componentStatus() map[string]bool {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()
	status := make(map[string]bool, len(s.health))
	for name, running := range s.health {
		status[name] = running
	}
	return status
}
