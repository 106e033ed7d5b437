package window

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/scottieai/collab-hub/host/internal/logger"
	"github.com/scottieai/collab-hub/host/internal/platform"
)

// browserProvider renders surfaces as app-mode windows of an installed
// Chromium-family browser. Each surface gets its own profile directory
// so its process can be tracked and closed independently.
type browserProvider struct {
	binary string
	logger *logger.Logger
}

func newBrowserProvider() (*browserProvider, error) {
	binary, err := findBrowser()
	if err != nil {
		return nil, err
	}
	return &browserProvider{
		binary: binary,
		logger: logger.NewComponentLogger("SurfaceProvider"),
	}, nil
}

func (p *browserProvider) Open(opts Options) (Surface, error) {
	dataDir, err := platform.AppDataDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profile directory: %w", err)
	}
	profile := filepath.Join(dataDir, fmt.Sprintf("surface-%s", opts.Kind))

	args := []string{
		fmt.Sprintf("--app=%s", opts.URL),
		fmt.Sprintf("--user-data-dir=%s", profile),
		fmt.Sprintf("--window-size=%d,%d", opts.Width, opts.Height),
		"--no-first-run",
		"--no-default-browser-check",
	}
	cmd := exec.Command(p.binary, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to launch %s surface: %w", opts.Kind, err)
	}
	p.logger.Info("Opened %s surface (pid %d, %dx%d)", opts.Kind, cmd.Process.Pid, opts.Width, opts.Height)

	s := &browserSurface{
		kind:   opts.Kind,
		cmd:    cmd,
		closed: make(chan struct{}),
		logger: p.logger,
	}
	go s.watch()
	return s, nil
}

type browserSurface struct {
	kind   Kind
	cmd    *exec.Cmd
	logger *logger.Logger

	once   sync.Once
	closed chan struct{}
}

// watch reaps the surface process and signals closure, whichever side
// initiated it.
func (s *browserSurface) watch() {
	err := s.cmd.Wait()
	if err != nil {
		s.logger.Debug("%s surface exited: %v", s.kind, err)
	}
	s.once.Do(func() { close(s.closed) })
}

func (s *browserSurface) Close() error {
	select {
	case <-s.closed:
		return nil
	default:
	}
	if err := s.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("failed to close %s surface: %w", s.kind, err)
	}
	<-s.closed
	return nil
}

func (s *browserSurface) Closed() <-chan struct{} {
	return s.closed
}

// findBrowser locates an app-mode capable browser on PATH, preferring
// the platform-specific candidates first.
func findBrowser() (string, error) {
	for _, name := range browserCandidates() {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no app-mode capable browser found")
}
