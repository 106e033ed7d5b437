package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/scottieai/collab-hub/host/internal/logger"
)

// Handlers are the actions wired to the tray menu. All of them run on
// the tray's event goroutines and must not block.
type Handlers struct {
	OnActivate     func()
	OnCheckUpdates func()
	OnQuit         func()
}

// Tray keeps the host resident in the notification area with a small
// menu for reopening the main surface, checking for updates, and
// quitting.
type Tray struct {
	title    string
	tooltip  string
	handlers Handlers
	logger   *logger.Logger

	quitChan chan struct{}
	quitOnce sync.Once
	ready    chan struct{}
}

// New creates a tray with the given menu handlers.
func New(title, tooltip string, handlers Handlers) *Tray {
	return &Tray{
		title:    title,
		tooltip:  tooltip,
		handlers: handlers,
		logger:   logger.NewComponentLogger("Tray"),
		quitChan: make(chan struct{}),
		ready:    make(chan struct{}),
	}
}

// Run starts the tray event loop. It blocks until Quit and must run on
// the main goroutine on platforms that require it.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Ready is closed once the tray icon and menu are in place.
func (t *Tray) Ready() <-chan struct{} {
	return t.ready
}

// Quit removes the tray icon and unblocks Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle(t.title)
	systray.SetTooltip(t.tooltip)

	openItem := systray.AddMenuItem("Open", "Show the main window")
	checkItem := systray.AddMenuItem("Check for Updates", "Check for a newer version")
	systray.AddSeparator()
	quitItem := systray.AddMenuItem("Quit", "Exit completely")

	t.watch(openItem, t.handlers.OnActivate)
	t.watch(checkItem, t.handlers.OnCheckUpdates)
	t.watch(quitItem, func() {
		if t.handlers.OnQuit != nil {
			t.handlers.OnQuit()
		}
		systray.Quit()
	})

	t.logger.Info("Tray ready")
	close(t.ready)
}

func (t *Tray) onExit() {
	t.quitOnce.Do(func() { close(t.quitChan) })
	t.logger.Info("Tray exited")
}

// watch forwards clicks on a menu item to its handler until the tray
// shuts down.
func (t *Tray) watch(item *systray.MenuItem, onClick func()) {
	go func() {
		for {
			select {
			case <-item.ClickedCh:
				if onClick != nil {
					onClick()
				}
			case <-t.quitChan:
				return
			}
		}
	}()
}
