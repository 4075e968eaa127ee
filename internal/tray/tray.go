//go:build !nogui && !headless && !linux

package tray

import (
	"context"
	"runtime"
	"sync"
	"time"

	"fyne.io/systray"
	"go.uber.org/zap"

	"github.com/Suveerkh/CareerMate/internal/config"
)

const statusRefreshInterval = 2 * time.Second

// App represents the system tray application
type App struct {
	ctrl   Controller
	opener Opener
	logger *zap.SugaredLogger
	auto   *AutostartManager

	// Menu items for dynamic updates
	statusItem    *systray.MenuItem
	openItem      *systray.MenuItem
	checkItem     *systray.MenuItem
	restartItem   *systray.MenuItem
	updateItem    *systray.MenuItem
	serverItem    *systray.MenuItem
	resetURLItem  *systray.MenuItem
	localItem     *systray.MenuItem
	autostartItem *systray.MenuItem
	quitItem      *systray.MenuItem

	mu        sync.Mutex
	lastState MenuState
	lastIcon  string
}

// New creates a new tray application. auto may be nil.
func New(ctrl Controller, opener Opener, auto *AutostartManager, logger *zap.SugaredLogger) *App {
	return &App{
		ctrl:   ctrl,
		opener: opener,
		auto:   auto,
		logger: logger.Named("tray"),
	}
}

// Run starts the tray and blocks until the shell quits or ctx ends. It must be
// called from the main goroutine.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting system tray application")

	go func() {
		select {
		case <-ctx.Done():
		case <-a.ctrl.Done():
		}
		a.logger.Info("Shell stopping, quitting systray")
		systray.Quit()
	}()

	systray.Run(func() { a.onReady(ctx) }, a.onExit)
	return nil
}

func (a *App) onReady(ctx context.Context) {
	systray.SetTitle("CareerMate")

	a.statusItem = systray.AddMenuItem("Status: Starting...", "Connection status")
	a.statusItem.Disable()
	a.openItem = systray.AddMenuItem("Open CareerMate", "Open the active page")

	systray.AddSeparator()

	a.checkItem = systray.AddMenuItem("Check Connection", "Check the connection now")
	a.restartItem = systray.AddMenuItem("Restart Server", "Restart the local server")
	a.updateItem = systray.AddMenuItem("Check for Updates", "Check for a newer CareerMate release")

	systray.AddSeparator()

	settings := systray.AddMenuItem("Settings", "CareerMate settings")
	a.serverItem = settings.AddSubMenuItem("Server: ", "Configured server URL")
	a.serverItem.Disable()
	a.resetURLItem = settings.AddSubMenuItem("Reset Server URL", "Use the default server URL")
	a.localItem = settings.AddSubMenuItemCheckbox("Use Local Server", "Fall back to the local server", false)
	if runtime.GOOS == osDarwin && a.auto != nil {
		a.autostartItem = settings.AddSubMenuItemCheckbox("Start at Login", "Launch CareerMate at login", a.auto.IsEnabled())
	}

	systray.AddSeparator()
	a.quitItem = systray.AddMenuItem("Quit", "Quit CareerMate")

	a.refresh()
	go a.handleClicks(ctx)
	go a.refreshLoop(ctx)
}

func (a *App) onExit() {
	a.logger.Info("System tray exited")
	a.ctrl.Quit()
}

func (a *App) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(statusRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.ctrl.Done():
			return
		case <-ticker.C:
			a.refresh()
		}
	}
}

// refresh applies the current status to the menu
func (a *App) refresh() {
	ms := BuildMenuState(a.ctrl.Status())

	a.mu.Lock()
	defer a.mu.Unlock()

	if ms == a.lastState {
		return
	}
	a.lastState = ms

	a.statusItem.SetTitle(ms.StatusText)
	a.serverItem.SetTitle(ms.ServerText)
	a.updateItem.SetTitle(ms.UpdateText)
	systray.SetTooltip(ms.Tooltip)

	if ms.LocalOn {
		a.localItem.Check()
	} else {
		a.localItem.Uncheck()
	}
	if ms.CanOpen {
		a.openItem.Enable()
	} else {
		a.openItem.Disable()
	}

	if key := iconKeyOf(ms.IconColor); key != a.lastIcon {
		a.lastIcon = key
		if icon := renderIcon(ms.IconColor); icon != nil {
			systray.SetIcon(icon)
		}
	}
}

func (a *App) handleClicks(ctx context.Context) {
	var autostartCh <-chan struct{}
	if a.autostartItem != nil {
		autostartCh = a.autostartItem.ClickedCh
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-a.openItem.ClickedCh:
			a.mu.Lock()
			target := a.lastState.OpenURL
			a.mu.Unlock()
			if target != "" {
				if err := a.opener.LoadURL(target); err != nil {
					a.logger.Warnw("Failed to open page", "url", target, "error", err)
				}
			}

		case <-a.checkItem.ClickedCh:
			a.ctrl.CheckConnection()

		case <-a.restartItem.ClickedCh:
			a.ctrl.RestartServer()

		case <-a.updateItem.ClickedCh:
			a.ctrl.CheckForUpdates()

		case <-a.resetURLItem.ClickedCh:
			if err := a.ctrl.SetServerURL(config.DefaultServerURL); err != nil {
				a.logger.Warnw("Failed to reset server URL", "error", err)
			}
			a.refresh()

		case <-a.localItem.ClickedCh:
			if _, err := a.ctrl.ToggleLocalServer(); err != nil {
				a.logger.Warnw("Failed to toggle local server", "error", err)
			}
			a.refresh()

		case <-autostartCh:
			a.toggleAutostart()

		case <-a.quitItem.ClickedCh:
			a.logger.Info("Quit selected from tray")
			a.ctrl.Quit()
			return
		}
	}
}

func (a *App) toggleAutostart() {
	if a.auto.IsEnabled() {
		if err := a.auto.Disable(); err != nil {
			a.logger.Warnw("Failed to disable autostart", "error", err)
			return
		}
		a.autostartItem.Uncheck()
		return
	}
	if err := a.auto.Enable(); err != nil {
		a.logger.Warnw("Failed to enable autostart", "error", err)
		return
	}
	a.autostartItem.Check()
}
