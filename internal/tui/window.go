package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Suveerkh/CareerMate/internal/shell"
)

// Window is a shell.Window rendered by the terminal UI. Loads only record the
// location; the model picks changes up through WaitForLocation.
type Window struct {
	logger *zap.SugaredLogger

	mu      sync.RWMutex
	current string

	changed   chan struct{}
	navigated chan string
}

var _ shell.Window = (*Window)(nil)

// NewWindow creates a terminal window
func NewWindow(logger *zap.Logger) *Window {
	return &Window{
		logger:    logger.Sugar().Named("tui-window"),
		changed:   make(chan struct{}, 1),
		navigated: make(chan string, 16),
	}
}

// LoadFile implements shell.Window
func (w *Window) LoadFile(path string) error {
	w.set(shell.FileURL(path))
	return nil
}

// LoadURL implements shell.Window
func (w *Window) LoadURL(url string) error {
	w.set(url)
	return nil
}

// Navigated implements shell.Window
func (w *Window) Navigated() <-chan string {
	return w.navigated
}

// Current implements shell.Window
func (w *Window) Current() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *Window) set(loc string) {
	w.mu.Lock()
	w.current = loc
	w.mu.Unlock()

	w.logger.Debugw("Location changed", "location", loc)

	select {
	case w.changed <- struct{}{}:
	default:
	}
	select {
	case w.navigated <- loc:
	default:
	}
}

// WaitForLocation blocks until the location changes and reports it
func (w *Window) WaitForLocation() tea.Cmd {
	return func() tea.Msg {
		<-w.changed
		return locationMsg(w.Current())
	}
}
