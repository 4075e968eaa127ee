// Package shell provides the window implementations the connectivity machine
// drives, plus the local pages they show.
package shell

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Window displays either a local page or a remote URL
type Window interface {
	LoadFile(path string) error
	LoadURL(url string) error
	// Navigated reports every location the window ends up on
	Navigated() <-chan string
	// Current returns the last loaded location
	Current() string
}

// location tracks the current location and fans navigation out to a channel
type location struct {
	mu        sync.RWMutex
	current   string
	navigated chan string
	logger    *zap.SugaredLogger
}

func newLocation(logger *zap.SugaredLogger) *location {
	return &location{
		navigated: make(chan string, 16),
		logger:    logger,
	}
}

func (l *location) set(loc string) {
	l.mu.Lock()
	l.current = loc
	l.mu.Unlock()

	select {
	case l.navigated <- loc:
	default:
		l.logger.Debugw("Navigation channel full, dropping event", "location", loc)
	}
}

func (l *location) get() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// HeadlessWindow only logs what it would show
type HeadlessWindow struct {
	logger *zap.SugaredLogger
	loc    *location
}

// NewHeadlessWindow creates a window with no display
func NewHeadlessWindow(logger *zap.Logger) *HeadlessWindow {
	sugar := logger.Sugar().Named("window")
	return &HeadlessWindow{logger: sugar, loc: newLocation(sugar)}
}

// LoadFile implements Window
func (w *HeadlessWindow) LoadFile(path string) error {
	w.logger.Infow("Showing local page", "path", path)
	w.loc.set(FileURL(path))
	return nil
}

// LoadURL implements Window
func (w *HeadlessWindow) LoadURL(url string) error {
	w.logger.Infow("Showing remote page", "url", url)
	w.loc.set(url)
	return nil
}

// Navigated implements Window
func (w *HeadlessWindow) Navigated() <-chan string {
	return w.loc.navigated
}

// Current implements Window
func (w *HeadlessWindow) Current() string {
	return w.loc.get()
}

// RunNavigationLogger logs navigation to pages of interest until ctx ends or
// the channel closes.
func RunNavigationLogger(ctx context.Context, logger *zap.Logger, navigated <-chan string) {
	log := logger.Sugar().Named("navigation")
	for {
		select {
		case <-ctx.Done():
			return
		case loc, ok := <-navigated:
			if !ok {
				return
			}
			switch ClassifyPage(loc) {
			case PageLogin:
				log.Infow("User navigated to login page", "url", loc)
			case PageCareers:
				log.Infow("User navigated to careers page", "url", loc)
			default:
				log.Debugw("Navigated", "url", loc)
			}
		}
	}
}
