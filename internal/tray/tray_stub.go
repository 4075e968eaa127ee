//go:build nogui || headless || linux

package tray

import (
	"context"

	"go.uber.org/zap"
)

// App represents the system tray application (stub version)
type App struct {
	ctrl   Controller
	logger *zap.SugaredLogger
}

// New creates a new tray application (stub version)
func New(ctrl Controller, _ Opener, _ *AutostartManager, logger *zap.SugaredLogger) *App {
	return &App{
		ctrl:   ctrl,
		logger: logger.Named("tray"),
	}
}

// Run blocks until the shell quits or ctx ends (stub version - no tray)
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Tray functionality disabled (nogui/headless/linux build)")
	select {
	case <-ctx.Done():
	case <-a.ctrl.Done():
	}
	return nil
}
