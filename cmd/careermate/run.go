package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Suveerkh/CareerMate/internal/appctx"
	"github.com/Suveerkh/CareerMate/internal/config"
	"github.com/Suveerkh/CareerMate/internal/logs"
	"github.com/Suveerkh/CareerMate/internal/shell"
	"github.com/Suveerkh/CareerMate/internal/tray"
	"github.com/Suveerkh/CareerMate/internal/tui"
)

const tuiRefreshInterval = time.Second

// loadSettings resolves runtime settings and fills in the backend directory
func loadSettings(v *viper.Viper) (config.Settings, error) {
	s, err := config.LoadSettings(v)
	if err != nil {
		return config.Settings{}, &configError{err}
	}
	if s.BackendDir == "" {
		if exe, err := os.Executable(); err == nil {
			s.BackendDir = filepath.Dir(exe)
		}
	}
	return s, nil
}

// setupLogger builds the shell logger. The TUI owns the terminal, so console
// output is only enabled in the other modes.
func setupLogger(s config.Settings) (*zap.Logger, error) {
	logCfg := logs.DefaultConfig()
	logCfg.Level = s.LogLevel
	logCfg.EnableFile = s.LogToFile
	logCfg.LogDir = s.LogDir
	logCfg.EnableConsole = s.UIMode != config.UIModeTUI

	if !logCfg.EnableFile && !logCfg.EnableConsole {
		logCfg.EnableFile = true
	}
	return logs.SetupLogger(logCfg)
}

func runShell(_ *cobra.Command, v *viper.Viper) error {
	s, err := loadSettings(v)
	if err != nil {
		return err
	}

	logger, err := setupLogger(s)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting CareerMate",
		zap.String("version", version),
		zap.String("ui", s.UIMode),
		zap.String("log_level", s.LogLevel),
		zap.Bool("log_to_file", s.LogToFile))

	var (
		window    shell.Window
		tuiWindow *tui.Window
	)
	switch s.UIMode {
	case config.UIModeTUI:
		tuiWindow = tui.NewWindow(logger)
		window = tuiWindow
	case config.UIModeHeadless:
		window = shell.NewHeadlessWindow(logger)
	default:
		window = shell.NewBrowserWindow(logger)
	}

	app, err := appctx.NewApplicationContext(appctx.Options{
		Settings: s,
		Window:   window,
		Version:  version,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("Failed to release resources", zap.Error(err))
		}
	}()

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := make(chan error, 1)
	go func() {
		runErr <- app.Run(ctx)
	}()

	switch s.UIMode {
	case config.UIModeTUI:
		var hist tui.HistorySource
		if app.History != nil {
			hist = app.History
		}
		if err := tui.Run(ctx, app, hist, tuiWindow, tuiRefreshInterval); err != nil {
			logger.Error("Terminal UI failed", zap.Error(err))
		}
		app.Quit()

	case config.UIModeBrowser:
		// The tray must own the main thread on macOS
		auto, err := tray.NewAutostartManager(s.LogDir)
		if err != nil {
			logger.Debug("Autostart unavailable", zap.Error(err))
			auto = nil
		}
		trayApp := tray.New(app, window, auto, logger.Sugar())
		if err := trayApp.Run(ctx); err != nil {
			logger.Error("System tray failed", zap.Error(err))
		}
		app.Quit()
	}

	return <-runErr
}
