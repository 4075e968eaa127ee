package shell

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"go.uber.org/zap"
)

// BrowserWindow shows pages in the system's default browser
type BrowserWindow struct {
	logger *zap.SugaredLogger
	loc    *location

	// open launches the platform opener; replaced in tests
	open func(target string) error
}

// NewBrowserWindow creates a window backed by the default browser
func NewBrowserWindow(logger *zap.Logger) *BrowserWindow {
	sugar := logger.Sugar().Named("window")
	w := &BrowserWindow{logger: sugar, loc: newLocation(sugar)}
	w.open = w.openBrowser
	return w
}

// LoadFile implements Window
func (w *BrowserWindow) LoadFile(path string) error {
	target := FileURL(path)
	w.logger.Infow("Opening local page in browser", "path", path)
	if err := w.open(target); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	w.loc.set(target)
	return nil
}

// LoadURL implements Window
func (w *BrowserWindow) LoadURL(url string) error {
	w.logger.Infow("Opening URL in browser", "url", url)
	if err := w.open(url); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	w.loc.set(url)
	return nil
}

// Navigated implements Window
func (w *BrowserWindow) Navigated() <-chan string {
	return w.loc.navigated
}

// Current implements Window
func (w *BrowserWindow) Current() string {
	return w.loc.get()
}

// openBrowser hands target to the platform's URL opener
func (w *BrowserWindow) openBrowser(target string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", target}
	case "darwin":
		cmd = "open"
		args = []string{target}
	case "linux", "freebsd", "openbsd", "netbsd":
		if !hasGUIEnvironment() {
			w.logger.Warn("No GUI session detected - attempting to launch browser anyway")
		}
		if _, err := exec.LookPath("xdg-open"); err != nil {
			return fmt.Errorf("xdg-open not found in PATH: %w", err)
		}
		cmd = "xdg-open"
		args = []string{target}
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	execCmd := exec.Command(cmd, args...)
	if err := execCmd.Start(); err != nil {
		return err
	}
	// Reap the opener; it exits once the browser has the URL
	go func() { _ = execCmd.Wait() }()
	return nil
}

// hasGUIEnvironment checks if a GUI environment is available on Linux
func hasGUIEnvironment() bool {
	for _, envVar := range []string{"DISPLAY", "WAYLAND_DISPLAY", "XDG_SESSION_TYPE"} {
		if os.Getenv(envVar) != "" {
			return true
		}
	}
	return false
}
