package tray

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	osDarwin = "darwin"

	launchAgentLabel = "com.careermate.shell"

	launchAgentTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>%s</string>
    <key>ProgramArguments</key>
    <array>
        <string>%s</string>
        <string>run</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
    <key>StandardOutPath</key>
    <string>%s/launchd.log</string>
    <key>StandardErrorPath</key>
    <string>%s/launchd-error.log</string>
    <key>WorkingDirectory</key>
    <string>%s</string>
    <key>EnvironmentVariables</key>
    <dict>
        <key>PATH</key>
        <string>%s</string>
        <key>HOME</key>
        <string>%s</string>
    </dict>
</dict>
</plist>`
)

// AutostartManager installs a macOS launch agent that starts the shell at login
type AutostartManager struct {
	executablePath string
	logDir         string
	workingDir     string
	homeDir        string
}

// NewAutostartManager creates a new autostart manager
func NewAutostartManager(logDir string) (*AutostartManager, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	// Resolve symlinks to get the actual executable path
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable path: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	if logDir == "" {
		logDir = filepath.Join(homeDir, "Library", "Logs", "CareerMate")
	}

	return &AutostartManager{
		executablePath: execPath,
		logDir:         logDir,
		workingDir:     filepath.Dir(execPath),
		homeDir:        homeDir,
	}, nil
}

func (m *AutostartManager) plistPath() string {
	return filepath.Join(m.homeDir, "Library", "LaunchAgents", launchAgentLabel+".plist")
}

// discoverPath builds a PATH for the launch agent. launchd starts agents with
// a minimal PATH, and the local backend needs python3.
func (m *AutostartManager) discoverPath() string {
	candidates := []string{
		"/opt/homebrew/bin", // Apple Silicon
		"/usr/local/bin",    // Intel
		filepath.Join(m.homeDir, ".pyenv", "shims"),
		filepath.Join(m.homeDir, ".pyenv", "bin"),
		filepath.Join(m.homeDir, ".local", "bin"),
		"/Library/Frameworks/Python.framework/Versions/Current/bin",
		"/usr/bin",
		"/bin",
		"/usr/sbin",
		"/sbin",
	}

	var valid []string
	seen := make(map[string]bool)
	for _, p := range candidates {
		if seen[p] || !pathExists(p) {
			continue
		}
		seen[p] = true
		valid = append(valid, p)
	}
	return strings.Join(valid, ":")
}

// renderPlist returns the launch agent definition
func (m *AutostartManager) renderPlist() string {
	return fmt.Sprintf(launchAgentTemplate,
		launchAgentLabel,
		m.executablePath,
		m.logDir,
		m.logDir,
		m.workingDir,
		m.discoverPath(),
		m.homeDir,
	)
}

// IsEnabled checks if autostart is currently enabled
func (m *AutostartManager) IsEnabled() bool {
	if runtime.GOOS != osDarwin {
		return false
	}
	return pathExists(m.plistPath())
}

// Enable writes and loads the launch agent
func (m *AutostartManager) Enable() error {
	if runtime.GOOS != osDarwin {
		return fmt.Errorf("autostart is only supported on macOS")
	}

	if err := os.MkdirAll(filepath.Dir(m.plistPath()), 0755); err != nil {
		return fmt.Errorf("failed to create LaunchAgents directory: %w", err)
	}
	if err := os.MkdirAll(m.logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	if err := os.WriteFile(m.plistPath(), []byte(m.renderPlist()), 0600); err != nil {
		return fmt.Errorf("failed to write plist file: %w", err)
	}

	cmd := exec.Command("launchctl", "load", "-w", m.plistPath())
	if output, err := cmd.CombinedOutput(); err != nil {
		if !strings.Contains(string(output), "already loaded") {
			return fmt.Errorf("failed to load launch agent: %w, output: %s", err, output)
		}
	}
	return nil
}

// Disable unloads and removes the launch agent
func (m *AutostartManager) Disable() error {
	if runtime.GOOS != osDarwin {
		return fmt.Errorf("autostart is only supported on macOS")
	}

	// Unloading a missing agent fails; removing the file is what matters
	_ = exec.Command("launchctl", "unload", "-w", m.plistPath()).Run()

	if err := os.Remove(m.plistPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove plist file: %w", err)
	}
	return nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
