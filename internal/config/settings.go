package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// UI modes for the window collaborator
const (
	UIModeBrowser  = "browser"
	UIModeTUI      = "tui"
	UIModeHeadless = "headless"
)

// Setting keys shared by flags, environment variables and viper defaults.
// Environment variables use the CAREERMATE_ prefix with dashes replaced by
// underscores, e.g. CAREERMATE_PROBE_INTERVAL.
const (
	KeyDataDir            = "data-dir"
	KeyProbeInterval      = "probe-interval"
	KeyProbeTimeout       = "probe-timeout"
	KeyBackendPort        = "backend-port"
	KeyBackendCommand     = "backend-command"
	KeyBackendArgs        = "backend-args"
	KeyBackendDir         = "backend-dir"
	KeyStopGracePeriod    = "stop-grace-period"
	KeyLocalHost          = "local-host"
	KeyLocalLandingPath   = "local-landing-path"
	KeyMirrors            = "mirrors"
	KeyInternetSites      = "internet-sites"
	KeyUpdateRepo         = "update-repo"
	KeyDiagnosticsListen  = "diagnostics-listen"
	KeyTracingEndpoint    = "tracing-endpoint"
	KeyUIMode             = "ui"
	KeyLogLevel           = "log-level"
	KeyLogToFile          = "log-to-file"
	KeyLogDir             = "log-dir"
	KeyNotifications      = "notifications"
	KeyEagerBackendLaunch = "eager-backend"

	envPrefix = "CAREERMATE"
)

// Settings are runtime knobs that are not persisted to the user config file
type Settings struct {
	DataDir string

	ProbeInterval time.Duration
	ProbeTimeout  time.Duration

	BackendPort        int
	BackendCommand     string
	BackendArgs        []string
	BackendDir         string
	StopGracePeriod    time.Duration
	EagerBackendLaunch bool

	LocalHost        string
	LocalLandingPath string
	Mirrors          []string
	InternetSites    []string

	UpdateRepo        string
	DiagnosticsListen string
	TracingEndpoint   string
	UIMode            string
	Notifications     bool

	LogLevel  string
	LogToFile bool
	LogDir    string
}

// DefaultSettings returns the settings used when no flag or env overrides them
func DefaultSettings() Settings {
	return Settings{
		ProbeInterval:      5 * time.Second,
		ProbeTimeout:       5 * time.Second,
		BackendPort:        5001,
		BackendCommand:     "python3",
		BackendArgs:        []string{"-u", "app.py"},
		StopGracePeriod:    5 * time.Second,
		EagerBackendLaunch: true,
		LocalHost:          "localhost",
		LocalLandingPath:   "/careers",
		Mirrors: []string{
			"http://localhost:5001/careers",
		},
		InternetSites: []string{
			"https://www.google.com",
			"https://www.cloudflare.com",
			"https://www.apple.com",
			"https://www.microsoft.com",
		},
		UpdateRepo:    "Suveerkh/CareerMate",
		UIMode:        UIModeBrowser,
		Notifications: true,
		LogLevel:      "info",
		LogToFile:     true,
	}
}

// LocalURL is the base URL of the local backend
func (s Settings) LocalURL() string {
	return fmt.Sprintf("http://%s:%d", s.LocalHost, s.BackendPort)
}

// Validate rejects settings that would make the shell misbehave
func (s Settings) Validate() error {
	if s.ProbeInterval <= 0 {
		return fmt.Errorf("%s must be positive", KeyProbeInterval)
	}
	if s.ProbeTimeout <= 0 {
		return fmt.Errorf("%s must be positive", KeyProbeTimeout)
	}
	if s.BackendPort <= 0 || s.BackendPort > 65535 {
		return fmt.Errorf("%s out of range: %d", KeyBackendPort, s.BackendPort)
	}
	if strings.TrimSpace(s.BackendCommand) == "" {
		return fmt.Errorf("%s must not be empty", KeyBackendCommand)
	}
	for _, m := range s.Mirrors {
		if _, err := url.Parse(m); err != nil {
			return fmt.Errorf("invalid mirror %q: %w", m, err)
		}
	}
	switch s.UIMode {
	case UIModeBrowser, UIModeTUI, UIModeHeadless:
	default:
		return fmt.Errorf("unknown %s mode %q", KeyUIMode, s.UIMode)
	}
	return nil
}

// NewViper returns a viper instance with defaults and environment handling set up
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	d := DefaultSettings()
	v.SetDefault(KeyDataDir, "")
	v.SetDefault(KeyProbeInterval, d.ProbeInterval)
	v.SetDefault(KeyProbeTimeout, d.ProbeTimeout)
	v.SetDefault(KeyBackendPort, d.BackendPort)
	v.SetDefault(KeyBackendCommand, d.BackendCommand)
	v.SetDefault(KeyBackendArgs, d.BackendArgs)
	v.SetDefault(KeyBackendDir, "")
	v.SetDefault(KeyStopGracePeriod, d.StopGracePeriod)
	v.SetDefault(KeyEagerBackendLaunch, d.EagerBackendLaunch)
	v.SetDefault(KeyLocalHost, d.LocalHost)
	v.SetDefault(KeyLocalLandingPath, d.LocalLandingPath)
	v.SetDefault(KeyMirrors, d.Mirrors)
	v.SetDefault(KeyInternetSites, d.InternetSites)
	v.SetDefault(KeyUpdateRepo, d.UpdateRepo)
	v.SetDefault(KeyDiagnosticsListen, "")
	v.SetDefault(KeyTracingEndpoint, "")
	v.SetDefault(KeyUIMode, d.UIMode)
	v.SetDefault(KeyNotifications, d.Notifications)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogToFile, d.LogToFile)
	v.SetDefault(KeyLogDir, "")
	return v
}

// LoadSettings reads settings from v, resolving the data directory when unset
func LoadSettings(v *viper.Viper) (Settings, error) {
	s := Settings{
		DataDir:            v.GetString(KeyDataDir),
		ProbeInterval:      v.GetDuration(KeyProbeInterval),
		ProbeTimeout:       v.GetDuration(KeyProbeTimeout),
		BackendPort:        v.GetInt(KeyBackendPort),
		BackendCommand:     v.GetString(KeyBackendCommand),
		BackendArgs:        v.GetStringSlice(KeyBackendArgs),
		BackendDir:         v.GetString(KeyBackendDir),
		StopGracePeriod:    v.GetDuration(KeyStopGracePeriod),
		EagerBackendLaunch: v.GetBool(KeyEagerBackendLaunch),
		LocalHost:          v.GetString(KeyLocalHost),
		LocalLandingPath:   v.GetString(KeyLocalLandingPath),
		Mirrors:            v.GetStringSlice(KeyMirrors),
		InternetSites:      v.GetStringSlice(KeyInternetSites),
		UpdateRepo:         v.GetString(KeyUpdateRepo),
		DiagnosticsListen:  v.GetString(KeyDiagnosticsListen),
		TracingEndpoint:    v.GetString(KeyTracingEndpoint),
		UIMode:             strings.ToLower(v.GetString(KeyUIMode)),
		Notifications:      v.GetBool(KeyNotifications),
		LogLevel:           v.GetString(KeyLogLevel),
		LogToFile:          v.GetBool(KeyLogToFile),
		LogDir:             v.GetString(KeyLogDir),
	}

	if s.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return Settings{}, err
		}
		s.DataDir = dir
	}

	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}
