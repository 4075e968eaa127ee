package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	// AppDirName is the per-user application directory name
	AppDirName = "CareerMate"

	// ConfigFileName is the name of the persisted configuration file
	ConfigFileName = "config.json"
)

// DefaultDataDir returns the per-user writable directory for config, history and views
func DefaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		homeDir, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", fmt.Errorf("failed to resolve user config directory: %w", err)
		}
		base = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(base, AppDirName), nil
}

// GetConfigPath returns the path to the configuration file in the data directory
func GetConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFileName)
}

// Store owns the persisted configuration. Every mutation is written to disk
// before the setter returns.
type Store struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	cfg     *Config
	loadErr error
}

// Open loads the configuration at path, creating it with defaults when it does
// not exist. A malformed file is not fatal: the store falls back to defaults,
// leaves the file untouched and reports the problem through LoadError.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		path:   path,
		logger: logger,
		cfg:    DefaultConfig(),
	}

	cfg, err := loadConfigFile(path)
	switch {
	case err == nil:
		s.cfg = cfg
		logger.Info("Loaded configuration",
			zap.String("path", path),
			zap.String("server_url", cfg.ServerURL),
			zap.Bool("use_local_server", cfg.UseLocalServer))

	case errors.Is(err, os.ErrNotExist):
		if err := SaveConfig(s.cfg, path); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		logger.Info("Created default configuration file", zap.String("path", path))

	default:
		s.loadErr = err
		logger.Warn("Failed to load configuration, using defaults",
			zap.String("path", path),
			zap.Error(err))
	}

	return s, nil
}

// Load reads the configuration at path without creating or modifying the
// file. A missing file yields defaults with exists false. A malformed file
// yields defaults together with the load error.
func Load(path string) (cfg *Config, exists bool, err error) {
	cfg, err = loadConfigFile(path)
	switch {
	case err == nil:
		return cfg, true, nil
	case errors.Is(err, os.ErrNotExist):
		return DefaultConfig(), false, nil
	default:
		return DefaultConfig(), true, err
	}
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// LoadError returns the error encountered while loading, if defaults were used instead
func (s *Store) LoadError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Get returns a copy of the current configuration
func (s *Store) Get() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// SetServerURL validates and persists a new primary server URL
func (s *Store) SetServerURL(serverURL string) error {
	serverURL = strings.TrimSpace(serverURL)
	if err := ValidateServerURL(serverURL); err != nil {
		return err
	}
	return s.Update(func(c *Config) {
		c.ServerURL = serverURL
	})
}

// SetUseLocalServer persists the local fallback toggle
func (s *Store) SetUseLocalServer(enabled bool) error {
	return s.Update(func(c *Config) {
		c.UseLocalServer = enabled
	})
}

// Update applies fn to a copy of the configuration and writes it out. The
// in-memory value only changes if the write succeeds.
func (s *Store) Update(fn func(c *Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.Clone()
	fn(next)

	if err := SaveConfig(next, s.path); err != nil {
		return err
	}

	s.cfg = next
	s.loadErr = nil
	s.logger.Info("Configuration updated",
		zap.String("path", s.path),
		zap.String("server_url", next.ServerURL),
		zap.Bool("use_local_server", next.UseLocalServer))
	return nil
}

// loadConfigFile reads path and merges it over the defaults
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	// Empty file is treated as no configuration
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		// Syntax errors are reported by encoding/json before UnmarshalJSON runs
		if !errors.Is(err, ErrMalformed) {
			err = fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as indented JSON
func SaveConfig(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
