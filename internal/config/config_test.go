package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
	assert.True(t, cfg.UseLocalServer)
	assert.NoError(t, cfg.Validate())
}

func TestConfigUnmarshalMergesOverDefaults(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantURL   string
		wantLocal bool
	}{
		{
			name:      "empty object keeps defaults",
			input:     `{}`,
			wantURL:   DefaultServerURL,
			wantLocal: true,
		},
		{
			name:      "only serverUrl",
			input:     `{"serverUrl":"https://example.com"}`,
			wantURL:   "https://example.com",
			wantLocal: true,
		},
		{
			name:      "only useLocalServer",
			input:     `{"useLocalServer":false}`,
			wantURL:   DefaultServerURL,
			wantLocal: false,
		},
		{
			name:      "null keeps default",
			input:     `{"serverUrl":null}`,
			wantURL:   DefaultServerURL,
			wantLocal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			require.NoError(t, json.Unmarshal([]byte(tt.input), cfg))
			assert.Equal(t, tt.wantURL, cfg.ServerURL)
			assert.Equal(t, tt.wantLocal, cfg.UseLocalServer)
		})
	}
}

func TestConfigPreservesUnknownKeys(t *testing.T) {
	cfg := DefaultConfig()
	input := `{"serverUrl":"https://example.com","theme":"dark","window":{"width":1200}}`
	require.NoError(t, json.Unmarshal([]byte(input), cfg))

	theme, ok := cfg.Extra("theme")
	require.True(t, ok)
	assert.JSONEq(t, `"dark"`, string(theme))

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"serverUrl":"https://example.com","useLocalServer":true,"theme":"dark","window":{"width":1200}}`,
		string(out))

	clone := cfg.Clone()
	_, ok = clone.Extra("window")
	assert.True(t, ok)
}

func TestConfigUnmarshalRejectsMalformed(t *testing.T) {
	for _, input := range []string{`[1,2]`, `{"useLocalServer":"yes"}`, `"text"`} {
		cfg := DefaultConfig()
		err := json.Unmarshal([]byte(input), cfg)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", input)
	}
}

func TestValidateServerURL(t *testing.T) {
	assert.NoError(t, ValidateServerURL("https://example.com"))
	assert.NoError(t, ValidateServerURL("http://localhost:5001/careers"))

	for _, bad := range []string{"", "   ", "example.com", "ftp://example.com", "https://"} {
		assert.ErrorIs(t, ValidateServerURL(bad), ErrInvalidServerURL, "url %q", bad)
	}
}

func TestOpenCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	store, err := Open(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NoError(t, store.LoadError())
	assert.Equal(t, DefaultServerURL, store.Get().ServerURL)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"serverUrl":"`+DefaultServerURL+`","useLocalServer":true}`, string(data))
}

func TestOpenMalformedFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0600))

	store, err := Open(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.ErrorIs(t, store.LoadError(), ErrMalformed)
	assert.Equal(t, DefaultConfig().ServerURL, store.Get().ServerURL)

	// The broken file is left for the user to inspect
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(data))
}

func TestLoadDoesNotCreateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	cfg, exists, err := Load(path)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, DefaultServerURL, cfg.ServerURL)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Dir(path))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadReadsExistingAndMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	require.NoError(t, os.WriteFile(path, []byte(`{"serverUrl":"https://example.com","useLocalServer":false}`), 0600))
	cfg, exists, err := Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "https://example.com", cfg.ServerURL)
	assert.False(t, cfg.UseLocalServer)

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0600))
	cfg, exists, err = Load(path)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.True(t, exists)
	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
}

func TestStoreSettersPersistImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"serverUrl":"https://old.example.com","extraKey":42}`), 0600))

	store, err := Open(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, store.SetServerURL(" https://new.example.com "))
	require.NoError(t, store.SetUseLocalServer(false))

	reopened, err := Open(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	cfg := reopened.Get()
	assert.Equal(t, "https://new.example.com", cfg.ServerURL)
	assert.False(t, cfg.UseLocalServer)

	extra, ok := cfg.Extra("extraKey")
	require.True(t, ok)
	assert.JSONEq(t, `42`, string(extra))
}

func TestStoreRejectsInvalidURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	store, err := Open(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	err = store.SetServerURL("not a url")
	assert.ErrorIs(t, err, ErrInvalidServerURL)
	assert.Equal(t, DefaultServerURL, store.Get().ServerURL)
}

func TestStoreGetReturnsCopy(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), ConfigFileName), zaptest.NewLogger(t))
	require.NoError(t, err)

	cfg := store.Get()
	cfg.ServerURL = "https://mutated.example.com"
	assert.Equal(t, DefaultServerURL, store.Get().ServerURL)
}

func TestLoadSettingsFromEnvironment(t *testing.T) {
	t.Setenv("CAREERMATE_PROBE_INTERVAL", "10s")
	t.Setenv("CAREERMATE_BACKEND_PORT", "6001")
	t.Setenv("CAREERMATE_UI", "HEADLESS")
	t.Setenv("CAREERMATE_DATA_DIR", t.TempDir())

	s, err := LoadSettings(NewViper())
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, s.ProbeInterval)
	assert.Equal(t, 5*time.Second, s.ProbeTimeout)
	assert.Equal(t, 6001, s.BackendPort)
	assert.Equal(t, UIModeHeadless, s.UIMode)
	assert.Equal(t, "http://localhost:6001", s.LocalURL())
	assert.Equal(t, DefaultSettings().Mirrors, s.Mirrors)
}

func TestSettingsValidate(t *testing.T) {
	base := DefaultSettings()
	assert.NoError(t, base.Validate())

	bad := base
	bad.BackendPort = 70000
	assert.Error(t, bad.Validate())

	bad = base
	bad.ProbeTimeout = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.UIMode = "electron"
	assert.Error(t, bad.Validate())

	bad = base
	bad.BackendCommand = " "
	assert.Error(t, bad.Validate())
}
