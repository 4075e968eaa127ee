package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Suveerkh/CareerMate/internal/candidate"
	"github.com/Suveerkh/CareerMate/internal/config"
	"github.com/Suveerkh/CareerMate/internal/connectivity"
	"github.com/Suveerkh/CareerMate/internal/history"
	"github.com/Suveerkh/CareerMate/internal/probe"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigSetAndShow(t *testing.T) {
	dataDir := t.TempDir()

	_, err := execute(t, "config", "set", "server-url", "https://example.com", "--data-dir", dataDir)
	require.NoError(t, err)
	_, err = execute(t, "config", "set", "use-local-server", "false", "--data-dir", dataDir)
	require.NoError(t, err)

	out, err := execute(t, "config", "show", "--data-dir", dataDir)
	require.NoError(t, err)

	var shown struct {
		Path   string          `json:"path"`
		Config json.RawMessage `json:"config"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, config.GetConfigPath(dataDir), shown.Path)
	assert.JSONEq(t, `{"serverUrl":"https://example.com","useLocalServer":false}`, string(shown.Config))
}

func TestConfigShowLeavesDataDirUntouched(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "fresh")

	out, err := execute(t, "config", "show", "--data-dir", dataDir)
	require.NoError(t, err)

	var shown struct {
		Exists bool          `json:"exists"`
		Config config.Config `json:"config"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.False(t, shown.Exists)
	assert.Equal(t, config.DefaultServerURL, shown.Config.ServerURL)

	_, statErr := os.Stat(dataDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConfigSetRejectsBadValues(t *testing.T) {
	dataDir := t.TempDir()

	_, err := execute(t, "config", "set", "server-url", "ftp://nope", "--data-dir", dataDir)
	require.Error(t, err)
	assert.Equal(t, ExitCodeConfigError, exitCodeFor(err))

	_, err = execute(t, "config", "set", "use-local-server", "maybe", "--data-dir", dataDir)
	require.Error(t, err)

	_, err = execute(t, "config", "set", "colour", "blue", "--data-dir", dataDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown setting")
}

func TestHistoryEmpty(t *testing.T) {
	out, err := execute(t, "history", "--data-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No history recorded yet")
}

func TestHistoryListsRecords(t *testing.T) {
	dataDir := t.TempDir()
	store, err := history.Open(dataDir, zaptest.NewLogger(t), history.Options{SessionID: "s1"})
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, store.RecordTransition(connectivity.Transition{
		From: connectivity.StateSplash, To: connectivity.StateServing,
		Event: connectivity.EventProbeSucceeded, Endpoint: "https://example.com", Timestamp: now,
	}))
	require.NoError(t, store.RecordProbe(connectivity.ProbeRecord{
		Endpoint:  candidate.Endpoint{Name: "local", URL: "http://localhost:5001", Tier: candidate.TierLocal},
		Outcome:   probe.Outcome{Kind: probe.KindUnreachable, Cause: probe.CauseRefused},
		Timestamp: now,
	}))
	require.NoError(t, store.Close())

	out, err := execute(t, "history", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "splash")
	assert.Contains(t, out, "https://example.com")

	out, err = execute(t, "history", "--kind", "probe", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "refused")
	assert.Contains(t, out, "unreachable")

	out, err = execute(t, "history", "--json", "--data-dir", dataDir)
	require.NoError(t, err)
	var records []history.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "serving", records[0].To)
}

func TestHistoryRejectsUnknownKind(t *testing.T) {
	_, err := execute(t, "history", "--kind", "clicks", "--data-dir", t.TempDir())
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "CareerMate "))
}

func TestRunRejectsInvalidSettings(t *testing.T) {
	_, err := execute(t, "run", "--data-dir", t.TempDir(), "--ui", "hologram")
	require.Error(t, err)
	assert.Equal(t, ExitCodeConfigError, exitCodeFor(err))
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, ExitCodeSuccess, exitCodeFor(nil))
	assert.Equal(t, ExitCodeGeneralError, exitCodeFor(errors.New("boom")))
	assert.Equal(t, ExitCodeDBLocked, exitCodeFor(fmt.Errorf("open: %w", history.ErrInUse)))
	assert.Equal(t, ExitCodeConfigError, exitCodeFor(&configError{errors.New("bad")}))

	assert.Equal(t, "Configuration error", exitCodeDescription(ExitCodeConfigError))
	assert.Equal(t, "Unknown error", exitCodeDescription(42))
}
