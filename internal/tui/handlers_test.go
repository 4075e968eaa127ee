package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlKeys(t *testing.T) {
	tests := []struct {
		key    string
		action string
		notice string
	}{
		{"c", "check", "Connection check requested"},
		{"r", "restart", "Server restart requested"},
		{"u", "updates", "Update check requested"},
		{"l", "toggle_local", "Local server fallback enabled"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, ctrl, _ := newTestModel()
			m, cmd := press(m, tt.key)
			require.NotNil(t, cmd)
			m = run(t, m, cmd)

			assert.Equal(t, []string{tt.action}, ctrl.Actions())
			assert.Equal(t, tt.notice, m.notice)
		})
	}
}

func TestQuitCallsController(t *testing.T) {
	m, ctrl, _ := newTestModel()
	_, cmd := press(m, "q")
	require.NotNil(t, cmd)

	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, []string{"quit"}, ctrl.Actions())
}

func TestURLEditSubmits(t *testing.T) {
	m, ctrl, _ := newTestModel()
	m.status.ServerURL = "https://a.example"

	m, _ = press(m, "s")
	assert.Equal(t, ModeURLEdit, m.uiMode)
	assert.Equal(t, "https://a.example", m.urlInput)

	for i := 0; i < len("a.example"); i++ {
		m, _ = press(m, "backspace")
	}
	for _, r := range "b.example" {
		m, _ = press(m, string(r))
	}
	assert.Equal(t, "https://b.example", m.urlInput)

	m, cmd := press(m, "enter")
	assert.Equal(t, ModeNormal, m.uiMode)
	m = run(t, m, cmd)

	assert.Equal(t, "https://b.example", ctrl.serverURL)
	assert.Equal(t, "Server URL saved", m.notice)
}

func TestURLEditRejected(t *testing.T) {
	m, ctrl, _ := newTestModel()
	ctrl.setErr = errors.New("invalid server URL")

	m, _ = press(m, "s")
	m, cmd := press(m, "enter")
	m = run(t, m, cmd)
	require.Error(t, m.err)
	assert.Contains(t, m.View(), "invalid server URL")
}

func TestURLEditCancel(t *testing.T) {
	m, ctrl, _ := newTestModel()
	m, _ = press(m, "s")
	m, cmd := press(m, "esc")
	assert.Nil(t, cmd)
	assert.Equal(t, ModeNormal, m.uiMode)
	assert.Empty(t, ctrl.Actions())
}

func TestKeysInEditModeDoNotTriggerActions(t *testing.T) {
	m, ctrl, _ := newTestModel()
	m, _ = press(m, "s")
	m, _ = press(m, "q")
	m, _ = press(m, "r")
	assert.Equal(t, ModeURLEdit, m.uiMode)
	assert.Empty(t, ctrl.Actions())
}

func TestProbeFilter(t *testing.T) {
	m, _, _ := newTestModel()
	m, cmd := press(m, "3")
	m = run(t, m, cmd)

	m, _ = press(m, "f")
	assert.Equal(t, ModeFilter, m.uiMode)
	for _, r := range "refused" {
		m, _ = press(m, string(r))
	}
	m, _ = press(m, "enter")

	visible := m.visibleProbes()
	require.Len(t, visible, 1)
	assert.Equal(t, "local", visible[0].Endpoint)

	m, _ = press(m, "x")
	assert.Len(t, m.visibleProbes(), 2)
}

func TestFilterOnlyOnProbesTab(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = press(m, "f")
	assert.Equal(t, ModeNormal, m.uiMode)
}

func TestHelpMode(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = press(m, "?")
	assert.Equal(t, ModeHelp, m.uiMode)
	assert.Contains(t, m.View(), "toggle the local server fallback")
	m, _ = press(m, "?")
	assert.Equal(t, ModeNormal, m.uiMode)
}
