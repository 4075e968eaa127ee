package tui

import (
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Suveerkh/CareerMate/internal/appctx"
	"github.com/Suveerkh/CareerMate/internal/history"
)

// MockController records control actions
type MockController struct {
	mu        sync.Mutex
	actions   []string
	status    appctx.Status
	serverURL string
	local     bool
	setErr    error
}

func (m *MockController) record(action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, action)
}

func (m *MockController) CheckConnection() { m.record("check") }
func (m *MockController) RestartServer()   { m.record("restart") }
func (m *MockController) CheckForUpdates() { m.record("updates") }
func (m *MockController) Quit()            { m.record("quit") }

func (m *MockController) SetServerURL(serverURL string) error {
	m.record("set_url")
	if m.setErr != nil {
		return m.setErr
	}
	m.serverURL = serverURL
	return nil
}

func (m *MockController) ToggleLocalServer() (bool, error) {
	m.record("toggle_local")
	m.local = !m.local
	return m.local, nil
}

func (m *MockController) Status() appctx.Status { return m.status }

func (m *MockController) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.actions...)
}

// MockHistory serves fixed records
type MockHistory struct {
	transitions []history.Record
	probes      []history.Record
	err         error
}

func (m *MockHistory) List(kind history.Kind, _ int) ([]history.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	if kind == history.KindProbe {
		return m.probes, nil
	}
	return m.transitions, nil
}

func newTestModel() (model, *MockController, *MockHistory) {
	ctrl := &MockController{status: appctx.Status{
		State:     "serving",
		Serving:   true,
		ServerURL: "https://example.com",
		Version:   "v1.0.0",
	}}
	hist := &MockHistory{
		transitions: []history.Record{
			{Kind: history.KindTransition, From: "splash", To: "serving", Event: "probe_succeeded", URL: "https://example.com"},
		},
		probes: []history.Record{
			{Kind: history.KindProbe, Endpoint: "local", Tier: "local", Outcome: "unreachable", Cause: "refused"},
			{Kind: history.KindProbe, Endpoint: "primary", Tier: "remote", Outcome: "reachable", StatusCode: 200},
		},
	}
	m := NewModel(ctrl, hist, nil, time.Second)
	m.width, m.height = 120, 40
	return m, ctrl, hist
}

// run executes cmd and feeds the resulting message back into the model
func run(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			m = run(t, m, c)
		}
		return m
	}
	if _, ok := msg.(tickMsg); ok {
		return m
	}
	next, _ := m.Update(msg)
	return next.(model)
}

func press(m model, key string) (model, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		msg = tea.KeyMsg{Type: tea.KeyBackspace}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func TestModelInit(t *testing.T) {
	m, _, _ := newTestModel()
	assert.NotNil(t, m.Init())
}

func TestStatusMsgUpdatesModel(t *testing.T) {
	m, ctrl, _ := newTestModel()
	m = run(t, m, fetchStatus(ctrl))

	assert.Equal(t, "serving", m.status.State)
	assert.False(t, m.lastUpdate.IsZero())
}

func TestTabSwitchLoadsHistory(t *testing.T) {
	m, _, _ := newTestModel()

	m, cmd := press(m, "2")
	assert.Equal(t, tabTransitions, m.activeTab)
	m = run(t, m, cmd)
	require.Len(t, m.transitions, 1)

	m, cmd = press(m, "3")
	assert.Equal(t, tabProbes, m.activeTab)
	m = run(t, m, cmd)
	require.Len(t, m.probes, 2)

	m, _ = press(m, "tab")
	assert.Equal(t, tabStatus, m.activeTab)
}

func TestHistoryErrorIsShown(t *testing.T) {
	m, _, hist := newTestModel()
	hist.err = errors.New("journal closed")

	m, cmd := press(m, "2")
	m = run(t, m, cmd)
	require.Error(t, m.err)
	assert.Contains(t, m.View(), "journal closed")
}

func TestCursorBounds(t *testing.T) {
	m, _, _ := newTestModel()
	m, cmd := press(m, "3")
	m = run(t, m, cmd)

	m, _ = press(m, "k")
	assert.Equal(t, 0, m.cursor)
	m, _ = press(m, "j")
	m, _ = press(m, "j")
	assert.Equal(t, 1, m.cursor)
	m, _ = press(m, "g")
	assert.Equal(t, 0, m.cursor)
	m, _ = press(m, "G")
	assert.Equal(t, 1, m.cursor)
}

func TestLocationMsgTracksWindow(t *testing.T) {
	m, _, _ := newTestModel()
	next, _ := m.Update(locationMsg("https://example.com/careers"))
	m = next.(model)
	assert.Equal(t, "https://example.com/careers", m.current)
}

func TestViewBeforeSize(t *testing.T) {
	m, _, _ := newTestModel()
	m.width = 0
	assert.Equal(t, "Loading...", m.View())
}
