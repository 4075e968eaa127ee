package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Suveerkh/CareerMate/internal/appctx"
	"github.com/Suveerkh/CareerMate/internal/history"
)

// tab represents TUI tabs
type tab int

const (
	tabStatus tab = iota
	tabTransitions
	tabProbes
)

// UIMode is the input mode of the model
type UIMode string

const (
	ModeNormal  UIMode = "normal"
	ModeURLEdit UIMode = "url_edit"
	ModeFilter  UIMode = "filter"
	ModeHelp    UIMode = "help"
)

const historyLimit = 200

// Controller is the control surface the TUI drives
type Controller interface {
	CheckConnection()
	RestartServer()
	CheckForUpdates()
	SetServerURL(serverURL string) error
	ToggleLocalServer() (bool, error)
	Status() appctx.Status
	Quit()
}

// HistorySource lists journal records
type HistorySource interface {
	List(kind history.Kind, limit int) ([]history.Record, error)
}

// LocationSource reports what the window shows
type LocationSource interface {
	Current() string
	WaitForLocation() tea.Cmd
}

// model is the main Bubble Tea model
type model struct {
	ctrl     Controller
	history  HistorySource
	location LocationSource

	// UI state
	activeTab tab
	uiMode    UIMode
	cursor    int
	width     int
	height    int

	// URL editing
	urlInput string

	// Probe filter, matched against outcome and tier
	filterQuery string

	// Data
	status      appctx.Status
	current     string
	transitions []history.Record
	probes      []history.Record
	notice      string
	lastUpdate  time.Time
	err         error

	refreshInterval time.Duration
}

// Messages

type statusMsg struct {
	status appctx.Status
}

type historyMsg struct {
	kind    history.Kind
	records []history.Record
}

type noticeMsg string

type locationMsg string

type errMsg struct {
	err error
}

type tickMsg time.Time

// Commands

func fetchStatus(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{ctrl.Status()}
	}
}

func fetchHistory(src HistorySource, kind history.Kind) tea.Cmd {
	if src == nil {
		return nil
	}
	return func() tea.Msg {
		records, err := src.List(kind, historyLimit)
		if err != nil {
			return errMsg{err}
		}
		return historyMsg{kind: kind, records: records}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// actionCmd runs a control action off the update loop and reports a notice
func actionCmd(notice string, fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return noticeMsg(notice)
	}
}

// NewModel creates a new TUI model. history may be nil.
func NewModel(ctrl Controller, hist HistorySource, loc LocationSource, refreshInterval time.Duration) model {
	if refreshInterval <= 0 {
		refreshInterval = time.Second
	}
	return model{
		ctrl:            ctrl,
		history:         hist,
		location:        loc,
		activeTab:       tabStatus,
		uiMode:          ModeNormal,
		refreshInterval: refreshInterval,
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		fetchStatus(m.ctrl),
		tickCmd(m.refreshInterval),
	}
	if m.location != nil {
		cmds = append(cmds, m.location.WaitForLocation())
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case statusMsg:
		m.status = msg.status
		if m.current == "" {
			m.current = msg.status.Location
		}
		m.lastUpdate = time.Now()
		return m, nil

	case historyMsg:
		switch msg.kind {
		case history.KindTransition:
			m.transitions = msg.records
		case history.KindProbe:
			m.probes = msg.records
		}
		m.lastUpdate = time.Now()
		m.err = nil
		if m.cursor > m.maxIndex() {
			m.cursor = m.maxIndex()
		}
		return m, nil

	case locationMsg:
		m.current = string(msg)
		var cmd tea.Cmd
		if m.location != nil {
			cmd = m.location.WaitForLocation()
		}
		return m, tea.Batch(cmd, fetchStatus(m.ctrl))

	case noticeMsg:
		m.notice = string(msg)
		return m, fetchStatus(m.ctrl)

	case errMsg:
		m.err = msg.err
		return m, nil

	case tickMsg:
		return m, tea.Batch(
			m.refreshCmd(),
			tickCmd(m.refreshInterval),
		)
	}

	return m, nil
}

// refreshCmd reloads the status and the history shown by the active tab
func (m model) refreshCmd() tea.Cmd {
	switch m.activeTab {
	case tabTransitions:
		return tea.Batch(fetchStatus(m.ctrl), fetchHistory(m.history, history.KindTransition))
	case tabProbes:
		return tea.Batch(fetchStatus(m.ctrl), fetchHistory(m.history, history.KindProbe))
	default:
		return fetchStatus(m.ctrl)
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, m.quitCmd()
	}

	var cmd tea.Cmd
	switch m.uiMode {
	case ModeURLEdit:
		m, cmd = m.handleURLEditMode(key)
	case ModeFilter:
		m, cmd = m.handleFilterMode(key)
	case ModeHelp:
		m, cmd = m.handleHelpMode(key)
	default:
		m, cmd = m.handleNormalMode(key)
	}
	return m, cmd
}

func (m model) quitCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Quit()
		return tea.Quit()
	}
}

func (m model) maxIndex() int {
	var n int
	switch m.activeTab {
	case tabTransitions:
		n = len(m.transitions)
	case tabProbes:
		n = len(m.visibleProbes())
	}
	if n == 0 {
		return 0
	}
	return n - 1
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	return renderView(m)
}
