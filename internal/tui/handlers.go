package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// handleNormalMode handles all input when in normal navigation mode
func (m model) handleNormalMode(key string) (model, tea.Cmd) {
	switch key {
	// Quit
	case "q":
		return m, m.quitCmd()

	// Tab switching
	case "1":
		return m.switchTab(tabStatus)

	case "2":
		return m.switchTab(tabTransitions)

	case "3":
		return m.switchTab(tabProbes)

	case "tab":
		return m.switchTab((m.activeTab + 1) % 3)

	// Help
	case "?":
		m.uiMode = ModeHelp
		return m, nil

	// Manual refresh
	case " ", "space":
		return m, m.refreshCmd()

	// Navigation
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < m.maxIndex() {
			m.cursor++
		}
		return m, nil

	case "g":
		m.cursor = 0
		return m, nil

	case "G":
		m.cursor = m.maxIndex()
		return m, nil

	// Control actions
	case "c":
		m.notice = "Checking connection..."
		return m, actionCmd("Connection check requested", m.ctrl.CheckConnection)

	case "r":
		m.notice = "Restarting server..."
		return m, actionCmd("Server restart requested", m.ctrl.RestartServer)

	case "u":
		m.notice = "Checking for updates..."
		return m, actionCmd("Update check requested", m.ctrl.CheckForUpdates)

	case "l":
		ctrl := m.ctrl
		return m, func() tea.Msg {
			enabled, err := ctrl.ToggleLocalServer()
			if err != nil {
				return errMsg{err}
			}
			if enabled {
				return noticeMsg("Local server fallback enabled")
			}
			return noticeMsg("Local server fallback disabled")
		}

	case "s":
		m.uiMode = ModeURLEdit
		m.urlInput = m.status.ServerURL
		m.err = nil
		return m, nil

	// Probe filter
	case "f", "/":
		if m.activeTab == tabProbes {
			m.uiMode = ModeFilter
		}
		return m, nil

	case "x":
		m.filterQuery = ""
		m.cursor = 0
		return m, nil
	}

	return m, nil
}

func (m model) switchTab(t tab) (model, tea.Cmd) {
	m.activeTab = t
	m.cursor = 0
	return m, m.refreshCmd()
}

// handleURLEditMode handles input while editing the server URL
func (m model) handleURLEditMode(key string) (model, tea.Cmd) {
	switch key {
	case "esc":
		m.uiMode = ModeNormal
		m.urlInput = ""
		return m, nil

	case "enter":
		serverURL := m.urlInput
		m.uiMode = ModeNormal
		m.urlInput = ""
		ctrl := m.ctrl
		return m, func() tea.Msg {
			if err := ctrl.SetServerURL(serverURL); err != nil {
				return errMsg{err}
			}
			return noticeMsg("Server URL saved")
		}

	case "backspace":
		if len(m.urlInput) > 0 {
			runes := []rune(m.urlInput)
			m.urlInput = string(runes[:len(runes)-1])
		}
		return m, nil

	case "ctrl+u":
		m.urlInput = ""
		return m, nil

	default:
		if len(key) == 1 && key[0] >= 32 && key[0] < 127 {
			m.urlInput += key
		}
		return m, nil
	}
}

// handleFilterMode handles input while typing a probe filter
func (m model) handleFilterMode(key string) (model, tea.Cmd) {
	switch key {
	case "esc":
		m.uiMode = ModeNormal
		m.filterQuery = ""
		m.cursor = 0
		return m, nil

	case "enter":
		m.uiMode = ModeNormal
		m.cursor = 0
		return m, nil

	case "backspace":
		if len(m.filterQuery) > 0 {
			runes := []rune(m.filterQuery)
			m.filterQuery = string(runes[:len(runes)-1])
		}
		return m, nil

	default:
		if len(key) == 1 && key[0] >= 32 && key[0] < 127 {
			m.filterQuery += key
			m.cursor = 0
		}
		return m, nil
	}
}

// handleHelpMode handles input when in help mode
func (m model) handleHelpMode(key string) (model, tea.Cmd) {
	switch key {
	case "esc", "q", "?":
		m.uiMode = ModeNormal
		return m, nil
	}
	return m, nil
}
