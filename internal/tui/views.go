package tui

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Suveerkh/CareerMate/internal/shell"
)

// localPages is the terminal rendering of the bundled HTML views
var localPages = map[string]string{
	"splash.html":        "Connecting...",
	"offline.html":       "You're offline. CareerMate lost its connection to the server and keeps retrying.",
	"no-connection.html": "Unable to connect. Check your internet connection or make sure Python 3 is installed for the local server.",
}

func renderView(m model) string {
	var b strings.Builder

	// Title bar
	b.WriteString(RenderTitle(" CareerMate "))
	b.WriteString("\n\n")

	// Tabs
	b.WriteString(renderTabs(m.activeTab))
	b.WriteString("\n\n")

	contentHeight := m.height - 10
	if contentHeight < 5 {
		contentHeight = 5
	}

	if m.uiMode == ModeHelp {
		b.WriteString(renderHelpScreen())
	} else {
		switch m.activeTab {
		case tabStatus:
			b.WriteString(renderStatus(m))
		case tabTransitions:
			b.WriteString(renderTransitions(m, contentHeight))
		case tabProbes:
			b.WriteString(renderProbes(m, contentHeight))
		}
	}

	if m.uiMode == ModeURLEdit {
		b.WriteString("\n\n")
		b.WriteString(HeaderStyle.Render("Server URL: "))
		b.WriteString(m.urlInput)
		b.WriteString("█")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(RenderError(m.err))
		b.WriteString("\n")
	}

	// Status bar
	b.WriteString("\n")
	b.WriteString(renderStatusBar(m))
	b.WriteString("\n")

	// Help
	b.WriteString(renderHelp(m))

	return b.String()
}

func renderTabs(active tab) string {
	tabs := []struct {
		label string
		key   string
		t     tab
	}{
		{"Status", "1", tabStatus},
		{"Transitions", "2", tabTransitions},
		{"Probes", "3", tabProbes},
	}

	var parts []string
	for _, t := range tabs {
		label := fmt.Sprintf("[%s] %s", t.key, t.label)
		if t.t == active {
			parts = append(parts, tabActiveStyle.Render(label))
		} else {
			parts = append(parts, tabInactiveStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderStatus(m model) string {
	s := m.status
	var b strings.Builder

	b.WriteString(PanelStyle.Render(renderPage(m.current)))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(fmt.Sprintf("  %-16s %s\n", HeaderStyle.Render(label), value))
	}

	state := s.State
	if state == "" {
		state = "unknown"
	}
	row("State", fmt.Sprintf("%s %s  %s", stateIndicator(s.State), stateStyle(s.State).Render(state), MutedStyle.Render(s.StateMessage)))
	if s.ActiveEndpoint != "" {
		row("Active", fmt.Sprintf("%s (%s)", s.ActiveEndpoint, s.ActiveURL))
	} else {
		row("Active", MutedStyle.Render("none"))
	}
	row("Server URL", s.ServerURL)
	row("Local server", onOff(s.UseLocalServer))

	backend := MutedStyle.Render("stopped")
	if s.BackendRunning {
		backend = SuccessStyle.Render(fmt.Sprintf("running (pid %d, port %d)", s.BackendPID, s.BackendPort))
	}
	row("Backend", backend)
	row("Checks", fmt.Sprintf("%d", s.Ticks))
	if s.LastTickAt != nil {
		row("Last check", formatTimestamp(*s.LastTickAt))
	}
	if s.Update != nil && s.Update.UpdateAvailable {
		row("Update", SuccessStyle.Render(fmt.Sprintf("%s available: %s", s.Update.LatestVersion, s.Update.ReleaseURL)))
	}

	return b.String()
}

// renderPage describes what the window shows
func renderPage(loc string) string {
	if loc == "" {
		return MutedStyle.Render("Nothing loaded yet")
	}
	if shell.ClassifyPage(loc) == shell.PageLocal {
		if u, err := url.Parse(loc); err == nil {
			if text, ok := localPages[path.Base(u.Path)]; ok {
				return text
			}
		}
	}
	return "Showing " + loc
}

func renderTransitions(m model, maxHeight int) string {
	if m.history == nil {
		return MutedStyle.Render("  History is not available")
	}
	if len(m.transitions) == 0 {
		return MutedStyle.Render("  No transitions recorded")
	}

	var b strings.Builder
	header := fmt.Sprintf("  %-10s %-14s %-14s %-16s %s", "TIME", "FROM", "TO", "EVENT", "ENDPOINT")
	b.WriteString(HeaderStyle.Render(header))
	b.WriteString("\n")

	start, end := window(m.cursor, len(m.transitions), maxHeight-2)
	for i := start; i < end; i++ {
		r := m.transitions[i]
		line := fmt.Sprintf("  %-10s %-14s %-14s %-16s %s",
			formatTimestamp(r.Timestamp),
			r.From,
			r.To,
			r.Event,
			r.URL)
		if i == m.cursor {
			line = SelectedStyle.Render(line)
		} else {
			line = stateStyle(r.To).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func renderProbes(m model, maxHeight int) string {
	if m.history == nil {
		return MutedStyle.Render("  History is not available")
	}

	var b strings.Builder
	if m.filterQuery != "" || m.uiMode == ModeFilter {
		b.WriteString(MutedStyle.Render("Filter: " + m.filterQuery))
		if m.uiMode == ModeFilter {
			b.WriteString("█")
		}
		b.WriteString("\n")
	}

	probes := m.visibleProbes()
	if len(probes) == 0 {
		b.WriteString(MutedStyle.Render("  No probes recorded"))
		return b.String()
	}

	header := fmt.Sprintf("  %-10s %-10s %-8s %-22s %-6s %-8s %s", "TIME", "ENDPOINT", "TIER", "OUTCOME", "CODE", "LATENCY", "CAUSE")
	b.WriteString(HeaderStyle.Render(header))
	b.WriteString("\n")

	start, end := window(m.cursor, len(probes), maxHeight-3)
	for i := start; i < end; i++ {
		r := probes[i]
		code := "-"
		if r.StatusCode > 0 {
			code = fmt.Sprintf("%d", r.StatusCode)
		}
		line := fmt.Sprintf("  %-10s %-10s %-8s %-22s %-6s %-8s %s",
			formatTimestamp(r.Timestamp),
			truncate(r.Endpoint, 10),
			r.Tier,
			r.Outcome,
			code,
			fmt.Sprintf("%dms", r.LatencyMs),
			r.Cause)
		if i == m.cursor {
			line = SelectedStyle.Render(line)
		} else {
			line = outcomeStyle(r.Outcome).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func renderStatusBar(m model) string {
	parts := []string{fmt.Sprintf("CareerMate %s", m.status.Version)}
	if m.notice != "" {
		parts = append(parts, m.notice)
	}
	if !m.lastUpdate.IsZero() {
		parts = append(parts, "updated "+m.lastUpdate.Format("15:04:05"))
	}
	return StatusBarStyle.Render(strings.Join(parts, " | "))
}

func renderHelp(m model) string {
	switch m.uiMode {
	case ModeURLEdit:
		return RenderHelp("enter save  esc cancel  ctrl+u clear")
	case ModeFilter:
		return RenderHelp("type to filter  enter apply  esc clear")
	case ModeHelp:
		return RenderHelp("esc/? close help")
	}
	return RenderHelp("c check  r restart server  u updates  s server URL  l local server  1-3 tabs  ? help  q quit")
}

func renderHelpScreen() string {
	lines := []string{
		HeaderStyle.Render("Connection"),
		"  c        check connection now",
		"  r        restart the local server",
		"  u        check for updates",
		"",
		HeaderStyle.Render("Settings"),
		"  s        set the server URL",
		"  l        toggle the local server fallback",
		"",
		HeaderStyle.Render("Navigation"),
		"  1 2 3    status, transitions, probes",
		"  tab      next tab",
		"  j/k      move cursor",
		"  g/G      first/last row",
		"  f or /   filter probes",
		"  x        clear filter",
		"  space    refresh",
		"",
		"  q        quit CareerMate",
	}
	return strings.Join(lines, "\n")
}

// window returns the [start, end) slice of n rows that keeps cursor visible
func window(cursor, n, height int) (int, int) {
	if height < 1 {
		height = 1
	}
	if n <= height {
		return 0, n
	}
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	return start, start + height
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("15:04:05")
}

func onOff(b bool) string {
	if b {
		return SuccessStyle.Render("enabled")
	}
	return MutedStyle.Render("disabled")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + "…"
}
