package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/Suveerkh/CareerMate/internal/connectivity"
	"github.com/Suveerkh/CareerMate/internal/probe"
)

// Semantic color palette using AdaptiveColor for light/dark terminal support
var (
	colorServing   = lipgloss.AdaptiveColor{Light: "28", Dark: "42"}   // green
	colorDegraded  = lipgloss.AdaptiveColor{Light: "136", Dark: "214"} // yellow
	colorFailed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"} // red
	colorIdle      = lipgloss.AdaptiveColor{Light: "245", Dark: "243"} // gray
	colorAccent    = lipgloss.AdaptiveColor{Light: "25", Dark: "75"}   // blue
	colorMuted     = lipgloss.AdaptiveColor{Light: "245", Dark: "244"} // light gray
	colorBgDark    = lipgloss.AdaptiveColor{Light: "254", Dark: "236"} // dark bg
	colorHighlight = lipgloss.AdaptiveColor{Light: "141", Dark: "57"}  // selection bg
)

// Shared reusable styles

var (
	// TitleStyle renders top-level titles with bold accent background
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "255", Dark: "255"}).
			Background(colorAccent).
			Padding(0, 1)

	// HeaderStyle renders table/section headers
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	// SelectedStyle highlights the currently selected row
	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "232", Dark: "229"}).
			Background(colorHighlight)

	// MutedStyle renders secondary/less important text
	MutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// ErrorStyle renders error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(colorFailed).
			Bold(true)

	// SuccessStyle renders success/status messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(colorServing)

	// PanelStyle frames the page the window is showing
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)

	servingStyle  = lipgloss.NewStyle().Foreground(colorServing)
	degradedStyle = lipgloss.NewStyle().Foreground(colorDegraded)
	failedStyle   = lipgloss.NewStyle().Foreground(colorFailed)
	idleStyle     = lipgloss.NewStyle().Foreground(colorIdle)

	// StatusBarStyle renders the bottom status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Background(colorBgDark).
			Padding(0, 1)

	// HelpStyle renders keybinding hints
	HelpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// Tab styles
	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "255", Dark: "255"}).
			Background(colorAccent).
			Padding(0, 1)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 1)
)

// RenderTitle wraps text with TitleStyle
func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

// RenderError formats an error with ErrorStyle
func RenderError(err error) string {
	if err == nil {
		return ""
	}
	return ErrorStyle.Render(fmt.Sprintf("Error: %v", err))
}

// RenderHelp wraps help text with HelpStyle
func RenderHelp(text string) string {
	return HelpStyle.Render(text)
}

func stateStyle(state string) lipgloss.Style {
	switch connectivity.State(state) {
	case connectivity.StateServing:
		return servingStyle
	case connectivity.StateOffline:
		return degradedStyle
	case connectivity.StateNoConnection:
		return failedStyle
	default:
		return idleStyle
	}
}

func stateIndicator(state string) string {
	switch connectivity.State(state) {
	case connectivity.StateServing:
		return servingStyle.Render("●")
	case connectivity.StateOffline:
		return degradedStyle.Render("◐")
	case connectivity.StateNoConnection:
		return failedStyle.Render("○")
	default:
		return idleStyle.Render("○")
	}
}

func outcomeStyle(outcome string) lipgloss.Style {
	switch probe.Kind(outcome) {
	case probe.KindReachable:
		return servingStyle
	case probe.KindReachableWithError:
		return degradedStyle
	case probe.KindUnreachable:
		return failedStyle
	default:
		return idleStyle
	}
}
