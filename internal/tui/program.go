// Package tui renders the shell in the terminal with Bubble Tea and doubles
// as its control surface.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the TUI and blocks until the user quits or ctx ends. hist may be nil.
func Run(ctx context.Context, ctrl Controller, hist HistorySource, window *Window, refreshInterval time.Duration) error {
	m := NewModel(ctrl, hist, window, refreshInterval)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
