// Package tray provides the system tray control surface.
package tray

import (
	"fmt"
	"image/color"

	"github.com/Suveerkh/CareerMate/internal/appctx"
	"github.com/Suveerkh/CareerMate/internal/connectivity"
)

// Controller is the control surface the tray menu drives
type Controller interface {
	CheckConnection()
	RestartServer()
	CheckForUpdates()
	SetServerURL(serverURL string) error
	ToggleLocalServer() (bool, error)
	Status() appctx.Status
	Quit()
	Done() <-chan struct{}
}

// Opener shows a URL to the user
type Opener interface {
	LoadURL(url string) error
}

// MenuState is what the tray shows for a status
type MenuState struct {
	Title      string
	StatusText string
	Tooltip    string
	ServerText string
	LocalOn    bool
	CanOpen    bool
	OpenURL    string
	UpdateText string
	IconColor  color.RGBA
}

var (
	iconServing = color.RGBA{R: 0x2e, G: 0xa0, B: 0x43, A: 0xff}
	iconOffline = color.RGBA{R: 0xe0, G: 0x9b, B: 0x1a, A: 0xff}
	iconFailed  = color.RGBA{R: 0xd0, G: 0x31, B: 0x2d, A: 0xff}
	iconIdle    = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
)

// BuildMenuState maps a status to menu text and icon color
func BuildMenuState(st appctx.Status) MenuState {
	ms := MenuState{
		Title:      "CareerMate",
		ServerText: fmt.Sprintf("Server: %s", st.ServerURL),
		LocalOn:    st.UseLocalServer,
		UpdateText: "Check for Updates",
	}

	msg := st.StateMessage
	if msg == "" {
		msg = st.State
	}
	ms.StatusText = fmt.Sprintf("Status: %s", msg)

	switch connectivity.State(st.State) {
	case connectivity.StateServing:
		ms.IconColor = iconServing
		ms.Tooltip = fmt.Sprintf("CareerMate - connected to %s", st.ActiveEndpoint)
	case connectivity.StateOffline:
		ms.IconColor = iconOffline
		ms.Tooltip = "CareerMate - offline, retrying"
	case connectivity.StateNoConnection:
		ms.IconColor = iconFailed
		ms.Tooltip = "CareerMate - unable to connect"
	default:
		ms.IconColor = iconIdle
		ms.Tooltip = "CareerMate - starting"
	}

	if st.Serving && st.ActiveURL != "" {
		ms.CanOpen = true
		ms.OpenURL = st.ActiveURL
	}

	if st.Update != nil && st.Update.UpdateAvailable {
		ms.UpdateText = fmt.Sprintf("Update Available: %s", st.Update.LatestVersion)
	}

	return ms
}
