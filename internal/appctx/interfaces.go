package appctx

import (
	"time"

	"github.com/Suveerkh/CareerMate/internal/updatecheck"
)

// Controller is the control surface shared by the tray menu and the terminal UI
type Controller interface {
	// Connectivity
	CheckConnection()
	RestartServer()

	// Updates
	CheckForUpdates()

	// Settings
	SetServerURL(serverURL string) error
	ToggleLocalServer() (bool, error)

	// Status and lifecycle
	Status() Status
	Quit()
	Done() <-chan struct{}
}

// Status is a point-in-time view of the shell, served on /status and shown by
// the control surfaces
type Status struct {
	SessionID        string                   `json:"session_id"`
	Version          string                   `json:"version"`
	State            string                   `json:"state"`
	StateMessage     string                   `json:"state_message"`
	IsError          bool                     `json:"is_error"`
	Serving          bool                     `json:"serving"`
	ActiveEndpoint   string                   `json:"active_endpoint,omitempty"`
	ActiveURL        string                   `json:"active_url,omitempty"`
	ServerURL        string                   `json:"server_url"`
	UseLocalServer   bool                     `json:"use_local_server"`
	BackendRunning   bool                     `json:"backend_running"`
	BackendPID       int                      `json:"backend_pid,omitempty"`
	BackendPort      int                      `json:"backend_port"`
	Location         string                   `json:"location,omitempty"`
	Ticks            uint64                   `json:"ticks"`
	LastTickAt       *time.Time               `json:"last_tick_at,omitempty"`
	LastTransitionAt time.Time                `json:"last_transition_at"`
	StartedAt        time.Time                `json:"started_at"`
	Update           *updatecheck.VersionInfo `json:"update,omitempty"`
}
