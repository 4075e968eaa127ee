package connectivity

// State represents what the shell window is currently showing
type State string

const (
	// StateSplash is the initial state before the first tick completes
	StateSplash State = "splash"

	// StateServing means the window shows content from an endpoint
	StateServing State = "serving"

	// StateOffline means every candidate failed after having served
	StateOffline State = "offline"

	// StateNoConnection means no candidate has been reachable since launch
	StateNoConnection State = "no_connection"

	// StateShuttingDown is terminal
	StateShuttingDown State = "shutting_down"
)

// Event represents what caused a state transition
type Event string

const (
	EventProbeSucceeded Event = "probe_succeeded"
	EventAllFailed      Event = "all_failed"
	EventShutdown       Event = "shutdown"
)

// View names of the embedded local pages
const (
	ViewSplash       = "splash.html"
	ViewOffline      = "offline.html"
	ViewNoConnection = "no-connection.html"
)

// Info provides metadata about each state
type Info struct {
	Name        State
	Description string
	UserMessage string
	IsError     bool
	// View is the local page shown on entry, empty when the state shows
	// remote content or nothing.
	View string
}

// GetInfo returns metadata for a given state
func GetInfo(state State) Info {
	stateInfoMap := map[State]Info{
		StateSplash: {
			Name:        StateSplash,
			Description: "Waiting for the first connectivity check",
			UserMessage: "Starting up...",
			View:        ViewSplash,
		},
		StateServing: {
			Name:        StateServing,
			Description: "Showing content from a reachable endpoint",
			UserMessage: "Connected",
		},
		StateOffline: {
			Name:        StateOffline,
			Description: "All endpoints unreachable after serving",
			UserMessage: "Connection lost - retrying",
			IsError:     true,
			View:        ViewOffline,
		},
		StateNoConnection: {
			Name:        StateNoConnection,
			Description: "No endpoint reachable since launch",
			UserMessage: "Unable to connect to CareerMate",
			IsError:     true,
			View:        ViewNoConnection,
		},
		StateShuttingDown: {
			Name:        StateShuttingDown,
			Description: "Shutting down",
			UserMessage: "Shutting down...",
		},
	}

	if info, exists := stateInfoMap[state]; exists {
		return info
	}

	return Info{
		Name:        state,
		Description: string(state),
		UserMessage: string(state),
	}
}

// CanTransition checks if a transition from one state to another is valid
func CanTransition(from, to State) bool {
	validTransitions := map[State][]State{
		StateSplash: {
			StateServing,
			StateNoConnection,
			StateShuttingDown,
		},
		StateServing: {
			StateOffline,
			StateShuttingDown,
		},
		StateOffline: {
			StateServing,
			StateShuttingDown,
		},
		StateNoConnection: {
			StateServing,
			StateShuttingDown,
		},
		StateShuttingDown: {
			// Terminal state - no transitions out
		},
	}

	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
