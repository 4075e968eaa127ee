package appctx

import (
	"github.com/Suveerkh/CareerMate/internal/connectivity"
	"github.com/Suveerkh/CareerMate/internal/history"
	"github.com/Suveerkh/CareerMate/internal/observability"
)

// recorderFor returns the journal as a recorder, or nil when history is
// unavailable. A nil *history.Store must not reach the machine as a non-nil
// interface value.
func recorderFor(store *history.Store) connectivity.Recorder {
	if store == nil {
		return nil
	}
	return store
}

// historySourceFor mirrors recorderFor for the diagnostics server
func historySourceFor(store *history.Store) observability.HistorySource {
	if store == nil {
		return nil
	}
	return store
}

// statusMessage picks the line shown for the current state
func statusMessage(state connectivity.State) (string, bool) {
	info := connectivity.GetInfo(state)
	if info.UserMessage != "" {
		return info.UserMessage, info.IsError
	}
	return info.Description, info.IsError
}
