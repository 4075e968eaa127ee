// Package notify shows desktop notifications for non-fatal errors.
package notify

import (
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

// AppName is shown as the notification source where the platform supports it
const AppName = "CareerMate"

// minInterval suppresses repeats of the same notification
const minInterval = 30 * time.Second

// Notifier sends desktop notifications. Every notification is also logged, so
// a disabled or failing notifier still leaves a trace.
type Notifier struct {
	logger  *zap.SugaredLogger
	enabled bool
	send    func(title, message string) error

	mu       sync.Mutex
	lastSent map[string]time.Time
	now      func() time.Time
}

// New creates a notifier. With enabled false notifications are only logged.
func New(logger *zap.Logger, enabled bool) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	beeep.AppName = AppName

	return &Notifier{
		logger:  logger.Sugar().Named("notify"),
		enabled: enabled,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Notify shows a notification. Identical notifications within a short window
// are logged but not shown again.
func (n *Notifier) Notify(title, message string) {
	n.logger.Infow("Notification", "title", title, "message", message)
	if !n.enabled {
		return
	}

	key := title + "\x00" + message
	n.mu.Lock()
	now := n.now()
	if last, ok := n.lastSent[key]; ok && now.Sub(last) < minInterval {
		n.mu.Unlock()
		n.logger.Debugw("Suppressing repeated notification", "title", title)
		return
	}
	n.lastSent[key] = now
	n.mu.Unlock()

	if err := n.send(title, message); err != nil {
		n.logger.Warnw("Failed to show desktop notification", "title", title, "error", err)
	}
}
