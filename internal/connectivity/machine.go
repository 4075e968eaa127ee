// Package connectivity decides, tick by tick, which endpoint the shell window
// shows and when the local backend should be started.
package connectivity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Suveerkh/CareerMate/internal/backend"
	"github.com/Suveerkh/CareerMate/internal/candidate"
	"github.com/Suveerkh/CareerMate/internal/config"
	"github.com/Suveerkh/CareerMate/internal/probe"
)

const tracerName = "github.com/Suveerkh/CareerMate/internal/connectivity"

// ConfigSource yields the current user configuration
type ConfigSource interface {
	Get() *config.Config
}

// CandidateSource orders endpoints for a configuration
type CandidateSource interface {
	OrderedCandidates(cfg *config.Config) []candidate.Endpoint
}

// Prober checks a single endpoint
type Prober interface {
	Probe(ctx context.Context, ep candidate.Endpoint, timeout time.Duration) probe.Outcome
}

// Window is the display surface the machine drives
type Window interface {
	LoadFile(path string) error
	LoadURL(url string) error
}

// Supervisor is the subset of the backend supervisor the machine needs
type Supervisor interface {
	Running() bool
	Start(port int) (*backend.Handle, error)
}

// Notifier surfaces non-fatal errors to the user
type Notifier interface {
	Notify(title, message string)
}

// Recorder journals transitions and probe results
type Recorder interface {
	RecordTransition(t Transition) error
	RecordProbe(p ProbeRecord) error
}

// Metrics receives counters and gauges from the machine
type Metrics interface {
	ObserveProbe(tier, kind string, latency time.Duration)
	RecordTransition(from, to string)
	SetServing(serving bool)
	IncSpawnFailures()
}

// Transition represents a state change with metadata
type Transition struct {
	From      State
	To        State
	Event     Event
	Endpoint  string
	Timestamp time.Time
}

// ProbeRecord is one probe attempt within a tick
type ProbeRecord struct {
	Endpoint  candidate.Endpoint
	Outcome   probe.Outcome
	Timestamp time.Time
}

// Snapshot is a copy of the connectivity state. Serving implies ActiveEndpoint
// is non-nil.
type Snapshot struct {
	State            State
	ActiveEndpoint   *candidate.Endpoint
	Serving          bool
	LastTransitionAt time.Time
	LastTickAt       time.Time
	Ticks            uint64
}

// Options wires the machine's collaborators. Notifier, Recorder and Metrics
// are optional.
type Options struct {
	Config     ConfigSource
	Resolver   CandidateSource
	Prober     Prober
	Window     Window
	Supervisor Supervisor
	Notifier   Notifier
	Recorder   Recorder
	Metrics    Metrics

	// ViewPath maps a view name to the file the window should load
	ViewPath func(name string) string

	ProbeTimeout time.Duration
	BackendPort  int
	Logger       *zap.Logger
}

// Machine holds the connectivity state and applies tick results to it
type Machine struct {
	opts   Options
	logger *zap.SugaredLogger

	// tickMu serializes ticks and shutdown
	tickMu sync.Mutex

	mu               sync.RWMutex
	state            State
	active           *candidate.Endpoint
	lastTransitionAt time.Time
	lastTickAt       time.Time
	ticks            uint64

	subscribers   []chan Transition
	subscribersMu sync.RWMutex
}

// NewMachine creates a machine in the splash state
func NewMachine(opts Options) (*Machine, error) {
	if opts.Config == nil || opts.Resolver == nil || opts.Prober == nil ||
		opts.Window == nil || opts.Supervisor == nil {
		return nil, errors.New("connectivity: config, resolver, prober, window and supervisor are required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}
	if opts.ViewPath == nil {
		opts.ViewPath = func(name string) string { return name }
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}

	return &Machine{
		opts:             opts,
		logger:           opts.Logger.Sugar().Named("connectivity"),
		state:            StateSplash,
		lastTransitionAt: time.Now(),
	}, nil
}

// ShowSplash loads the splash view. It is called once before the first tick.
func (m *Machine) ShowSplash() {
	m.loadView(GetInfo(StateSplash).View)
}

// Snapshot returns a copy of the current state
func (m *Machine) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Subscribe returns a channel for receiving state transitions. Slow
// subscribers miss transitions rather than blocking ticks.
func (m *Machine) Subscribe() <-chan Transition {
	m.subscribersMu.Lock()
	defer m.subscribersMu.Unlock()

	ch := make(chan Transition, 16)
	m.subscribers = append(m.subscribers, ch)
	return ch
}

// Tick probes candidates in priority order and folds the result into the state
func (m *Machine) Tick(ctx context.Context) Snapshot {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	if m.Snapshot().State == StateShuttingDown {
		return m.Snapshot()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "connectivity.tick")
	defer span.End()

	cfg := m.opts.Config.Get()
	candidates := m.opts.Resolver.OrderedCandidates(cfg)
	span.SetAttributes(attribute.Int("candidates", len(candidates)))

	var winner *candidate.Endpoint
	for _, ep := range candidates {
		if ctx.Err() != nil {
			break
		}

		outcome := m.opts.Prober.Probe(ctx, ep, m.opts.ProbeTimeout)
		m.opts.Metrics.ObserveProbe(ep.Tier.String(), string(outcome.Kind), outcome.Latency)
		if err := m.opts.Recorder.RecordProbe(ProbeRecord{Endpoint: ep, Outcome: outcome, Timestamp: time.Now()}); err != nil {
			m.logger.Debugw("Failed to record probe", "error", err)
		}

		if outcome.Reachable() {
			ep := ep
			winner = &ep
			break
		}
		m.logger.Debugw("Candidate unreachable", "endpoint", ep.Name, "url", ep.URL, "cause", outcome.Cause)
	}

	// A cancelled tick says nothing about the candidates
	if ctx.Err() != nil {
		m.logger.Debugw("Tick cancelled", "error", ctx.Err())
		return m.Snapshot()
	}

	if winner != nil {
		span.SetAttributes(attribute.String("winner", winner.Name))
		m.onReachable(*winner)
	} else {
		m.onAllFailed(cfg)
	}

	m.mu.Lock()
	m.ticks++
	m.lastTickAt = time.Now()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	span.SetAttributes(attribute.String("state", string(snap.State)))
	return snap
}

// Shutdown moves the machine to its terminal state. Later ticks are no-ops and
// subscriber channels are closed.
func (m *Machine) Shutdown() {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	m.mu.Lock()
	t, ok := m.transitionLocked(StateShuttingDown, EventShutdown, "")
	m.mu.Unlock()
	if ok {
		m.publish(t)
	}

	m.subscribersMu.Lock()
	for _, ch := range m.subscribers {
		close(ch)
	}
	m.subscribers = nil
	m.subscribersMu.Unlock()
}

func (m *Machine) onReachable(winner candidate.Endpoint) {
	m.mu.Lock()
	prev := m.active
	m.active = &winner

	var (
		t        Transition
		changed  bool
		navigate bool
	)
	if m.state != StateServing {
		t, changed = m.transitionLocked(StateServing, EventProbeSucceeded, winner.URL)
		navigate = changed
	} else if prev == nil || *prev != winner {
		navigate = true
		m.logger.Infow("Switching endpoint", "from", endpointName(prev), "to", winner.Name)
	}
	m.mu.Unlock()

	if changed {
		m.publish(t)
		m.opts.Metrics.SetServing(true)
	}
	if navigate {
		target := winner.NavigateURL()
		m.logger.Infow("Navigating", "endpoint", winner.Name, "url", target)
		if err := m.opts.Window.LoadURL(target); err != nil {
			m.logger.Warnw("Window failed to load URL", "url", target, "error", err)
		}
	}
}

func (m *Machine) onAllFailed(cfg *config.Config) {
	m.mu.Lock()
	var (
		t        Transition
		changed  bool
		fallback bool
	)
	switch m.state {
	case StateServing:
		m.active = nil
		t, changed = m.transitionLocked(StateOffline, EventAllFailed, "")
	case StateSplash:
		t, changed = m.transitionLocked(StateNoConnection, EventAllFailed, "")
		fallback = true
	case StateOffline, StateNoConnection:
		fallback = true
	}
	m.mu.Unlock()

	if changed {
		m.publish(t)
		m.opts.Metrics.SetServing(false)
		m.loadView(GetInfo(t.To).View)
	}

	if fallback && cfg.UseLocalServer && !m.opts.Supervisor.Running() {
		m.startBackend()
	}
}

func (m *Machine) startBackend() {
	m.logger.Infow("All endpoints unreachable, starting local backend", "port", m.opts.BackendPort)

	h, err := m.opts.Supervisor.Start(m.opts.BackendPort)
	if err != nil {
		m.opts.Metrics.IncSpawnFailures()
		m.logger.Errorw("Failed to start local backend", "error", err)

		var spawnErr *backend.SpawnError
		if errors.As(err, &spawnErr) {
			m.opts.Notifier.Notify("Server Error", fmt.Sprintf("Failed to start local server: %v", spawnErr.Err))
		} else {
			m.opts.Notifier.Notify("Server Error", err.Error())
		}
		return
	}

	m.logger.Infow("Local backend started", "pid", h.PID, "id", h.ID)
}

func (m *Machine) loadView(name string) {
	if name == "" {
		return
	}
	path := m.opts.ViewPath(name)
	if err := m.opts.Window.LoadFile(path); err != nil {
		m.logger.Warnw("Window failed to load view", "view", name, "path", path, "error", err)
	}
}

// transitionLocked changes state if the table allows it. The caller holds mu
// and publishes the returned transition after unlocking.
func (m *Machine) transitionLocked(to State, event Event, endpoint string) (Transition, bool) {
	from := m.state
	if from == to {
		return Transition{}, false
	}
	if !CanTransition(from, to) {
		m.logger.Warnw("Invalid state transition attempted", "from", from, "to", to, "event", event)
		return Transition{}, false
	}

	now := time.Now()
	m.state = to
	m.lastTransitionAt = now

	m.logger.Infow("State transition",
		"from", from,
		"to", to,
		"event", event,
		"endpoint", endpoint,
		"message", GetInfo(to).UserMessage)

	return Transition{From: from, To: to, Event: event, Endpoint: endpoint, Timestamp: now}, true
}

func (m *Machine) publish(t Transition) {
	m.opts.Metrics.RecordTransition(string(t.From), string(t.To))
	if err := m.opts.Recorder.RecordTransition(t); err != nil {
		m.logger.Debugw("Failed to record transition", "error", err)
	}

	m.subscribersMu.RLock()
	defer m.subscribersMu.RUnlock()
	for _, ch := range m.subscribers {
		select {
		case ch <- t:
		default:
			m.logger.Warnw("Subscriber channel full, dropping transition", "to", t.To)
		}
	}
}

func (m *Machine) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:            m.state,
		Serving:          m.state == StateServing,
		LastTransitionAt: m.lastTransitionAt,
		LastTickAt:       m.lastTickAt,
		Ticks:            m.ticks,
	}
	if m.active != nil {
		ep := *m.active
		snap.ActiveEndpoint = &ep
	}
	return snap
}

func endpointName(ep *candidate.Endpoint) string {
	if ep == nil {
		return ""
	}
	return ep.Name
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string) {}

type nopRecorder struct{}

func (nopRecorder) RecordTransition(Transition) error { return nil }
func (nopRecorder) RecordProbe(ProbeRecord) error     { return nil }

type nopMetrics struct{}

func (nopMetrics) ObserveProbe(string, string, time.Duration) {}
func (nopMetrics) RecordTransition(string, string)            {}
func (nopMetrics) SetServing(bool)                            {}
func (nopMetrics) IncSpawnFailures()                          {}
