// Package scheduler drives connectivity ticks on a fixed interval and on demand.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Suveerkh/CareerMate/internal/backend"
	"github.com/Suveerkh/CareerMate/internal/config"
	"github.com/Suveerkh/CareerMate/internal/connectivity"
	"github.com/Suveerkh/CareerMate/internal/updatecheck"
)

// Ticker runs one connectivity tick
type Ticker interface {
	Tick(ctx context.Context) connectivity.Snapshot
}

// Backend is the supervisor surface the scheduler drives
type Backend interface {
	Running() bool
	Start(port int) (*backend.Handle, error)
	Restart(port int) (*backend.Handle, error)
	Stop() error
	WaitReady(ctx context.Context, port int) error
	Events() <-chan backend.Event
}

// InternetChecker performs the startup reachability check
type InternetChecker interface {
	CheckInternet(ctx context.Context, sites []string, timeout time.Duration) (string, bool)
}

// UpdateChecker checks for a newer release
type UpdateChecker interface {
	CheckNow(ctx context.Context) *updatecheck.VersionInfo
}

// Notifier surfaces non-fatal errors to the user
type Notifier interface {
	Notify(title, message string)
}

// Metrics receives scheduler counters
type Metrics interface {
	IncTrigger(kind string)
	IncBackendCrashes()
}

// ConfigSource yields the current user configuration
type ConfigSource interface {
	Get() *config.Config
}

// Options wires the scheduler. Internet, Updates, Notifier and Metrics are optional.
type Options struct {
	Machine  Ticker
	Backend  Backend
	Config   ConfigSource
	Internet InternetChecker
	Updates  UpdateChecker
	Notifier Notifier
	Metrics  Metrics

	Interval           time.Duration
	ProbeTimeout       time.Duration
	BackendPort        int
	InternetSites      []string
	EagerBackendLaunch bool

	Logger *zap.Logger
}

// Trigger kinds, also used as metric labels
const (
	TriggerInterval = "interval"
	TriggerCheck    = "check_connection"
	TriggerRestart  = "restart_server"
	TriggerUpdates  = "check_for_updates"
	TriggerReady    = "backend_ready"
)

// Scheduler owns the single loop that runs ticks and control actions
type Scheduler struct {
	opts   Options
	logger *zap.Logger

	// Each trigger has room for one pending request; extra requests coalesce.
	checkCh   chan string
	restartCh chan struct{}
	updateCh  chan struct{}

	mu         sync.RWMutex
	lastUpdate *updatecheck.VersionInfo
	wg         sync.WaitGroup
}

// New creates a scheduler. Nothing runs until Run is called.
func New(opts Options) (*Scheduler, error) {
	if opts.Machine == nil || opts.Backend == nil || opts.Config == nil {
		return nil, errors.New("scheduler: machine, backend and config are required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}

	return &Scheduler{
		opts:      opts,
		logger:    opts.Logger.Named("scheduler"),
		checkCh:   make(chan string, 1),
		restartCh: make(chan struct{}, 1),
		updateCh:  make(chan struct{}, 1),
	}, nil
}

// CheckConnection requests an immediate tick
func (s *Scheduler) CheckConnection() {
	s.requestCheck(TriggerCheck)
}

// RestartServer requests a backend restart followed by a tick once the
// backend accepts connections
func (s *Scheduler) RestartServer() {
	select {
	case s.restartCh <- struct{}{}:
	default:
		s.logger.Debug("Restart already pending")
	}
}

// CheckForUpdates requests an update check
func (s *Scheduler) CheckForUpdates() {
	select {
	case s.updateCh <- struct{}{}:
	default:
		s.logger.Debug("Update check already pending")
	}
}

// LastUpdate returns the result of the most recent update check, or nil
func (s *Scheduler) LastUpdate() *updatecheck.VersionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// Run blocks until ctx is done, then stops the backend
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Scheduler starting",
		zap.Duration("interval", s.opts.Interval),
		zap.Bool("eager_backend", s.opts.EagerBackendLaunch))

	if s.opts.Internet != nil && len(s.opts.InternetSites) > 0 {
		s.goSafe(func() {
			s.opts.Internet.CheckInternet(ctx, s.opts.InternetSites, s.opts.ProbeTimeout)
		})
	}

	if s.opts.EagerBackendLaunch && s.opts.Config.Get().UseLocalServer && !s.opts.Backend.Running() {
		if _, err := s.opts.Backend.Start(s.opts.BackendPort); err != nil {
			s.reportSpawnError(err)
		}
	}

	s.tick(ctx, TriggerInterval)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	events := s.opts.Backend.Events()
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil

		case <-ticker.C:
			s.tick(ctx, TriggerInterval)

		case kind := <-s.checkCh:
			s.tick(ctx, kind)

		case <-s.restartCh:
			s.restart()

		case <-s.updateCh:
			s.checkUpdates(ctx)

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.handleBackendEvent(ctx, ev)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, kind string) {
	s.opts.Metrics.IncTrigger(kind)
	snap := s.opts.Machine.Tick(ctx)
	s.logger.Debug("Tick complete",
		zap.String("trigger", kind),
		zap.String("state", string(snap.State)))
}

func (s *Scheduler) requestCheck(kind string) {
	select {
	case s.checkCh <- kind:
	default:
		s.logger.Debug("Connection check already pending", zap.String("trigger", kind))
	}
}

func (s *Scheduler) restart() {
	s.opts.Metrics.IncTrigger(TriggerRestart)
	s.logger.Info("Restarting local backend", zap.Int("port", s.opts.BackendPort))

	h, err := s.opts.Backend.Restart(s.opts.BackendPort)
	if err != nil {
		s.reportSpawnError(err)
		s.requestCheck(TriggerRestart)
		return
	}

	s.logger.Info("Local backend restarted", zap.Int("pid", h.PID), zap.String("id", h.ID))
}

// checkWhenReady waits for the backend port in the background and then asks
// for a tick, so a fresh backend is picked up before the next interval. Every
// spawn reports EventStarted, whether it came from the eager launch, a
// restart or the connectivity fallback.
func (s *Scheduler) checkWhenReady(ctx context.Context) {
	s.goSafe(func() {
		if err := s.opts.Backend.WaitReady(ctx, s.opts.BackendPort); err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("Local backend did not become ready", zap.Error(err))
			}
			return
		}
		s.requestCheck(TriggerReady)
	})
}

func (s *Scheduler) checkUpdates(ctx context.Context) {
	s.opts.Metrics.IncTrigger(TriggerUpdates)
	if s.opts.Updates == nil {
		s.logger.Debug("Update checker not configured")
		return
	}

	info := s.opts.Updates.CheckNow(ctx)
	s.mu.Lock()
	s.lastUpdate = info
	s.mu.Unlock()

	switch {
	case info == nil:
	case info.UpdateAvailable:
		s.opts.Notifier.Notify("Update Available",
			fmt.Sprintf("CareerMate %s is available: %s", info.LatestVersion, info.ReleaseURL))
	case info.CheckError != "":
		s.logger.Info("Update check did not complete", zap.String("reason", info.CheckError))
	default:
		s.opts.Notifier.Notify("No Updates", fmt.Sprintf("CareerMate %s is up to date", info.CurrentVersion))
	}
}

func (s *Scheduler) handleBackendEvent(ctx context.Context, ev backend.Event) {
	switch ev.Type {
	case backend.EventStarted:
		s.logger.Debug("Backend started, waiting for port",
			zap.Int("pid", ev.PID),
			zap.String("id", ev.HandleID))
		s.checkWhenReady(ctx)
	case backend.EventCrashed:
		s.opts.Metrics.IncBackendCrashes()
		code := 0
		if ev.Exit != nil {
			code = ev.Exit.Code
		}
		s.logger.Error("Local backend crashed",
			zap.Int("pid", ev.PID),
			zap.String("id", ev.HandleID),
			zap.Int("exit_code", code))
		s.opts.Notifier.Notify("Server Error", fmt.Sprintf("Local server exited unexpectedly (exit code %d)", code))
	default:
		s.logger.Debug("Backend event",
			zap.String("type", string(ev.Type)),
			zap.Int("pid", ev.PID))
	}
}

func (s *Scheduler) reportSpawnError(err error) {
	s.logger.Error("Failed to start local backend", zap.Error(err))

	var spawnErr *backend.SpawnError
	if errors.As(err, &spawnErr) {
		s.opts.Notifier.Notify("Server Error", fmt.Sprintf("Failed to start local server: %v", spawnErr.Err))
		return
	}
	s.opts.Notifier.Notify("Server Error", err.Error())
}

func (s *Scheduler) shutdown() {
	s.logger.Info("Scheduler stopping")
	if err := s.opts.Backend.Stop(); err != nil {
		s.logger.Warn("Failed to stop local backend", zap.Error(err))
	}
	s.wg.Wait()
}

func (s *Scheduler) goSafe(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string) {}

type nopMetrics struct{}

func (nopMetrics) IncTrigger(string)  {}
func (nopMetrics) IncBackendCrashes() {}
