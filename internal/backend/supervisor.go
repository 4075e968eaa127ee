// Package backend supervises the local server subprocess the shell falls back to.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotRunning is returned when an operation needs a live backend process
var ErrNotRunning = errors.New("backend process is not running")

// SpawnError reports that the backend command could not be started
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start backend %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// EventType identifies supervisor events
type EventType string

const (
	EventStarted EventType = "started"
	// EventExited follows a Stop
	EventExited EventType = "exited"
	// EventCrashed is an exit nobody asked for
	EventCrashed EventType = "crashed"
)

// Event is published on the supervisor event channel
type Event struct {
	Type      EventType
	HandleID  string
	PID       int
	Exit      *ExitInfo
	Timestamp time.Time
}

// ExitInfo contains information about process exit
type ExitInfo struct {
	Code    int
	Signal  string
	Err     error
	Runtime time.Duration
	At      time.Time
}

// Handle is a live backend process. It is owned by the Supervisor; callers
// only observe it.
type Handle struct {
	ID        string
	PID       int
	Port      int
	StartedAt time.Time

	cmd           *exec.Cmd
	done          chan struct{}
	exit          *ExitInfo
	stopRequested atomic.Bool
}

// Done is closed once the process has exited and been reaped
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// ExitInfo returns the exit details, or nil while the process is alive
func (h *Handle) ExitInfo() *ExitInfo {
	select {
	case <-h.done:
		return h.exit
	default:
		return nil
	}
}

// Config describes how the backend is launched
type Config struct {
	Command     string
	Args        []string
	Dir         string
	Env         []string
	GracePeriod time.Duration

	// ReadyAttempts and ReadyDelay bound WaitReady
	ReadyAttempts uint
	ReadyDelay    time.Duration
	ReadyHost     string
}

// Supervisor owns at most one backend process
type Supervisor struct {
	cfg    Config
	logger *zap.SugaredLogger

	// opMu serializes Start/Stop/Restart; mu guards handle so Running never
	// waits on a stop in progress.
	opMu   sync.Mutex
	mu     sync.RWMutex
	handle *Handle

	events chan Event
}

// NewSupervisor creates a supervisor. No process is started.
func NewSupervisor(cfg Config, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = 5 * time.Second
	}
	if cfg.ReadyAttempts == 0 {
		cfg.ReadyAttempts = 30
	}
	if cfg.ReadyDelay <= 0 {
		cfg.ReadyDelay = 200 * time.Millisecond
	}
	if cfg.ReadyHost == "" {
		cfg.ReadyHost = "127.0.0.1"
	}

	return &Supervisor{
		cfg:    cfg,
		logger: logger.Sugar().Named("backend"),
		events: make(chan Event, 16),
	}
}

// Events returns the channel of lifecycle events
func (s *Supervisor) Events() <-chan Event {
	return s.events
}

// Running reports whether a backend process is live
func (s *Supervisor) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handle != nil
}

// Handle returns the live handle, or nil
func (s *Supervisor) Handle() *Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handle
}

// Start launches the backend on port. With a process already live it returns
// the existing handle and spawns nothing.
func (s *Supervisor) Start(port int) (*Handle, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.startLocked(port)
}

// Stop terminates the live process, if any. It returns once the process has
// been reaped.
func (s *Supervisor) Stop() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.stopLocked()
}

// Restart stops the live process and starts a new one on port
func (s *Supervisor) Restart(port int) (*Handle, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.stopLocked(); err != nil {
		s.logger.Warnw("Stop before restart failed", "error", err)
	}
	return s.startLocked(port)
}

// WaitReady blocks until the backend accepts TCP connections on port
func (s *Supervisor) WaitReady(ctx context.Context, port int) error {
	addr := net.JoinHostPort(s.cfg.ReadyHost, strconv.Itoa(port))
	dialer := &net.Dialer{Timeout: s.cfg.ReadyDelay}

	err := retry.Do(
		func() error {
			if !s.Running() {
				return retry.Unrecoverable(ErrNotRunning)
			}
			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return err
			}
			return conn.Close()
		},
		retry.Context(ctx),
		retry.Attempts(s.cfg.ReadyAttempts),
		retry.Delay(s.cfg.ReadyDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Debugw("Backend not ready yet", "attempt", n+1, "addr", addr, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("backend not ready on %s: %w", addr, err)
	}

	s.logger.Infow("Backend is accepting connections", "addr", addr)
	return nil
}

func (s *Supervisor) startLocked(port int) (*Handle, error) {
	if h := s.Handle(); h != nil {
		s.logger.Debugw("Backend already running", "pid", h.PID, "id", h.ID)
		return h, nil
	}

	args := append(append([]string(nil), s.cfg.Args...), "--port", strconv.Itoa(port))
	cmd := exec.Command(s.cfg.Command, args...)
	cmd.Dir = s.cfg.Dir
	if len(s.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), s.cfg.Env...)
	}
	setProcAttributes(cmd)

	stdout := newLineLogger(s.logger, "stdout")
	stderr := newLineLogger(s.logger, "stderr")
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	// Bounds Wait when a grandchild keeps the output pipes open
	cmd.WaitDelay = s.cfg.GracePeriod

	s.logger.Infow("Starting backend",
		"command", s.cfg.Command,
		"args", args,
		"dir", s.cfg.Dir)

	startTime := time.Now()
	if err := cmd.Start(); err != nil {
		s.logger.Errorw("Failed to start backend", "error", err)
		return nil, &SpawnError{Command: s.cfg.Command, Err: err}
	}

	h := &Handle{
		ID:        uuid.NewString(),
		PID:       cmd.Process.Pid,
		Port:      port,
		StartedAt: startTime,
		cmd:       cmd,
		done:      make(chan struct{}),
	}

	s.mu.Lock()
	s.handle = h
	s.mu.Unlock()

	s.logger.Infow("Backend started", "pid", h.PID, "id", h.ID, "port", port)
	s.sendEvent(Event{Type: EventStarted, HandleID: h.ID, PID: h.PID, Timestamp: time.Now()})

	go s.wait(h, stdout, stderr)
	return h, nil
}

func (s *Supervisor) stopLocked() error {
	h := s.Handle()
	if h == nil {
		return nil
	}

	h.stopRequested.Store(true)
	s.logger.Infow("Stopping backend", "pid", h.PID, "id", h.ID)

	if err := terminate(h.cmd); err != nil {
		s.logger.Warnw("Failed to send termination signal", "pid", h.PID, "error", err)
	}

	select {
	case <-h.done:
		s.logger.Infow("Backend stopped gracefully", "pid", h.PID)
	case <-time.After(s.cfg.GracePeriod):
		s.logger.Warnw("Backend did not stop gracefully, killing", "pid", h.PID, "grace_period", s.cfg.GracePeriod)
		if err := kill(h.cmd); err != nil {
			s.logger.Errorw("Failed to kill backend", "pid", h.PID, "error", err)
		}
		<-h.done
	}

	return nil
}

// wait reaps the process and publishes its exit
func (s *Supervisor) wait(h *Handle, stdout, stderr *lineLogger) {
	err := h.cmd.Wait()
	stdout.Flush()
	stderr.Flush()

	info := exitInfoFrom(err)
	info.Runtime = time.Since(h.StartedAt)

	s.mu.Lock()
	if s.handle == h {
		s.handle = nil
	}
	s.mu.Unlock()

	h.exit = info
	close(h.done)

	eventType := EventExited
	if !h.stopRequested.Load() {
		eventType = EventCrashed
		s.logger.Errorw("Backend exited unexpectedly",
			"pid", h.PID,
			"exit_code", info.Code,
			"signal", info.Signal,
			"error", info.Err,
			"runtime", info.Runtime)
	} else {
		s.logger.Infow("Backend exited", "pid", h.PID, "exit_code", info.Code, "runtime", info.Runtime)
	}

	s.sendEvent(Event{Type: eventType, HandleID: h.ID, PID: h.PID, Exit: info, Timestamp: info.At})
}

func (s *Supervisor) sendEvent(event Event) {
	select {
	case s.events <- event:
	default:
		s.logger.Warnw("Backend event channel full, dropping event", "event_type", event.Type)
	}
}

func exitInfoFrom(err error) *ExitInfo {
	info := &ExitInfo{At: time.Now(), Err: err}
	if err == nil {
		return info
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		info.Code = exitErr.ExitCode()
		info.Signal = signalName(exitErr)
	} else {
		info.Code = -1
	}
	return info
}
