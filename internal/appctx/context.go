// Package appctx wires the shell's components together and exposes the
// control surface used by the tray and the terminal UI.
package appctx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Suveerkh/CareerMate/internal/backend"
	"github.com/Suveerkh/CareerMate/internal/candidate"
	"github.com/Suveerkh/CareerMate/internal/config"
	"github.com/Suveerkh/CareerMate/internal/connectivity"
	"github.com/Suveerkh/CareerMate/internal/history"
	"github.com/Suveerkh/CareerMate/internal/notify"
	"github.com/Suveerkh/CareerMate/internal/observability"
	"github.com/Suveerkh/CareerMate/internal/probe"
	"github.com/Suveerkh/CareerMate/internal/scheduler"
	"github.com/Suveerkh/CareerMate/internal/shell"
	"github.com/Suveerkh/CareerMate/internal/updatecheck"
)

// Options configure NewApplicationContext
type Options struct {
	Settings config.Settings
	Window   shell.Window
	Version  string
	Logger   *zap.Logger

	// BackendEnv is appended to the backend's environment
	BackendEnv []string
}

// ApplicationContext holds all shell dependencies
type ApplicationContext struct {
	Settings config.Settings
	Version  string

	Config        *config.Store
	Resolver      *candidate.Resolver
	Prober        *probe.Client
	Supervisor    *backend.Supervisor
	Notifier      *notify.Notifier
	History       *history.Store
	Observability *observability.Manager
	Updates       *updatecheck.Checker
	Machine       *connectivity.Machine
	Scheduler     *scheduler.Scheduler
	Window        shell.Window

	Logger *zap.Logger

	sessionID string
	startedAt time.Time
	viewDir   string

	quitOnce sync.Once
	quit     chan struct{}
	closed   bool
	closeMu  sync.Mutex
}

var _ Controller = (*ApplicationContext)(nil)

// NewApplicationContext creates the shell components. Nothing runs until Run.
func NewApplicationContext(opts Options) (*ApplicationContext, error) {
	if opts.Window == nil {
		return nil, fmt.Errorf("window cannot be nil")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if err := opts.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	s := opts.Settings
	logger := opts.Logger
	sessionID := uuid.New().String()

	viewDir, err := shell.MaterializeViews(s.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare views: %w", err)
	}

	cfgStore, err := config.Open(config.GetConfigPath(s.DataDir), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}

	// The journal is diagnostics only; a second instance runs without it
	store, err := history.Open(s.DataDir, logger, history.Options{SessionID: sessionID})
	if err != nil {
		if !errors.Is(err, history.ErrInUse) {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		logger.Warn("History journal is held by another instance, continuing without it")
		store = nil
	}

	obs, err := observability.NewManager(logger, observability.Config{
		DiagnosticsListen: s.DiagnosticsListen,
		Tracing: observability.TracingConfig{
			Enabled:        s.TracingEndpoint != "",
			ServiceName:    "careermate",
			ServiceVersion: opts.Version,
			OTLPEndpoint:   s.TracingEndpoint,
			SampleRate:     1.0,
		},
	})
	if err != nil {
		closeStore(store)
		return nil, fmt.Errorf("failed to create observability manager: %w", err)
	}
	metrics := obs.Metrics()

	notifier := notify.New(logger, s.Notifications)
	resolver := candidate.NewResolver(s)
	prober := probe.NewClient(logger, "CareerMate/"+opts.Version)

	supervisor := backend.NewSupervisor(backend.Config{
		Command:     s.BackendCommand,
		Args:        s.BackendArgs,
		Dir:         s.BackendDir,
		Env:         opts.BackendEnv,
		GracePeriod: s.StopGracePeriod,
	}, logger)

	machine, err := connectivity.NewMachine(connectivity.Options{
		Config:       cfgStore,
		Resolver:     resolver,
		Prober:       prober,
		Window:       opts.Window,
		Supervisor:   supervisor,
		Notifier:     notifier,
		Recorder:     recorderFor(store),
		Metrics:      metrics,
		ViewPath:     shell.ViewPath(viewDir),
		ProbeTimeout: s.ProbeTimeout,
		BackendPort:  s.BackendPort,
		Logger:       logger,
	})
	if err != nil {
		closeStore(store)
		return nil, err
	}

	updates := updatecheck.New(logger, opts.Version, s.UpdateRepo)

	sched, err := scheduler.New(scheduler.Options{
		Machine:            machine,
		Backend:            supervisor,
		Config:             cfgStore,
		Internet:           prober,
		Updates:            updates,
		Notifier:           notifier,
		Metrics:            metrics,
		Interval:           s.ProbeInterval,
		ProbeTimeout:       s.ProbeTimeout,
		BackendPort:        s.BackendPort,
		InternetSites:      s.InternetSites,
		EagerBackendLaunch: s.EagerBackendLaunch,
		Logger:             logger,
	})
	if err != nil {
		closeStore(store)
		return nil, err
	}

	app := &ApplicationContext{
		Settings:      s,
		Version:       opts.Version,
		Config:        cfgStore,
		Resolver:      resolver,
		Prober:        prober,
		Supervisor:    supervisor,
		Notifier:      notifier,
		History:       store,
		Observability: obs,
		Updates:       updates,
		Machine:       machine,
		Scheduler:     sched,
		Window:        opts.Window,
		Logger:        logger,
		sessionID:     sessionID,
		startedAt:     time.Now(),
		viewDir:       viewDir,
		quit:          make(chan struct{}),
	}

	obs.SetStatusProvider(func() interface{} { return app.Status() })
	obs.SetHistorySource(historySourceFor(store))
	obs.Health().AddHealthChecker(observability.ConnectivityChecker(func() bool {
		return machine.Snapshot().Serving
	}))

	if err := cfgStore.LoadError(); err != nil {
		notifier.Notify("Settings Error", fmt.Sprintf("Using default settings: %v", err))
	}

	return app, nil
}

// Run shows the splash page and blocks until ctx ends or Quit is called.
// The backend is stopped before Run returns.
func (a *ApplicationContext) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-a.quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	a.Logger.Info("CareerMate shell starting",
		zap.String("version", a.Version),
		zap.String("session_id", a.sessionID),
		zap.String("data_dir", a.Settings.DataDir),
		zap.String("config", a.Config.Path()))

	a.Machine.ShowSplash()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		shell.RunNavigationLogger(ctx, a.Logger, a.Window.Navigated())
	}()
	go func() {
		defer wg.Done()
		if err := a.Observability.Serve(ctx); err != nil {
			a.Logger.Error("Diagnostics server failed", zap.Error(err))
		}
	}()

	err := a.Scheduler.Run(ctx)

	a.Machine.Shutdown()
	cancel()
	wg.Wait()

	a.Logger.Info("CareerMate shell stopped")
	return err
}

// Close releases resources held outside Run. It is safe to call more than once.
func (a *ApplicationContext) Close() error {
	a.closeMu.Lock()
	defer a.closeMu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Observability.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close history: %w", err))
		}
	}
	return errors.Join(errs...)
}

// CheckConnection implements Controller
func (a *ApplicationContext) CheckConnection() {
	a.Logger.Info("Connection check requested")
	a.Scheduler.CheckConnection()
}

// RestartServer implements Controller
func (a *ApplicationContext) RestartServer() {
	a.Logger.Info("Server restart requested")
	a.Scheduler.RestartServer()
}

// CheckForUpdates implements Controller
func (a *ApplicationContext) CheckForUpdates() {
	a.Logger.Info("Update check requested")
	a.Scheduler.CheckForUpdates()
}

// SetServerURL persists a new server URL and checks it right away
func (a *ApplicationContext) SetServerURL(serverURL string) error {
	_, span := a.Observability.Tracing().StartSpan(context.Background(), "control.set_server_url",
		attribute.String("server_url", serverURL))
	defer span.End()

	if err := a.Config.SetServerURL(serverURL); err != nil {
		span.RecordError(err)
		a.Logger.Warn("Rejected server URL", zap.String("server_url", serverURL), zap.Error(err))
		return err
	}
	a.Logger.Info("Server URL updated", zap.String("server_url", a.Config.Get().ServerURL))
	a.Scheduler.CheckConnection()
	return nil
}

// ToggleLocalServer flips the local fallback setting and returns the new value.
// A running backend is left alone; it simply stops being a candidate.
func (a *ApplicationContext) ToggleLocalServer() (bool, error) {
	_, span := a.Observability.Tracing().StartSpan(context.Background(), "control.toggle_local_server")
	defer span.End()

	enabled := !a.Config.Get().UseLocalServer
	if err := a.Config.SetUseLocalServer(enabled); err != nil {
		span.RecordError(err)
		return !enabled, err
	}
	span.SetAttributes(attribute.Bool("use_local_server", enabled))
	a.Logger.Info("Local server fallback toggled", zap.Bool("enabled", enabled))
	a.Scheduler.CheckConnection()
	return enabled, nil
}

// Quit implements Controller
func (a *ApplicationContext) Quit() {
	a.quitOnce.Do(func() {
		a.Logger.Info("Quit requested")
		close(a.quit)
	})
}

// Done is closed once Quit has been called
func (a *ApplicationContext) Done() <-chan struct{} {
	return a.quit
}

// Status implements Controller
func (a *ApplicationContext) Status() Status {
	snap := a.Machine.Snapshot()
	cfg := a.Config.Get()
	msg, isErr := statusMessage(snap.State)

	st := Status{
		SessionID:        a.sessionID,
		Version:          a.Version,
		State:            string(snap.State),
		StateMessage:     msg,
		IsError:          isErr,
		Serving:          snap.Serving,
		ServerURL:        cfg.ServerURL,
		UseLocalServer:   cfg.UseLocalServer,
		BackendRunning:   a.Supervisor.Running(),
		BackendPort:      a.Settings.BackendPort,
		Location:         a.Window.Current(),
		Ticks:            snap.Ticks,
		LastTransitionAt: snap.LastTransitionAt,
		StartedAt:        a.startedAt,
		Update:           a.Scheduler.LastUpdate(),
	}
	if snap.ActiveEndpoint != nil {
		st.ActiveEndpoint = snap.ActiveEndpoint.Name
		st.ActiveURL = snap.ActiveEndpoint.NavigateURL()
	}
	if !snap.LastTickAt.IsZero() {
		t := snap.LastTickAt
		st.LastTickAt = &t
	}
	if h := a.Supervisor.Handle(); h != nil {
		st.BackendPID = h.PID
	}
	return st
}

func closeStore(store *history.Store) {
	if store != nil {
		_ = store.Close()
	}
}
