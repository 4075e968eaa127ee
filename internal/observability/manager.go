package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Suveerkh/CareerMate/internal/history"
)

const defaultHistoryLimit = 100

// HistorySource lists journal records
type HistorySource interface {
	List(kind history.Kind, limit int) ([]history.Record, error)
}

// Config holds configuration for observability features
type Config struct {
	// DiagnosticsListen enables the diagnostics HTTP server when non-empty
	DiagnosticsListen string
	Tracing           TracingConfig
}

// Manager coordinates metrics, tracing, health and the diagnostics endpoint
type Manager struct {
	logger  *zap.SugaredLogger
	config  Config
	health  *HealthManager
	metrics *MetricsManager
	tracing *TracingManager

	status  func() interface{}
	history HistorySource

	startTime time.Time
}

// NewManager creates a new observability manager. Metrics are always
// collected; they are only exposed when the diagnostics server runs.
func NewManager(logger *zap.Logger, config Config) (*Manager, error) {
	sugar := logger.Sugar().Named("observability")

	tracing, err := NewTracingManager(sugar, config.Tracing)
	if err != nil {
		return nil, err
	}

	return &Manager{
		logger:    sugar,
		config:    config,
		health:    NewHealthManager(sugar),
		metrics:   NewMetricsManager(sugar),
		tracing:   tracing,
		startTime: time.Now(),
	}, nil
}

// Metrics returns the metrics manager
func (m *Manager) Metrics() *MetricsManager {
	return m.metrics
}

// Tracing returns the tracing manager
func (m *Manager) Tracing() *TracingManager {
	return m.tracing
}

// Health returns the health manager
func (m *Manager) Health() *HealthManager {
	return m.health
}

// SetStatusProvider sets the function behind /status
func (m *Manager) SetStatusProvider(fn func() interface{}) {
	m.status = fn
}

// SetHistorySource sets the journal behind /history
func (m *Manager) SetHistorySource(src HistorySource) {
	m.history = src
}

// Router builds the diagnostics routes
func (m *Manager) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(m.metrics.HTTPMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Handle("/metrics", m.metricsHandler())
	r.Get("/healthz", m.health.HealthzHandler())
	r.Get("/status", m.handleStatus)
	r.Get("/history", m.handleHistory)

	return r
}

// Serve runs the diagnostics server until ctx ends. It returns immediately
// when no listen address is configured.
func (m *Manager) Serve(ctx context.Context) error {
	if m.config.DiagnosticsListen == "" {
		return nil
	}

	ln, err := net.Listen("tcp", m.config.DiagnosticsListen)
	if err != nil {
		return err
	}
	return m.ServeListener(ctx, ln)
}

// ServeListener runs the diagnostics server on ln until ctx ends
func (m *Manager) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	m.logger.Infow("Diagnostics server listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts down observability components
func (m *Manager) Close(ctx context.Context) error {
	if err := m.tracing.Close(ctx); err != nil {
		m.logger.Errorw("Failed to close tracing manager", "error", err)
		return err
	}
	return nil
}

func (m *Manager) metricsHandler() http.Handler {
	inner := m.metrics.Handler()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.metrics.SetUptime(m.startTime)
		inner.ServeHTTP(w, r)
	})
}

func (m *Manager) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if m.status == nil {
		writeJSON(m.logger, w, http.StatusServiceUnavailable, map[string]string{"error": "status not available"})
		return
	}
	writeJSON(m.logger, w, http.StatusOK, m.status())
}

func (m *Manager) handleHistory(w http.ResponseWriter, r *http.Request) {
	if m.history == nil {
		writeJSON(m.logger, w, http.StatusServiceUnavailable, map[string]string{"error": "history not available"})
		return
	}

	kind := history.Kind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = history.KindTransition
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(m.logger, w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	records, err := m.history.List(kind, limit)
	if err != nil {
		writeJSON(m.logger, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	writeJSON(m.logger, w, http.StatusOK, records)
}
