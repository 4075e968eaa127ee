package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// TestHelperProcess is not a real test. It stands in for the backend server
// when re-executed by the supervisor tests.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	port := 0
	args := os.Args
	for i, a := range args {
		if a == "--port" && i+1 < len(args) {
			port, _ = strconv.Atoi(args[i+1])
		}
	}

	switch os.Getenv("HELPER_MODE") {
	case "crash":
		fmt.Fprintln(os.Stderr, "Traceback: simulated failure")
		os.Exit(3)
	case "ignore-term":
		signal.Ignore(syscall.SIGTERM)
	default:
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			os.Exit(0)
		}()
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		fmt.Fprintln(os.Stderr, "listen failed:", err)
		os.Exit(2)
	}
	fmt.Println("serving on", ln.Addr())
	_ = http.Serve(ln, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	os.Exit(0)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func helperSupervisor(t *testing.T, mode string, grace time.Duration) *Supervisor {
	t.Helper()
	s := NewSupervisor(Config{
		Command:       os.Args[0],
		Args:          []string{"-test.run=TestHelperProcess", "--"},
		Env:           []string{"GO_WANT_HELPER_PROCESS=1", "HELPER_MODE=" + mode},
		GracePeriod:   grace,
		ReadyAttempts: 50,
		ReadyDelay:    100 * time.Millisecond,
	}, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func nextEvent(t *testing.T, s *Supervisor) Event {
	t.Helper()
	select {
	case ev := <-s.Events():
		return ev
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for supervisor event")
		return Event{}
	}
}

func TestStartIsIdempotent(t *testing.T) {
	s := helperSupervisor(t, "serve", 5*time.Second)
	port := freePort(t)

	h1, err := s.Start(port)
	require.NoError(t, err)
	h2, err := s.Start(port)
	require.NoError(t, err)

	assert.Equal(t, h1.ID, h2.ID)
	assert.Equal(t, h1.PID, h2.PID)
	assert.True(t, s.Running())
	assert.Equal(t, EventStarted, nextEvent(t, s).Type)

	select {
	case ev := <-s.Events():
		t.Fatalf("unexpected second event %v", ev.Type)
	default:
	}
}

func TestStopWithoutProcessIsNoop(t *testing.T) {
	s := helperSupervisor(t, "serve", time.Second)
	assert.NoError(t, s.Stop())
	assert.NoError(t, s.Stop())
	assert.False(t, s.Running())
	assert.Nil(t, s.Handle())
}

func TestStartWaitReadyStop(t *testing.T) {
	s := helperSupervisor(t, "serve", 5*time.Second)
	port := freePort(t)

	h, err := s.Start(port)
	require.NoError(t, err)
	assert.Nil(t, h.ExitInfo())
	require.NoError(t, s.WaitReady(context.Background(), port))

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/", port))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Stop())
	assert.False(t, s.Running())

	select {
	case <-h.Done():
	default:
		t.Fatal("handle not done after Stop returned")
	}
	require.NotNil(t, h.ExitInfo())

	assert.Equal(t, EventStarted, nextEvent(t, s).Type)
	assert.Equal(t, EventExited, nextEvent(t, s).Type)
}

func TestCrashEmitsEvent(t *testing.T) {
	s := helperSupervisor(t, "crash", time.Second)

	h, err := s.Start(freePort(t))
	require.NoError(t, err)
	assert.Equal(t, EventStarted, nextEvent(t, s).Type)

	ev := nextEvent(t, s)
	assert.Equal(t, EventCrashed, ev.Type)
	assert.Equal(t, h.ID, ev.HandleID)
	require.NotNil(t, ev.Exit)
	assert.Equal(t, 3, ev.Exit.Code)

	<-h.Done()
	assert.False(t, s.Running())
}

func TestRestartReplacesProcess(t *testing.T) {
	s := helperSupervisor(t, "serve", 5*time.Second)
	port := freePort(t)

	h1, err := s.Start(port)
	require.NoError(t, err)
	require.NoError(t, s.WaitReady(context.Background(), port))

	h2, err := s.Restart(port)
	require.NoError(t, err)

	select {
	case <-h1.Done():
	default:
		t.Fatal("old process still alive after restart")
	}
	assert.NotEqual(t, h1.ID, h2.ID)
	assert.Equal(t, h2.ID, s.Handle().ID)
	require.NoError(t, s.WaitReady(context.Background(), port))
}

func TestSpawnError(t *testing.T) {
	s := NewSupervisor(Config{Command: "/nonexistent/careermate-backend"}, zaptest.NewLogger(t))

	_, err := s.Start(5001)
	require.Error(t, err)

	var spawnErr *SpawnError
	require.True(t, errors.As(err, &spawnErr))
	assert.Equal(t, "/nonexistent/careermate-backend", spawnErr.Command)
	assert.False(t, s.Running())
}

func TestWaitReadyNotRunning(t *testing.T) {
	s := NewSupervisor(Config{Command: "unused"}, zaptest.NewLogger(t))
	err := s.WaitReady(context.Background(), freePort(t))
	assert.ErrorIs(t, err, ErrNotRunning)
}
