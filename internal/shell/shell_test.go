package shell

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaterializeViews(t *testing.T) {
	dataDir := t.TempDir()
	dir, err := MaterializeViews(dataDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, ViewsDirName), dir)

	for _, name := range []string{"splash.html", "offline.html", "no-connection.html"} {
		data, err := os.ReadFile(ViewPath(dir)(name))
		require.NoError(t, err, name)
		assert.Contains(t, string(data), "<html")
	}
}

func TestClassifyPage(t *testing.T) {
	tests := []struct {
		loc  string
		want Page
	}{
		{"https://example.com/login", PageLogin},
		{"https://example.com/login/", PageLogin},
		{"https://example.com/careers", PageCareers},
		{"https://example.com/careers/42", PageCareers},
		{"https://example.com/", PageOther},
		{"http://127.0.0.1:5001/dashboard", PageOther},
		{"file:///tmp/views/offline.html", PageLocal},
		{"://bad", PageOther},
	}
	for _, tt := range tests {
		t.Run(tt.loc, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPage(tt.loc))
		})
	}
}

func TestHeadlessWindowTracksLocation(t *testing.T) {
	w := NewHeadlessWindow(zaptest.NewLogger(t))

	require.NoError(t, w.LoadURL("https://example.com/careers"))
	assert.Equal(t, "https://example.com/careers", w.Current())
	assert.Equal(t, "https://example.com/careers", <-w.Navigated())

	require.NoError(t, w.LoadFile("/tmp/views/splash.html"))
	assert.Equal(t, "file:///tmp/views/splash.html", w.Current())
}

func TestBrowserWindowOpenFailureKeepsLocation(t *testing.T) {
	w := NewBrowserWindow(zaptest.NewLogger(t))
	var opened []string
	w.open = func(target string) error {
		opened = append(opened, target)
		if target == "https://broken.example" {
			return errors.New("no opener")
		}
		return nil
	}

	require.NoError(t, w.LoadURL("https://example.com"))
	err := w.LoadURL("https://broken.example")
	require.Error(t, err)

	assert.Equal(t, "https://example.com", w.Current())
	assert.Equal(t, []string{"https://example.com", "https://broken.example"}, opened)
}

func TestNavigationLoggerLogsPagesOfInterest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ch := make(chan string, 3)
	ch <- "https://example.com/login"
	ch <- "https://example.com/about"
	ch <- "https://example.com/careers"
	close(ch)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	RunNavigationLogger(ctx, zap.New(core), ch)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "User navigated to login page", entries[0].Message)
	assert.Equal(t, "User navigated to careers page", entries[1].Message)
}
