package tray

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Suveerkh/CareerMate/internal/appctx"
	"github.com/Suveerkh/CareerMate/internal/updatecheck"
)

func TestBuildMenuState(t *testing.T) {
	tests := []struct {
		name    string
		status  appctx.Status
		color   string
		canOpen bool
		tooltip string
	}{
		{
			name:    "serving",
			status:  appctx.Status{State: "serving", Serving: true, ActiveEndpoint: "primary", ActiveURL: "https://example.com", StateMessage: "Connected"},
			color:   iconKeyOf(iconServing),
			canOpen: true,
			tooltip: "CareerMate - connected to primary",
		},
		{
			name:    "offline",
			status:  appctx.Status{State: "offline"},
			color:   iconKeyOf(iconOffline),
			tooltip: "CareerMate - offline, retrying",
		},
		{
			name:    "no connection",
			status:  appctx.Status{State: "no_connection"},
			color:   iconKeyOf(iconFailed),
			tooltip: "CareerMate - unable to connect",
		},
		{
			name:    "splash",
			status:  appctx.Status{State: "splash"},
			color:   iconKeyOf(iconIdle),
			tooltip: "CareerMate - starting",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := BuildMenuState(tt.status)
			assert.Equal(t, tt.color, iconKeyOf(ms.IconColor))
			assert.Equal(t, tt.canOpen, ms.CanOpen)
			assert.Equal(t, tt.tooltip, ms.Tooltip)
		})
	}
}

func TestBuildMenuStateText(t *testing.T) {
	ms := BuildMenuState(appctx.Status{
		State:          "serving",
		StateMessage:   "Connected",
		ServerURL:      "https://example.com",
		UseLocalServer: true,
		Update:         &updatecheck.VersionInfo{UpdateAvailable: true, LatestVersion: "v1.2.0"},
	})

	assert.Equal(t, "Status: Connected", ms.StatusText)
	assert.Equal(t, "Server: https://example.com", ms.ServerText)
	assert.True(t, ms.LocalOn)
	assert.Equal(t, "Update Available: v1.2.0", ms.UpdateText)
	// Serving without an active URL has nothing to open
	assert.False(t, ms.CanOpen)
}

func TestRenderIcon(t *testing.T) {
	data := renderIcon(iconServing)
	require.NotEmpty(t, data)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, iconSize, img.Bounds().Dx())

	r, g, b, _ := img.At(iconSize/2, iconSize/2).RGBA()
	assert.Equal(t, uint32(iconServing.R), r>>8)
	assert.Equal(t, uint32(iconServing.G), g>>8)
	assert.Equal(t, uint32(iconServing.B), b>>8)

	_, _, _, alpha := img.At(0, 0).RGBA()
	assert.Zero(t, alpha)
}

func TestAutostartPlist(t *testing.T) {
	home := t.TempDir()
	binDir := filepath.Join(home, ".local", "bin")
	require.NoError(t, os.MkdirAll(binDir, 0755))

	m := &AutostartManager{
		executablePath: "/Applications/CareerMate.app/Contents/MacOS/careermate",
		logDir:         filepath.Join(home, "Logs"),
		workingDir:     "/Applications/CareerMate.app/Contents/MacOS",
		homeDir:        home,
	}

	plist := m.renderPlist()
	assert.Contains(t, plist, "<string>com.careermate.shell</string>")
	assert.Contains(t, plist, "<string>/Applications/CareerMate.app/Contents/MacOS/careermate</string>")
	assert.Contains(t, plist, "<string>run</string>")
	assert.Contains(t, plist, binDir)
	assert.Equal(t, filepath.Join(home, "Library", "LaunchAgents", "com.careermate.shell.plist"), m.plistPath())

	for _, p := range strings.Split(m.discoverPath(), ":") {
		assert.True(t, pathExists(p), p)
	}
}
