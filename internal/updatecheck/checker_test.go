package updatecheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestChecker_CheckNow(t *testing.T) {
	checker := New(zaptest.NewLogger(t), "v1.0.0", "Suveerkh/CareerMate")
	checker.SetCheckFunc(func(context.Context) (*GitHubRelease, error) {
		return &GitHubRelease{
			TagName: "v1.1.0",
			HTMLURL: "https://github.com/Suveerkh/CareerMate/releases/tag/v1.1.0",
		}, nil
	})

	info := checker.CheckNow(context.Background())
	require.NotNil(t, info)
	assert.Equal(t, "v1.0.0", info.CurrentVersion)
	assert.Equal(t, "v1.1.0", info.LatestVersion)
	assert.True(t, info.UpdateAvailable)
	assert.Equal(t, "https://github.com/Suveerkh/CareerMate/releases/tag/v1.1.0", info.ReleaseURL)
	assert.NotNil(t, info.CheckedAt)
}

func TestChecker_CheckNow_NoUpdate(t *testing.T) {
	checker := New(zaptest.NewLogger(t), "v1.1.0", "Suveerkh/CareerMate")
	checker.SetCheckFunc(func(context.Context) (*GitHubRelease, error) {
		return &GitHubRelease{TagName: "v1.1.0"}, nil
	})

	info := checker.CheckNow(context.Background())
	assert.False(t, info.UpdateAvailable)
}

func TestChecker_CheckNow_ErrorKeepsLastKnown(t *testing.T) {
	checker := New(zaptest.NewLogger(t), "v1.0.0", "Suveerkh/CareerMate")
	checker.SetCheckFunc(func(context.Context) (*GitHubRelease, error) {
		return &GitHubRelease{TagName: "v2.0.0"}, nil
	})
	checker.CheckNow(context.Background())

	checker.SetCheckFunc(func(context.Context) (*GitHubRelease, error) {
		return nil, errors.New("network down")
	})
	info := checker.CheckNow(context.Background())
	assert.Equal(t, "v2.0.0", info.LatestVersion)
	assert.True(t, info.UpdateAvailable)
	assert.Equal(t, "network down", info.CheckError)
}

func TestChecker_DevelopmentBuildSkipsNetwork(t *testing.T) {
	checker := New(zaptest.NewLogger(t), "development", "Suveerkh/CareerMate")
	checker.SetCheckFunc(func(context.Context) (*GitHubRelease, error) {
		t.Fatal("check function must not be called for development builds")
		return nil, nil
	})

	info := checker.CheckNow(context.Background())
	assert.False(t, info.UpdateAvailable)
	assert.Equal(t, checkErrDevBuild, info.CheckError)
}

func TestChecker_DisabledByEnvironment(t *testing.T) {
	t.Setenv(EnvDisableUpdateCheck, "true")
	checker := New(zaptest.NewLogger(t), "v1.0.0", "Suveerkh/CareerMate")
	checker.SetCheckFunc(func(context.Context) (*GitHubRelease, error) {
		t.Fatal("check function must not be called when disabled")
		return nil, nil
	})

	info := checker.CheckNow(context.Background())
	assert.Equal(t, checkErrDisabled, info.CheckError)
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		current string
		latest  string
		want    bool
	}{
		{"v1.0.0", "v1.1.0", true},
		{"v1.1.0", "v1.0.0", false},
		{"v1.0.0", "v1.0.0", false},
		{"1.0.0", "1.1.0", true},
		{"v0.11.1", "v0.11.3", true},
	}

	for _, tc := range tests {
		t.Run(tc.current+"_vs_"+tc.latest, func(t *testing.T) {
			assert.Equal(t, tc.want, compareVersions(tc.current, tc.latest))
		})
	}
}

func TestGitHubClient_GetRelease(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/Suveerkh/CareerMate/releases/latest":
			_, _ = w.Write([]byte(`{"tag_name":"v1.2.0","html_url":"https://example.com/r/v1.2.0"}`))
		case "/repos/Suveerkh/CareerMate/releases":
			_, _ = w.Write([]byte(`[{"tag_name":"v1.3.0-rc.1","prerelease":true},{"tag_name":"v1.2.0"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewGitHubClient(zaptest.NewLogger(t), "Suveerkh/CareerMate")
	client.SetBaseURL(srv.URL)

	release, err := client.GetRelease(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", release.TagName)

	release, err = client.GetRelease(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "v1.3.0-rc.1", release.TagName)
	assert.True(t, release.Prerelease)

	missing := NewGitHubClient(zaptest.NewLogger(t), "nobody/nothing")
	missing.SetBaseURL(srv.URL)
	_, err = missing.GetRelease(context.Background(), false)
	assert.ErrorIs(t, err, ErrNoReleases)
}
