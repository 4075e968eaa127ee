// Package updatecheck compares the running version with the latest GitHub release.
package updatecheck

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"
)

const (
	// EnvDisableUpdateCheck disables update checks when set to "true".
	EnvDisableUpdateCheck = "CAREERMATE_DISABLE_UPDATE_CHECK"

	// EnvAllowPrereleaseUpdates enables prerelease version comparison when set to "true".
	EnvAllowPrereleaseUpdates = "CAREERMATE_ALLOW_PRERELEASE_UPDATES"

	checkErrDisabled = "update check disabled"
	checkErrDevBuild = "update check skipped for development build"
)

// Checker performs on-demand version checks against GitHub releases.
type Checker struct {
	logger       *zap.Logger
	version      string
	githubClient *GitHubClient

	mu          sync.RWMutex
	versionInfo *VersionInfo

	// For testing: allows injection of a custom check function
	checkFunc func(ctx context.Context) (*GitHubRelease, error)
}

// New creates a new update checker for repo ("owner/name").
func New(logger *zap.Logger, version, repo string) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	githubClient := NewGitHubClient(logger, repo)

	c := &Checker{
		logger:       logger,
		version:      version,
		githubClient: githubClient,
		versionInfo: &VersionInfo{
			CurrentVersion: version,
		},
	}

	c.checkFunc = func(ctx context.Context) (*GitHubRelease, error) {
		allowPrerelease := os.Getenv(EnvAllowPrereleaseUpdates) == "true"
		return c.githubClient.GetRelease(ctx, allowPrerelease)
	}

	return c
}

// GitHubClient exposes the underlying API client.
func (c *Checker) GitHubClient() *GitHubClient {
	return c.githubClient
}

// CheckNow performs a check immediately and returns the resulting info.
// Development builds and disabled checks return without a network call.
func (c *Checker) CheckNow(ctx context.Context) *VersionInfo {
	switch {
	case os.Getenv(EnvDisableUpdateCheck) == "true":
		c.logger.Info("Update check disabled by environment variable",
			zap.String("env", EnvDisableUpdateCheck))
		c.updateVersionInfo(nil, checkErrDisabled)
	case !c.isValidSemver():
		c.logger.Info("Update check skipped for non-semver version",
			zap.String("version", c.version))
		c.updateVersionInfo(nil, checkErrDevBuild)
	default:
		c.check(ctx)
	}
	return c.GetVersionInfo()
}

// GetVersionInfo returns the last known version information.
func (c *Checker) GetVersionInfo() *VersionInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info := *c.versionInfo
	return &info
}

func (c *Checker) check(ctx context.Context) {
	c.logger.Debug("Checking for updates")

	release, err := c.checkFunc(ctx)
	if err != nil {
		c.logger.Warn("Update check failed", zap.Error(err))
		c.updateVersionInfo(nil, err.Error())
		return
	}

	c.updateVersionInfo(release, "")
}

// updateVersionInfo updates the cached version information.
func (c *Checker) updateVersionInfo(release *GitHubRelease, checkError string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	if release == nil {
		// On error, preserve last known state but update error and timestamp
		c.versionInfo.CheckedAt = &now
		c.versionInfo.CheckError = checkError
		return
	}

	latestVersion := release.TagName
	updateAvailable := compareVersions(c.version, latestVersion)

	c.versionInfo = &VersionInfo{
		CurrentVersion:  c.version,
		LatestVersion:   latestVersion,
		UpdateAvailable: updateAvailable,
		ReleaseURL:      release.HTMLURL,
		CheckedAt:       &now,
		IsPrerelease:    release.Prerelease,
	}

	if updateAvailable {
		c.logger.Info("Update available",
			zap.String("current", c.version),
			zap.String("latest", latestVersion),
			zap.String("url", release.HTMLURL))
	} else {
		c.logger.Info("Running latest version",
			zap.String("version", c.version))
	}
}

// compareVersions reports whether latest is newer than current.
func compareVersions(current, latest string) bool {
	return semver.Compare(ensureVPrefix(current), ensureVPrefix(latest)) < 0
}

func (c *Checker) isValidSemver() bool {
	return semver.IsValid(ensureVPrefix(c.version))
}

func ensureVPrefix(version string) string {
	if len(version) > 0 && version[0] != 'v' {
		return "v" + version
	}
	return version
}

// SetCheckFunc sets a custom check function.
// Primarily for testing.
func (c *Checker) SetCheckFunc(fn func(ctx context.Context) (*GitHubRelease, error)) {
	c.checkFunc = fn
}
