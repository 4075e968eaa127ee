package updatecheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultAPIBaseURL is the GitHub REST API root
	DefaultAPIBaseURL = "https://api.github.com"

	// httpTimeout is the timeout for GitHub API requests
	httpTimeout = 10 * time.Second
)

// ErrNoReleases is returned when the repository has no published releases
var ErrNoReleases = errors.New("no releases found")

// GitHubClient handles communication with the GitHub Releases API.
type GitHubClient struct {
	logger     *zap.Logger
	httpClient *http.Client
	baseURL    string
	repo       string
}

// NewGitHubClient creates a client for repo ("owner/name").
func NewGitHubClient(logger *zap.Logger, repo string) *GitHubClient {
	return &GitHubClient{
		logger: logger,
		httpClient: &http.Client{
			Timeout: httpTimeout,
		},
		baseURL: DefaultAPIBaseURL,
		repo:    repo,
	}
}

// SetBaseURL points the client at a different API root.
func (c *GitHubClient) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// GetLatestRelease fetches the latest stable release.
func (c *GitHubClient) GetLatestRelease(ctx context.Context) (*GitHubRelease, error) {
	var release GitHubRelease
	if err := c.get(ctx, fmt.Sprintf("%s/repos/%s/releases/latest", c.baseURL, c.repo), &release); err != nil {
		return nil, err
	}
	return &release, nil
}

// GetLatestReleaseIncludingPrereleases fetches the newest release of any kind.
func (c *GitHubClient) GetLatestReleaseIncludingPrereleases(ctx context.Context) (*GitHubRelease, error) {
	var releases []GitHubRelease
	if err := c.get(ctx, fmt.Sprintf("%s/repos/%s/releases", c.baseURL, c.repo), &releases); err != nil {
		return nil, err
	}
	if len(releases) == 0 {
		return nil, ErrNoReleases
	}
	// GitHub returns releases newest first
	return &releases[0], nil
}

// GetRelease fetches the appropriate release based on whether prereleases should be included.
func (c *GitHubClient) GetRelease(ctx context.Context, includePrereleases bool) (*GitHubRelease, error) {
	if includePrereleases {
		return c.GetLatestReleaseIncludingPrereleases(ctx)
	}
	return c.GetLatestRelease(ctx)
}

func (c *GitHubClient) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Failed to fetch releases", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("failed to fetch releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNoReleases
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("GitHub API returned non-200 status",
			zap.Int("status_code", resp.StatusCode),
			zap.String("url", url))
		return fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Debug("Failed to decode release response", zap.Error(err))
		return fmt.Errorf("failed to decode release: %w", err)
	}
	return nil
}
