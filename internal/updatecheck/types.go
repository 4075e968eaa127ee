package updatecheck

import "time"

// VersionInfo describes the running version and whether a newer release exists
type VersionInfo struct {
	CurrentVersion  string     `json:"current_version"`
	LatestVersion   string     `json:"latest_version,omitempty"`
	UpdateAvailable bool       `json:"available"`
	ReleaseURL      string     `json:"release_url,omitempty"`
	CheckedAt       *time.Time `json:"checked_at,omitempty"`
	IsPrerelease    bool       `json:"is_prerelease,omitempty"`
	CheckError      string     `json:"check_error,omitempty"`
}

// GitHubRelease is the subset of the GitHub Releases API payload we read
type GitHubRelease struct {
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	Prerelease  bool   `json:"prerelease"`
	HTMLURL     string `json:"html_url"`
	PublishedAt string `json:"published_at"`
}
