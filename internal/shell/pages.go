package shell

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Page categorizes a location for navigation logging
type Page string

const (
	PageOther   Page = "other"
	PageLogin   Page = "login"
	PageCareers Page = "careers"
	PageLocal   Page = "local"
)

// ClassifyPage inspects a location's path
func ClassifyPage(loc string) Page {
	u, err := url.Parse(loc)
	if err != nil {
		return PageOther
	}
	if u.Scheme == "file" {
		return PageLocal
	}

	p := strings.TrimRight(u.Path, "/")
	switch {
	case strings.HasSuffix(p, "/login"):
		return PageLogin
	case strings.HasSuffix(p, "/careers"), strings.Contains(p, "/careers/"):
		return PageCareers
	default:
		return PageOther
	}
}

// FileURL turns a local path into a file:// URL
func FileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}
