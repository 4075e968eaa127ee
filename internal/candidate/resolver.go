// Package candidate builds the ordered list of endpoints the shell may navigate to.
package candidate

import (
	"fmt"
	"strings"

	"github.com/Suveerkh/CareerMate/internal/config"
)

// Tier ranks an endpoint. Lower tiers are probed first.
type Tier int

const (
	TierLocal  Tier = 0
	TierRemote Tier = 1
	TierMirror Tier = 2
)

// String returns the tier label used in logs and metrics
func (t Tier) String() string {
	switch {
	case t == TierLocal:
		return "local"
	case t == TierRemote:
		return "remote"
	case t >= TierMirror:
		return "mirror"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Endpoint is a candidate URL. Values are immutable once built.
type Endpoint struct {
	Name string
	URL  string
	Tier Tier

	// Landing is what the window opens when this endpoint wins. It differs
	// from URL only for the local backend, whose root is a health page.
	Landing string
}

// NavigateURL returns the URL the window should load for this endpoint
func (e Endpoint) NavigateURL() string {
	if e.Landing != "" {
		return e.Landing
	}
	return e.URL
}

// String implements fmt.Stringer
func (e Endpoint) String() string {
	return fmt.Sprintf("%s(%s)", e.Name, e.URL)
}

// Resolver orders candidates for a given configuration
type Resolver struct {
	localURL     string
	localLanding string
	mirrors      []string
}

// NewResolver builds a resolver from runtime settings
func NewResolver(settings config.Settings) *Resolver {
	localURL := settings.LocalURL()
	landing := ""
	if p := strings.TrimSpace(settings.LocalLandingPath); p != "" && p != "/" {
		landing = strings.TrimRight(localURL, "/") + "/" + strings.TrimLeft(p, "/")
	}

	return &Resolver{
		localURL:     localURL,
		localLanding: landing,
		mirrors:      append([]string(nil), settings.Mirrors...),
	}
}

// LocalEndpoint returns the local backend endpoint regardless of configuration
func (r *Resolver) LocalEndpoint() Endpoint {
	return Endpoint{
		Name:    "local",
		URL:     r.localURL,
		Tier:    TierLocal,
		Landing: r.localLanding,
	}
}

// OrderedCandidates returns the local endpoint (only when local fallback is
// enabled), then the configured primary server, then the mirrors in their
// fixed order. The result is a pure function of cfg and the resolver settings.
func (r *Resolver) OrderedCandidates(cfg *config.Config) []Endpoint {
	out := make([]Endpoint, 0, len(r.mirrors)+2)

	if cfg.UseLocalServer {
		out = append(out, r.LocalEndpoint())
	}

	if primary := strings.TrimSpace(cfg.ServerURL); primary != "" {
		out = append(out, Endpoint{
			Name: "primary",
			URL:  primary,
			Tier: TierRemote,
		})
	}

	for i, m := range r.mirrors {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		out = append(out, Endpoint{
			Name: fmt.Sprintf("mirror-%d", i+1),
			URL:  m,
			Tier: TierMirror + Tier(i),
		})
	}

	return out
}
