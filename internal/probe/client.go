// Package probe performs bounded HTTP reachability checks.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Suveerkh/CareerMate/internal/candidate"
)

const (
	// maxDrainBytes bounds how much of a response body is read before closing
	maxDrainBytes = 64 << 10

	tracerName = "github.com/Suveerkh/CareerMate/internal/probe"
)

// Client issues single GET probes. It never retries.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
	userAgent  string
}

// NewClient creates a probe client. Keep-alives are disabled so a probe never
// reuses a connection to a backend process that has since been replaced.
func NewClient(logger *zap.Logger, userAgent string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = true

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			// Redirects are a response too; following them could turn a
			// reachable candidate into an unreachable one.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger:    logger,
		userAgent: userAgent,
	}
}

// Probe checks an endpoint within timeout
func (c *Client) Probe(ctx context.Context, ep candidate.Endpoint, timeout time.Duration) Outcome {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "probe")
	defer span.End()
	span.SetAttributes(
		attribute.String("endpoint.name", ep.Name),
		attribute.String("endpoint.url", ep.URL),
		attribute.String("endpoint.tier", ep.Tier.String()),
	)

	outcome := c.ProbeURL(ctx, ep.URL, timeout)

	span.SetAttributes(attribute.String("probe.kind", string(outcome.Kind)))
	if outcome.Reachable() {
		span.SetAttributes(attribute.Int("http.status_code", outcome.StatusCode))
	} else {
		span.SetStatus(codes.Error, string(outcome.Cause))
	}

	c.logger.Debug("Probe finished",
		zap.String("endpoint", ep.Name),
		zap.String("url", ep.URL),
		zap.String("outcome", outcome.String()),
		zap.Duration("latency", outcome.Latency))

	return outcome
}

// ProbeURL issues a GET to rawURL and classifies the result
func (c *Client) ProbeURL(ctx context.Context, rawURL string, timeout time.Duration) Outcome {
	start := time.Now()

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return Outcome{
			Kind:    KindUnreachable,
			Cause:   CauseOther,
			Err:     fmt.Errorf("failed to create request: %w", err),
			Latency: time.Since(start),
		}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome := FromError(err)
		// A cancelled parent is not the candidate's fault
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			outcome.Cause = CauseCanceled
		}
		outcome.Latency = time.Since(start)
		return outcome
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	outcome := FromStatus(resp.StatusCode)
	outcome.Latency = time.Since(start)
	return outcome
}

// CheckInternet probes well-known sites in order and reports the first one that
// answers 2xx. It is best effort; callers only log the result.
func (c *Client) CheckInternet(ctx context.Context, sites []string, timeout time.Duration) (string, bool) {
	for _, site := range sites {
		if ctx.Err() != nil {
			return "", false
		}

		c.logger.Debug("Checking internet connectivity", zap.String("site", site))
		outcome := c.ProbeURL(ctx, site, timeout)
		if outcome.Reachable() && outcome.StatusCode >= 200 && outcome.StatusCode < 300 {
			c.logger.Info("Internet connection confirmed", zap.String("site", site))
			return site, true
		}

		c.logger.Debug("Internet check site failed",
			zap.String("site", site),
			zap.String("outcome", outcome.String()),
			zap.Error(outcome.Err))
	}

	c.logger.Warn("No internet connection available", zap.Int("sites_tried", len(sites)))
	return "", false
}
