package observability

import (
	"context"
	"errors"
)

// CheckFunc adapts a function to HealthChecker
type CheckFunc struct {
	name string
	fn   func(ctx context.Context) error
}

// NewCheck creates a named health check
func NewCheck(name string, fn func(ctx context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

// HealthCheck implements HealthChecker
func (c *CheckFunc) HealthCheck(ctx context.Context) error {
	return c.fn(ctx)
}

// Name implements HealthChecker
func (c *CheckFunc) Name() string {
	return c.name
}

// ErrNotServing is reported while the window shows a local error page
var ErrNotServing = errors.New("no endpoint is being served")

// ConnectivityChecker reports unhealthy unless the shell is serving content
func ConnectivityChecker(serving func() bool) HealthChecker {
	return NewCheck("connectivity", func(context.Context) error {
		if !serving() {
			return ErrNotServing
		}
		return nil
	})
}
