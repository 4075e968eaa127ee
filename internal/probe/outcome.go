package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"
)

// Kind is the tag of an Outcome
type Kind string

const (
	KindReachable          Kind = "reachable"
	KindReachableWithError Kind = "reachable_with_error"
	KindUnreachable        Kind = "unreachable"
)

// Cause explains why a probe was unreachable
type Cause string

const (
	CauseNone     Cause = ""
	CauseTimeout  Cause = "timeout"
	CauseRefused  Cause = "refused"
	CauseDNS      Cause = "dns"
	CauseCanceled Cause = "canceled"
	CauseOther    Cause = "other"
)

// Outcome is the classified result of a single probe. Any HTTP response is
// reachable; only transport failures are unreachable.
type Outcome struct {
	Kind       Kind
	StatusCode int
	Cause      Cause
	Err        error
	Latency    time.Duration
}

// Reachable reports whether the endpoint answered at the HTTP level
func (o Outcome) Reachable() bool {
	return o.Kind == KindReachable || o.Kind == KindReachableWithError
}

// String implements fmt.Stringer
func (o Outcome) String() string {
	switch o.Kind {
	case KindReachable, KindReachableWithError:
		return fmt.Sprintf("%s{status=%d}", o.Kind, o.StatusCode)
	default:
		return fmt.Sprintf("%s{cause=%s}", o.Kind, o.Cause)
	}
}

// FromStatus classifies an HTTP response status
func FromStatus(statusCode int) Outcome {
	if statusCode >= 400 {
		return Outcome{Kind: KindReachableWithError, StatusCode: statusCode}
	}
	return Outcome{Kind: KindReachable, StatusCode: statusCode}
}

// FromError classifies a transport error
func FromError(err error) Outcome {
	return Outcome{Kind: KindUnreachable, Cause: ClassifyError(err), Err: err}
}

// ClassifyError maps a transport error to a Cause
func ClassifyError(err error) Cause {
	if err == nil {
		return CauseNone
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CauseTimeout
	}
	if errors.Is(err, context.Canceled) {
		return CauseCanceled
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return CauseTimeout
		}
		return CauseDNS
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return CauseRefused
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CauseTimeout
	}

	return CauseOther
}
