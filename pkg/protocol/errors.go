package protocol

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// Kind classifies why a probe attempt failed.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConnection covers refused, unreachable and reset transports.
	KindConnection
	// KindTimeout means a dial, read or write deadline expired.
	KindTimeout
	// KindRejected means the transport worked but the peer said the
	// endpoint does not serve the capability (HTTP 404/501, gRPC NOT_SERVING).
	KindRejected
	// KindResolution means the host could not be resolved.
	KindResolution
	// KindMalformed means the target string could not be parsed.
	KindMalformed
)

// Kinds lists every failure classification in display order.
var Kinds = []Kind{KindConnection, KindTimeout, KindRejected, KindResolution, KindMalformed, KindUnknown}

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindRejected:
		return "rejected"
	case KindResolution:
		return "resolution"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// ErrUnknownProtocol is matched by errors.Is for registry lookup misses.
var ErrUnknownProtocol = errors.New("unknown protocol")

// ErrMissingPort is returned for targets that name no port when the protocol
// has no default one.
var ErrMissingPort = errors.New("missing port")

// ErrTLSUnsupported is returned for https targets: probes speak plaintext.
var ErrTLSUnsupported = errors.New("https is not supported")

// UnknownProtocolError reports a protocol name with no registered prober.
type UnknownProtocolError struct {
	Name string
}

func (e *UnknownProtocolError) Error() string {
	return fmt.Sprintf("unknown protocol %q", e.Name)
}

// Is reports whether target is ErrUnknownProtocol.
func (e *UnknownProtocolError) Is(target error) bool {
	return target == ErrUnknownProtocol
}

// ProbeError is the classified failure of one probe attempt.
type ProbeError struct {
	Kind   Kind
	Op     string
	Target string
	Err    error
}

// NewError builds a ProbeError, deriving the kind from err.
func NewError(op, target string, err error) *ProbeError {
	return &ProbeError{Kind: Classify(err), Op: op, Target: target, Err: err}
}

func (e *ProbeError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.Target, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// StatusError carries a protocol-level rejection.
type StatusError struct {
	Code int
	Line string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d (%q)", e.Code, e.Line)
}

// Classify returns the failure kind of err. Errors that already carry a kind
// keep it; deadline expiry of any flavour is a timeout; everything else is a
// connection failure.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var pe *ProbeError
	if errors.As(err, &pe) {
		return pe.Kind
	}

	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}

	return KindConnection
}
