package protocol

import (
	"context"
	"net"
	"time"

	"github.com/knock/pkg/uri"
)

// Protocol names accepted by the default registry. Names are case-sensitive.
const (
	TCP         = "TCP"
	UDP         = "UDP"
	HTTPConnect = "HTTP-CONNECT"
	HTTPGet     = "HTTP-GET"
	HTTPPost    = "HTTP-POST"
	HTTPPut     = "HTTP-PUT"
	HTTPDelete  = "HTTP-DELETE"
	HTTPPatch   = "HTTP-PATCH"
	GRPC        = "GRPC"
)

// sentinel is the single byte written by the TCP and UDP probers.
var sentinel = []byte{0x01}

// Prober is the interface for protocol implementations.
type Prober interface {
	// Probe makes one attempt to reach target and reports why it failed.
	// A nil error means the target answered the way the protocol expects.
	Probe(ctx context.Context, target string) error
}

// Addresser is implemented by probers that can tell, before any attempt,
// which host:port a target maps to. A target that cannot be dialed is
// rejected with a *ProbeError.
type Addresser interface {
	Address(target string) (string, error)
}

// ProberFunc adapts an ordinary function to the Prober interface.
type ProberFunc func(ctx context.Context, target string) error

// Probe calls f(ctx, target).
func (f ProberFunc) Probe(ctx context.Context, target string) error {
	return f(ctx, target)
}

// Options contains common configuration for all probers.
type Options struct {
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxResponseBytes bounds how much of a response is buffered while
	// looking for the status line.
	MaxResponseBytes int
	UserAgent        string
}

// DefaultOptions returns the reference deadlines of five seconds each.
func DefaultOptions() Options {
	return Options{
		DialTimeout:      5 * time.Second,
		ReadTimeout:      5 * time.Second,
		WriteTimeout:     5 * time.Second,
		MaxResponseBytes: 4096,
		UserAgent:        "Knock Knock",
	}
}

// hostPort parses target and returns its host:port, filling defaultPort when
// the target has none. A zero defaultPort makes the port mandatory.
func hostPort(target string, defaultPort int) (uri.URI, string, error) {
	u, err := uri.Parse(target)
	if err != nil {
		return u, "", &ProbeError{Kind: KindMalformed, Op: "parse", Target: target, Err: err}
	}

	addr := u.Authority(defaultPort)
	if _, port, err := net.SplitHostPort(addr); err != nil || port == "" {
		return u, "", &ProbeError{Kind: KindResolution, Op: "resolve", Target: target, Err: ErrMissingPort}
	}
	return u, addr, nil
}

// dial opens a connection and arranges for it to be interrupted when ctx is
// done. The returned stop function must be called once the connection is no
// longer in use.
func dial(ctx context.Context, network, addr string, opts Options) (net.Conn, func() bool, error) {
	d := &net.Dialer{Timeout: opts.DialTimeout}

	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	return conn, stop, nil
}

// exchange writes payload under the write deadline, then arms the read
// deadline.
func exchange(conn net.Conn, payload []byte, opts Options) error {
	if err := conn.SetWriteDeadline(time.Now().Add(opts.WriteTimeout)); err != nil {
		return err
	}
	if _, err := conn.Write(payload); err != nil {
		return err
	}
	return conn.SetReadDeadline(time.Now().Add(opts.ReadTimeout))
}
