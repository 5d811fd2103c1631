package protocol

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/knock/pkg/uri"
)

// DefaultHTTPPort is dialed when an HTTP target has no explicit port.
const DefaultHTTPPort = 80

// jsonBody is sent by the methods that carry a request body.
const jsonBody = "{}"

var crlf = []byte("\r\n")

// HTTPProber probes a target with a hand-written HTTP/1.1 request and checks
// the status line of the reply.
type HTTPProber struct {
	method string
	opts   Options
}

// NewHTTPProber creates a prober for one HTTP method.
func NewHTTPProber(method string, opts Options) *HTTPProber {
	return &HTTPProber{method: method, opts: opts}
}

// Method returns the HTTP method sent by the prober.
func (p *HTTPProber) Method() string {
	return p.method
}

// Probe sends the request and fails only when the status code says the
// endpoint is missing (404) or the method is not implemented (501). Replies
// without a parsable status line count as success.
func (p *HTTPProber) Probe(ctx context.Context, target string) error {
	u, addr, err := p.endpoint(target)
	if err != nil {
		return err
	}

	conn, stop, err := dial(ctx, "tcp", addr, p.opts)
	if err != nil {
		return NewError("dial", addr, err)
	}
	defer conn.Close()
	defer stop()

	if err := exchange(conn, p.Request(u), p.opts); err != nil {
		return NewError("write", addr, err)
	}

	line, err := readStatusLine(conn, p.opts.MaxResponseBytes)
	if err != nil && line == "" {
		return NewError("read", addr, err)
	}

	if code, ok := parseStatusCode(line); ok && rejected(code) {
		return &ProbeError{
			Kind:   KindRejected,
			Op:     strings.ToLower(p.method),
			Target: addr,
			Err:    &StatusError{Code: code, Line: line},
		}
	}
	return nil
}

// Address returns the host:port dialed for target, port 80 unless the target
// names one. https targets are rejected.
func (p *HTTPProber) Address(target string) (string, error) {
	_, addr, err := p.endpoint(target)
	return addr, err
}

func (p *HTTPProber) endpoint(target string) (uri.URI, string, error) {
	u, addr, err := hostPort(target, DefaultHTTPPort)
	if err != nil {
		return u, "", err
	}
	if strings.EqualFold(u.Scheme, "https") {
		return u, "", &ProbeError{Kind: KindMalformed, Op: "parse", Target: target, Err: ErrTLSUnsupported}
	}
	return u, addr, nil
}

// Request renders the raw request bytes for u.
func (p *HTTPProber) Request(u uri.URI) []byte {
	var b bytes.Buffer

	requestTarget := u.RequestTarget()
	if p.method == http.MethodConnect {
		requestTarget = u.Authority(DefaultHTTPPort)
	}

	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", p.method, requestTarget)
	fmt.Fprintf(&b, "Host: %s\r\n", u.Host)
	fmt.Fprintf(&b, "User-Agent: %s\r\n", p.opts.UserAgent)

	withBody := false
	switch p.method {
	case http.MethodGet:
		b.WriteString("Connection: close\r\n")
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		b.WriteString("Content-Type: application/json\r\n")
		fmt.Fprintf(&b, "Content-Length: %d\r\n", len(jsonBody))
		withBody = true
	}

	b.WriteString("\r\n")
	if withBody {
		b.WriteString(jsonBody)
	}

	return b.Bytes()
}

func rejected(code int) bool {
	return code == http.StatusNotFound || code == http.StatusNotImplemented
}

// readStatusLine reads until the first CRLF, EOF, a read error or limit bytes,
// whichever comes first. Bytes past the status line are discarded; a line
// longer than limit is returned truncated.
func readStatusLine(r io.Reader, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultOptions().MaxResponseBytes
	}

	buf := make([]byte, 0, min(limit, 512))
	chunk := make([]byte, min(limit, 512))

	for len(buf) < limit {
		n, err := r.Read(chunk[:min(len(chunk), limit-len(buf))])
		buf = append(buf, chunk[:n]...)

		if i := bytes.Index(buf, crlf); i >= 0 {
			return string(buf[:i]), nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return string(buf), nil
			}
			return string(buf), err
		}
	}

	return string(buf), nil
}

// parseStatusCode extracts the code from "HTTP/1.1 200 OK".
func parseStatusCode(line string) (int, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") || len(fields[1]) != 3 {
		return 0, false
	}

	code, err := strconv.Atoi(fields[1])
	if err != nil || code < 100 {
		return 0, false
	}
	return code, true
}
