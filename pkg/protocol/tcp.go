package protocol

import "context"

// TCPProber connects to the target and writes a single byte.
type TCPProber struct {
	opts Options
}

// NewTCPProber creates a new TCP prober.
func NewTCPProber(opts Options) *TCPProber {
	return &TCPProber{opts: opts}
}

// Probe succeeds once the connection is established and the sentinel byte is
// written. The peer's reply is read but not required.
func (p *TCPProber) Probe(ctx context.Context, target string) error {
	addr, err := p.Address(target)
	if err != nil {
		return err
	}

	conn, stop, err := dial(ctx, "tcp", addr, p.opts)
	if err != nil {
		return NewError("dial", addr, err)
	}
	defer conn.Close()
	defer stop()

	if err := exchange(conn, sentinel, p.opts); err != nil {
		return NewError("write", addr, err)
	}

	// Best effort: silent peers, resets and EOF all still count as reached.
	buf := make([]byte, 0xFF)
	_, _ = conn.Read(buf)

	if err := ctx.Err(); err != nil {
		return NewError("read", addr, err)
	}
	return nil
}

// Address returns the host:port dialed for target. The port is mandatory.
func (p *TCPProber) Address(target string) (string, error) {
	_, addr, err := hostPort(target, 0)
	return addr, err
}
