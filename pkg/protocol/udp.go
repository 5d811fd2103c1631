package protocol

import "context"

// UDPProber sends a single datagram and waits for any reply.
//
// UDP is connectionless, so a silent port (closed, filtered or simply not
// answering) cannot be told apart from an unreachable host: both expire the
// read deadline and count as a timeout.
type UDPProber struct {
	opts Options
}

// NewUDPProber creates a new UDP prober.
func NewUDPProber(opts Options) *UDPProber {
	return &UDPProber{opts: opts}
}

// Probe sends the sentinel byte from an ephemeral port and waits for a reply.
func (p *UDPProber) Probe(ctx context.Context, target string) error {
	addr, err := p.Address(target)
	if err != nil {
		return err
	}

	conn, stop, err := dial(ctx, "udp", addr, p.opts)
	if err != nil {
		return NewError("dial", addr, err)
	}
	defer conn.Close()
	defer stop()

	if err := exchange(conn, sentinel, p.opts); err != nil {
		return NewError("write", addr, err)
	}

	buf := make([]byte, 0xFF)
	if _, err := conn.Read(buf); err != nil {
		return NewError("read", addr, err)
	}
	return nil
}

// Address returns the host:port dialed for target. The port is mandatory.
func (p *UDPProber) Address(target string) (string, error) {
	_, addr, err := hostPort(target, 0)
	return addr, err
}
