package protocol

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// GRPCProber asks the target for its overall health using the standard gRPC
// health checking protocol over plaintext.
type GRPCProber struct {
	opts Options
}

// NewGRPCProber creates a new gRPC prober.
func NewGRPCProber(opts Options) *GRPCProber {
	return &GRPCProber{opts: opts}
}

// Probe opens a fresh connection per attempt so no state carries over
// between attempts.
func (p *GRPCProber) Probe(ctx context.Context, target string) error {
	addr, err := p.Address(target)
	if err != nil {
		return err
	}

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUserAgent(p.opts.UserAgent),
	)
	if err != nil {
		return &ProbeError{Kind: KindMalformed, Op: "dial", Target: addr, Err: err}
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, p.opts.DialTimeout+p.opts.ReadTimeout)
	defer cancel()

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{
		Service: "", // empty string means overall server health
	})
	if err != nil {
		return &ProbeError{Kind: classifyStatus(err), Op: "check", Target: addr, Err: err}
	}

	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		return &ProbeError{
			Kind:   KindRejected,
			Op:     "check",
			Target: addr,
			Err:    fmt.Errorf("health status %s", resp.GetStatus()),
		}
	}
	return nil
}

func classifyStatus(err error) Kind {
	s, ok := status.FromError(err)
	if !ok {
		return Classify(err)
	}

	switch s.Code() {
	case codes.DeadlineExceeded:
		return KindTimeout
	case codes.Unimplemented, codes.NotFound:
		return KindRejected
	default:
		return KindConnection
	}
}

// Address returns the host:port dialed for target. The port is mandatory.
func (p *GRPCProber) Address(target string) (string, error) {
	_, addr, err := hostPort(target, 0)
	return addr, err
}
