// Package resolve turns the host part of a target into socket addresses
// before any probe is sent.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"time"

	"golang.org/x/net/idna"

	"github.com/knock/pkg/protocol"
	"github.com/knock/pkg/uri"
)

// ErrNoAddresses is returned when a lookup succeeds but yields nothing.
var ErrNoAddresses = errors.New("no addresses found")

// Lookuper is the subset of *net.Resolver used here.
type Lookuper interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Resolver resolves target hosts with a per-lookup timeout.
type Resolver struct {
	lookup  Lookuper
	timeout time.Duration
}

// New creates a Resolver. A nil lookuper uses net.DefaultResolver.
func New(lookup Lookuper, timeout time.Duration) *Resolver {
	if lookup == nil {
		lookup = net.DefaultResolver
	}
	return &Resolver{lookup: lookup, timeout: timeout}
}

// Resolve returns the addresses of the target's host, each joined with the
// target's port when it has one. Failures are *protocol.ProbeError values of
// kind KindResolution.
func (r *Resolver) Resolve(ctx context.Context, target string) ([]string, error) {
	u, err := uri.Parse(target)
	if err != nil {
		return nil, &protocol.ProbeError{Kind: protocol.KindMalformed, Op: "parse", Target: target, Err: err}
	}

	domain := trimBrackets(u.Domain)
	if domain == "" {
		return nil, resolutionError(u.Host, errors.New("empty host"))
	}

	var hosts []string
	if ip, err := netip.ParseAddr(domain); err == nil {
		hosts = []string{ip.String()}
	} else {
		ascii, err := idna.Lookup.ToASCII(domain)
		if err != nil {
			return nil, resolutionError(u.Host, fmt.Errorf("invalid domain: %w", err))
		}

		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}

		hosts, err = r.lookup.LookupHost(ctx, ascii)
		if err != nil {
			return nil, resolutionError(u.Host, err)
		}
	}

	if len(hosts) == 0 {
		return nil, resolutionError(u.Host, ErrNoAddresses)
	}

	addrs := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if u.Port > 0 {
			addrs = append(addrs, net.JoinHostPort(h, strconv.Itoa(u.Port)))
		} else {
			addrs = append(addrs, h)
		}
	}
	return addrs, nil
}

func resolutionError(host string, err error) error {
	return &protocol.ProbeError{Kind: protocol.KindResolution, Op: "resolve", Target: host, Err: err}
}

func trimBrackets(s string) string {
	if len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']' {
		return s[1 : len(s)-1]
	}
	return s
}
