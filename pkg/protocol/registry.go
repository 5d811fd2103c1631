package protocol

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Registry maps protocol names to probers.
type Registry struct {
	mu      sync.RWMutex
	probers map[string]Prober
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{probers: make(map[string]Prober)}
}

// NewDefaultRegistry creates a registry holding every built-in prober.
func NewDefaultRegistry(opts Options) *Registry {
	r := NewRegistry()

	r.Register(TCP, NewTCPProber(opts))
	r.Register(UDP, NewUDPProber(opts))
	r.Register(HTTPConnect, NewHTTPProber(http.MethodConnect, opts))
	r.Register(HTTPGet, NewHTTPProber(http.MethodGet, opts))
	r.Register(HTTPPost, NewHTTPProber(http.MethodPost, opts))
	r.Register(HTTPPut, NewHTTPProber(http.MethodPut, opts))
	r.Register(HTTPDelete, NewHTTPProber(http.MethodDelete, opts))
	r.Register(HTTPPatch, NewHTTPProber(http.MethodPatch, opts))
	r.Register(GRPC, NewGRPCProber(opts))

	return r
}

// Register adds p under name, replacing any earlier registration.
func (r *Registry) Register(name string, p Prober) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probers[name] = p
}

// Lookup returns the prober registered under name.
func (r *Registry) Lookup(name string) (Prober, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.probers[name]
	if !ok {
		return nil, &UnknownProtocolError{Name: name}
	}
	return p, nil
}

// Invoke runs the prober registered under name once and times it. The
// elapsed time is only returned when the probe succeeds.
func (r *Registry) Invoke(ctx context.Context, name, target string) (time.Duration, error) {
	p, err := r.Lookup(name)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	err = p.Probe(ctx, target)
	elapsed := time.Since(start)

	if err != nil {
		return 0, err
	}
	return elapsed, nil
}

// Names returns the registered protocol names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.probers))
	for name := range r.probers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
