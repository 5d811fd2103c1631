package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knock/pkg/protocol"
)

type fakeLookup struct {
	hosts  map[string][]string
	err    error
	called []string
}

func (f *fakeLookup) LookupHost(_ context.Context, host string) ([]string, error) {
	f.called = append(f.called, host)
	if f.err != nil {
		return nil, f.err
	}
	return f.hosts[host], nil
}

func TestResolve_JoinsPort(t *testing.T) {
	f := &fakeLookup{hosts: map[string][]string{"example.org": {"93.184.215.14", "2606:2800:21f:cb07:6820:80da:af6b:8b2c"}}}
	r := New(f, time.Second)

	addrs, err := r.Resolve(context.Background(), "http://example.org:80/index.html")
	require.NoError(t, err)
	assert.Equal(t, []string{"93.184.215.14:80", "[2606:2800:21f:cb07:6820:80da:af6b:8b2c]:80"}, addrs)
}

func TestResolve_NoPort(t *testing.T) {
	f := &fakeLookup{hosts: map[string][]string{"example.org": {"93.184.215.14"}}}

	addrs, err := New(f, 0).Resolve(context.Background(), "example.org")
	require.NoError(t, err)
	assert.Equal(t, []string{"93.184.215.14"}, addrs)
}

func TestResolve_IPLiteralSkipsLookup(t *testing.T) {
	f := &fakeLookup{}
	r := New(f, time.Second)

	addrs, err := r.Resolve(context.Background(), "127.0.0.1:8080")
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1:8080"}, addrs)

	addrs, err = r.Resolve(context.Background(), "[::1]:53")
	require.NoError(t, err)
	assert.Equal(t, []string{"[::1]:53"}, addrs)

	assert.Empty(t, f.called)
}

func TestResolve_IDNA(t *testing.T) {
	f := &fakeLookup{hosts: map[string][]string{"xn--bcher-kva.example": {"192.0.2.1"}}}

	addrs, err := New(f, time.Second).Resolve(context.Background(), "bücher.example:443")
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.1:443"}, addrs)
	assert.Equal(t, []string{"xn--bcher-kva.example"}, f.called)
}

func TestResolve_Failures(t *testing.T) {
	tests := []struct {
		name   string
		target string
		lookup *fakeLookup
	}{
		{"lookup error", "nope.invalid:80", &fakeLookup{err: errors.New("no such host")}},
		{"no addresses", "empty.example:80", &fakeLookup{hosts: map[string][]string{}}},
		{"empty host", ":80", &fakeLookup{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.lookup, time.Second).Resolve(context.Background(), tt.target)
			require.Error(t, err)
			assert.Equal(t, protocol.KindResolution, protocol.Classify(err))
		})
	}
}
