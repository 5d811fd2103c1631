package protocol

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"deadline", os.ErrDeadlineExceeded, KindTimeout},
		{"context deadline", context.DeadlineExceeded, KindTimeout},
		{"net timeout", timeoutErr{}, KindTimeout},
		{"wrapped timeout", fmt.Errorf("read: %w", os.ErrDeadlineExceeded), KindTimeout},
		{"refused", syscall.ECONNREFUSED, KindConnection},
		{"plain", errors.New("boom"), KindConnection},
		{"probe error keeps kind", &ProbeError{Kind: KindRejected, Err: errors.New("404")}, KindRejected},
		{"wrapped probe error", fmt.Errorf("attempt: %w", &ProbeError{Kind: KindResolution}), KindResolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestProbeError(t *testing.T) {
	err := NewError("dial", "example.org:80", syscall.ECONNREFUSED)

	assert.Equal(t, KindConnection, err.Kind)
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
	assert.Contains(t, err.Error(), "connection: dial example.org:80")
}

func TestKindString(t *testing.T) {
	for _, k := range Kinds {
		assert.NotEmpty(t, k.String())
	}
	assert.Equal(t, "timeout", KindTimeout.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
