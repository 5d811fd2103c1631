package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics()

	m.RecordSuccess("TCP", 3*time.Millisecond)
	m.RecordSuccess("TCP", 5*time.Millisecond)
	m.RecordFailure("TCP", "timeout")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProbesTotal.WithLabelValues("TCP", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbesTotal.WithLabelValues("TCP", "timeout")))

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var hist *dto.Histogram
	for _, f := range families {
		if f.GetName() == "knock_probe_duration_seconds" {
			hist = f.GetMetric()[0].GetHistogram()
		}
	}
	require.NotNil(t, hist)
	assert.Equal(t, uint64(2), hist.GetSampleCount())
	assert.InDelta(t, 0.008, hist.GetSampleSum(), 1e-9)
}

func TestMetrics_InFlight(t *testing.T) {
	m := NewMetrics()

	m.ProbeStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbesInFlight))
	m.ProbeFinished()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ProbesInFlight))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.RecordFailure("UDP", "timeout")

	assert.Equal(t, 0.0, testutil.ToFloat64(b.ProbesTotal.WithLabelValues("UDP", "timeout")))
}

func TestServer_ServesMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordSuccess("HTTP-GET", time.Millisecond)

	srv := NewServer("127.0.0.1:0", "/metrics", m, zaptest.NewLogger(t))
	require.NoError(t, srv.Start())
	defer srv.Stop(context.Background())

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `knock_probes_total{protocol="HTTP-GET",result="success"} 1`)

	health, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
