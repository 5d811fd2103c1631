package runner

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/knock/pkg/protocol"
)

const (
	// Latencies are tracked in microseconds between 1µs and 5 minutes.
	minLatencyMicros = 1
	maxLatencyMicros = int64(5 * time.Minute / time.Microsecond)
	sigFigs          = 3
)

// Attempt is the outcome of one probe.
type Attempt struct {
	Seq      int
	Target   string
	Protocol string
	// Elapsed is only set when Err is nil.
	Elapsed time.Duration
	Err     error
}

// OK reports whether the attempt succeeded.
func (a Attempt) OK() bool {
	return a.Err == nil
}

// Stats aggregates the attempts of one run. Durations of failed attempts are
// never recorded.
type Stats struct {
	Count     int
	Succeeded int
	Failed    int
	// Total is the sum of successful attempt durations.
	Total time.Duration
	// Failures counts failed attempts per classification.
	Failures map[protocol.Kind]int

	latency *hdrhistogram.Histogram
}

// Latency summarises successful attempt durations.
type Latency struct {
	Min  time.Duration
	Mean time.Duration
	Max  time.Duration
	P50  time.Duration
	P90  time.Duration
	P99  time.Duration
}

// NewStats creates empty statistics.
func NewStats() *Stats {
	return &Stats{
		Failures: make(map[protocol.Kind]int),
		latency:  hdrhistogram.New(minLatencyMicros, maxLatencyMicros, sigFigs),
	}
}

// Record adds one attempt.
func (s *Stats) Record(a Attempt) {
	s.Count++

	if a.Err != nil {
		s.Failed++
		s.Failures[protocol.Classify(a.Err)]++
		return
	}

	s.Succeeded++
	s.Total += a.Elapsed

	us := a.Elapsed.Microseconds()
	us = max(us, minLatencyMicros)
	us = min(us, maxLatencyMicros)
	s.latency.RecordValue(us)
}

// SuccessPercent returns the share of successful attempts, 0 for an empty run.
func (s *Stats) SuccessPercent() float64 {
	return percent(s.Succeeded, s.Count)
}

// FailurePercent returns the share of failed attempts, 0 for an empty run.
func (s *Stats) FailurePercent() float64 {
	return percent(s.Failed, s.Count)
}

// Latency returns the latency distribution of successful attempts. All fields
// are zero when nothing succeeded.
func (s *Stats) Latency() Latency {
	if s.Succeeded == 0 {
		return Latency{}
	}

	return Latency{
		Min:  micros(s.latency.Min()),
		Mean: time.Duration(s.Total.Nanoseconds() / int64(s.Succeeded)),
		Max:  micros(s.latency.Max()),
		P50:  micros(s.latency.ValueAtQuantile(50)),
		P90:  micros(s.latency.ValueAtQuantile(90)),
		P99:  micros(s.latency.ValueAtQuantile(99)),
	}
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
