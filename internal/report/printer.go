// Package report renders run progress and statistics to the console.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/knock/internal/config"
	"github.com/knock/internal/runner"
	"github.com/knock/pkg/protocol"
)

// Printer writes one line per event and a statistics footer.
type Printer struct {
	w     io.Writer
	theme Theme
}

// NewPrinter creates a Printer for w. In auto mode colors are used only when
// w is a terminal.
func NewPrinter(w io.Writer, mode config.ColorMode) *Printer {
	r := lipgloss.NewRenderer(w)

	switch mode {
	case config.ColorNever:
		r.SetColorProfile(termenv.Ascii)
	case config.ColorAlways:
		r.SetColorProfile(termenv.TrueColor)
	default:
		if !IsTerminal(w) {
			r.SetColorProfile(termenv.Ascii)
		}
	}

	return &Printer{w: w, theme: NewTheme(r)}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Resolved prints the resolved addresses of the target.
func (p *Printer) Resolved(_ string, addrs []string) {
	fmt.Fprintf(p.w, "%s %s\n",
		p.theme.Label.Render("DNS lookup:"),
		p.theme.Dim.Render("["+strings.Join(addrs, ", ")+"]"))
}

// Attempt prints one attempt: latency in green on success, the failure kind
// in red otherwise.
func (p *Printer) Attempt(a runner.Attempt) {
	if a.OK() {
		line := fmt.Sprintf("%s: time=%10s ms", a.Target, fmt.Sprintf("%.5f", millis(a.Elapsed)))
		fmt.Fprintln(p.w, p.theme.Success.Render(line))
		return
	}

	line := fmt.Sprintf("%s: fail", a.Target)
	fmt.Fprintf(p.w, "%s %s\n",
		p.theme.Failure.Render(line),
		p.theme.Dim.Render(fmt.Sprintf("(%s: %v)", protocol.Classify(a.Err), a.Err)))
}

// Statistics prints the footer for a finished run.
func (p *Printer) Statistics(s *runner.Stats) {
	fmt.Fprintln(p.w, p.theme.Title.Render("----- statistic -----"))
	fmt.Fprintf(p.w, "total time: %v\n", s.Total)
	fmt.Fprintf(p.w, "Connect time: %d, recv time: %d (%d%%), lose time: %d (%d%%)\n",
		s.Count,
		s.Succeeded, int(s.SuccessPercent()),
		s.Failed, int(s.FailurePercent()))

	if s.Succeeded > 0 {
		l := s.Latency()
		fmt.Fprintf(p.w, "%s %s\n",
			p.theme.Label.Render("rtt min/avg/max:"),
			p.theme.Value.Render(fmt.Sprintf("%.3f/%.3f/%.3f ms", millis(l.Min), millis(l.Mean), millis(l.Max))))
		fmt.Fprintf(p.w, "%s %s\n",
			p.theme.Label.Render("rtt p50/p90/p99:"),
			p.theme.Value.Render(fmt.Sprintf("%.3f/%.3f/%.3f ms", millis(l.P50), millis(l.P90), millis(l.P99))))
	}

	if s.Failed > 0 {
		var parts []string
		for _, k := range protocol.Kinds {
			if n := s.Failures[k]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s=%d", k, n))
			}
		}
		fmt.Fprintf(p.w, "%s %s\n",
			p.theme.Label.Render("failures:"),
			p.theme.Warning.Render(strings.Join(parts, ", ")))
	}
}

// Error prints a run-level error such as an unknown protocol.
func (p *Printer) Error(err error) {
	fmt.Fprintln(p.w, p.theme.Failure.Render(CrossMark+" "+err.Error()))
}

// Protocols prints the registered protocol names.
func (p *Printer) Protocols(names []string) {
	for _, n := range names {
		fmt.Fprintf(p.w, "  %s %s\n", p.theme.Dim.Render(Crosshair), p.theme.Value.Render(n))
	}
}

func millis(d time.Duration) float64 {
	return d.Seconds() * 1000
}
