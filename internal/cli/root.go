package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/knock/internal/config"
	"github.com/knock/internal/logging"
	"github.com/knock/internal/metrics"
	"github.com/knock/internal/report"
	"github.com/knock/internal/resolve"
	"github.com/knock/internal/runner"
	"github.com/knock/pkg/protocol"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

var (
	configPath  string
	protoName   string
	count       int
	interval    time.Duration
	timeout     time.Duration
	colorMode   string
	verbose     bool
	metricsAddr string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "knock <target>",
	Short: "Knock knock, who's there? Probe a network endpoint",
	Long: `knock checks whether a network endpoint answers.

It sends a fixed number of sequential attempts over one protocol, prints the
latency of every attempt and finishes with success and failure statistics.

Examples:
  knock example.org:443
  knock -p HTTP-GET -c 10 http://example.org/health
  knock -p UDP -i 1s 192.0.2.10:53
  knock protocols`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runKnock,
	Version:       versionString(),
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		report.NewPrinter(os.Stderr, config.ColorAuto).Error(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", string(config.ColorAuto), "Color output: auto, always or never")

	f := rootCmd.Flags()
	f.StringVar(&configPath, "config", "", "Path to configuration file")
	f.StringVarP(&protoName, "protocol", "p", protocol.TCP, "Protocol used for every attempt")
	f.IntVarP(&count, "count", "c", 4, "Number of attempts")
	f.DurationVarP(&interval, "interval", "i", 0, "Minimum gap between attempt starts")
	f.DurationVar(&timeout, "timeout", 5*time.Second, "Dial, read and write timeout per attempt")
	f.BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics at debug level")
	f.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
}

// SetVersion sets the version info
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = versionString()
}

// SetGitCommit sets the commit the binary was built from. An empty or
// "unknown" commit falls back to the revision stamped by the go tool.
func SetGitCommit(c string) {
	gitCommit = c
	rootCmd.Version = versionString()
}

func versionString() string {
	return fmt.Sprintf("%s (built %s, commit %s)", version, buildTime, commit())
}

func commit() string {
	if gitCommit != "" && gitCommit != "unknown" {
		return gitCommit
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	rev, dirty := "", false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return "unknown"
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}

func runKnock(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(cmd.ErrOrStderr(), level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	printer := report.NewPrinter(cmd.OutOrStdout(), cfg.Output.Color)
	registry := protocol.NewDefaultRegistry(cfg.Probe.ProberOptions())

	r := runner.New(registry, logger)
	r.SetInterval(cfg.Probe.Interval)
	r.SetResolvedCallback(printer.Resolved)
	r.SetAttemptCallback(printer.Attempt)
	if cfg.Resolver.Enabled {
		r.SetResolver(resolve.New(nil, cfg.Resolver.Timeout))
	}

	if cfg.Metrics.Enabled {
		m := metrics.NewMetrics()
		r.SetMetrics(m)

		srv := metrics.NewServer(cfg.Metrics.Address, cfg.Metrics.Path, m, logger)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := r.Run(ctx, args[0], cfg.Probe.Protocol, cfg.Probe.Count)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) && stats != nil:
		// Interrupted: report what was gathered.
		logger.Info("run interrupted", zap.Int("completed", stats.Count))
	default:
		return err
	}

	printer.Statistics(stats)
	return nil
}

// loadConfig reads the configuration file and applies flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	f := cmd.Flags()
	if f.Changed("protocol") {
		cfg.Probe.Protocol = protoName
	}
	if f.Changed("count") {
		cfg.Probe.Count = count
	}
	if f.Changed("interval") {
		cfg.Probe.Interval = interval
	}
	if f.Changed("timeout") {
		cfg.Probe.DialTimeout = timeout
		cfg.Probe.ReadTimeout = timeout
		cfg.Probe.WriteTimeout = timeout
	}
	if f.Changed("color") {
		cfg.Output.Color = config.ColorMode(colorMode)
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = metricsAddr
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}
