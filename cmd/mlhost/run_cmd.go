package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/mllib/binding"
	"github.com/YuminosukeSato/mllib/config"
	"github.com/YuminosukeSato/mllib/pkg/errors"
	"github.com/YuminosukeSato/mllib/pkg/log"
	"github.com/YuminosukeSato/mllib/pkg/telemetry"
)

type runCmdConfig struct {
	configPath  string
	logLevel    string
	metricsAddr string
	strict      bool
}

func runCmd() *cobra.Command {
	rc := &runCmdConfig{}
	cmd := &cobra.Command{
		Use:   "run [script...]",
		Short: "Run message scripts",
		Long: `Run one or more message scripts. Without scripts, or with "-", messages are
read from standard input. Failing messages are logged and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rc.run(cmd, args)
		},
	}
	cmd.Flags().StringVarP(&rc.configPath, "config", "c", "", "path to a YAML session file")
	cmd.Flags().StringVar(&rc.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the session file")
	cmd.Flags().StringVar(&rc.metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on; overrides the session file")
	cmd.Flags().BoolVar(&rc.strict, "strict", false, "exit with an error if any message failed")
	return cmd
}

func (rc *runCmdConfig) load() (config.Config, error) {
	cfg := config.Default()
	if rc.configPath != "" {
		var err error
		if cfg, err = config.Load(rc.configPath); err != nil {
			return cfg, err
		}
	}
	if rc.logLevel != "" {
		cfg.LogLevel = rc.logLevel
	}
	if rc.metricsAddr != "" {
		cfg.MetricsAddr = rc.metricsAddr
	}
	return cfg, cfg.Validate()
}

func (rc *runCmdConfig) run(cmd *cobra.Command, args []string) error {
	cfg, err := rc.load()
	if err != nil {
		return err
	}
	if err := log.SetupLogger(cfg.LogLevel, cmd.ErrOrStderr()); err != nil {
		return err
	}
	logger := log.GetLoggerWithName("mlhost")

	reg := prometheus.NewRegistry()
	opts := []binding.SessionOption{
		binding.WithOutput(cmd.OutOrStdout()),
		binding.WithSessionLogger(log.GetLoggerWithName("session")),
		binding.WithSessionMetrics(telemetry.NewMetrics(reg)),
	}
	session := binding.NewSession(opts...)
	defer session.Close()

	if cfg.MetricsAddr != "" {
		stop, _, err := serveMetrics(cfg.MetricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	if err := errors.SafeExecute("apply session file", func() error { return cfg.Apply(session) }); err != nil {
		return err
	}

	if len(args) == 0 {
		args = []string{"-"}
	}
	failures := 0
	for _, path := range args {
		n, err := runScript(session, path, cmd.InOrStdin())
		failures += n
		if err != nil {
			return err
		}
	}

	logger.Info("session finished", "scripts", len(args), "failures", failures)
	if rc.strict && failures > 0 {
		return errors.Newf("%d message(s) failed", failures)
	}
	return nil
}

func runScript(session *binding.Session, path string, stdin io.Reader) (int, error) {
	if path == "-" {
		return session.Run(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to open script %s", path)
	}
	defer f.Close()
	return session.Run(f)
}

// serveMetrics serves reg on addr until the returned stop function is called.
// It also returns the address actually listened on.
func serveMetrics(addr string, reg *prometheus.Registry, logger log.Logger) (func(), string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to listen on %s", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", err)
		}
	}()
	logger.Info(fmt.Sprintf("serving metrics on http://%s/metrics", ln.Addr()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, ln.Addr().String(), nil
}
