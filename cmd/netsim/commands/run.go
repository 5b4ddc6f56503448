package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/timothychou/netsim/internal/config"
	"github.com/timothychou/netsim/internal/metrics"
	"github.com/timothychou/netsim/internal/simtime"
	"github.com/timothychou/netsim/internal/stats"
)

// shutdownTimeout bounds how long the metrics server is given to drain
// once the simulation loop finishes or a signal arrives.
const shutdownTimeout = 5 * time.Second

func runCmd() *cobra.Command {
	var (
		maxSteps    int
		metricsAddr string
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation from a network descriptor",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if configPath == "" {
				return errRequireConfig
			}
			return runSimulation(configPath, maxSteps, metricsAddr, logLevel)
		},
	}

	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "stop after this many events (0 keeps the config's max_steps, where 0 means run to completion)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "override the config's metrics listen address")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "override the config's log level")
	return cmd
}

var errRequireConfig = errors.New("run requires --config")

func runSimulation(path string, maxStepsFlag int, metricsAddrFlag, logLevelFlag string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if metricsAddrFlag != "" {
		cfg.Run.Metrics.Addr = metricsAddrFlag
	}
	if logLevelFlag != "" {
		cfg.Run.Log.Level = logLevelFlag
	}

	logger := newLogger(cfg.Run.Log)
	logger.Info("netsim starting",
		slog.String("config", path),
		slog.String("metrics_addr", cfg.Run.Metrics.Addr),
	)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	recorder := stats.NewRecorder()
	sink := teeSink{collector, recorder}

	loop := simtime.NewLoop(nil, logger)
	net, err := config.Build(cfg.Network, loop, sink)
	if err != nil {
		return fmt.Errorf("build network: %w", err)
	}
	loop.BindDispatcher(net)

	if err := loop.Enqueue(net.Bootstrap()...); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSrv := newMetricsServer(cfg.Run.Metrics, reg)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("metrics server listening", slog.String("addr", cfg.Run.Metrics.Addr))
		return listenAndServe(gCtx, metricsSrv, cfg.Run.Metrics.Addr)
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		return shutdownServer(metricsSrv)
	})

	maxSteps := cfg.Run.MaxSteps
	if maxStepsFlag > 0 {
		maxSteps = maxStepsFlag
	}

	g.Go(func() error {
		defer stop()
		steps, runErr := loop.Run(maxSteps, net.AllFlowsDone)
		if runErr != nil {
			return fmt.Errorf("simulation loop: %w", runErr)
		}
		logger.Info("simulation complete",
			slog.Int("steps", steps),
			slog.Float64("clock_ms", loop.Clock()),
			slog.Bool("all_flows_done", net.AllFlowsDone()),
		)
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	printSummary(recorder)
	return nil
}

// teeSink fans every sample out to each of its sinks, in order.
type teeSink []stats.Sink

func (t teeSink) Sample(s stats.Sample) {
	for _, sink := range t {
		sink.Sample(s)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.Level)}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func newMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func listenAndServe(ctx context.Context, srv *http.Server, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

func shutdownServer(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	return nil
}

// printSummary renders the final per-flow/per-link/per-host table (spec.md
// §6.2 and §4.11) by grouping every sample the recorder observed and handing
// the grouping to the tabwriter-based format helper.
func printSummary(r *stats.Recorder) {
	fmt.Print(formatSummary(summarize(r.All())))
}
