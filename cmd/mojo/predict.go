package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ajitpratap0/mojoframe/internal/pipeline"
	"github.com/ajitpratap0/mojoframe/pkg/compression"
	"github.com/ajitpratap0/mojoframe/pkg/config"
	"github.com/ajitpratap0/mojoframe/pkg/engine/memengine"
	"github.com/ajitpratap0/mojoframe/pkg/logger"
	"github.com/ajitpratap0/mojoframe/pkg/metrics"
	"github.com/ajitpratap0/mojoframe/pkg/observability"
	"github.com/ajitpratap0/mojoframe/pkg/source"
)

// predictFlags are the command line overrides of the predict command.
type predictFlags struct {
	configFile     string
	pipeline       string
	input          string
	output         string
	batchSize      int
	missingColumns string
	logLevel       string
	metricsAddr    string
	trace          bool
}

func newPredictCmd() *cobra.Command {
	var flags predictFlags
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score a CSV file",
		Long: `Score a CSV file with a pipeline and write the produced columns as CSV.

Inputs and outputs may be local paths, "-" for stdin/stdout, s3://bucket/key
or gs://bucket/object. Files ending in .gz, .zst, .lz4, .sz or .s2 are
decompressed on read and compressed on write.

Example:
  mojo predict --pipeline churn.yaml --input s3://scoring/in.csv.gz --output scores.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, &flags)
			if err != nil {
				return err
			}
			return runPredict(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configFile, "config", "c", "", "Path to a YAML configuration file")
	f.StringVarP(&flags.pipeline, "pipeline", "p", "", "Path to the pipeline definition")
	f.StringVarP(&flags.input, "input", "i", "-", "Input CSV location")
	f.StringVarP(&flags.output, "output", "o", "-", "Output CSV location")
	f.IntVar(&flags.batchSize, "batch-size", 0, "Rows per batch. 0 derives it from the input size")
	f.StringVar(&flags.missingColumns, "missing-columns", "error", "What to do when the input lacks a pipeline column (error, skip)")
	f.StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	f.StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while scoring")
	f.BoolVar(&flags.trace, "trace", false, "Export spans to stderr")
	return cmd
}

// resolveConfig loads the configuration file and applies explicitly set
// flags on top of it.
func resolveConfig(cmd *cobra.Command, flags *predictFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("pipeline") {
		cfg.Engine.Pipeline = flags.pipeline
	}
	if changed("input") {
		cfg.Input.Location = flags.input
	}
	if changed("output") {
		cfg.Output.Location = flags.output
	}
	if changed("batch-size") {
		cfg.Transfer.BatchSize = flags.batchSize
	}
	if changed("missing-columns") {
		cfg.Transfer.MissingColumns = flags.missingColumns
	}
	if changed("log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	if changed("metrics-addr") {
		cfg.Metrics.Enabled = flags.metricsAddr != ""
		cfg.Metrics.Address = flags.metricsAddr
	}
	if changed("trace") {
		cfg.Tracing.Enabled = flags.trace
	}

	if cfg.Engine.Pipeline == "" {
		return nil, fmt.Errorf("a pipeline is required (--pipeline or engine.pipeline)")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runPredict(cmd *cobra.Command, cfg *config.Config) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Encoding: cfg.Logging.Format}); err != nil {
		return err
	}
	log := logger.Get().With(zap.String("component", "mojo-cli"))
	defer func() { _ = logger.Sync() }()

	tracingCfg := observability.DefaultTracingConfig()
	tracingCfg.Enabled = cfg.Tracing.Enabled
	tracingCfg.ServiceVersion = version
	tracingCfg.SamplingRate = cfg.Tracing.SampleRate
	tracingCfg.PrettyPrint = cfg.Tracing.PrettyPrint
	tracingCfg.Output = cmd.ErrOrStderr()
	tracer, shutdownTracing, err := observability.InitTracing(tracingCfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = multierr.Append(err, shutdownTracing(shutdownCtx))
	}()

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector = metrics.NewCollector(reg)
		stop, err := serveMetrics(cfg.Metrics.Address, reg, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	opener := source.NewOpener(source.Options{
		AWSRegion:          cfg.Input.AWSRegion,
		GCSCredentialsFile: cfg.Input.GCSCredentialsFile,
		CompressionLevel:   compression.Level(cfg.Output.CompressionLevel),
		Logger:             log,
		Stdin:              cmd.InOrStdin(),
		Stdout:             cmd.OutOrStdout(),
	})
	defer func() { err = multierr.Append(err, opener.Close()) }()

	load := memengine.Loader(memengine.WithLogger(log))
	model, err := load(cfg.Engine.Pipeline)
	if err != nil {
		return err
	}

	in, err := opener.Open(ctx, cfg.Input.Location)
	if err != nil {
		return multierr.Append(err, model.Close())
	}
	defer func() { err = multierr.Append(err, in.Close()) }()

	out, err := opener.Create(ctx, cfg.Output.Location)
	if err != nil {
		return multierr.Append(err, model.Close())
	}

	log.Info("starting scoring run",
		zap.String("pipeline", cfg.Engine.Pipeline),
		zap.String("model_uuid", model.UUID()),
		zap.String("input", cfg.Input.Location),
		zap.String("output", cfg.Output.Location),
		zap.Int64("size_hint", in.SizeHint))

	session, err := pipeline.NewSession(model, in, out, pipeline.SessionConfig{
		BatchSize:      cfg.Transfer.BatchSize,
		SizeHint:       in.SizeHint,
		MissingColumns: cfg.MissingColumnPolicy(),
		Logger:         log,
		Metrics:        collector,
		Tracer:         tracer,
	})
	if err != nil {
		return multierr.Combine(err, out.Close(), model.Close())
	}

	stats, runErr := session.Run(ctx)
	// The output is closed before reporting success so that a failed upload
	// or compression flush fails the run.
	err = multierr.Combine(runErr, session.Close(), out.Close())
	if err != nil {
		return err
	}

	log.Info("scoring run completed",
		zap.Int("rows", stats.Rows),
		zap.Int("batches", stats.Batches),
		zap.Int("batch_size", stats.BatchSize),
		zap.Duration("duration", stats.Duration),
		zap.Duration("import_time", stats.ImportTime),
		zap.Duration("transform_time", stats.TransformTime),
		zap.Duration("export_time", stats.ExportTime))
	return nil
}

// serveMetrics exposes reg on addr/metrics until the returned stop function
// is called.
func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("address", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
