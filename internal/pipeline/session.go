// Package pipeline runs a scoring session: CSV in, engine transform, CSV out,
// one fixed-capacity frame reused for every batch.
//
// # Basic Usage
//
//	session, err := pipeline.NewSession(model, in, out, pipeline.SessionConfig{
//	    BatchSize: 10000,
//	    Logger:    logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
//	stats, err := session.Run(ctx)
//
// A session is single-threaded. The frame and its buffers belong to the
// session and are released by Close, frame first, then pipeline, then model.
package pipeline

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ajitpratap0/mojoframe/pkg/engine"
	"github.com/ajitpratap0/mojoframe/pkg/errors"
	"github.com/ajitpratap0/mojoframe/pkg/metrics"
	"github.com/ajitpratap0/mojoframe/pkg/observability"
	"github.com/ajitpratap0/mojoframe/pkg/transfer"
)

// SessionConfig controls batch sizing and instrumentation.
type SessionConfig struct {
	// BatchSize overrides the automatic choice when positive.
	BatchSize int
	// SizeHint is the input size in bytes, negative when unknown.
	SizeHint       int64
	MissingColumns transfer.MissingColumnPolicy
	Logger         *zap.Logger
	Metrics        *metrics.Collector
	Tracer         trace.Tracer
}

// Stats summarizes a finished run.
type Stats struct {
	Rows          int
	Batches       int
	BatchSize     int
	Duration      time.Duration
	ImportTime    time.Duration
	TransformTime time.Duration
	ExportTime    time.Duration
}

// Session owns the engine handles of one run.
type Session struct {
	model     engine.Model
	pipeline  engine.Pipeline
	frame     engine.Frame
	importer  *transfer.Importer
	exporter  *transfer.Exporter
	batchSize int
	logger    *zap.Logger
	metrics   *metrics.Collector
	tracer    trace.Tracer
	closed    bool
}

// NewSession prepares model for scoring in from in to out. It writes the
// output header before returning, so an input without data rows still
// produces a header-only output. On success the session owns model; on
// failure model is left open.
func NewSession(model engine.Model, in io.Reader, out io.Writer, cfg SessionConfig) (*Session, error) {
	s := &Session{
		model:   model,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		tracer:  cfg.Tracer,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer(observability.InstrumentationName)
	}
	s.batchSize = transfer.ChooseBatchSize(cfg.BatchSize, cfg.SizeHint, s.logger)

	if err := s.open(in, out, cfg.MissingColumns); err != nil {
		if cerr := s.release(false); cerr != nil {
			s.logger.Error("failed to release engine handles", zap.Error(cerr))
		}
		return nil, err
	}

	s.logger.Info("session ready",
		zap.String("model_uuid", model.UUID()),
		zap.Int("batch_size", s.batchSize),
		zap.Strings("bound_columns", s.importer.BoundColumns()))
	return s, nil
}

func (s *Session) open(in io.Reader, out io.Writer, policy transfer.MissingColumnPolicy) error {
	var err error
	if s.pipeline, err = s.model.NewPipeline(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeEngine, "failed to create pipeline")
	}
	if s.frame, err = s.pipeline.NewFrame(s.batchSize); err != nil {
		return errors.Wrap(err, errors.ErrorTypeEngine, "failed to create frame").
			WithDetail("rows", s.batchSize)
	}

	s.importer, err = transfer.NewImporter(s.frame, s.model.Inputs(), in, transfer.ImporterConfig{
		MissingColumns: policy,
		Logger:         s.logger,
		Metrics:        s.metrics,
	})
	if err != nil {
		return err
	}
	if s.exporter, err = transfer.NewExporter(s.frame, s.pipeline.Outputs(), out); err != nil {
		return err
	}
	return s.exporter.WriteHeader()
}

// Run scores batches until the input is exhausted. Cancellation is checked
// between batches; a transform in progress always completes.
func (s *Session) Run(ctx context.Context) (*Stats, error) {
	if s.closed {
		return nil, errors.New(errors.ErrorTypeInternal, "session is closed")
	}
	stats := &Stats{BatchSize: s.batchSize}
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "mojo.session",
		trace.WithAttributes(
			attribute.String("model.uuid", s.model.UUID()),
			attribute.Int("batch.capacity", s.batchSize)))
	defer span.End()

	var err error
	for {
		if cerr := ctx.Err(); cerr != nil {
			err = errors.Wrap(cerr, errors.ErrorTypeInternal, "session cancelled")
			break
		}
		var more bool
		if more, err = s.runBatch(ctx, stats); err != nil || !more {
			break
		}
	}

	stats.Rows = s.exporter.TotalRows()
	stats.Batches = s.exporter.TotalBatches()
	stats.Duration = time.Since(start)
	span.SetAttributes(attribute.Int("rows", stats.Rows), attribute.Int("batches", stats.Batches))
	observability.EndStatus(span, err)
	if err != nil {
		return stats, err
	}

	s.metrics.UpdateThroughput(stats.Rows)
	s.logger.Info("Total rows",
		zap.Int("rows", stats.Rows),
		zap.Int("batches", stats.Batches),
		zap.Duration("duration", stats.Duration),
		zap.Duration("import", stats.ImportTime),
		zap.Duration("transform", stats.TransformTime),
		zap.Duration("export", stats.ExportTime))
	return stats, nil
}

// runBatch imports, transforms and exports one batch. It reports false once
// the input is drained.
func (s *Session) runBatch(ctx context.Context, stats *Stats) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "mojo.batch", trace.WithAttributes(attribute.Int("batch", stats.Batches+1)))
	defer span.End()

	var rows int
	var more bool
	err := s.stage(ctx, metrics.StageImport, &stats.ImportTime, func() error {
		var err error
		rows, more, err = s.importer.ImportFrame()
		return err
	})
	if err != nil || !more {
		observability.EndStatus(span, err)
		return false, err
	}
	span.SetAttributes(attribute.Int("rows", rows))

	err = s.stage(ctx, metrics.StageTransform, &stats.TransformTime, func() error {
		if err := s.pipeline.Transform(s.frame, rows); err != nil {
			return errors.Wrap(err, errors.ErrorTypeEngine, "transform failed").WithDetail("rows", rows)
		}
		return nil
	})
	if err == nil {
		err = s.stage(ctx, metrics.StageExport, &stats.ExportTime, func() error {
			return s.exporter.ExportFrame(rows)
		})
	}
	observability.EndStatus(span, err)
	if err != nil {
		return false, err
	}

	stats.Batches++
	s.metrics.RecordBatch(rows)
	observability.LoggerFromContext(ctx, s.logger).Debug("batch done",
		zap.Int("rows", rows),
		zap.Int("batch", stats.Batches))
	return true, nil
}

func (s *Session) stage(ctx context.Context, name string, total *time.Duration, fn func() error) error {
	return observability.TraceStage(ctx, s.tracer, name, func(context.Context) error {
		timer := metrics.NewTimer(name)
		err := fn()
		d := timer.Stop()
		*total += d
		s.metrics.ObserveStage(name, d)
		return err
	})
}

// BatchSize returns the frame capacity in rows.
func (s *Session) BatchSize() int { return s.batchSize }

// Close releases frame, pipeline and model in that order. It is safe to
// call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.release(true)
}

func (s *Session) release(withModel bool) error {
	var err error
	if s.frame != nil {
		err = multierr.Append(err, s.frame.Close())
		s.frame = nil
	}
	if s.pipeline != nil {
		err = multierr.Append(err, s.pipeline.Close())
		s.pipeline = nil
	}
	if withModel && s.model != nil {
		err = multierr.Append(err, s.model.Close())
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeEngine, "failed to release engine handles")
	}
	return nil
}
