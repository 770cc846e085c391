// Package mojoframe moves CSV rows through a compiled scoring pipeline in
// fixed-size batches of typed column buffers, and writes the produced
// columns back as CSV.
//
// The engine owns all column memory. A scoring session asks it for one
// frame whose row capacity is the batch size, then loops: the importer fills
// up to capacity rows from the CSV reader into the frame's input buffers,
// the engine transforms them, and the exporter writes the output buffers.
// The same frame is reused for every batch.
//
// # Architecture
//
//	CSV reader -> transfer.Importer -> engine.Frame inputs
//	           -> engine.Pipeline.Transform
//	           -> engine.Frame outputs -> transfer.Exporter -> CSV writer
//
// Values that do not parse as their column type are replaced by that type's
// missing sentinel (see coltype.Missing) instead of failing the run.
// Structural problems, for example a model column absent from the header,
// abort the session.
//
// # Quick Start
//
//	model, err := memengine.Load("churn.yaml")
//	if err != nil {
//	    return err
//	}
//	session, err := pipeline.NewSession(model, os.Stdin, os.Stdout, pipeline.SessionConfig{})
//	if err != nil {
//	    model.Close()
//	    return err
//	}
//	defer session.Close()
//	stats, err := session.Run(ctx)
//
// From the command line:
//
//	mojo show churn.yaml
//	mojo predict --pipeline churn.yaml --input s3://scoring/in.csv.gz --output scores.csv
//
// # Key Packages
//
//	pkg/coltype      - Logical column types, missing sentinels and the text codec
//	pkg/column       - Engine-owned column buffers and positional cursors
//	pkg/engine       - Model, Pipeline and Frame interfaces
//	pkg/engine/memengine - In-process reference engine driven by YAML definitions
//	pkg/transfer     - Frame importer, frame exporter and batch sizing
//	pkg/source       - Local, stdio, S3 and GCS locations with transparent compression
//	pkg/compression  - gzip, zstd, lz4, snappy, s2 and deflate streams
//	pkg/config       - YAML configuration with environment overrides
//	pkg/errors       - Structured error handling
//	pkg/logger       - Structured logging
//	pkg/metrics      - Prometheus metrics
//	pkg/observability - OpenTelemetry tracing
//
// # Configuration
//
// Runs are configured with flags or a YAML file (see pkg/config). Values of
// the form ${VAR_NAME} are replaced from the environment, and MOJO_* variables
// override individual keys.
package mojoframe
