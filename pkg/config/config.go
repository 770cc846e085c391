// Package config provides the configuration of a mojo scoring run.
//
// The configuration is organized into sections:
//   - Engine: which pipeline definition to load
//   - Transfer: batch sizing and missing column handling
//   - Input / Output: locations and cloud credentials
//   - Logging, Metrics, Tracing: observability
//
// Example usage:
//
//	cfg, err := config.Load("mojo.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.Transfer.BatchSize = 5000
package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/mojoframe/pkg/transfer"
)

// Config is the complete run configuration.
type Config struct {
	// Engine selects the scoring pipeline
	Engine EngineConfig `yaml:"engine" mapstructure:"engine"`
	// Transfer controls batching between CSV and engine frames
	Transfer TransferConfig `yaml:"transfer" mapstructure:"transfer"`
	// Input describes where rows are read from
	Input InputConfig `yaml:"input" mapstructure:"input"`
	// Output describes where scores are written to
	Output OutputConfig `yaml:"output" mapstructure:"output"`

	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
}

// EngineConfig selects the scoring pipeline.
type EngineConfig struct {
	// Pipeline is the path of the pipeline definition
	Pipeline string `yaml:"pipeline" mapstructure:"pipeline"`
}

// TransferConfig controls batching.
type TransferConfig struct {
	// BatchSize is the frame capacity in rows; 0 chooses it from the input size
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
	// MissingColumns is "error" or "skip"
	MissingColumns string `yaml:"missing_columns" mapstructure:"missing_columns"`
}

// InputConfig describes the CSV input.
type InputConfig struct {
	// Location is "-", a path, or an s3:// or gs:// URI
	Location           string `yaml:"location" mapstructure:"location"`
	AWSRegion          string `yaml:"aws_region" mapstructure:"aws_region"`
	GCSCredentialsFile string `yaml:"gcs_credentials_file" mapstructure:"gcs_credentials_file"`
}

// OutputConfig describes the CSV output.
type OutputConfig struct {
	Location string `yaml:"location" mapstructure:"location"`
	// CompressionLevel applies when Location has a compression extension (1-9)
	CompressionLevel int `yaml:"compression_level" mapstructure:"compression_level"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Address string `yaml:"address" mapstructure:"address"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	SampleRate  float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	PrettyPrint bool    `yaml:"pretty_print" mapstructure:"pretty_print"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Transfer: TransferConfig{
			BatchSize:      0,
			MissingColumns: transfer.MissingColumnError.String(),
		},
		Input: InputConfig{
			Location: "-",
		},
		Output: OutputConfig{
			Location:         "-",
			CompressionLevel: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9090",
		},
		Tracing: TracingConfig{
			Enabled:    false,
			SampleRate: 1.0,
		},
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Transfer.BatchSize < 0 {
		return fmt.Errorf("transfer.batch_size cannot be negative")
	}
	if _, err := transfer.ParseMissingColumnPolicy(c.Transfer.MissingColumns); err != nil {
		return fmt.Errorf("transfer.missing_columns: %w", err)
	}
	if c.Output.CompressionLevel < 0 || c.Output.CompressionLevel > 9 {
		return fmt.Errorf("output.compression_level must be between 0 and 9")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return fmt.Errorf("metrics.address is required when metrics are enabled")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1")
	}
	return nil
}

// MissingColumnPolicy returns the parsed transfer.missing_columns value.
func (c *Config) MissingColumnPolicy() transfer.MissingColumnPolicy {
	policy, _ := transfer.ParseMissingColumnPolicy(c.Transfer.MissingColumns)
	return policy
}
