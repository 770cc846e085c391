package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides: MOJO_TRANSFER_BATCH_SIZE sets
// transfer.batch_size.
const EnvPrefix = "MOJO"

// Load reads a YAML configuration file, applies ${VAR} substitution and
// MOJO_* environment overrides on top of Default, and validates the result.
// An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // G304: File path is controlled by caller
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		content := substituteEnvVars(string(data))
		if err := v.ReadConfig(bytes.NewReader([]byte(content))); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setDefaults registers every key so that environment overrides apply to
// keys absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("engine.pipeline", d.Engine.Pipeline)
	v.SetDefault("transfer.batch_size", d.Transfer.BatchSize)
	v.SetDefault("transfer.missing_columns", d.Transfer.MissingColumns)
	v.SetDefault("input.location", d.Input.Location)
	v.SetDefault("input.aws_region", d.Input.AWSRegion)
	v.SetDefault("input.gcs_credentials_file", d.Input.GCSCredentialsFile)
	v.SetDefault("output.location", d.Output.Location)
	v.SetDefault("output.compression_level", d.Output.CompressionLevel)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.address", d.Metrics.Address)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.pretty_print", d.Tracing.PrettyPrint)
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		content = content[:start] + os.Getenv(varName) + content[end+1:]
	}
	return content
}
