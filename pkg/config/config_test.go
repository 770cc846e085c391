package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/mojoframe/pkg/testutil"
	"github.com/ajitpratap0/mojoframe/pkg/transfer"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	return testutil.WriteFile(t, t.TempDir(), "mojo.yaml", content)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	t.Setenv("TEST_BUCKET", "scoring")
	path := writeConfig(t, `
engine:
  pipeline: models/churn.yaml
transfer:
  batch_size: 2500
  missing_columns: skip
input:
  location: s3://${TEST_BUCKET}/in.csv
output:
  location: out.csv.gz
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "models/churn.yaml", cfg.Engine.Pipeline)
	assert.Equal(t, 2500, cfg.Transfer.BatchSize)
	assert.Equal(t, transfer.MissingColumnSkip, cfg.MissingColumnPolicy())
	assert.Equal(t, "s3://scoring/in.csv", cfg.Input.Location)
	assert.Equal(t, "out.csv.gz", cfg.Output.Location)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 5, cfg.Output.CompressionLevel)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MOJO_TRANSFER_BATCH_SIZE", "42")
	t.Setenv("MOJO_METRICS_ENABLED", "true")
	path := writeConfig(t, "transfer:\n  batch_size: 7\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Transfer.BatchSize)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "transfer: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "transfer:\n  batch_size: -1\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"policy", func(c *Config) { c.Transfer.MissingColumns = "drop" }},
		{"compression", func(c *Config) { c.Output.CompressionLevel = 12 }},
		{"level", func(c *Config) { c.Logging.Level = "loud" }},
		{"format", func(c *Config) { c.Logging.Format = "xml" }},
		{"metrics", func(c *Config) { c.Metrics = MetricsConfig{Enabled: true} }},
		{"sampling", func(c *Config) { c.Tracing.SampleRate = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Engine.Pipeline = "p.yaml"
	cfg.Transfer.BatchSize = 100
	cfg.Tracing.Enabled = true

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("MOJO_TEST_A", "x")
	assert.Equal(t, "x-", substituteEnvVars("${MOJO_TEST_A}-${MOJO_TEST_UNSET}"))
	assert.Equal(t, "${open", substituteEnvVars("${open"))
}
