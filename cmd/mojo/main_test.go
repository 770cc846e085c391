package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/mojoframe/pkg/compression"
	"github.com/ajitpratap0/mojoframe/pkg/config"
	"github.com/ajitpratap0/mojoframe/pkg/errors"
	"github.com/ajitpratap0/mojoframe/pkg/testutil"
)

const scorePipeline = `
uuid: 0d7f3b0e-6f7e-4a50-9a43-2f3f51a8e0aa
missing_values: ["NA"]
inputs:
  - {name: a, type: int32}
  - {name: b, type: float64}
outputs:
  - {name: v, type: int32, op: copy, args: [a]}
  - {name: total, type: float64, op: sum, args: [a, b]}
`

type CLISuite struct {
	testutil.IntegrationTestSuite
	pipeline string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	s.IntegrationTestSuite.SetupTest()
	s.pipeline = s.WriteFile("pipeline.yaml", scorePipeline)
}

// run executes the root command with args and returns what it wrote to
// standard output.
func (s *CLISuite) run(stdin string, args ...string) (string, error) {
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(s.Context())
	return stdout.String(), err
}

func (s *CLISuite) TestVersion() {
	out, err := s.run("", "version")
	s.Require().NoError(err)
	s.Contains(out, "Mojo v"+version)
}

func (s *CLISuite) TestShowText() {
	out, err := s.run("", "show", s.pipeline)
	s.Require().NoError(err)
	s.Contains(out, "UUID: 0d7f3b0e-6f7e-4a50-9a43-2f3f51a8e0aa")
	s.Contains(out, "Missing values: NA")
	s.Contains(out, "  - b (float64)")
	s.Contains(out, "  - total (float64)")
}

func (s *CLISuite) TestShowJSON() {
	out, err := s.run("", "show", "--json", s.pipeline)
	s.Require().NoError(err)

	var info struct {
		UUID    string `json:"uuid"`
		Inputs  []struct{ Name, Type string }
		Outputs []struct{ Name, Type string }
	}
	s.Require().NoError(json.Unmarshal([]byte(out), &info))
	s.Equal("0d7f3b0e-6f7e-4a50-9a43-2f3f51a8e0aa", info.UUID)
	s.Require().Len(info.Inputs, 2)
	s.Equal("int32", info.Inputs[0].Type)
	s.Require().Len(info.Outputs, 2)
	s.Equal("total", info.Outputs[1].Name)
}

func (s *CLISuite) TestShowMissingPipeline() {
	_, err := s.run("", "show", filepath.Join(s.TempDir(), "absent.yaml"))
	s.Error(err)
}

func (s *CLISuite) TestPredictFiles() {
	in := s.WriteFile("in.csv", "b,a\n2.5,1\n1,\n")
	outPath := filepath.Join(s.TempDir(), "out.csv")

	_, err := s.run("", "predict", "--pipeline", s.pipeline, "--input", in, "--output", outPath, "--batch-size", "1")
	s.Require().NoError(err)
	s.Equal("v,total\n1,3.5\n2147483647,NaN\n", s.ReadFile("out.csv"))
}

func (s *CLISuite) TestPredictStdio() {
	out, err := s.run("a,b\n4,0.5\n", "predict", "--pipeline", s.pipeline)
	s.Require().NoError(err)
	s.Equal("v,total\n4,4.5\n", out)
}

func (s *CLISuite) TestPredictCompressedOutput() {
	outPath := filepath.Join(s.TempDir(), "out.csv.zst")
	_, err := s.run("a,b\n4,0.5\n", "predict", "-p", s.pipeline, "-o", outPath)
	s.Require().NoError(err)

	f, err := os.Open(outPath)
	s.Require().NoError(err)
	defer f.Close()
	r, err := compression.NewReader(f, compression.Zstd)
	s.Require().NoError(err)
	defer r.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	s.Require().NoError(err)
	s.Equal("v,total\n4,4.5\n", buf.String())
}

func (s *CLISuite) TestPredictFromConfigFile() {
	in := s.WriteFile("in.csv", "a,b\n3,1\n")
	cfgPath := s.WriteFile("mojo.yaml", fmt.Sprintf(`
engine:
  pipeline: %s
transfer:
  batch_size: 10
input:
  location: %s
`, s.pipeline, in))

	out, err := s.run("", "predict", "--config", cfgPath)
	s.Require().NoError(err)
	s.Equal("v,total\n3,4\n", out)
}

func (s *CLISuite) TestPredictMissingColumn() {
	_, err := s.run("a\n3\n", "predict", "--pipeline", s.pipeline)
	s.Require().Error(err)
	s.True(errors.IsType(err, errors.ErrorTypeSchema))
	s.Equal(2, exitCode(err))
}

func (s *CLISuite) TestPredictRequiresPipeline() {
	_, err := s.run("a,b\n1,2\n", "predict")
	s.Require().Error(err)
	s.Contains(err.Error(), "pipeline is required")
	s.Equal(1, exitCode(err))
}

func (s *CLISuite) TestPredictInvalidPolicy() {
	_, err := s.run("a,b\n1,2\n", "predict", "-p", s.pipeline, "--missing-columns", "drop")
	s.Error(err)
}

func (s *CLISuite) TestConfigInit() {
	path := filepath.Join(s.TempDir(), "mojo.yaml")
	out, err := s.run("", "config", "init", path)
	s.Require().NoError(err)
	s.Contains(out, "Wrote "+path)

	cfg, err := config.Load(path)
	s.Require().NoError(err)
	s.Equal(config.Default(), cfg)

	_, err = s.run("", "config", "init", path)
	s.Error(err)
	_, err = s.run("", "config", "init", "--force", path)
	s.NoError(err)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"schema", errors.New(errors.ErrorTypeSchema, "missing column"), 2},
		{"data", errors.New(errors.ErrorTypeData, "short row"), 2},
		{"engine", errors.New(errors.ErrorTypeEngine, "transform failed"), 2},
		{"capability", errors.New(errors.ErrorTypeCapability, "unsupported"), 3},
		{"internal", errors.New(errors.ErrorTypeInternal, "cancelled"), 1},
		{"plain", fmt.Errorf("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
