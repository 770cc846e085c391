// Package testutil provides testing utilities for mojoframe
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/mojoframe/pkg/engine/memengine"
)

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// NewModel builds an in-process model from a YAML pipeline definition. Its
// frames are allocated from a checked allocator that the returned value
// exposes; callers assert it is empty once every handle is closed.
func NewModel(t *testing.T, definition string) (*memengine.Model, *memory.CheckedAllocator) {
	t.Helper()
	def, err := memengine.ParseDefinition([]byte(definition))
	require.NoError(t, err)
	alloc := memory.NewCheckedAllocator(memory.NewGoAllocator())
	m, err := memengine.NewModel(def, memengine.WithAllocator(alloc), memengine.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return m, alloc
}

// WriteFile writes content to name inside dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// IntegrationTestSuite provides a temp directory and a bounded context to
// end-to-end suites.
type IntegrationTestSuite struct {
	suite.Suite
	ctx     context.Context
	cancel  context.CancelFunc
	tempDir string
}

// SetupTest runs before every test in the suite.
func (s *IntegrationTestSuite) SetupTest() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), time.Minute)
	s.tempDir = s.T().TempDir()
}

// TearDownTest runs after every test in the suite.
func (s *IntegrationTestSuite) TearDownTest() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Context returns the per-test context.
func (s *IntegrationTestSuite) Context() context.Context { return s.ctx }

// TempDir returns the per-test temp directory.
func (s *IntegrationTestSuite) TempDir() string { return s.tempDir }

// WriteFile writes content to name inside the temp directory.
func (s *IntegrationTestSuite) WriteFile(name, content string) string {
	return WriteFile(s.T(), s.tempDir, name, content)
}

// ReadFile returns the content of name inside the temp directory.
func (s *IntegrationTestSuite) ReadFile(name string) string {
	data, err := os.ReadFile(filepath.Join(s.tempDir, name))
	s.Require().NoError(err)
	return string(data)
}
