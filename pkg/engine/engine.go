// Package engine describes the scoring engine as the transfer layer sees it.
//
// The engine owns models, pipelines, frames and all column memory. The
// transfer layer only asks for column buffers by index, fills or drains them,
// and invokes Transform. Handles must be released in reverse creation order:
// every Frame before its Pipeline, every Pipeline before its Model.
package engine

import (
	"time"

	"github.com/ajitpratap0/mojoframe/pkg/coltype"
	"github.com/ajitpratap0/mojoframe/pkg/column"
)

// Role tells whether a column is fed to the engine or produced by it.
type Role int

const (
	RoleInput Role = iota
	RoleOutput
)

func (r Role) String() string {
	if r == RoleOutput {
		return "output"
	}
	return "input"
}

// ColumnDescriptor is the static metadata of one model-declared column.
type ColumnDescriptor struct {
	Name string              `json:"name"`
	Type coltype.LogicalType `json:"type"`
	Role Role                `json:"-"`
}

// Model is a loaded scoring model.
type Model interface {
	// UUID identifies the model artifact.
	UUID() string
	// TimeCreated is when the model artifact was produced.
	TimeCreated() time.Time
	// MissingValues lists the literals the model was trained to treat as missing.
	MissingValues() []string
	// Inputs lists the feature columns in engine order.
	Inputs() []ColumnDescriptor
	// NewPipeline prepares the model for transform calls.
	NewPipeline() (Pipeline, error)
	// Close releases the model. It fails while pipelines are still open.
	Close() error
}

// Pipeline is a model prepared for transform calls.
type Pipeline interface {
	Model() Model
	// Outputs lists the produced columns in engine order.
	Outputs() []ColumnDescriptor
	// NewFrame allocates engine memory for rows rows of every input and
	// output column.
	NewFrame(rows int) (Frame, error)
	// Transform scores the first rows rows of frame. It blocks until done
	// and cannot be interrupted.
	Transform(frame Frame, rows int) error
	// Close releases the pipeline. It fails while frames are still open.
	Close() error
}

// Frame is the per-session container of column buffers, reused for every
// batch.
type Frame interface {
	// Rows is the row capacity every buffer was created with.
	Rows() int
	InputBuffer(index int) (*column.Buffer, error)
	OutputBuffer(index int) (*column.Buffer, error)
	// Close hands the memory back to the engine. Buffers obtained from the
	// frame must not be used afterwards.
	Close() error
}

// Loader opens a model artifact.
type Loader func(path string) (Model, error)
