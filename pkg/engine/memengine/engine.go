// Package memengine is an in-process scoring engine used by the CLI and the
// tests. Pipelines are described in YAML (see Definition) and column memory
// is allocated through an Arrow allocator, so the engine and not the
// transfer layer owns every buffer it hands out.
package memengine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ajitpratap0/mojoframe/pkg/coltype"
	"github.com/ajitpratap0/mojoframe/pkg/column"
	"github.com/ajitpratap0/mojoframe/pkg/engine"
)

var (
	// ErrInUse is returned when a handle is closed before the handles
	// created from it.
	ErrInUse = errors.New("handle still has open dependents")
	// ErrClosed is returned when a released handle is used.
	ErrClosed = errors.New("handle already closed")
)

// Option configures a Model.
type Option func(*Model)

// WithAllocator sets the allocator backing frame memory.
func WithAllocator(alloc memory.Allocator) Option {
	return func(m *Model) { m.alloc = alloc }
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Model) { m.logger = logger }
}

// Model is a loaded Definition.
type Model struct {
	def       *Definition
	inputs    []engine.ColumnDescriptor
	alloc     memory.Allocator
	logger    *zap.Logger
	mu        sync.Mutex
	pipelines int
	closed    bool
}

// Load reads a YAML definition from path.
func Load(path string, opts ...Option) (*Model, error) {
	def, err := ReadDefinition(path)
	if err != nil {
		return nil, err
	}
	return NewModel(def, opts...)
}

// Loader adapts Load to engine.Loader.
func Loader(opts ...Option) engine.Loader {
	return func(path string) (engine.Model, error) {
		return Load(path, opts...)
	}
}

// NewModel builds a model from an already parsed definition.
func NewModel(def *Definition, opts ...Option) (*Model, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	m := &Model{
		def:    def,
		alloc:  memory.NewGoAllocator(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.def.UUID == "" {
		m.def.UUID = uuid.NewString()
	}
	if m.def.TimeCreated.IsZero() {
		m.def.TimeCreated = time.Now().UTC()
	}
	m.inputs = make([]engine.ColumnDescriptor, len(def.Inputs))
	for i, in := range def.Inputs {
		m.inputs[i] = engine.ColumnDescriptor{Name: in.Name, Type: in.Type, Role: engine.RoleInput}
	}
	return m, nil
}

func (m *Model) UUID() string            { return m.def.UUID }
func (m *Model) TimeCreated() time.Time  { return m.def.TimeCreated }
func (m *Model) MissingValues() []string { return append([]string(nil), m.def.MissingValues...) }

func (m *Model) Inputs() []engine.ColumnDescriptor {
	return append([]engine.ColumnDescriptor(nil), m.inputs...)
}

// NewPipeline implements engine.Model.
func (m *Model) NewPipeline() (engine.Pipeline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	inputIndex := make(map[string]int, len(m.inputs))
	for i, in := range m.inputs {
		inputIndex[in.Name] = i
	}

	p := &Pipeline{model: m}
	for _, out := range m.def.Outputs {
		args := make([]int, len(out.Args))
		for i, name := range out.Args {
			args[i] = inputIndex[name]
		}
		p.outputs = append(p.outputs, engine.ColumnDescriptor{Name: out.Name, Type: out.Type, Role: engine.RoleOutput})
		p.ops = append(p.ops, outputOp{kind: out.Op, args: args})
	}
	m.pipelines++
	m.logger.Debug("pipeline created", zap.String("uuid", m.def.UUID), zap.Int("outputs", len(p.outputs)))
	return p, nil
}

// Close implements engine.Model.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	if m.pipelines > 0 {
		return fmt.Errorf("close model: %w (%d pipelines)", ErrInUse, m.pipelines)
	}
	m.closed = true
	return nil
}

type outputOp struct {
	kind string
	args []int
}

// Pipeline evaluates the output operations of a Model.
type Pipeline struct {
	model   *Model
	outputs []engine.ColumnDescriptor
	ops     []outputOp
	mu      sync.Mutex
	frames  int
	closed  bool
}

func (p *Pipeline) Model() engine.Model { return p.model }

func (p *Pipeline) Outputs() []engine.ColumnDescriptor {
	return append([]engine.ColumnDescriptor(nil), p.outputs...)
}

// NewFrame implements engine.Pipeline.
func (p *Pipeline) NewFrame(rows int) (engine.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if rows <= 0 {
		return nil, fmt.Errorf("frame needs a positive row count, got %d", rows)
	}

	f := &Frame{pipeline: p, rows: rows}
	var err error
	if f.inputs, err = f.allocate(p.model.inputs); err != nil {
		f.release()
		return nil, err
	}
	if f.outputs, err = f.allocate(p.outputs); err != nil {
		f.release()
		return nil, err
	}
	p.frames++
	return f, nil
}

// Transform implements engine.Pipeline.
func (p *Pipeline) Transform(ef engine.Frame, rows int) error {
	f, ok := ef.(*Frame)
	if !ok || f.pipeline != p {
		return fmt.Errorf("frame does not belong to this pipeline")
	}
	if f.closed {
		return ErrClosed
	}
	if rows < 0 || rows > f.rows {
		return fmt.Errorf("row count %d outside frame capacity %d", rows, f.rows)
	}
	for i, op := range p.ops {
		if err := f.evaluate(op, f.outputs[i], rows); err != nil {
			return fmt.Errorf("output %q: %w", p.outputs[i].Name, err)
		}
	}
	return nil
}

// Close implements engine.Pipeline.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	if p.frames > 0 {
		return fmt.Errorf("close pipeline: %w (%d frames)", ErrInUse, p.frames)
	}
	p.closed = true

	p.model.mu.Lock()
	p.model.pipelines--
	p.model.mu.Unlock()
	return nil
}

// Frame holds engine-allocated column memory.
type Frame struct {
	pipeline *Pipeline
	rows     int
	inputs   []*column.Buffer
	outputs  []*column.Buffer
	allocs   [][]byte
	closed   bool
}

func (f *Frame) Rows() int { return f.rows }

func (f *Frame) InputBuffer(index int) (*column.Buffer, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if index < 0 || index >= len(f.inputs) {
		return nil, fmt.Errorf("invalid index of input column: %d", index)
	}
	return f.inputs[index], nil
}

func (f *Frame) OutputBuffer(index int) (*column.Buffer, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if index < 0 || index >= len(f.outputs) {
		return nil, fmt.Errorf("invalid index of output column: %d", index)
	}
	return f.outputs[index], nil
}

// Close implements engine.Frame.
func (f *Frame) Close() error {
	if f.closed {
		return nil
	}
	f.release()
	f.closed = true

	f.pipeline.mu.Lock()
	f.pipeline.frames--
	f.pipeline.mu.Unlock()
	return nil
}

func (f *Frame) allocate(cols []engine.ColumnDescriptor) ([]*column.Buffer, error) {
	bufs := make([]*column.Buffer, len(cols))
	for i, col := range cols {
		switch {
		case col.Type.FixedWidth():
			mem := f.pipeline.model.alloc.Allocate(f.rows * col.Type.Width())
			f.allocs = append(f.allocs, mem)
			buf, err := column.NewBuffer(col.Type, mem, f.rows)
			if err != nil {
				return nil, err
			}
			bufs[i] = buf
		case col.Type == coltype.String:
			buf, err := column.NewStringBuffer(make(stringStore, f.rows), f.rows)
			if err != nil {
				return nil, err
			}
			bufs[i] = buf
		default:
			// The engine can declare columns it has no storage for.
			bufs[i] = &column.Buffer{Type: col.Type, Capacity: f.rows}
		}
	}
	return bufs, nil
}

func (f *Frame) release() {
	for _, mem := range f.allocs {
		f.pipeline.model.alloc.Free(mem)
	}
	f.allocs = nil
	for _, buf := range append(f.inputs, f.outputs...) {
		if buf != nil {
			buf.Data = nil
			buf.Capacity = 0
		}
	}
}

type stringStore []string

func (s stringStore) SetString(row int, v string) { s[row] = v }
func (s stringStore) String(row int) string       { return s[row] }
