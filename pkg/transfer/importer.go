// Package transfer moves rows between CSV streams and engine frames.
//
// An Importer fills the input buffers of a frame from CSV records, one batch
// at a time. An Exporter drains the output buffers of the same frame back to
// CSV. Both bind columns once, by header name on the way in and by engine
// order on the way out, and then only walk cursors.
package transfer

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/mojoframe/pkg/coltype"
	"github.com/ajitpratap0/mojoframe/pkg/column"
	"github.com/ajitpratap0/mojoframe/pkg/engine"
	"github.com/ajitpratap0/mojoframe/pkg/errors"
	"github.com/ajitpratap0/mojoframe/pkg/metrics"
)

// ErrMissingColumn is returned when a model input has no CSV column of the
// same name and the policy is MissingColumnError.
var ErrMissingColumn = stderrors.New("model input column missing from CSV header")

// MissingColumnPolicy decides what happens to model inputs absent from the
// CSV header.
type MissingColumnPolicy int

const (
	// MissingColumnError fails the import.
	MissingColumnError MissingColumnPolicy = iota
	// MissingColumnSkip leaves the column unbound. Its buffer is never
	// written, so the engine sees whatever the frame held.
	MissingColumnSkip
)

func (p MissingColumnPolicy) String() string {
	if p == MissingColumnSkip {
		return "skip"
	}
	return "error"
}

// ParseMissingColumnPolicy accepts "error" (or "strict") and "skip" (or
// "lenient").
func ParseMissingColumnPolicy(s string) (MissingColumnPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error", "strict":
		return MissingColumnError, nil
	case "skip", "lenient":
		return MissingColumnSkip, nil
	}
	return MissingColumnError, fmt.Errorf("unknown missing column policy %q", s)
}

// ImporterConfig configures an Importer. The zero value is strict, silent
// and uninstrumented.
type ImporterConfig struct {
	MissingColumns MissingColumnPolicy
	Logger         *zap.Logger
	Metrics        *metrics.Collector
}

type importBinding struct {
	field int
	desc  engine.ColumnDescriptor
	buf   *column.Buffer
	cur   *column.Cursor
}

// Importer fills frame input buffers from a CSV stream.
type Importer struct {
	reader    *csv.Reader
	bindings  []importBinding
	capacity  int
	exhausted bool
	pending   []string
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// NewImporter reads the CSV header from r and binds every input in inputs to
// the header column of the same name. inputs must be in engine order, so that
// input i is frame.InputBuffer(i).
func NewImporter(frame engine.Frame, inputs []engine.ColumnDescriptor, r io.Reader, cfg ImporterConfig) (*Importer, error) {
	im := &Importer{
		reader:   csv.NewReader(r),
		capacity: frame.Rows(),
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
	if im.logger == nil {
		im.logger = zap.NewNop()
	}
	im.reader.ReuseRecord = true
	im.reader.LazyQuotes = true

	header, err := im.reader.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrorTypeSchema, "CSV input has no header")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read CSV header")
	}

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	// A repeated header name binds its last occurrence.
	fields := make(map[string]int, len(header))
	for i, name := range header {
		fields[name] = i
	}

	for i, desc := range inputs {
		field, ok := fields[desc.Name]
		if !ok {
			if cfg.MissingColumns == MissingColumnSkip {
				im.logger.Warn("model input not found in CSV header, column left unbound",
					zap.String("column", desc.Name))
				continue
			}
			return nil, errors.Wrap(ErrMissingColumn, errors.ErrorTypeSchema, "cannot bind model inputs").
				WithDetail("column", desc.Name)
		}
		if !desc.Type.Supported() {
			return nil, errors.Wrap(coltype.ErrUnsupportedType, errors.ErrorTypeCapability, "cannot import column").
				WithDetail("column", desc.Name).
				WithDetail("type", desc.Type.String())
		}
		buf, err := frame.InputBuffer(i)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeEngine, "failed to get input buffer")
		}
		im.bindings = append(im.bindings, importBinding{field: field, desc: desc, buf: buf, cur: buf.Cursor()})
	}

	// Peek one record so an input without data rows is exhausted up front.
	rec, err := im.reader.Read()
	switch {
	case err == io.EOF:
		im.exhausted = true
	case err != nil:
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read CSV record")
	default:
		im.pending = rec
	}

	im.logger.Debug("importer bound",
		zap.Int("bound_columns", len(im.bindings)),
		zap.Int("header_columns", len(header)),
		zap.Int("capacity", im.capacity))
	return im, nil
}

// ImportFrame fills the next batch. It returns the number of rows written
// and whether a batch is available; once the input is drained it keeps
// returning (0, false, nil).
func (im *Importer) ImportFrame() (int, bool, error) {
	if im.exhausted {
		return 0, false, nil
	}
	for _, b := range im.bindings {
		b.cur.Reset()
	}

	rows := 0
	for rows < im.capacity {
		rec := im.pending
		im.pending = nil
		if rec == nil {
			var err error
			rec, err = im.reader.Read()
			if err == io.EOF {
				im.exhausted = true
				break
			}
			if err != nil {
				return 0, false, errors.Wrap(err, errors.ErrorTypeData, "failed to read CSV record")
			}
		}
		if err := im.importRow(rows, rec); err != nil {
			return 0, false, err
		}
		rows++
	}
	return rows, rows > 0, nil
}

// Exhausted reports whether the input has been fully consumed.
func (im *Importer) Exhausted() bool { return im.exhausted }

// BoundColumns returns the names of the bound model inputs.
func (im *Importer) BoundColumns() []string {
	names := make([]string, len(im.bindings))
	for i, b := range im.bindings {
		names[i] = b.desc.Name
	}
	return names
}

func (im *Importer) importRow(row int, rec []string) error {
	for _, b := range im.bindings {
		text := rec[b.field]
		if b.desc.Type == coltype.String {
			if err := b.buf.WriteString(row, text); err != nil {
				return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write string column")
			}
			continue
		}

		v, ok, err := coltype.Decode(b.desc.Type, text)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeCapability, "cannot import column").
				WithDetail("column", b.desc.Name)
		}
		if !ok {
			im.substituted(b, text)
		}
		if err := b.cur.WriteValue(v); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write column").
				WithDetail("column", b.desc.Name)
		}
	}
	return nil
}

func (im *Importer) substituted(b importBinding, text string) {
	im.metrics.RecordSubstitution(b.desc.Type.String())
	if ce := im.logger.Check(zapcore.DebugLevel, "value replaced by missing sentinel"); ce != nil {
		line, _ := im.reader.FieldPos(b.field)
		ce.Write(
			zap.String("column", b.desc.Name),
			zap.Stringer("type", b.desc.Type),
			zap.String("value", text),
			zap.Int("line", line))
	}
}
