package transfer

import (
	"encoding/csv"
	"io"

	"github.com/ajitpratap0/mojoframe/pkg/coltype"
	"github.com/ajitpratap0/mojoframe/pkg/column"
	"github.com/ajitpratap0/mojoframe/pkg/engine"
	"github.com/ajitpratap0/mojoframe/pkg/errors"
)

type exportBinding struct {
	desc engine.ColumnDescriptor
	buf  *column.Buffer
	cur  *column.Cursor
}

// Exporter writes frame output buffers as CSV, one batch at a time.
type Exporter struct {
	writer        *csv.Writer
	bindings      []exportBinding
	record        []string
	capacity      int
	headerWritten bool
	rows          int
	batches       int
}

// NewExporter binds every output in outputs, in engine order, to its frame
// buffer. Output i is frame.OutputBuffer(i).
func NewExporter(frame engine.Frame, outputs []engine.ColumnDescriptor, w io.Writer) (*Exporter, error) {
	ex := &Exporter{
		writer:   csv.NewWriter(w),
		record:   make([]string, len(outputs)),
		capacity: frame.Rows(),
	}
	for i, desc := range outputs {
		if !desc.Type.Supported() {
			return nil, errors.Wrap(coltype.ErrUnsupportedType, errors.ErrorTypeCapability, "cannot export column").
				WithDetail("column", desc.Name).
				WithDetail("type", desc.Type.String())
		}
		buf, err := frame.OutputBuffer(i)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeEngine, "failed to get output buffer")
		}
		ex.bindings = append(ex.bindings, exportBinding{desc: desc, buf: buf, cur: buf.Cursor()})
	}
	return ex, nil
}

// WriteHeader writes the output column names. Only the first call writes.
func (ex *Exporter) WriteHeader() error {
	if ex.headerWritten {
		return nil
	}
	for i, b := range ex.bindings {
		ex.record[i] = b.desc.Name
	}
	if err := ex.writer.Write(ex.record); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write CSV header")
	}
	ex.writer.Flush()
	if err := ex.writer.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write CSV header")
	}
	ex.headerWritten = true
	return nil
}

// ExportFrame writes the first rows rows of the frame and flushes.
func (ex *Exporter) ExportFrame(rows int) error {
	if err := ex.WriteHeader(); err != nil {
		return err
	}
	if rows < 0 || rows > ex.capacity {
		return errors.Newf(errors.ErrorTypeInternal, "cannot export %d rows from a frame of %d", rows, ex.capacity)
	}
	if rows == 0 {
		return nil
	}
	for _, b := range ex.bindings {
		b.cur.Reset()
	}

	for row := 0; row < rows; row++ {
		for i, b := range ex.bindings {
			text, err := ex.encode(b, row)
			if err != nil {
				return errors.Wrap(err, errors.ErrorTypeInternal, "failed to read output column").
					WithDetail("column", b.desc.Name).
					WithDetail("row", row)
			}
			ex.record[i] = text
		}
		if err := ex.writer.Write(ex.record); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write CSV record")
		}
	}

	ex.writer.Flush()
	if err := ex.writer.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush CSV output")
	}
	ex.rows += rows
	ex.batches++
	return nil
}

func (ex *Exporter) encode(b exportBinding, row int) (string, error) {
	if b.desc.Type == coltype.String {
		return b.buf.ReadString(row)
	}
	v, err := b.cur.ReadValue()
	if err != nil {
		return "", err
	}
	return coltype.Encode(v)
}

// TotalRows returns the number of rows exported so far.
func (ex *Exporter) TotalRows() int { return ex.rows }

// TotalBatches returns the number of non-empty batches exported so far.
func (ex *Exporter) TotalBatches() int { return ex.batches }
