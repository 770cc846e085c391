// Package column provides views over column memory owned by the scoring
// engine and sequential cursors that read and write it.
//
// A Buffer never owns its memory: Data is handed in by the engine together
// with the row capacity it declared, and stays valid only while the engine
// frame that produced it is alive. Every access through a Cursor is checked
// against that capacity, so an overrun surfaces as ErrCursorOverflow instead
// of corrupting engine memory.
package column

import (
	"errors"
	"fmt"

	"github.com/ajitpratap0/mojoframe/pkg/coltype"
)

var (
	// ErrCursorOverflow is returned when an access would step past the
	// declared capacity of a buffer.
	ErrCursorOverflow = errors.New("column cursor overflow")
	// ErrTypeMismatch is returned when a typed access does not match the
	// buffer's declared type.
	ErrTypeMismatch = errors.New("column type mismatch")
)

// StringStore is the engine-managed storage behind a string column.
// Strings are addressed by row index rather than by offset.
type StringStore interface {
	SetString(row int, value string)
	String(row int) string
}

// Buffer is a view over one engine-owned column.
type Buffer struct {
	Type     coltype.LogicalType
	Data     []byte
	Capacity int
	Strings  StringStore
}

// NewBuffer wraps fixed-width column memory. data must hold at least
// capacity elements of typ; any excess is ignored.
func NewBuffer(typ coltype.LogicalType, data []byte, capacity int) (*Buffer, error) {
	if !typ.FixedWidth() {
		return nil, fmt.Errorf("%w: %s is not a fixed-width type", coltype.ErrUnsupportedType, typ)
	}
	if capacity < 0 {
		return nil, fmt.Errorf("negative capacity %d", capacity)
	}
	need := capacity * typ.Width()
	if len(data) < need {
		return nil, fmt.Errorf("column memory too small: have %d bytes, need %d", len(data), need)
	}
	return &Buffer{Type: typ, Data: data[:need:need], Capacity: capacity}, nil
}

// NewStringBuffer wraps an engine string store holding capacity rows.
func NewStringBuffer(store StringStore, capacity int) (*Buffer, error) {
	if store == nil {
		return nil, errors.New("nil string store")
	}
	if capacity < 0 {
		return nil, fmt.Errorf("negative capacity %d", capacity)
	}
	return &Buffer{Type: coltype.String, Strings: store, Capacity: capacity}, nil
}

// Cursor returns a new cursor positioned at the buffer origin.
func (b *Buffer) Cursor() *Cursor {
	return &Cursor{buf: b, width: b.Type.Width()}
}

// WriteString stores s at row of a string column.
func (b *Buffer) WriteString(row int, s string) error {
	if b.Type != coltype.String {
		return fmt.Errorf("%w: string write to %s column", ErrTypeMismatch, b.Type)
	}
	if row < 0 || row >= b.Capacity {
		return fmt.Errorf("%w: row %d, capacity %d", ErrCursorOverflow, row, b.Capacity)
	}
	b.Strings.SetString(row, s)
	return nil
}

// ReadString loads row of a string column.
func (b *Buffer) ReadString(row int) (string, error) {
	if b.Type != coltype.String {
		return "", fmt.Errorf("%w: string read from %s column", ErrTypeMismatch, b.Type)
	}
	if row < 0 || row >= b.Capacity {
		return "", fmt.Errorf("%w: row %d, capacity %d", ErrCursorOverflow, row, b.Capacity)
	}
	return b.Strings.String(row), nil
}
