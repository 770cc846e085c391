package column

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ajitpratap0/mojoframe/pkg/coltype"
)

// Cursor is a sequential read/write position over a fixed-width Buffer.
// Each access moves it forward by exactly one element; only Reset moves it
// back. Callers reset every cursor of a frame once per batch before the
// first access.
type Cursor struct {
	buf    *Buffer
	offset int
	width  int
}

// Buffer returns the buffer the cursor walks.
func (c *Cursor) Buffer() *Buffer { return c.buf }

// Reset rewinds the cursor to the buffer origin.
func (c *Cursor) Reset() { c.offset = 0 }

// Position returns the index of the next element to be accessed.
func (c *Cursor) Position() int {
	if c.width == 0 {
		return 0
	}
	return c.offset / c.width
}

// Remaining returns how many accesses are left before the capacity is hit.
func (c *Cursor) Remaining() int {
	if c.width == 0 {
		return 0
	}
	return (len(c.buf.Data) - c.offset) / c.width
}

// ResetAll rewinds every cursor in cursors.
func ResetAll(cursors []*Cursor) {
	for _, c := range cursors {
		c.Reset()
	}
}

// next returns the slot for the next element of type t and advances.
func (c *Cursor) next(t coltype.LogicalType) ([]byte, error) {
	if c.buf.Type != t {
		return nil, fmt.Errorf("%w: %s access to %s column", ErrTypeMismatch, t, c.buf.Type)
	}
	end := c.offset + c.width
	if end > len(c.buf.Data) {
		return nil, fmt.Errorf("%w: capacity %d", ErrCursorOverflow, c.buf.Capacity)
	}
	slot := c.buf.Data[c.offset:end]
	c.offset = end
	return slot, nil
}

// WriteBool stores v as one byte and advances.
func (c *Cursor) WriteBool(v bool) error {
	slot, err := c.next(coltype.Bool)
	if err != nil {
		return err
	}
	if v {
		slot[0] = 1
	} else {
		slot[0] = 0
	}
	return nil
}

// ReadBool loads the next bool element and advances.
func (c *Cursor) ReadBool() (bool, error) {
	slot, err := c.next(coltype.Bool)
	if err != nil {
		return false, err
	}
	return slot[0] != 0, nil
}

// WriteInt32 stores v in native byte order and advances.
func (c *Cursor) WriteInt32(v int32) error {
	slot, err := c.next(coltype.Int32)
	if err != nil {
		return err
	}
	binary.NativeEndian.PutUint32(slot, uint32(v))
	return nil
}

// ReadInt32 loads the next int32 element and advances.
func (c *Cursor) ReadInt32() (int32, error) {
	slot, err := c.next(coltype.Int32)
	if err != nil {
		return 0, err
	}
	return int32(binary.NativeEndian.Uint32(slot)), nil
}

// WriteInt64 stores v in native byte order and advances.
func (c *Cursor) WriteInt64(v int64) error {
	slot, err := c.next(coltype.Int64)
	if err != nil {
		return err
	}
	binary.NativeEndian.PutUint64(slot, uint64(v))
	return nil
}

// ReadInt64 loads the next int64 element and advances.
func (c *Cursor) ReadInt64() (int64, error) {
	slot, err := c.next(coltype.Int64)
	if err != nil {
		return 0, err
	}
	return int64(binary.NativeEndian.Uint64(slot)), nil
}

// WriteFloat32 stores the bits of v and advances.
func (c *Cursor) WriteFloat32(v float32) error {
	slot, err := c.next(coltype.Float32)
	if err != nil {
		return err
	}
	binary.NativeEndian.PutUint32(slot, math.Float32bits(v))
	return nil
}

// ReadFloat32 loads the next float32 element and advances.
func (c *Cursor) ReadFloat32() (float32, error) {
	slot, err := c.next(coltype.Float32)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.NativeEndian.Uint32(slot)), nil
}

// WriteFloat64 stores the bits of v and advances.
func (c *Cursor) WriteFloat64(v float64) error {
	slot, err := c.next(coltype.Float64)
	if err != nil {
		return err
	}
	binary.NativeEndian.PutUint64(slot, math.Float64bits(v))
	return nil
}

// ReadFloat64 loads the next float64 element and advances.
func (c *Cursor) ReadFloat64() (float64, error) {
	slot, err := c.next(coltype.Float64)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.NativeEndian.Uint64(slot)), nil
}

// WriteValue stores v, dispatching on its type tag.
func (c *Cursor) WriteValue(v coltype.Value) error {
	switch v.Type {
	case coltype.Bool:
		return c.WriteBool(v.Bool())
	case coltype.Int32:
		return c.WriteInt32(v.Int32())
	case coltype.Int64:
		return c.WriteInt64(v.Int64())
	case coltype.Float32:
		return c.WriteFloat32(v.Float32())
	case coltype.Float64:
		return c.WriteFloat64(v.Float64())
	}
	return fmt.Errorf("%w: %s has no cursor encoding", coltype.ErrUnsupportedType, v.Type)
}

// ReadValue loads the next element as a tagged value of the buffer's type.
func (c *Cursor) ReadValue() (coltype.Value, error) {
	switch c.buf.Type {
	case coltype.Bool:
		v, err := c.ReadBool()
		return coltype.BoolValue(v), err
	case coltype.Int32:
		v, err := c.ReadInt32()
		return coltype.Int32Value(v), err
	case coltype.Int64:
		v, err := c.ReadInt64()
		return coltype.Int64Value(v), err
	case coltype.Float32:
		v, err := c.ReadFloat32()
		return coltype.Float32Value(v), err
	case coltype.Float64:
		v, err := c.ReadFloat64()
		return coltype.Float64Value(v), err
	}
	return coltype.Value{}, fmt.Errorf("%w: %s has no cursor encoding", coltype.ErrUnsupportedType, c.buf.Type)
}
