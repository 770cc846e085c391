// Package coltype defines the logical column types exchanged with the scoring
// engine and the text codec that converts CSV cells to and from their binary
// form.
//
// The set of types is closed. Every fixed-width type has a reserved value that
// stands in for "missing": math.MaxInt32 and math.MaxInt64 for the integer
// types and NaN for the float types. Booleans have no missing value and decode
// anything unrecognised as false. Strings are variable width and are never
// addressed through cursor arithmetic.
package coltype

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedType is returned for columns whose type the transfer engine
// cannot move. It signals a compatibility problem, not bad data.
var ErrUnsupportedType = errors.New("unsupported column type")

// LogicalType represents the data type of a column
type LogicalType int

const (
	Unknown LogicalType = iota
	Bool
	Int32
	Int64
	Float32
	Float64
	String
)

var typeNames = [...]string{
	Unknown: "unknown",
	Bool:    "bool",
	Int32:   "int32",
	Int64:   "int64",
	Float32: "float32",
	Float64: "float64",
	String:  "string",
}

func (t LogicalType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("LogicalType(%d)", int(t))
	}
	return typeNames[t]
}

// Width returns the element size in bytes, or 0 for types that are not
// stored contiguously.
func (t LogicalType) Width() int {
	switch t {
	case Bool:
		return 1
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	default:
		return 0
	}
}

// FixedWidth reports whether values of t live in a contiguous buffer.
func (t LogicalType) FixedWidth() bool { return t.Width() > 0 }

// Supported reports whether the transfer engine can move columns of type t.
func (t LogicalType) Supported() bool {
	return t.FixedWidth() || t == String
}

// Numeric reports whether t is one of the integer or float types.
func (t LogicalType) Numeric() bool {
	switch t {
	case Int32, Int64, Float32, Float64:
		return true
	default:
		return false
	}
}

// ParseType resolves a type name. Matching ignores case and accepts the
// engine's spelling ("float" for float32, "double" for float64).
func ParseType(name string) (LogicalType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bool", "boolean":
		return Bool, nil
	case "int32", "int":
		return Int32, nil
	case "int64", "long":
		return Int64, nil
	case "float32", "float":
		return Float32, nil
	case "float64", "double":
		return Float64, nil
	case "string", "str":
		return String, nil
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
}

// MarshalText implements encoding.TextMarshaler.
func (t LogicalType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *LogicalType) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
