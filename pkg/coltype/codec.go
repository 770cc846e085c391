package coltype

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

const (
	// Int32Missing is the reserved int32 value meaning "missing".
	// A genuine math.MaxInt32 in the data cannot be told apart from it.
	Int32Missing int32 = math.MaxInt32
	// Int64Missing is the reserved int64 value meaning "missing".
	Int64Missing int64 = math.MaxInt64
)

var (
	trueLiterals  = []string{"true", "True", "TRUE", "1", "1.0"}
	falseLiterals = []string{"false", "False", "FALSE", "0", "0.0"}
)

// Value is a single typed cell. Only the field matching Type is meaningful.
type Value struct {
	Type LogicalType
	num  uint64
	str  string
}

// BoolValue wraps a bool cell.
func BoolValue(v bool) Value {
	var n uint64
	if v {
		n = 1
	}
	return Value{Type: Bool, num: n}
}

// Int32Value wraps an int32 cell.
func Int32Value(v int32) Value { return Value{Type: Int32, num: uint64(uint32(v))} }

// Int64Value wraps an int64 cell.
func Int64Value(v int64) Value { return Value{Type: Int64, num: uint64(v)} }

// Float32Value wraps a float32 cell.
func Float32Value(v float32) Value { return Value{Type: Float32, num: uint64(math.Float32bits(v))} }

// Float64Value wraps a float64 cell.
func Float64Value(v float64) Value { return Value{Type: Float64, num: math.Float64bits(v)} }

// StringValue wraps a string cell.
func StringValue(v string) Value { return Value{Type: String, str: v} }

// Bool returns the value of a Bool cell.
func (v Value) Bool() bool { return v.num != 0 }

// Int32 returns the value of an Int32 cell.
func (v Value) Int32() int32 { return int32(uint32(v.num)) }

// Int64 returns the value of an Int64 cell.
func (v Value) Int64() int64 { return int64(v.num) }

// Float32 returns the value of a Float32 cell.
func (v Value) Float32() float32 { return math.Float32frombits(uint32(v.num)) }

// Float64 returns the value of a Float64 cell.
func (v Value) Float64() float64 { return math.Float64frombits(v.num) }

// Str returns the value of a String cell.
func (v Value) Str() string { return v.str }

// Missing reports whether v holds its type's missing sentinel.
func (v Value) Missing() bool {
	switch v.Type {
	case Int32:
		return v.Int32() == Int32Missing
	case Int64:
		return v.Int64() == Int64Missing
	case Float32:
		return math.IsNaN(float64(v.Float32()))
	case Float64:
		return math.IsNaN(v.Float64())
	default:
		return false
	}
}

// Missing returns the sentinel value of t. Bool and String have none and
// return their zero value.
func Missing(t LogicalType) Value {
	switch t {
	case Int32:
		return Int32Value(Int32Missing)
	case Int64:
		return Int64Value(Int64Missing)
	case Float32:
		return Float32Value(float32(math.NaN()))
	case Float64:
		return Float64Value(math.NaN())
	default:
		return Value{Type: t}
	}
}

// ParseBool decodes the enumerated boolean literals. ok is false when s is
// none of them, in which case the value is false.
func ParseBool(s string) (value bool, ok bool) {
	for _, lit := range trueLiterals {
		if s == lit {
			return true, true
		}
	}
	for _, lit := range falseLiterals {
		if s == lit {
			return false, true
		}
	}
	return false, false
}

// ParseInt32 decodes a signed decimal, substituting Int32Missing on failure.
func ParseInt32(s string) (int32, bool) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return Int32Missing, false
	}
	return int32(n), true
}

// ParseInt64 decodes a signed decimal, substituting Int64Missing on failure.
func ParseInt64(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Int64Missing, false
	}
	return n, true
}

// hexFloat reports whether s carries a 0x prefix after an optional sign.
// strconv accepts hexadecimal mantissas, which are not valid cell text.
func hexFloat(s string) bool {
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// ParseFloat32 decodes decimal or exponent notation, substituting NaN on
// failure. Out-of-range literals saturate to infinity.
func ParseFloat32(s string) (float32, bool) {
	if hexFloat(s) {
		return float32(math.NaN()), false
	}
	f, err := strconv.ParseFloat(s, 32)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return float32(math.NaN()), false
	}
	return float32(f), true
}

// ParseFloat64 decodes decimal or exponent notation, substituting NaN on failure.
func ParseFloat64(s string) (float64, bool) {
	if hexFloat(s) {
		return math.NaN(), false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN(), false
	}
	return f, true
}

// Decode converts one CSV cell to a value of type t. ok is false when the
// text was replaced by a substitute; err is only set for unsupported types.
func Decode(t LogicalType, text string) (v Value, ok bool, err error) {
	switch t {
	case Bool:
		b, ok := ParseBool(text)
		return BoolValue(b), ok, nil
	case Int32:
		n, ok := ParseInt32(text)
		return Int32Value(n), ok, nil
	case Int64:
		n, ok := ParseInt64(text)
		return Int64Value(n), ok, nil
	case Float32:
		f, ok := ParseFloat32(text)
		return Float32Value(f), ok, nil
	case Float64:
		f, ok := ParseFloat64(text)
		return Float64Value(f), ok, nil
	case String:
		return StringValue(text), true, nil
	}
	return Value{}, false, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

// Encode renders v as CSV text. Sentinels are rendered like ordinary values.
func Encode(v Value) (string, error) {
	switch v.Type {
	case Bool:
		return strconv.FormatBool(v.Bool()), nil
	case Int32:
		return strconv.FormatInt(int64(v.Int32()), 10), nil
	case Int64:
		return strconv.FormatInt(v.Int64(), 10), nil
	case Float32:
		return strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32), nil
	case Float64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64), nil
	case String:
		return v.str, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type)
}
