package coltype

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBoolLiterals(t *testing.T) {
	for _, s := range []string{"true", "True", "TRUE", "1", "1.0"} {
		v, ok := ParseBool(s)
		assert.True(t, v, s)
		assert.True(t, ok, s)
	}
	for _, s := range []string{"false", "False", "FALSE", "0", "0.0"} {
		v, ok := ParseBool(s)
		assert.False(t, v, s)
		assert.True(t, ok, s)
	}
	for _, s := range []string{"", "yes", "tRUE", "t", "2", " true", "1.00"} {
		v, ok := ParseBool(s)
		assert.False(t, v, s)
		assert.False(t, ok, s)
	}
}

func TestIntegerSentinels(t *testing.T) {
	for _, s := range []string{"", "abc", "1.5", "NaN", "99999999999"} {
		n, ok := ParseInt32(s)
		assert.Equal(t, Int32Missing, n, s)
		assert.False(t, ok)
	}
	for _, s := range []string{"", "abc", "1e3", "99999999999999999999"} {
		n, ok := ParseInt64(s)
		assert.Equal(t, Int64Missing, n, s)
		assert.False(t, ok)
	}

	n, ok := ParseInt32("-42")
	assert.True(t, ok)
	assert.Equal(t, int32(-42), n)
}

func TestFloatSentinels(t *testing.T) {
	for _, s := range []string{"", "abc", "1,5", "--1", "0x1p3", "-0X1.8p1", "1_000"} {
		f32, ok := ParseFloat32(s)
		assert.True(t, math.IsNaN(float64(f32)), s)
		assert.False(t, ok)

		f64, ok := ParseFloat64(s)
		assert.True(t, math.IsNaN(f64), s)
		assert.False(t, ok)
	}

	f, ok := ParseFloat64("87e5")
	assert.True(t, ok)
	assert.Equal(t, 8.7e6, f)

	inf, ok := ParseFloat32("1e40")
	assert.True(t, ok)
	assert.True(t, math.IsInf(float64(inf), 1))
}

func TestDecodeSentinelDeterminism(t *testing.T) {
	for _, typ := range []LogicalType{Int32, Int64, Float32, Float64} {
		first, ok, err := Decode(typ, "not-a-number")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.True(t, first.Missing(), typ.String())

		second, _, _ := Decode(typ, "garbage")
		a, _ := Encode(first)
		b, _ := Encode(second)
		assert.Equal(t, a, b, typ.String())
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	cases := []struct {
		typ  LogicalType
		text string
	}{
		{Int32, "5"},
		{Int32, "-2147483648"},
		{Int64, "9007199254740993"},
		{Float32, "0.1"},
		{Float32, "3.4028235e+38"},
		{Float64, "1.5"},
		{Float64, "-1e-300"},
		{Float64, "18.6"},
		{Bool, "true"},
		{String, "hello, world"},
	}
	for _, tc := range cases {
		t.Run(tc.typ.String()+"/"+tc.text, func(t *testing.T) {
			v, ok, err := Decode(tc.typ, tc.text)
			require.NoError(t, err)
			require.True(t, ok)

			encoded, err := Encode(v)
			require.NoError(t, err)

			again, ok, err := Decode(tc.typ, encoded)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, v, again)
		})
	}
}

func TestEncodeFormats(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{BoolValue(true), "true"},
		{BoolValue(false), "false"},
		{Int32Value(Int32Missing), strconv.Itoa(math.MaxInt32)},
		{Int64Value(-7), "-7"},
		{Float32Value(0.1), "0.1"},
		{Float64Value(15), "15"},
		{Float64Value(math.NaN()), "NaN"},
		{StringValue(""), ""},
	}
	for _, tc := range cases {
		got, err := Encode(tc.v)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestUnsupportedType(t *testing.T) {
	_, _, err := Decode(Unknown, "1")
	assert.True(t, errors.Is(err, ErrUnsupportedType))

	_, err = Encode(Value{Type: LogicalType(42)})
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestParseType(t *testing.T) {
	cases := map[string]LogicalType{
		"bool":    Bool,
		"INT32":   Int32,
		"long":    Int64,
		"float":   Float32,
		"double":  Float64,
		"Float64": Float64,
		"string":  String,
	}
	for name, want := range cases {
		got, err := ParseType(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseType("decimal")
	assert.True(t, errors.Is(err, ErrUnsupportedType))

	var typ LogicalType
	require.NoError(t, typ.UnmarshalText([]byte("int64")))
	assert.Equal(t, Int64, typ)
	text, err := typ.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "int64", string(text))
}

func TestWidths(t *testing.T) {
	assert.Equal(t, 1, Bool.Width())
	assert.Equal(t, 4, Int32.Width())
	assert.Equal(t, 8, Int64.Width())
	assert.Equal(t, 4, Float32.Width())
	assert.Equal(t, 8, Float64.Width())
	assert.Equal(t, 0, String.Width())
	assert.False(t, String.FixedWidth())
	assert.True(t, String.Supported())
	assert.False(t, Unknown.Supported())
	assert.Equal(t, "LogicalType(42)", LogicalType(42).String())
}
