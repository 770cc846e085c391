package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeFile, "ignored"))
}

func TestWrapPreservesStack(t *testing.T) {
	inner := New(ErrorTypeSchema, "missing column")
	outer := Wrap(inner, ErrorTypeEngine, "session failed")

	require.NotNil(t, outer)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, stderrors.Is(outer, inner))
	assert.Equal(t, "engine: session failed: schema: missing column", outer.Error())
}

func TestIsType(t *testing.T) {
	err := Wrap(io.EOF, ErrorTypeData, "bad record")

	assert.True(t, IsType(err, ErrorTypeData))
	assert.False(t, IsType(err, ErrorTypeFile))
	assert.False(t, IsType(io.EOF, ErrorTypeData))
}

func TestWithDetail(t *testing.T) {
	err := Newf(ErrorTypeConfig, "invalid batch size %d", -1).
		WithDetail("value", -1).
		WithDetail("min", 0)

	assert.Equal(t, "config: invalid batch size -1", err.Error())
	assert.Equal(t, -1, err.Details["value"])
	assert.Len(t, err.Details, 2)
	assert.NotEmpty(t, err.Stack)
}

func TestIsStructural(t *testing.T) {
	cases := []struct {
		errType ErrorType
		want    bool
	}{
		{ErrorTypeFile, true},
		{ErrorTypeSchema, true},
		{ErrorTypeData, true},
		{ErrorTypeEngine, true},
		{ErrorTypeConfig, true},
		{ErrorTypeCapability, false},
		{ErrorTypeInternal, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.errType), func(t *testing.T) {
			assert.Equal(t, tc.want, IsStructural(New(tc.errType, "x")))
		})
	}
	assert.False(t, IsStructural(io.EOF))
}
