package errors_test

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/ajitpratap0/mojoframe/pkg/errors"
)

// Example demonstrates basic error creation and wrapping.
func Example() {
	err := errors.New(errors.ErrorTypeSchema, "input column not found in CSV header").
		WithDetail("column", "sepal_len")

	fmt.Println(err.Error())

	// Output:
	// schema: input column not found in CSV header
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeFile, "failed to read CSV header").
		WithDetail("file", "data.csv")

	if errors.IsType(err, errors.ErrorTypeFile) {
		fmt.Println("This is a file error")
	}
	if stderrors.Is(err, io.ErrUnexpectedEOF) {
		fmt.Println("Cause is preserved")
	}

	// Output:
	// This is a file error
	// Cause is preserved
}

// ExampleIsStructural shows the session-level split between structural
// failures and unsupported types.
func ExampleIsStructural() {
	missing := errors.New(errors.ErrorTypeSchema, "missing input column")
	unsupported := errors.New(errors.ErrorTypeCapability, "unsupported column type")

	fmt.Println(errors.IsStructural(missing))
	fmt.Println(errors.IsStructural(unsupported))

	// Output:
	// true
	// false
}
