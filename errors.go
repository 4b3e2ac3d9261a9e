package resultline

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMalformedLine is returned by Parse when the input does not begin
	// with the RESULT literal.
	ErrMalformedLine = errors.New("malformed result line")

	// ErrUnsupportedShape is returned by Marshal when a value has a shape
	// the line format cannot carry, such as a sequence, a nested map or a
	// bare top-level scalar. Use errors.Is to test for it; the error
	// message names the offending shape.
	ErrUnsupportedShape = errors.New("unsupported shape")

	// ErrUnnamedItem is returned by Marshal when a value is produced in a
	// position that requires a pending key, or when a key resolves to
	// something other than a scalar.
	ErrUnnamedItem = errors.New("unnamed item found")
)

// shapeError carries the name of a rejected shape and unwraps to
// ErrUnsupportedShape.
type shapeError struct {
	shape string
}

func (e *shapeError) Error() string {
	return fmt.Sprintf("unsupported shape %q", e.shape)
}

func (e *shapeError) Unwrap() error {
	return ErrUnsupportedShape
}

func unsupportedShape(shape string) error {
	return &shapeError{shape: shape}
}
