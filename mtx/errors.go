// SPDX-License-Identifier: MIT

package mtx

import (
	"errors"
	"fmt"
)

// ErrMalformedInput reports a file that does not follow the format.
// The wrapping error names the line.
var ErrMalformedInput = errors.New("mtx: malformed input")

// ErrUnsupported reports a well-formed banner this package does not read
// (array format, complex field, skew-symmetric or hermitian symmetry).
var ErrUnsupported = errors.New("mtx: unsupported format")

func lineErrorf(line int, format string, args ...any) error {
	return fmt.Errorf("mtx: line %d: %s: %w", line, fmt.Sprintf(format, args...), ErrMalformedInput)
}
