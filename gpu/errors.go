// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match with errors.Is.
var (
	// ErrResourceUnavailable reports that a device, kernel source, kernel
	// compilation or allocation could not be obtained. Fatal for the call.
	ErrResourceUnavailable = errors.New("gpu: resource unavailable")

	// ErrDeviceFailure reports a failed mapping or an inconsistent readback.
	ErrDeviceFailure = errors.New("gpu: device failure")

	// ErrResultOverflow reports that the kernel emitted more records than the
	// result buffer holds. It wraps ErrDeviceFailure.
	ErrResultOverflow = fmt.Errorf("result overflow: %w", ErrDeviceFailure)

	// ErrInvalidState reports a stage called out of order.
	ErrInvalidState = errors.New("gpu: invalid state")

	// ErrDeviceClosed is returned by a device after Close.
	ErrDeviceClosed = errors.New("gpu: device closed")
)

// gpuErrorf tags err with the operation name.
func gpuErrorf(op string, err error) error {
	return fmt.Errorf("gpu: %s: %w", op, err)
}

// resourceErrorf wraps a device-level cause into ErrResourceUnavailable.
func resourceErrorf(op string, cause error) error {
	return fmt.Errorf("gpu: %s: %w: %w", op, ErrResourceUnavailable, cause)
}

// failureErrorf wraps a device-level cause into ErrDeviceFailure.
func failureErrorf(op string, cause error) error {
	return fmt.Errorf("gpu: %s: %w: %w", op, ErrDeviceFailure, cause)
}
