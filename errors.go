// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package tpmi2c

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported indicates that the bus adapter does not implement
	// the transfer primitive this driver requires. The failure is
	// reported before any bus activity and is not retried.
	ErrUnsupported = errors.New("i2c adapter does not support plain i2c transfers")

	// ErrTimeout indicates that the retry budget was exhausted without
	// the chip accepting a transfer. The chip should be treated as
	// unresponsive; a caller may retry the whole command at a higher
	// level (see transportutil.NewRetrierTransport).
	ErrTimeout = errors.New("timed out waiting for the TPM to become ready")

	// ErrNoDevice indicates that nothing acknowledged a probe transfer
	// at the configured bus address.
	ErrNoDevice = errors.New("no TPM device present at the configured bus address")
)

// TransportError is returned when a bus transfer fails after being
// accepted. It is not retried by this layer.
type TransportError struct {
	Op  string // the operation that caused the error
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cannot complete %s operation on the bus: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// FrameSizeError is returned when a caller submits a command frame that
// exceeds the device buffer capacity. The frame is rejected before any
// bus activity.
type FrameSizeError struct {
	Length int
}

func (e *FrameSizeError) Error() string {
	return fmt.Sprintf("frame of %d bytes exceeds the %d byte device buffer", e.Length, BufferSize)
}

// InvalidCommandError is returned when the header of a submitted command
// frame declares a total length smaller than the header itself. The frame
// is rejected before any bus activity.
type InvalidCommandError struct {
	Length int
}

func (e *InvalidCommandError) Error() string {
	return fmt.Sprintf("command frame declares an invalid total length of %d bytes", e.Length)
}

// InvalidResponseError is returned when the header of a response frame
// declares a total length that cannot fit in the device buffer, or one
// smaller than the header itself. The declared payload is never
// transferred.
type InvalidResponseError struct {
	Length int
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("TPM declared an invalid response frame length of %d bytes", e.Length)
}
