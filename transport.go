// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package tpmi2c

import (
	"fmt"
)

// Transport represents a communication channel to a TPM on an I2C bus.
type Transport interface {
	// Read is used to receive a response to a previously transmitted
	// command. Each underlying bus exchange produces exactly one complete
	// frame; the implementation must support partial reading of that
	// frame. Once a frame has been fully consumed, the next call blocks
	// until another response is available.
	Read(p []byte) (int, error)

	// Write is used to transmit a serialized command frame to the TPM.
	Write(p []byte) (int, error)

	// Close closes the transport and releases the underlying bus handle.
	Close() error
}

// TPMDevice corresponds to a physical TPM attachment that a transport can
// be opened to.
type TPMDevice interface {
	// Open opens a connection to this device, returning a new Transport.
	Open() (Transport, error)

	// ShouldRetry indicates whether a caller should resubmit commands
	// that time out on transports originating from this device, eg via
	// transportutil.NewRetrierTransport. Transports that already perform
	// their own resubmission return false here.
	ShouldRetry() bool

	fmt.Stringer
}
