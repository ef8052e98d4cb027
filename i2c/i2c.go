// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

/*
Package i2c implements the transport protocol for TPMs attached on an I2C
bus.

The protocol core is deliberately small. Reads poll the chip with a
bounded retry budget until it produces data, because the chip reports "not
ready" by NACKing or returning empty transfers instead of blocking. A
response is fetched in two phases: first the fixed size frame header, then
- once the total length declared in the header is known - the entire frame
again (the chip resends it from the start, header included). Writes are
single shot: the chip either accepts a command frame immediately or not at
all.

The bus itself is abstracted behind the Adapter interface, so the same
protocol runs over the Linux i2c-dev interface (the linux package), over
golang.org/x/exp/io/i2c drivers (the expio package), or over the simulated
chip in the sim package.
*/
package i2c

import (
	tpmi2c "github.com/deanjicn/tpm-i2c-atmel"
)

// Funcs is a bitmask describing the transfer primitives an adapter
// supports. The bit assignments mirror the Linux I2C_FUNC_* constants so
// that devfs adapters can pass the kernel's mask through unmodified.
type Funcs uint64

const (
	// FuncI2C indicates support for plain i2c-level transfers, which is
	// the primitive this driver requires.
	FuncI2C Funcs = 1 << 0

	// FuncTenBitAddr indicates support for 10 bit device addressing.
	FuncTenBitAddr Funcs = 1 << 1
)

// DefaultAddr is the bus address of Atmel's AT97SC3204T, from the chip
// documentation.
const DefaultAddr uint16 = 0x29

// Adapter represents a host I2C bus controller. Implementations perform
// single blocking transfers to or from a device address on their bus.
//
// A bus may be shared with unrelated devices. Lock and Unlock provide
// exclusive use of the bus so that a multi-transfer operation cannot be
// interleaved with other traffic; this driver holds the lock for the
// duration of an entire poll loop, not per attempt.
type Adapter interface {
	// ReadAt performs a single transfer of up to len(buf) bytes from the
	// device at addr into buf, returning the number of bytes moved. A
	// device that is not ready reports this with a non-positive count,
	// a NACK error, or both.
	ReadAt(addr uint16, buf []byte) (int, error)

	// WriteAt performs a single transfer of len(buf) bytes from buf to
	// the device at addr, returning the number of bytes moved.
	WriteAt(addr uint16, buf []byte) (int, error)

	// Funcs describes the transfer primitives this adapter supports.
	Funcs() Funcs

	// Lock acquires exclusive use of the bus.
	Lock()

	// Unlock releases the bus.
	Unlock()

	// Close releases the adapter.
	Close() error
}

// Probe issues a single one byte read to verify that a device answers at
// the supplied address. It returns tpmi2c.ErrNoDevice if nothing does.
func Probe(a Adapter, addr uint16) error {
	a.Lock()
	defer a.Unlock()

	var b [1]byte
	if n, _ := a.ReadAt(addr, b[:]); n <= 0 {
		return tpmi2c.ErrNoDevice
	}
	return nil
}
