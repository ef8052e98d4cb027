// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package linux

import (
	"fmt"

	tpmi2c "github.com/deanjicn/tpm-i2c-atmel"
	"github.com/deanjicn/tpm-i2c-atmel/i2c"
)

// Device represents a TPM attached to an i2c adapter exposed through the
// Linux i2c-dev interface.
type Device struct {
	path   string
	addr   uint16
	budget *i2c.RetryBudget
}

// NewDevice returns a new device structure for the TPM at addr on the
// adapter character device at the supplied path. A nil budget selects
// the default retry budget.
func NewDevice(path string, addr uint16, budget *i2c.RetryBudget) *Device {
	return &Device{path: path, addr: addr, budget: budget}
}

// NewDeviceForAdapter returns a new device structure for the TPM at addr
// on the numbered adapter, with the default retry budget.
func NewDeviceForAdapter(number int, addr uint16) *Device {
	return NewDevice(AdapterPath(number), addr, nil)
}

// Path returns the path of the adapter character device.
func (d *Device) Path() string {
	return d.path
}

// Addr returns the device's bus address.
func (d *Device) Addr() uint16 {
	return d.addr
}

// Open implements [tpmi2c.TPMDevice.Open]. It opens the adapter, checks
// that it supports plain i2c transfers, verifies that a chip answers at
// the device's address, and returns a transport that owns the adapter.
func (d *Device) Open() (tpmi2c.Transport, error) {
	a, err := OpenAdapter(d.path)
	if err != nil {
		return nil, err
	}

	if a.Funcs()&i2c.FuncI2C == 0 {
		a.Close()
		return nil, tpmi2c.ErrUnsupported
	}

	if err := i2c.Probe(a, d.addr); err != nil {
		a.Close()
		return nil, err
	}

	return i2c.NewTransport(a, d.addr, d.budget), nil
}

// ShouldRetry implements [tpmi2c.TPMDevice.ShouldRetry].
func (d *Device) ShouldRetry() bool {
	return true
}

// String implements [fmt.Stringer].
func (d *Device) String() string {
	return fmt.Sprintf("linux i2c TPM device: %s, addr 0x%02x", d.path, d.addr)
}

// DefaultDevice returns a device structure for the reference wiring: the
// chip's documented address on DefaultAdapterNumber if that adapter is
// registered, otherwise on the lowest numbered adapter. If there are no
// adapters available, ErrNoAdapters is returned.
func DefaultDevice() (*Device, error) {
	adapters, err := ListAdapters()
	if err != nil {
		return nil, err
	}
	if len(adapters) == 0 {
		return nil, ErrNoAdapters
	}

	number := adapters[0]
	for _, n := range adapters {
		if n == DefaultAdapterNumber {
			number = n
			break
		}
	}

	return NewDeviceForAdapter(number, i2c.DefaultAddr), nil
}
