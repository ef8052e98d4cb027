// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package i2c

import (
	"fmt"

	tpmi2c "github.com/deanjicn/tpm-i2c-atmel"
)

// Device represents a TPM chip at a known address on an already opened
// bus adapter. Backends that open their own adapter (the linux and expio
// packages) provide their own device types; this one is for callers that
// hold an Adapter directly, such as tests running against the sim
// package.
type Device struct {
	adapter Adapter
	addr    uint16
	budget  *RetryBudget
}

// NewDevice returns a device structure for the TPM at addr on the
// supplied adapter. A nil budget selects the default retry budget.
func NewDevice(adapter Adapter, addr uint16, budget *RetryBudget) *Device {
	return &Device{adapter: adapter, addr: addr, budget: budget}
}

// Addr returns the device's bus address.
func (d *Device) Addr() uint16 {
	return d.addr
}

// Open implements [tpmi2c.TPMDevice.Open]. It verifies that a chip
// answers at the device's address before handing the adapter to the
// returned transport, which owns it from then on.
func (d *Device) Open() (tpmi2c.Transport, error) {
	if err := Probe(d.adapter, d.addr); err != nil {
		return nil, err
	}
	return NewTransport(d.adapter, d.addr, d.budget), nil
}

// ShouldRetry implements [tpmi2c.TPMDevice.ShouldRetry].
func (d *Device) ShouldRetry() bool {
	return true
}

// String implements [fmt.Stringer].
func (d *Device) String() string {
	return fmt.Sprintf("i2c TPM device, addr 0x%02x", d.addr)
}
