// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

/*
Package expio bridges bus implementations written against
golang.org/x/exp/io/i2c/driver into this module's bus contract, so the
TPM transport can run over anything that ecosystem supports.
*/
package expio

import (
	"fmt"
	"sync"

	"golang.org/x/exp/io/i2c/driver"

	tpmi2c "github.com/deanjicn/tpm-i2c-atmel"
	"github.com/deanjicn/tpm-i2c-atmel/i2c"
)

// Adapter exposes a [driver.Opener] as an [i2c.Adapter]. Connections to
// device addresses are opened lazily and cached for the lifetime of the
// adapter.
type Adapter struct {
	opener driver.Opener

	mu    sync.Mutex
	conns map[uint16]driver.Conn
}

// NewAdapter returns an adapter backed by the supplied opener.
func NewAdapter(opener driver.Opener) *Adapter {
	return &Adapter{opener: opener, conns: make(map[uint16]driver.Conn)}
}

func (a *Adapter) connFor(addr uint16) (driver.Conn, error) {
	if conn, ok := a.conns[addr]; ok {
		return conn, nil
	}
	conn, err := a.opener.Open(int(addr), false)
	if err != nil {
		return nil, err
	}
	a.conns[addr] = conn
	return conn, nil
}

// ReadAt implements [i2c.Adapter]. A transfer the device NACKs reports
// zero bytes moved along with the driver's error, which poll loops treat
// as "not ready".
func (a *Adapter) ReadAt(addr uint16, buf []byte) (int, error) {
	conn, err := a.connFor(addr)
	if err != nil {
		return 0, err
	}
	if err := conn.Tx(nil, buf); err != nil {
		return 0, err
	}
	return len(buf), nil
}

// WriteAt implements [i2c.Adapter].
func (a *Adapter) WriteAt(addr uint16, buf []byte) (int, error) {
	conn, err := a.connFor(addr)
	if err != nil {
		return 0, err
	}
	if err := conn.Tx(buf, nil); err != nil {
		return 0, err
	}
	return len(buf), nil
}

// Funcs implements [i2c.Adapter]. The driver contract only expresses
// plain transfers, so that is all that is advertised.
func (a *Adapter) Funcs() i2c.Funcs {
	return i2c.FuncI2C
}

// Lock implements [i2c.Adapter].
func (a *Adapter) Lock() {
	a.mu.Lock()
}

// Unlock implements [i2c.Adapter].
func (a *Adapter) Unlock() {
	a.mu.Unlock()
}

// Close implements [i2c.Adapter]. It closes every cached connection,
// returning the first error encountered.
func (a *Adapter) Close() (err error) {
	for addr, conn := range a.conns {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
		delete(a.conns, addr)
	}
	return err
}

// Device represents a TPM reachable through a [driver.Opener].
type Device struct {
	opener driver.Opener
	addr   uint16
	budget *i2c.RetryBudget
}

// NewDevice returns a new device structure for the TPM at addr behind
// the supplied opener. A nil budget selects the default retry budget.
func NewDevice(opener driver.Opener, addr uint16, budget *i2c.RetryBudget) *Device {
	return &Device{opener: opener, addr: addr, budget: budget}
}

// Addr returns the device's bus address.
func (d *Device) Addr() uint16 {
	return d.addr
}

// Open implements [tpmi2c.TPMDevice.Open].
func (d *Device) Open() (tpmi2c.Transport, error) {
	a := NewAdapter(d.opener)

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
	return fmt.Sprintf("x/exp i2c TPM device, addr 0x%02x", d.addr)
}
