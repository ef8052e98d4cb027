// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

/*
Package sim implements a simulated TPM chip attached to a simulated I2C
bus, for testing code built on this module without hardware.

The simulated chip honours the real chip's framing conventions: a
response is served in full for every read transfer, so a header sized
read returns the first bytes of the frame and a follow up read returns
the entire frame again. Readiness can be scripted to exercise poll
loops.
*/
package sim

import (
	"errors"
	"sync"

	"github.com/deanjicn/tpm-i2c-atmel/i2c"
)

var errNoResponse = errors.New("no response available")

// Chip is a simulated TPM on a simulated bus. It implements
// [i2c.Adapter].
type Chip struct {
	addr  uint16
	funcs i2c.Funcs

	busMu sync.Mutex

	mu        sync.Mutex
	notReady  int
	echo      bool
	responses [][]byte
	writes    [][]byte

	reads    int
	busReads int
	locks    int
}

// NewChip returns a simulated chip that acknowledges transfers addressed
// to addr. It advertises plain i2c transfer support.
func NewChip(addr uint16) *Chip {
	return &Chip{addr: addr, funcs: i2c.FuncI2C}
}

// SetFuncs overrides the transfer primitives the simulated adapter
// advertises.
func (c *Chip) SetFuncs(funcs i2c.Funcs) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funcs = funcs
}

// SetNotReady arranges for the next n read transfers to report "not
// ready" (zero bytes moved).
func (c *Chip) SetNotReady(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notReady = n
}

// SetEcho arranges for every written frame to be queued as the next
// response, which makes write-then-read round trips possible without
// scripting.
func (c *Chip) SetEcho(echo bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.echo = echo
}

// QueueResponse appends a response frame for the chip to serve.
func (c *Chip) QueueResponse(frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = append(c.responses, append([]byte(nil), frame...))
}

// Writes returns the frames written to the chip so far.
func (c *Chip) Writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.writes...)
}

// ReadAttempts returns the number of read transfers attempted, including
// ones that reported "not ready".
func (c *Chip) ReadAttempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// BusReads returns the number of read transfers that moved data.
func (c *Chip) BusReads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busReads
}

// LockAcquisitions returns the number of times the bus lock was taken.
func (c *Chip) LockAcquisitions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locks
}

// ReadAt implements [i2c.Adapter]. The current response frame is served
// in full on every read that moves data; it is consumed once a transfer
// large enough to carry the whole frame has been issued.
func (c *Chip) ReadAt(addr uint16, buf []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reads++

	if addr != c.addr {
		return 0, errNoResponse
	}
	if c.notReady > 0 {
		c.notReady--
		return 0, nil
	}
	if len(c.responses) == 0 {
		return 0, errNoResponse
	}

	rsp := c.responses[0]
	n := copy(buf, rsp)
	if len(buf) >= len(rsp) {
		c.responses = c.responses[1:]
	}

	c.busReads++
	return n, nil
}

// WriteAt implements [i2c.Adapter].
func (c *Chip) WriteAt(addr uint16, buf []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if addr != c.addr {
		return 0, errNoResponse
	}

	frame := append([]byte(nil), buf...)
	c.writes = append(c.writes, frame)
	if c.echo {
		c.responses = append(c.responses, frame)
	}
	return len(buf), nil
}

// Funcs implements [i2c.Adapter].
func (c *Chip) Funcs() i2c.Funcs {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.funcs
}

// Lock implements [i2c.Adapter].
func (c *Chip) Lock() {
	c.busMu.Lock()
	c.mu.Lock()
	c.locks++
	c.mu.Unlock()
}

// Unlock implements [i2c.Adapter].
func (c *Chip) Unlock() {
	c.busMu.Unlock()
}

// Close implements [i2c.Adapter].
func (c *Chip) Close() error {
	return nil
}
