// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package i2c_test

import (
	. "gopkg.in/check.v1"

	tpmi2c "github.com/deanjicn/tpm-i2c-atmel"
	. "github.com/deanjicn/tpm-i2c-atmel/i2c"
	"github.com/deanjicn/tpm-i2c-atmel/internal/testutil"
	"github.com/deanjicn/tpm-i2c-atmel/sim"
)

type deviceSuite struct{}

var _ = Suite(&deviceSuite{})

func (s *deviceSuite) TestNewDevice(c *C) {
	chip := sim.NewChip(DefaultAddr)
	device := NewDevice(chip, DefaultAddr, nil)
	c.Check(device.Addr(), Equals, DefaultAddr)
	c.Check(device.String(), Equals, "i2c TPM device, addr 0x29")
	c.Check(device.ShouldRetry(), testutil.IsTrue)
}

func (s *deviceSuite) TestDeviceOpen(c *C) {
	chip := sim.NewChip(DefaultAddr)
	chip.QueueResponse(testutil.DecodeHexString(c, "00c400000006"))

	device := NewDevice(chip, DefaultAddr, nil)
	transport, err := device.Open()
	c.Assert(err, IsNil)
	defer transport.Close()

	// The probe peeks at the pending frame without consuming it.
	rsp := make([]byte, 6)
	n, err := transport.Read(rsp)
	c.Check(err, IsNil)
	c.Check(n, Equals, 6)
}

func (s *deviceSuite) TestDeviceOpenNoDevice(c *C) {
	chip := sim.NewChip(DefaultAddr)

	device := NewDevice(chip, DefaultAddr, nil)
	_, err := device.Open()
	c.Check(err, testutil.ErrorIs, tpmi2c.ErrNoDevice)
}

func (s *deviceSuite) TestDeviceOpenWrongAddr(c *C) {
	chip := sim.NewChip(DefaultAddr)
	chip.QueueResponse(testutil.DecodeHexString(c, "00c400000006"))

	device := NewDevice(chip, 0x33, nil)
	_, err := device.Open()
	c.Check(err, testutil.ErrorIs, tpmi2c.ErrNoDevice)
}

func (s *deviceSuite) TestProbeLocksBus(c *C) {
	chip := sim.NewChip(DefaultAddr)
	chip.QueueResponse(testutil.DecodeHexString(c, "00c400000006"))

	c.Check(Probe(chip, DefaultAddr), IsNil)
	c.Check(chip.LockAcquisitions(), Equals, 1)
}
