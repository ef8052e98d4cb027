// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

/*
Package tpmi2c implements a transport driver for TCG/TCPA TPM devices that
are attached on an I2C bus, such as Atmel's AT97SC3204T. It moves opaque
TPM command and response frames between a caller and the chip - it does not
interpret them.

A frame is self describing: it begins with a fixed size header
([HeaderSize] bytes) that encodes the total frame length, header included.
The chip signals that a response is not ready yet by NACKing or returning
empty reads rather than by blocking, so the read path polls the bus with a
bounded retry budget.

This package contains the contracts shared by all backends. The protocol
core lives in the i2c package, which speaks to the bus through the
i2c.Adapter interface. The linux package provides an adapter backed by the
Linux i2c-dev character device interface, and the expio package bridges
adapters implemented against golang.org/x/exp/io/i2c/driver.

To open a channel to a TPM on Linux i2c adapter 3 at the chip's documented
address:

	device := linux.NewDeviceForAdapter(3, i2c.DefaultAddr)
	tpm, err := device.Open()
	if err != nil {
		return err
	}
	defer tpm.Close()

Each call to Transport.Read returns one complete response frame, and
supports partial reading of that frame. Writes accept one command frame of
up to [BufferSize] bytes.
*/
package tpmi2c
