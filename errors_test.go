// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package tpmi2c_test

import (
	"errors"
	"io"

	. "gopkg.in/check.v1"

	. "github.com/deanjicn/tpm-i2c-atmel"
	"github.com/deanjicn/tpm-i2c-atmel/internal/testutil"
)

type errorsSuite struct{}

var _ = Suite(&errorsSuite{})

func (s *errorsSuite) TestTransportError(c *C) {
	err := &TransportError{Op: "write", Err: io.ErrShortWrite}
	c.Check(err, ErrorMatches, `cannot complete write operation on the bus: short write`)
	c.Check(errors.Is(err, io.ErrShortWrite), testutil.IsTrue)
}

func (s *errorsSuite) TestTransportErrorUnwrap(c *C) {
	wrapped := errors.New("some error")
	err := &TransportError{Op: "read", Err: wrapped}
	c.Check(err.Unwrap(), Equals, wrapped)
}

func (s *errorsSuite) TestFrameSizeError(c *C) {
	err := &FrameSizeError{Length: 1025}
	c.Check(err, ErrorMatches, `frame of 1025 bytes exceeds the 1024 byte device buffer`)
}

func (s *errorsSuite) TestInvalidCommandError(c *C) {
	err := &InvalidCommandError{Length: 0}
	c.Check(err, ErrorMatches, `command frame declares an invalid total length of 0 bytes`)
}

func (s *errorsSuite) TestInvalidResponseError(c *C) {
	err := &InvalidResponseError{Length: 1280}
	c.Check(err, ErrorMatches, `TPM declared an invalid response frame length of 1280 bytes`)
}
