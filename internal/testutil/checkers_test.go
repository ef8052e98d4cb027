// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package testutil_test

import (
	"errors"
	"fmt"
	"io"

	. "gopkg.in/check.v1"

	. "github.com/deanjicn/tpm-i2c-atmel/internal/testutil"
)

type checkersSuite struct{}

var _ = Suite(&checkersSuite{})

func (s *checkersSuite) TestIsTrue(c *C) {
	result, errStr := IsTrue.Check([]interface{}{true}, []string{"value"})
	c.Check(result, Equals, true)
	c.Check(errStr, Equals, "")

	result, _ = IsTrue.Check([]interface{}{false}, []string{"value"})
	c.Check(result, Equals, false)

	result, errStr = IsTrue.Check([]interface{}{1}, []string{"value"})
	c.Check(result, Equals, false)
	c.Check(errStr, Equals, "value is not a bool")
}

func (s *checkersSuite) TestErrorIs(c *C) {
	err := fmt.Errorf("some error: %w", io.EOF)

	result, errStr := ErrorIs.Check([]interface{}{err, io.EOF}, []string{"value", "expected"})
	c.Check(result, Equals, true)
	c.Check(errStr, Equals, "")

	result, _ = ErrorIs.Check([]interface{}{err, io.ErrUnexpectedEOF}, []string{"value", "expected"})
	c.Check(result, Equals, false)

	result, errStr = ErrorIs.Check([]interface{}{"not an error", io.EOF}, []string{"value", "expected"})
	c.Check(result, Equals, false)
	c.Check(errStr, Equals, "value is not an error")
}

type testError struct {
	code int
}

func (e *testError) Error() string { return fmt.Sprintf("error %d", e.code) }

func (s *checkersSuite) TestErrorAs(c *C) {
	err := fmt.Errorf("wrapped: %w", &testError{code: 5})

	var e *testError
	result, errStr := ErrorAs.Check([]interface{}{err, &e}, []string{"value", "target"})
	c.Check(result, Equals, true)
	c.Check(errStr, Equals, "")
	c.Check(e.code, Equals, 5)

	result, _ = ErrorAs.Check([]interface{}{errors.New("plain"), &e}, []string{"value", "target"})
	c.Check(result, Equals, false)
}

func (s *checkersSuite) TestIntEqual(c *C) {
	result, errStr := IntEqual.Check([]interface{}{uint32(10), 10}, []string{"x", "y"})
	c.Check(result, Equals, true)
	c.Check(errStr, Equals, "")

	result, _ = IntEqual.Check([]interface{}{int64(9), uint(10)}, []string{"x", "y"})
	c.Check(result, Equals, false)
}

func (s *checkersSuite) TestLenEquals(c *C) {
	result, errStr := LenEquals.Check([]interface{}{[]byte{1, 2, 3}, 3}, []string{"value", "n"})
	c.Check(result, Equals, true)
	c.Check(errStr, Equals, "")

	result, errStr = LenEquals.Check([]interface{}{[]byte{1, 2, 3}, 4}, []string{"value", "n"})
	c.Check(result, Equals, false)
	c.Check(errStr, Equals, "actual length: 3")

	result, errStr = LenEquals.Check([]interface{}{5, 5}, []string{"value", "n"})
	c.Check(result, Equals, false)
	c.Check(errStr, Equals, "value doesn't have a length")
}
