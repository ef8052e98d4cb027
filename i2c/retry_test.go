// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package i2c_test

import (
	"time"

	. "gopkg.in/check.v1"

	tpmi2c "github.com/deanjicn/tpm-i2c-atmel"
	. "github.com/deanjicn/tpm-i2c-atmel/i2c"
	"github.com/deanjicn/tpm-i2c-atmel/internal/testutil"
	"github.com/deanjicn/tpm-i2c-atmel/sim"
)

type retrySuite struct{}

var _ = Suite(&retrySuite{})

// newPollTransport returns a transport over a fresh simulated chip with
// the supplied retry budget, with the poll delay replaced by a recorder.
func (s *retrySuite) newPollTransport(c *C, budget *RetryBudget, sleeps *[]time.Duration) (*sim.Chip, *Transport) {
	chip := sim.NewChip(DefaultAddr)
	transport := NewTransport(chip, DefaultAddr, budget)
	MockTransportSleep(transport, func(d time.Duration) {
		*sleeps = append(*sleeps, d)
	})
	return chip, transport
}

func (s *retrySuite) TestReadRetriesUntilReady(c *C) {
	var sleeps []time.Duration
	chip, transport := s.newPollTransport(c, nil, &sleeps)

	chip.SetNotReady(3)
	chip.QueueResponse(testutil.DecodeHexString(c, "00c400000006"))

	rsp := make([]byte, 6)
	n, err := transport.Read(rsp)
	c.Check(err, IsNil)
	c.Check(n, Equals, 6)

	// Three polls reported "not ready" before the fourth moved data.
	c.Check(chip.ReadAttempts(), Equals, 4)
	c.Check(chip.BusReads(), Equals, 1)
	c.Assert(sleeps, testutil.LenEquals, 3)
	for _, d := range sleeps {
		c.Check(d, Equals, DefaultRetryInterval)
	}
}

func (s *retrySuite) TestReadTimesOut(c *C) {
	var sleeps []time.Duration
	budget := RetryBudget{Interval: 2 * time.Millisecond, Limit: 25}
	chip, transport := s.newPollTransport(c, &budget, &sleeps)

	rsp := make([]byte, 6)
	_, err := transport.Read(rsp)
	c.Check(err, testutil.ErrorIs, tpmi2c.ErrTimeout)

	// Every attempt in the budget was used, each followed by the
	// configured delay.
	c.Check(chip.ReadAttempts(), Equals, 25)
	c.Assert(sleeps, testutil.LenEquals, 25)
	c.Check(sleeps[0], Equals, 2*time.Millisecond)
}

func (s *retrySuite) TestReadUnsupportedAdapter(c *C) {
	var sleeps []time.Duration
	chip, transport := s.newPollTransport(c, nil, &sleeps)

	chip.SetFuncs(0)
	chip.QueueResponse(testutil.DecodeHexString(c, "00c400000006"))

	rsp := make([]byte, 6)
	_, err := transport.Read(rsp)
	c.Check(err, testutil.ErrorIs, tpmi2c.ErrUnsupported)

	// The failure was reported before any bus activity.
	c.Check(chip.ReadAttempts(), Equals, 0)
	c.Check(chip.LockAcquisitions(), Equals, 0)
	c.Check(sleeps, testutil.LenEquals, 0)
}

func (s *retrySuite) TestLockHeldAcrossPollLoop(c *C) {
	var sleeps []time.Duration
	chip, transport := s.newPollTransport(c, nil, &sleeps)

	chip.SetNotReady(5)
	chip.QueueResponse(testutil.DecodeHexString(c, "00c400000006"))

	rsp := make([]byte, 6)
	_, err := transport.Read(rsp)
	c.Check(err, IsNil)

	// The bus was locked once for the entire poll loop, not once per
	// attempt.
	c.Check(chip.LockAcquisitions(), Equals, 1)
}

func (s *retrySuite) TestLockPerPhase(c *C) {
	var sleeps []time.Duration
	chip, transport := s.newPollTransport(c, nil, &sleeps)

	chip.QueueResponse(testutil.DecodeHexString(c, "00c10000000a01020304"))

	rsp := make([]byte, 10)
	_, err := transport.Read(rsp)
	c.Check(err, IsNil)

	// Header fetch and full frame fetch each take the bus once.
	c.Check(chip.LockAcquisitions(), Equals, 2)
}

func (s *retrySuite) TestDefaultRetryBudgetValues(c *C) {
	budget := DefaultRetryBudget()
	c.Check(budget.Interval, Equals, 5*time.Millisecond)
	c.Check(budget.Limit, Equals, uint32(60000))
}
