// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package i2c

import (
	"time"

	tpmi2c "github.com/deanjicn/tpm-i2c-atmel"
)

const (
	// DefaultRetryInterval is the default delay between poll attempts.
	DefaultRetryInterval = 5 * time.Millisecond

	// DefaultRetryLimit is the default number of poll attempts, roughly
	// 5 minutes at the default interval.
	DefaultRetryLimit uint32 = 60000
)

// RetryBudget bounds how long a read waits for the chip to become ready,
// expressed as a fixed delay per attempt and a maximum attempt count.
type RetryBudget struct {
	// Interval is the delay between unsuccessful attempts.
	Interval time.Duration

	// Limit is the maximum number of attempts before the read fails
	// with tpmi2c.ErrTimeout.
	Limit uint32
}

// DefaultRetryBudget returns the retry budget used when none is supplied.
func DefaultRetryBudget() RetryBudget {
	return RetryBudget{Interval: DefaultRetryInterval, Limit: DefaultRetryLimit}
}

// readWithRetry polls the chip with single transfers into buf until one
// moves data, the retry budget is exhausted, or the adapter turns out not
// to support the required transfer primitive.
//
// The bus lock is held across the entire loop so that no other user of a
// shared bus can interleave transfers into the middle of a poll.
func (t *Transport) readWithRetry(buf []byte) (int, error) {
	if t.adapter.Funcs()&FuncI2C == 0 {
		return 0, tpmi2c.ErrUnsupported
	}

	t.adapter.Lock()
	defer t.adapter.Unlock()

	for attempt := uint32(0); attempt < t.retry.Limit; attempt++ {
		n, _ := t.adapter.ReadAt(t.addr, buf)
		if n > 0 {
			return n, nil
		}
		// A NACK or an empty transfer is the chip's way of saying it
		// isn't ready yet.
		t.sleep(t.retry.Interval)
	}

	return 0, tpmi2c.ErrTimeout
}
