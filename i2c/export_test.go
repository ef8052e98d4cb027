// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package i2c

import (
	"time"
)

// TransportRetryBudget returns the retry budget the supplied transport
// polls with.
func TransportRetryBudget(t *Transport) RetryBudget {
	return t.retry
}

// MockTransportSleep replaces the function the supplied transport uses
// to delay between poll attempts.
func MockTransportSleep(t *Transport, fn func(time.Duration)) (restore func()) {
	orig := t.sleep
	t.sleep = fn
	return func() {
		t.sleep = orig
	}
}
