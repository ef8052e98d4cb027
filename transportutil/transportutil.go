// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

/*
Package transportutil contains helpers for implementing and wrapping
[tpmi2c.Transport] implementations: framing buffers that convert between
stream style reads/writes and whole-frame bus exchanges, and a retrier
that resubmits commands to an unresponsive chip.
*/
package transportutil
