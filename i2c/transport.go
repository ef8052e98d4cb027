// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package i2c

import (
	"io"
	"time"

	tpmi2c "github.com/deanjicn/tpm-i2c-atmel"
	"github.com/deanjicn/tpm-i2c-atmel/transportutil"
)

// Transport is a connection to one TPM chip on an I2C bus. It owns the
// scratch buffer that frames are staged in and the adapter it was opened
// over, and implements [tpmi2c.Transport]. It is not intended to be used
// from multiple goroutines simultaneously.
type Transport struct {
	adapter Adapter
	addr    uint16
	retry   RetryBudget
	sleep   func(time.Duration)

	// buf is the scratch buffer. Every read and write stages its frame
	// here, overwriting whatever the previous call left behind.
	buf [tpmi2c.BufferSize]byte

	r io.Reader
	w io.Writer
}

// NewTransport returns a transport that speaks the TPM frame protocol to
// the device at addr over the supplied adapter. If budget is nil the
// default retry budget is used. The transport takes ownership of the
// adapter; closing the transport closes it.
func NewTransport(adapter Adapter, addr uint16, budget *RetryBudget) *Transport {
	t := &Transport{
		adapter: adapter,
		addr:    addr,
		retry:   DefaultRetryBudget(),
		sleep:   time.Sleep,
	}
	if budget != nil {
		t.retry = *budget
	}
	t.r = transportutil.BufferResponses(&frameSource{t: t}, tpmi2c.BufferSize)
	t.w = transportutil.BufferCommands(&frameSink{t: t}, tpmi2c.BufferSize)
	return t
}

// readFrame performs the two phase read of one complete response frame
// into the scratch buffer, then copies it out to the caller. The returned
// count is the total frame length declared by the chip.
func (t *Transport) readFrame(out []byte) (int, error) {
	buf := t.buf[:]
	for i := range buf {
		buf[i] = 0
	}

	if _, err := t.readWithRetry(buf[:tpmi2c.HeaderSize]); err != nil {
		return 0, err
	}

	expected, err := tpmi2c.FrameLength(buf[:tpmi2c.HeaderSize])
	if err != nil {
		return 0, err
	}
	// A frame can never be smaller than its own header, and can never
	// exceed the chip's buffer.
	if expected < tpmi2c.HeaderSize || expected > len(buf) {
		return 0, &tpmi2c.InvalidResponseError{Length: expected}
	}

	if expected > tpmi2c.HeaderSize {
		// The second transfer returns the entire frame again, header
		// included, so it overwrites the buffer from the start rather
		// than appending after the header.
		if _, err := t.readWithRetry(buf[:expected]); err != nil {
			return 0, err
		}
	}

	return copy(out, buf[:expected]), nil
}

// writeFrame stages one command frame in the scratch buffer and issues a
// single bus write. There is no retry loop on this path: the chip either
// accepts a command immediately or not at all.
func (t *Transport) writeFrame(data []byte) (int, error) {
	if len(data) > len(t.buf) {
		return 0, &tpmi2c.FrameSizeError{Length: len(data)}
	}

	buf := t.buf[:]
	for i := range buf {
		buf[i] = 0
	}
	copy(buf, data)

	t.adapter.Lock()
	defer t.adapter.Unlock()

	n, err := t.adapter.WriteAt(t.addr, buf[:len(data)])
	switch {
	case err != nil:
		return 0, &tpmi2c.TransportError{Op: "write", Err: err}
	case n < len(data):
		return 0, &tpmi2c.TransportError{Op: "write", Err: io.ErrShortWrite}
	}

	return len(data), nil
}

// frameSource adapts readFrame to the reader contract expected by
// transportutil.BufferResponses: each Read call produces one complete
// frame.
type frameSource struct {
	t *Transport
}

func (s *frameSource) Read(p []byte) (int, error) {
	return s.t.readFrame(p)
}

// frameSink adapts writeFrame to the writer contract expected by
// transportutil.BufferCommands: each Write call carries one complete
// frame.
type frameSink struct {
	t *Transport
}

func (s *frameSink) Write(p []byte) (int, error) {
	return s.t.writeFrame(p)
}

// Read implements [tpmi2c.Transport].
func (t *Transport) Read(data []byte) (int, error) {
	return t.r.Read(data)
}

// Write implements [tpmi2c.Transport].
func (t *Transport) Write(data []byte) (int, error) {
	return t.w.Write(data)
}

// Close implements [tpmi2c.Transport].
func (t *Transport) Close() error {
	return t.adapter.Close()
}
