// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package transportutil

import (
	"bytes"
	"errors"
	"io"

	tpmi2c "github.com/deanjicn/tpm-i2c-atmel"
)

type commandBuffer struct {
	w            io.Writer
	maxFrameSize int
	buf          []byte
}

// BufferCommands buffers writes written to the returned io.Writer and
// delivers one complete command frame to the supplied io.Writer in a
// single write, using the total length declared in the frame header to
// decide when the frame is complete. The maxFrameSize argument is the
// capacity of the device buffer: a submission that grows beyond it, or a
// header that declares a length beyond it or smaller than the header
// itself, is rejected before any bytes reach the supplied writer.
//
// If the supplied io.Writer returns an error on submission of a frame,
// the entire frame is discarded.
func BufferCommands(w io.Writer, maxFrameSize int) io.Writer {
	return &commandBuffer{w: w, maxFrameSize: maxFrameSize}
}

func (b *commandBuffer) Write(data []byte) (n int, err error) {
	n = len(data)                 // the size of the buffer passed to us.
	buf := append(b.buf, data...) // all of the bytes we have so far.

	if len(buf) > b.maxFrameSize {
		b.buf = nil
		return 0, &tpmi2c.FrameSizeError{Length: len(buf)}
	}

	length, err := tpmi2c.FrameLength(buf)
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		// Not enough bytes for a header yet. Keep what we have for the
		// next write.
		b.buf = buf
		return n, nil
	case err != nil:
		return 0, err
	case length < tpmi2c.HeaderSize:
		b.buf = nil
		return 0, &tpmi2c.InvalidCommandError{Length: length}
	case length > b.maxFrameSize:
		b.buf = nil
		return 0, &tpmi2c.FrameSizeError{Length: length}
	}

	b.buf = buf
	if len(b.buf) < length {
		// We don't have a complete frame yet, so return now and wait
		// for more writes.
		return n, nil
	}

	// We have a complete frame. Clear the buffer unconditionally on
	// return, including on error paths.
	defer func() { b.buf = nil }()

	frame := b.buf[:length]
	remaining := len(b.buf[length:])
	if _, err := b.w.Write(frame); err != nil {
		return n, err
	}

	if remaining > 0 {
		// The caller supplied more bytes than the frame declares.
		// Discard the excess, adjust n accordingly and return an
		// appropriate error.
		return n - remaining, io.ErrShortWrite
	}

	return n, nil
}

type responseBuffer struct {
	r            io.Reader
	maxFrameSize int
	rsp          io.Reader
}

// BufferResponses reads one complete response frame at a time from the
// supplied reader in a single read, and makes it available to the
// returned reader for partial reading. The maxFrameSize argument defines
// the size of the buffer passed to the supplied reader.
//
// The supplied reader must return a complete frame from a single read
// call when one is ready - it must not block waiting to fill the whole
// buffer.
func BufferResponses(r io.Reader, maxFrameSize int) io.Reader {
	return &responseBuffer{r: r, maxFrameSize: maxFrameSize}
}

func (b *responseBuffer) readNextResponse() error {
	buf := make([]byte, b.maxFrameSize)
	n, err := b.r.Read(buf)
	if err != nil {
		return err
	}

	b.rsp = bytes.NewReader(buf[:n])
	return nil
}

func (b *responseBuffer) Read(data []byte) (n int, err error) {
	for {
		if b.rsp == nil {
			if err := b.readNextResponse(); err != nil {
				return 0, err
			}
		}

		n, err = b.rsp.Read(data)
		if err == io.EOF {
			// This response is finished.
			b.rsp = nil
			err = nil
			if n == 0 {
				continue
			}
		}
		return n, err
	}
}
