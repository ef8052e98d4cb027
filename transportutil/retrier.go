// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package transportutil

import (
	"errors"
	"io"
	"time"

	"golang.org/x/xerrors"
	"gopkg.in/tomb.v2"

	tpmi2c "github.com/deanjicn/tpm-i2c-atmel"
)

// RetryParams configures command resubmission for NewRetrierTransport.
type RetryParams struct {
	// MaxRetries is the maximum number of times a command is
	// resubmitted.
	MaxRetries uint

	// InitialBackoff is the amount of time to wait before submitting
	// the first retry.
	InitialBackoff time.Duration

	// BackoffRate determines how much more time to wait before
	// submitting each subsequent retry. Eg, if InitialBackoff is 20ms
	// and this field is 2, the first retry will be attempted after a
	// delay of 20ms, then the next retry after 40ms, then 80ms etc.
	BackoffRate uint
}

type retrierTransport struct {
	transport tpmi2c.Transport
	params    RetryParams

	tomb tomb.Tomb

	w io.WriteCloser // command channel

	r    io.ReadCloser // response channel
	rLen <-chan int    // next response length, used to demarcate responses.
	rErr <-chan error  // command dispatch errors.
	lr   io.Reader     // current response reader, limited by the last value read from rLen.

	closeErr <-chan error
}

// NewRetrierTransport returns a transport that resubmits a command when
// the underlying transport reports that the chip timed out, which is
// necessary on transports that don't already do this. The total poll
// budget of the underlying transport applies to each submission
// individually.
//
// The supplied transport must support partial reading of response frames.
func NewRetrierTransport(transport tpmi2c.Transport, params RetryParams) tpmi2c.Transport {
	t := &retrierTransport{
		transport: transport,
		params:    params,
	}

	// Construct the command channel
	wr, ww := io.Pipe()
	t.w = ww

	// Construct the response channel
	rr, rw := io.Pipe()
	t.r = rr
	rLen := make(chan int)
	t.rLen = rLen
	rErr := make(chan error)
	t.rErr = rErr

	// Construct the close channel
	closeErr := make(chan error)
	t.closeErr = closeErr

	// Run the transport routine
	t.tomb.Go(func() error {
		err := t.run(wr, rw, rLen, rErr)
		// Ensure the calling routine gets unblocked.
		wr.Close()
		rw.Close()
		close(rLen)
		close(rErr)
		closeErr <- transport.Close()
		close(closeErr)
		return err
	})
	return t
}

// readFrame reads one complete frame from the supplied reader, using the
// total length declared in the frame header.
func readFrame(r io.Reader) ([]byte, error) {
	hdr := make([]byte, tpmi2c.HeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}

	length, err := tpmi2c.FrameLength(hdr)
	if err != nil {
		return nil, err
	}
	switch {
	case length < tpmi2c.HeaderSize:
		return nil, &tpmi2c.InvalidResponseError{Length: length}
	case length > tpmi2c.BufferSize:
		return nil, &tpmi2c.InvalidResponseError{Length: length}
	}

	frame := make([]byte, length)
	copy(frame, hdr)
	if _, err := io.ReadFull(r, frame[tpmi2c.HeaderSize:]); err != nil {
		return nil, err
	}
	return frame, nil
}

func (t *retrierTransport) runCommand(data []byte) ([]byte, error) {
	retryDelay := t.params.InitialBackoff

	for retries := t.params.MaxRetries; ; retries-- {
		if !t.tomb.Alive() {
			return nil, errors.New("transport is closing")
		}

		// Send the command.
		if _, err := t.transport.Write(data); err != nil {
			return nil, xerrors.Errorf("cannot send command: %w", err)
		}

		rsp, err := readFrame(t.transport)
		switch {
		case errors.Is(err, tpmi2c.ErrTimeout) && retries > 0:
			// The chip never became ready; resubmit the command.
			time.Sleep(retryDelay)
			retryDelay *= time.Duration(t.params.BackoffRate)
		case err != nil:
			return nil, err
		default:
			return rsp, nil
		}
	}
}

func (t *retrierTransport) run(r io.Reader, w io.Writer, wLen chan<- int, wErr chan<- error) error {
	for {
		// Wait for the next command frame.
		cmd, err := readFrame(r)
		switch {
		case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.ErrClosedPipe):
			// We were closed.
			return nil
		case err != nil:
			// Unexpected error
			return err
		}

		rsp, err := t.runCommand(cmd)
		switch {
		case err != nil:
			// Command dispatch failed, send an error to the reader
			wErr <- err
		default:
			// Command was executed, send the response to the reader
			wLen <- len(rsp)
			_, err := w.Write(rsp)
			switch {
			case errors.Is(err, io.ErrClosedPipe):
				return nil
			case err != nil:
				// Unexpected error
				return err
			}
		}
	}
}

func (t *retrierTransport) Read(data []byte) (int, error) {
	for {
		if t.lr == nil {
			// Wait for the next response, or an error.
			select {
			case n, ok := <-t.rLen:
				if !ok {
					return 0, io.ErrClosedPipe
				}
				t.lr = io.LimitReader(t.r, int64(n))
			case err, ok := <-t.rErr:
				if !ok {
					return 0, io.ErrClosedPipe
				}
				return 0, err
			}
		}

		n, err := t.lr.Read(data)
		if err == io.EOF {
			// This response is finished.
			t.lr = nil
			err = nil
			if n == 0 {
				continue
			}
		}
		return n, err
	}
}

func (t *retrierTransport) Write(data []byte) (int, error) {
	return t.w.Write(data)
}

func (t *retrierTransport) Close() error {
	// Close the pipes and transport to unblock the transport routine.
	t.w.Close()
	t.r.Close()

	t.tomb.Kill(nil)

	var closeErr error
	var wasOpen bool

	// Wait for everything to die.
Loop:
	for {
		select {
		case <-t.rErr:
		case <-t.rLen:
		case closeErr, wasOpen = <-t.closeErr:
			if !wasOpen {
				closeErr = errors.New("transport already closed")
			}
			break Loop
		}
	}
	if err := t.tomb.Wait(); err != nil {
		return err
	}

	return closeErr
}
