// Copyright 2023 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

package tpmi2c

import (
	"encoding/binary"
	"io"
)

const (
	// HeaderSize is the size of the fixed frame header: a 2 byte tag
	// followed by the 4 byte total frame length, as defined by the TCG
	// TPM Interface Specification.
	HeaderSize = 6

	// BufferSize is the capacity of the chip's command/response buffer.
	// No frame in either direction can be larger than this.
	BufferSize = 1024
)

// FrameLength returns the total frame length, header included, declared
// in the supplied frame header. Bytes 4 and 5 of the header encode the
// length as a big-endian 16 bit integer.
//
// If hdr contains fewer than HeaderSize bytes, io.ErrUnexpectedEOF is
// returned, indicating that more bytes are needed before the length can
// be decoded.
func FrameLength(hdr []byte) (int, error) {
	if len(hdr) < HeaderSize {
		return 0, io.ErrUnexpectedEOF
	}
	return int(binary.BigEndian.Uint16(hdr[4:6])), nil
}
