// Package ioutils provides small binary stream helpers shared by the
// serialization code: integer-compressed uint32 slices and length-prefixed
// byte blocks.
package ioutils

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ronanh/intcomp"
)

// CompressAndWriteUints32 compresses a slice of uint32 and writes it to w.
// It returns the scratch buffer (possibly extended) for future use.
func CompressAndWriteUints32(w io.Writer, input []uint32, buffer []uint32) ([]uint32, error) {
	buffer = buffer[:0]
	buffer = intcomp.CompressUint32(input, buffer)
	if err := binary.Write(w, binary.LittleEndian, uint64(len(buffer))); err != nil {
		return nil, err
	}
	if err := binary.Write(w, binary.LittleEndian, buffer); err != nil {
		return nil, err
	}
	return buffer, nil
}

// ReadAndDecompressUints32 reads a compressed slice of uint32 from r and
// decompresses it.
func ReadAndDecompressUints32(r io.Reader) ([]uint32, error) {
	var length uint64
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, err
	}
	buffer := make([]uint32, length)
	if err := binary.Read(r, binary.LittleEndian, buffer); err != nil {
		return nil, err
	}
	return intcomp.UncompressUint32(buffer, nil), nil
}

// WriteBlock writes a length-prefixed byte block.
func WriteBlock(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadBlock reads a length-prefixed byte block, rejecting blocks larger
// than max bytes.
func ReadBlock(r io.Reader, max uint64) ([]byte, error) {
	var length uint64
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, err
	}
	if length > max {
		return nil, fmt.Errorf("block length %d exceeds limit %d", length, max)
	}
	b := make([]byte, length)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
