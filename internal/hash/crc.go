// Package hash protects snapshot bodies with a CRC32-Castagnoli trailer.
package hash

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// TrailerSize is the number of bytes Append adds.
const TrailerSize = 4

// ErrChecksum is returned by Split when the trailer does not match.
var ErrChecksum = errors.New("hash: checksum mismatch")

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// Append appends the little-endian CRC32C of data.
func Append(data []byte) []byte {
	return binary.LittleEndian.AppendUint32(data, CRC32C(data))
}

// Split verifies the trailer written by Append and returns data without it.
func Split(data []byte) ([]byte, error) {
	if len(data) < TrailerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the trailer", ErrChecksum, len(data))
	}
	body := data[:len(data)-TrailerSize]
	want := binary.LittleEndian.Uint32(data[len(body):])
	if got := CRC32C(body); got != want {
		return nil, fmt.Errorf("%w: got %08x, want %08x", ErrChecksum, got, want)
	}
	return body, nil
}
