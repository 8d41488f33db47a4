package encoding

import (
	"encoding/binary"
	"fmt"
)

// All multi-byte integer fields in UDF structural descriptors are recorded
// little-endian (ECMA-167 1/7.1). These helpers bound-check the window
// before decoding so a truncated buffer surfaces as an error instead of a
// panic.

func ReadUint8(data []byte, offset int) (uint8, error) {
	if offset < 0 || offset+1 > len(data) {
		return 0, fmt.Errorf("read of 1 byte at offset %d exceeds buffer of %d bytes", offset, len(data))
	}
	return data[offset], nil
}

func ReadUint16(data []byte, offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(data) {
		return 0, fmt.Errorf("read of 2 bytes at offset %d exceeds buffer of %d bytes", offset, len(data))
	}
	return binary.LittleEndian.Uint16(data[offset:]), nil
}

func ReadUint32(data []byte, offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(data) {
		return 0, fmt.Errorf("read of 4 bytes at offset %d exceeds buffer of %d bytes", offset, len(data))
	}
	return binary.LittleEndian.Uint32(data[offset:]), nil
}

func ReadUint64(data []byte, offset int) (uint64, error) {
	if offset < 0 || offset+8 > len(data) {
		return 0, fmt.Errorf("read of 8 bytes at offset %d exceeds buffer of %d bytes", offset, len(data))
	}
	return binary.LittleEndian.Uint64(data[offset:]), nil
}

// PutUint16 writes v little-endian at offset. The caller guarantees the
// window is large enough; Marshal buffers are fixed-size arrays.
func PutUint16(data []byte, offset int, v uint16) {
	binary.LittleEndian.PutUint16(data[offset:], v)
}

func PutUint32(data []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(data[offset:], v)
}

func PutUint64(data []byte, offset int, v uint64) {
	binary.LittleEndian.PutUint64(data[offset:], v)
}
