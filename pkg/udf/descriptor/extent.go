package descriptor

import (
	"fmt"

	"github.com/bgrewell/udf-kit/pkg/encoding"
)

const (
	// Size of a short Extent Descriptor (extent_ad, ECMA-167 3/7.1).
	EXTENT_SIZE = 8

	// Size of a Long Allocation Descriptor (long_ad, ECMA-167 4/14.14.2).
	LONG_AD_SIZE = 16
)

// ExtentDescriptor describes a contiguous run of logical sectors by
// absolute sector number (extent_ad).
type ExtentDescriptor struct {
	// Extent Length in bytes. The top two bits carry recording flags in
	// some contexts; structural extents record plain lengths.
	Length uint32 `json:"length"`
	// Extent Location is the logical sector number of the first sector.
	Location uint32 `json:"location"`
}

func (e *ExtentDescriptor) Unmarshal(data []byte) error {
	if len(data) < EXTENT_SIZE {
		return fmt.Errorf("%w: extent descriptor needs %d bytes, have %d",
			ErrTruncatedBuffer, EXTENT_SIZE, len(data))
	}
	e.Length, _ = encoding.ReadUint32(data, 0)
	e.Location, _ = encoding.ReadUint32(data, 4)
	return nil
}

func (e *ExtentDescriptor) Marshal() ([EXTENT_SIZE]byte, error) {
	var buf [EXTENT_SIZE]byte
	encoding.PutUint32(buf[:], 0, e.Length)
	encoding.PutUint32(buf[:], 4, e.Location)
	return buf, nil
}

// LogicalBlockAddress addresses a block within a logical partition rather
// than an absolute sector (lb_addr, ECMA-167 4/7.1).
type LogicalBlockAddress struct {
	// Logical Block Number relative to the start of the partition.
	LogicalBlockNumber uint32 `json:"logical_block_number"`
	// Partition Reference Number is the 0-based index into the Logical
	// Volume Descriptor's partition map table.
	PartitionReferenceNumber uint16 `json:"partition_reference_number"`
}

// LongAllocationDescriptor references data recorded inside a logical
// partition (long_ad). It is how the Logical Volume Descriptor points at
// the File Set Descriptor.
type LongAllocationDescriptor struct {
	// Extent Length in bytes.
	ExtentLength uint32 `json:"extent_length"`
	// Extent Location as a partition-relative block address.
	ExtentLocation LogicalBlockAddress `json:"extent_location"`
	// Implementation Use bytes, opaque to this library.
	ImplementationUse [6]byte `json:"implementation_use"`
}

func (ad *LongAllocationDescriptor) Unmarshal(data []byte) error {
	if len(data) < LONG_AD_SIZE {
		return fmt.Errorf("%w: long allocation descriptor needs %d bytes, have %d",
			ErrTruncatedBuffer, LONG_AD_SIZE, len(data))
	}
	ad.ExtentLength, _ = encoding.ReadUint32(data, 0)
	ad.ExtentLocation.LogicalBlockNumber, _ = encoding.ReadUint32(data, 4)
	ad.ExtentLocation.PartitionReferenceNumber, _ = encoding.ReadUint16(data, 8)
	copy(ad.ImplementationUse[:], data[10:16])
	return nil
}

func (ad *LongAllocationDescriptor) Marshal() ([LONG_AD_SIZE]byte, error) {
	var buf [LONG_AD_SIZE]byte
	encoding.PutUint32(buf[:], 0, ad.ExtentLength)
	encoding.PutUint32(buf[:], 4, ad.ExtentLocation.LogicalBlockNumber)
	encoding.PutUint16(buf[:], 8, ad.ExtentLocation.PartitionReferenceNumber)
	copy(buf[10:16], ad.ImplementationUse[:])
	return buf, nil
}
