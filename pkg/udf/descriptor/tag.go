package descriptor

import (
	"fmt"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/encoding"
)

// TagIdentifier enumerates the descriptor types defined by ECMA-167 part 3
// (volume structures) and part 4 (file structures).
type TagIdentifier uint16

const (
	// TAG_NONE is not a valid identifier; a zero identifier marks an
	// unrecorded sector.
	TAG_NONE TagIdentifier = 0

	// TAG_PRIMARY_VOLUME identifies a Primary Volume Descriptor (type 1).
	TAG_PRIMARY_VOLUME TagIdentifier = 1

	// TAG_ANCHOR_VOLUME_POINTER identifies an Anchor Volume Descriptor
	// Pointer (type 2).
	TAG_ANCHOR_VOLUME_POINTER TagIdentifier = 2

	// TAG_VOLUME_POINTER identifies a Volume Descriptor Pointer (type 3).
	TAG_VOLUME_POINTER TagIdentifier = 3

	// TAG_IMPLEMENTATION_USE identifies an Implementation Use Volume
	// Descriptor (type 4).
	TAG_IMPLEMENTATION_USE TagIdentifier = 4

	// TAG_PARTITION identifies a Partition Descriptor (type 5).
	TAG_PARTITION TagIdentifier = 5

	// TAG_LOGICAL_VOLUME identifies a Logical Volume Descriptor (type 6).
	TAG_LOGICAL_VOLUME TagIdentifier = 6

	// TAG_UNALLOCATED_SPACE identifies an Unallocated Space Descriptor
	// (type 7).
	TAG_UNALLOCATED_SPACE TagIdentifier = 7

	// TAG_TERMINATING identifies a Terminating Descriptor (type 8).
	TAG_TERMINATING TagIdentifier = 8

	// TAG_LOGICAL_VOLUME_INTEGRITY identifies a Logical Volume Integrity
	// Descriptor (type 9).
	TAG_LOGICAL_VOLUME_INTEGRITY TagIdentifier = 9

	// TAG_FILE_SET identifies a File Set Descriptor (type 256).
	TAG_FILE_SET TagIdentifier = 256
)

// String returns the standard name of the descriptor type.
func (t TagIdentifier) String() string {
	switch t {
	case TAG_PRIMARY_VOLUME:
		return "Primary Volume Descriptor"
	case TAG_ANCHOR_VOLUME_POINTER:
		return "Anchor Volume Descriptor Pointer"
	case TAG_VOLUME_POINTER:
		return "Volume Descriptor Pointer"
	case TAG_IMPLEMENTATION_USE:
		return "Implementation Use Volume Descriptor"
	case TAG_PARTITION:
		return "Partition Descriptor"
	case TAG_LOGICAL_VOLUME:
		return "Logical Volume Descriptor"
	case TAG_UNALLOCATED_SPACE:
		return "Unallocated Space Descriptor"
	case TAG_TERMINATING:
		return "Terminating Descriptor"
	case TAG_LOGICAL_VOLUME_INTEGRITY:
		return "Logical Volume Integrity Descriptor"
	case TAG_FILE_SET:
		return "File Set Descriptor"
	default:
		return fmt.Sprintf("Unknown Descriptor (%d)", uint16(t))
	}
}

// DescriptorTag is the 16 byte validated header prefixed to every
// structural descriptor (ECMA-167 3/7.2).
type DescriptorTag struct {
	// Tag Identifier specifies the type of the descriptor. Zero marks an
	// unrecorded sector and is never valid.
	TagIdentifier TagIdentifier `json:"tag_identifier"`
	// Descriptor Version is the version of ECMA-167 the descriptor was
	// recorded against (2 for NSR02, 3 for NSR03).
	DescriptorVersion uint16 `json:"descriptor_version"`
	// Tag Checksum is the 8-bit sum of the other 15 tag bytes.
	TagChecksum uint8 `json:"tag_checksum"`
	// Tag Serial Number distinguishes descriptors surviving from a prior
	// recording of the volume.
	TagSerialNumber uint16 `json:"tag_serial_number"`
	// Descriptor CRC covers DescriptorCRCLength bytes following the tag.
	DescriptorCRC uint16 `json:"descriptor_crc"`
	// Descriptor CRC Length is the number of bytes covered by the CRC.
	DescriptorCRCLength uint16 `json:"descriptor_crc_length"`
	// Tag Location is the logical sector number the descriptor claims to
	// be recorded at.
	TagLocation uint32 `json:"tag_location"`
}

// Unmarshal parses and validates a Descriptor Tag from the first 16 bytes
// of data. Validation order: buffer length, identifier, reserved byte,
// checksum. Field values are populated even when validation fails so
// callers can report what was read.
func (tag *DescriptorTag) Unmarshal(data []byte) error {
	if len(data) < consts.UDF_TAG_SIZE {
		return fmt.Errorf("%w: descriptor tag needs %d bytes, have %d",
			ErrTruncatedBuffer, consts.UDF_TAG_SIZE, len(data))
	}

	identifier, _ := encoding.ReadUint16(data, 0)
	tag.TagIdentifier = TagIdentifier(identifier)
	tag.DescriptorVersion, _ = encoding.ReadUint16(data, 2)
	tag.TagChecksum = data[4]
	tag.TagSerialNumber, _ = encoding.ReadUint16(data, 6)
	tag.DescriptorCRC, _ = encoding.ReadUint16(data, 8)
	tag.DescriptorCRCLength, _ = encoding.ReadUint16(data, 10)
	tag.TagLocation, _ = encoding.ReadUint32(data, 12)

	if tag.TagIdentifier == TAG_NONE {
		return ErrUnknownTagIdentifier
	}
	if data[5] != 0 {
		return fmt.Errorf("%w: tag byte 5 is 0x%02x", ErrReservedFieldNonZero, data[5])
	}
	if sum := tagChecksum(data); sum != tag.TagChecksum {
		return fmt.Errorf("%w: computed 0x%02x, recorded 0x%02x",
			ErrChecksumMismatch, sum, tag.TagChecksum)
	}
	return nil
}

// Marshal produces the 16 byte on-disk form of the tag. The checksum field
// is computed, not taken from TagChecksum.
func (tag *DescriptorTag) Marshal() ([consts.UDF_TAG_SIZE]byte, error) {
	var buf [consts.UDF_TAG_SIZE]byte
	encoding.PutUint16(buf[:], 0, uint16(tag.TagIdentifier))
	encoding.PutUint16(buf[:], 2, tag.DescriptorVersion)
	encoding.PutUint16(buf[:], 6, tag.TagSerialNumber)
	encoding.PutUint16(buf[:], 8, tag.DescriptorCRC)
	encoding.PutUint16(buf[:], 10, tag.DescriptorCRCLength)
	encoding.PutUint32(buf[:], 12, tag.TagLocation)
	buf[4] = tagChecksum(buf[:])
	return buf, nil
}

// tagChecksum sums tag bytes 0..15, skipping the checksum byte itself.
// Overflow wraps at 8 bits, matching the recorded field.
func tagChecksum(data []byte) uint8 {
	var sum uint8
	for i := 0; i < consts.UDF_TAG_SIZE; i++ {
		if i == 4 {
			continue
		}
		sum += data[i]
	}
	return sum
}
