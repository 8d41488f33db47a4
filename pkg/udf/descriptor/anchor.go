package descriptor

import (
	"fmt"

	"github.com/bgrewell/udf-kit/pkg/consts"
)

const (
	// Anchor reserved size is the anchor size minus the tag and the two
	// extent descriptors.
	ANCHOR_RESERVED_SIZE = consts.UDF_ANCHOR_SIZE - consts.UDF_TAG_SIZE - 2*EXTENT_SIZE
)

// AnchorVolumeDescriptorPointer is recorded at logical sector 256 and
// locates the Volume Descriptor Sequence (ECMA-167 3/10.2).
type AnchorVolumeDescriptorPointer struct {
	// Descriptor Tag with identifier TAG_ANCHOR_VOLUME_POINTER.
	Tag DescriptorTag `json:"tag"`
	// Main Volume Descriptor Sequence Extent.
	MainVolumeDescriptorSequence ExtentDescriptor `json:"main_volume_descriptor_sequence"`
	// Reserve Volume Descriptor Sequence Extent.
	ReserveVolumeDescriptorSequence ExtentDescriptor `json:"reserve_volume_descriptor_sequence"`
}

// Unmarshal parses a full 512 byte anchor, checking the tag type and the
// reserved trailing bytes.
func (a *AnchorVolumeDescriptorPointer) Unmarshal(data []byte) error {
	if len(data) < consts.UDF_ANCHOR_SIZE {
		return fmt.Errorf("%w: anchor needs %d bytes, have %d",
			ErrTruncatedBuffer, consts.UDF_ANCHOR_SIZE, len(data))
	}
	if err := a.Tag.Unmarshal(data); err != nil {
		return err
	}
	if a.Tag.TagIdentifier != TAG_ANCHOR_VOLUME_POINTER {
		return fmt.Errorf("%w: got %s, want %s",
			ErrUnexpectedTag, a.Tag.TagIdentifier, TAG_ANCHOR_VOLUME_POINTER)
	}
	if err := a.MainVolumeDescriptorSequence.Unmarshal(data[16:24]); err != nil {
		return err
	}
	if err := a.ReserveVolumeDescriptorSequence.Unmarshal(data[24:32]); err != nil {
		return err
	}
	for i := 32; i < consts.UDF_ANCHOR_SIZE; i++ {
		if data[i] != 0 {
			return fmt.Errorf("%w: anchor byte %d is 0x%02x",
				ErrReservedFieldNonZero, i, data[i])
		}
	}
	return nil
}

// Marshal produces the 512 byte on-disk anchor. The tag identifier and
// location are taken from the Tag field; the checksum is recomputed.
func (a *AnchorVolumeDescriptorPointer) Marshal() ([consts.UDF_ANCHOR_SIZE]byte, error) {
	var buf [consts.UDF_ANCHOR_SIZE]byte
	tag := a.Tag
	tag.TagIdentifier = TAG_ANCHOR_VOLUME_POINTER
	tagBytes, err := tag.Marshal()
	if err != nil {
		return buf, err
	}
	copy(buf[0:16], tagBytes[:])
	main, err := a.MainVolumeDescriptorSequence.Marshal()
	if err != nil {
		return buf, err
	}
	copy(buf[16:24], main[:])
	reserve, err := a.ReserveVolumeDescriptorSequence.Marshal()
	if err != nil {
		return buf, err
	}
	copy(buf[24:32], reserve[:])
	return buf, nil
}
