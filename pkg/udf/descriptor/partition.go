package descriptor

import (
	"fmt"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/encoding"
)

// PartitionDescriptor locates a physical partition within the volume
// (ECMA-167 3/10.5). Starting location and length are recorded in logical
// sectors.
type PartitionDescriptor struct {
	// Descriptor Tag with identifier TAG_PARTITION.
	Tag DescriptorTag `json:"tag"`
	// Volume Descriptor Sequence Number.
	VolumeDescriptorSequenceNumber uint32 `json:"volume_descriptor_sequence_number"`
	// Partition Flags: bit 0 set when space has been allocated.
	PartitionFlags uint16 `json:"partition_flags"`
	// Partition Number, the key partition maps reference.
	PartitionNumber uint16 `json:"partition_number"`
	// Partition Contents regid, e.g. "+NSR02" or "+NSR03".
	PartitionContents EntityIdentifier `json:"partition_contents"`
	// Partition Contents Use bytes, opaque here.
	PartitionContentsUse [128]byte `json:"partition_contents_use"`
	// Access Type: 1 read only, 2 write once, 3 rewritable, 4 overwritable.
	AccessType uint32 `json:"access_type"`
	// Partition Starting Location in logical sectors.
	PartitionStartingLocation uint32 `json:"partition_starting_location"`
	// Partition Length in logical sectors.
	PartitionLength uint32 `json:"partition_length"`
	// Implementation Identifier regid.
	ImplementationIdentifier EntityIdentifier `json:"implementation_identifier"`
	// Implementation Use bytes.
	ImplementationUse [128]byte `json:"implementation_use"`
}

func (pd *PartitionDescriptor) Unmarshal(data []byte) error {
	if len(data) < consts.UDF_DESCRIPTOR_SIZE {
		return fmt.Errorf("%w: partition descriptor needs %d bytes, have %d",
			ErrTruncatedBuffer, consts.UDF_DESCRIPTOR_SIZE, len(data))
	}
	if err := pd.Tag.Unmarshal(data); err != nil {
		return err
	}
	if pd.Tag.TagIdentifier != TAG_PARTITION {
		return fmt.Errorf("%w: got %s, want %s",
			ErrUnexpectedTag, pd.Tag.TagIdentifier, TAG_PARTITION)
	}

	pd.VolumeDescriptorSequenceNumber, _ = encoding.ReadUint32(data, 16)
	pd.PartitionFlags, _ = encoding.ReadUint16(data, 20)
	pd.PartitionNumber, _ = encoding.ReadUint16(data, 22)
	if err := pd.PartitionContents.Unmarshal(data[24:56]); err != nil {
		return err
	}
	pd.PartitionContents.Kind = ENTITY_UDF
	copy(pd.PartitionContentsUse[:], data[56:184])
	pd.AccessType, _ = encoding.ReadUint32(data, 184)
	pd.PartitionStartingLocation, _ = encoding.ReadUint32(data, 188)
	pd.PartitionLength, _ = encoding.ReadUint32(data, 192)
	if err := pd.ImplementationIdentifier.Unmarshal(data[196:228]); err != nil {
		return err
	}
	pd.ImplementationIdentifier.Kind = ENTITY_IMPLEMENTATION
	copy(pd.ImplementationUse[:], data[228:356])
	return nil
}

func (pd *PartitionDescriptor) Marshal() ([consts.UDF_DESCRIPTOR_SIZE]byte, error) {
	var buf [consts.UDF_DESCRIPTOR_SIZE]byte
	tag := pd.Tag
	tag.TagIdentifier = TAG_PARTITION
	tagBytes, err := tag.Marshal()
	if err != nil {
		return buf, err
	}
	copy(buf[0:16], tagBytes[:])
	encoding.PutUint32(buf[:], 16, pd.VolumeDescriptorSequenceNumber)
	encoding.PutUint16(buf[:], 20, pd.PartitionFlags)
	encoding.PutUint16(buf[:], 22, pd.PartitionNumber)
	contents, _ := pd.PartitionContents.Marshal()
	copy(buf[24:56], contents[:])
	copy(buf[56:184], pd.PartitionContentsUse[:])
	encoding.PutUint32(buf[:], 184, pd.AccessType)
	encoding.PutUint32(buf[:], 188, pd.PartitionStartingLocation)
	encoding.PutUint32(buf[:], 192, pd.PartitionLength)
	impl, _ := pd.ImplementationIdentifier.Marshal()
	copy(buf[196:228], impl[:])
	copy(buf[228:356], pd.ImplementationUse[:])
	return buf, nil
}
