package descriptor

import (
	"fmt"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/encoding"
	"github.com/bgrewell/udf-kit/pkg/helpers"
)

// LogicalVolumeDescriptor defines the logical volume: its block size, its
// domain, the partition map table, and the contents-use field that locates
// the File Set Descriptor (ECMA-167 3/10.6).
type LogicalVolumeDescriptor struct {
	// Descriptor Tag with identifier TAG_LOGICAL_VOLUME.
	Tag DescriptorTag `json:"tag"`
	// Volume Descriptor Sequence Number.
	VolumeDescriptorSequenceNumber uint32 `json:"volume_descriptor_sequence_number"`
	// Logical Volume Identifier, a 128 byte dstring.
	LogicalVolumeIdentifier [128]byte `json:"logical_volume_identifier"`
	// Logical Block Size in bytes; the unit Long Allocation Descriptor
	// block numbers are expressed in.
	LogicalBlockSize uint32 `json:"logical_block_size"`
	// Domain Identifier regid; must carry "*OSTA UDF Compliant" on a UDF
	// volume.
	DomainIdentifier EntityIdentifier `json:"domain_identifier"`
	// Logical Volume Contents Use: 16 raw bytes, interpretable as a Long
	// Allocation Descriptor addressing the File Set Descriptor.
	LogicalVolumeContentsUse [16]byte `json:"logical_volume_contents_use"`
	// Map Table Length in bytes.
	MapTableLength uint32 `json:"map_table_length"`
	// Number Of Partition Maps recorded in the map table.
	NumberOfPartitionMaps uint32 `json:"number_of_partition_maps"`
	// Implementation Identifier regid.
	ImplementationIdentifier EntityIdentifier `json:"implementation_identifier"`
	// Implementation Use bytes.
	ImplementationUse [128]byte `json:"implementation_use"`
	// Integrity Sequence Extent locating the Logical Volume Integrity
	// Descriptor sequence.
	IntegritySequenceExtent ExtentDescriptor `json:"integrity_sequence_extent"`
	// Partition Maps holds the raw variable-length map table bytes,
	// decoded by the partition package.
	PartitionMaps []byte `json:"partition_maps"`
}

func (lvd *LogicalVolumeDescriptor) Unmarshal(data []byte) error {
	if len(data) < consts.UDF_DESCRIPTOR_SIZE {
		return fmt.Errorf("%w: logical volume descriptor needs %d bytes, have %d",
			ErrTruncatedBuffer, consts.UDF_DESCRIPTOR_SIZE, len(data))
	}
	if err := lvd.Tag.Unmarshal(data); err != nil {
		return err
	}
	if lvd.Tag.TagIdentifier != TAG_LOGICAL_VOLUME {
		return fmt.Errorf("%w: got %s, want %s",
			ErrUnexpectedTag, lvd.Tag.TagIdentifier, TAG_LOGICAL_VOLUME)
	}

	lvd.VolumeDescriptorSequenceNumber, _ = encoding.ReadUint32(data, 16)
	copy(lvd.LogicalVolumeIdentifier[:], data[84:212])
	lvd.LogicalBlockSize, _ = encoding.ReadUint32(data, 212)
	if err := lvd.DomainIdentifier.Unmarshal(data[216:248]); err != nil {
		return err
	}
	lvd.DomainIdentifier.Kind = ENTITY_DOMAIN
	copy(lvd.LogicalVolumeContentsUse[:], data[248:264])
	lvd.MapTableLength, _ = encoding.ReadUint32(data, 264)
	lvd.NumberOfPartitionMaps, _ = encoding.ReadUint32(data, 268)
	if err := lvd.ImplementationIdentifier.Unmarshal(data[272:304]); err != nil {
		return err
	}
	lvd.ImplementationIdentifier.Kind = ENTITY_IMPLEMENTATION
	copy(lvd.ImplementationUse[:], data[304:432])
	if err := lvd.IntegritySequenceExtent.Unmarshal(data[432:440]); err != nil {
		return err
	}

	// The map table follows the fixed fields; keep only the declared
	// length, bounded by the buffer actually read.
	mapEnd := consts.UDF_LVD_PARTITION_MAPS_OFFSET + int(lvd.MapTableLength)
	if mapEnd > len(data) {
		mapEnd = len(data)
	}
	lvd.PartitionMaps = append([]byte(nil), data[consts.UDF_LVD_PARTITION_MAPS_OFFSET:mapEnd]...)
	return nil
}

func (lvd *LogicalVolumeDescriptor) Marshal() ([consts.UDF_DESCRIPTOR_SIZE]byte, error) {
	var buf [consts.UDF_DESCRIPTOR_SIZE]byte
	tag := lvd.Tag
	tag.TagIdentifier = TAG_LOGICAL_VOLUME
	tagBytes, err := tag.Marshal()
	if err != nil {
		return buf, err
	}
	copy(buf[0:16], tagBytes[:])
	encoding.PutUint32(buf[:], 16, lvd.VolumeDescriptorSequenceNumber)
	copy(buf[84:212], lvd.LogicalVolumeIdentifier[:])
	encoding.PutUint32(buf[:], 212, lvd.LogicalBlockSize)
	domain, _ := lvd.DomainIdentifier.Marshal()
	copy(buf[216:248], domain[:])
	copy(buf[248:264], lvd.LogicalVolumeContentsUse[:])
	encoding.PutUint32(buf[:], 264, lvd.MapTableLength)
	encoding.PutUint32(buf[:], 268, lvd.NumberOfPartitionMaps)
	impl, _ := lvd.ImplementationIdentifier.Marshal()
	copy(buf[272:304], impl[:])
	copy(buf[304:432], lvd.ImplementationUse[:])
	integrity, _ := lvd.IntegritySequenceExtent.Marshal()
	copy(buf[432:440], integrity[:])
	if len(lvd.PartitionMaps) > consts.UDF_DESCRIPTOR_SIZE-consts.UDF_LVD_PARTITION_MAPS_OFFSET {
		return buf, fmt.Errorf("partition map table of %d bytes does not fit a %d byte descriptor",
			len(lvd.PartitionMaps), consts.UDF_DESCRIPTOR_SIZE)
	}
	copy(buf[consts.UDF_LVD_PARTITION_MAPS_OFFSET:], lvd.PartitionMaps)
	return buf, nil
}

// ContentsUseAsLongAD interprets the contents-use field as the Long
// Allocation Descriptor addressing the File Set Descriptor.
func (lvd *LogicalVolumeDescriptor) ContentsUseAsLongAD() (LongAllocationDescriptor, error) {
	var ad LongAllocationDescriptor
	err := ad.Unmarshal(lvd.LogicalVolumeContentsUse[:])
	return ad, err
}

// LogicalVolumeIdentifierString returns the decoded logical volume
// identifier dstring.
func (lvd *LogicalVolumeDescriptor) LogicalVolumeIdentifierString() string {
	return helpers.DString(lvd.LogicalVolumeIdentifier[:])
}
