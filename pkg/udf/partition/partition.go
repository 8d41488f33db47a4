package partition

import (
	"errors"
	"fmt"

	"github.com/bgrewell/udf-kit/pkg/encoding"
	"github.com/bgrewell/udf-kit/pkg/udf/descriptor"
)

var (
	// ErrUnknownPartitionMapType indicates a map type byte outside {1, 2}.
	ErrUnknownPartitionMapType = errors.New("unknown partition map type")

	// ErrUnsupportedPartitionMapType indicates an attempt to resolve an
	// address through a Type 2 (virtual/sparable) partition map, which is
	// decoded for completeness but not dereferenced.
	ErrUnsupportedPartitionMapType = errors.New("unsupported partition map type")

	// ErrPartitionDescriptorMissing indicates a Type 1 map referencing a
	// partition number no Partition Descriptor declared.
	ErrPartitionDescriptorMissing = errors.New("partition descriptor missing")

	// ErrPartitionReferenceOutOfRange indicates a partition reference
	// number past the end of the map table.
	ErrPartitionReferenceOutOfRange = errors.New("partition reference out of range")

	// ErrNotOstaCompliant indicates a Logical Volume Descriptor whose
	// domain identifier lacks the "*OSTA UDF Compliant" marker.
	ErrNotOstaCompliant = errors.New("logical volume domain is not OSTA UDF compliant")
)

const (
	// On-disk sizes of the two map record kinds (ECMA-167 3/10.7).
	TYPE1_MAP_SIZE = 6
	TYPE2_MAP_SIZE = 64
)

// Map is one record of the Logical Volume Descriptor's partition map
// table. The concrete type is Type1Map or Type2Map.
type Map interface {
	// MapType returns the on-disk map type byte.
	MapType() uint8
}

// Type1Map references a Partition Descriptor on this volume by partition
// number.
type Type1Map struct {
	VolumeSequenceNumber uint16 `json:"volume_sequence_number"`
	PartitionNumber      uint16 `json:"partition_number"`
}

func (m Type1Map) MapType() uint8 { return 1 }

// Type2Map identifies a partition interpreted through an implementation
// defined scheme (virtual, sparable or metadata partitions). It is decoded
// but never dereferenced.
type Type2Map struct {
	PartitionTypeIdentifier descriptor.EntityIdentifier `json:"partition_type_identifier"`
}

func (m Type2Map) MapType() uint8 { return 2 }

// DecodeMaps walks the raw map table of the Logical Volume Descriptor,
// consuming NumberOfPartitionMaps variable-length records.
func DecodeMaps(lvd *descriptor.LogicalVolumeDescriptor) ([]Map, error) {
	maps := make([]Map, 0, lvd.NumberOfPartitionMaps)
	table := lvd.PartitionMaps
	cursor := 0

	for i := uint32(0); i < lvd.NumberOfPartitionMaps; i++ {
		if cursor >= len(table) {
			return nil, fmt.Errorf("%w: map table ends after %d of %d maps",
				descriptor.ErrTruncatedBuffer, i, lvd.NumberOfPartitionMaps)
		}

		switch mapType := table[cursor]; mapType {
		case 1:
			if cursor+TYPE1_MAP_SIZE > len(table) {
				return nil, fmt.Errorf("%w: type 1 map needs %d bytes",
					descriptor.ErrTruncatedBuffer, TYPE1_MAP_SIZE)
			}
			volSeq, _ := encoding.ReadUint16(table, cursor+2)
			partNum, _ := encoding.ReadUint16(table, cursor+4)
			maps = append(maps, Type1Map{
				VolumeSequenceNumber: volSeq,
				PartitionNumber:      partNum,
			})
			cursor += TYPE1_MAP_SIZE
		case 2:
			if cursor+TYPE2_MAP_SIZE > len(table) {
				return nil, fmt.Errorf("%w: type 2 map needs %d bytes",
					descriptor.ErrTruncatedBuffer, TYPE2_MAP_SIZE)
			}
			var id descriptor.EntityIdentifier
			if err := id.Unmarshal(table[cursor+4 : cursor+36]); err != nil {
				return nil, err
			}
			id.Kind = descriptor.ENTITY_UDF
			maps = append(maps, Type2Map{PartitionTypeIdentifier: id})
			cursor += TYPE2_MAP_SIZE
		default:
			return nil, fmt.Errorf("%w: type byte %d at map %d",
				ErrUnknownPartitionMapType, mapType, i)
		}
	}
	return maps, nil
}

// PhysicalPartition is a partition's resolved absolute byte range.
type PhysicalPartition struct {
	ByteStart  uint64 `json:"byte_start"`
	ByteLength uint64 `json:"byte_length"`
}

// LogicalPartition ties one partition map entry to its physical byte
// range and the logical block size addresses within it are expressed in.
// A Type 2 entry has no physical range.
type LogicalPartition struct {
	// Reference is the 0-based index of the entry within the map table;
	// the number Long Allocation Descriptors refer to.
	Reference uint16 `json:"reference"`
	// Map is the decoded map record.
	Map Map `json:"map"`
	// Physical is the absolute byte range, valid for Type 1 maps only.
	Physical PhysicalPartition `json:"physical"`
	// LogicalBlockSize from the Logical Volume Descriptor.
	LogicalBlockSize uint32 `json:"logical_block_size"`
}

// ByteExtent is an absolute byte range within the image.
type ByteExtent struct {
	Offset uint64 `json:"offset"`
	Length uint64 `json:"length"`
}

// Table maps partition reference numbers to logical partitions.
type Table struct {
	partitions []LogicalPartition
}

// ResolveTable cross-references the Logical Volume Descriptor's partition
// maps against the Partition Descriptors captured from the sequence,
// producing physical byte ranges. The descriptor's domain identifier must
// carry the OSTA compliance marker; without it the map table cannot be
// trusted to follow UDF rules.
func ResolveTable(lvd *descriptor.LogicalVolumeDescriptor, descriptors map[uint16]*descriptor.PartitionDescriptor, sectorSize uint32) (*Table, error) {
	if !lvd.DomainIdentifier.IsOstaCompliant() {
		return nil, fmt.Errorf("%w: domain identifier is %q",
			ErrNotOstaCompliant, lvd.DomainIdentifier.IdentifierString())
	}

	maps, err := DecodeMaps(lvd)
	if err != nil {
		return nil, err
	}

	table := &Table{partitions: make([]LogicalPartition, len(maps))}
	for i, m := range maps {
		lp := LogicalPartition{
			Reference:        uint16(i),
			Map:              m,
			LogicalBlockSize: lvd.LogicalBlockSize,
		}
		if t1, ok := m.(Type1Map); ok {
			pd, exists := descriptors[t1.PartitionNumber]
			if !exists {
				return nil, fmt.Errorf("%w: partition number %d referenced by map %d",
					ErrPartitionDescriptorMissing, t1.PartitionNumber, i)
			}
			lp.Physical = PhysicalPartition{
				ByteStart:  uint64(pd.PartitionStartingLocation) * uint64(sectorSize),
				ByteLength: uint64(pd.PartitionLength) * uint64(sectorSize),
			}
		}
		table.partitions[i] = lp
	}
	return table, nil
}

// Len returns the number of logical partitions in the table.
func (t *Table) Len() int {
	return len(t.partitions)
}

// Partition returns the logical partition for a reference number.
func (t *Table) Partition(reference uint16) (LogicalPartition, error) {
	if int(reference) >= len(t.partitions) {
		return LogicalPartition{}, fmt.Errorf("%w: reference %d, table has %d entries",
			ErrPartitionReferenceOutOfRange, reference, len(t.partitions))
	}
	return t.partitions[reference], nil
}

// ResolveExtent converts a partition-relative Long Allocation Descriptor
// into an absolute byte range. Every logical-partition address in the
// volume funnels through here.
func (t *Table) ResolveExtent(ad descriptor.LongAllocationDescriptor) (ByteExtent, error) {
	lp, err := t.Partition(ad.ExtentLocation.PartitionReferenceNumber)
	if err != nil {
		return ByteExtent{}, err
	}
	if lp.Map.MapType() != 1 {
		return ByteExtent{}, fmt.Errorf("%w: partition reference %d is a type %d map",
			ErrUnsupportedPartitionMapType, lp.Reference, lp.Map.MapType())
	}
	return ByteExtent{
		Offset: lp.Physical.ByteStart + uint64(ad.ExtentLocation.LogicalBlockNumber)*uint64(lp.LogicalBlockSize),
		Length: uint64(ad.ExtentLength),
	}, nil
}
