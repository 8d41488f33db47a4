package partition

import (
	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/encoding"
	"github.com/bgrewell/udf-kit/pkg/udf/descriptor"
	"github.com/stretchr/testify/require"
	"testing"
)

func type1MapBytes(volSeq, partNum uint16) []byte {
	b := make([]byte, TYPE1_MAP_SIZE)
	b[0] = 1
	b[1] = TYPE1_MAP_SIZE
	encoding.PutUint16(b, 2, volSeq)
	encoding.PutUint16(b, 4, partNum)
	return b
}

func type2MapBytes(identifier string) []byte {
	b := make([]byte, TYPE2_MAP_SIZE)
	b[0] = 2
	b[1] = TYPE2_MAP_SIZE
	copy(b[5:], identifier) // regid at offset 4; identifier begins after the flags byte
	return b
}

func ostaLVD(mapTable []byte, mapCount uint32, blockSize uint32) *descriptor.LogicalVolumeDescriptor {
	lvd := &descriptor.LogicalVolumeDescriptor{
		LogicalBlockSize:      blockSize,
		MapTableLength:        uint32(len(mapTable)),
		NumberOfPartitionMaps: mapCount,
		PartitionMaps:         mapTable,
	}
	copy(lvd.DomainIdentifier.Identifier[:], consts.UDF_OSTA_COMPLIANT)
	return lvd
}

func TestDecodeMaps(t *testing.T) {
	t.Run("type 1 and type 2 mixed", func(t *testing.T) {
		table := append(type1MapBytes(1, 0), type2MapBytes("*UDF Virtual Partition")...)
		maps, err := DecodeMaps(ostaLVD(table, 2, 2048))
		require.NoError(t, err)
		require.Len(t, maps, 2)

		t1, ok := maps[0].(Type1Map)
		require.True(t, ok)
		require.Equal(t, uint16(1), t1.VolumeSequenceNumber)
		require.Equal(t, uint16(0), t1.PartitionNumber)

		t2, ok := maps[1].(Type2Map)
		require.True(t, ok)
		require.Equal(t, "*UDF Virtual Partition", t2.PartitionTypeIdentifier.IdentifierString())
	})

	t.Run("unknown type byte", func(t *testing.T) {
		table := []byte{3, 6, 0, 0, 0, 0}
		_, err := DecodeMaps(ostaLVD(table, 1, 2048))
		require.ErrorIs(t, err, ErrUnknownPartitionMapType)
	})

	t.Run("truncated table", func(t *testing.T) {
		table := type1MapBytes(1, 0)[:4]
		_, err := DecodeMaps(ostaLVD(table, 1, 2048))
		require.ErrorIs(t, err, descriptor.ErrTruncatedBuffer)
	})

	t.Run("count beyond table", func(t *testing.T) {
		_, err := DecodeMaps(ostaLVD(type1MapBytes(1, 0), 2, 2048))
		require.ErrorIs(t, err, descriptor.ErrTruncatedBuffer)
	})
}

func TestResolveTable(t *testing.T) {
	descriptors := map[uint16]*descriptor.PartitionDescriptor{
		0: {PartitionNumber: 0, PartitionStartingLocation: 100, PartitionLength: 50},
	}

	t.Run("physical range arithmetic", func(t *testing.T) {
		lvd := ostaLVD(type1MapBytes(1, 0), 1, 2048)
		table, err := ResolveTable(lvd, descriptors, 2048)
		require.NoError(t, err)
		require.Equal(t, 1, table.Len())

		lp, err := table.Partition(0)
		require.NoError(t, err)
		require.Equal(t, uint64(204800), lp.Physical.ByteStart)
		require.Equal(t, uint64(102400), lp.Physical.ByteLength)
		require.Equal(t, uint32(2048), lp.LogicalBlockSize)
	})

	t.Run("missing partition descriptor", func(t *testing.T) {
		lvd := ostaLVD(type1MapBytes(1, 7), 1, 2048)
		_, err := ResolveTable(lvd, descriptors, 2048)
		require.ErrorIs(t, err, ErrPartitionDescriptorMissing)
	})

	t.Run("missing OSTA marker", func(t *testing.T) {
		lvd := ostaLVD(type1MapBytes(1, 0), 1, 2048)
		lvd.DomainIdentifier = descriptor.EntityIdentifier{}
		_, err := ResolveTable(lvd, descriptors, 2048)
		require.ErrorIs(t, err, ErrNotOstaCompliant)
	})
}

func TestResolveExtent(t *testing.T) {
	descriptors := map[uint16]*descriptor.PartitionDescriptor{
		0: {PartitionNumber: 0, PartitionStartingLocation: 100, PartitionLength: 50},
	}
	lvd := ostaLVD(type1MapBytes(1, 0), 1, 2048)
	table, err := ResolveTable(lvd, descriptors, 2048)
	require.NoError(t, err)

	t.Run("absolute offset arithmetic", func(t *testing.T) {
		extent, err := table.ResolveExtent(descriptor.LongAllocationDescriptor{
			ExtentLength: 2048,
			ExtentLocation: descriptor.LogicalBlockAddress{
				LogicalBlockNumber:       10,
				PartitionReferenceNumber: 0,
			},
		})
		require.NoError(t, err)
		require.Equal(t, uint64(225280), extent.Offset)
		require.Equal(t, uint64(2048), extent.Length)
	})

	t.Run("reference out of range", func(t *testing.T) {
		_, err := table.ResolveExtent(descriptor.LongAllocationDescriptor{
			ExtentLocation: descriptor.LogicalBlockAddress{PartitionReferenceNumber: 5},
		})
		require.ErrorIs(t, err, ErrPartitionReferenceOutOfRange)
	})

	t.Run("type 2 map is not dereferenced", func(t *testing.T) {
		lvd := ostaLVD(type2MapBytes("*UDF Virtual Partition"), 1, 2048)
		table, err := ResolveTable(lvd, descriptors, 2048)
		require.NoError(t, err, "type 2 maps decode cleanly")

		_, err = table.ResolveExtent(descriptor.LongAllocationDescriptor{
			ExtentLength: 2048,
		})
		require.ErrorIs(t, err, ErrUnsupportedPartitionMapType)
	})
}
