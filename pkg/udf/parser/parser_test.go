package parser

import (
	"bytes"
	"testing"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/helpers"
	"github.com/bgrewell/udf-kit/pkg/option"
	"github.com/bgrewell/udf-kit/pkg/udf/descriptor"
	"github.com/stretchr/testify/require"
)

const testSectorSize = 2048

// testImage is a synthetic volume built through the descriptor encoders.
// It carries enough sectors that the 4096 byte candidate is probed (and
// rejected) before the real 2048 byte sector size is found.
type testImage struct {
	data []byte
}

func newTestImage(t *testing.T, sectors int) *testImage {
	t.Helper()
	require.GreaterOrEqual(t, sectors, consts.UDF_ANCHOR_SECTOR+1)
	return &testImage{data: make([]byte, sectors*testSectorSize)}
}

func (img *testImage) writeSector(t *testing.T, sector int, payload []byte) {
	t.Helper()
	offset := sector * testSectorSize
	require.LessOrEqual(t, offset+len(payload), len(img.data))
	copy(img.data[offset:], payload)
}

func (img *testImage) reader() *bytes.Reader {
	return bytes.NewReader(img.data)
}

func (img *testImage) size() int64 {
	return int64(len(img.data))
}

func anchorSector(t *testing.T, mainLocation uint32, mainLength uint32) []byte {
	t.Helper()
	anchor := &descriptor.AnchorVolumeDescriptorPointer{
		Tag: descriptor.DescriptorTag{
			DescriptorVersion: 2,
			TagLocation:       consts.UDF_ANCHOR_SECTOR,
		},
		MainVolumeDescriptorSequence: descriptor.ExtentDescriptor{
			Length:   mainLength,
			Location: mainLocation,
		},
	}
	buf, err := anchor.Marshal()
	require.NoError(t, err)
	return buf[:]
}

func primarySector(t *testing.T, location uint32, volumeID string) []byte {
	t.Helper()
	pvd := &descriptor.PrimaryVolumeDescriptor{
		Tag: descriptor.DescriptorTag{
			DescriptorVersion: 2,
			TagLocation:       location,
		},
		VolumeDescriptorSequenceNumber: 1,
	}
	id := helpers.PadString(volumeID, 32)
	id[0] = 8
	id[31] = uint8(len(volumeID) + 1)
	copy(pvd.VolumeIdentifier[:], id)
	buf, err := pvd.Marshal()
	require.NoError(t, err)
	return buf[:]
}

func partitionSector(t *testing.T, location uint32, number uint16, start, length uint32) []byte {
	t.Helper()
	pd := &descriptor.PartitionDescriptor{
		Tag: descriptor.DescriptorTag{
			DescriptorVersion: 2,
			TagLocation:       location,
		},
		VolumeDescriptorSequenceNumber: 2,
		PartitionNumber:                number,
		AccessType:                     1,
		PartitionStartingLocation:      start,
		PartitionLength:                length,
	}
	copy(pd.PartitionContents.Identifier[:], "+NSR02")
	buf, err := pd.Marshal()
	require.NoError(t, err)
	return buf[:]
}

func logicalSector(t *testing.T, location uint32, partitionNumber uint16, fsdBlock uint32) []byte {
	t.Helper()
	lvd := &descriptor.LogicalVolumeDescriptor{
		Tag: descriptor.DescriptorTag{
			DescriptorVersion: 2,
			TagLocation:       location,
		},
		VolumeDescriptorSequenceNumber: 3,
		LogicalBlockSize:               testSectorSize,
	}
	copy(lvd.DomainIdentifier.Identifier[:], consts.UDF_OSTA_COMPLIANT)

	contentsUse := descriptor.LongAllocationDescriptor{
		ExtentLength: testSectorSize,
		ExtentLocation: descriptor.LogicalBlockAddress{
			LogicalBlockNumber:       fsdBlock,
			PartitionReferenceNumber: 0,
		},
	}
	cu, err := contentsUse.Marshal()
	require.NoError(t, err)
	copy(lvd.LogicalVolumeContentsUse[:], cu[:])

	mapBytes := make([]byte, 6)
	mapBytes[0] = 1
	mapBytes[1] = 6
	mapBytes[2] = 1
	mapBytes[4] = byte(partitionNumber)
	mapBytes[5] = byte(partitionNumber >> 8)
	lvd.PartitionMaps = mapBytes
	lvd.MapTableLength = uint32(len(mapBytes))
	lvd.NumberOfPartitionMaps = 1

	buf, err := lvd.Marshal()
	require.NoError(t, err)
	return buf[:]
}

func terminatingSector(t *testing.T, location uint32) []byte {
	t.Helper()
	td := &descriptor.TerminatingDescriptor{
		Tag: descriptor.DescriptorTag{
			DescriptorVersion: 2,
			TagLocation:       location,
		},
	}
	buf, err := td.Marshal()
	require.NoError(t, err)
	return buf[:]
}

// buildVolume lays out a minimal valid volume: anchor at sector 256 and a
// descriptor sequence at 257..260.
func buildVolume(t *testing.T) *testImage {
	t.Helper()
	img := newTestImage(t, 552)
	img.writeSector(t, consts.UDF_ANCHOR_SECTOR, anchorSector(t, 257, 16*testSectorSize))
	img.writeSector(t, 257, primarySector(t, 257, "TESTVOL"))
	img.writeSector(t, 258, partitionSector(t, 258, 0, 300, 100))
	img.writeSector(t, 259, logicalSector(t, 259, 0, 2))
	img.writeSector(t, 260, terminatingSector(t, 260))
	return img
}

func testOptions() *option.OpenOptions {
	return &option.OpenOptions{}
}

func TestDetectSectorSize(t *testing.T) {
	t.Run("detects 2048 after rejecting larger candidates", func(t *testing.T) {
		img := buildVolume(t)
		// Large enough that the 4096 byte candidate is actually probed.
		require.GreaterOrEqual(t, img.size(), int64(4096*(consts.UDF_ANCHOR_SECTOR+1)))

		p := NewParser(img.reader(), img.size(), testOptions())
		size, err := p.DetectSectorSize()
		require.NoError(t, err)
		require.Equal(t, uint32(2048), size)
		require.Equal(t, 2048, p.Layout().SectorSize)
		require.Equal(t, int64(2048*consts.UDF_ANCHOR_SECTOR), p.Layout().AnchorOffset)
	})

	t.Run("detection is deterministic", func(t *testing.T) {
		img := buildVolume(t)
		for i := 0; i < 3; i++ {
			p := NewParser(img.reader(), img.size(), testOptions())
			size, err := p.DetectSectorSize()
			require.NoError(t, err)
			require.Equal(t, uint32(2048), size)
		}
	})

	t.Run("blank image is undetectable", func(t *testing.T) {
		img := newTestImage(t, 552)
		p := NewParser(img.reader(), img.size(), testOptions())
		_, err := p.DetectSectorSize()
		require.ErrorIs(t, err, ErrSectorSizeUndetectable)
	})

	t.Run("anchor with wrong tag location is rejected", func(t *testing.T) {
		img := newTestImage(t, 552)
		img.writeSector(t, consts.UDF_ANCHOR_SECTOR, anchorSector(t, 257, 0))
		// Rewrite the tag location and recompute the checksum through the
		// encoder so only the location differs.
		anchor := &descriptor.AnchorVolumeDescriptorPointer{}
		offset := consts.UDF_ANCHOR_SECTOR * testSectorSize
		require.NoError(t, anchor.Unmarshal(img.data[offset:offset+consts.UDF_ANCHOR_SIZE]))
		anchor.Tag.TagLocation = 255
		buf, err := anchor.Marshal()
		require.NoError(t, err)
		img.writeSector(t, consts.UDF_ANCHOR_SECTOR, buf[:])

		p := NewParser(img.reader(), img.size(), testOptions())
		_, err = p.DetectSectorSize()
		require.ErrorIs(t, err, ErrSectorSizeUndetectable)
	})
}

func TestReadAnchorDescriptor(t *testing.T) {
	t.Run("reads main extent", func(t *testing.T) {
		img := buildVolume(t)
		p := NewParser(img.reader(), img.size(), testOptions())
		anchor, err := p.ReadAnchorDescriptor(testSectorSize)
		require.NoError(t, err)
		require.Equal(t, uint32(257), anchor.MainVolumeDescriptorSequence.Location)
		require.Equal(t, uint32(16*testSectorSize), anchor.MainVolumeDescriptorSequence.Length)
	})

	t.Run("nonzero reserved byte fails", func(t *testing.T) {
		img := buildVolume(t)
		img.data[consts.UDF_ANCHOR_SECTOR*testSectorSize+100] = 0xFF
		p := NewParser(img.reader(), img.size(), testOptions())
		_, err := p.ReadAnchorDescriptor(testSectorSize)
		require.ErrorIs(t, err, descriptor.ErrReservedFieldNonZero)
	})
}

func TestWalkDescriptorSequence(t *testing.T) {
	t.Run("captures all required descriptors", func(t *testing.T) {
		img := buildVolume(t)
		p := NewParser(img.reader(), img.size(), testOptions())
		anchor, err := p.ReadAnchorDescriptor(testSectorSize)
		require.NoError(t, err)

		set, err := p.WalkDescriptorSequence(anchor, testSectorSize)
		require.NoError(t, err)
		require.True(t, set.Complete())
		require.Equal(t, "TESTVOL", set.Primary.VolumeIdentifierString())
		require.Contains(t, set.Partitions, uint16(0))
		require.Equal(t, uint32(300), set.Partitions[0].PartitionStartingLocation)
		require.Equal(t, uint32(testSectorSize), set.Logical.LogicalBlockSize)
		require.NotNil(t, set.Terminating)
	})

	t.Run("later descriptor supersedes earlier", func(t *testing.T) {
		img := newTestImage(t, 552)
		img.writeSector(t, consts.UDF_ANCHOR_SECTOR, anchorSector(t, 257, 16*testSectorSize))
		img.writeSector(t, 257, primarySector(t, 257, "FIRST"))
		img.writeSector(t, 258, partitionSector(t, 258, 0, 300, 100))
		img.writeSector(t, 259, logicalSector(t, 259, 0, 2))
		img.writeSector(t, 260, primarySector(t, 260, "SECOND"))
		img.writeSector(t, 261, terminatingSector(t, 261))

		p := NewParser(img.reader(), img.size(), testOptions())
		anchor, err := p.ReadAnchorDescriptor(testSectorSize)
		require.NoError(t, err)
		set, err := p.WalkDescriptorSequence(anchor, testSectorSize)
		require.NoError(t, err)
		require.Equal(t, "SECOND", set.Primary.VolumeIdentifierString())
	})

	t.Run("sectors with invalid tags are skipped", func(t *testing.T) {
		img := newTestImage(t, 552)
		img.writeSector(t, consts.UDF_ANCHOR_SECTOR, anchorSector(t, 257, 16*testSectorSize))
		img.writeSector(t, 257, primarySector(t, 257, "TESTVOL"))
		// Sector 258 carries a garbage tag with a bad checksum.
		garbage := make([]byte, consts.UDF_TAG_SIZE)
		garbage[0] = 1
		garbage[4] = 0xAA
		img.writeSector(t, 258, garbage)
		img.writeSector(t, 259, partitionSector(t, 259, 0, 300, 100))
		img.writeSector(t, 260, logicalSector(t, 260, 0, 2))
		img.writeSector(t, 261, terminatingSector(t, 261))

		p := NewParser(img.reader(), img.size(), testOptions())
		anchor, err := p.ReadAnchorDescriptor(testSectorSize)
		require.NoError(t, err)
		set, err := p.WalkDescriptorSequence(anchor, testSectorSize)
		require.NoError(t, err)
		require.True(t, set.Complete())
	})

	t.Run("missing terminating descriptor fails", func(t *testing.T) {
		img := newTestImage(t, 552)
		img.writeSector(t, consts.UDF_ANCHOR_SECTOR, anchorSector(t, 257, 4*testSectorSize))
		img.writeSector(t, 257, primarySector(t, 257, "TESTVOL"))
		img.writeSector(t, 258, partitionSector(t, 258, 0, 300, 100))
		img.writeSector(t, 259, logicalSector(t, 259, 0, 2))

		p := NewParser(img.reader(), img.size(), testOptions())
		anchor, err := p.ReadAnchorDescriptor(testSectorSize)
		require.NoError(t, err)
		_, err = p.WalkDescriptorSequence(anchor, testSectorSize)
		require.ErrorIs(t, err, ErrRequiredDescriptorsMissing)
	})

	t.Run("zero length extent walks the default bound", func(t *testing.T) {
		img := buildVolume(t)
		img.writeSector(t, consts.UDF_ANCHOR_SECTOR, anchorSector(t, 257, 0))

		p := NewParser(img.reader(), img.size(), testOptions())
		anchor, err := p.ReadAnchorDescriptor(testSectorSize)
		require.NoError(t, err)
		set, err := p.WalkDescriptorSequence(anchor, testSectorSize)
		require.NoError(t, err)
		require.True(t, set.Complete())
	})
}
