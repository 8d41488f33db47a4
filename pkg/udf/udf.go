package udf

import (
	"errors"
	"fmt"
	"io"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/logging"
	"github.com/bgrewell/udf-kit/pkg/option"
	"github.com/bgrewell/udf-kit/pkg/udf/descriptor"
	"github.com/bgrewell/udf-kit/pkg/udf/info"
	"github.com/bgrewell/udf-kit/pkg/udf/parser"
	"github.com/bgrewell/udf-kit/pkg/udf/partition"
	"github.com/bgrewell/udf-kit/pkg/udf/recognition"
)

// ErrVolumeNotRecognized indicates the Volume Recognition Sequence did not
// identify the image as a UDF volume.
var ErrVolumeNotRecognized = errors.New("volume recognition sequence not found")

// VolumeMetadata is the resolved structural metadata of a UDF volume. It
// is built once by Parse and read-only afterward.
type VolumeMetadata struct {
	// SectorSize is the detected logical sector size in bytes.
	SectorSize uint32
	// Recognition is the outcome of the Volume Recognition Sequence scan,
	// nil when the check was disabled.
	Recognition *recognition.Result
	// Anchor is the Anchor Volume Descriptor Pointer from sector 256.
	Anchor *descriptor.AnchorVolumeDescriptorPointer
	// Primary is the captured Primary Volume Descriptor.
	Primary *descriptor.PrimaryVolumeDescriptor
	// Partitions holds the captured Partition Descriptors by partition
	// number.
	Partitions map[uint16]*descriptor.PartitionDescriptor
	// Logical is the captured Logical Volume Descriptor.
	Logical *descriptor.LogicalVolumeDescriptor
	// LogicalPartitions maps partition reference numbers to physical byte
	// ranges.
	LogicalPartitions *partition.Table
	// FileSetDescriptorExtent is the absolute byte range of the File Set
	// Descriptor, the anchor of the directory hierarchy.
	FileSetDescriptorExtent partition.ByteExtent
}

// Open wraps a random-access image in a UDF reader. The reader is not
// owned: the caller opens and closes it. By default the volume is parsed
// immediately and the recognition sequence is required.
func Open(reader io.ReaderAt, size int64, opts ...option.OpenOption) (*UDF, error) {
	openOptions := &option.OpenOptions{
		ParseOnOpen:      true,
		RecognitionCheck: true,
		Logger:           logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(openOptions)
	}
	if openOptions.Logger == nil {
		openOptions.Logger = logging.DefaultLogger()
	}

	u := &UDF{
		reader:  reader,
		size:    size,
		options: openOptions,
		logger:  openOptions.Logger,
	}
	if openOptions.ParseOnOpen {
		if err := u.Parse(); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// UDF reads the structural metadata of a UDF volume. One instance owns
// its reader's seek positions for the duration of a Parse; concurrent
// resolutions need independent readers onto the image.
type UDF struct {
	reader   io.ReaderAt
	size     int64
	options  *option.OpenOptions
	logger   *logging.Logger
	parser   *parser.Parser
	metadata *VolumeMetadata
}

// Parse resolves the volume's structural metadata: recognition scan,
// sector size detection, anchor, volume descriptor sequence, partition
// maps, and finally the File Set Descriptor extent. The first failure is
// returned verbatim.
func (u *UDF) Parse() error {
	p := parser.NewParser(u.reader, u.size, u.options)
	metadata := &VolumeMetadata{}

	if u.options.RecognitionCheck {
		result, err := recognition.Scan(u.reader, u.size, u.logger)
		if err != nil {
			return fmt.Errorf("volume recognition scan failed: %w", err)
		}
		if !result.Recognized {
			return ErrVolumeNotRecognized
		}
		metadata.Recognition = result
		for i, vsd := range result.Descriptors {
			p.Layout().AddVolumeStructure(vsd.StandardIdentifier, int(vsd.StructureType),
				consts.UDF_VOLUME_RECOGNITION_OFFSET+int64(i)*consts.UDF_VOLUME_RECOGNITION_SECTOR_SIZE)
		}
	}

	sectorSize, err := p.DetectSectorSize()
	if err != nil {
		return err
	}
	metadata.SectorSize = sectorSize

	anchor, err := p.ReadAnchorDescriptor(sectorSize)
	if err != nil {
		return err
	}
	metadata.Anchor = anchor

	set, err := p.WalkDescriptorSequence(anchor, sectorSize)
	if err != nil {
		return err
	}
	metadata.Primary = set.Primary
	metadata.Partitions = set.Partitions
	metadata.Logical = set.Logical

	table, err := partition.ResolveTable(set.Logical, set.Partitions, sectorSize)
	if err != nil {
		return err
	}
	metadata.LogicalPartitions = table

	contentsUse, err := set.Logical.ContentsUseAsLongAD()
	if err != nil {
		return err
	}
	fsdExtent, err := table.ResolveExtent(contentsUse)
	if err != nil {
		return err
	}
	metadata.FileSetDescriptorExtent = fsdExtent

	u.recordLayout(p.Layout(), table, fsdExtent)
	u.parser = p
	u.metadata = metadata
	u.logger.Info("volume metadata resolved",
		"sector_size", sectorSize,
		"partitions", table.Len(),
		"file_set_offset", fsdExtent.Offset)
	return nil
}

func (u *UDF) recordLayout(layout *info.UDFLayout, table *partition.Table, fsd partition.ByteExtent) {
	for ref := 0; ref < table.Len(); ref++ {
		lp, err := table.Partition(uint16(ref))
		if err != nil {
			continue
		}
		number := -1
		mapType := fmt.Sprintf("type %d", lp.Map.MapType())
		if t1, ok := lp.Map.(partition.Type1Map); ok {
			number = int(t1.PartitionNumber)
		}
		layout.AddPartition(ref, number, int64(lp.Physical.ByteStart), int64(lp.Physical.ByteLength), mapType)
	}
	layout.FileSetOffset = int64(fsd.Offset)
	layout.FileSetLength = int64(fsd.Length)
}

// Parsed reports whether the volume metadata has been resolved.
func (u *UDF) Parsed() bool {
	return u.metadata != nil
}

// Metadata returns the resolved volume metadata, nil before Parse.
func (u *UDF) Metadata() *VolumeMetadata {
	return u.metadata
}

// GetLayout returns the byte layout recorded during parsing, nil before
// Parse.
func (u *UDF) GetLayout() *info.UDFLayout {
	if u.parser == nil {
		return nil
	}
	return u.parser.Layout()
}

// SectorSize returns the detected logical sector size.
func (u *UDF) SectorSize() uint32 {
	if u.metadata == nil {
		return 0
	}
	return u.metadata.SectorSize
}

// GetVolumeID returns the decoded volume identifier.
func (u *UDF) GetVolumeID() string {
	if u.metadata == nil || u.metadata.Primary == nil {
		return ""
	}
	return u.metadata.Primary.VolumeIdentifierString()
}

// GetVolumeSetID returns the decoded volume set identifier.
func (u *UDF) GetVolumeSetID() string {
	if u.metadata == nil || u.metadata.Primary == nil {
		return ""
	}
	return u.metadata.Primary.VolumeSetIdentifierString()
}

// GetLogicalVolumeID returns the decoded logical volume identifier.
func (u *UDF) GetLogicalVolumeID() string {
	if u.metadata == nil || u.metadata.Logical == nil {
		return ""
	}
	return u.metadata.Logical.LogicalVolumeIdentifierString()
}

// GetApplicationID returns the application identifier recorded in the
// Primary Volume Descriptor.
func (u *UDF) GetApplicationID() string {
	if u.metadata == nil || u.metadata.Primary == nil {
		return ""
	}
	return u.metadata.Primary.ApplicationIdentifier.IdentifierString()
}

// GetImplementationID returns the implementation identifier recorded in
// the Primary Volume Descriptor.
func (u *UDF) GetImplementationID() string {
	if u.metadata == nil || u.metadata.Primary == nil {
		return ""
	}
	return u.metadata.Primary.ImplementationIdentifier.IdentifierString()
}

// PartitionStart returns the absolute byte offset of the logical
// partition with the given reference number.
func (u *UDF) PartitionStart(reference uint16) (uint64, error) {
	if u.metadata == nil {
		return 0, errors.New("volume not parsed")
	}
	lp, err := u.metadata.LogicalPartitions.Partition(reference)
	if err != nil {
		return 0, err
	}
	return lp.Physical.ByteStart, nil
}

// FileSetDescriptorExtent returns the absolute byte range of the File Set
// Descriptor. Reading and parsing the File Set Descriptor itself belongs
// to the directory layer.
func (u *UDF) FileSetDescriptorExtent() partition.ByteExtent {
	if u.metadata == nil {
		return partition.ByteExtent{}
	}
	return u.metadata.FileSetDescriptorExtent
}

// ResolveExtent converts a partition-relative address into an absolute
// byte range using the resolved partition table.
func (u *UDF) ResolveExtent(ad descriptor.LongAllocationDescriptor) (partition.ByteExtent, error) {
	if u.metadata == nil {
		return partition.ByteExtent{}, errors.New("volume not parsed")
	}
	return u.metadata.LogicalPartitions.ResolveExtent(ad)
}
