package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/logging"
	"github.com/bgrewell/udf-kit/pkg/option"
	"github.com/bgrewell/udf-kit/pkg/udf/descriptor"
	"github.com/bgrewell/udf-kit/pkg/udf/info"
)

var (
	// ErrSectorSizeUndetectable indicates no candidate sector size placed
	// a valid anchor at logical sector 256.
	ErrSectorSizeUndetectable = errors.New("sector size undetectable")

	// ErrRequiredDescriptorsMissing indicates the Volume Descriptor
	// Sequence ended before all four required descriptor kinds were seen.
	ErrRequiredDescriptorsMissing = errors.New("required volume descriptors missing")
)

// How many sectors of the Volume Descriptor Sequence to walk when the
// anchor's main extent declares no length.
const DEFAULT_MAX_DESCRIPTOR_SECTORS = 256

// NewParser creates a parser over a random-access image of the given
// size. The parser never writes to or closes the reader.
func NewParser(reader io.ReaderAt, size int64, options *option.OpenOptions) *Parser {
	logger := options.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Parser{
		reader:  reader,
		size:    size,
		options: options,
		logger:  logger,
		layout:  info.NewUDFLayout(),
	}
}

type Parser struct {
	reader  io.ReaderAt
	size    int64
	options *option.OpenOptions
	logger  *logging.Logger
	layout  *info.UDFLayout
}

// Layout returns the byte layout recorded while parsing.
func (p *Parser) Layout() *info.UDFLayout {
	return p.layout
}

// DetectSectorSize probes the candidate logical sector sizes, largest
// first, and returns the first one that places a valid Anchor Volume
// Descriptor Pointer tag at logical sector 256.
func (p *Parser) DetectSectorSize() (uint32, error) {
	for _, candidate := range consts.SectorSizeCandidates {
		// The probe sector plus everything before it must fit.
		if p.size < int64(candidate)*(consts.UDF_ANCHOR_SECTOR+1) {
			p.logger.Trace("image too small for candidate sector size", "candidate", candidate)
			continue
		}

		offset := int64(candidate) * consts.UDF_ANCHOR_SECTOR
		buf := make([]byte, consts.UDF_TAG_SIZE)
		if _, err := p.reader.ReadAt(buf, offset); err != nil {
			p.logger.Trace("probe read failed", "candidate", candidate, "error", err)
			continue
		}

		var tag descriptor.DescriptorTag
		if err := tag.Unmarshal(buf); err != nil {
			p.logger.Trace("probe tag invalid", "candidate", candidate, "error", err)
			continue
		}
		if tag.TagIdentifier != descriptor.TAG_ANCHOR_VOLUME_POINTER ||
			tag.TagLocation != consts.UDF_ANCHOR_SECTOR {
			p.logger.Trace("probe tag is not an anchor",
				"candidate", candidate, "identifier", tag.TagIdentifier, "location", tag.TagLocation)
			continue
		}

		p.logger.Debug("detected sector size", "size", candidate)
		p.layout.SectorSize = int(candidate)
		p.layout.AnchorOffset = offset
		return candidate, nil
	}
	return 0, ErrSectorSizeUndetectable
}

// ReadAnchorDescriptor reads and validates the full Anchor Volume
// Descriptor Pointer at logical sector 256.
func (p *Parser) ReadAnchorDescriptor(sectorSize uint32) (*descriptor.AnchorVolumeDescriptorPointer, error) {
	offset := int64(sectorSize) * consts.UDF_ANCHOR_SECTOR
	buf := make([]byte, consts.UDF_ANCHOR_SIZE)
	if _, err := p.reader.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("failed to read anchor at byte %d: %w", offset, err)
	}

	anchor := &descriptor.AnchorVolumeDescriptorPointer{}
	if err := anchor.Unmarshal(buf); err != nil {
		return nil, err
	}
	p.logger.Debug("anchor read",
		"main_location", anchor.MainVolumeDescriptorSequence.Location,
		"main_length", anchor.MainVolumeDescriptorSequence.Length)
	return anchor, nil
}

// WalkDescriptorSequence iterates the Volume Descriptor Sequence starting
// at the anchor's main extent, capturing the most recently seen instance
// of each required descriptor kind. Sectors whose tag fails validation are
// skipped, not fatal: unused descriptor sectors are commonly zero-filled.
// The walk stops as soon as all four required kinds have been captured.
func (p *Parser) WalkDescriptorSequence(anchor *descriptor.AnchorVolumeDescriptorPointer, sectorSize uint32) (*descriptor.DescriptorSet, error) {
	set := descriptor.NewDescriptorSet()

	start := int64(anchor.MainVolumeDescriptorSequence.Location)
	extentSectors := int64(p.options.MaxDescriptorSectors)
	if extentSectors == 0 {
		extentSectors = DEFAULT_MAX_DESCRIPTOR_SECTORS
	}
	if length := anchor.MainVolumeDescriptorSequence.Length; length > 0 {
		extentSectors = (int64(length) + int64(sectorSize) - 1) / int64(sectorSize)
	}
	end := start + extentSectors
	if totalSectors := p.size / int64(sectorSize); end > totalSectors {
		end = totalSectors
	}

	tagBuf := make([]byte, consts.UDF_TAG_SIZE)
	for sector := start; sector < end && !set.Complete(); sector++ {
		offset := sector * int64(sectorSize)
		if _, err := p.reader.ReadAt(tagBuf, offset); err != nil {
			return nil, fmt.Errorf("failed to read descriptor tag at sector %d: %w", sector, err)
		}

		var tag descriptor.DescriptorTag
		if err := tag.Unmarshal(tagBuf); err != nil {
			// Unrecorded or damaged sector; move on.
			p.logger.Trace("skipping sector with invalid tag", "sector", sector, "error", err)
			continue
		}

		if err := p.dispatch(set, tag, sector, offset); err != nil {
			return nil, err
		}
	}

	if !set.Complete() {
		return nil, fmt.Errorf("%w: walked sectors %d..%d", ErrRequiredDescriptorsMissing, start, end)
	}
	return set, nil
}

// dispatch re-reads the full descriptor for a validated tag and stores it
// in the set. Valid tags of types the walk does not need are surfaced as
// diagnostics, never errors.
func (p *Parser) dispatch(set *descriptor.DescriptorSet, tag descriptor.DescriptorTag, sector int64, offset int64) error {
	buf := make([]byte, consts.UDF_DESCRIPTOR_SIZE)
	if _, err := p.reader.ReadAt(buf, offset); err != nil {
		return fmt.Errorf("failed to read descriptor at sector %d: %w", sector, err)
	}

	layoutName := tag.TagIdentifier.String()
	switch tag.TagIdentifier {
	case descriptor.TAG_PRIMARY_VOLUME:
		pvd := &descriptor.PrimaryVolumeDescriptor{}
		if err := pvd.Unmarshal(buf); err != nil {
			return err
		}
		set.Primary = pvd
	case descriptor.TAG_PARTITION:
		pd := &descriptor.PartitionDescriptor{}
		if err := pd.Unmarshal(buf); err != nil {
			return err
		}
		set.Partitions[pd.PartitionNumber] = pd
		layoutName = fmt.Sprintf("%s (partition %d)", layoutName, pd.PartitionNumber)
	case descriptor.TAG_LOGICAL_VOLUME:
		lvd := &descriptor.LogicalVolumeDescriptor{}
		if err := lvd.Unmarshal(buf); err != nil {
			return err
		}
		set.Logical = lvd
	case descriptor.TAG_TERMINATING:
		td := &descriptor.TerminatingDescriptor{}
		if err := td.Unmarshal(buf); err != nil {
			return err
		}
		set.Terminating = td
	default:
		p.logger.Debug("unexpected descriptor in sequence",
			"sector", sector, "identifier", tag.TagIdentifier.String())
		return nil
	}

	p.layout.AddDescriptor(layoutName, offset, consts.UDF_DESCRIPTOR_SIZE)
	return nil
}
