package recognition

import (
	"io"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/logging"
)

// VolumeStructureDescriptor is one entry of the Volume Recognition
// Sequence (ECMA-167 2/9.1): a structure type byte, a 5 byte standard
// identifier and a version byte, followed by type-specific data.
type VolumeStructureDescriptor struct {
	StructureType      uint8  `json:"structure_type"`
	StandardIdentifier string `json:"standard_identifier"`
	StructureVersion   uint8  `json:"structure_version"`
}

// Result describes what the recognition scan observed.
type Result struct {
	// Recognized is true when the extended area carried a beginning
	// marker, an NSR marker and a terminating marker.
	Recognized bool
	// Descriptors holds every structure inspected, in on-disk order.
	Descriptors []VolumeStructureDescriptor
}

// Scan reads the Volume Recognition Sequence starting at byte 32768 in
// 2048 byte steps. The scan ends at a short read or at the first
// identifier outside the known set; the latter also marks the volume as
// foreign. BOOT2, CD001 and CDW02 structures may legally share the area
// and are passed over.
func Scan(reader io.ReaderAt, size int64, logger *logging.Logger) (*Result, error) {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	result := &Result{}

	const sectorSize = consts.UDF_VOLUME_RECOGNITION_SECTOR_SIZE
	if size < consts.UDF_VOLUME_RECOGNITION_OFFSET+sectorSize {
		logger.Debug("image too small for a volume recognition sequence", "size", size)
		return result, nil
	}

	var seenBEA, seenNSR, seenTEA bool
	buf := make([]byte, sectorSize)
	offset := int64(consts.UDF_VOLUME_RECOGNITION_OFFSET)

scan:
	for {
		n, err := reader.ReadAt(buf, offset)
		if n < sectorSize {
			if err != nil && err != io.EOF {
				return nil, err
			}
			break
		}

		vsd := VolumeStructureDescriptor{
			StructureType:      buf[0],
			StandardIdentifier: string(buf[1:6]),
			StructureVersion:   buf[6],
		}
		result.Descriptors = append(result.Descriptors, vsd)
		logger.Trace("volume structure descriptor",
			"offset", offset, "identifier", vsd.StandardIdentifier, "type", vsd.StructureType)

		switch vsd.StandardIdentifier {
		case consts.UDF_BEA_IDENTIFIER:
			seenBEA = true
		case consts.UDF_NSR02_IDENTIFIER, consts.UDF_NSR03_IDENTIFIER:
			seenNSR = true
		case consts.UDF_TEA_IDENTIFIER:
			seenTEA = true
		case consts.UDF_BOOT_IDENTIFIER, consts.ISO9660_STD_IDENTIFIER, consts.ECMA168_STD_IDENTIFIER:
			// Benign cohabitants of the recognition area.
		default:
			logger.Debug("unknown volume structure identifier ends scan",
				"identifier", vsd.StandardIdentifier)
			break scan
		}

		offset += sectorSize
	}

	result.Recognized = seenBEA && seenNSR && seenTEA
	return result, nil
}
