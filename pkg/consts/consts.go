package consts

const (
	// Size of the empty system area preceding the Volume Recognition Sequence.
	UDF_VOLUME_RECOGNITION_OFFSET = 32768

	// The Volume Recognition Sequence is always recorded in 2048 byte
	// sectors, regardless of the logical sector size used by the rest of
	// the volume.
	UDF_VOLUME_RECOGNITION_SECTOR_SIZE = 2048

	// Logical sector number at which the Anchor Volume Descriptor Pointer
	// is recorded.
	UDF_ANCHOR_SECTOR = 256

	// Size of a Descriptor Tag.
	UDF_TAG_SIZE = 16

	// Size of the fixed portion of a structural descriptor.
	UDF_DESCRIPTOR_SIZE = 512

	// Size of an Anchor Volume Descriptor Pointer, including the reserved
	// trailing bytes.
	UDF_ANCHOR_SIZE = 512

	// Volume structure standard identifiers recorded in the Volume
	// Recognition Sequence.
	UDF_BEA_IDENTIFIER   = "BEA01"
	UDF_NSR02_IDENTIFIER = "NSR02"
	UDF_NSR03_IDENTIFIER = "NSR03"
	UDF_TEA_IDENTIFIER   = "TEA01"

	// Volume structure identifiers that may legally share the recognition
	// area with the UDF markers.
	UDF_BOOT_IDENTIFIER    = "BOOT2"
	ISO9660_STD_IDENTIFIER = "CD001"
	ECMA168_STD_IDENTIFIER = "CDW02"

	// Compliance marker required in the Logical Volume Descriptor's domain
	// identifier (OSTA UDF 2.1.5.2).
	UDF_OSTA_COMPLIANT = "*OSTA UDF Compliant"

	// Entity Identifier field sizes.
	UDF_ENTITYID_SIZE            = 32
	UDF_ENTITYID_IDENTIFIER_SIZE = 23
	UDF_ENTITYID_SUFFIX_SIZE     = 8

	// Offset of the partition map table within a Logical Volume Descriptor.
	UDF_LVD_PARTITION_MAPS_OFFSET = 440
)

// SectorSizeCandidates are the logical sector sizes probed during
// detection, largest first. A too-small guess can land on unrelated bytes
// that happen to checksum, so larger candidates must be probed before
// smaller ones.
var SectorSizeCandidates = []uint32{4096, 2048, 1024, 512}
