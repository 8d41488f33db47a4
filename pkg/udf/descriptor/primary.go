package descriptor

import (
	"fmt"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/encoding"
	"github.com/bgrewell/udf-kit/pkg/helpers"
)

// PrimaryVolumeDescriptor carries the volume-level identification fields
// (ECMA-167 3/10.1). Identifier fields are kept as the raw recorded bytes;
// dstring decoding is presentation only.
type PrimaryVolumeDescriptor struct {
	// Descriptor Tag with identifier TAG_PRIMARY_VOLUME.
	Tag DescriptorTag `json:"tag"`
	// Volume Descriptor Sequence Number orders descriptors within the
	// sequence; higher numbers supersede lower ones.
	VolumeDescriptorSequenceNumber uint32 `json:"volume_descriptor_sequence_number"`
	// Primary Volume Descriptor Number.
	PrimaryVolumeDescriptorNumber uint32 `json:"primary_volume_descriptor_number"`
	// Volume Identifier, a 32 byte dstring.
	VolumeIdentifier [32]byte `json:"volume_identifier"`
	// Volume Sequence Number of this volume within the volume set.
	VolumeSequenceNumber uint16 `json:"volume_sequence_number"`
	// Maximum Volume Sequence Number in the volume set.
	MaximumVolumeSequenceNumber uint16 `json:"maximum_volume_sequence_number"`
	// Interchange Level of this volume.
	InterchangeLevel uint16 `json:"interchange_level"`
	// Maximum Interchange Level the volume may be modified at.
	MaximumInterchangeLevel uint16 `json:"maximum_interchange_level"`
	// Character Set List supported by the implementation.
	CharacterSetList uint32 `json:"character_set_list"`
	// Maximum Character Set List.
	MaximumCharacterSetList uint32 `json:"maximum_character_set_list"`
	// Volume Set Identifier, a 128 byte dstring.
	VolumeSetIdentifier [128]byte `json:"volume_set_identifier"`
	// Volume Abstract extent.
	VolumeAbstract ExtentDescriptor `json:"volume_abstract"`
	// Volume Copyright Notice extent.
	VolumeCopyrightNotice ExtentDescriptor `json:"volume_copyright_notice"`
	// Application Identifier regid.
	ApplicationIdentifier EntityIdentifier `json:"application_identifier"`
	// Recording Date and Time, kept as the raw 12 byte timestamp.
	RecordingDateAndTime [12]byte `json:"recording_date_and_time"`
	// Implementation Identifier regid.
	ImplementationIdentifier EntityIdentifier `json:"implementation_identifier"`
	// Implementation Use bytes.
	ImplementationUse [64]byte `json:"implementation_use"`
	// Predecessor Volume Descriptor Sequence Location.
	PredecessorVolumeDescriptorSequenceLocation uint32 `json:"predecessor_volume_descriptor_sequence_location"`
	// Flags: bit 0 indicates the Volume Set Identifier is common to the
	// whole volume set.
	Flags uint16 `json:"flags"`
}

// Unmarshal parses the fixed 512 byte layout. The tag must already have
// been validated by the sequence walker; it is re-parsed here so the
// descriptor is self-contained.
func (pvd *PrimaryVolumeDescriptor) Unmarshal(data []byte) error {
	if len(data) < consts.UDF_DESCRIPTOR_SIZE {
		return fmt.Errorf("%w: primary volume descriptor needs %d bytes, have %d",
			ErrTruncatedBuffer, consts.UDF_DESCRIPTOR_SIZE, len(data))
	}
	if err := pvd.Tag.Unmarshal(data); err != nil {
		return err
	}
	if pvd.Tag.TagIdentifier != TAG_PRIMARY_VOLUME {
		return fmt.Errorf("%w: got %s, want %s",
			ErrUnexpectedTag, pvd.Tag.TagIdentifier, TAG_PRIMARY_VOLUME)
	}

	pvd.VolumeDescriptorSequenceNumber, _ = encoding.ReadUint32(data, 16)
	pvd.PrimaryVolumeDescriptorNumber, _ = encoding.ReadUint32(data, 20)
	copy(pvd.VolumeIdentifier[:], data[24:56])
	pvd.VolumeSequenceNumber, _ = encoding.ReadUint16(data, 56)
	pvd.MaximumVolumeSequenceNumber, _ = encoding.ReadUint16(data, 58)
	pvd.InterchangeLevel, _ = encoding.ReadUint16(data, 60)
	pvd.MaximumInterchangeLevel, _ = encoding.ReadUint16(data, 62)
	pvd.CharacterSetList, _ = encoding.ReadUint32(data, 64)
	pvd.MaximumCharacterSetList, _ = encoding.ReadUint32(data, 68)
	copy(pvd.VolumeSetIdentifier[:], data[72:200])
	if err := pvd.VolumeAbstract.Unmarshal(data[328:336]); err != nil {
		return err
	}
	if err := pvd.VolumeCopyrightNotice.Unmarshal(data[336:344]); err != nil {
		return err
	}
	if err := pvd.ApplicationIdentifier.Unmarshal(data[344:376]); err != nil {
		return err
	}
	pvd.ApplicationIdentifier.Kind = ENTITY_APPLICATION
	copy(pvd.RecordingDateAndTime[:], data[376:388])
	if err := pvd.ImplementationIdentifier.Unmarshal(data[388:420]); err != nil {
		return err
	}
	pvd.ImplementationIdentifier.Kind = ENTITY_IMPLEMENTATION
	copy(pvd.ImplementationUse[:], data[420:484])
	pvd.PredecessorVolumeDescriptorSequenceLocation, _ = encoding.ReadUint32(data, 484)
	pvd.Flags, _ = encoding.ReadUint16(data, 488)
	return nil
}

// Marshal produces the fixed 512 byte layout with a recomputed tag
// checksum. Character set fields not modeled here are left zero-filled.
func (pvd *PrimaryVolumeDescriptor) Marshal() ([consts.UDF_DESCRIPTOR_SIZE]byte, error) {
	var buf [consts.UDF_DESCRIPTOR_SIZE]byte
	tag := pvd.Tag
	tag.TagIdentifier = TAG_PRIMARY_VOLUME
	tagBytes, err := tag.Marshal()
	if err != nil {
		return buf, err
	}
	copy(buf[0:16], tagBytes[:])
	encoding.PutUint32(buf[:], 16, pvd.VolumeDescriptorSequenceNumber)
	encoding.PutUint32(buf[:], 20, pvd.PrimaryVolumeDescriptorNumber)
	copy(buf[24:56], pvd.VolumeIdentifier[:])
	encoding.PutUint16(buf[:], 56, pvd.VolumeSequenceNumber)
	encoding.PutUint16(buf[:], 58, pvd.MaximumVolumeSequenceNumber)
	encoding.PutUint16(buf[:], 60, pvd.InterchangeLevel)
	encoding.PutUint16(buf[:], 62, pvd.MaximumInterchangeLevel)
	encoding.PutUint32(buf[:], 64, pvd.CharacterSetList)
	encoding.PutUint32(buf[:], 68, pvd.MaximumCharacterSetList)
	copy(buf[72:200], pvd.VolumeSetIdentifier[:])
	abstract, _ := pvd.VolumeAbstract.Marshal()
	copy(buf[328:336], abstract[:])
	copyright, _ := pvd.VolumeCopyrightNotice.Marshal()
	copy(buf[336:344], copyright[:])
	app, _ := pvd.ApplicationIdentifier.Marshal()
	copy(buf[344:376], app[:])
	copy(buf[376:388], pvd.RecordingDateAndTime[:])
	impl, _ := pvd.ImplementationIdentifier.Marshal()
	copy(buf[388:420], impl[:])
	copy(buf[420:484], pvd.ImplementationUse[:])
	encoding.PutUint32(buf[:], 484, pvd.PredecessorVolumeDescriptorSequenceLocation)
	encoding.PutUint16(buf[:], 488, pvd.Flags)
	return buf, nil
}

// VolumeIdentifierString returns the decoded volume identifier dstring.
func (pvd *PrimaryVolumeDescriptor) VolumeIdentifierString() string {
	return helpers.DString(pvd.VolumeIdentifier[:])
}

// VolumeSetIdentifierString returns the decoded volume set identifier
// dstring.
func (pvd *PrimaryVolumeDescriptor) VolumeSetIdentifierString() string {
	return helpers.DString(pvd.VolumeSetIdentifier[:])
}
