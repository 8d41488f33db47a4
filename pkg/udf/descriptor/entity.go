package descriptor

import (
	"bytes"
	"fmt"

	"github.com/bgrewell/udf-kit/pkg/consts"
	"github.com/bgrewell/udf-kit/pkg/helpers"
)

// EntityIdentifierKind records which role a regid plays in the descriptor
// it was read from. The on-disk layout is identical for all of them.
type EntityIdentifierKind int

const (
	// ENTITY_DOMAIN identifies the domain (rules set) a structure claims
	// compliance with, e.g. "*OSTA UDF Compliant".
	ENTITY_DOMAIN EntityIdentifierKind = iota
	// ENTITY_UDF identifies UDF-defined structures.
	ENTITY_UDF
	// ENTITY_IMPLEMENTATION identifies the implementation that recorded
	// the structure.
	ENTITY_IMPLEMENTATION
	// ENTITY_APPLICATION identifies the mastering application.
	ENTITY_APPLICATION
)

// EntityIdentifier is a 32 byte regid (ECMA-167 1/7.4).
type EntityIdentifier struct {
	// Kind is the usage context, assigned by the parser; it is not
	// recorded on disk.
	Kind EntityIdentifierKind `json:"-"`
	// Flags: bit 0 dirty, bit 1 protected.
	Flags uint8 `json:"flags"`
	// Identifier is a 23 byte identifier string, NUL padded.
	Identifier [consts.UDF_ENTITYID_IDENTIFIER_SIZE]byte `json:"identifier"`
	// Identifier Suffix carries structure version and OS class details.
	IdentifierSuffix [consts.UDF_ENTITYID_SUFFIX_SIZE]byte `json:"identifier_suffix"`
}

func (e *EntityIdentifier) Unmarshal(data []byte) error {
	if len(data) < consts.UDF_ENTITYID_SIZE {
		return fmt.Errorf("%w: entity identifier needs %d bytes, have %d",
			ErrTruncatedBuffer, consts.UDF_ENTITYID_SIZE, len(data))
	}
	e.Flags = data[0]
	copy(e.Identifier[:], data[1:24])
	copy(e.IdentifierSuffix[:], data[24:32])
	return nil
}

func (e *EntityIdentifier) Marshal() ([consts.UDF_ENTITYID_SIZE]byte, error) {
	var buf [consts.UDF_ENTITYID_SIZE]byte
	buf[0] = e.Flags
	copy(buf[1:24], e.Identifier[:])
	copy(buf[24:32], e.IdentifierSuffix[:])
	return buf, nil
}

// IdentifierString returns the identifier with NUL padding trimmed.
func (e *EntityIdentifier) IdentifierString() string {
	return helpers.TrimIdentifier(e.Identifier[:])
}

// IsOstaCompliant reports whether the identifier carries the OSTA UDF
// compliance marker. Only meaningful for ENTITY_DOMAIN identifiers.
func (e *EntityIdentifier) IsOstaCompliant() bool {
	return bytes.Contains(e.Identifier[:], []byte(consts.UDF_OSTA_COMPLIANT))
}
