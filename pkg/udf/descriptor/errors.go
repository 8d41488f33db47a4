package descriptor

import "errors"

var (
	// ErrTruncatedBuffer indicates fewer bytes were available than the
	// descriptor's fixed layout requires.
	ErrTruncatedBuffer = errors.New("buffer too short for descriptor")

	// ErrUnknownTagIdentifier indicates a Descriptor Tag whose identifier
	// field is zero.
	ErrUnknownTagIdentifier = errors.New("unknown tag identifier")

	// ErrUnexpectedTag indicates a structurally valid tag of the wrong
	// type for the location it was read from.
	ErrUnexpectedTag = errors.New("unexpected tag identifier")

	// ErrChecksumMismatch indicates the computed tag checksum does not
	// match the recorded one.
	ErrChecksumMismatch = errors.New("tag checksum mismatch")

	// ErrReservedFieldNonZero indicates a reserved field that must be
	// zero-filled was not.
	ErrReservedFieldNonZero = errors.New("reserved field is not zero")
)
