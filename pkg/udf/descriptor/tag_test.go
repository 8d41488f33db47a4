package descriptor

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func validTagBytes(t *testing.T) []byte {
	t.Helper()
	tag := DescriptorTag{
		TagIdentifier:       TAG_ANCHOR_VOLUME_POINTER,
		DescriptorVersion:   2,
		TagSerialNumber:     1,
		DescriptorCRC:       0x1234,
		DescriptorCRCLength: 496,
		TagLocation:         256,
	}
	buf, err := tag.Marshal()
	require.NoError(t, err)
	return buf[:]
}

func TestDescriptorTagRoundTrip(t *testing.T) {
	data := validTagBytes(t)

	var tag DescriptorTag
	require.NoError(t, tag.Unmarshal(data))
	require.Equal(t, TAG_ANCHOR_VOLUME_POINTER, tag.TagIdentifier)
	require.Equal(t, uint16(2), tag.DescriptorVersion)
	require.Equal(t, uint16(1), tag.TagSerialNumber)
	require.Equal(t, uint16(0x1234), tag.DescriptorCRC)
	require.Equal(t, uint16(496), tag.DescriptorCRCLength)
	require.Equal(t, uint32(256), tag.TagLocation)
}

func TestDescriptorTagChecksumMutation(t *testing.T) {
	// Flipping any byte other than the checksum byte itself must change
	// the computed sum. Adding 1 can never cancel out in an 8-bit sum.
	for i := 0; i < 16; i++ {
		if i == 4 {
			continue
		}
		data := validTagBytes(t)
		data[i]++

		var tag DescriptorTag
		err := tag.Unmarshal(data)
		require.Error(t, err, "mutated byte %d should fail validation", i)
	}
}

func TestDescriptorTagTruncated(t *testing.T) {
	var tag DescriptorTag
	err := tag.Unmarshal(make([]byte, 15))
	require.ErrorIs(t, err, ErrTruncatedBuffer)
}

func TestDescriptorTagZeroIdentifier(t *testing.T) {
	var tag DescriptorTag
	err := tag.Unmarshal(make([]byte, 16))
	require.ErrorIs(t, err, ErrUnknownTagIdentifier)
}

func TestDescriptorTagReservedByte(t *testing.T) {
	for _, reserved := range []byte{1, 0x7F, 0xFF} {
		data := validTagBytes(t)
		data[5] = reserved
		// Keep the checksum consistent so only the reserved check fires.
		data[4] += reserved

		var tag DescriptorTag
		err := tag.Unmarshal(data)
		require.ErrorIs(t, err, ErrReservedFieldNonZero)
	}
}

func TestDescriptorTagChecksumMismatch(t *testing.T) {
	data := validTagBytes(t)
	data[4] ^= 0xFF

	var tag DescriptorTag
	err := tag.Unmarshal(data)
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestTagIdentifierString(t *testing.T) {
	require.Equal(t, "Anchor Volume Descriptor Pointer", TAG_ANCHOR_VOLUME_POINTER.String())
	require.Equal(t, "File Set Descriptor", TAG_FILE_SET.String())
	require.Contains(t, TagIdentifier(999).String(), "999")
}
