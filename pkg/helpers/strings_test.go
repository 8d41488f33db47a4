package helpers

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func TestPadString(t *testing.T) {
	b := PadString("NSR", 5)
	require.Equal(t, []byte{'N', 'S', 'R', 0, 0}, b)

	b = PadString("TOOLONG", 4)
	require.Equal(t, []byte("TOOL"), b)
}

func TestTrimIdentifier(t *testing.T) {
	require.Equal(t, "*OSTA UDF Compliant", TrimIdentifier([]byte("*OSTA UDF Compliant\x00\x00\x00\x00")))
	require.Equal(t, "", TrimIdentifier([]byte{0, 0, 0}))
}

func TestDString(t *testing.T) {
	t.Run("8-bit compression", func(t *testing.T) {
		raw := make([]byte, 32)
		raw[0] = 8
		copy(raw[1:], "MYVOLUME")
		raw[31] = 9 // comp id + 8 characters
		require.Equal(t, "MYVOLUME", DString(raw))
	})

	t.Run("16-bit compression", func(t *testing.T) {
		raw := make([]byte, 12)
		raw[0] = 16
		copy(raw[1:], []byte{0x00, 'A', 0x00, 'B'})
		raw[11] = 5
		require.Equal(t, "AB", DString(raw))
	})

	t.Run("zero length", func(t *testing.T) {
		raw := make([]byte, 8)
		require.Equal(t, "", DString(raw))
	})
}
