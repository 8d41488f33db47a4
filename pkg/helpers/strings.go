package helpers

import "strings"

// PadString returns s as a fixed-length byte field, truncated or padded
// with NUL bytes as needed.
func PadString(s string, length int) []byte {
	b := make([]byte, length)
	copy(b, s)
	return b
}

// TrimIdentifier strips the trailing NUL padding from a fixed-width
// identifier field. The raw bytes are preserved by the descriptor structs;
// this is presentation only.
func TrimIdentifier(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}

// DString decodes an OSTA compressed unicode dstring for display. The
// first byte selects the compression (8 or 16 bit code points) and the
// final byte holds the recorded length. Anything unrecognized is returned
// as trimmed raw bytes rather than guessed at.
func DString(b []byte) string {
	if len(b) < 2 {
		return ""
	}
	length := int(b[len(b)-1])
	if length == 0 || length > len(b)-1 {
		return TrimIdentifier(b[:len(b)-1])
	}
	compID := b[0]
	body := b[1:length]
	switch compID {
	case 8:
		return string(body)
	case 16:
		runes := make([]rune, 0, len(body)/2)
		for i := 0; i+1 < len(body); i += 2 {
			runes = append(runes, rune(uint16(body[i])<<8|uint16(body[i+1])))
		}
		return string(runes)
	default:
		return TrimIdentifier(b[:len(b)-1])
	}
}
