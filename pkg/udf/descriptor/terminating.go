package descriptor

import (
	"fmt"

	"github.com/bgrewell/udf-kit/pkg/consts"
)

// TerminatingDescriptor marks the end of the Volume Descriptor Sequence
// (ECMA-167 3/10.9). The body is reserved.
type TerminatingDescriptor struct {
	// Descriptor Tag with identifier TAG_TERMINATING.
	Tag DescriptorTag `json:"tag"`
}

func (td *TerminatingDescriptor) Unmarshal(data []byte) error {
	if len(data) < consts.UDF_DESCRIPTOR_SIZE {
		return fmt.Errorf("%w: terminating descriptor needs %d bytes, have %d",
			ErrTruncatedBuffer, consts.UDF_DESCRIPTOR_SIZE, len(data))
	}
	if err := td.Tag.Unmarshal(data); err != nil {
		return err
	}
	if td.Tag.TagIdentifier != TAG_TERMINATING {
		return fmt.Errorf("%w: got %s, want %s",
			ErrUnexpectedTag, td.Tag.TagIdentifier, TAG_TERMINATING)
	}
	return nil
}

func (td *TerminatingDescriptor) Marshal() ([consts.UDF_DESCRIPTOR_SIZE]byte, error) {
	var buf [consts.UDF_DESCRIPTOR_SIZE]byte
	tag := td.Tag
	tag.TagIdentifier = TAG_TERMINATING
	tagBytes, err := tag.Marshal()
	if err != nil {
		return buf, err
	}
	copy(buf[0:16], tagBytes[:])
	return buf, nil
}
