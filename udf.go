package udf

import (
	"fmt"
	"os"

	"github.com/bgrewell/udf-kit/pkg/option"
	volume "github.com/bgrewell/udf-kit/pkg/udf"
	"github.com/bgrewell/udf-kit/pkg/udf/descriptor"
	"github.com/bgrewell/udf-kit/pkg/udf/info"
	"github.com/bgrewell/udf-kit/pkg/udf/partition"
)

// Open opens an existing UDF image file and resolves its volume metadata.
func Open(location string, opts ...option.OpenOption) (Image, error) {
	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %q: %w", location, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat image %q: %w", location, err)
	}

	u, err := volume.Open(f, fi.Size(), opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileImage{UDF: u, file: f}, nil
}

// Image represents an opened UDF image
type Image interface {
	Parse() error
	Parsed() bool
	Close() error
	SectorSize() uint32
	GetVolumeID() string
	GetVolumeSetID() string
	GetLogicalVolumeID() string
	GetApplicationID() string
	GetImplementationID() string
	PartitionStart(reference uint16) (uint64, error)
	FileSetDescriptorExtent() partition.ByteExtent
	ResolveExtent(ad descriptor.LongAllocationDescriptor) (partition.ByteExtent, error)
	Metadata() *volume.VolumeMetadata
	GetLayout() *info.UDFLayout
}

// fileImage adds file ownership on top of the volume reader.
type fileImage struct {
	*volume.UDF
	file *os.File
}

func (i *fileImage) Close() error {
	return i.file.Close()
}
