package descriptor

// DescriptorSet accumulates the descriptors captured while walking a
// Volume Descriptor Sequence. The sequence may contain superseding
// revisions, so each store keeps the most recently seen instance.
// Partition Descriptors are keyed by partition number; a volume may carry
// more than one.
type DescriptorSet struct {
	Primary     *PrimaryVolumeDescriptor
	Partitions  map[uint16]*PartitionDescriptor
	Logical     *LogicalVolumeDescriptor
	Terminating *TerminatingDescriptor
}

func NewDescriptorSet() *DescriptorSet {
	return &DescriptorSet{
		Partitions: make(map[uint16]*PartitionDescriptor),
	}
}

// Complete reports whether all four required descriptor kinds have been
// captured.
func (s *DescriptorSet) Complete() bool {
	return s.Primary != nil && len(s.Partitions) > 0 && s.Logical != nil && s.Terminating != nil
}
