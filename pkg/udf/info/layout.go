package info

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/fatih/color"
)

// VolumeStructureInfo records one entry of the Volume Recognition Sequence.
type VolumeStructureInfo struct {
	StandardIdentifier string `json:"standard_identifier"`
	StructureType      int    `json:"structure_type"`
	StructureOffset    int64  `json:"structure_offset"`
}

// DescriptorInfo records a structural descriptor observed while walking
// the Volume Descriptor Sequence.
type DescriptorInfo struct {
	DescriptorType   string `json:"descriptor_type"`
	DescriptorOffset int64  `json:"descriptor_offset"`
	DescriptorLength int    `json:"descriptor_length"`
	Superseded       bool   `json:"superseded"`
}

// PartitionInfo records a resolved physical partition byte range.
type PartitionInfo struct {
	PartitionReference int    `json:"partition_reference"`
	PartitionNumber    int    `json:"partition_number"`
	ByteStart          int64  `json:"byte_start"`
	ByteLength         int64  `json:"byte_length"`
	MapType            string `json:"map_type"`
}

// UDFLayout is a byte-accurate account of where the structural metadata of
// the volume lives, built up as a side effect of parsing.
type UDFLayout struct {
	SectorSize       int                    `json:"sector_size"`
	AnchorOffset     int64                  `json:"anchor_offset"`
	VolumeStructures []*VolumeStructureInfo `json:"volume_structures"`
	Descriptors      []*DescriptorInfo      `json:"descriptors"`
	Partitions       []*PartitionInfo       `json:"partitions"`
	FileSetOffset    int64                  `json:"file_set_offset"`
	FileSetLength    int64                  `json:"file_set_length"`
}

func NewUDFLayout() *UDFLayout {
	return &UDFLayout{
		VolumeStructures: make([]*VolumeStructureInfo, 0),
		Descriptors:      make([]*DescriptorInfo, 0),
		Partitions:       make([]*PartitionInfo, 0),
	}
}

// AddVolumeStructure appends a recognition area entry, kept sorted by
// offset.
func (l *UDFLayout) AddVolumeStructure(identifier string, structureType int, offset int64) {
	l.VolumeStructures = append(l.VolumeStructures, &VolumeStructureInfo{
		StandardIdentifier: identifier,
		StructureType:      structureType,
		StructureOffset:    offset,
	})
	slices.SortFunc(l.VolumeStructures, func(a, b *VolumeStructureInfo) int {
		return int(a.StructureOffset - b.StructureOffset)
	})
}

// AddDescriptor appends a walked descriptor. When an earlier descriptor of
// the same type exists it is marked superseded, matching the sequence
// walker's most-recent-wins capture.
func (l *UDFLayout) AddDescriptor(descriptorType string, offset int64, length int) {
	for _, d := range l.Descriptors {
		if d.DescriptorType == descriptorType {
			d.Superseded = true
		}
	}
	l.Descriptors = append(l.Descriptors, &DescriptorInfo{
		DescriptorType:   descriptorType,
		DescriptorOffset: offset,
		DescriptorLength: length,
	})
	slices.SortFunc(l.Descriptors, func(a, b *DescriptorInfo) int {
		return int(a.DescriptorOffset - b.DescriptorOffset)
	})
}

// AddPartition appends a resolved partition byte range.
func (l *UDFLayout) AddPartition(reference int, number int, byteStart int64, byteLength int64, mapType string) {
	l.Partitions = append(l.Partitions, &PartitionInfo{
		PartitionReference: reference,
		PartitionNumber:    number,
		ByteStart:          byteStart,
		ByteLength:         byteLength,
		MapType:            mapType,
	})
	slices.SortFunc(l.Partitions, func(a, b *PartitionInfo) int {
		return a.PartitionReference - b.PartitionReference
	})
}

// PrettyJSON returns an indented JSON rendering of the layout.
func (l *UDFLayout) PrettyJSON() string {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error generating JSON: %v", err)
	}
	return string(data)
}

// Print writes a human-readable layout table to w.
func (l *UDFLayout) Print(w io.Writer, useColor bool) {
	heading := color.New(color.FgYellow, color.Bold).SprintFunc()
	value := color.New(color.FgGreen).SprintFunc()
	if !useColor {
		heading = func(a ...interface{}) string { return fmt.Sprint(a...) }
		value = heading
	}

	fmt.Fprintf(w, "%s %s\n", heading("Sector size:"), value(l.SectorSize))
	fmt.Fprintf(w, "%s %s\n", heading("Anchor offset:"), value(l.AnchorOffset))

	if len(l.VolumeStructures) > 0 {
		fmt.Fprintln(w, heading("Volume recognition sequence:"))
		for _, vs := range l.VolumeStructures {
			fmt.Fprintf(w, "  %-10d %s (type %d)\n", vs.StructureOffset, vs.StandardIdentifier, vs.StructureType)
		}
	}

	fmt.Fprintln(w, heading("Volume descriptor sequence:"))
	for _, d := range l.Descriptors {
		note := ""
		if d.Superseded {
			note = " (superseded)"
		}
		fmt.Fprintf(w, "  %-10d %s%s\n", d.DescriptorOffset, d.DescriptorType, note)
	}

	if len(l.Partitions) > 0 {
		fmt.Fprintln(w, heading("Partitions:"))
		for _, p := range l.Partitions {
			fmt.Fprintf(w, "  ref %d -> partition %d, bytes %d..%d (%s)\n",
				p.PartitionReference, p.PartitionNumber, p.ByteStart, p.ByteStart+p.ByteLength, p.MapType)
		}
	}

	if l.FileSetLength > 0 {
		fmt.Fprintf(w, "%s bytes %s..%s\n", heading("File set descriptor:"),
			value(l.FileSetOffset), value(l.FileSetOffset+l.FileSetLength))
	}
}
