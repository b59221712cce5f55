// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dicom

import "fmt"

// Tag is a unique identifier for an Attribute composed of an ordered pair of numbers called the
// group number and the element number as specified in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.
//
// The least significant 16 bits is the element number. The most significant 16 bits is the group
// number, so the natural uint32 order of tags is the (group, element) order.
type Tag uint32

// NewTag returns the Tag (group,element)
func NewTag(group, element uint16) Tag {
	return Tag(uint32(group)<<16 | uint32(element))
}

// GroupNumber returns the group number component of the Tag
func (t Tag) GroupNumber() uint16 {
	return uint16(t >> 16)
}

// ElementNumber returns the element number component of the Tag
func (t Tag) ElementNumber() uint16 {
	return uint16(t & 0xFFFF)
}

// IsMetaElement is true if and only if the Attribute belongs to the File Meta Information group
func (t Tag) IsMetaElement() bool {
	return t.GroupNumber() == 0x0002
}

// IsPrivate is true if and only if the group number is odd
func (t Tag) IsPrivate() bool {
	return t.GroupNumber()%2 == 1
}

// IsPrivateCreator is true for the (gggg,0010-00FF) private creator elements of an odd group.
func (t Tag) IsPrivateCreator() bool {
	return t.IsPrivate() && t.ElementNumber() >= 0x0010 && t.ElementNumber() <= 0x00FF
}

// PrivateCreatorTag returns the tag of the private creator element reserving the block that t
// belongs to. For example (0029,1010) is reserved by (0029,0010).
func (t Tag) PrivateCreatorTag() Tag {
	return NewTag(t.GroupNumber(), t.ElementNumber()>>8)
}

// IsGroupLength is true for (gggg,0000) elements
func (t Tag) IsGroupLength() bool {
	return t.ElementNumber() == 0
}

// IsDelimiter is true for the item and delimitation tags of group FFFE
func (t Tag) IsDelimiter() bool {
	return t == ItemTag || t == ItemDelimitationItemTag || t == SequenceDelimitationItemTag
}

// Compare returns -1, 0 or 1 depending on whether t sorts before, equal to or after other.
func (t Tag) Compare(other Tag) int {
	switch {
	case t < other:
		return -1
	case t > other:
		return 1
	}
	return 0
}

func (t Tag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.GroupNumber(), t.ElementNumber())
}

// Tags used by the codec itself. Everything else is looked up through a Dictionary.
const (
	FileMetaInformationGroupLengthTag Tag = 0x00020000
	FileMetaInformationVersionTag     Tag = 0x00020001
	MediaStorageSOPClassUIDTag        Tag = 0x00020002
	MediaStorageSOPInstanceUIDTag     Tag = 0x00020003
	TransferSyntaxUIDTag              Tag = 0x00020010
	ImplementationClassUIDTag         Tag = 0x00020012
	ImplementationVersionNameTag      Tag = 0x00020013

	SpecificCharacterSetTag Tag = 0x00080005
	SOPClassUIDTag          Tag = 0x00080016
	SOPInstanceUIDTag       Tag = 0x00080018
	PatientNameTag          Tag = 0x00100010
	PatientIDTag            Tag = 0x00100020
	PatientBirthDateTag     Tag = 0x00100030
	PatientAgeTag           Tag = 0x00101010

	SamplesPerPixelTag           Tag = 0x00280002
	PhotometricInterpretationTag Tag = 0x00280004
	PlanarConfigurationTag       Tag = 0x00280006
	NumberOfFramesTag            Tag = 0x00280008
	RowsTag                      Tag = 0x00280010
	ColumnsTag                   Tag = 0x00280011
	BitsAllocatedTag             Tag = 0x00280100
	BitsStoredTag                Tag = 0x00280101
	HighBitTag                   Tag = 0x00280102
	PixelRepresentationTag       Tag = 0x00280103

	FloatPixelDataTag       Tag = 0x7FE00008
	DoubleFloatPixelDataTag Tag = 0x7FE00009
	PixelDataTag            Tag = 0x7FE00010

	ItemTag                     Tag = 0xFFFEE000
	ItemDelimitationItemTag     Tag = 0xFFFEE00D
	SequenceDelimitationItemTag Tag = 0xFFFEE0DD
)

// isPixelDataTag is true for the tags that may carry encapsulated pixel data
func isPixelDataTag(t Tag) bool {
	return t == PixelDataTag || t == FloatPixelDataTag || t == DoubleFloatPixelDataTag
}
