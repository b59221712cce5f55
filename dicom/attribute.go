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

import (
	"errors"
	"fmt"
)

// Attribute models a DICOM Data Element as defined in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1
//
// There is one implementation per structural class of VR: *StringAttribute, *NumericAttribute,
// *TagAttribute, *OtherAttribute, *EncapsulatedPixelData and *SequenceAttribute. The VR of an
// Attribute is fixed when it is created.
type Attribute interface {
	Tag() Tag
	VR() *VR

	// ValueLength is the length in bytes of the encoded value field without padding, or
	// UndefinedLength for sequences and encapsulated pixel data
	ValueLength() uint32

	// PaddedValueLength is ValueLength rounded up to an even number of bytes
	PaddedValueLength() uint32

	// VM is the number of values. Other-binary VRs have a VM of 1 when they have a value.
	VM() int

	// IsCharacterInValueValid reports whether r may appear in a value of this VR
	IsCharacterInValueValid(r rune) bool

	// AreValuesWellFormed checks the structure of the values beyond character validity
	AreValuesWellFormed() bool

	// RepairValues strips or trims disallowed content as permitted by the VR and reports whether
	// the values are now well formed. It never invents values.
	RepairValues() bool

	// RemoveValues releases the values, leaving an empty attribute of the same tag and VR
	RemoveValues()

	ByteValues() ([]byte, error)
	ShortValues() ([]uint16, error)
	FloatValues() ([]float32, error)
	StringValues() ([]string, error)

	String() string

	// write encodes the attribute header and value field
	write(dw *dcmWriter, syntax *TransferSyntax, cs *SpecificCharacterSet) error
}

// ErrValueDeferred is returned when the value of an attribute read with deferred bulk data is
// accessed before Materialize has been called
var ErrValueDeferred = errors.New("value has not been read from the source yet")

type attributeBase struct {
	tag Tag
	vr  *VR
}

func (a *attributeBase) Tag() Tag {
	return a.tag
}

func (a *attributeBase) VR() *VR {
	return a.vr
}

func (a *attributeBase) wrongType(want string) error {
	return fmt.Errorf("%v %v: values are not available as %s", a.tag, a.vr, want)
}

func (a *attributeBase) ByteValues() ([]byte, error) {
	return nil, a.wrongType("bytes")
}

func (a *attributeBase) ShortValues() ([]uint16, error) {
	return nil, a.wrongType("shorts")
}

func (a *attributeBase) FloatValues() ([]float32, error) {
	return nil, a.wrongType("floats")
}

func (a *attributeBase) StringValues() ([]string, error) {
	return nil, a.wrongType("strings")
}

func (a *attributeBase) encodingError(format string, args ...interface{}) *EncodingError {
	return &EncodingError{a.tag, a.vr, fmt.Sprintf(format, args...)}
}

func paddedLength(length uint32) uint32 {
	if length == UndefinedLength || length%2 == 0 {
		return length
	}
	return length + 1
}

// writeHeader writes the tag, VR (explicit syntaxes only) and value length of an attribute
func writeHeader(dw *dcmWriter, syntax *TransferSyntax, tag Tag, vr *VR, length uint32) error {
	if err := dw.Tag(syntax.ByteOrder, tag); err != nil {
		return fmt.Errorf("writing tag: %w", err)
	}
	if err := syntax.writeVR(dw, vr); err != nil {
		return fmt.Errorf("writing VR: %w", err)
	}
	if err := syntax.writeValueLength(dw, vr, length); err != nil {
		return fmt.Errorf("writing length: %w", err)
	}
	return nil
}

// NewAttribute creates an empty Attribute of the variant that represents vr
func NewAttribute(tag Tag, vr *VR) (Attribute, error) {
	if vr == nil {
		return nil, fmt.Errorf("creating attribute %v: missing VR", tag)
	}
	switch vr.kind {
	case textVR, uniqueIdentifierVR:
		return NewStringAttribute(tag, vr), nil
	case numberBinaryVR:
		return newNumericAttributeForVR(tag, vr)
	case bulkDataVR:
		return NewOtherAttribute(tag, vr), nil
	case sequenceVR:
		return NewSequenceAttribute(tag), nil
	case tagVR:
		return NewTagAttribute(tag), nil
	}
	return nil, fmt.Errorf("unknown vr kind found: %v", vr.kind)
}

// NewAttributeFromDictionary creates an empty Attribute with the VR the dictionary gives for tag
func NewAttributeFromDictionary(tag Tag, dict Dictionary) (Attribute, error) {
	vr := dict.VR(tag, "")
	if vr == nil {
		return nil, fmt.Errorf("no VR for %v", tag)
	}
	return NewAttribute(tag, vr)
}

func newNumericAttributeForVR(tag Tag, vr *VR) (Attribute, error) {
	switch vr {
	case SSVR:
		return NewNumericAttribute[int16](tag), nil
	case USVR:
		return NewNumericAttribute[uint16](tag), nil
	case SLVR:
		return NewNumericAttribute[int32](tag), nil
	case ULVR:
		return NewNumericAttribute[uint32](tag), nil
	case SVVR:
		return NewNumericAttribute[int64](tag), nil
	case UVVR:
		return NewNumericAttribute[uint64](tag), nil
	case FLVR:
		return NewNumericAttribute[float32](tag), nil
	case FDVR:
		return NewNumericAttribute[float64](tag), nil
	}
	return nil, fmt.Errorf("unknown vr: %v", vr)
}
