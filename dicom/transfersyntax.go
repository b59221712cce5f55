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
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	// ImplicitVRLittleEndianUID is the Implicit VR Little Endian UID
	ImplicitVRLittleEndianUID = "1.2.840.10008.1.2"
	// ExplicitVRLittleEndianUID is the Explicit VR Little Endian UID
	ExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1"
	// ExplicitVRBigEndianUID is the Explicit VR Big Endian UID
	ExplicitVRBigEndianUID = "1.2.840.10008.1.2.2"
	// DeflatedExplicitVRLittleEndianUID is the Deflated Explicit VR Little Endian UID
	DeflatedExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1.99"
	// JPEGBaselineUID is the JPEG Baseline (Process 1) transfer syntax UID
	JPEGBaselineUID = "1.2.840.10008.1.2.4.50"
	// JPEGExtendedUID is the JPEG Extended (Process 2 & 4) transfer syntax UID
	JPEGExtendedUID = "1.2.840.10008.1.2.4.51"
	// JPEGLosslessUID is the JPEG Lossless, Non-Hierarchical (Process 14) transfer syntax UID
	JPEGLosslessUID = "1.2.840.10008.1.2.4.57"
	// JPEGLosslessSV1UID is the JPEG Lossless first-order prediction transfer syntax UID
	JPEGLosslessSV1UID = "1.2.840.10008.1.2.4.70"
	// JPEGLSLosslessUID is the JPEG-LS Lossless transfer syntax UID
	JPEGLSLosslessUID = "1.2.840.10008.1.2.4.80"
	// JPEGLSNearLosslessUID is the JPEG-LS Lossy (Near-Lossless) transfer syntax UID
	JPEGLSNearLosslessUID = "1.2.840.10008.1.2.4.81"
	// JPEG2000LosslessUID is the JPEG 2000 Image Compression (Lossless Only) transfer syntax UID
	JPEG2000LosslessUID = "1.2.840.10008.1.2.4.90"
	// JPEG2000UID is the JPEG 2000 Image Compression transfer syntax UID
	JPEG2000UID = "1.2.840.10008.1.2.4.91"
	// MPEG2UID is the MPEG2 Main Profile / Main Level transfer syntax UID
	MPEG2UID = "1.2.840.10008.1.2.4.100"
	// RLELosslessUID is the RLE Lossless transfer syntax UID
	RLELosslessUID = "1.2.840.10008.1.2.5"
)

const (
	vrSize  = 2
	tagSize = 4
)

// TransferSyntax describes how a data set is encoded: byte order, whether VRs are explicit in the
// stream, and whether pixel data is encapsulated.
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#chapter_10
type TransferSyntax struct {
	UID  string
	Name string

	Implicit     bool
	ByteOrder    binary.ByteOrder
	Deflated     bool
	Encapsulated bool
}

func (s *TransferSyntax) String() string {
	if s.Name == s.UID {
		return s.UID
	}
	return fmt.Sprintf("%s (%s)", s.Name, s.UID)
}

// IsBigEndian is true for Explicit VR Big Endian
func (s *TransferSyntax) IsBigEndian() bool {
	return s.ByteOrder == binary.BigEndian
}

var (
	ImplicitVRLittleEndian = &TransferSyntax{ImplicitVRLittleEndianUID, "ImplicitVRLittleEndian",
		true, binary.LittleEndian, false, false}
	ExplicitVRLittleEndian = &TransferSyntax{ExplicitVRLittleEndianUID, "ExplicitVRLittleEndian",
		false, binary.LittleEndian, false, false}
	ExplicitVRBigEndian = &TransferSyntax{ExplicitVRBigEndianUID, "ExplicitVRBigEndian",
		false, binary.BigEndian, false, false}
	DeflatedExplicitVRLittleEndian = &TransferSyntax{DeflatedExplicitVRLittleEndianUID,
		"DeflatedExplicitVRLittleEndian", false, binary.LittleEndian, true, false}
	JPEGBaseline       = encapsulatedSyntax(JPEGBaselineUID, "JPEGBaseline")
	JPEGExtended       = encapsulatedSyntax(JPEGExtendedUID, "JPEGExtended")
	JPEGLossless       = encapsulatedSyntax(JPEGLosslessUID, "JPEGLossless")
	JPEGLosslessSV1    = encapsulatedSyntax(JPEGLosslessSV1UID, "JPEGLosslessSV1")
	JPEGLSLossless     = encapsulatedSyntax(JPEGLSLosslessUID, "JPEGLSLossless")
	JPEGLSNearLossless = encapsulatedSyntax(JPEGLSNearLosslessUID, "JPEGLSNearLossless")
	JPEG2000Lossless   = encapsulatedSyntax(JPEG2000LosslessUID, "JPEG2000Lossless")
	JPEG2000           = encapsulatedSyntax(JPEG2000UID, "JPEG2000")
	MPEG2              = encapsulatedSyntax(MPEG2UID, "MPEG2")
	RLELossless        = encapsulatedSyntax(RLELosslessUID, "RLE")
)

func encapsulatedSyntax(uid, name string) *TransferSyntax {
	return &TransferSyntax{uid, name, false, binary.LittleEndian, false, true}
}

var (
	syntaxByUID  = map[string]*TransferSyntax{}
	syntaxByName = map[string]*TransferSyntax{}
)

func init() {
	for _, s := range []*TransferSyntax{ImplicitVRLittleEndian, ExplicitVRLittleEndian, ExplicitVRBigEndian,
		DeflatedExplicitVRLittleEndian, JPEGBaseline, JPEGExtended, JPEGLossless, JPEGLosslessSV1,
		JPEGLSLossless, JPEGLSNearLossless, JPEG2000Lossless, JPEG2000, MPEG2, RLELossless} {
		syntaxByUID[s.UID] = s
		syntaxByName[strings.ToLower(s.Name)] = s
	}
	// common aliases
	syntaxByName["rlelossless"] = RLELossless
	syntaxByName["jpeg"] = JPEGBaseline
	syntaxByName["deflated"] = DeflatedExplicitVRLittleEndian
}

// LookupTransferSyntax resolves a transfer syntax from either its UID or a symbolic name such as
// "ImplicitVRLittleEndian", "ExplicitVRBigEndian", "JPEGBaseline" or "RLE". Names are case
// insensitive. An unknown input that has the lexical shape of a UID (digits and dots) is taken as
// the UID of an encapsulated syntax, which PS3.5 A.4 requires to be explicit VR little endian.
func LookupTransferSyntax(nameOrUID string) (*TransferSyntax, error) {
	id := strings.TrimRight(strings.TrimSpace(nameOrUID), "\x00")
	if s, ok := syntaxByUID[id]; ok {
		return s, nil
	}
	if s, ok := syntaxByName[strings.ToLower(id)]; ok {
		return s, nil
	}
	if hasUIDShape(id) {
		return encapsulatedSyntax(id, id), nil
	}
	return nil, fmt.Errorf("unknown transfer syntax %q", nameOrUID)
}

// hasUIDShape is true for non-empty dot separated runs of digits. Unlike a well formed UID,
// components may have leading zeros.
func hasUIDShape(s string) bool {
	if s == "" {
		return false
	}
	for _, component := range strings.Split(s, ".") {
		if component == "" || strings.Trim(component, "0123456789") != "" {
			return false
		}
	}
	return true
}

// TransferSyntaxNames returns the symbolic names understood by LookupTransferSyntax
func TransferSyntaxNames() []string {
	names := make([]string, 0, len(syntaxByUID))
	for _, s := range syntaxByUID {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

// elementSize is the number of bytes of an encoded attribute with a value field of the given length
func (s *TransferSyntax) elementSize(vr *VR, valueFieldLength uint32) uint32 {
	if valueFieldLength == UndefinedLength {
		return UndefinedLength
	}
	if s.Implicit {
		return tagSize + 4 /*length*/ + valueFieldLength
	}
	if vr.HasLongLength() {
		return tagSize + vrSize + 2 /*reserved*/ + 4 /*32-bit length*/ + valueFieldLength
	}
	return tagSize + vrSize + 2 /*16-bit length*/ + valueFieldLength
}

// readVR reads the VR of the attribute with the given tag. For implicit VR syntaxes, nothing is
// read and the VR comes from dictionaryVR.
func (s *TransferSyntax) readVR(dr *dcmReader, tag Tag, dictionaryVR func(Tag) *VR) (*VR, error) {
	if s.Implicit {
		return dictionaryVR(tag), nil
	}

	vrString, err := dr.String(vrSize)
	if err != nil {
		return nil, fmt.Errorf("reading vr: %w", err)
	}
	vr, err := LookupVR(vrString)
	if err != nil {
		return nil, formatError(tag, "%v", err)
	}
	return vr, nil
}

func (s *TransferSyntax) readValueLength(dr *dcmReader, vr *VR) (uint32, error) {
	if s.Implicit {
		return dr.UInt32(s.ByteOrder)
	}
	if vr.HasLongLength() {
		if _, err := dr.UInt16(s.ByteOrder); err != nil {
			return 0, fmt.Errorf("reading reserved field: %w", err)
		}

		length, err := dr.UInt32(s.ByteOrder)
		if err != nil {
			return 0, fmt.Errorf("reading 32 bit length: %w", err)
		}
		return length, nil
	}

	length, err := dr.UInt16(s.ByteOrder)
	if err != nil {
		return 0, fmt.Errorf("reading 16 bit length: %w", err)
	}
	return uint32(length), nil
}

func (s *TransferSyntax) writeVR(dw *dcmWriter, vr *VR) error {
	if s.Implicit {
		// implicit VR syntax does not include VR in the DICOM file
		return nil
	}
	return dw.String(vr.Name)
}

func (s *TransferSyntax) writeValueLength(dw *dcmWriter, vr *VR, valueFieldLength uint32) error {
	if s.Implicit {
		return dw.UInt32(s.ByteOrder, valueFieldLength)
	}
	if vr.HasLongLength() {
		if err := dw.UInt16(s.ByteOrder, 0); err != nil {
			return fmt.Errorf("writing reserved field: %w", err)
		}
		if err := dw.UInt32(s.ByteOrder, valueFieldLength); err != nil {
			return fmt.Errorf("writing 32 bit length: %w", err)
		}
		return nil
	}

	if valueFieldLength > math.MaxUint16 {
		return fmt.Errorf("data element value length %d exceeds unsigned 16-bit length", valueFieldLength)
	}
	if err := dw.UInt16(s.ByteOrder, uint16(valueFieldLength)); err != nil {
		return fmt.Errorf("writing 16 bit length: %w", err)
	}
	return nil
}
