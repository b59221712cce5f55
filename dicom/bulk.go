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
)

// ByteRegion is a contiguous sequence of bytes in a file described by an Offset and a length
type ByteRegion struct {
	Offset int64
	Length int64
}

// EncapsulatedPixelData represents image pixel data in encapsulated format as described in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4. The fragments are
// kept as raw bytes. Fragments[0] is the Basic Offset Table, which may be empty.
type EncapsulatedPixelData struct {
	attributeBase
	Fragments [][]byte

	// Regions locates each fragment value in the source it was read from. It is empty for
	// attributes that were built in memory.
	Regions []ByteRegion
}

// NewEncapsulatedPixelData returns pixel data with an empty Basic Offset Table and no fragments
func NewEncapsulatedPixelData(tag Tag) *EncapsulatedPixelData {
	return &EncapsulatedPixelData{attributeBase: attributeBase{tag, OBVR}, Fragments: [][]byte{{}}}
}

// AddFragment appends one fragment after the Basic Offset Table
func (a *EncapsulatedPixelData) AddFragment(b []byte) {
	if len(a.Fragments) == 0 {
		a.Fragments = [][]byte{{}}
	}
	a.Fragments = append(a.Fragments, b)
}

// OffsetTable decodes the Basic Offset Table. It is empty when the table was not filled in.
func (a *EncapsulatedPixelData) OffsetTable() ([]uint32, error) {
	if len(a.Fragments) == 0 {
		return nil, nil
	}
	bot := a.Fragments[0]
	if len(bot)%4 != 0 {
		return nil, formatError(a.tag, "basic offset table length %d is not a multiple of 4", len(bot))
	}
	ret := make([]uint32, len(bot)/4)
	for i := range ret {
		ret[i] = binary.LittleEndian.Uint32(bot[i*4:])
	}
	return ret, nil
}

// Frames groups the fragments into numberOfFrames frames. With a Basic Offset Table the frame
// boundaries follow it; without one there must be either exactly one fragment per frame or a
// single frame.
func (a *EncapsulatedPixelData) Frames(numberOfFrames int) ([][]byte, error) {
	if len(a.Fragments) == 0 {
		return nil, formatError(a.tag, "no basic offset table item")
	}
	fragments := a.Fragments[1:]
	offsets, err := a.OffsetTable()
	if err != nil {
		return nil, err
	}

	switch {
	case len(offsets) > 0:
		if len(offsets) != numberOfFrames {
			return nil, formatError(a.tag, "basic offset table has %d entries for %d frames", len(offsets), numberOfFrames)
		}
		return a.framesFromOffsets(fragments, offsets)
	case numberOfFrames == len(fragments):
		return fragments, nil
	case numberOfFrames == 1:
		var frame []byte
		for _, f := range fragments {
			frame = append(frame, f...)
		}
		return [][]byte{frame}, nil
	}
	return nil, formatError(a.tag, "cannot split %d fragments into %d frames without an offset table", len(fragments), numberOfFrames)
}

// framesFromOffsets uses the offsets of the first fragment item of each frame, measured from the
// first byte of the first fragment item header
func (a *EncapsulatedPixelData) framesFromOffsets(fragments [][]byte, offsets []uint32) ([][]byte, error) {
	frames := make([][]byte, len(offsets))
	frame := -1
	var position uint32
	for _, f := range fragments {
		for frame+1 < len(offsets) && offsets[frame+1] == position {
			frame++
		}
		if frame < 0 {
			return nil, formatError(a.tag, "first offset table entry is %d, not 0", offsets[0])
		}
		frames[frame] = append(frames[frame], f...)
		position += 8 + uint32(len(f))
	}
	if frame != len(offsets)-1 {
		return nil, formatError(a.tag, "offset table entry %d does not start a fragment", offsets[frame+1])
	}
	return frames, nil
}

func (a *EncapsulatedPixelData) ByteValues() ([]byte, error) {
	var ret []byte
	for _, f := range a.Fragments[min(1, len(a.Fragments)):] {
		ret = append(ret, f...)
	}
	return ret, nil
}

func (a *EncapsulatedPixelData) ValueLength() uint32 {
	return UndefinedLength
}

func (a *EncapsulatedPixelData) PaddedValueLength() uint32 {
	return UndefinedLength
}

// VM is the number of fragments, excluding the Basic Offset Table
func (a *EncapsulatedPixelData) VM() int {
	if len(a.Fragments) == 0 {
		return 0
	}
	return len(a.Fragments) - 1
}

func (a *EncapsulatedPixelData) IsCharacterInValueValid(rune) bool {
	return true
}

func (a *EncapsulatedPixelData) AreValuesWellFormed() bool {
	return true
}

func (a *EncapsulatedPixelData) RepairValues() bool {
	return true
}

func (a *EncapsulatedPixelData) RemoveValues() {
	a.Fragments = [][]byte{{}}
	a.Regions = nil
}

func (a *EncapsulatedPixelData) String() string {
	return fmt.Sprintf("%v %v <encapsulated, %d fragments>", a.tag, a.vr, a.VM())
}

func (a *EncapsulatedPixelData) write(dw *dcmWriter, syntax *TransferSyntax, _ *SpecificCharacterSet) error {
	if !syntax.Encapsulated {
		return a.encodingError("encapsulated pixel data cannot be written in %v", syntax)
	}
	if err := writeHeader(dw, syntax, a.tag, a.vr, UndefinedLength); err != nil {
		return err
	}
	fragments := a.Fragments
	if len(fragments) == 0 {
		fragments = [][]byte{{}}
	}
	return writeEncapsulatedFormat(dw, syntax.ByteOrder, fragments)
}

// writeEncapsulatedFormat writes the fragments as items followed by a sequence delimiter. The
// first fragment is assumed to be the basic offset table.
func writeEncapsulatedFormat(dw *dcmWriter, order binary.ByteOrder, fragments [][]byte) error {
	for _, fragment := range fragments {
		if err := dw.Tag(order, ItemTag); err != nil {
			return fmt.Errorf("writing fragment tag: %w", err)
		}
		length := paddedLength(uint32(len(fragment)))
		if err := dw.UInt32(order, length); err != nil {
			return fmt.Errorf("writing fragment length: %w", err)
		}
		if err := dw.Bytes(fragment); err != nil {
			return fmt.Errorf("writing fragment: %w", err)
		}
		if err := dw.Pad(int64(len(fragment)), 0x00); err != nil {
			return fmt.Errorf("padding fragment: %w", err)
		}
	}
	return dw.Delimiter(order, SequenceDelimitationItemTag)
}

// readEncapsulatedFormat reads fragment items up to the sequence delimiter
func readEncapsulatedFormat(dr *dcmReader, tag Tag, vr *VR, order binary.ByteOrder) (*EncapsulatedPixelData, error) {
	a := &EncapsulatedPixelData{attributeBase: attributeBase{tag, vr}}
	for {
		itemTag, err := dr.Tag(order)
		if err != nil {
			return nil, fmt.Errorf("reading tag in encapsulated format fragment: %w", asUnexpected(err, dr))
		}
		length, err := dr.mustUInt32(order)
		if err != nil {
			return nil, fmt.Errorf("reading fragment length: %w", err)
		}
		if itemTag == SequenceDelimitationItemTag {
			break
		}
		if itemTag != ItemTag {
			return nil, formatError(tag, "expected item tag in encapsulated pixel data, got %v", itemTag)
		}
		if length == UndefinedLength {
			return nil, formatError(tag, "expected fragment to be of explicit length")
		}
		offset := dr.Offset()
		b, err := dr.Bytes(int64(length))
		if err != nil {
			return nil, fmt.Errorf("reading fragment: %w", asUnexpected(err, dr))
		}
		a.Fragments = append(a.Fragments, b)
		a.Regions = append(a.Regions, ByteRegion{offset, int64(length)})
	}
	if len(a.Fragments) == 0 {
		a.Fragments = [][]byte{{}}
	}
	return a, nil
}
