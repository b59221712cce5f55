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
	"io"
	"math"
)

// valueState tells whether the bytes of an OtherAttribute are held in memory or still in the
// source it was read from
type valueState int

const (
	valueMaterialized valueState = iota
	valueDeferred
)

// deferredValue locates a value field in the source of a read
type deferredValue struct {
	src    io.ReaderAt
	offset int64
	length int64
	order  binary.ByteOrder
}

// OtherAttribute holds the value of the other-binary VRs: OB OD OF OL OV OW and UN. The value is
// kept as little endian bytes whatever the byte order of the syntax it was read from.
type OtherAttribute struct {
	attributeBase
	data []byte

	state    valueState
	deferred deferredValue
}

func NewOtherAttribute(tag Tag, vr *VR) *OtherAttribute {
	return &OtherAttribute{attributeBase: attributeBase{tag, vr}}
}

// SetBytes replaces the value with b, which is held as little endian data
func (a *OtherAttribute) SetBytes(b []byte) error {
	if len(b)%a.vr.elementSize != 0 {
		return a.encodingError("length %d is not a multiple of %d", len(b), a.vr.elementSize)
	}
	if int64(len(b)) > a.vr.maxEntireLength() {
		return a.encodingError("value length %d exceeds the maximum of %d", len(b), a.vr.maxEntireLength())
	}
	a.data = b
	a.state = valueMaterialized
	return nil
}

func (a *OtherAttribute) SetWords(words []uint16) error {
	b := make([]byte, len(words)*2)
	for i, w := range words {
		binary.LittleEndian.PutUint16(b[i*2:], w)
	}
	return a.setWidth(b, 2)
}

func (a *OtherAttribute) SetLongs(longs []uint32) error {
	b := make([]byte, len(longs)*4)
	for i, l := range longs {
		binary.LittleEndian.PutUint32(b[i*4:], l)
	}
	return a.setWidth(b, 4)
}

func (a *OtherAttribute) SetVeryLongs(longs []uint64) error {
	b := make([]byte, len(longs)*8)
	for i, l := range longs {
		binary.LittleEndian.PutUint64(b[i*8:], l)
	}
	return a.setWidth(b, 8)
}

func (a *OtherAttribute) SetFloats(floats []float32) error {
	b := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return a.setWidth(b, 4)
}

func (a *OtherAttribute) SetDoubles(doubles []float64) error {
	b := make([]byte, len(doubles)*8)
	for i, d := range doubles {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(d))
	}
	return a.setWidth(b, 8)
}

func (a *OtherAttribute) setWidth(b []byte, width int) error {
	if a.vr.elementSize != width && a.vr.elementSize != 1 {
		return a.encodingError("cannot store %d byte values", width)
	}
	return a.SetBytes(b)
}

// IsDeferred is true while the value is only referenced in the source it was read from
func (a *OtherAttribute) IsDeferred() bool {
	return a.state == valueDeferred
}

// Materialize reads a deferred value from its source. It is a no-op for values in memory.
func (a *OtherAttribute) Materialize() error {
	if a.state != valueDeferred {
		return nil
	}
	d := a.deferred
	b := make([]byte, d.length)
	n, err := d.src.ReadAt(b, d.offset)
	if int64(n) < d.length {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return &DecodingError{d.offset + int64(n), fmt.Errorf("reading deferred value of %v: %w", a.tag, err)}
	}
	toLittleEndian(b, d.order, a.vr.elementSize)
	a.data = b
	a.state = valueMaterialized
	a.deferred = deferredValue{}
	return nil
}

func (a *OtherAttribute) ByteValues() ([]byte, error) {
	if a.state == valueDeferred {
		return nil, ErrValueDeferred
	}
	return a.data, nil
}

// ShortValues returns the value of an OW attribute as 16-bit words
func (a *OtherAttribute) ShortValues() ([]uint16, error) {
	if a.vr != OWVR {
		return nil, a.wrongType("shorts")
	}
	if a.state == valueDeferred {
		return nil, ErrValueDeferred
	}
	ret := make([]uint16, len(a.data)/2)
	for i := range ret {
		ret[i] = binary.LittleEndian.Uint16(a.data[i*2:])
	}
	return ret, nil
}

// FloatValues returns the value of an OF attribute
func (a *OtherAttribute) FloatValues() ([]float32, error) {
	if a.vr != OFVR {
		return nil, a.wrongType("floats")
	}
	if a.state == valueDeferred {
		return nil, ErrValueDeferred
	}
	ret := make([]float32, len(a.data)/4)
	for i := range ret {
		ret[i] = math.Float32frombits(binary.LittleEndian.Uint32(a.data[i*4:]))
	}
	return ret, nil
}

// DoubleValues returns the value of an OD attribute
func (a *OtherAttribute) DoubleValues() ([]float64, error) {
	if a.vr != ODVR {
		return nil, a.wrongType("doubles")
	}
	if a.state == valueDeferred {
		return nil, ErrValueDeferred
	}
	ret := make([]float64, len(a.data)/8)
	for i := range ret {
		ret[i] = math.Float64frombits(binary.LittleEndian.Uint64(a.data[i*8:]))
	}
	return ret, nil
}

// ElementCount is the number of elements of the VR's width in the value
func (a *OtherAttribute) ElementCount() int {
	return int(a.ValueLength()) / a.vr.elementSize
}

func (a *OtherAttribute) ValueLength() uint32 {
	if a.state == valueDeferred {
		return uint32(a.deferred.length)
	}
	return uint32(len(a.data))
}

func (a *OtherAttribute) PaddedValueLength() uint32 {
	return paddedLength(a.ValueLength())
}

func (a *OtherAttribute) VM() int {
	if a.ValueLength() == 0 {
		return 0
	}
	return 1
}

func (a *OtherAttribute) IsCharacterInValueValid(rune) bool {
	return true
}

func (a *OtherAttribute) AreValuesWellFormed() bool {
	return true
}

func (a *OtherAttribute) RepairValues() bool {
	return true
}

func (a *OtherAttribute) RemoveValues() {
	a.data = nil
	a.state = valueMaterialized
	a.deferred = deferredValue{}
}

func (a *OtherAttribute) String() string {
	if a.state == valueDeferred {
		return fmt.Sprintf("%v %v <%d bytes at offset %d>", a.tag, a.vr, a.deferred.length, a.deferred.offset)
	}
	return fmt.Sprintf("%v %v <%d bytes>", a.tag, a.vr, len(a.data))
}

func (a *OtherAttribute) write(dw *dcmWriter, syntax *TransferSyntax, _ *SpecificCharacterSet) error {
	if err := a.Materialize(); err != nil {
		return err
	}
	if err := writeHeader(dw, syntax, a.tag, a.vr, a.PaddedValueLength()); err != nil {
		return err
	}
	b := a.data
	if syntax.ByteOrder != binary.LittleEndian && a.vr.elementSize > 1 {
		b = append([]byte(nil), b...)
		swapBytes(b, a.vr.elementSize)
	}
	if err := dw.Bytes(b); err != nil {
		return fmt.Errorf("writing value: %w", err)
	}
	return dw.Pad(int64(len(b)), 0x00)
}

// readOther reads an other-binary value field. When src is non-nil and the value is at least
// threshold bytes long, the value is skipped and only its location is kept.
func readOther(dr *dcmReader, tag Tag, vr *VR, length uint32, order binary.ByteOrder, src io.ReaderAt, threshold int64) (*OtherAttribute, error) {
	if length%uint32(vr.elementSize) != 0 {
		return nil, formatError(tag, "value length %d of %v is not a multiple of %d", length, vr, vr.elementSize)
	}
	a := NewOtherAttribute(tag, vr)
	if src != nil && int64(length) >= threshold && length > 0 {
		offset := dr.Offset()
		if err := dr.Skip(int64(length)); err != nil {
			return nil, fmt.Errorf("skipping deferred value: %w", asUnexpected(err, dr))
		}
		a.state = valueDeferred
		a.deferred = deferredValue{src, offset, int64(length), order}
		return a, nil
	}
	b, err := dr.Bytes(int64(length))
	if err != nil {
		return nil, fmt.Errorf("reading binary field value: %w", asUnexpected(err, dr))
	}
	toLittleEndian(b, order, vr.elementSize)
	a.data = b
	return a, nil
}

func toLittleEndian(b []byte, order binary.ByteOrder, width int) {
	if order == binary.LittleEndian || width <= 1 {
		return
	}
	swapBytes(b, width)
}

// swapBytes reverses each width-sized element of b in place
func swapBytes(b []byte, width int) {
	for i := 0; i+width <= len(b); i += width {
		for l, r := i, i+width-1; l < r; l, r = l+1, r-1 {
			b[l], b[r] = b[r], b[l]
		}
	}
}
