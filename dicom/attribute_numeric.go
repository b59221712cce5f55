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
	"strings"
)

// Number is the set of Go types that hold the binary number VRs
type Number interface {
	int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64
}

// NumericAttribute holds the values of a binary number VR. The VR follows from T: int16 is SS,
// uint16 is US, int32 is SL, uint32 is UL, int64 is SV, uint64 is UV, float32 is FL and float64
// is FD.
type NumericAttribute[T Number] struct {
	attributeBase
	values []T
}

// NewNumericAttribute returns an empty attribute whose VR is implied by T
func NewNumericAttribute[T Number](tag Tag) *NumericAttribute[T] {
	return &NumericAttribute[T]{attributeBase: attributeBase{tag, numberVR[T]()}}
}

// NewNumericAttributeWithValues returns an attribute holding values
func NewNumericAttributeWithValues[T Number](tag Tag, values ...T) (*NumericAttribute[T], error) {
	a := NewNumericAttribute[T](tag)
	if err := a.SetValues(values...); err != nil {
		return nil, err
	}
	return a, nil
}

func numberVR[T Number]() *VR {
	var zero T
	switch any(zero).(type) {
	case int16:
		return SSVR
	case uint16:
		return USVR
	case int32:
		return SLVR
	case uint32:
		return ULVR
	case int64:
		return SVVR
	case uint64:
		return UVVR
	case float32:
		return FLVR
	case float64:
		return FDVR
	}
	panic(fmt.Sprintf("no VR for %T", zero))
}

func (a *NumericAttribute[T]) Values() []T {
	return a.values
}

// SetValues replaces the values. An EncodingError is returned when the value field would not fit
// the length field of the VR.
func (a *NumericAttribute[T]) SetValues(values ...T) error {
	if length := int64(len(values)) * int64(a.vr.elementSize); length > a.vr.maxEntireLength() {
		return a.encodingError("value length %d exceeds the maximum of %d", length, a.vr.maxEntireLength())
	}
	a.values = append([]T(nil), values...)
	return nil
}

func (a *NumericAttribute[T]) AddValue(v T) error {
	return a.SetValues(append(append([]T{}, a.values...), v)...)
}

// ShortValues returns the values of US and SS attributes
func (a *NumericAttribute[T]) ShortValues() ([]uint16, error) {
	if a.vr != USVR && a.vr != SSVR {
		return nil, a.wrongType("shorts")
	}
	ret := make([]uint16, len(a.values))
	for i, v := range a.values {
		ret[i] = uint16(v)
	}
	return ret, nil
}

// FloatValues returns the values of FL and FD attributes
func (a *NumericAttribute[T]) FloatValues() ([]float32, error) {
	if a.vr != FLVR && a.vr != FDVR {
		return nil, a.wrongType("floats")
	}
	ret := make([]float32, len(a.values))
	for i, v := range a.values {
		ret[i] = float32(v)
	}
	return ret, nil
}

// IntValues returns the values widened to int64
func (a *NumericAttribute[T]) IntValues() ([]int64, error) {
	ret := make([]int64, len(a.values))
	for i, v := range a.values {
		ret[i] = int64(v)
	}
	return ret, nil
}

// DoubleValues returns the values widened to float64
func (a *NumericAttribute[T]) DoubleValues() ([]float64, error) {
	ret := make([]float64, len(a.values))
	for i, v := range a.values {
		ret[i] = float64(v)
	}
	return ret, nil
}

func (a *NumericAttribute[T]) ValueLength() uint32 {
	return uint32(len(a.values) * a.vr.elementSize)
}

func (a *NumericAttribute[T]) PaddedValueLength() uint32 {
	return a.ValueLength()
}

func (a *NumericAttribute[T]) VM() int {
	return len(a.values)
}

func (a *NumericAttribute[T]) IsCharacterInValueValid(rune) bool {
	return true
}

func (a *NumericAttribute[T]) AreValuesWellFormed() bool {
	return true
}

func (a *NumericAttribute[T]) RepairValues() bool {
	return true
}

func (a *NumericAttribute[T]) RemoveValues() {
	a.values = nil
}

func (a *NumericAttribute[T]) String() string {
	strs := make([]string, len(a.values))
	for i, v := range a.values {
		strs[i] = fmt.Sprint(v)
	}
	return fmt.Sprintf("%v %v [%s]", a.tag, a.vr, strings.Join(strs, "\\"))
}

func (a *NumericAttribute[T]) write(dw *dcmWriter, syntax *TransferSyntax, _ *SpecificCharacterSet) error {
	if err := writeHeader(dw, syntax, a.tag, a.vr, a.ValueLength()); err != nil {
		return err
	}
	b := make([]byte, a.ValueLength())
	putNumbers(b, syntax.ByteOrder, a.values)
	if err := dw.Bytes(b); err != nil {
		return fmt.Errorf("writing value: %w", err)
	}
	return nil
}

func putNumbers[T Number](b []byte, order binary.ByteOrder, values []T) {
	for i, v := range values {
		switch any(v).(type) {
		case int16, uint16:
			order.PutUint16(b[i*2:], uint16(v))
		case int32, uint32:
			order.PutUint32(b[i*4:], uint32(v))
		case int64, uint64:
			order.PutUint64(b[i*8:], uint64(v))
		case float32:
			order.PutUint32(b[i*4:], math.Float32bits(float32(v)))
		case float64:
			order.PutUint64(b[i*8:], math.Float64bits(float64(v)))
		}
	}
}

func getNumbers[T Number](b []byte, order binary.ByteOrder, values []T) {
	for i := range values {
		var v any
		switch any(values[i]).(type) {
		case int16:
			v = int16(order.Uint16(b[i*2:]))
		case uint16:
			v = order.Uint16(b[i*2:])
		case int32:
			v = int32(order.Uint32(b[i*4:]))
		case uint32:
			v = order.Uint32(b[i*4:])
		case int64:
			v = int64(order.Uint64(b[i*8:]))
		case uint64:
			v = order.Uint64(b[i*8:])
		case float32:
			v = math.Float32frombits(order.Uint32(b[i*4:]))
		case float64:
			v = math.Float64frombits(order.Uint64(b[i*8:]))
		}
		values[i] = v.(T)
	}
}

func readNumbers[T Number](b []byte, tag Tag, order binary.ByteOrder) *NumericAttribute[T] {
	a := NewNumericAttribute[T](tag)
	a.values = make([]T, len(b)/a.vr.elementSize)
	getNumbers(b, order, a.values)
	return a
}

// readNumber reads a binary number value field. The length must be a multiple of the width of one
// value.
func readNumber(dr *dcmReader, tag Tag, vr *VR, length uint32, order binary.ByteOrder) (Attribute, error) {
	if length%uint32(vr.elementSize) != 0 {
		return nil, formatError(tag, "value length %d of %v is not a multiple of %d", length, vr, vr.elementSize)
	}
	b, err := dr.Bytes(int64(length))
	if err != nil {
		return nil, fmt.Errorf("reading number field value: %w", asUnexpected(err, dr))
	}
	switch vr {
	case SSVR:
		return readNumbers[int16](b, tag, order), nil
	case USVR:
		return readNumbers[uint16](b, tag, order), nil
	case SLVR:
		return readNumbers[int32](b, tag, order), nil
	case ULVR:
		return readNumbers[uint32](b, tag, order), nil
	case SVVR:
		return readNumbers[int64](b, tag, order), nil
	case UVVR:
		return readNumbers[uint64](b, tag, order), nil
	case FLVR:
		return readNumbers[float32](b, tag, order), nil
	case FDVR:
		return readNumbers[float64](b, tag, order), nil
	}
	return nil, fmt.Errorf("unknown number vr: %v", vr)
}

// TagAttribute holds the values of an AT attribute. Each value is written as two 16-bit numbers,
// group first.
type TagAttribute struct {
	attributeBase
	values []Tag
}

func NewTagAttribute(tag Tag) *TagAttribute {
	return &TagAttribute{attributeBase: attributeBase{tag, ATVR}}
}

func (a *TagAttribute) Values() []Tag {
	return a.values
}

func (a *TagAttribute) SetValues(values ...Tag) error {
	if length := int64(len(values)) * 4; length > a.vr.maxEntireLength() {
		return a.encodingError("value length %d exceeds the maximum of %d", length, a.vr.maxEntireLength())
	}
	a.values = append([]Tag(nil), values...)
	return nil
}

func (a *TagAttribute) AddValue(t Tag) error {
	return a.SetValues(append(append([]Tag{}, a.values...), t)...)
}

func (a *TagAttribute) ValueLength() uint32 {
	return uint32(len(a.values) * 4)
}

func (a *TagAttribute) PaddedValueLength() uint32 {
	return a.ValueLength()
}

func (a *TagAttribute) VM() int {
	return len(a.values)
}

func (a *TagAttribute) IsCharacterInValueValid(rune) bool {
	return true
}

func (a *TagAttribute) AreValuesWellFormed() bool {
	return true
}

func (a *TagAttribute) RepairValues() bool {
	return true
}

func (a *TagAttribute) RemoveValues() {
	a.values = nil
}

func (a *TagAttribute) String() string {
	strs := make([]string, len(a.values))
	for i, v := range a.values {
		strs[i] = v.String()
	}
	return fmt.Sprintf("%v %v [%s]", a.tag, a.vr, strings.Join(strs, "\\"))
}

func (a *TagAttribute) write(dw *dcmWriter, syntax *TransferSyntax, _ *SpecificCharacterSet) error {
	if err := writeHeader(dw, syntax, a.tag, a.vr, a.ValueLength()); err != nil {
		return err
	}
	for _, t := range a.values {
		if err := dw.Tag(syntax.ByteOrder, t); err != nil {
			return fmt.Errorf("writing value: %w", err)
		}
	}
	return nil
}

func readTags(dr *dcmReader, tag Tag, length uint32, order binary.ByteOrder) (*TagAttribute, error) {
	if length%4 != 0 {
		return nil, formatError(tag, "value length %d of AT is not a multiple of 4", length)
	}
	a := NewTagAttribute(tag)
	a.values = make([]Tag, 0, length/4)
	for i := uint32(0); i < length/4; i++ {
		t, err := dr.Tag(order)
		if err != nil {
			return nil, fmt.Errorf("reading tag field value: %w", asUnexpected(err, dr))
		}
		a.values = append(a.values, t)
	}
	return a, nil
}
