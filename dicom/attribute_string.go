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
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// StringAttribute holds the values of the character string VRs: AE AS CS DA DS DT IS LO LT PN SH
// ST TM UC UI UR UT.
type StringAttribute struct {
	attributeBase
	values []string

	// cs is the character set the values were decoded with and are measured in
	cs *SpecificCharacterSet
}

// NewStringAttribute returns an empty attribute with a string VR
func NewStringAttribute(tag Tag, vr *VR) *StringAttribute {
	return &StringAttribute{attributeBase{tag, vr}, nil, DefaultCharacterSet}
}

// NewStringAttributeWithValues returns an attribute with a string VR holding values
func NewStringAttributeWithValues(tag Tag, vr *VR, values ...string) (*StringAttribute, error) {
	a := NewStringAttribute(tag, vr)
	if err := a.SetValues(values...); err != nil {
		return nil, err
	}
	return a, nil
}

// SetCharacterSet sets the character set used to measure and encode the values. Decode sets it
// from the Specific Character Set in effect.
func (a *StringAttribute) SetCharacterSet(cs *SpecificCharacterSet) {
	if cs == nil {
		cs = DefaultCharacterSet
	}
	a.cs = cs
}

// SetValues replaces the values. A value longer than the VR allows is truncated when the VR's
// policy permits it, otherwise an EncodingError is returned and the values are unchanged.
func (a *StringAttribute) SetValues(values ...string) error {
	checked := make([]string, len(values))
	for i, v := range values {
		c, err := a.checkValue(v)
		if err != nil {
			return err
		}
		checked[i] = c
	}
	if len(checked) > 1 && !a.vr.multiValued {
		return a.encodingError("VR allows a single value, got %d", len(checked))
	}
	if length := valuesLength(checked, a.cs); length > a.vr.maxEntireLength() {
		return a.encodingError("value length %d exceeds the maximum of %d", length, a.vr.maxEntireLength())
	}
	a.values = checked
	return nil
}

// AddValue appends a value, with the same checks as SetValues
func (a *StringAttribute) AddValue(v string) error {
	return a.SetValues(append(append([]string{}, a.values...), v)...)
}

func (a *StringAttribute) checkValue(v string) (string, error) {
	if a.vr.multiValued && strings.ContainsRune(v, '\\') {
		return "", a.encodingError("value %q contains the value delimiter", v)
	}
	maxLength := a.vr.maxValueLength
	if maxLength == 0 || a.encodedLength(v) <= maxLength {
		return v, nil
	}
	if !a.vr.repair.truncate {
		return "", a.encodingError("value %q is longer than %d bytes", v, maxLength)
	}
	t := a.truncate(v, maxLength)
	logger.Debug().Stringer("tag", a.tag).Str("vr", a.vr.Name).Int("max", maxLength).Msg("truncated value")
	return t, nil
}

// truncate cuts v to at most maxLength encoded bytes on a character boundary
func (a *StringAttribute) truncate(v string, maxLength int) string {
	for a.encodedLength(v) > maxLength {
		_, size := utf8.DecodeLastRuneInString(v)
		v = v[:len(v)-size]
	}
	return v
}

func (a *StringAttribute) encodedLength(v string) int {
	if !a.vr.charsetSensitive {
		return len(v)
	}
	b, err := a.cs.Encode(v)
	if err != nil {
		return len(v)
	}
	return len(b)
}

func valuesLength(values []string, cs *SpecificCharacterSet) int64 {
	b, err := cs.Encode(strings.Join(values, "\\"))
	if err != nil {
		return int64(len(strings.Join(values, "\\")))
	}
	return int64(len(b))
}

// Values returns the values as decoded, trailing padding removed
func (a *StringAttribute) Values() []string {
	return a.values
}

// Value returns the first value or "" when there is none
func (a *StringAttribute) Value() string {
	if len(a.values) == 0 {
		return ""
	}
	return a.values[0]
}

func (a *StringAttribute) StringValues() ([]string, error) {
	return a.values, nil
}

// IntValues parses the values of an IS attribute. Empty values are skipped.
func (a *StringAttribute) IntValues() ([]int64, error) {
	ret := make([]int64, 0, len(a.values))
	for _, v := range a.values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%v %v: parsing %q as integer: %w", a.tag, a.vr, v, err)
		}
		ret = append(ret, i)
	}
	return ret, nil
}

// DoubleValues parses the values of a DS or IS attribute. Empty values are skipped.
func (a *StringAttribute) DoubleValues() ([]float64, error) {
	ret := make([]float64, 0, len(a.values))
	for _, v := range a.values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%v %v: parsing %q as decimal: %w", a.tag, a.vr, v, err)
		}
		ret = append(ret, f)
	}
	return ret, nil
}

func (a *StringAttribute) FloatValues() ([]float32, error) {
	doubles, err := a.DoubleValues()
	if err != nil {
		return nil, err
	}
	ret := make([]float32, len(doubles))
	for i, d := range doubles {
		ret[i] = float32(d)
	}
	return ret, nil
}

func (a *StringAttribute) ValueLength() uint32 {
	if len(a.values) == 0 {
		return 0
	}
	if a.vr.charsetSensitive {
		return uint32(valuesLength(a.values, a.cs))
	}
	return uint32(len(strings.Join(a.values, "\\")))
}

func (a *StringAttribute) PaddedValueLength() uint32 {
	return paddedLength(a.ValueLength())
}

func (a *StringAttribute) VM() int {
	return len(a.values)
}

func (a *StringAttribute) RemoveValues() {
	a.values = nil
}

func (a *StringAttribute) IsCharacterInValueValid(r rune) bool {
	if a.vr.validChar == nil {
		return true
	}
	return a.vr.validChar(r)
}

func (a *StringAttribute) AreValuesWellFormed() bool {
	for _, v := range a.values {
		if !a.isValueWellFormed(v) {
			return false
		}
	}
	return true
}

// isValueWellFormed accepts empty values, which stand for an absent component of a multi-valued
// attribute.
func (a *StringAttribute) isValueWellFormed(v string) bool {
	if v == "" {
		return true
	}
	if a.vr.maxValueLength > 0 && a.encodedLength(v) > a.vr.maxValueLength {
		return false
	}
	if !allRunes(v, a.IsCharacterInValueValid) {
		return false
	}
	if a.vr.wellFormed != nil {
		return a.vr.wellFormed(v)
	}
	return true
}

// valueProblem describes why v is not well formed, or returns ""
func (a *StringAttribute) valueProblem(v string) string {
	if v == "" {
		return ""
	}
	if a.vr.maxValueLength > 0 && a.encodedLength(v) > a.vr.maxValueLength {
		return fmt.Sprintf("value %q is longer than %d bytes", v, a.vr.maxValueLength)
	}
	for _, r := range v {
		if !a.IsCharacterInValueValid(r) {
			return fmt.Sprintf("value %q contains invalid character %q", v, r)
		}
	}
	if a.vr.wellFormed != nil && !a.vr.wellFormed(v) {
		return fmt.Sprintf("value %q is not well formed", v)
	}
	return ""
}

// isPadding is true for the characters RepairValues trims. Other whitespace is significant,
// CR LF in LT for example.
func (a *StringAttribute) isPadding(r rune) bool {
	if a.vr.kind == uniqueIdentifierVR {
		return r == 0x00 || r == ' '
	}
	return r == ' '
}

// RepairValues trims insignificant padding and whitespace, removes (or replaces) characters the
// VR does not allow when the VR's policy permits it, and truncates over-long values when allowed.
func (a *StringAttribute) RepairValues() bool {
	policy := a.vr.repair
	for i, v := range a.values {
		repaired := v
		if policy.replaceInvalid {
			repaired = strings.Map(func(r rune) rune {
				if a.IsCharacterInValueValid(r) {
					return r
				}
				if policy.replacement == 0 {
					return -1
				}
				return policy.replacement
			}, repaired)
		}
		repaired = strings.TrimRightFunc(repaired, a.isPadding)
		if a.vr.trimLeading {
			repaired = strings.TrimLeftFunc(repaired, a.isPadding)
		}
		if policy.truncate && a.vr.maxValueLength > 0 {
			repaired = a.truncate(repaired, a.vr.maxValueLength)
		}
		if repaired != v {
			logger.Debug().Stringer("tag", a.tag).Str("vr", a.vr.Name).
				Str("from", v).Str("to", repaired).Msg("repaired value")
			a.values[i] = repaired
		}
	}
	return a.AreValuesWellFormed()
}

func (a *StringAttribute) String() string {
	return fmt.Sprintf("%v %v [%s]", a.tag, a.vr, strings.Join(a.values, "\\"))
}

// encode returns the value field without padding
func (a *StringAttribute) encode(cs *SpecificCharacterSet) ([]byte, error) {
	joined := strings.Join(a.values, "\\")
	if !a.vr.charsetSensitive {
		return []byte(joined), nil
	}
	if cs == nil {
		cs = a.cs
	}
	b, err := cs.Encode(joined)
	if err != nil {
		return nil, &EncodingError{a.tag, a.vr, err.Error()}
	}
	return b, nil
}

func (a *StringAttribute) write(dw *dcmWriter, syntax *TransferSyntax, cs *SpecificCharacterSet) error {
	if err := a.checkEncodedLengths(cs); err != nil {
		return err
	}
	b, err := a.encode(cs)
	if err != nil {
		return err
	}
	length := int64(len(b)) + int64(len(b)%2)
	if length > a.vr.maxEntireLength() {
		return a.encodingError("value length %d exceeds the maximum of %d", length, a.vr.maxEntireLength())
	}
	if err := writeHeader(dw, syntax, a.tag, a.vr, uint32(length)); err != nil {
		return err
	}
	if err := dw.Bytes(b); err != nil {
		return fmt.Errorf("writing value: %w", err)
	}
	return dw.Pad(int64(len(b)), a.vr.padding)
}

// checkEncodedLengths rejects values that fit the VR's maximum length in the character set they
// were measured in but not in cs, the one they are written with. Values that were already too
// long, as read from a file, are written unchanged.
func (a *StringAttribute) checkEncodedLengths(cs *SpecificCharacterSet) error {
	if !a.vr.charsetSensitive || a.vr.maxValueLength == 0 || cs == nil || cs == a.cs {
		return nil
	}
	for _, v := range a.values {
		if a.encodedLength(v) > a.vr.maxValueLength {
			continue
		}
		b, err := cs.Encode(v)
		if err != nil {
			return &EncodingError{a.tag, a.vr, err.Error()}
		}
		if len(b) > a.vr.maxValueLength {
			return a.encodingError("value %q is %d bytes in %v, longer than %d", v, len(b), cs, a.vr.maxValueLength)
		}
	}
	return nil
}

// readText reads a string value field of the given length. Only the byte that pads the value
// field to an even length is removed, so that re-encoding reproduces the value field. Spaces
// around the values are left to RepairValues.
func readText(dr *dcmReader, tag Tag, vr *VR, length uint32, cs *SpecificCharacterSet) (*StringAttribute, error) {
	a := NewStringAttribute(tag, vr)
	if vr.charsetSensitive {
		a.cs = cs
	}
	if length == 0 {
		return a, nil
	}

	b, err := dr.Bytes(int64(length))
	if err != nil {
		return nil, fmt.Errorf("reading text field value: %w", asUnexpected(err, dr))
	}

	b = trimPadByte(b, vr)
	valueField := string(b)
	if vr.charsetSensitive {
		if valueField, err = cs.Decode(b); err != nil {
			return nil, formatError(tag, "%v", err)
		}
	}

	// deal with value multiplicity
	strs := []string{valueField}
	if vr.multiValued {
		strs = strings.Split(valueField, "\\")
	}
	a.values = strs
	return a, nil
}

// trimPadByte drops the last byte of a value field when it is the VR's padding. UI fields
// padded with a space are accepted too.
func trimPadByte(b []byte, vr *VR) []byte {
	if len(b) == 0 {
		return b
	}
	last := b[len(b)-1]
	if last == vr.padding || (vr.kind == uniqueIdentifierVR && last == ' ') {
		return b[:len(b)-1]
	}
	return b
}
