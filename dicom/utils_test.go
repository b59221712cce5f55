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
	"bytes"
	"encoding/binary"
)

// explicitElement encodes an explicit VR little endian data element
func explicitElement(tag Tag, vrName string, value []byte) []byte {
	vr, err := LookupVR(vrName)
	if err != nil {
		panic(err)
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, tag.GroupNumber())
	binary.Write(&buf, binary.LittleEndian, tag.ElementNumber())
	buf.WriteString(vrName)
	if vr.HasLongLength() {
		buf.Write([]byte{0, 0})
		binary.Write(&buf, binary.LittleEndian, uint32(len(value)))
	} else {
		binary.Write(&buf, binary.LittleEndian, uint16(len(value)))
	}
	buf.Write(value)
	return buf.Bytes()
}

// implicitElement encodes an implicit VR little endian data element
func implicitElement(tag Tag, value []byte) []byte {
	return concat(header(tag, uint32(len(value))), value)
}

// header encodes a little endian tag followed by a 32-bit length, as used by items and implicit VR
// elements
func header(tag Tag, length uint32) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint16(b, tag.GroupNumber())
	binary.LittleEndian.PutUint16(b[2:], tag.ElementNumber())
	binary.LittleEndian.PutUint32(b[4:], length)
	return b
}

// explicitSequenceHeader is the header of an explicit VR little endian SQ element
func explicitSequenceHeader(tag Tag, length uint32) []byte {
	b := make([]byte, 12)
	binary.LittleEndian.PutUint16(b, tag.GroupNumber())
	binary.LittleEndian.PutUint16(b[2:], tag.ElementNumber())
	copy(b[4:], "SQ")
	binary.LittleEndian.PutUint32(b[8:], length)
	return b
}

var (
	itemDelimiter     = header(ItemDelimitationItemTag, 0)
	sequenceDelimiter = header(SequenceDelimitationItemTag, 0)
)

func concat(parts ...[]byte) []byte {
	var ret []byte
	for _, p := range parts {
		ret = append(ret, p...)
	}
	return ret
}

func mustString(tag Tag, vr *VR, values ...string) *StringAttribute {
	a, err := NewStringAttributeWithValues(tag, vr, values...)
	if err != nil {
		panic(err)
	}
	return a
}
