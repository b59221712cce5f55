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
	"errors"
	"reflect"
	"strings"
	"testing"
)

const secondaryCaptureUID = "1.2.840.10008.5.1.4.1.1.7"

func newTestFile(t *testing.T, syntax *TransferSyntax) *AttributeList {
	t.Helper()
	list := NewAttributeList()
	list.Put(mustString(MediaStorageSOPClassUIDTag, UIVR, secondaryCaptureUID))
	list.Put(mustString(TransferSyntaxUIDTag, UIVR, syntax.UID))
	list.Put(mustString(SOPClassUIDTag, UIVR, secondaryCaptureUID))
	list.Put(mustString(PatientNameTag, PNVR, "Doe^Joe"))
	list.Put(mustString(PatientIDTag, LOVR, "12345"))
	rows, _ := NewNumericAttributeWithValues[uint16](RowsTag, 2)
	list.Put(rows)
	columns, _ := NewNumericAttributeWithValues[uint16](ColumnsTag, 2)
	list.Put(columns)
	pixels := NewOtherAttribute(PixelDataTag, OWVR)
	if err := pixels.SetWords([]uint16{1, 2, 0x0300, 0xFFFF}); err != nil {
		t.Fatalf("SetWords => %v", err)
	}
	list.Put(pixels)
	return list
}

func TestFile_RoundTrip(t *testing.T) {
	for _, syntax := range []*TransferSyntax{ImplicitVRLittleEndian, ExplicitVRLittleEndian, ExplicitVRBigEndian,
		DeflatedExplicitVRLittleEndian} {
		t.Run(syntax.Name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteFile(&buf, newTestFile(t, syntax)); err != nil {
				t.Fatalf("WriteFile(_, _) => %v", err)
			}
			b := buf.Bytes()
			if got := string(b[preambleLength : preambleLength+4]); got != "DICM" {
				t.Fatalf("got signature %q, want DICM", got)
			}

			list, err := ReadFile(bytes.NewReader(b))
			if err != nil {
				t.Fatalf("ReadFile(_) => %v", err)
			}
			if got := list.GetString(TransferSyntaxUIDTag); got != syntax.UID {
				t.Fatalf("got %v, want %v", got, syntax.UID)
			}
			if got := list.GetString(PatientNameTag); got != "Doe^Joe" {
				t.Fatalf("got %v, want Doe^Joe", got)
			}
			if rows, err := list.GetInt(RowsTag); err != nil || rows != 2 {
				t.Fatalf("GetInt(%v) => (%v, %v), want 2", RowsTag, rows, err)
			}
			words, err := list.Get(PixelDataTag).ShortValues()
			if err != nil || !reflect.DeepEqual(words, []uint16{1, 2, 0x0300, 0xFFFF}) {
				t.Fatalf("ShortValues() => (%v, %v)", words, err)
			}
			version, _ := list.Get(FileMetaInformationVersionTag).ByteValues()
			if !reflect.DeepEqual(version, []byte{0x00, 0x01}) {
				t.Fatalf("got version %v, want [0 1]", version)
			}
		})
	}
}

func TestFile_MetaGroupLength(t *testing.T) {
	list := newTestFile(t, ExplicitVRLittleEndian)
	// a stale group length is replaced
	stale, _ := NewNumericAttributeWithValues[uint32](FileMetaInformationGroupLengthTag, 1000)
	list.Put(stale)

	var buf bytes.Buffer
	if err := WriteFile(&buf, list); err != nil {
		t.Fatalf("WriteFile(_, _) => %v", err)
	}
	got, err := ReadFile(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadFile(_) => %v", err)
	}
	length, err := got.GetInt(FileMetaInformationGroupLengthTag)
	if err != nil {
		t.Fatalf("GetInt(%v) => %v", FileMetaInformationGroupLengthTag, err)
	}
	// (0002,0001) OB 12+2, (0002,0002) UI 8+26, (0002,0010) UI 8+20
	if length != 76 {
		t.Fatalf("got group length %v, want 76", length)
	}
}

func TestFile_DeferredBulkData(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFile(&buf, newTestFile(t, ExplicitVRLittleEndian)); err != nil {
		t.Fatalf("WriteFile(_, _) => %v", err)
	}
	src := bytes.NewReader(buf.Bytes())
	list, err := ReadFile(bytes.NewReader(buf.Bytes()), WithDeferredBulkData(src, 8))
	if err != nil {
		t.Fatalf("ReadFile(_) => %v", err)
	}
	pixels := list.Get(PixelDataTag).(*OtherAttribute)
	if !pixels.IsDeferred() {
		t.Fatalf("expected pixel data to be deferred")
	}
	if _, err := pixels.ShortValues(); err != ErrValueDeferred {
		t.Fatalf("ShortValues() => %v, want %v", err, ErrValueDeferred)
	}
	if err := pixels.Materialize(); err != nil {
		t.Fatalf("Materialize() => %v", err)
	}
	words, err := pixels.ShortValues()
	if err != nil || !reflect.DeepEqual(words, []uint16{1, 2, 0x0300, 0xFFFF}) {
		t.Fatalf("ShortValues() => (%v, %v)", words, err)
	}
}

func TestFile_StopAtPixelData(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFile(&buf, newTestFile(t, ExplicitVRLittleEndian)); err != nil {
		t.Fatalf("WriteFile(_, _) => %v", err)
	}
	list, err := ReadFile(bytes.NewReader(buf.Bytes()), StopAtTag(PixelDataTag))
	if err != nil {
		t.Fatalf("ReadFile(_) => %v", err)
	}
	if list.Get(PixelDataTag) != nil {
		t.Fatalf("expected pixel data to be skipped")
	}
	if list.Get(TransferSyntaxUIDTag) == nil || list.Get(ColumnsTag) == nil {
		t.Fatalf("expected meta and data set elements before pixel data:\n%v", list)
	}
}

func TestFileWriter_Errors(t *testing.T) {
	noSyntax := NewAttributeList()
	noSyntax.Put(mustString(MediaStorageSOPClassUIDTag, UIVR, secondaryCaptureUID))
	var encodingErr *EncodingError
	if _, err := NewFileWriter(&bytes.Buffer{}, noSyntax); !errors.As(err, &encodingErr) {
		t.Fatalf("NewFileWriter(_, _) => %v, want EncodingError", err)
	}

	notMeta := NewAttributeList()
	notMeta.Put(mustString(TransferSyntaxUIDTag, UIVR, ExplicitVRLittleEndianUID))
	notMeta.Put(mustString(PatientIDTag, LOVR, "12345"))
	if _, err := NewFileWriter(&bytes.Buffer{}, notMeta); err == nil {
		t.Fatalf("expected error for data set element in meta header")
	}

	fw, err := NewFileWriter(&bytes.Buffer{}, notMeta.MetaElements())
	if err != nil {
		t.Fatalf("NewFileWriter(_, _) => %v", err)
	}
	if err := fw.WriteAttribute(mustString(TransferSyntaxUIDTag, UIVR, ExplicitVRLittleEndianUID)); err == nil {
		t.Fatalf("expected error writing meta element after the header")
	}
}

func TestReadFile_Errors(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFile(&buf, newTestFile(t, ExplicitVRLittleEndian)); err != nil {
		t.Fatalf("WriteFile(_, _) => %v", err)
	}
	valid := buf.Bytes()

	wrongMagic := append([]byte(nil), valid...)
	copy(wrongMagic[preambleLength:], "DICN")

	testCases := []struct {
		name  string
		input []byte
		check func(error) bool
	}{
		{"wrong signature", wrongMagic, func(err error) bool {
			var formatErr *DicomFormatError
			return errors.As(err, &formatErr) && strings.Contains(err.Error(), "signature")
		}},
		{"short preamble", valid[:64], func(err error) bool {
			var decodingErr *DecodingError
			return errors.As(err, &decodingErr)
		}},
		{"truncated meta header", valid[:preambleLength+4+12+20], func(err error) bool {
			var decodingErr *DecodingError
			return errors.As(err, &decodingErr)
		}},
		{"truncated pixel data", valid[:len(valid)-2], func(err error) bool {
			var decodingErr *DecodingError
			return errors.As(err, &decodingErr)
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ReadFile(bytes.NewReader(tc.input)); !tc.check(err) {
				t.Fatalf("ReadFile(_) => %v", err)
			}
		})
	}
}
