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
	"io"
	"reflect"
	"testing"
)

func dcmReaderFromBytes(data []byte) *dcmReader {
	return newDcmReader(bytes.NewBuffer(data))
}

func readOne(data []byte, syntax *TransferSyntax, opts ...ReadOption) (Attribute, error) {
	return readAttribute(dcmReaderFromBytes(data), syntax, NewAttributeList(), DefaultCharacterSet, newReadConfig(opts), false)
}

func encode(t *testing.T, attr Attribute, syntax *TransferSyntax) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := attr.write(newDcmWriter(&buf), syntax, DefaultCharacterSet); err != nil {
		t.Fatalf("write(%v) => %v", attr, err)
	}
	return buf.Bytes()
}

func TestReadAttribute(t *testing.T) {
	// see http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2 for byte
	// structure
	testCases := []struct {
		name   string
		bytes  []byte
		syntax *TransferSyntax
		tag    Tag
		vr     *VR
		values interface{}
	}{
		{
			"unsigned long ExplicitVRLittleEndian",
			[]byte{0x02, 0x00, 0x00, 0x00, 'U', 'L', 0x04, 0x00, 0xCA, 0x00, 0x00, 0x00},
			ExplicitVRLittleEndian,
			FileMetaInformationGroupLengthTag, ULVR, []uint32{202},
		},
		{
			"unsigned short ExplicitVRBigEndian",
			[]byte{0x00, 0x28, 0x00, 0x10, 'U', 'S', 0x00, 0x02, 0x02, 0x00},
			ExplicitVRBigEndian,
			RowsTag, USVR, []uint16{512},
		},
		{
			"unsigned short ImplicitVRLittleEndian",
			[]byte{0x28, 0x00, 0x11, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
			ImplicitVRLittleEndian,
			ColumnsTag, USVR, []uint16{256},
		},
		{
			"person name with padding",
			[]byte{0x10, 0x00, 0x10, 0x00, 'P', 'N', 0x08, 0x00, 'D', 'o', 'e', '^', 'J', 'o', 'e', ' '},
			ExplicitVRLittleEndian,
			PatientNameTag, PNVR, []string{"Doe^Joe"},
		},
		{
			"unique identifier with null padding",
			[]byte{0x08, 0x00, 0x16, 0x00, 'U', 'I', 0x04, 0x00, '1', '.', '2', 0x00},
			ExplicitVRLittleEndian,
			SOPClassUIDTag, UIVR, []string{"1.2"},
		},
		{
			"code string multiplicity",
			[]byte{0x08, 0x00, 0x08, 0x00, 'C', 'S', 0x0A, 0x00, 'A', '\\', ' ', 'B', '\\', '\\', 'C', 'D', 'E', ' '},
			ExplicitVRLittleEndian,
			NewTag(0x0008, 0x0008), CSVR, []string{"A", " B", "", "CDE"},
		},
		{
			"code string with padded inner value",
			[]byte{0x08, 0x00, 0x08, 0x00, 'C', 'S', 0x04, 0x00, 'A', ' ', '\\', 'B'},
			ExplicitVRLittleEndian,
			NewTag(0x0008, 0x0008), CSVR, []string{"A ", "B"},
		},
		{
			"long text keeps trailing line break",
			[]byte{0x20, 0x00, 0x00, 0x40, 'L', 'T', 0x08, 0x00, 'L', 'i', 'n', 'e', '1', '\r', '\n', ' '},
			ExplicitVRLittleEndian,
			NewTag(0x0020, 0x4000), LTVR, []string{"Line1\r\n"},
		},
		{
			"attribute tag",
			[]byte{0x20, 0x00, 0x09, 0x91, 'A', 'T', 0x04, 0x00, 0x20, 0x00, 0x32, 0x00},
			ExplicitVRLittleEndian,
			NewTag(0x0020, 0x9109), ATVR, []Tag{NewTag(0x0020, 0x0032)},
		},
		{
			"float double",
			[]byte{0x18, 0x00, 0x88, 0x00, 'F', 'D', 0x08, 0x00, 0, 0, 0, 0, 0, 0, 0xF8, 0x3F},
			ExplicitVRLittleEndian,
			NewTag(0x0018, 0x0088), FDVR, []float64{1.5},
		},
		{
			"signed short ExplicitVRBigEndian",
			[]byte{0x00, 0x28, 0x01, 0x06, 'S', 'S', 0x00, 0x04, 0xFF, 0xFE, 0x00, 0x05},
			ExplicitVRBigEndian,
			NewTag(0x0028, 0x0106), SSVR, []int16{-2, 5},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			attr, err := readOne(tc.bytes, tc.syntax)
			if err != nil {
				t.Fatalf("readAttribute(_, _) => %v", err)
			}
			if attr.Tag() != tc.tag || attr.VR() != tc.vr {
				t.Fatalf("got %v %v, want %v %v", attr.Tag(), attr.VR(), tc.tag, tc.vr)
			}
			got := reflect.ValueOf(attr).MethodByName("Values").Call(nil)[0].Interface()
			if !reflect.DeepEqual(got, tc.values) {
				t.Fatalf("got %v, want %v", got, tc.values)
			}

			// the padded value field comes back unchanged
			if encoded := encode(t, attr, tc.syntax); !bytes.Equal(encoded, tc.bytes) {
				t.Fatalf("re-encoded got %v, want %v", encoded, tc.bytes)
			}
		})
	}
}

func TestRoundTrip_AllVRs(t *testing.T) {
	build := func(vr *VR) Attribute {
		tag := NewTag(0x0011, 0x1001)
		switch vr.kind {
		case textVR, uniqueIdentifierVR:
			a := NewStringAttribute(tag, vr)
			value := map[*VR]string{
				AEVR: "STORESCP", ASVR: "035Y", CSVR: "ORIGINAL", DAVR: "20200101", DSVR: "1.5",
				DTVR: "20200101120000", ISVR: "123", TMVR: "1200", UIVR: "1.2.3", URVR: "http://a/b",
			}[vr]
			if value == "" {
				value = "text"
			}
			if err := a.SetValues(value); err != nil {
				t.Fatalf("SetValues => %v", err)
			}
			return a
		case bulkDataVR:
			a := NewOtherAttribute(tag, vr)
			if err := a.SetBytes(make([]byte, 2*vr.elementSize*4)); err != nil {
				t.Fatalf("SetBytes => %v", err)
			}
			return a
		case tagVR:
			a := NewTagAttribute(tag)
			a.SetValues(PixelDataTag)
			return a
		case sequenceVR:
			a := NewSequenceAttribute(tag)
			a.AddItem(NewAttributeList())
			return a
		}
		a, _ := newNumericAttributeForVR(tag, vr)
		return a
	}

	for _, syntax := range []*TransferSyntax{ExplicitVRLittleEndian, ExplicitVRBigEndian} {
		for name, vr := range vrLookupMap {
			t.Run(syntax.Name+"/"+name, func(t *testing.T) {
				attr := build(vr)
				encoded := encode(t, attr, syntax)
				if len(encoded)%2 != 0 {
					t.Fatalf("encoded length %d is odd", len(encoded))
				}
				decoded, err := readOne(encoded, syntax)
				if err != nil {
					t.Fatalf("readAttribute(_, _) => %v", err)
				}
				if decoded.VR() != vr {
					t.Fatalf("got %v, want %v", decoded.VR(), vr)
				}
				if again := encode(t, decoded, syntax); !bytes.Equal(again, encoded) {
					t.Fatalf("got %v, want %v", again, encoded)
				}
			})
		}
	}
}

func TestPadding(t *testing.T) {
	testCases := []struct {
		name    string
		attr    func() Attribute
		padding byte
	}{
		{"text pads with space", func() Attribute {
			a, _ := NewStringAttributeWithValues(PatientIDTag, LOVR, "ABC")
			return a
		}, ' '},
		{"unique identifier pads with null", func() Attribute {
			a, _ := NewStringAttributeWithValues(SOPClassUIDTag, UIVR, "1.2.3")
			return a
		}, 0x00},
		{"other byte pads with zero", func() Attribute {
			a := NewOtherAttribute(PixelDataTag, OBVR)
			a.SetBytes([]byte{0xFF, 0xFF, 0xFF})
			return a
		}, 0x00},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			attr := tc.attr()
			encoded := encode(t, attr, ExplicitVRLittleEndian)
			if len(encoded)%2 != 0 {
				t.Fatalf("encoded length %d is odd", len(encoded))
			}
			if got := encoded[len(encoded)-1]; got != tc.padding {
				t.Fatalf("got padding %#x, want %#x", got, tc.padding)
			}
			if attr.PaddedValueLength() != attr.ValueLength()+1 {
				t.Fatalf("got padded length %v for length %v", attr.PaddedValueLength(), attr.ValueLength())
			}
		})
	}
}

func TestReadAttribute_Truncated(t *testing.T) {
	testCases := []struct {
		name  string
		bytes []byte
	}{
		{"half a tag", []byte{0x10, 0x00}},
		{"missing length", []byte{0x10, 0x00, 0x10, 0x00, 'P', 'N'}},
		{"short value", []byte{0x10, 0x00, 0x10, 0x00, 'P', 'N', 0x08, 0x00, 'D', 'o', 'e'}},
		{"missing value", []byte{0x10, 0x00, 0x10, 0x00, 'P', 'N', 0x08, 0x00}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := readOne(tc.bytes, ExplicitVRLittleEndian)
			var decodingErr *DecodingError
			if !errors.As(err, &decodingErr) {
				t.Fatalf("readAttribute(_, _) => %v, want DecodingError", err)
			}
			if !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Fatalf("expected %v to wrap io.ErrUnexpectedEOF", err)
			}
		})
	}
}

func TestReadAttribute_FormatErrors(t *testing.T) {
	testCases := []struct {
		name  string
		bytes []byte
	}{
		{"US of odd length", []byte{0x28, 0x00, 0x10, 0x00, 'U', 'S', 0x03, 0x00, 0x01, 0x02, 0x03}},
		{"OW of odd length", append([]byte{0x09, 0x00, 0x10, 0x10, 'O', 'W', 0, 0, 0x03, 0, 0, 0}, 1, 2, 3)},
		{"unknown VR", []byte{0x28, 0x00, 0x10, 0x00, 'Z', 'Z', 0x02, 0x00, 0x01, 0x02}},
		{"undefined length text", []byte{0x10, 0x00, 0x10, 0x00, 'U', 'T', 0, 0, 0xFF, 0xFF, 0xFF, 0xFF}},
		{"stray item", []byte{0xFE, 0xFF, 0x00, 0xE0, 0, 0, 0, 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := readOne(tc.bytes, ExplicitVRLittleEndian)
			var formatErr *DicomFormatError
			if !errors.As(err, &formatErr) {
				t.Fatalf("readAttribute(_, _) => %v, want DicomFormatError", err)
			}
		})
	}
}

func TestOtherAttribute_ByteOrder(t *testing.T) {
	be := []byte{0x7F, 0xE0, 0x00, 0x10, 'O', 'W', 0, 0, 0, 0, 0, 4, 0x12, 0x34, 0x56, 0x78}
	attr, err := readOne(be, ExplicitVRBigEndian)
	if err != nil {
		t.Fatalf("readAttribute(_, _) => %v", err)
	}
	words, err := attr.ShortValues()
	if err != nil {
		t.Fatalf("ShortValues() => %v", err)
	}
	if !reflect.DeepEqual(words, []uint16{0x1234, 0x5678}) {
		t.Fatalf("got %x, want [1234 5678]", words)
	}
	b, _ := attr.ByteValues()
	if !reflect.DeepEqual(b, []byte{0x34, 0x12, 0x78, 0x56}) {
		t.Fatalf("got %x, want little endian bytes", b)
	}
	if again := encode(t, attr, ExplicitVRBigEndian); !bytes.Equal(again, be) {
		t.Fatalf("got %v, want %v", again, be)
	}
}

func TestOtherAttribute_Deferred(t *testing.T) {
	data := []byte{0xE0, 0x7F, 0x10, 0x00, 'O', 'B', 0, 0, 0x04, 0, 0, 0, 1, 2, 3, 4}
	attr, err := readOne(data, ExplicitVRLittleEndian, WithDeferredBulkData(bytes.NewReader(data), 4))
	if err != nil {
		t.Fatalf("readAttribute(_, _) => %v", err)
	}
	other := attr.(*OtherAttribute)
	if !other.IsDeferred() {
		t.Fatalf("expected value to be deferred")
	}
	if _, err := other.ByteValues(); err != ErrValueDeferred {
		t.Fatalf("ByteValues() => %v, want %v", err, ErrValueDeferred)
	}
	if other.ValueLength() != 4 {
		t.Fatalf("got %v, want 4", other.ValueLength())
	}
	if err := other.Materialize(); err != nil {
		t.Fatalf("Materialize() => %v", err)
	}
	b, err := other.ByteValues()
	if err != nil || !reflect.DeepEqual(b, []byte{1, 2, 3, 4}) {
		t.Fatalf("ByteValues() => (%v, %v), want [1 2 3 4]", b, err)
	}

	short, err := readOne(data, ExplicitVRLittleEndian, WithDeferredBulkData(bytes.NewReader(data), 5))
	if err != nil {
		t.Fatalf("readAttribute(_, _) => %v", err)
	}
	if short.(*OtherAttribute).IsDeferred() {
		t.Fatalf("expected value below the threshold to be read")
	}
}

func TestOtherAttribute_DeferredTruncatedSource(t *testing.T) {
	data := []byte{0xE0, 0x7F, 0x10, 0x00, 'O', 'B', 0, 0, 0x04, 0, 0, 0, 1, 2, 3, 4}
	attr, err := readOne(data, ExplicitVRLittleEndian, WithDeferredBulkData(bytes.NewReader(data[:14]), 1))
	if err != nil {
		t.Fatalf("readAttribute(_, _) => %v", err)
	}
	var decodingErr *DecodingError
	if err := attr.(*OtherAttribute).Materialize(); !errors.As(err, &decodingErr) {
		t.Fatalf("Materialize() => %v, want DecodingError", err)
	}
}

func TestNumericAttribute(t *testing.T) {
	a, err := NewNumericAttributeWithValues[float32](NewTag(0x0018, 0x1310), 1.5, 2)
	if err != nil {
		t.Fatalf("NewNumericAttributeWithValues => %v", err)
	}
	if a.VR() != FLVR || a.VM() != 2 || a.ValueLength() != 8 {
		t.Fatalf("got %v VM %v length %v, want FL 2 8", a.VR(), a.VM(), a.ValueLength())
	}
	floats, err := a.FloatValues()
	if err != nil || !reflect.DeepEqual(floats, []float32{1.5, 2}) {
		t.Fatalf("FloatValues() => (%v, %v)", floats, err)
	}
	if _, err := a.ShortValues(); err == nil {
		t.Fatalf("expected error for ShortValues on FL")
	}
	if !a.IsCharacterInValueValid('x') || !a.AreValuesWellFormed() {
		t.Fatalf("binary numbers are always valid")
	}

	encoded := encode(t, a, ExplicitVRBigEndian)
	want := []byte{0x00, 0x18, 0x13, 0x10, 'F', 'L', 0x00, 0x08, 0x3F, 0xC0, 0, 0, 0x40, 0, 0, 0}
	if !bytes.Equal(encoded, want) {
		t.Fatalf("got %v, want %v", encoded, want)
	}
}

func TestNewAttribute(t *testing.T) {
	testCases := []struct {
		vr       *VR
		expected interface{}
	}{
		{PNVR, &StringAttribute{}},
		{UIVR, &StringAttribute{}},
		{USVR, &NumericAttribute[uint16]{}},
		{SVVR, &NumericAttribute[int64]{}},
		{FDVR, &NumericAttribute[float64]{}},
		{OWVR, &OtherAttribute{}},
		{UNVR, &OtherAttribute{}},
		{SQVR, &SequenceAttribute{}},
		{ATVR, &TagAttribute{}},
	}

	for _, tc := range testCases {
		attr, err := NewAttribute(NewTag(0x0011, 0x1010), tc.vr)
		if err != nil {
			t.Fatalf("NewAttribute(_, %v) => %v", tc.vr, err)
		}
		if reflect.TypeOf(attr) != reflect.TypeOf(tc.expected) {
			t.Fatalf("got %T, want %T", attr, tc.expected)
		}
		if attr.VR() != tc.vr {
			t.Fatalf("got %v, want %v", attr.VR(), tc.vr)
		}
	}
}
