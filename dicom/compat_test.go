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
	"reflect"
	"testing"

	sdicom "github.com/suyashkumar/dicom"
	stag "github.com/suyashkumar/dicom/pkg/tag"
)

// Files written by this package are read by github.com/suyashkumar/dicom and vice versa.

func TestCompatibility_WrittenFileParses(t *testing.T) {
	for _, syntax := range []*TransferSyntax{ImplicitVRLittleEndian, ExplicitVRLittleEndian} {
		t.Run(syntax.Name, func(t *testing.T) {
			list := newTestFile(t, syntax)
			list.Remove(PixelDataTag)
			list.Put(mustString(MediaStorageSOPInstanceUIDTag, UIVR, "1.2.3.4"))

			var buf bytes.Buffer
			if err := WriteFile(&buf, list); err != nil {
				t.Fatalf("WriteFile(_, _) => %v", err)
			}
			b := buf.Bytes()
			ds, err := sdicom.Parse(bytes.NewReader(b), int64(len(b)), nil)
			if err != nil {
				t.Fatalf("Parse(_) => %v", err)
			}

			name, err := ds.FindElementByTag(stag.PatientName)
			if err != nil {
				t.Fatalf("FindElementByTag(PatientName) => %v", err)
			}
			if got := name.Value.GetValue(); !reflect.DeepEqual(got, []string{"Doe^Joe"}) {
				t.Fatalf("got %v, want [Doe^Joe]", got)
			}
			rows, err := ds.FindElementByTag(stag.Rows)
			if err != nil {
				t.Fatalf("FindElementByTag(Rows) => %v", err)
			}
			if got := rows.Value.GetValue(); !reflect.DeepEqual(got, []int{2}) {
				t.Fatalf("got %v, want [2]", got)
			}
		})
	}
}

func TestCompatibility_ReadsParsedFile(t *testing.T) {
	var elements []*sdicom.Element
	for _, e := range []struct {
		tag   stag.Tag
		value interface{}
	}{
		{stag.MediaStorageSOPClassUID, []string{secondaryCaptureUID}},
		{stag.MediaStorageSOPInstanceUID, []string{"1.2.3.4"}},
		{stag.TransferSyntaxUID, []string{ExplicitVRLittleEndianUID}},
		{stag.PatientName, []string{"Doe^Joe"}},
		{stag.Rows, []int{2}},
	} {
		elem, err := sdicom.NewElement(e.tag, e.value)
		if err != nil {
			t.Fatalf("NewElement(%v) => %v", e.tag, err)
		}
		elements = append(elements, elem)
	}

	var buf bytes.Buffer
	if err := sdicom.Write(&buf, sdicom.Dataset{Elements: elements}); err != nil {
		t.Fatalf("Write(_, _) => %v", err)
	}
	list, err := ReadFile(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadFile(_) => %v", err)
	}
	if got := list.GetString(PatientNameTag); got != "Doe^Joe" {
		t.Fatalf("got %q, want Doe^Joe", got)
	}
	if rows, err := list.GetInt(RowsTag); err != nil || rows != 2 {
		t.Fatalf("GetInt(%v) => (%v, %v), want 2", RowsTag, rows, err)
	}
	if got := list.GetString(MediaStorageSOPInstanceUIDTag); got != "1.2.3.4" {
		t.Fatalf("got %q, want 1.2.3.4", got)
	}
}
