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

import "testing"

func TestDictionary_VR(t *testing.T) {
	testCases := []struct {
		name    string
		tag     Tag
		creator string
		want    *VR
	}{
		{"patient name", PatientNameTag, "", PNVR},
		{"rows", RowsTag, "", USVR},
		{"sequence", referencedSeriesSequenceTag, "", SQVR},
		{"group length", NewTag(0x0010, 0x0000), "", ULVR},
		{"private creator", NewTag(0x0029, 0x0010), "", LOVR},
		{"known private element", NewTag(0x0029, 0x1010), "SIEMENS CSA HEADER", OBVR},
		{"private element of another creator", NewTag(0x0029, 0x1010), "ACME", UNVR},
		{"private element without creator", NewTag(0x0029, 0x1010), "", UNVR},
		{"overlay rows repeating group", NewTag(0x6002, 0x0010), "", USVR},
		{"delimiter", ItemTag, "", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DefaultDictionary.VR(tc.tag, tc.creator); got != tc.want {
				t.Fatalf("VR(%v, %q) => %v, want %v", tc.tag, tc.creator, got, tc.want)
			}
		})
	}
}

func TestDictionary_Name(t *testing.T) {
	testCases := []struct {
		tag     Tag
		creator string
		want    string
	}{
		{PatientNameTag, "", "PatientName"},
		{ItemTag, "", "Item"},
		{NewTag(0x0008, 0x0000), "", "Group Length"},
		{NewTag(0x0029, 0x0010), "", "Private Creator"},
		{NewTag(0x0029, 0x1110), "SIEMENS CSA HEADER", "CSA Image Header Info"},
		{NewTag(0x0029, 0x1110), "", ""},
	}

	for _, tc := range testCases {
		if got := DefaultDictionary.Name(tc.tag, tc.creator); got != tc.want {
			t.Fatalf("Name(%v, %q) => %q, want %q", tc.tag, tc.creator, got, tc.want)
		}
	}
}
