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
	"strings"

	dcmtag "github.com/suyashkumar/dicom/pkg/tag"
)

// Dictionary resolves the VR and name of an Attribute from its tag. Private tags additionally need
// the private creator string that reserved their block; for standard tags it is ignored.
// Implementations are read-only and safe for concurrent lookups.
type Dictionary interface {
	VR(tag Tag, privateCreator string) *VR
	Name(tag Tag, privateCreator string) string
}

// PrivateEntry describes one element of a private dictionary. Element is the low byte of the
// element number, since the high byte depends on which block the creator was assigned.
type PrivateEntry struct {
	Creator string
	Group   uint16
	Element uint8
	VR      *VR
	Name    string
}

type privateKey struct {
	creator string
	group   uint16
	element uint8
}

// DefaultDictionary is the standard data dictionary plus a few widely used private elements
var DefaultDictionary = NewDictionary(
	PrivateEntry{"SIEMENS CSA HEADER", 0x0029, 0x08, CSVR, "CSA Image Header Type"},
	PrivateEntry{"SIEMENS CSA HEADER", 0x0029, 0x09, LOVR, "CSA Image Header Version"},
	PrivateEntry{"SIEMENS CSA HEADER", 0x0029, 0x10, OBVR, "CSA Image Header Info"},
	PrivateEntry{"SIEMENS CSA HEADER", 0x0029, 0x20, OBVR, "CSA Series Header Info"},
	PrivateEntry{"GEMS_IDEN_01", 0x0009, 0x01, LOVR, "Full Fidelity"},
	PrivateEntry{"GEMS_IDEN_01", 0x0009, 0x02, SHVR, "Suite Id"},
)

// standardDictionary is backed by the public data dictionary tables of
// github.com/suyashkumar/dicom/pkg/tag, which are immutable package level data.
type standardDictionary struct {
	private map[privateKey]PrivateEntry
}

// NewDictionary returns the standard data dictionary extended with the given private entries
func NewDictionary(private ...PrivateEntry) Dictionary {
	d := &standardDictionary{map[privateKey]PrivateEntry{}}
	for _, e := range private {
		d.private[privateKey{e.Creator, e.Group, e.Element}] = e
	}
	return d
}

// wildcardMasks handles the repeating groups and elements of the data dictionary, e.g. Curve
// Data (50xx,3000) or Overlay Data (60xx,3000). The dictionary stores the tag with the x's set to
// 0, so (tag & mask) is looked up after an exact match fails.
var wildcardMasks = []uint32{0xFF00FFFF, 0xFFFFFF00, 0xFFFFFF0F, 0xFFFF000F, 0xFFFF0000}

func (d *standardDictionary) lookup(tag Tag) (dcmtag.Info, bool) {
	if info, err := dcmtag.Find(dcmtag.Tag{Group: tag.GroupNumber(), Element: tag.ElementNumber()}); err == nil {
		return info, true
	}
	for _, m := range wildcardMasks {
		masked := Tag(uint32(tag) & m)
		if masked == tag {
			continue
		}
		info, err := dcmtag.Find(dcmtag.Tag{Group: masked.GroupNumber(), Element: masked.ElementNumber()})
		if err == nil {
			return info, true
		}
	}
	return dcmtag.Info{}, false
}

func (d *standardDictionary) privateEntry(tag Tag, creator string) (PrivateEntry, bool) {
	creator = strings.TrimSpace(creator)
	if creator == "" {
		return PrivateEntry{}, false
	}
	e, ok := d.private[privateKey{creator, tag.GroupNumber(), uint8(tag.ElementNumber() & 0xFF)}]
	return e, ok
}

// VR returns the dictionary VR of tag. Group length elements are UL, private creator elements are
// LO, and tags that cannot be resolved are UN. When the standard lists several VRs (e.g. OB or OW)
// the last one is chosen.
func (d *standardDictionary) VR(tag Tag, privateCreator string) *VR {
	switch {
	case tag.IsGroupLength():
		return ULVR
	case tag.IsDelimiter():
		return nil
	case tag.IsPrivateCreator():
		return LOVR
	case tag.IsPrivate():
		if e, ok := d.privateEntry(tag, privateCreator); ok {
			return e.VR
		}
		return UNVR
	}

	info, ok := d.lookup(tag)
	if !ok || len(info.VRs) == 0 {
		return UNVR
	}
	vr, err := LookupVR(info.VRs[len(info.VRs)-1])
	if err != nil {
		return UNVR
	}
	return vr
}

// Name returns the dictionary name of tag, or "" when it is unknown
func (d *standardDictionary) Name(tag Tag, privateCreator string) string {
	switch {
	case tag == ItemTag:
		return "Item"
	case tag == ItemDelimitationItemTag:
		return "Item Delimitation Item"
	case tag == SequenceDelimitationItemTag:
		return "Sequence Delimitation Item"
	case tag.IsGroupLength():
		return "Group Length"
	case tag.IsPrivateCreator():
		return "Private Creator"
	case tag.IsPrivate():
		if e, ok := d.privateEntry(tag, privateCreator); ok {
			return e.Name
		}
		return ""
	}

	if info, ok := d.lookup(tag); ok {
		return info.Name
	}
	return ""
}
