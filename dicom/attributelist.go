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
	"io"
	"sort"
	"strings"
)

// AttributeList is a DICOM data set: at most one Attribute per Tag, iterated in ascending tag
// order. Items of a sequence are AttributeLists too.
type AttributeList struct {
	attributes map[Tag]Attribute

	// charset is the Specific Character Set declared by this list. nil means the character set
	// of the enclosing list applies.
	charset *SpecificCharacterSet
}

func NewAttributeList() *AttributeList {
	return &AttributeList{attributes: map[Tag]Attribute{}}
}

// Get returns the attribute with the given tag, or nil
func (l *AttributeList) Get(tag Tag) Attribute {
	return l.attributes[tag]
}

// Put adds attr, replacing any attribute with the same tag
func (l *AttributeList) Put(attr Attribute) {
	l.attributes[attr.Tag()] = attr
	if attr.Tag() == SpecificCharacterSetTag {
		l.charset = nil
	}
}

// Remove deletes and returns the attribute with the given tag, or returns nil if there is none
func (l *AttributeList) Remove(tag Tag) Attribute {
	attr, ok := l.attributes[tag]
	if !ok {
		return nil
	}
	delete(l.attributes, tag)
	if tag == SpecificCharacterSetTag {
		l.charset = nil
	}
	return attr
}

// RemoveGroup deletes every attribute of the group and returns how many were removed
func (l *AttributeList) RemoveGroup(group uint16) int {
	removed := 0
	for tag := range l.attributes {
		if tag.GroupNumber() == group {
			l.Remove(tag)
			removed++
		}
	}
	return removed
}

func (l *AttributeList) Len() int {
	return len(l.attributes)
}

// SortedTags returns the tags of the list in ascending order
func (l *AttributeList) SortedTags() []Tag {
	tags := make([]Tag, 0, len(l.attributes))
	for tag := range l.attributes {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Compare(tags[j]) < 0
	})
	return tags
}

// Attributes returns the attributes in ascending tag order
func (l *AttributeList) Attributes() []Attribute {
	tags := l.SortedTags()
	ret := make([]Attribute, len(tags))
	for i, tag := range tags {
		ret[i] = l.attributes[tag]
	}
	return ret
}

// MetaElements returns a list sharing the File Meta Information (group 0002) attributes of l
func (l *AttributeList) MetaElements() *AttributeList {
	return l.filter(Tag.IsMetaElement)
}

// DataSetElements returns a list sharing every attribute of l but the File Meta Information
func (l *AttributeList) DataSetElements() *AttributeList {
	ret := l.filter(func(t Tag) bool { return !t.IsMetaElement() })
	ret.charset = l.charset
	return ret
}

func (l *AttributeList) filter(keep func(Tag) bool) *AttributeList {
	ret := NewAttributeList()
	for tag, attr := range l.attributes {
		if keep(tag) {
			ret.attributes[tag] = attr
		}
	}
	return ret
}

// GetString returns the first value of a string attribute, or "" when the attribute is absent or
// has no string values
func (l *AttributeList) GetString(tag Tag) string {
	attr := l.Get(tag)
	if attr == nil {
		return ""
	}
	values, err := attr.StringValues()
	if err != nil || len(values) == 0 {
		return ""
	}
	return values[0]
}

// GetInt returns the first value of a binary number or IS attribute
func (l *AttributeList) GetInt(tag Tag) (int64, error) {
	attr := l.Get(tag)
	if attr == nil {
		return 0, fmt.Errorf("%v not found", tag)
	}
	inter, ok := attr.(interface{ IntValues() ([]int64, error) })
	if !ok {
		return 0, fmt.Errorf("%v %v has no integer values", tag, attr.VR())
	}
	values, err := inter.IntValues()
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("%v is empty", tag)
	}
	return values[0], nil
}

// CharacterSet returns the Specific Character Set declared by the list, resolved with
// DefaultCharacterSetResolver when the list was not read from a stream. It returns
// DefaultCharacterSet when the list declares none.
func (l *AttributeList) CharacterSet() *SpecificCharacterSet {
	if cs := l.declaredCharacterSet(); cs != nil {
		return cs
	}
	return DefaultCharacterSet
}

// SetCharacterSet overrides the character set used to encode the text values of the list
func (l *AttributeList) SetCharacterSet(cs *SpecificCharacterSet) {
	l.charset = cs
}

func (l *AttributeList) declaredCharacterSet() *SpecificCharacterSet {
	if l.charset != nil {
		return l.charset
	}
	attr := l.Get(SpecificCharacterSetTag)
	if attr == nil {
		return nil
	}
	terms, err := attr.StringValues()
	if err != nil {
		return nil
	}
	cs, err := DefaultCharacterSetResolver.Resolve(terms)
	if err != nil {
		logger.Warn().Err(err).Strs("terms", terms).Msg("unsupported specific character set, using default repertoire")
		return nil
	}
	l.charset = cs
	return cs
}

// privateCreator returns the creator reserving the private block that tag belongs to
func (l *AttributeList) privateCreator(tag Tag) string {
	if !tag.IsPrivate() || tag.IsPrivateCreator() || tag.ElementNumber() < 0x1000 {
		return ""
	}
	return strings.TrimSpace(l.GetString(tag.PrivateCreatorTag()))
}

// Read decodes a data set in the given transfer syntax from r until r is exhausted and adds its
// attributes to l. Any error aborts the read, and l is left unchanged.
func (l *AttributeList) Read(r io.Reader, syntax *TransferSyntax, opts ...ReadOption) error {
	cfg := newReadConfig(opts)
	read, err := readAttributeList(newDcmReader(r), syntax, l.CharacterSet(), cfg, true)
	if err != nil {
		return err
	}
	for tag, attr := range read.attributes {
		l.attributes[tag] = attr
	}
	if read.charset != nil {
		l.charset = read.charset
	}
	return nil
}

// Write encodes the attributes of l in ascending tag order in the given transfer syntax.
// Sequences are written with undefined length and the offsets of their items are updated.
func (l *AttributeList) Write(w io.Writer, syntax *TransferSyntax) error {
	return writeAttributeList(newDcmWriter(w), l, syntax, DefaultCharacterSet)
}

func (l *AttributeList) String() string {
	return l.string(0)
}

func (l *AttributeList) string(indentLvl int) string {
	indent := strings.Repeat("  ", indentLvl)
	lines := make([]string, 0, l.Len())
	for _, attr := range l.Attributes() {
		var line string
		if seq, ok := attr.(*SequenceAttribute); ok {
			line = seq.string(indentLvl)
		} else {
			line = attr.String()
		}
		if name := DefaultDictionary.Name(attr.Tag(), l.privateCreator(attr.Tag())); name != "" {
			line = strings.Replace(line, " ", " "+name+" ", 1)
		}
		lines = append(lines, indent+line)
	}
	return strings.Join(lines, "\n")
}
