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
	"errors"
	"fmt"
	"io"
	"strings"
)

// SequenceItem is one nested data set of a sequence
type SequenceItem struct {
	List *AttributeList

	// Offset is the position of the item tag in the stream the item was last read from or written
	// to. 0 means unset.
	Offset int64
}

// SequenceAttribute models an attribute with VR SQ. Its values are the items of the sequence.
type SequenceAttribute struct {
	attributeBase
	items []*SequenceItem
}

func NewSequenceAttribute(tag Tag) *SequenceAttribute {
	return &SequenceAttribute{attributeBase: attributeBase{tag, SQVR}}
}

// AddItem appends a nested data set and returns the item holding it
func (a *SequenceAttribute) AddItem(list *AttributeList) *SequenceItem {
	item := &SequenceItem{List: list}
	a.items = append(a.items, item)
	return item
}

// Item returns the i-th item, or nil when out of range
func (a *SequenceAttribute) Item(i int) *SequenceItem {
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

func (a *SequenceAttribute) Items() []*SequenceItem {
	return a.items
}

func (a *SequenceAttribute) NumberOfItems() int {
	return len(a.items)
}

func (a *SequenceAttribute) ValueLength() uint32 {
	return UndefinedLength
}

func (a *SequenceAttribute) PaddedValueLength() uint32 {
	return UndefinedLength
}

// VM is the number of items
func (a *SequenceAttribute) VM() int {
	return len(a.items)
}

func (a *SequenceAttribute) IsCharacterInValueValid(rune) bool {
	return true
}

// AreValuesWellFormed checks every attribute of every item
func (a *SequenceAttribute) AreValuesWellFormed() bool {
	for _, item := range a.items {
		for _, attr := range item.List.Attributes() {
			if !attr.AreValuesWellFormed() {
				return false
			}
		}
	}
	return true
}

// RepairValues repairs every attribute of every item
func (a *SequenceAttribute) RepairValues() bool {
	ok := true
	for _, item := range a.items {
		for _, attr := range item.List.Attributes() {
			if !attr.RepairValues() {
				ok = false
			}
		}
	}
	return ok
}

func (a *SequenceAttribute) RemoveValues() {
	a.items = nil
}

func (a *SequenceAttribute) String() string {
	return a.string(0)
}

func (a *SequenceAttribute) string(indentLvl int) string {
	lines := []string{fmt.Sprintf("%v %v <%d items>", a.tag, a.vr, len(a.items))}
	for i, item := range a.items {
		indent := strings.Repeat("  ", indentLvl+1)
		lines = append(lines, fmt.Sprintf("%s> item %d (offset %d)", indent, i+1, item.Offset))
		lines = append(lines, item.List.string(indentLvl+2))
	}
	return strings.Join(lines, "\n")
}

// write always uses undefined length for the sequence and its items
func (a *SequenceAttribute) write(dw *dcmWriter, syntax *TransferSyntax, cs *SpecificCharacterSet) error {
	if err := writeHeader(dw, syntax, a.tag, a.vr, UndefinedLength); err != nil {
		return err
	}
	for i, item := range a.items {
		item.Offset = dw.Offset()
		if err := dw.Tag(syntax.ByteOrder, ItemTag); err != nil {
			return fmt.Errorf("writing item tag: %w", err)
		}
		if err := dw.UInt32(syntax.ByteOrder, UndefinedLength); err != nil {
			return fmt.Errorf("writing item length: %w", err)
		}
		if err := writeAttributeList(dw, item.List, syntax, cs); err != nil {
			return fmt.Errorf("writing item %d of %v: %w", i+1, a.tag, err)
		}
		if err := dw.Delimiter(syntax.ByteOrder, ItemDelimitationItemTag); err != nil {
			return err
		}
	}
	return dw.Delimiter(syntax.ByteOrder, SequenceDelimitationItemTag)
}

// errItemDelimiter ends the decoding of an undefined length item
var errItemDelimiter = errors.New("item delimitation item")

// readSequence reads the items of a sequence of explicit or undefined length
func readSequence(dr *dcmReader, tag Tag, length uint32, syntax *TransferSyntax, cs *SpecificCharacterSet, cfg *readConfig) (*SequenceAttribute, error) {
	seq := NewSequenceAttribute(tag)
	start := dr.Offset()
	outer := dr
	if length != UndefinedLength {
		dr = dr.Limit(int64(length))
	}

	for {
		offset := dr.Offset()
		itemTag, err := dr.Tag(syntax.ByteOrder)
		if err == io.EOF {
			if got := outer.Offset() - start; length != UndefinedLength && got == int64(length) {
				return seq, nil
			}
			return nil, NewDecodingError(dr.Offset(), "unexpected end of undefined length sequence %v: %w", tag, io.ErrUnexpectedEOF)
		}
		if err != nil {
			return nil, fmt.Errorf("reading item tag: %w", err)
		}
		itemLength, err := dr.mustUInt32(syntax.ByteOrder)
		if err != nil {
			return nil, fmt.Errorf("reading item length: %w", err)
		}

		switch itemTag {
		case SequenceDelimitationItemTag:
			if length != UndefinedLength {
				return nil, formatError(tag, "unexpected sequence delimitation item in explicit length sequence")
			}
			if itemLength != 0 {
				logger.Warn().Stringer("tag", tag).Uint32("length", itemLength).Msg("non-zero length on sequence delimiter")
			}
			return seq, nil
		case ItemTag:
		default:
			return nil, formatError(tag, "invalid item tag in sequence, got %v want %v or %v",
				itemTag, ItemTag, SequenceDelimitationItemTag)
		}

		list, err := readItem(dr, itemLength, syntax, cs, cfg)
		if err != nil {
			return nil, fmt.Errorf("reading item %d of %v: %w", seq.NumberOfItems()+1, tag, err)
		}
		seq.items = append(seq.items, &SequenceItem{list, offset})
	}
}

// readItem reads the data set of one item. The character set of the enclosing list is inherited
// unless the item declares its own.
func readItem(dr *dcmReader, length uint32, syntax *TransferSyntax, cs *SpecificCharacterSet, cfg *readConfig) (*AttributeList, error) {
	if length == UndefinedLength {
		list, err := readAttributeList(dr, syntax, cs, cfg, false)
		if err == errItemDelimiter {
			return list, nil
		}
		if err == nil {
			return nil, NewDecodingError(dr.Offset(), "item ended without item delimitation item: %w", io.ErrUnexpectedEOF)
		}
		return nil, err
	}

	start := dr.Offset()
	list, err := readAttributeList(dr.Limit(int64(length)), syntax, cs, cfg, false)
	if err == errItemDelimiter {
		return nil, formatError(ItemTag, "item delimitation item in explicit length item")
	}
	if err != nil {
		return nil, err
	}
	if got := dr.Offset() - start; got != int64(length) {
		return nil, NewDecodingError(dr.Offset(), "item of length %d ended after %d bytes: %w", length, got, io.ErrUnexpectedEOF)
	}
	return list, nil
}
