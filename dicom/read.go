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
)

// errStopped ends the top level data set early, see StopAtTag
var errStopped = errors.New("stopped before tag")

// readAttributeList reads attributes until the input ends or, inside an undefined length item,
// until the item delimiter, which is reported as errItemDelimiter along with the list.
func readAttributeList(dr *dcmReader, syntax *TransferSyntax, cs *SpecificCharacterSet, cfg *readConfig, top bool) (*AttributeList, error) {
	list := NewAttributeList()
	for {
		attr, err := readAttribute(dr, syntax, list, cs, cfg, top)
		switch {
		case err == io.EOF, err == errStopped:
			return list, nil
		case err == errItemDelimiter && top:
			logger.Warn().Int64("offset", dr.Offset()).Msg("item delimitation item in top level data set, stopping")
			return list, nil
		case err == errItemDelimiter:
			return list, err
		case err != nil:
			return nil, err
		case attr == nil:
			continue
		}

		list.attributes[attr.Tag()] = attr
		if attr.Tag() == SpecificCharacterSetTag {
			cs = resolveCharacterSet(attr, cfg.resolver)
			list.charset = cs
		}
	}
}

// resolveCharacterSet falls back to the default repertoire for unknown terms so that the rest of
// the data set can still be read
func resolveCharacterSet(attr Attribute, resolver CharacterSetResolver) *SpecificCharacterSet {
	terms, err := attr.StringValues()
	if err != nil {
		return DefaultCharacterSet
	}
	cs, err := resolver.Resolve(terms)
	if err != nil {
		logger.Warn().Err(err).Strs("terms", terms).Msg("unsupported specific character set, using default repertoire")
		return DefaultCharacterSet
	}
	logger.Debug().Stringer("charset", cs).Msg("specific character set")
	return cs
}

// readAttribute reads one attribute header and dispatches the value read on the VR. It returns
// a nil Attribute for attributes dropped by the read options.
func readAttribute(dr *dcmReader, syntax *TransferSyntax, list *AttributeList, cs *SpecificCharacterSet, cfg *readConfig, top bool) (Attribute, error) {
	tag, err := dr.Tag(syntax.ByteOrder)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("reading tag: %w", err)
	}

	switch tag {
	case ItemDelimitationItemTag:
		// handles the case when we are parsing a nested data set within an item of undefined
		// length
		length, err := dr.mustUInt32(syntax.ByteOrder)
		if err != nil {
			return nil, fmt.Errorf("reading 32 bit length of item delimitation: %w", err)
		}
		if length != 0 {
			logger.Warn().Uint32("length", length).Msg("non-zero length on item delimiter")
		}
		return nil, errItemDelimiter
	case ItemTag, SequenceDelimitationItemTag:
		return nil, formatError(tag, "unexpected delimiter outside of a sequence")
	}

	if top && cfg.stopAt != 0 && tag.Compare(cfg.stopAt) >= 0 {
		return nil, errStopped
	}

	vr, err := syntax.readVR(dr, tag, func(t Tag) *VR {
		if vr := cfg.dict.VR(t, list.privateCreator(t)); vr != nil {
			return vr
		}
		return UNVR
	})
	if err != nil {
		return nil, fmt.Errorf("reading vr of %v: %w", tag, asUnexpected(err, dr))
	}
	length, err := syntax.readValueLength(dr, vr)
	if err != nil {
		return nil, fmt.Errorf("reading length of %v: %w", tag, asUnexpected(err, dr))
	}

	attr, err := readValue(dr, tag, vr, length, syntax, cs, cfg)
	if err != nil {
		return nil, fmt.Errorf("reading value of %v %v: %w", tag, vr, err)
	}
	if cfg.dropGroupLengths && tag.IsGroupLength() {
		return nil, nil
	}
	return attr, nil
}

func readValue(dr *dcmReader, tag Tag, vr *VR, length uint32, syntax *TransferSyntax, cs *SpecificCharacterSet, cfg *readConfig) (Attribute, error) {
	if length == UndefinedLength {
		switch {
		case vr.kind == sequenceVR:
		case isPixelDataTag(tag) && vr.kind == bulkDataVR:
			// Specified in http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
			// undefined length pixel data means pixel data in encapsulated (compressed) format
			return readEncapsulatedFormat(dr, tag, vr, syntax.ByteOrder)
		case vr == UNVR:
			// an implicit VR sequence hidden behind UN, see PS3.5 6.2.2
			logger.Debug().Stringer("tag", tag).Msg("reading UN of undefined length as sequence")
			return readSequence(dr, tag, length, ImplicitVRLittleEndian, cs, cfg)
		default:
			return nil, formatError(tag, "undefined length is not allowed for %v", vr)
		}
	}

	switch vr.kind {
	case textVR, uniqueIdentifierVR:
		return readText(dr, tag, vr, length, cs)
	case numberBinaryVR:
		return readNumber(dr, tag, vr, length, syntax.ByteOrder)
	case bulkDataVR:
		attr, err := readOther(dr, tag, vr, length, syntax.ByteOrder, cfg.src, cfg.threshold)
		if err == nil && attr.IsDeferred() {
			logger.Debug().Stringer("tag", tag).Uint32("length", length).Msg("deferred bulk value")
		}
		return attr, err
	case sequenceVR:
		return readSequence(dr, tag, length, syntax, cs, cfg)
	case tagVR:
		return readTags(dr, tag, length, syntax.ByteOrder)
	}
	return nil, fmt.Errorf("unknown vr type found: %v", vr.kind)
}
