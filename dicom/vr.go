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
	"math"
	"strconv"
	"strings"
)

// vrType is to group common encodings together
type vrType int

const (
	// textVR is for value fields that will be interpreted as simple text with space padding
	textVR vrType = iota

	// numberBinaryVR is for value fields that are parsed as binary numbers
	numberBinaryVR

	// bulkDataVR groups the other-binary VRs (OB, OW, OF, ...). They always have VM 1.
	bulkDataVR

	// uniqueIdentifierVR is for VR: UI. It has null padding
	uniqueIdentifierVR

	// sequenceVR is for VR: SQ
	sequenceVR

	// tagVR is for tags. Distinct from numberBinaryVR due to little endian byte ordering
	tagVR
)

// UndefinedLength as specified
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.1
const UndefinedLength = 0xffffffff

// maxShortLength is the largest value length that fits the 16-bit length field of explicit VR
const maxShortLength = 0xfffe

// maxLongLength is the largest even value length that fits the 32-bit length field
const maxLongLength = 0xfffffffe

// repairPolicy says what RepairValues may do with a value of a given VR
type repairPolicy struct {
	// truncate allows values longer than the VR maximum to be cut to the maximum
	truncate bool

	// replaceInvalid allows characters failing the VR's character predicate to be replaced
	replaceInvalid bool

	// replacement is written in place of an invalid character. The zero rune is the null marker
	// and means the character is dropped.
	replacement rune
}

// VR models the DICOM Value representations (VR)
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
type VR struct {
	// Name represents the 2-character VR Code
	Name string

	kind vrType

	// longLength is true when explicit VR encodes the length in 2 reserved bytes + 32 bits
	longLength bool

	// elementSize is the width in bytes of one binary value (or one element of bulk data)
	elementSize int

	padding byte

	// maxValueLength is the maximum length in bytes of one value, 0 when only bounded by the
	// length field
	maxValueLength int

	// multiValued is false for VRs where backslash is an ordinary character (LT, ST, UT, UR)
	multiValued bool

	// charsetSensitive marks VRs whose bytes are decoded with the Specific Character Set
	charsetSensitive bool

	// trimLeading is true when leading spaces are insignificant
	trimLeading bool

	validChar  func(r rune) bool
	wellFormed func(s string) bool
	repair     repairPolicy
}

func (vr *VR) String() string {
	if vr == nil {
		return "??"
	}
	return vr.Name
}

// IsText is true for VRs whose values are character strings
func (vr *VR) IsText() bool {
	return vr.kind == textVR || vr.kind == uniqueIdentifierVR
}

// IsBinaryNumber is true for the fixed width binary number VRs (SS, US, SL, UL, SV, UV, FL, FD)
func (vr *VR) IsBinaryNumber() bool {
	return vr.kind == numberBinaryVR
}

// IsBulkData is true for the other-binary VRs (OB, OD, OF, OL, OV, OW, UN)
func (vr *VR) IsBulkData() bool {
	return vr.kind == bulkDataVR
}

// IsSequence is true for SQ
func (vr *VR) IsSequence() bool {
	return vr.kind == sequenceVR
}

// HasLongLength is true when the explicit VR encoding of the VR uses a 32-bit length field.
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
func (vr *VR) HasLongLength() bool {
	return vr.longLength
}

// MaxValueLength is the maximum length in bytes of a single value, or 0 if unbounded
func (vr *VR) MaxValueLength() int {
	return vr.maxValueLength
}

// maxEntireLength is the longest value field the VR can be written with
func (vr *VR) maxEntireLength() int64 {
	if vr.longLength {
		return maxLongLength
	}
	return maxShortLength
}

var vrLookupMap = map[string]*VR{}

func newVR(vr *VR) *VR {
	vrLookupMap[vr.Name] = vr
	return vr
}

// LookupVR returns the VR with the given 2-character code
func LookupVR(name string) (*VR, error) {
	r, ok := vrLookupMap[name]
	if !ok {
		return nil, fmt.Errorf("unknown vr name: %q", name)
	}
	return r, nil
}

var (
	dropInvalid  = repairPolicy{replaceInvalid: true}
	spaceInvalid = repairPolicy{truncate: true, replaceInvalid: true, replacement: ' '}
)

// VR list obtained from
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
var (
	// textual VRs
	CSVR = newVR(&VR{Name: "CS", kind: textVR, padding: ' ', maxValueLength: 16, multiValued: true,
		trimLeading: true, validChar: isCodeStringChar, repair: repairPolicy{}})
	SHVR = newVR(&VR{Name: "SH", kind: textVR, padding: ' ', maxValueLength: 16, multiValued: true,
		charsetSensitive: true, trimLeading: true, validChar: isSingleLineChar, repair: spaceInvalid})
	LOVR = newVR(&VR{Name: "LO", kind: textVR, padding: ' ', maxValueLength: 64, multiValued: true,
		charsetSensitive: true, trimLeading: true, validChar: isSingleLineChar, repair: spaceInvalid})
	STVR = newVR(&VR{Name: "ST", kind: textVR, padding: ' ', maxValueLength: 1024,
		charsetSensitive: true, validChar: isTextChar, repair: spaceInvalid})
	LTVR = newVR(&VR{Name: "LT", kind: textVR, padding: ' ', maxValueLength: 10240,
		charsetSensitive: true, validChar: isTextChar, repair: spaceInvalid})
	ASVR = newVR(&VR{Name: "AS", kind: textVR, padding: ' ', maxValueLength: 4, multiValued: true,
		trimLeading: true, validChar: isAgeStringChar, wellFormed: isWellFormedAge})

	// person name
	PNVR = newVR(&VR{Name: "PN", kind: textVR, padding: ' ', maxValueLength: 64 * 3, multiValued: true,
		charsetSensitive: true, trimLeading: true, validChar: isSingleLineChar,
		wellFormed: isWellFormedPersonName, repair: spaceInvalid})

	// application entity
	AEVR = newVR(&VR{Name: "AE", kind: textVR, padding: ' ', maxValueLength: 16, multiValued: true,
		trimLeading: true, validChar: isApplicationEntityChar, repair: repairPolicy{truncate: true}})

	// dates/time VR
	DAVR = newVR(&VR{Name: "DA", kind: textVR, padding: ' ', maxValueLength: 8, multiValued: true,
		trimLeading: true, validChar: isDigit, wellFormed: isWellFormedDate, repair: dropInvalid})
	TMVR = newVR(&VR{Name: "TM", kind: textVR, padding: ' ', maxValueLength: 16, multiValued: true,
		trimLeading: true, validChar: isTimeChar, wellFormed: isWellFormedTime, repair: dropInvalid})
	DTVR = newVR(&VR{Name: "DT", kind: textVR, padding: ' ', maxValueLength: 26, multiValued: true,
		trimLeading: true, validChar: isDateTimeChar, wellFormed: isWellFormedDateTime, repair: dropInvalid})

	// textual numbers
	ISVR = newVR(&VR{Name: "IS", kind: textVR, padding: ' ', maxValueLength: 12, multiValued: true,
		trimLeading: true, validChar: isIntegerStringChar, wellFormed: isWellFormedInteger})
	DSVR = newVR(&VR{Name: "DS", kind: textVR, padding: ' ', maxValueLength: 16, multiValued: true,
		trimLeading: true, validChar: isDecimalStringChar, wellFormed: isWellFormedDecimal})

	// binary numbers
	SSVR = newVR(&VR{Name: "SS", kind: numberBinaryVR, elementSize: 2})
	USVR = newVR(&VR{Name: "US", kind: numberBinaryVR, elementSize: 2})
	SLVR = newVR(&VR{Name: "SL", kind: numberBinaryVR, elementSize: 4})
	ULVR = newVR(&VR{Name: "UL", kind: numberBinaryVR, elementSize: 4})
	SVVR = newVR(&VR{Name: "SV", kind: numberBinaryVR, elementSize: 8, longLength: true})
	UVVR = newVR(&VR{Name: "UV", kind: numberBinaryVR, elementSize: 8, longLength: true})
	FLVR = newVR(&VR{Name: "FL", kind: numberBinaryVR, elementSize: 4})
	FDVR = newVR(&VR{Name: "FD", kind: numberBinaryVR, elementSize: 8})

	// large binary sequences
	OBVR = newVR(&VR{Name: "OB", kind: bulkDataVR, elementSize: 1, longLength: true})
	ODVR = newVR(&VR{Name: "OD", kind: bulkDataVR, elementSize: 8, longLength: true})
	OLVR = newVR(&VR{Name: "OL", kind: bulkDataVR, elementSize: 4, longLength: true})
	OVVR = newVR(&VR{Name: "OV", kind: bulkDataVR, elementSize: 8, longLength: true})
	OWVR = newVR(&VR{Name: "OW", kind: bulkDataVR, elementSize: 2, longLength: true})
	OFVR = newVR(&VR{Name: "OF", kind: bulkDataVR, elementSize: 4, longLength: true})

	// unknown
	UNVR = newVR(&VR{Name: "UN", kind: bulkDataVR, elementSize: 1, longLength: true})

	// unlimited char
	UCVR = newVR(&VR{Name: "UC", kind: textVR, padding: ' ', multiValued: true, longLength: true,
		charsetSensitive: true, validChar: isSingleLineChar, repair: spaceInvalid})

	// URL
	URVR = newVR(&VR{Name: "UR", kind: textVR, padding: ' ', longLength: true,
		trimLeading: true, validChar: isURIChar})

	// unlimited text
	UTVR = newVR(&VR{Name: "UT", kind: textVR, padding: ' ', longLength: true,
		charsetSensitive: true, validChar: isTextChar, repair: spaceInvalid})

	// attribute tag
	ATVR = newVR(&VR{Name: "AT", kind: tagVR, elementSize: 4})

	// unique identifier
	UIVR = newVR(&VR{Name: "UI", kind: uniqueIdentifierVR, padding: 0x00, maxValueLength: 64,
		multiValued: true, trimLeading: true, validChar: isUIDChar, wellFormed: isWellFormedUID})

	// sequence
	SQVR = newVR(&VR{Name: "SQ", kind: sequenceVR, longLength: true})
)

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

func isCodeStringChar(r rune) bool {
	return isUpper(r) || isDigit(r) || r == ' ' || r == '_'
}

func isAgeStringChar(r rune) bool {
	return isDigit(r) || r == 'D' || r == 'W' || r == 'M' || r == 'Y'
}

func isTimeChar(r rune) bool {
	return isDigit(r) || r == '.'
}

func isDateTimeChar(r rune) bool {
	return isDigit(r) || r == '.' || r == '+' || r == '-'
}

func isIntegerStringChar(r rune) bool {
	return isDigit(r) || r == '+' || r == '-' || r == ' '
}

func isDecimalStringChar(r rune) bool {
	return isDigit(r) || r == '+' || r == '-' || r == '.' || r == 'E' || r == 'e' || r == ' '
}

func isUIDChar(r rune) bool {
	return isDigit(r) || r == '.'
}

func isApplicationEntityChar(r rune) bool {
	return r >= 0x20 && r < 0x7F && r != '\\'
}

func isURIChar(r rune) bool {
	return r > 0x20 && r < 0x7F
}

// isSingleLineChar accepts everything except control characters. ESC introduces ISO 2022 code
// extensions and is allowed.
func isSingleLineChar(r rune) bool {
	return r == 0x1B || (r >= 0x20 && r != 0x7F)
}

// isTextChar is isSingleLineChar plus the format effectors allowed in LT, ST and UT
func isTextChar(r rune) bool {
	return isSingleLineChar(r) || r == '\r' || r == '\n' || r == '\f' || r == '\t'
}

func allRunes(s string, valid func(rune) bool) bool {
	for _, r := range s {
		if !valid(r) {
			return false
		}
	}
	return true
}

func isWellFormedAge(s string) bool {
	if len(s) != 4 {
		return false
	}
	return isDigit(rune(s[0])) && isDigit(rune(s[1])) && isDigit(rune(s[2])) &&
		strings.ContainsRune("DWMY", rune(s[3]))
}

func isWellFormedDate(s string) bool {
	return len(s) == 8 && allRunes(s, isDigit)
}

func isWellFormedTime(s string) bool {
	return len(s) >= 2 && isDigit(rune(s[0])) && isDigit(rune(s[1])) && allRunes(s, isTimeChar)
}

func isWellFormedDateTime(s string) bool {
	return len(s) >= 4 && allRunes(s[:4], isDigit) && allRunes(s, isDateTimeChar)
}

func isWellFormedInteger(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	v, err := strconv.ParseInt(s, 10, 64)
	return err == nil && v >= math.MinInt32 && v <= math.MaxInt32
}

func isWellFormedDecimal(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isWellFormedUID(s string) bool {
	if s == "" {
		return true
	}
	for _, c := range strings.Split(s, ".") {
		if c == "" || !allRunes(c, isDigit) {
			return false
		}
		if len(c) > 1 && c[0] == '0' {
			return false
		}
	}
	return true
}

// isWellFormedPersonName checks there are at most 3 component groups of at most 5 components,
// each component group at most 64 characters.
func isWellFormedPersonName(s string) bool {
	groups := strings.Split(s, "=")
	if len(groups) > 3 {
		return false
	}
	for _, g := range groups {
		if len([]rune(g)) > 64 || strings.Count(g, "^") > 4 {
			return false
		}
	}
	return true
}
