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
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

var defaultCharacterRepertoire encoding.Encoding = charmap.Windows1252

// lookupLabelByTerm is a mapping of specific character set defined terms to golang charset labels.
// See link below for list of character set defined terms.
// http://dicom.nema.org/medical/dicom/current/output/chtml/part02/sect_D.6.2.html
var lookupLabelByTerm = map[string]string{
	"ISO_IR 6":   "us-ascii",
	"ISO_IR 100": "iso-ir-100",
	"ISO_IR 101": "iso-ir-101",
	"ISO_IR 109": "iso-ir-109",
	"ISO_IR 110": "iso-ir-110",
	"ISO_IR 144": "iso-ir-144",
	"ISO_IR 127": "iso-ir-127",
	"ISO_IR 126": "iso-ir-126",
	"ISO_IR 138": "iso-ir-138",
	"ISO_IR 148": "iso-ir-148",
	"ISO_IR 13":  "shift-jis",
	"ISO_IR 166": "tis-620",
	"ISO_IR 192": "utf-8",
	"GB18030":    "gb18030",
	"GBK":        "gbk",
	// TODO switch code element on escape sequences instead of using the first non-default term
	"ISO 2022 IR 6":   "us-ascii",
	"ISO 2022 IR 100": "iso-ir-100",
	"ISO 2022 IR 101": "iso-ir-101",
	"ISO 2022 IR 109": "iso-ir-109",
	"ISO 2022 IR 110": "iso-ir-110",
	"ISO 2022 IR 144": "iso-ir-144",
	"ISO 2022 IR 127": "iso-ir-127",
	"ISO 2022 IR 126": "iso-ir-126",
	"ISO 2022 IR 138": "iso-ir-138",
	"ISO 2022 IR 148": "iso-ir-148",
	"ISO 2022 IR 13":  "shift-jis",
	"ISO 2022 IR 166": "tis-620",
	"ISO 2022 IR 149": "iso-ir-149",
}

// directEncodings are the multi-byte repertoires resolved without a label lookup. The JIS X 0208
// and 0212 code extensions are only meaningful with their escape sequences, which ISO-2022-JP
// decodes.
var directEncodings = map[string]encoding.Encoding{
	"ISO 2022 IR 87":  japanese.ISO2022JP,
	"ISO 2022 IR 159": japanese.ISO2022JP,
	"ISO 2022 IR 149": korean.EUCKR,
	"ISO_IR 192":      unicode.UTF8,
	"GB18030":         simplifiedchinese.GB18030,
	"GBK":             simplifiedchinese.GBK,
}

func lookupEncoding(term string) (encoding.Encoding, error) {
	if coding, ok := directEncodings[term]; ok {
		return coding, nil
	}

	label, ok := lookupLabelByTerm[term]
	if !ok {
		return nil, fmt.Errorf("specific character set defined term not found: %v", term)
	}

	coding, _ := charset.Lookup(label)
	if coding == nil {
		return nil, fmt.Errorf("missing encoding for label %q", label)
	}
	return coding, nil
}

// SpecificCharacterSet decodes and encodes the character-set-sensitive VRs (SH, LO, ST, LT, PN,
// UC, UT) of an AttributeList according to its Specific Character Set (0008,0005).
type SpecificCharacterSet struct {
	terms    []string
	encoding encoding.Encoding
}

// DefaultCharacterSet is used when no Specific Character Set is in effect
var DefaultCharacterSet = &SpecificCharacterSet{nil, defaultCharacterRepertoire}

// Terms returns the defined terms the character set was resolved from
func (cs *SpecificCharacterSet) Terms() []string {
	return cs.terms
}

func (cs *SpecificCharacterSet) String() string {
	if len(cs.terms) == 0 {
		return "default repertoire"
	}
	return strings.Join(cs.terms, "\\")
}

// Decode converts bytes in the character set to a string
func (cs *SpecificCharacterSet) Decode(b []byte) (string, error) {
	if isASCII(b) {
		return string(b), nil
	}
	s, err := cs.encoding.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decoding with %v: %w", cs, err)
	}
	return string(s), nil
}

// Encode converts a string to bytes in the character set
func (cs *SpecificCharacterSet) Encode(s string) ([]byte, error) {
	if isASCII([]byte(s)) {
		return []byte(s), nil
	}
	b, err := cs.encoding.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encoding with %v: %w", cs, err)
	}
	return b, nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 || c == 0x1B {
			return false
		}
	}
	return true
}

// CharacterSetResolver maps the defined terms of a Specific Character Set attribute to the
// routines decoding and encoding text in that character set.
type CharacterSetResolver interface {
	Resolve(terms []string) (*SpecificCharacterSet, error)
}

// DefaultCharacterSetResolver resolves the defined terms of PS3.3 C.12.1.1.2 through
// golang.org/x/text
var DefaultCharacterSetResolver CharacterSetResolver = termResolver{}

type termResolver struct{}

// Resolve uses the first code extension with a multi-byte repertoire if any, else the first
// non-empty term. An empty first value means the default repertoire for that code element.
func (termResolver) Resolve(terms []string) (*SpecificCharacterSet, error) {
	cleaned := make([]string, len(terms))
	for i, t := range terms {
		cleaned[i] = strings.TrimSpace(t)
	}

	for _, t := range cleaned {
		if coding, ok := directEncodings[t]; ok && strings.HasPrefix(t, "ISO 2022") {
			return &SpecificCharacterSet{cleaned, coding}, nil
		}
	}
	for _, t := range cleaned {
		if t == "" {
			continue
		}
		coding, err := lookupEncoding(t)
		if err != nil {
			return nil, err
		}
		return &SpecificCharacterSet{cleaned, coding}, nil
	}
	return DefaultCharacterSet, nil
}
