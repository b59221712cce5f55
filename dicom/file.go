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
	"compress/flate"
	"fmt"
	"io"
)

const preambleLength = 128

// ReadFile reads a DICOM Part 10 file: the preamble, the "DICM" signature, the File Meta
// Information in Explicit VR Little Endian and then the data set in the transfer syntax named by
// the meta information. The returned list holds both the meta elements and the data set.
//
// Deflated data sets are inflated on the fly. Offsets in a deflated data set count inflated bytes,
// so WithDeferredBulkData has no effect on them.
func ReadFile(r io.Reader, opts ...ReadOption) (*AttributeList, error) {
	cfg := newReadConfig(opts)
	dr := newDcmReader(r)
	if err := readDicomSignature(dr); err != nil {
		return nil, err
	}

	meta, err := readMetaHeader(dr, cfg)
	if err != nil {
		return nil, fmt.Errorf("reading meta header: %w", err)
	}
	syntax := findSyntax(meta)
	logger.Debug().Stringer("syntax", syntax).Msg("reading data set")

	body := dr
	if syntax.Deflated {
		inflater := flate.NewReader(dr.cr)
		defer inflater.Close()
		body = newDcmReader(inflater)
		cfg.src = nil
	}

	list, err := readAttributeList(body, syntax, DefaultCharacterSet, cfg, true)
	if err != nil {
		return nil, fmt.Errorf("reading data set: %w", err)
	}
	for tag, attr := range meta.attributes {
		list.attributes[tag] = attr
	}
	return list, nil
}

func readDicomSignature(dr *dcmReader) error {
	if err := dr.Skip(preambleLength); err != nil {
		return fmt.Errorf("skipping preamble: %w", err)
	}
	magic, err := dr.String(4)
	if err != nil {
		return fmt.Errorf("reading DICOM signature: %w", asUnexpected(err, dr))
	}
	if magic != "DICM" {
		return formatError(0, "wrong DICOM signature: %q", magic)
	}
	return nil
}

// readMetaHeader reads the File Meta Information Group Length and then exactly as many bytes of
// meta elements as it announces
func readMetaHeader(dr *dcmReader, cfg *readConfig) (*AttributeList, error) {
	metaCfg := *cfg
	metaCfg.stopAt = 0
	metaCfg.dropGroupLengths = false

	meta := NewAttributeList()
	first, err := readAttribute(dr, ExplicitVRLittleEndian, meta, DefaultCharacterSet, &metaCfg, false)
	if err != nil {
		return nil, fmt.Errorf("reading File Meta Information Group Length: %w", asUnexpected(err, dr))
	}
	groupLength, ok := first.(*NumericAttribute[uint32])
	if first.Tag() != FileMetaInformationGroupLengthTag || !ok || len(groupLength.Values()) != 1 {
		return nil, formatError(first.Tag(), "expected File Meta Information Group Length (UL), got %v", first)
	}

	start := dr.Offset()
	length := int64(groupLength.Values()[0])
	rest, err := readAttributeList(dr.Limit(length), ExplicitVRLittleEndian, DefaultCharacterSet, &metaCfg, false)
	if err != nil {
		return nil, err
	}
	if got := dr.Offset() - start; got != length {
		return nil, NewDecodingError(dr.Offset(), "meta header of length %d ended after %d bytes: %w", length, got, io.ErrUnexpectedEOF)
	}
	rest.Put(first)
	return rest, nil
}

// findSyntax returns the transfer syntax named by the meta information. An unknown or missing
// transfer syntax is read as Explicit VR Little Endian.
func findSyntax(meta *AttributeList) *TransferSyntax {
	uid := meta.GetString(TransferSyntaxUIDTag)
	if uid == "" {
		logger.Warn().Msg("no transfer syntax in meta header, assuming explicit VR little endian")
		return ExplicitVRLittleEndian
	}
	syntax, err := LookupTransferSyntax(uid)
	if err != nil {
		logger.Warn().Err(err).Str("uid", uid).Msg("unknown transfer syntax, assuming explicit VR little endian")
		return ExplicitVRLittleEndian
	}
	return syntax
}

// WriteFile writes list as a DICOM Part 10 file in the transfer syntax named by its Transfer
// Syntax UID (0002,0010). The File Meta Information Group Length is recomputed and the File Meta
// Information Version is added when missing.
func WriteFile(w io.Writer, list *AttributeList) error {
	fw, err := NewFileWriter(w, list.MetaElements())
	if err != nil {
		return err
	}
	data := list.DataSetElements()
	if cs := list.declaredCharacterSet(); cs != nil {
		fw.cs = cs
	}
	for _, attr := range data.Attributes() {
		if err := fw.WriteAttribute(attr); err != nil {
			return err
		}
	}
	return fw.Close()
}

// FileWriter writes a DICOM Part 10 file one top level attribute at a time
type FileWriter struct {
	dw       *dcmWriter
	syntax   *TransferSyntax
	cs       *SpecificCharacterSet
	deflater *flate.Writer
}

// NewFileWriter writes the preamble, signature and meta header to w and returns a FileWriter
// that writes attributes in the transfer syntax named by the header. meta must only contain File
// Meta Information attributes and is not modified.
func NewFileWriter(w io.Writer, meta *AttributeList) (*FileWriter, error) {
	for _, tag := range meta.SortedTags() {
		if !tag.IsMetaElement() {
			return nil, fmt.Errorf("expected header to only contain file meta elements, got %v", tag)
		}
	}
	uid := meta.GetString(TransferSyntaxUIDTag)
	if uid == "" {
		return nil, &EncodingError{TransferSyntaxUIDTag, UIVR, "transfer syntax is required in the meta header"}
	}
	syntax, err := LookupTransferSyntax(uid)
	if err != nil {
		return nil, fmt.Errorf("getting transfer syntax from header: %w", err)
	}

	dw := newDcmWriter(w)
	if err := writeDicomSignature(dw); err != nil {
		return nil, err
	}
	if err := writeMetaHeader(dw, meta); err != nil {
		return nil, fmt.Errorf("writing meta header: %w", err)
	}

	fw := &FileWriter{dw: dw, syntax: syntax, cs: DefaultCharacterSet}
	if syntax.Deflated {
		fw.deflater, err = flate.NewWriter(dw, flate.DefaultCompression)
		if err != nil {
			return nil, fmt.Errorf("creating deflater: %w", err)
		}
		fw.dw = newDcmWriter(fw.deflater)
	}
	return fw, nil
}

// WriteAttribute writes one top level attribute. Attributes should be written in ascending tag
// order.
func (fw *FileWriter) WriteAttribute(attr Attribute) error {
	if attr.Tag().IsMetaElement() {
		return fmt.Errorf("meta element %v must be written with the header", attr.Tag())
	}
	if attr.Tag() == SpecificCharacterSetTag {
		fw.cs = resolveCharacterSet(attr, DefaultCharacterSetResolver)
	}
	return writeAttribute(fw.dw, attr, fw.syntax, fw.cs)
}

// Syntax returns the transfer syntax attributes are written in
func (fw *FileWriter) Syntax() *TransferSyntax {
	return fw.syntax
}

// Close flushes the compressed stream of deflated syntaxes. It does not close the underlying
// writer.
func (fw *FileWriter) Close() error {
	if fw.deflater == nil {
		return nil
	}
	if err := fw.deflater.Close(); err != nil {
		return fmt.Errorf("flushing deflated data set: %w", err)
	}
	return nil
}

func writeDicomSignature(dw *dcmWriter) error {
	if err := dw.Bytes(make([]byte, preambleLength)); err != nil {
		return fmt.Errorf("writing DICOM preamble: %w", err)
	}
	if err := dw.String("DICM"); err != nil {
		return fmt.Errorf("writing DICOM signature: %w", err)
	}
	return nil
}

// writeMetaHeader writes the meta elements in Explicit VR Little Endian, preceded by a File Meta
// Information Group Length computed from their encoded size.
// http://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
func writeMetaHeader(dw *dcmWriter, meta *AttributeList) error {
	elements := meta.filter(func(t Tag) bool { return t != FileMetaInformationGroupLengthTag })
	if elements.Get(FileMetaInformationVersionTag) == nil {
		version := NewOtherAttribute(FileMetaInformationVersionTag, OBVR)
		if err := version.SetBytes([]byte{0x00, 0x01}); err != nil {
			return err
		}
		elements.Put(version)
	}

	var buf bytes.Buffer
	if err := writeAttributeList(newDcmWriter(&buf), elements, ExplicitVRLittleEndian, DefaultCharacterSet); err != nil {
		return err
	}

	groupLength, err := NewNumericAttributeWithValues(FileMetaInformationGroupLengthTag, uint32(buf.Len()))
	if err != nil {
		return err
	}
	if err := writeAttribute(dw, groupLength, ExplicitVRLittleEndian, DefaultCharacterSet); err != nil {
		return err
	}
	if err := dw.Bytes(buf.Bytes()); err != nil {
		return fmt.Errorf("writing meta elements: %w", err)
	}
	return nil
}
