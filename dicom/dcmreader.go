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
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// dcmReader reads the primitive fields of the DICOM encoding. Every read that ends early returns
// a DecodingError carrying the offset at which the input ran out.
type dcmReader struct {
	cr  *countReader
	buf [8]byte
}

func newDcmReader(r io.Reader) *dcmReader {
	return &dcmReader{cr: &countReader{r, 0}}
}

// newDcmReaderAt returns a reader whose offsets start at offset instead of 0
func newDcmReaderAt(r io.Reader, offset int64) *dcmReader {
	return &dcmReader{cr: &countReader{r, offset}}
}

// Offset returns the number of bytes consumed from the underlying input
func (dr *dcmReader) Offset() int64 {
	return dr.cr.bytesRead
}

func (dr *dcmReader) Tag(order binary.ByteOrder) (Tag, error) {
	group, err := dr.UInt16(order)
	if err != nil {
		return 0, err
	}
	element, err := dr.UInt16(order)
	if err == io.EOF {
		// half a tag is a truncation, not a clean end of input
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return 0, asDecodingError(err, dr.Offset())
	}

	return NewTag(group, element), nil
}

// Limit returns a reader over the next n bytes. Offsets of the returned reader continue from the
// current offset.
func (dr *dcmReader) Limit(n int64) *dcmReader {
	return &dcmReader{cr: limitCountReader(dr.cr, n)}
}

// Skip discards n bytes
func (dr *dcmReader) Skip(n int64) error {
	got, err := io.CopyN(io.Discard, dr.cr, n)
	if err == io.EOF && got < n {
		return NewDecodingError(dr.Offset(), "skipping %d bytes: got %d: %w", n, got, io.ErrUnexpectedEOF)
	}
	return err
}

func (dr *dcmReader) String(n int64) (string, error) {
	b, err := dr.Bytes(n)
	return string(b), err
}

// Bytes reads exactly n bytes. A clean io.EOF is only returned when no byte at all could be read.
func (dr *dcmReader) Bytes(n int64) ([]byte, error) {
	b := make([]byte, n)
	if err := dr.readFull(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (dr *dcmReader) readFull(b []byte) error {
	gotN, err := io.ReadFull(dr.cr, b)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		if gotN == 0 && err == io.EOF {
			return io.EOF
		}
		return NewDecodingError(dr.Offset(), "expected %d bytes but got %d: %w", len(b), gotN, io.ErrUnexpectedEOF)
	}
	return err
}

func (dr *dcmReader) UInt16(order binary.ByteOrder) (uint16, error) {
	if err := dr.readFull(dr.buf[:2]); err != nil {
		return 0, err
	}
	return order.Uint16(dr.buf[:2]), nil
}

func (dr *dcmReader) UInt32(order binary.ByteOrder) (uint32, error) {
	if err := dr.readFull(dr.buf[:4]); err != nil {
		return 0, err
	}
	return order.Uint32(dr.buf[:4]), nil
}

func (dr *dcmReader) UInt64(order binary.ByteOrder) (uint64, error) {
	if err := dr.readFull(dr.buf[:8]); err != nil {
		return 0, err
	}
	return order.Uint64(dr.buf[:8]), nil
}

func (dr *dcmReader) Float32(order binary.ByteOrder) (float32, error) {
	v, err := dr.UInt32(order)
	return math.Float32frombits(v), err
}

func (dr *dcmReader) Float64(order binary.ByteOrder) (float64, error) {
	v, err := dr.UInt64(order)
	return math.Float64frombits(v), err
}

// mustUInt32 is UInt32 where the end of input is always a truncation
func (dr *dcmReader) mustUInt32(order binary.ByteOrder) (uint32, error) {
	v, err := dr.UInt32(order)
	if err == io.EOF {
		return 0, NewDecodingError(dr.Offset(), "expected 4 bytes: %w", io.ErrUnexpectedEOF)
	}
	return v, err
}

type countReader struct {
	r         io.Reader
	bytesRead int64 // number of bytes read
}

func (cr *countReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.bytesRead += int64(n)
	return n, err
}

func limitCountReader(cr *countReader, n int64) *countReader {
	return &countReader{io.LimitReader(cr, n), cr.bytesRead}
}

// asUnexpected turns a clean io.EOF met inside a value field into a DecodingError
func asUnexpected(err error, dr *dcmReader) error {
	var de *DecodingError
	if errors.Is(err, io.EOF) && !errors.As(err, &de) {
		return NewDecodingError(dr.Offset(), "value field ended early: %w", io.ErrUnexpectedEOF)
	}
	return err
}
