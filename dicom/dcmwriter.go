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
	"fmt"
	"io"
)

// dcmWriter writes the primitive fields of the DICOM encoding and counts the bytes written
type dcmWriter struct {
	w            io.Writer
	bytesWritten int64
	buf          [8]byte
}

func newDcmWriter(w io.Writer) *dcmWriter {
	return &dcmWriter{w: w}
}

func (dw *dcmWriter) Write(p []byte) (int, error) {
	n, err := dw.w.Write(p)
	dw.bytesWritten += int64(n)
	return n, err
}

// Offset returns the number of bytes written so far
func (dw *dcmWriter) Offset() int64 {
	return dw.bytesWritten
}

func (dw *dcmWriter) Tag(order binary.ByteOrder, tag Tag) error {
	if err := dw.UInt16(order, tag.GroupNumber()); err != nil {
		return err
	}
	return dw.UInt16(order, tag.ElementNumber())
}

// Delimiter writes an item or sequence delimitation item, which always has a dummy 0 length
func (dw *dcmWriter) Delimiter(order binary.ByteOrder, tag Tag) error {
	if err := dw.Tag(order, tag); err != nil {
		return fmt.Errorf("writing delimiter tag: %w", err)
	}
	if err := dw.UInt32(order, 0); err != nil {
		return fmt.Errorf("writing item length of delimiter: %w", err)
	}
	return nil
}

func (dw *dcmWriter) UInt16(order binary.ByteOrder, v uint16) error {
	order.PutUint16(dw.buf[:2], v)
	return dw.Bytes(dw.buf[:2])
}

func (dw *dcmWriter) UInt32(order binary.ByteOrder, v uint32) error {
	order.PutUint32(dw.buf[:4], v)
	return dw.Bytes(dw.buf[:4])
}

func (dw *dcmWriter) UInt64(order binary.ByteOrder, v uint64) error {
	order.PutUint64(dw.buf[:8], v)
	return dw.Bytes(dw.buf[:8])
}

func (dw *dcmWriter) String(s string) error {
	_, err := io.WriteString(dw, s)
	return err
}

func (dw *dcmWriter) Bytes(b []byte) error {
	_, err := dw.Write(b)
	return err
}

// Pad writes one padding byte when length is odd
func (dw *dcmWriter) Pad(length int64, padding byte) error {
	if length%2 == 0 {
		return nil
	}
	dw.buf[0] = padding
	return dw.Bytes(dw.buf[:1])
}
