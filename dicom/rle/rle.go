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

// Package rle implements the PackBits run-length scheme of the DICOM RLE Lossless transfer
// syntax, see http://dicom.nema.org/medical/dicom/current/output/html/part05.html#chapter_G.
//
// A compressed stream is a sequence of runs, each introduced by a count byte n:
//
//	n < 128:  the next n+1 bytes are copied verbatim (literal run)
//	n > 128:  the next byte is repeated 257-n times (replicate run)
//	n == 128: no operation
package rle

import (
	"bytes"
	"io"

	"github.com/GoogleCloudPlatform/go-dicom-codec/dicom"
)

const (
	noOp        = 0x80
	maxRunBytes = 128
)

// Decoder decodes a PackBits stream read from an io.ByteReader
type Decoder struct {
	r io.ByteReader

	// offset is the number of compressed bytes consumed
	offset int64
}

func NewDecoder(r io.ByteReader) *Decoder {
	return &Decoder{r: r}
}

// Offset returns the number of compressed bytes consumed so far
func (d *Decoder) Offset() int64 {
	return d.offset
}

func (d *Decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, err
	}
	d.offset++
	return b, nil
}

// truncated reports a run whose payload is missing
func (d *Decoder) truncated(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return dicom.NewDecodingError(d.offset, "run-length pair truncated: %w", err)
}

// DecodeInto decodes runs until budget bytes have been produced or the input is exhausted. A
// negative budget means no limit. Bytes are written to dst while it has room and silently
// discarded afterwards. It returns the number of bytes produced, including discarded ones. When
// the budget ends inside a run, the rest of the run is consumed and dropped.
func (d *Decoder) DecodeInto(dst []byte, budget int) (int, error) {
	produced := 0
	return d.decode(budget, func(b byte) {
		if produced < len(dst) {
			dst[produced] = b
		}
		produced++
	})
}

func (d *Decoder) decode(budget int, emit func(byte)) (int, error) {
	produced := 0
	exhausted := func() bool {
		return budget >= 0 && produced >= budget
	}
	put := func(b byte) {
		if !exhausted() {
			emit(b)
			produced++
		}
	}

	for !exhausted() {
		count, err := d.readByte()
		if err == io.EOF {
			return produced, nil
		}
		if err != nil {
			return produced, err
		}

		switch {
		case count < noOp:
			for i := 0; i <= int(count); i++ {
				b, err := d.readByte()
				if err != nil {
					return produced, d.truncated(err)
				}
				put(b)
			}
		case count > noOp:
			b, err := d.readByte()
			if err != nil {
				return produced, d.truncated(err)
			}
			for i := 0; i < 257-int(count); i++ {
				put(b)
			}
		}
	}
	return produced, nil
}

// DecodeInto decodes src into dst, stopping after budget bytes when budget is not negative. See
// Decoder.DecodeInto.
func DecodeInto(dst, src []byte, budget int) (int, error) {
	return NewDecoder(bytes.NewReader(src)).DecodeInto(dst, budget)
}

// Decode decodes src until it is exhausted
func Decode(src []byte) ([]byte, error) {
	var out bytes.Buffer
	if _, err := NewDecoder(bytes.NewReader(src)).decode(-1, func(b byte) {
		out.WriteByte(b)
	}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Encode compresses src. Runs of three or more identical bytes become replicate runs, everything
// else literal runs, and no run is longer than 128 bytes.
func Encode(src []byte) []byte {
	var buf bytes.Buffer
	i := 0
	for i < len(src) {
		runLen := 1
		for i+runLen < len(src) && runLen < maxRunBytes && src[i+runLen] == src[i] {
			runLen++
		}

		if runLen > 2 {
			buf.WriteByte(byte(257 - runLen))
			buf.WriteByte(src[i])
			i += runLen
			continue
		}

		// literal run up to the start of the next replicate run of 3
		litLen := 1
		for i+litLen < len(src) && litLen < maxRunBytes {
			j := i + litLen
			if j+2 < len(src) && src[j] == src[j+1] && src[j] == src[j+2] {
				break
			}
			litLen++
		}
		buf.WriteByte(byte(litLen - 1))
		buf.Write(src[i : i+litLen])
		i += litLen
	}
	return buf.Bytes()
}
