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

package rle

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/GoogleCloudPlatform/go-dicom-codec/dicom"
)

const (
	headerLength = 64
	maxSegments  = 15
)

// FrameInfo is the geometry of the frames of an image
type FrameInfo struct {
	Rows            int
	Columns         int
	SamplesPerPixel int
	BitsAllocated   int
}

func (fi FrameInfo) bytesPerSample() int {
	return fi.BitsAllocated / 8
}

func (fi FrameInfo) pixels() int {
	return fi.Rows * fi.Columns
}

// FrameLength is the size in bytes of one native frame
func (fi FrameInfo) FrameLength() int {
	return fi.pixels() * fi.SamplesPerPixel * fi.bytesPerSample()
}

func (fi FrameInfo) segments() (int, error) {
	if fi.Rows <= 0 || fi.Columns <= 0 || fi.SamplesPerPixel <= 0 {
		return 0, fmt.Errorf("invalid frame geometry %dx%dx%d", fi.Rows, fi.Columns, fi.SamplesPerPixel)
	}
	if fi.BitsAllocated <= 0 || fi.BitsAllocated%8 != 0 {
		return 0, fmt.Errorf("unsupported bits allocated %d", fi.BitsAllocated)
	}
	n := fi.SamplesPerPixel * fi.bytesPerSample()
	if n > maxSegments {
		return 0, fmt.Errorf("%d segments needed, at most %d allowed", n, maxSegments)
	}
	return n, nil
}

// DecodeFrame decodes one RLE compressed frame into native little endian pixel data with
// interleaved samples (Planar Configuration 0). Segments hold one byte plane each, most
// significant byte first, sample after sample.
func DecodeFrame(frame []byte, info FrameInfo) ([]byte, error) {
	numSegments, err := info.segments()
	if err != nil {
		return nil, err
	}
	if len(frame) < headerLength {
		return nil, dicom.NewDecodingError(int64(len(frame)), "RLE header needs %d bytes, got %d: %w",
			headerLength, len(frame), io.ErrUnexpectedEOF)
	}
	got := int(binary.LittleEndian.Uint32(frame))
	if got != numSegments {
		return nil, &dicom.DicomFormatError{Tag: dicom.PixelDataTag,
			Msg: fmt.Sprintf("RLE frame has %d segments, want %d", got, numSegments)}
	}

	offsets := make([]int, numSegments+1)
	for i := 0; i < numSegments; i++ {
		offsets[i] = int(binary.LittleEndian.Uint32(frame[4+4*i:]))
	}
	offsets[numSegments] = len(frame)

	bps := info.bytesPerSample()
	pixels := info.pixels()
	out := make([]byte, info.FrameLength())
	plane := make([]byte, pixels)
	for s := 0; s < numSegments; s++ {
		start, end := offsets[s], offsets[s+1]
		if start < headerLength || start > end || end > len(frame) {
			return nil, &dicom.DicomFormatError{Tag: dicom.PixelDataTag,
				Msg: fmt.Sprintf("invalid offset %d for RLE segment %d", start, s+1)}
		}
		n, err := DecodeInto(plane, frame[start:end], pixels)
		if err != nil {
			return nil, fmt.Errorf("decoding segment %d: %w", s+1, err)
		}
		if n < pixels {
			return nil, dicom.NewDecodingError(int64(end), "segment %d decoded to %d bytes, want %d: %w",
				s+1, n, pixels, io.ErrUnexpectedEOF)
		}

		sample, significance := s/bps, s%bps
		// most significant byte first in the segments, last in little endian samples
		byteInSample := bps - 1 - significance
		for p := 0; p < pixels; p++ {
			out[(p*info.SamplesPerPixel+sample)*bps+byteInSample] = plane[p]
		}
	}
	return out, nil
}

// EncodeFrame compresses one native frame of little endian, interleaved samples. Each row of
// each byte plane is encoded on its own and segments are padded to an even length.
func EncodeFrame(pixels []byte, info FrameInfo) ([]byte, error) {
	numSegments, err := info.segments()
	if err != nil {
		return nil, err
	}
	if len(pixels) < info.FrameLength() {
		return nil, fmt.Errorf("frame has %d bytes, want %d", len(pixels), info.FrameLength())
	}

	bps := info.bytesPerSample()
	header := make([]byte, headerLength)
	binary.LittleEndian.PutUint32(header, uint32(numSegments))
	out := header
	row := make([]byte, info.Columns)
	for s := 0; s < numSegments; s++ {
		binary.LittleEndian.PutUint32(out[4+4*s:], uint32(len(out)))
		sample, byteInSample := s/bps, bps-1-s%bps
		segmentStart := len(out)
		for r := 0; r < info.Rows; r++ {
			for c := range row {
				p := r*info.Columns + c
				row[c] = pixels[(p*info.SamplesPerPixel+sample)*bps+byteInSample]
			}
			out = append(out, Encode(row)...)
		}
		if (len(out)-segmentStart)%2 != 0 {
			out = append(out, noOp)
		}
	}
	return out, nil
}
