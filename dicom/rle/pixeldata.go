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

	"github.com/GoogleCloudPlatform/go-dicom-codec/dicom"
)

// FrameInfoFromList reads the image pixel module attributes needed to decode the frames of list.
// A missing Number of Frames means a single frame.
func FrameInfoFromList(list *dicom.AttributeList) (FrameInfo, int, error) {
	var info FrameInfo
	for _, f := range []struct {
		tag dicom.Tag
		dst *int
	}{
		{dicom.RowsTag, &info.Rows},
		{dicom.ColumnsTag, &info.Columns},
		{dicom.SamplesPerPixelTag, &info.SamplesPerPixel},
		{dicom.BitsAllocatedTag, &info.BitsAllocated},
	} {
		v, err := list.GetInt(f.tag)
		if err != nil {
			return info, 0, fmt.Errorf("reading image pixel module: %w", err)
		}
		*f.dst = int(v)
	}
	frames := 1
	if list.Get(dicom.NumberOfFramesTag) != nil {
		v, err := list.GetInt(dicom.NumberOfFramesTag)
		if err != nil {
			return info, 0, fmt.Errorf("reading number of frames: %w", err)
		}
		frames = int(v)
	}
	return info, frames, nil
}

// DecodePixelData decompresses the RLE encapsulated Pixel Data of list into a native Pixel Data
// attribute: OB for 8 bit samples, OW otherwise.
func DecodePixelData(list *dicom.AttributeList) (*dicom.OtherAttribute, error) {
	encapsulated, ok := list.Get(dicom.PixelDataTag).(*dicom.EncapsulatedPixelData)
	if !ok {
		return nil, fmt.Errorf("pixel data is not encapsulated")
	}
	info, numberOfFrames, err := FrameInfoFromList(list)
	if err != nil {
		return nil, err
	}
	frames, err := encapsulated.Frames(numberOfFrames)
	if err != nil {
		return nil, fmt.Errorf("splitting fragments into frames: %w", err)
	}

	assembly, err := dicom.NewMultiFramePixelData(info.Rows, info.Columns, info.SamplesPerPixel, numberOfFrames)
	if err != nil {
		return nil, err
	}
	var vr *dicom.VR
	switch info.BitsAllocated {
	case 8:
		vr = dicom.OBVR
	case 16:
		vr = dicom.OWVR
	default:
		return nil, fmt.Errorf("unsupported bits allocated %d", info.BitsAllocated)
	}
	for i, frame := range frames {
		native, err := DecodeFrame(frame, info)
		if err != nil {
			return nil, fmt.Errorf("decoding frame %d: %w", i+1, err)
		}
		attr := dicom.NewOtherAttribute(dicom.PixelDataTag, vr)
		if err := attr.SetBytes(native); err != nil {
			return nil, err
		}
		if err := assembly.AddFrame(attr); err != nil {
			return nil, err
		}
	}
	return assembly.PixelData()
}

// EncodePixelData compresses native OB or OW pixel data frame by frame. The Basic Offset Table
// of the result is filled in.
func EncodePixelData(pixelData dicom.Attribute, info FrameInfo, numberOfFrames int) (*dicom.EncapsulatedPixelData, error) {
	if info.FrameLength()%elementWidth(pixelData.VR()) != 0 {
		return nil, fmt.Errorf("frames of %d bytes cannot be held in %v", info.FrameLength(), pixelData.VR())
	}
	// frames are cut as flat runs of elements, the geometry only matters to EncodeFrame
	frames, err := dicom.SplitFrames(pixelData, 1, info.FrameLength()/elementWidth(pixelData.VR()), 1, numberOfFrames)
	if err != nil {
		return nil, err
	}

	ret := dicom.NewEncapsulatedPixelData(pixelData.Tag())
	offsetTable := make([]byte, 4*len(frames))
	var position uint32
	for i, frame := range frames {
		native, err := frame.ByteValues()
		if err != nil {
			return nil, err
		}
		compressed, err := EncodeFrame(native, info)
		if err != nil {
			return nil, fmt.Errorf("encoding frame %d: %w", i+1, err)
		}
		binary.LittleEndian.PutUint32(offsetTable[4*i:], position)
		ret.AddFragment(compressed)
		position += 8 + uint32(len(compressed))
	}
	ret.Fragments[0] = offsetTable
	return ret, nil
}

func elementWidth(vr *dicom.VR) int {
	if vr == dicom.OWVR {
		return 2
	}
	return 1
}
