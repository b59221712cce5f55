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

// MultiFramePixelData assembles the Pixel Data of several frames, added one at a time in frame
// order, into a single Pixel Data attribute. The first frame decides whether samples are bytes
// (OB) or words (OW).
type MultiFramePixelData struct {
	numberOfFrames   int
	elementsPerFrame int

	vr          *VR
	bytes       []byte
	words       []uint16
	framesAdded int
}

// NewMultiFramePixelData prepares a buffer for numberOfFrames frames of rows x columns pixels of
// samplesPerPixel samples each
func NewMultiFramePixelData(rows, columns, samplesPerPixel, numberOfFrames int) (*MultiFramePixelData, error) {
	if rows <= 0 || columns <= 0 || samplesPerPixel <= 0 || numberOfFrames <= 0 {
		return nil, formatError(PixelDataTag, "invalid frame geometry %dx%dx%d with %d frames",
			rows, columns, samplesPerPixel, numberOfFrames)
	}
	return &MultiFramePixelData{
		numberOfFrames:   numberOfFrames,
		elementsPerFrame: rows * columns * samplesPerPixel,
	}, nil
}

func (m *MultiFramePixelData) totalElements() int {
	return m.elementsPerFrame * m.numberOfFrames
}

// AddFrame copies the samples of the next frame into place. frame must be an OB or OW attribute
// holding exactly one frame, the same VR as the frames added before.
func (m *MultiFramePixelData) AddFrame(frame Attribute) error {
	if m.framesAdded >= m.numberOfFrames {
		return formatError(PixelDataTag, "all %d frames have already been added", m.numberOfFrames)
	}
	vr := frame.VR()
	if vr != OBVR && vr != OWVR {
		return formatError(frame.Tag(), "frame pixel data must be OB or OW, got %v", vr)
	}
	if m.vr == nil {
		m.vr = vr
		if vr == OBVR {
			m.bytes = make([]byte, m.totalElements())
		} else {
			m.words = make([]uint16, m.totalElements())
		}
	} else if m.vr != vr {
		return formatError(frame.Tag(), "cannot mix OB and OW pixel data from different frames")
	}

	offset := m.framesAdded * m.elementsPerFrame
	if m.vr == OBVR {
		b, err := frame.ByteValues()
		if err != nil {
			return err
		}
		if len(b) != m.elementsPerFrame && len(b) != m.elementsPerFrame+1 {
			return formatError(frame.Tag(), "frame %d has %d samples, want %d", m.framesAdded+1, len(b), m.elementsPerFrame)
		}
		copy(m.bytes[offset:], b[:m.elementsPerFrame])
	} else {
		w, err := frame.ShortValues()
		if err != nil {
			return err
		}
		if len(w) != m.elementsPerFrame {
			return formatError(frame.Tag(), "frame %d has %d samples, want %d", m.framesAdded+1, len(w), m.elementsPerFrame)
		}
		copy(m.words[offset:], w)
	}
	m.framesAdded++
	return nil
}

// FramesAdded is the number of frames added so far
func (m *MultiFramePixelData) FramesAdded() int {
	return m.framesAdded
}

// PixelData returns the Pixel Data attribute holding every frame. Frames that were not added are
// zero.
func (m *MultiFramePixelData) PixelData() (*OtherAttribute, error) {
	if m.vr == nil {
		return nil, formatError(PixelDataTag, "no frame has been added")
	}
	attr := NewOtherAttribute(PixelDataTag, m.vr)
	if m.vr == OBVR {
		return attr, attr.SetBytes(m.bytes)
	}
	return attr, attr.SetWords(m.words)
}

// SplitFrames is the reverse of MultiFramePixelData: it cuts a native OB or OW Pixel Data
// attribute into one attribute per frame.
func SplitFrames(pixelData Attribute, rows, columns, samplesPerPixel, numberOfFrames int) ([]*OtherAttribute, error) {
	if rows <= 0 || columns <= 0 || samplesPerPixel <= 0 || numberOfFrames <= 0 {
		return nil, formatError(pixelData.Tag(), "invalid frame geometry %dx%dx%d with %d frames",
			rows, columns, samplesPerPixel, numberOfFrames)
	}
	vr := pixelData.VR()
	if vr != OBVR && vr != OWVR {
		return nil, formatError(pixelData.Tag(), "cannot split %v pixel data into frames", vr)
	}
	b, err := pixelData.ByteValues()
	if err != nil {
		return nil, err
	}

	width := vr.elementSize
	frameLength := rows * columns * samplesPerPixel * width
	if len(b) < frameLength*numberOfFrames {
		return nil, formatError(pixelData.Tag(), "pixel data has %d bytes, want %d for %d frames",
			len(b), frameLength*numberOfFrames, numberOfFrames)
	}

	frames := make([]*OtherAttribute, numberOfFrames)
	for i := range frames {
		frame := NewOtherAttribute(pixelData.Tag(), vr)
		data := make([]byte, frameLength)
		copy(data, b[i*frameLength:])
		if err := frame.SetBytes(data); err != nil {
			return nil, err
		}
		frames[i] = frame
	}
	return frames, nil
}
