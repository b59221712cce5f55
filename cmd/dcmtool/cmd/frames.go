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

package cmd

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	"github.com/GoogleCloudPlatform/go-dicom-codec/dicom"
	"github.com/GoogleCloudPlatform/go-dicom-codec/dicom/rle"
)

var framesCmd = &cobra.Command{
	Use:   "frames FILE OUTDIR",
	Short: "Write the frames of a grayscale image as PNG files",
	Long: `Write every frame of 8 or 16 bit grayscale pixel data to OUTDIR as
frame-0001.png, frame-0002.png and so on. RLE compressed pixel data is decoded
first. --scale resizes the frames with bilinear interpolation.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		scale, _ := cmd.Flags().GetFloat64("scale")
		n, err := writeFrames(args[0], args[1], scale)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d frames to %s\n", n, args[1])
		return nil
	},
}

func init() {
	framesCmd.Flags().Float64("scale", 1, "scale factor applied to every frame")
	rootCmd.AddCommand(framesCmd)
}

// grayscale describes how stored pixel values map to PNG gray levels
type grayscale struct {
	bitsStored int
	signed     bool
	inverted   bool
}

func grayscaleFromList(list *dicom.AttributeList, bitsAllocated int) grayscale {
	g := grayscale{bitsStored: bitsAllocated}
	if v, err := list.GetInt(dicom.BitsStoredTag); err == nil && v > 0 && int(v) < bitsAllocated {
		g.bitsStored = int(v)
	}
	if v, err := list.GetInt(dicom.PixelRepresentationTag); err == nil {
		g.signed = v == 1
	}
	g.inverted = list.GetString(dicom.PhotometricInterpretationTag) == "MONOCHROME1"
	return g
}

// level returns the 16 bit gray level of a stored value
func (g grayscale) level(stored uint16) uint16 {
	mask := uint16(1<<g.bitsStored - 1)
	v := stored & mask
	if g.signed {
		// two's complement to offset binary
		v ^= 1 << (g.bitsStored - 1)
	}
	v <<= 16 - g.bitsStored
	if g.inverted {
		v = ^v
	}
	return v
}

func writeFrames(path, outDir string, scale float64) (int, error) {
	if scale <= 0 {
		return 0, fmt.Errorf("scale must be positive, got %v", scale)
	}
	list, closer, err := readFile(path)
	if err != nil {
		return 0, err
	}
	defer closer.Close()

	info, numberOfFrames, err := rle.FrameInfoFromList(list)
	if err != nil {
		return 0, err
	}
	if info.SamplesPerPixel != 1 {
		return 0, fmt.Errorf("only grayscale images are supported, got %d samples per pixel", info.SamplesPerPixel)
	}
	if info.BitsAllocated != 8 && info.BitsAllocated != 16 {
		return 0, fmt.Errorf("unsupported bits allocated %d", info.BitsAllocated)
	}

	pixelData, err := nativePixelData(list, sourceSyntax(list))
	if err != nil {
		return 0, err
	}
	frames, err := dicom.SplitFrames(pixelData, info.Rows, info.Columns, 1, numberOfFrames)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return 0, err
	}

	g := grayscaleFromList(list, info.BitsAllocated)
	for i, frame := range frames {
		b, err := frame.ByteValues()
		if err != nil {
			return i, err
		}
		img := frameImage(b, info, g)
		if scale != 1 {
			img = scaleImage(img, scale)
		}
		name := filepath.Join(outDir, fmt.Sprintf("frame-%04d.png", i+1))
		if err := writePNG(name, img); err != nil {
			return i, err
		}
		logger.Debug().Str("file", name).Msg("wrote frame")
	}
	return len(frames), nil
}

// frameImage converts one frame of little endian samples to a gray image
func frameImage(b []byte, info rle.FrameInfo, g grayscale) draw.Image {
	rect := image.Rect(0, 0, info.Columns, info.Rows)
	if info.BitsAllocated == 8 {
		img := image.NewGray(rect)
		for i, v := range b[:len(img.Pix)] {
			img.Pix[i] = uint8(g.level(uint16(v)) >> 8)
		}
		return img
	}
	img := image.NewGray16(rect)
	for i := 0; i < info.Rows*info.Columns; i++ {
		// image.Gray16 holds big endian samples
		binary.BigEndian.PutUint16(img.Pix[2*i:], g.level(binary.LittleEndian.Uint16(b[2*i:])))
	}
	return img
}

func scaleImage(src draw.Image, scale float64) draw.Image {
	bounds := src.Bounds()
	rect := image.Rect(0, 0, scaledSize(bounds.Dx(), scale), scaledSize(bounds.Dy(), scale))
	var dst draw.Image
	if _, ok := src.(*image.Gray16); ok {
		dst = image.NewGray16(rect)
	} else {
		dst = image.NewGray(rect)
	}
	draw.BiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}

func scaledSize(n int, scale float64) int {
	if s := int(float64(n)*scale + 0.5); s > 0 {
		return s
	}
	return 1
}

func writePNG(name string, img image.Image) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	return f.Close()
}
