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
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GoogleCloudPlatform/go-dicom-codec/dicom"
	"github.com/GoogleCloudPlatform/go-dicom-codec/dicom/rle"
)

var convertCmd = &cobra.Command{
	Use:   "convert IN OUT",
	Short: "Re-encode a DICOM file in another transfer syntax",
	Long: `Re-encode a DICOM file in another transfer syntax, given by name or UID.
RLE compressed pixel data is decompressed first. Native pixel data is RLE
compressed when the target is RLE Lossless. Other encapsulated pixel data
can only be copied to the same transfer syntax.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := cfg.OutputSyntax
		if cmd.Flags().Changed("syntax") {
			name, _ = cmd.Flags().GetString("syntax")
		}
		syntax, err := dicom.LookupTransferSyntax(name)
		if err != nil {
			return err
		}
		return convert(args[0], args[1], syntax)
	},
}

func init() {
	convertCmd.Flags().StringP("syntax", "s", "", fmt.Sprintf("target transfer syntax UID or name (%s), default from config",
		strings.Join(dicom.TransferSyntaxNames(), ", ")))
	rootCmd.AddCommand(convertCmd)
}

func convert(in, out string, target *dicom.TransferSyntax) error {
	list, closer, err := readFile(in)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := transcodePixelData(list, sourceSyntax(list), target); err != nil {
		return err
	}
	uid, err := dicom.NewStringAttributeWithValues(dicom.TransferSyntaxUIDTag, dicom.UIVR, target.UID)
	if err != nil {
		return err
	}
	list.Put(uid)

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := dicom.WriteFile(f, list); err != nil {
		f.Close()
		os.Remove(out)
		return fmt.Errorf("writing %s: %w", out, err)
	}
	logger.Info().Str("in", in).Str("out", out).Stringer("syntax", target).Msg("converted")
	return f.Close()
}

func sourceSyntax(list *dicom.AttributeList) *dicom.TransferSyntax {
	syntax, err := dicom.LookupTransferSyntax(list.GetString(dicom.TransferSyntaxUIDTag))
	if err != nil {
		return dicom.ExplicitVRLittleEndian
	}
	return syntax
}

// transcodePixelData replaces the Pixel Data of list with a version that can be written in target
func transcodePixelData(list *dicom.AttributeList, source, target *dicom.TransferSyntax) error {
	pixelData := list.Get(dicom.PixelDataTag)
	if pixelData == nil {
		return nil
	}
	if _, ok := pixelData.(*dicom.EncapsulatedPixelData); ok && source == target {
		return nil
	}

	native, err := nativePixelData(list, source)
	if err != nil {
		return err
	}
	if !target.Encapsulated {
		list.Put(native)
		return nil
	}
	if target != dicom.RLELossless {
		return fmt.Errorf("cannot encode pixel data in %v", target)
	}

	if planar, err := list.GetInt(dicom.PlanarConfigurationTag); err == nil && planar != 0 {
		return fmt.Errorf("planar configuration %d cannot be RLE encoded", planar)
	}
	info, numberOfFrames, err := rle.FrameInfoFromList(list)
	if err != nil {
		return err
	}
	encoded, err := rle.EncodePixelData(native, info, numberOfFrames)
	if err != nil {
		return fmt.Errorf("RLE encoding pixel data: %w", err)
	}
	list.Put(encoded)
	return nil
}

// nativePixelData returns the Pixel Data of list as an OB or OW attribute held in memory,
// decompressing RLE when needed
func nativePixelData(list *dicom.AttributeList, source *dicom.TransferSyntax) (*dicom.OtherAttribute, error) {
	switch pixelData := list.Get(dicom.PixelDataTag).(type) {
	case *dicom.OtherAttribute:
		if err := pixelData.Materialize(); err != nil {
			return nil, err
		}
		return pixelData, nil
	case *dicom.EncapsulatedPixelData:
		if source != dicom.RLELossless {
			return nil, fmt.Errorf("cannot decode pixel data in %v", source)
		}
		decoded, err := rle.DecodePixelData(list)
		if err != nil {
			return nil, fmt.Errorf("RLE decoding pixel data: %w", err)
		}
		if list.Get(dicom.PlanarConfigurationTag) != nil {
			// decoded samples are interleaved
			planar, err := dicom.NewNumericAttributeWithValues[uint16](dicom.PlanarConfigurationTag, 0)
			if err != nil {
				return nil, err
			}
			list.Put(planar)
		}
		return decoded, nil
	case nil:
		return nil, fmt.Errorf("no pixel data")
	default:
		return nil, fmt.Errorf("unexpected pixel data %v", pixelData)
	}
}
