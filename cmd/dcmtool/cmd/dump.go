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
	"io"

	"github.com/spf13/cobra"

	"github.com/GoogleCloudPlatform/go-dicom-codec/dicom"
)

var dumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "Print the attributes of a DICOM file",
	Long: `Print every attribute of a DICOM file with its tag, VR, name and value.
Sequence items are listed with the byte offset they were read from.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		noPixels, _ := cmd.Flags().GetBool("no-pixels")
		return dump(cmd.OutOrStdout(), args[0], noPixels)
	},
}

func init() {
	dumpCmd.Flags().Bool("no-pixels", false, "stop reading before the pixel data")
	rootCmd.AddCommand(dumpCmd)
}

func dump(w io.Writer, path string, noPixels bool) error {
	var opts []dicom.ReadOption
	if noPixels {
		opts = append(opts, dicom.StopAtTag(dicom.PixelDataTag))
	}
	list, closer, err := readFile(path, opts...)
	if err != nil {
		return err
	}
	defer closer.Close()

	_, err = fmt.Fprintln(w, list)
	return err
}
