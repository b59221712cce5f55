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

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check attribute values against their VR",
	Long: `Report every value that is not well formed for its VR, including values nested in
sequences. With --repair the values are repaired first and only the problems that
remain are reported. The command fails when problems remain.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repair := cfg.RepairOnValidate
		if cmd.Flags().Changed("repair") {
			repair, _ = cmd.Flags().GetBool("repair")
		}
		remaining, err := validate(cmd.OutOrStdout(), args[0], repair)
		if err != nil {
			return err
		}
		if remaining > 0 {
			return fmt.Errorf("%d problems found", remaining)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().Bool("repair", false, "repair values before reporting")
	rootCmd.AddCommand(validateCmd)
}

// validate prints the validation warnings of the file at path and returns how many there are
func validate(w io.Writer, path string, repair bool) (int, error) {
	list, closer, err := readFile(path)
	if err != nil {
		return 0, err
	}
	defer closer.Close()

	warnings := dicom.Validate(list)
	if repair {
		before := len(warnings)
		warnings = dicom.Repair(list)
		fmt.Fprintf(w, "repaired %d of %d problems\n", before-len(warnings), before)
	}
	for _, warning := range warnings {
		fmt.Fprintln(w, warning)
	}
	logger.Info().Str("file", path).Int("problems", len(warnings)).Msg("validated")
	return len(warnings), nil
}
