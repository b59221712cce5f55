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

// Package cmd holds the dcmtool commands
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/GoogleCloudPlatform/go-dicom-codec/dicom"
	"github.com/GoogleCloudPlatform/go-dicom-codec/internal/config"
)

// cfg is the configuration of the running command. It holds the defaults until
// PersistentPreRunE has loaded --config.
var cfg = config.DefaultConfig()

var logger = zerolog.Nop()

var rootCmd = &cobra.Command{
	Use:   "dcmtool",
	Short: "Inspect, validate and convert DICOM files",
	Long: `dcmtool reads DICOM Part 10 files in any native, deflated or RLE transfer syntax.
It prints their attributes, checks values against their VR, converts between
transfer syntaxes and extracts frames as PNG images.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path != "" {
			loaded, err := config.Load(path)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
		}

		l, err := setupLogging(cfg.Logging, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		logger = l
		dicom.SetLogger(l)
		return nil
	},
}

// Execute runs the command line and exits with status 1 on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
}

// setupLogging builds the logger described by lc. Records go to stderr and, when lc.File is set,
// also to a rotating log file.
func setupLogging(lc config.Logging, stderr io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", lc.Level, err)
	}

	var console io.Writer = stderr
	if lc.Format != config.FormatJSON {
		console = zerolog.ConsoleWriter{Out: stderr, TimeFormat: "15:04:05"}
	}
	out := console
	if lc.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxAge:     lc.MaxAgeDays,
			MaxBackups: lc.MaxBackups,
			Compress:   lc.Compress,
		}
		// the file always gets JSON records
		out = io.MultiWriter(console, rotator)
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// readFile reads the Part 10 file at path. Bulk values of at least the configured threshold stay
// in the file until they are needed, so the returned closer must only be called once the list is
// no longer used.
func readFile(path string, opts ...dicom.ReadOption) (*dicom.AttributeList, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DeferredThreshold > 0 {
		opts = append(opts, dicom.WithDeferredBulkData(f, cfg.DeferredThreshold))
	}
	list, err := dicom.ReadFile(f, opts...)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	logger.Debug().Str("file", path).Int("attributes", list.Len()).Msg("read file")
	return list, f, nil
}
