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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "ExplicitVRLittleEndian", cfg.OutputSyntax)
	assert.Equal(t, int64(1<<20), cfg.DeferredThreshold)
	assert.False(t, cfg.RepairOnValidate)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, FormatConsole, cfg.Logging.Format)
	assert.Empty(t, cfg.Logging.File)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dcmtool.yaml")
		require.NoError(t, os.WriteFile(path, []byte("output_syntax: ImplicitVRLittleEndian\nlogging:\n  level: debug\n"), 0600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "ImplicitVRLittleEndian", cfg.OutputSyntax)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, FormatConsole, cfg.Logging.Format)
		assert.Equal(t, int64(1<<20), cfg.DeferredThreshold)
	})

	t.Run("save then load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dcmtool.yaml")
		expected := &Config{
			OutputSyntax:      "1.2.840.10008.1.2.5",
			DeferredThreshold: 4096,
			RepairOnValidate:  true,
			Logging: Logging{
				Level:      "warn",
				Format:     FormatJSON,
				File:       "/var/log/dcmtool.log",
				MaxSizeMB:  5,
				MaxBackups: 1,
				MaxAgeDays: 7,
				Compress:   true,
			},
		}
		require.NoError(t, Save(expected, path))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, expected, cfg)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dcmtool.yaml")
		require.NoError(t, os.WriteFile(path, []byte("logging: [unclosed"), 0600))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"rle output", func(c *Config) { c.OutputSyntax = "RLE" }, true},
		{"jpeg output", func(c *Config) { c.OutputSyntax = "JPEGBaseline" }, false},
		{"unknown syntax", func(c *Config) { c.OutputSyntax = "NoSuchSyntax" }, false},
		{"negative threshold", func(c *Config) { c.DeferredThreshold = -1 }, false},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, false},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, false},
		{"negative rotation", func(c *Config) { c.Logging.MaxBackups = -2 }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(cfg)
			if tc.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}
