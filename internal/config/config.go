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

// Package config loads the settings of dcmtool from a YAML file
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/GoogleCloudPlatform/go-dicom-codec/dicom"
)

// Config represents the dcmtool configuration
type Config struct {
	// OutputSyntax is the transfer syntax name or UID convert writes when --syntax is not given
	OutputSyntax string `yaml:"output_syntax"`

	// DeferredThreshold is the size in bytes from which bulk values are left in the file until
	// they are needed. 0 reads every value into memory.
	DeferredThreshold int64 `yaml:"deferred_threshold"`

	RepairOnValidate bool    `yaml:"repair_on_validate"`
	Logging          Logging `yaml:"logging"`
}

// Logging contains logging configuration. When File is empty logs go to stderr only.
type Logging struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		OutputSyntax:      dicom.ExplicitVRLittleEndian.Name,
		DeferredThreshold: 1 << 20,
		Logging: Logging{
			Level:      "info",
			Format:     FormatConsole,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads the configuration at path on top of DefaultConfig, so that a file only needs the
// settings it changes
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that every setting can be used
func (c *Config) Validate() error {
	syntax, err := dicom.LookupTransferSyntax(c.OutputSyntax)
	if err != nil {
		return fmt.Errorf("output_syntax: %w", err)
	}
	if syntax.Encapsulated && syntax != dicom.RLELossless {
		return fmt.Errorf("output_syntax: cannot encode pixel data in %v", syntax)
	}
	if c.DeferredThreshold < 0 {
		return fmt.Errorf("deferred_threshold must not be negative, got %d", c.DeferredThreshold)
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Logging.Format != FormatConsole && c.Logging.Format != FormatJSON {
		return fmt.Errorf("logging.format must be %q or %q, got %q", FormatConsole, FormatJSON, c.Logging.Format)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return fmt.Errorf("logging rotation settings must not be negative")
	}
	return nil
}
