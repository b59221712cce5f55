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

import (
	"io"
)

// readConfig holds everything that stays fixed while one data set is decoded
type readConfig struct {
	dict     Dictionary
	resolver CharacterSetResolver

	// deferred bulk data
	src       io.ReaderAt
	threshold int64

	stopAt           Tag
	dropGroupLengths bool
}

func newReadConfig(opts []ReadOption) *readConfig {
	cfg := &readConfig{dict: DefaultDictionary, resolver: DefaultCharacterSetResolver}
	for _, opt := range opts {
		opt.configure(cfg)
	}
	return cfg
}

// ReadOption configures the behavior of AttributeList.Read and ReadFile.
type ReadOption struct {
	configure func(*readConfig)
}

// WithDictionary returns a ReadOption that resolves the VR of implicit VR attributes with dict
// instead of DefaultDictionary.
func WithDictionary(dict Dictionary) ReadOption {
	return ReadOption{func(c *readConfig) {
		c.dict = dict
	}}
}

// WithCharacterSetResolver returns a ReadOption that maps Specific Character Set values to
// decoders with resolver instead of DefaultCharacterSetResolver.
func WithCharacterSetResolver(resolver CharacterSetResolver) ReadOption {
	return ReadOption{func(c *readConfig) {
		c.resolver = resolver
	}}
}

// WithDeferredBulkData returns a ReadOption that leaves the values of other-binary attributes
// (OB, OD, OF, OL, OV, OW, UN) of at least threshold bytes unread. Only their location is kept
// and Materialize reads them from src. Offsets are counted from the first byte read, so src must
// present the same bytes as the stream being read, starting at offset 0.
func WithDeferredBulkData(src io.ReaderAt, threshold int64) ReadOption {
	return ReadOption{func(c *readConfig) {
		c.src = src
		c.threshold = threshold
	}}
}

// StopAtTag returns a ReadOption that stops reading the top level data set before the first
// attribute whose tag is not lower than tag. StopAtTag(PixelDataTag) reads everything but the
// pixel data.
func StopAtTag(tag Tag) ReadOption {
	return ReadOption{func(c *readConfig) {
		c.stopAt = tag
	}}
}

// DropGroupLengths will exclude all group length elements (gggg,0000) from the returned list.
// They are recomputed or omitted on write anyway.
var DropGroupLengths = ReadOption{func(c *readConfig) {
	c.dropGroupLengths = true
}}
