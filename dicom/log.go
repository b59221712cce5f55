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

import "github.com/rs/zerolog"

var logger = zerolog.Nop()

// SetLogger sets the logger used by the package for debug events such as transfer syntax
// switches, deferred bulk data and value repairs. The package is silent by default.
func SetLogger(l zerolog.Logger) {
	logger = l.With().Str("component", "dicom").Logger()
}
