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
	"errors"
	"fmt"
	"io"
)

// DecodingError reports that the input ended before a declared value, header or run-length pair
// was complete. It is fatal to the attribute being read and to the enclosing AttributeList.
type DecodingError struct {
	// Offset is the number of bytes consumed from the input when the error occurred
	Offset int64
	Err    error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decoding failed at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

// NewDecodingError returns a DecodingError for a truncation found at the given offset
func NewDecodingError(offset int64, format string, a ...interface{}) *DecodingError {
	return &DecodingError{offset, fmt.Errorf(format, a...)}
}

// DicomFormatError reports structurally invalid content: a VR that does not fit its length,
// inconsistent sequence item framing or pixel data frames of mixed element widths.
type DicomFormatError struct {
	Tag Tag
	Msg string
}

func (e *DicomFormatError) Error() string {
	if e.Tag == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%v: %s", e.Tag, e.Msg)
}

func formatError(tag Tag, format string, a ...interface{}) *DicomFormatError {
	return &DicomFormatError{tag, fmt.Sprintf(format, a...)}
}

// EncodingError reports a value that cannot be stored in or written from an Attribute, for
// example a value longer than its VR allows when the VR does not permit truncation.
type EncodingError struct {
	Tag Tag
	VR  *VR
	Msg string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%v %v: %s", e.Tag, e.VR, e.Msg)
}

// ValidationWarning is an advisory finding about the values of an Attribute. Warnings are never
// returned by decode. They are collected by Validate and can be acted upon with RepairValues.
type ValidationWarning struct {
	Tag Tag
	VR  *VR
	// Path lists the sequence tags and item indices leading to the attribute, outermost first
	Path string
	Msg  string
}

func (w *ValidationWarning) Error() string {
	if w.Path == "" {
		return fmt.Sprintf("%v %v: %s", w.Tag, w.VR, w.Msg)
	}
	return fmt.Sprintf("%s%v %v: %s", w.Path, w.Tag, w.VR, w.Msg)
}

// asDecodingError converts premature ends of input into DecodingErrors. Other errors, including a
// clean io.EOF, are returned as they are.
func asDecodingError(err error, offset int64) error {
	if err == nil || err == io.EOF {
		return err
	}
	var de *DecodingError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return &DecodingError{offset, err}
	}
	return err
}
