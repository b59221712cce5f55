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
	"fmt"
)

// Validate checks the values of every attribute of list, including the items of sequences, and
// returns one warning per problem found. It never modifies list.
func Validate(list *AttributeList) []*ValidationWarning {
	return validateList(list, "")
}

func validateList(list *AttributeList, path string) []*ValidationWarning {
	var warnings []*ValidationWarning
	for _, attr := range list.Attributes() {
		switch a := attr.(type) {
		case *SequenceAttribute:
			for i, item := range a.items {
				itemPath := fmt.Sprintf("%s%v[%d].", path, a.tag, i)
				warnings = append(warnings, validateList(item.List, itemPath)...)
			}
		case *StringAttribute:
			for _, v := range a.values {
				if msg := a.valueProblem(v); msg != "" {
					warnings = append(warnings, &ValidationWarning{a.tag, a.vr, path, msg})
				}
			}
		default:
			if !attr.AreValuesWellFormed() {
				warnings = append(warnings, &ValidationWarning{attr.Tag(), attr.VR(), path, "values are not well formed"})
			}
		}
	}
	return warnings
}

// Repair calls RepairValues on every attribute of list that is not well formed and returns the
// warnings that remain afterwards
func Repair(list *AttributeList) []*ValidationWarning {
	for _, attr := range list.Attributes() {
		if !attr.AreValuesWellFormed() {
			if !attr.RepairValues() {
				logger.Debug().Stringer("tag", attr.Tag()).Str("vr", attr.VR().String()).Msg("values still not well formed after repair")
			}
		}
	}
	return Validate(list)
}
