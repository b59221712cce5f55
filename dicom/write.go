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

// writeAttributeList writes the attributes of list in ascending tag order. Text values are
// encoded with the character set declared by the list, or parent when it declares none.
func writeAttributeList(dw *dcmWriter, list *AttributeList, syntax *TransferSyntax, parent *SpecificCharacterSet) error {
	cs := parent
	if declared := list.declaredCharacterSet(); declared != nil {
		cs = declared
	}
	for _, attr := range list.Attributes() {
		if err := writeAttribute(dw, attr, syntax, cs); err != nil {
			return err
		}
	}
	return nil
}

func writeAttribute(dw *dcmWriter, attr Attribute, syntax *TransferSyntax, cs *SpecificCharacterSet) error {
	if err := attr.write(dw, syntax, cs); err != nil {
		return fmt.Errorf("writing attribute %v: %w", attr.Tag(), err)
	}
	return nil
}
