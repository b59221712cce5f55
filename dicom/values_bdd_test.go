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
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"
)

// valuesContext holds the attribute of a single scenario
type valuesContext struct {
	attr   *StringAttribute
	setErr error
}

func TestValueFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeValueScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func initializeValueScenario(sc *godog.ScenarioContext) {
	vc := &valuesContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		*vc = valuesContext{}
		return ctx, nil
	})

	sc.Step(`^an? "([^"]*)" attribute with value "([^"]*)"$`, vc.anAttributeWithValue)
	sc.Step(`^an empty "([^"]*)" attribute$`, vc.anEmptyAttribute)
	sc.Step(`^I repair the values$`, vc.iRepairTheValues)
	sc.Step(`^I set the value to "([^"]*)"$`, vc.iSetTheValueTo)
	sc.Step(`^the values (should|should not) be well formed$`, vc.theValuesShouldBeWellFormed)
	sc.Step(`^the value should be "([^"]*)"$`, vc.theValueShouldBe)
	sc.Step(`^setting the value (succeeds|fails)$`, vc.settingTheValue)
	sc.Step(`^the value length should be (\d+)$`, vc.theValueLengthShouldBe)
}

func (vc *valuesContext) anEmptyAttribute(vrName string) error {
	vr, err := LookupVR(vrName)
	if err != nil {
		return err
	}
	vc.attr = NewStringAttribute(NewTag(0x0011, 0x1001), vr)
	return nil
}

// anAttributeWithValue bypasses SetValues so that malformed values can be checked
func (vc *valuesContext) anAttributeWithValue(vrName, value string) error {
	if err := vc.anEmptyAttribute(vrName); err != nil {
		return err
	}
	vc.attr.values = []string{strings.ReplaceAll(value, `\t`, "\t")}
	return nil
}

func (vc *valuesContext) iRepairTheValues() error {
	vc.attr.RepairValues()
	return nil
}

func (vc *valuesContext) iSetTheValueTo(value string) error {
	vc.setErr = vc.attr.SetValues(value)
	return nil
}

func (vc *valuesContext) theValuesShouldBeWellFormed(outcome string) error {
	want := outcome == "should"
	if got := vc.attr.AreValuesWellFormed(); got != want {
		return fmt.Errorf("AreValuesWellFormed() of %v => %v, want %v", vc.attr, got, want)
	}
	return nil
}

func (vc *valuesContext) theValueShouldBe(want string) error {
	if got := vc.attr.Value(); got != want {
		return fmt.Errorf("got %q, want %q", got, want)
	}
	return nil
}

func (vc *valuesContext) settingTheValue(result string) error {
	if result == "succeeds" {
		return vc.setErr
	}
	var encodingErr *EncodingError
	if !errors.As(vc.setErr, &encodingErr) {
		return fmt.Errorf("got %v, want EncodingError", vc.setErr)
	}
	return nil
}

func (vc *valuesContext) theValueLengthShouldBe(length int) error {
	if got := vc.attr.ValueLength(); got != uint32(length) {
		return fmt.Errorf("got value length %d, want %d", got, length)
	}
	return nil
}
