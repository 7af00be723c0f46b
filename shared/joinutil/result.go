// Copyright 2022 Google LLC
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

package joinutil

import "fmt"

// ExitError reports a join utility run that did not succeed. Output is the
// utility's combined output, unmodified.
type ExitError struct {
	ExitCode int
	Output   string
	TimedOut bool
}

func (e *ExitError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("msktutil timed out: %s", e.Output)
	}
	return fmt.Sprintf("msktutil failed with return code %d: %s", e.ExitCode, e.Output)
}

// Interpret maps a Result for fqdn to a success message or an *ExitError.
func Interpret(fqdn string, r Result) (string, error) {
	if r.ExitCode == 0 && !r.TimedOut {
		return fmt.Sprintf("computer account for host %s added to active directory", fqdn), nil
	}
	return "", &ExitError{ExitCode: r.ExitCode, Output: r.Output, TimedOut: r.TimedOut}
}
