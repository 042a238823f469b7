// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bundler

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the component entry file does not exist.
var ErrNotFound = errors.New("ui component not found")

// BuildError indicates esbuild failed. Output carries the tool's
// combined stdout/stderr for diagnostics.
type BuildError struct {
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("bundle build failed: %v\n%s", e.Err, e.Output)
	}
	return fmt.Sprintf("bundle build failed: %v", e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
