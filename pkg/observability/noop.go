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

package observability

import (
	"context"
	"time"
)

// Noop is a Recorder that discards everything. Used when metrics are
// disabled and as a default in tests.
type Noop struct{}

var _ Recorder = Noop{}

func (Noop) BundleBuilt(context.Context, string, time.Duration, bool) {}
func (Noop) BundleCacheHit(context.Context, string)                   {}
func (Noop) EventEmitted(context.Context, string)                     {}
func (Noop) EventDropped(context.Context, string)                     {}
func (Noop) StreamOpened(context.Context)                             {}
func (Noop) StreamClosed(context.Context)                             {}
