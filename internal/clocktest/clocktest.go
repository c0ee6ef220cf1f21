// Copyright 2025 Balance Lab, Inc.
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

// Package clocktest adapts the clockwork fake clock to the internal.Clock
// interface, keeping clockwork itself out of non-test code.
package clocktest

import (
	"time"

	"github.com/balancelab/addrlb/internal"
	"github.com/jonboulle/clockwork"
)

// FakeClock is a clock that can be manually advanced through time.
type FakeClock interface {
	internal.Clock
	Advance(d time.Duration)
}

// NewFakeClock creates a new FakeClock backed by clockwork.
func NewFakeClock() FakeClock {
	return fakeClock{clockwork.NewFakeClock()}
}

// fakeClock embeds the clockwork.FakeClock interface, which already
// satisfies internal.Clock and adds Advance.
type fakeClock struct {
	clockwork.FakeClock
}

var _ FakeClock = fakeClock{}
