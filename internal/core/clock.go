// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import "time"

// Clock provides an abstraction over time.Now for testability.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// FixedClock always returns T.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }
