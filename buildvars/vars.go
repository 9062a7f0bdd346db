// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// Package buildvars contains variables injected at build time.
package buildvars

// Version is set at link time via
// `-ldflags -X github.com/xnfinite/nightcoreapp/buildvars.Version=...`.
// It is empty for local builds.
var Version string

// VersionOrDefault returns Version if set, otherwise def.
func VersionOrDefault(def string) string {
	if len(Version) > 0 {
		return Version
	}
	return def
}
