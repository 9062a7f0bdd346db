// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package license

import (
	"os"
	"strings"
)

// DeviceID returns the lowercase user@host identity the license is bound to.
func DeviceID() string {
	return deviceID(os.Getenv)
}

func deviceID(getenv func(string) string) string {
	user := firstNonEmpty(getenv("USER"), getenv("USERNAME"), "unknown-user")
	host := firstNonEmpty(getenv("HOSTNAME"), getenv("COMPUTERNAME"), "")
	if host == "" {
		if h, err := os.Hostname(); err == nil && h != "" {
			host = h
		} else {
			host = "unknown-host"
		}
	}
	return strings.ToLower(user) + "@" + strings.ToLower(host)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
