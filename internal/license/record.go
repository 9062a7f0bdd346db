// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// Package license manages the locally cached Guardian PRO license. The
// cached record is signed with a device-bound secret so that copying or
// editing license.json never grants entitlement on its own.
package license

import (
	"strconv"
	"strings"

	"github.com/xnfinite/nightcoreapp/internal/model"
	"github.com/xnfinite/nightcoreapp/internal/security"
)

// Canonical returns the signed message for r: one key=value line per
// field, in fixed order, signature excluded, values trimmed.
func Canonical(r model.LicenseRecord) string {
	fields := []struct{ k, v string }{
		{"license_key", r.LicenseKey},
		{"tier", r.Tier},
		{"activated_at", r.ActivatedAt},
		{"valid", strconv.FormatBool(r.Valid)},
		{"device_id", r.DeviceID},
		{"provider", r.Provider},
	}
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(f.k)
		b.WriteByte('=')
		b.WriteString(strings.TrimSpace(f.v))
		b.WriteByte('\n')
	}
	return b.String()
}

// Sign returns r with its signature set.
func Sign(r model.LicenseRecord, secret security.Secret) model.LicenseRecord {
	r.Signature = secret.Sign(Canonical(r))
	return r
}

// Verify reports whether r carries a signature matching its fields. An
// absent signature is accepted as a legacy record.
func Verify(r model.LicenseRecord, secret security.Secret) bool {
	if strings.TrimSpace(r.Signature) == "" {
		return true
	}
	return secret.Verify(Canonical(r), strings.TrimSpace(r.Signature))
}
