// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// Package quarantine derives the read-only quarantine listing from the
// decision log. Quarantine runs in log-only mode: entries are evidence and
// are never restored or deleted by the console.
package quarantine

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"

	"github.com/xnfinite/nightcoreapp/internal/decisionlog"
	"github.com/xnfinite/nightcoreapp/internal/model"
	"github.com/xnfinite/nightcoreapp/internal/pathmask"
)

// Threshold is the inclusive threat score that quarantines an entry.
const Threshold = 85

// Keyword quarantines an entry when found in its reason, ignoring case.
const Keyword = "quarantine"

var foldedKeyword = cases.Fold().String(Keyword)

// Selected reports whether e meets the quarantine policy.
func Selected(e model.DecisionLogEntry) bool {
	if e.ThreatScore >= Threshold {
		return true
	}
	// Casers are stateful, so each call gets its own.
	return strings.Contains(cases.Fold().String(e.Reason), foldedKeyword)
}

// EntryName is the display name of a quarantine item.
func EntryName(e model.DecisionLogEntry) string {
	return e.Tenant + "-" + e.Timestamp
}

// Select returns one item per qualifying entry, in log order, without
// deduplicating tenants. Paths are masked against root.
func Select(root string, entries []model.DecisionLogEntry) []model.QuarantineEntry {
	var out []model.QuarantineEntry
	for _, e := range entries {
		if !Selected(e) {
			continue
		}
		name := EntryName(e)
		out = append(out, model.QuarantineEntry{
			Name:        name,
			Tenant:      e.Tenant,
			Timestamp:   e.Timestamp,
			ThreatScore: e.ThreatScore,
			Reason:      e.Reason,
			Path:        pathmask.Mask(root, filepath.Join(root, "quarantine", name)),
		})
	}
	return out
}

// List reads the decision log under root and selects quarantine items.
func List(root string) ([]model.QuarantineEntry, error) {
	entries, err := decisionlog.ReadEntries(decisionlog.PathFor(root))
	if err != nil {
		return nil, err
	}
	return Select(root, entries), nil
}

// Restore is rejected in log-only mode.
func Restore(string) error {
	return &model.PolicyError{Message: "Restore is disabled in log-only quarantine mode."}
}

// Delete is rejected in log-only mode.
func Delete(string) error {
	return &model.PolicyError{Message: "Delete is disabled in log-only quarantine mode."}
}
