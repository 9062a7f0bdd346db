// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package quarantine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xnfinite/nightcoreapp/internal/decisionlog"
	"github.com/xnfinite/nightcoreapp/internal/model"
)

func TestSelected(t *testing.T) {
	tests := []struct {
		name   string
		score  uint8
		reason string
		want   bool
	}{
		{"at threshold", 85, "ok", true},
		{"below threshold", 84, "ok", false},
		{"keyword capitalized", 10, "Quarantine triggered", true},
		{"keyword upper", 0, "AUTO-QUARANTINE", true},
		{"keyword inside word", 0, "prequarantined", true},
		{"max score", 255, "", true},
		{"nothing", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := model.DecisionLogEntry{Tenant: "t", Timestamp: "ts", ThreatScore: tt.score, Reason: tt.reason}
			if got := Selected(e); got != tt.want {
				t.Fatalf("Selected(%d, %q) = %v, want %v", tt.score, tt.reason, got, tt.want)
			}
		})
	}
}

func TestSelect_NoDedupAndMaskedPaths(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nightcore")
	entries := []model.DecisionLogEntry{
		{Tenant: "t1", Timestamp: "2024-01-01T00:00:01Z", ThreatScore: 90},
		{Tenant: "t1", Timestamp: "2024-01-01T00:00:02Z", ThreatScore: 95},
		{Tenant: "t2", Timestamp: "2024-01-01T00:00:03Z", ThreatScore: 5},
	}
	got := Select(root, entries)
	if len(got) != 2 {
		t.Fatalf("expected two items for t1, got %+v", got)
	}
	if got[0].Name != "t1-2024-01-01T00:00:01Z" || got[1].Name != "t1-2024-01-01T00:00:02Z" {
		t.Fatalf("unexpected names %q %q", got[0].Name, got[1].Name)
	}
	for _, q := range got {
		if !strings.HasPrefix(q.Path, "worker://") || strings.Contains(q.Path, root) {
			t.Fatalf("path not masked: %s", q.Path)
		}
		if !strings.HasSuffix(q.Path, "/quarantine/"+q.Name) {
			t.Fatalf("unexpected path %s", q.Path)
		}
	}
}

func TestList_ReadsLog(t *testing.T) {
	root := t.TempDir()
	p := decisionlog.PathFor(root)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data := `{"tenant":"tenant-1700000000","timestamp":"2024-01-01T00:00:01Z","threat_score":90,"reason":"policy violation"}
garbage
{"tenant":"calm","timestamp":"2024-01-01T00:00:02Z","threat_score":3,"reason":"ok"}
`
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	items, err := List(root)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Tenant != "tenant-1700000000" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestList_MissingLog(t *testing.T) {
	items, err := List(t.TempDir())
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty list, got %v %v", items, err)
	}
}

func TestRestoreDeleteDisabled(t *testing.T) {
	err := Restore("t1-x")
	if !errors.Is(err, model.ErrPolicyDisabled) || err.Error() != "Restore is disabled in log-only quarantine mode." {
		t.Fatalf("unexpected restore error %v", err)
	}
	err = Delete("t1-x")
	if !errors.Is(err, model.ErrPolicyDisabled) || err.Error() != "Delete is disabled in log-only quarantine mode." {
		t.Fatalf("unexpected delete error %v", err)
	}
}
