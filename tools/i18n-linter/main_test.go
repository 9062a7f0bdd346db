// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestFlattenYAML(t *testing.T) {
	keys := make(map[string]struct{})
	flattenYAML("", map[string]any{
		"top":      map[string]any{"sub": "value"},
		"flat.key":  "v",
	}, keys)
	for _, k := range []string{"top.sub", "flat.key"} {
		if _, ok := keys[k]; !ok {
			t.Fatalf("expected %s in keys: %v", k, keys)
		}
	}
}

func TestLint(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "pkg", "a.go"), `package pkg
func f() { _ = i18n.T("a.used"); _ = i18n.T("a.unknown", 1) }`)
	write(t, filepath.Join(root, "pkg", "a_test.go"), `package pkg
func g() { _ = i18n.T("test.only") }`)
	write(t, filepath.Join(root, "_examples", "x.go"), `package x
func h() { _ = i18n.T("ignored.key") }`)
	locales := filepath.Join(root, "locales")
	write(t, filepath.Join(locales, "en.yaml"), "a.used: \"A\"\na.orphan: \"O\"\n")
	write(t, filepath.Join(locales, "de.yaml"), "a.used: \"A\"\n")

	rep, err := lint(root, locales)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if rep.Used != 2 {
		t.Fatalf("used = %d, want 2", rep.Used)
	}
	if len(rep.Unknown) != 1 || rep.Unknown[0] != "a.unknown" {
		t.Fatalf("unknown = %v", rep.Unknown)
	}
	if len(rep.Orphaned) != 1 || rep.Orphaned[0] != "a.orphan" {
		t.Fatalf("orphaned = %v", rep.Orphaned)
	}
	if m := rep.Missing["de.yaml"]; len(m) != 1 || m[0] != "a.orphan" {
		t.Fatalf("missing = %v", rep.Missing)
	}
	if !rep.Failed() {
		t.Fatalf("expected failure")
	}
}

func TestRepositoryCatalogsAreConsistent(t *testing.T) {
	root := filepath.Join("..", "..")
	rep, err := lint(root, filepath.Join(root, localesDir))
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if rep.Failed() {
		t.Fatalf("catalog problems: unknown=%v missing=%v", rep.Unknown, rep.Missing)
	}
}
