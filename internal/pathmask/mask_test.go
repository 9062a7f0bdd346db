// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package pathmask

import (
	"strings"
	"testing"
)

func TestMask(t *testing.T) {
	tests := []struct {
		name string
		root string
		path string
		want string
	}{
		{"unix under root", "/home/op/.nightcore", "/home/op/.nightcore/quarantine/t-1", "worker:///quarantine/t-1"},
		{"root itself", "/home/op/.nightcore", "/home/op/.nightcore", "worker://"},
		{"windows under root", `C:\Users\op\.nightcore`, `C:\Users\op\.nightcore\modules\t`, "worker:///modules/t"},
		{"mixed separators", `C:\Users\op\.nightcore`, `C:/Users/op/.nightcore/logs`, "worker:///logs"},
		{"outside root", "/home/op/.nightcore", `/tmp\drop\x.wasm`, "/tmp/drop/x.wasm"},
		{"stray root after prefix", "/a", "/a/aa", "worker://worker:/worker://"},
		{"empty root", "", `a\b`, "a/b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mask(tt.root, tt.path); got != tt.want {
				t.Fatalf("Mask(%q, %q) = %q, want %q", tt.root, tt.path, got, tt.want)
			}
		})
	}
}

func TestMaskNeverLeaksRoot(t *testing.T) {
	roots := []string{"/a", "/srv/nightcore", `D:\nc`}
	suffixes := []string{"", "/x", "/a/b", "/srv/nightcore/again", `\nc\deep`, "/a/a/a"}
	for _, root := range roots {
		for _, suf := range suffixes {
			p := root + suf
			got := Mask(root, p)
			if !strings.HasPrefix(got, Scheme) {
				t.Fatalf("Mask(%q, %q) = %q, want %s prefix", root, p, got, Scheme)
			}
			if strings.Contains(got, root) || strings.Contains(got, normalize(root)) {
				t.Fatalf("Mask(%q, %q) = %q leaks root", root, p, got)
			}
		}
	}
}

func TestMaskerBindsRoot(t *testing.T) {
	m := Masker{Root: "/r"}
	if got := m.Mask("/r/modules"); got != "worker:///modules" {
		t.Fatalf("got %q", got)
	}
}
