// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package policy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xnfinite/nightcoreapp/internal/model"
)

func TestLoad_MissingFile(t *testing.T) {
	pf, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if pf.Allow == nil || pf.Block == nil || len(pf.Allow)+len(pf.Block) != 0 {
		t.Fatalf("expected empty non-nil lists, got %+v", pf)
	}
}

func TestSaveThenLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pro")
	in := model.PolicyFile{Allow: []string{"tenant-a"}, Block: []string{"tenant-b", "tenant-c"}}
	if err := Save(dir, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out.Allow) != 1 || out.Allow[0] != "tenant-a" || len(out.Block) != 2 {
		t.Fatalf("unexpected policies %+v", out)
	}
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(Path(dir), []byte(`{"allow":"x"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(dir); !errors.Is(err, model.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}
