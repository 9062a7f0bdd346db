// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package engine

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/xnfinite/nightcoreapp/internal/model"
)

type fakeRunner struct {
	calls [][]string
	res   Result
	err   error
}

func (f *fakeRunner) Run(_ context.Context, args ...string) (Result, error) {
	f.calls = append(f.calls, args)
	return f.res, f.err
}

func seedKey(t *testing.T, root string) string {
	t.Helper()
	key := DefaultSigningKey(root)
	if err := os.MkdirAll(filepath.Dir(key), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(key, []byte("k"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return key
}

func TestSignTenant_Args(t *testing.T) {
	root := t.TempDir()
	key := seedKey(t, root)
	f := &fakeRunner{res: Result{Stdout: "signed"}}
	s := &Signer{Runner: f, Root: root}
	res, err := s.SignTenant(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("SignTenant: %v", err)
	}
	if res.Stdout != "signed" {
		t.Fatalf("unexpected result %+v", res)
	}
	want := []string{"sign", "--dir", filepath.Join(root, "modules", "tenant-1"), "--key", key}
	if len(f.calls) != 1 || len(f.calls[0]) != len(want) {
		t.Fatalf("unexpected calls %v", f.calls)
	}
	for i := range want {
		if f.calls[0][i] != want[i] {
			t.Fatalf("arg %d = %q, want %q", i, f.calls[0][i], want[i])
		}
	}
}

func TestSignTenant_MissingKey(t *testing.T) {
	f := &fakeRunner{}
	s := &Signer{Runner: f, Root: t.TempDir()}
	if _, err := s.SignTenant(context.Background(), "t"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(f.calls) != 0 {
		t.Fatalf("engine must not run without a key")
	}
}

func TestSignTenant_NonZeroExitSurfacesStderr(t *testing.T) {
	root := t.TempDir()
	seedKey(t, root)
	f := &fakeRunner{res: Result{ExitCode: 3, Stderr: "error: module.wasm missing\n"}}
	s := &Signer{Runner: f, Root: root}
	_, err := s.SignTenant(context.Background(), "t")
	var pe *model.ProcessError
	if !errors.As(err, &pe) || !errors.Is(err, model.ErrProcessFailure) {
		t.Fatalf("expected ProcessError, got %v", err)
	}
	if pe.ExitCode != 3 || err.Error() != "error: module.wasm missing\n" {
		t.Fatalf("stderr not verbatim: %q (exit %d)", err.Error(), pe.ExitCode)
	}
}

func TestExecRunner_ExitCodes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	r := &ExecRunner{Binary: sh}
	res, err := r.Run(context.Background(), "-c", "echo out; echo err >&2; exit 4")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 4 || res.Stdout != "out\n" || res.Stderr != "err\n" {
		t.Fatalf("unexpected result %+v", res)
	}
	if err := Check(res, nil); !errors.Is(err, model.ErrProcessFailure) {
		t.Fatalf("Check should fail on exit 4")
	}
}

func TestExecRunner_NoBinary(t *testing.T) {
	if _, err := (&ExecRunner{}).Run(context.Background()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
