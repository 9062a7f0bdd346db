// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// Package engine is the boundary to the external execution engine. The
// console only ever invokes it as a blocking child process.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/xnfinite/nightcoreapp/internal/logging"
	"github.com/xnfinite/nightcoreapp/internal/model"
)

// Result is the outcome of one engine invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner invokes the engine with args. A non-zero exit is reported in
// Result, not as an error; errors mean the process could not run.
type Runner interface {
	Run(ctx context.Context, args ...string) (Result, error)
}

// ExecRunner runs Binary as a child process. Timeout zero means the call
// waits for the child indefinitely.
type ExecRunner struct {
	Binary  string
	Dir     string
	Timeout time.Duration
}

func (r *ExecRunner) Run(ctx context.Context, args ...string) (Result, error) {
	if r.Binary == "" {
		return Result{}, fmt.Errorf("engine binary: %w", model.ErrNotFound)
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.Debugf("engine: %s %v", filepath.Base(r.Binary), args)
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	default:
		return res, fmt.Errorf("run engine: %w", err)
	}
}

// Check converts a non-zero exit into a *model.ProcessError carrying the
// engine's stderr verbatim.
func Check(res Result, args []string) error {
	if res.ExitCode == 0 {
		return nil
	}
	return &model.ProcessError{Args: args, ExitCode: res.ExitCode, Stderr: res.Stderr}
}

// DefaultSigningKey returns the maintainer key the engine signs with.
func DefaultSigningKey(root string) string {
	return filepath.Join(root, "keys", "maintainers", "admin1.key")
}

// Signer asks the engine to sign a tenant directory.
type Signer struct {
	Runner Runner
	Root   string
	// KeyPath defaults to DefaultSigningKey(Root).
	KeyPath string
}

// SignTenant runs `sign --dir <root>/modules/<tenant> --key <key>`.
func (s *Signer) SignTenant(ctx context.Context, tenant string) (Result, error) {
	key := s.KeyPath
	if key == "" {
		key = DefaultSigningKey(s.Root)
	}
	if _, err := os.Stat(key); err != nil {
		return Result{}, fmt.Errorf("signing key %s: %w", filepath.Base(key), model.ErrNotFound)
	}
	args := []string{"sign", "--dir", filepath.Join(s.Root, "modules", tenant), "--key", key}
	res, err := s.Runner.Run(ctx, args...)
	if err != nil {
		return res, err
	}
	return res, Check(res, args)
}
