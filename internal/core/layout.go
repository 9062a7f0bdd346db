// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xnfinite/nightcoreapp/internal/model"
)

// LayoutDirs are created under the trust root by EnsureLayout.
var LayoutDirs = []string{
	"modules",
	"logs",
	"quarantine",
	"proof",
	"guardian",
	"state",
	filepath.Join("keys", "maintainers"),
}

// EnsureLayout creates the runtime directory tree under root.
func EnsureLayout(root string) error {
	for _, d := range LayoutDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	return nil
}

// ReadRuntimeFile reads rel relative to root. Absolute paths and paths
// leaving root are rejected.
func ReadRuntimeFile(root, rel string) ([]byte, error) {
	if rel == "" || filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, `\`) {
		return nil, fmt.Errorf("%w: runtime path must be relative", model.ErrInvalidFormat)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("%w: runtime path leaves the trust root", model.ErrInvalidFormat)
	}
	data, err := os.ReadFile(filepath.Join(root, clean))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("runtime file %s: %w", filepath.ToSlash(clean), model.ErrNotFound)
		}
		return nil, fmt.Errorf("read runtime file: %w", err)
	}
	return data, nil
}
