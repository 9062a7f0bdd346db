// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// Package policy loads and saves the allow/block list consumed by the
// execution engine. The console passes it through without interpreting it.
package policy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xnfinite/nightcoreapp/internal/fsutil"
	"github.com/xnfinite/nightcoreapp/internal/model"
)

// FileName is the policy file inside the pro directory.
const FileName = "policies.json"

// Path returns the policy file location in dir.
func Path(dir string) string { return filepath.Join(dir, FileName) }

// Load reads the policy file. A missing file yields empty lists.
func Load(dir string) (model.PolicyFile, error) {
	pf := model.PolicyFile{Allow: []string{}, Block: []string{}}
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return pf, nil
		}
		return pf, fmt.Errorf("read policies: %w", err)
	}
	if err := json.Unmarshal(data, &pf); err != nil {
		return pf, fmt.Errorf("%w: policies.json: %v", model.ErrParse, err)
	}
	if pf.Allow == nil {
		pf.Allow = []string{}
	}
	if pf.Block == nil {
		pf.Block = []string{}
	}
	return pf, nil
}

// Save writes the policy file atomically.
func Save(dir string, pf model.PolicyFile) error {
	if pf.Allow == nil {
		pf.Allow = []string{}
	}
	if pf.Block == nil {
		pf.Block = []string{}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create pro directory: %w", err)
	}
	return fsutil.WriteJSONAtomic(Path(dir), pf, 0o644)
}
