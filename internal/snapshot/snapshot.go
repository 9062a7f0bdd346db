// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// Package snapshot exports the reconciled trust state as a Zstandard
// compressed JSON document for offline review. Snapshots contain only
// masked paths and never contain key material.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/xnfinite/nightcoreapp/internal/model"
)

// SchemaVersion is bumped whenever Data changes incompatibly.
const SchemaVersion = 1

// Extension is appended to snapshot file names.
const Extension = ".json.zst"

// Data is the exported document.
type Data struct {
	SchemaVersion int                     `json:"schema_version"`
	ID            string                  `json:"id"`
	CreatedAt     string                  `json:"created_at"`
	Tenants       []model.TenantState     `json:"tenants"`
	Quarantine    []model.QuarantineEntry `json:"quarantine"`
	Pro           model.ProStatus         `json:"pro"`
}

// FileName normalizes a target file name, defaulting to a dated name.
func FileName(name string, now time.Time) string {
	if name == "" {
		return fmt.Sprintf("nightcore-snapshot-%s%s", now.Format("2006-01-02"), Extension)
	}
	if !strings.HasSuffix(name, ".zst") {
		name += ".zst"
	}
	return name
}

// Write streams d to w as zstd-compressed, indented JSON.
func Write(w io.Writer, d *Data) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("could not create zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		_ = zw.Close()
		return fmt.Errorf("could not encode snapshot: %w", err)
	}
	return zw.Close()
}

// Read decodes a snapshot and rejects unknown schema versions.
func Read(r io.Reader) (*Data, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zr.Close()
	var d Data
	if err := json.NewDecoder(zr).Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: snapshot: %v", model.ErrParse, err)
	}
	if d.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: snapshot schema %d, expected %d", model.ErrParse, d.SchemaVersion, SchemaVersion)
	}
	return &d, nil
}

// WriteFile writes d to path, creating it with owner-only permissions.
func WriteFile(path string, d *Data) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	if err := Write(f, d); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads a snapshot from path.
func ReadFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}
