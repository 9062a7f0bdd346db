// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// Package ingest imports operator-supplied artifacts into the trust root as
// new tenants.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/xnfinite/nightcoreapp/internal/fsutil"
	"github.com/xnfinite/nightcoreapp/internal/model"
	"github.com/xnfinite/nightcoreapp/internal/tenant"
)

// Kind is the closed set of importable artifacts.
type Kind int

const (
	// Wasm is a single WebAssembly module, stored as module.wasm.
	Wasm Kind = iota + 1
	// Zip is a tenant bundle extracted into the tenant directory.
	Zip
)

func (k Kind) String() string {
	switch k {
	case Wasm:
		return "wasm"
	case Zip:
		return "zip"
	default:
		return "unknown"
	}
}

// SourceTag is recorded as ingestion.source for console imports.
const SourceTag = "console_import"

// Limits for bundle extraction.
const (
	maxBundleFiles = 4096
	maxBundleBytes = 512 << 20
)

// KindOf resolves the artifact kind from the file extension.
func KindOf(path string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wasm":
		return Wasm, nil
	case ".zip":
		return Zip, nil
	default:
		return 0, fmt.Errorf("%w: unsupported artifact %q (expected .wasm or .zip)", model.ErrInvalidFormat, filepath.Base(path))
	}
}

// Import copies or extracts src into a new tenant directory named
// tenant-<unix seconds> and writes an unapproved manifest on the unspecified
// channel. It returns the tenant name.
// A half-written tenant is removed on failure.
func Import(root, src string, now time.Time) (string, error) {
	kind, err := KindOf(src)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("artifact %s: %w", filepath.Base(src), model.ErrNotFound)
		}
		return "", fmt.Errorf("stat artifact: %w", err)
	}

	name, dir, err := reserve(root, now)
	if err != nil {
		return "", err
	}
	if err := kind.handle(src, dir); err != nil {
		_ = os.RemoveAll(dir)
		return "", err
	}

	// Imports are unapproved until an operator clears them in the inbox.
	manifest := tenant.Manifest{Ingestion: &model.IngestionState{
		Channel:   model.ChannelUnspecified,
		Source:    SourceTag,
		Timestamp: now.UTC().Format(time.RFC3339),
	}}
	if err := fsutil.WriteJSONAtomic(filepath.Join(dir, tenant.ManifestName), manifest, 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return "", err
	}
	return name, nil
}

func (k Kind) handle(src, dir string) error {
	switch k {
	case Wasm:
		return copyFile(src, filepath.Join(dir, "module.wasm"))
	case Zip:
		return extract(src, dir)
	default:
		return fmt.Errorf("%w: artifact kind %d", model.ErrInvalidFormat, k)
	}
}

// reserve creates a fresh tenant directory, suffixing the name when an
// import in the same second already claimed it.
func reserve(root string, now time.Time) (string, string, error) {
	if err := os.MkdirAll(tenant.ModulesDir(root), 0o755); err != nil {
		return "", "", fmt.Errorf("create modules dir: %w", err)
	}
	base := "tenant-" + strconv.FormatInt(now.Unix(), 10)
	for i := 0; i < 1000; i++ {
		name := base
		if i > 0 {
			name = base + "-" + strconv.Itoa(i)
		}
		dir := tenant.Dir(root, name)
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return name, dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", fmt.Errorf("create tenant dir: %w", err)
		}
	}
	return "", "", fmt.Errorf("no free tenant name for %s", base)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(dst), err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy artifact: %w", err)
	}
	return out.Close()
}

func extract(src, dir string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("%w: open bundle: %v", model.ErrInvalidFormat, err)
	}
	defer zr.Close()
	if len(zr.File) > maxBundleFiles {
		return fmt.Errorf("%w: bundle has %d entries", model.ErrInvalidFormat, len(zr.File))
	}

	var total int64
	for _, f := range zr.File {
		target, err := safeJoin(dir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", f.Name, err)
			}
			continue
		}
		if !f.Mode().IsRegular() {
			return fmt.Errorf("%w: bundle entry %s is not a regular file", model.ErrInvalidFormat, f.Name)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(f.Name), err)
		}
		n, err := writeEntry(f, target, maxBundleBytes-total)
		if err != nil {
			return err
		}
		total += n
	}
	return nil
}

func writeEntry(f *zip.File, target string, budget int64) (int64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %v", model.ErrInvalidFormat, f.Name, err)
	}
	defer rc.Close()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", f.Name, err)
	}
	n, err := io.Copy(out, io.LimitReader(rc, budget+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("extract %s: %w", f.Name, err)
	}
	if n > budget {
		return n, fmt.Errorf("%w: bundle exceeds %d bytes", model.ErrInvalidFormat, int64(maxBundleBytes))
	}
	return n, nil
}

// safeJoin resolves an archive entry name inside dir, rejecting absolute
// names and any path that climbs out.
func safeJoin(dir, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.ReplaceAll(name, `\`, "/")))
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: bundle entry %q escapes the tenant directory", model.ErrInvalidFormat, name)
	}
	return filepath.Join(dir, clean), nil
}
