// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks that every i18n.T key used in the source exists in
// the primary catalog, that the other catalogs carry the same keys, and
// lists catalog keys nothing uses.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
)

var keyCall = regexp.MustCompile(`i18n\.T\("([^"]+)"`)

// skipDirs are never scanned for keys.
var skipDirs = map[string]bool{"tools": true, "_examples": true, ".git": true, "vendor": true}

// Report is the outcome of one lint run.
type Report struct {
	Used     int
	Unknown  []string            // used in code, absent from the primary catalog
	Orphaned []string            // in the primary catalog, unused
	Missing  map[string][]string // per secondary catalog
}

// Failed reports whether the run found blocking problems. Orphans only warn.
func (r Report) Failed() bool {
	if len(r.Unknown) > 0 {
		return true
	}
	for _, m := range r.Missing {
		if len(m) > 0 {
			return true
		}
	}
	return false
}

func main() {
	rep, err := lint(".", localesDir)
	if err != nil {
		fmt.Printf("i18n-linter: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%d keys used in source\n", rep.Used)
	printList("unknown key", rep.Unknown)
	names := make([]string, 0, len(rep.Missing))
	for n := range rep.Missing {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		printList("missing in "+n, rep.Missing[n])
	}
	printList("orphaned", rep.Orphaned)
	if rep.Failed() {
		os.Exit(1)
	}
}

func printList(label string, keys []string) {
	for _, k := range keys {
		fmt.Printf("  %s: %s\n", label, k)
	}
}

func lint(root, locales string) (Report, error) {
	used, err := findUsedKeys(root)
	if err != nil {
		return Report{}, err
	}
	primary, err := loadKeysFromLocale(filepath.Join(locales, primaryLocale))
	if err != nil {
		return Report{}, fmt.Errorf("primary catalog: %w", err)
	}

	rep := Report{Used: len(used), Missing: map[string][]string{}}
	for k := range used {
		if _, ok := primary[k]; !ok {
			rep.Unknown = append(rep.Unknown, k)
		}
	}
	for k := range primary {
		if _, ok := used[k]; !ok {
			rep.Orphaned = append(rep.Orphaned, k)
		}
	}
	sort.Strings(rep.Unknown)
	sort.Strings(rep.Orphaned)

	files, err := filepath.Glob(filepath.Join(locales, "*.yaml"))
	if err != nil {
		return Report{}, err
	}
	for _, f := range files {
		if filepath.Base(f) == primaryLocale {
			continue
		}
		keys, err := loadKeysFromLocale(f)
		if err != nil {
			return Report{}, fmt.Errorf("%s: %w", filepath.Base(f), err)
		}
		var missing []string
		for k := range primary {
			if _, ok := keys[k]; !ok {
				missing = append(missing, k)
			}
		}
		sort.Strings(missing)
		rep.Missing[filepath.Base(f)] = missing
	}
	return rep, nil
}

// findUsedKeys scans non-test .go files under root for i18n.T("key").
func findUsedKeys(root string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, m := range keyCall.FindAllStringSubmatch(string(content), -1) {
			keys[m[1]] = struct{}{}
		}
		return nil
	})
	return keys, err
}

// loadKeysFromLocale returns the flattened keys of a YAML catalog.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	flattenYAML("", data, keys)
	return keys, nil
}

// flattenYAML joins nested map keys with dots.
func flattenYAML(prefix string, node any, keys map[string]struct{}) {
	m, ok := node.(map[string]any)
	if !ok {
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
		return
	}
	for k, v := range m {
		next := k
		if prefix != "" {
			next = prefix + "." + k
		}
		flattenYAML(next, v, keys)
	}
}
