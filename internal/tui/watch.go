// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/xnfinite/nightcoreapp/internal/logging"
)

// Watch signals on the returned channel whenever something under dirs is
// written, created, removed or renamed. Bursts coalesce into a single
// pending signal. Immediate subdirectories are watched too, so manifest
// edits inside tenant directories are seen. The watcher stops with ctx.
func Watch(ctx context.Context, dirs ...string) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		addTree(w, d)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Create) {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						_ = w.Add(ev.Name)
					}
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logging.Debugf("watch: %v", err)
			}
		}
	}()
	return out, nil
}

func addTree(w *fsnotify.Watcher, dir string) {
	if err := w.Add(dir); err != nil {
		logging.Debugf("watch %s: %v", filepath.Base(dir), err)
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			_ = w.Add(filepath.Join(dir, e.Name()))
		}
	}
}
