// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

package decisionlog

import (
	"os"
	"testing"
	"time"
)

func appendLine(t *testing.T, p, line string) {
	t.Helper()
	f, err := os.OpenFile(p, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestCache_IncrementalAppend(t *testing.T) {
	p := writeLog(t, `{"tenant":"t1","timestamp":"2024-01-01T00:00:01Z","threat_score":5}`)
	c := NewCache(p)

	ix, err := c.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ix["t1"].ThreatScore != 5 {
		t.Fatalf("unexpected first load %v", ix)
	}
	first := c.Offset()

	appendLine(t, p, `{"tenant":"t1","timestamp":"2024-01-01T00:00:02Z","threat_score":50}`)
	appendLine(t, p, `{"tenant":"t2","timestamp":"2024-01-01T00:00:03Z","threat_score":7}`)
	ix, err = c.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ix["t1"].ThreatScore != 50 || ix["t2"].ThreatScore != 7 {
		t.Fatalf("appended lines not indexed: %v", ix)
	}
	if c.Offset() <= first {
		t.Fatalf("cursor did not advance: %d <= %d", c.Offset(), first)
	}

	want, _ := BuildIndex(p)
	if len(want) != len(ix) || want["t1"] != ix["t1"] || want["t2"] != ix["t2"] {
		t.Fatalf("cache diverged from full rebuild: %v vs %v", ix, want)
	}
}

func TestCache_RebuildsAfterTruncate(t *testing.T) {
	p := writeLog(t,
		`{"tenant":"t1","timestamp":"2024-01-01T00:00:01Z"}`,
		`{"tenant":"t2","timestamp":"2024-01-01T00:00:01Z"}`,
	)
	c := NewCache(p)
	if _, err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := os.WriteFile(p, []byte(`{"tenant":"t3","timestamp":"x"}`+"\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	ix, err := c.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := ix["t1"]; ok || len(ix) != 1 {
		t.Fatalf("expected rebuilt index with only t3, got %v", ix)
	}
}

func TestCache_MissingFileResets(t *testing.T) {
	p := writeLog(t, `{"tenant":"t1","timestamp":"x"}`)
	c := NewCache(p)
	if _, err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := os.Remove(p); err != nil {
		t.Fatalf("remove: %v", err)
	}
	ix, err := c.Load()
	if err != nil || len(ix) != 0 || c.Offset() != 0 {
		t.Fatalf("expected empty index after removal, got %v %v offset=%d", ix, err, c.Offset())
	}
}

func TestCache_ReturnsSnapshot(t *testing.T) {
	p := writeLog(t, `{"tenant":"t1","timestamp":"x"}`)
	c := NewCache(p)
	ix, _ := c.Load()
	delete(ix, "t1")
	// Touch mtime so the cached branch is bypassed on some filesystems.
	_ = os.Chtimes(p, time.Now(), time.Now())
	again, _ := c.Load()
	if _, ok := again["t1"]; !ok {
		t.Fatalf("caller mutation leaked into cache")
	}
}

func TestCache_RebuildsAfterRewriteToLargerFile(t *testing.T) {
	p := writeLog(t, `{"tenant":"old","timestamp":"2024-01-01T00:00:01Z","threat_score":99}`)
	c := NewCache(p)
	if _, err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	rewritten := `{"tenant":"new1","timestamp":"2024-02-01T00:00:01Z","threat_score":3}` + "\n" +
		`{"tenant":"new2","timestamp":"2024-02-01T00:00:02Z","threat_score":4}` + "\n"
	if err := os.WriteFile(p, []byte(rewritten), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	ix, err := c.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want, err := BuildIndex(p)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if _, ok := ix["old"]; ok {
		t.Fatalf("stale tenant survived rewrite: %v", ix)
	}
	if len(ix) != len(want) || ix["new1"] != want["new1"] || ix["new2"] != want["new2"] {
		t.Fatalf("cache diverged from full rebuild: %v vs %v", ix, want)
	}
}

func TestCache_RebuildsAfterFileReplaced(t *testing.T) {
	p := writeLog(t, `{"tenant":"a","timestamp":"2024-01-01T00:00:01Z"}`)
	c := NewCache(p)
	if _, err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	next := p + ".next"
	body := `{"tenant":"a","timestamp":"2024-01-01T00:00:01Z"}` + "\n" +
		`{"tenant":"b","timestamp":"2024-01-01T00:00:02Z"}` + "\n"
	if err := os.WriteFile(next, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Rename(next, p); err != nil {
		t.Fatalf("rename: %v", err)
	}
	ix, err := c.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ix) != 2 || ix["b"].Timestamp != "2024-01-01T00:00:02Z" {
		t.Fatalf("expected both tenants after replacement, got %v", ix)
	}
}
