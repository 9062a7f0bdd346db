// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// Package decisionlog reads the append-only decision log written by the
// execution engine and indexes the latest fact per tenant.
package decisionlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xnfinite/nightcoreapp/internal/logging"
	"github.com/xnfinite/nightcoreapp/internal/model"
)

// FileName is the decision log file name inside <root>/logs.
const FileName = "guardian_decisions.jsonl"

// maxLineSize caps a single log line; longer lines are skipped.
const maxLineSize = 4 << 20

// PathFor returns the decision log location for a trust root.
func PathFor(root string) string {
	return filepath.Join(root, "logs", FileName)
}

// Index maps tenant name to its latest decision fact.
type Index map[string]model.DecisionFact

// Lookup returns the fact for tenant, if any.
func (ix Index) Lookup(tenant string) (model.DecisionFact, bool) {
	f, ok := ix[tenant]
	return f, ok
}

// Add merges an entry into the index. The entry wins only when its
// timestamp is strictly greater as a raw string, so ties keep the first seen.
func (ix Index) Add(e model.DecisionLogEntry) {
	cur, ok := ix[e.Tenant]
	if !ok || e.Timestamp > cur.Timestamp {
		ix[e.Tenant] = model.DecisionFact{Timestamp: e.Timestamp, ThreatScore: e.ThreatScore}
	}
}

// BuildIndex reads the log at path from scratch. A missing file yields an
// empty index.
func BuildIndex(path string) (Index, error) {
	ix := Index{}
	err := Walk(path, func(e model.DecisionLogEntry) error {
		ix.Add(e)
		return nil
	})
	return ix, err
}

// ReadEntries returns every parsable entry in file order.
func ReadEntries(path string) ([]model.DecisionLogEntry, error) {
	var out []model.DecisionLogEntry
	err := Walk(path, func(e model.DecisionLogEntry) error {
		out = append(out, e)
		return nil
	})
	return out, err
}

// Walk streams parsable entries of the log at path to fn. Unparsable lines
// are skipped. A missing file is not an error.
func Walk(path string, fn func(model.DecisionLogEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open decision log: %w", err)
	}
	defer f.Close()
	_, err = scan(f, fn)
	return err
}

// scan feeds entries from r to fn and returns the number of bytes consumed
// up to and including the last complete line.
func scan(r io.Reader, fn func(model.DecisionLogEntry) error) (int64, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	skipped := 0
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 && line[len(line)-1] == '\n' {
			consumed += int64(len(line))
			if e, perr := ParseLine(line); perr == nil {
				if ferr := fn(e); ferr != nil {
					return consumed, ferr
				}
			} else if len(bytes.TrimSpace(line)) > 0 {
				skipped++
			}
		} else if len(line) > 0 && err == io.EOF {
			// A final line without newline may be a partial write; it is
			// parsed when complete JSON but not counted as consumed.
			if e, perr := ParseLine(line); perr == nil {
				if ferr := fn(e); ferr != nil {
					return consumed, ferr
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return consumed, fmt.Errorf("read decision log: %w", err)
		}
	}
	if skipped > 0 {
		logging.Debugf("decision log: skipped %d unparsable line(s)", skipped)
	}
	return consumed, nil
}

// ParseLine decodes one log line. It fails when tenant or timestamp are not
// strings, or threat_score is present but not an integer within 0-255.
func ParseLine(line []byte) (model.DecisionLogEntry, error) {
	var e model.DecisionLogEntry
	line = bytes.TrimSpace(line)
	if len(line) == 0 || len(line) > maxLineSize {
		return e, fmt.Errorf("%w: empty or oversized line", model.ErrParse)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return e, fmt.Errorf("%w: %v", model.ErrParse, err)
	}
	if err := decodeString(raw, "tenant", &e.Tenant, true); err != nil {
		return e, err
	}
	if err := decodeString(raw, "timestamp", &e.Timestamp, true); err != nil {
		return e, err
	}
	if err := decodeString(raw, "reason", &e.Reason, false); err != nil {
		return e, err
	}
	if v, ok := raw["threat_score"]; ok && string(v) != "null" {
		var n json.Number
		if err := json.Unmarshal(v, &n); err != nil {
			return e, fmt.Errorf("%w: threat_score: %v", model.ErrParse, err)
		}
		i, err := n.Int64()
		if err != nil || i < 0 || i > 255 {
			return e, fmt.Errorf("%w: threat_score %s out of range", model.ErrParse, n)
		}
		e.ThreatScore = uint8(i)
	}
	for _, k := range []string{"tenant", "timestamp", "reason", "threat_score"} {
		delete(raw, k)
	}
	if len(raw) > 0 {
		e.Metadata = raw
	}
	return e, nil
}

func decodeString(raw map[string]json.RawMessage, key string, dst *string, required bool) error {
	v, ok := raw[key]
	if !ok || string(v) == "null" {
		if required {
			return fmt.Errorf("%w: missing %s", model.ErrParse, key)
		}
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrParse, key, err)
	}
	return nil
}
