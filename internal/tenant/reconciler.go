// Copyright (c) 2026 NightCore Team
// NightCore - local trust console for sandboxed WebAssembly tenants
// This source code is licensed under the MIT license found in the LICENSE file.

// Package tenant reconciles tenant manifests with the decision log into one
// classification per tenant, and records operator approvals.
package tenant

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/xnfinite/nightcoreapp/internal/decisionlog"
	"github.com/xnfinite/nightcoreapp/internal/logging"
	"github.com/xnfinite/nightcoreapp/internal/model"
	"github.com/xnfinite/nightcoreapp/internal/pathmask"
)

// ManifestName is the per-tenant manifest file.
const ManifestName = "manifest.json"

// ModulesDir returns <root>/modules.
func ModulesDir(root string) string { return filepath.Join(root, "modules") }

// Dir returns the directory of tenant under root.
func Dir(root, name string) string { return filepath.Join(ModulesDir(root), name) }

// Manifest is the subset of manifest.json the console interprets.
type Manifest struct {
	Ingestion  *model.IngestionState `json:"ingestion,omitempty"`
	Approved   bool                  `json:"approved"`
	ApprovedAt string                `json:"approved_at,omitempty"`
	ApprovedBy string                `json:"approved_by,omitempty"`
}

// Classify maps the four facts to exactly one label. Precedence is
// blocked > observed > pending_approval > cleared.
func Classify(hasManifest bool, channel string, approved, hasExecuted bool) model.Classification {
	switch {
	case !hasManifest:
		return model.Blocked
	case hasExecuted:
		return model.Observed
	case channel != model.ChannelManual && !approved:
		return model.PendingApproval
	default:
		return model.Cleared
	}
}

// ReadManifest parses the manifest of one tenant directory.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m, fmt.Errorf("manifest for %s: %w", filepath.Base(dir), model.ErrNotFound)
		}
		return m, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%w: manifest for %s: %v", model.ErrParse, filepath.Base(dir), err)
	}
	return m, nil
}

// ListStates returns one state per directory under <root>/modules, sorted
// by name. Paths are masked. A missing modules directory yields no tenants.
func ListStates(root string, index decisionlog.Index) ([]model.TenantState, error) {
	names, err := List(root)
	if err != nil {
		return nil, err
	}
	out := make([]model.TenantState, 0, len(names))
	for _, name := range names {
		out = append(out, State(root, name, index))
	}
	return out, nil
}

// List returns tenant directory names under root, sorted.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(ModulesDir(root))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// State reconciles one tenant.
func State(root, name string, index decisionlog.Index) model.TenantState {
	dir := Dir(root, name)
	st := model.TenantState{
		Name:      name,
		Path:      pathmask.Mask(root, dir),
		Ingestion: model.UnknownIngestion(),
	}

	m, err := ReadManifest(dir)
	switch {
	case errors.Is(err, model.ErrNotFound):
	case err != nil:
		// Corrupt manifests stay visible with conservative facts.
		st.HasManifest = true
		st.ManifestError = err.Error()
		logging.Warnf("tenant %s: %v", name, err)
	default:
		st.HasManifest = true
		st.Ingestion = normalizeIngestion(m.Ingestion)
		st.Authorization = model.AuthorizationState{
			Approved:   m.Approved,
			ApprovedAt: m.ApprovedAt,
			ApprovedBy: m.ApprovedBy,
		}
	}

	if fact, ok := index.Lookup(name); ok {
		st.Execution = model.ExecutionState{HasExecuted: true, LastExecutionTime: fact.Timestamp}
		st.Observation = model.ObservationState{CurrentThreatScore: fact.ThreatScore}
	}

	st.Classification = Classify(st.HasManifest, st.Ingestion.Channel, st.Authorization.Approved, st.Execution.HasExecuted)
	return st
}

func normalizeIngestion(in *model.IngestionState) model.IngestionState {
	out := model.UnknownIngestion()
	if in == nil {
		return out
	}
	if in.Channel != "" {
		out.Channel = in.Channel
	}
	if in.Source != "" {
		out.Source = in.Source
	}
	if in.Timestamp != "" {
		out.Timestamp = in.Timestamp
	}
	return out
}
